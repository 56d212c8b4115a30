package auth

import "errors"

// ErrUnknownScheme indicates a server names an authentication scheme no factory is registered for.
var ErrUnknownScheme = errors.New("unknown authentication scheme")

// ErrMissingUsername indicates a basic-auth server has no username configured.
var ErrMissingUsername = errors.New("basic authentication requires a username")

// ErrNoOAuthConfig indicates no OAuth record exists for an oauth server.
var ErrNoOAuthConfig = errors.New("no OAuth configuration for server")

// ErrOAuthUnavailable indicates the OAuth scheme was requested without a token source wired in.
var ErrOAuthUnavailable = errors.New("OAuth authentication is not available")

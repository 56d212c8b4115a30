package oidc

import "errors"

// ErrUnknownConfiguration indicates no OIDC client configuration carries the requested name.
var ErrUnknownConfiguration = errors.New("unknown OIDC client configuration")

// ErrTokenNotFound indicates the token store holds no token for a configuration.
var ErrTokenNotFound = errors.New("no OAuth token stored")

// ErrTokenStore indicates the token store could not be read or written.
var ErrTokenStore = errors.New("OAuth token store failure")

// ErrRenewalInterrupted indicates the wait for a renewal job was cancelled.
var ErrRenewalInterrupted = errors.New("token renewal interrupted")

// ErrExchange indicates an authorization code could not be exchanged for a token.
var ErrExchange = errors.New("authorization code exchange failed")

package jira

import (
	"errors"
	"fmt"
)

// Sentinel errors for Jira client operations.

// ErrConfiguration indicates the instance registry cannot serve a request.
var ErrConfiguration = errors.New("jira configuration error")

// ErrUnknownInstance indicates no server is configured under the requested instance id.
var ErrUnknownInstance = fmt.Errorf("%w: unknown instance", ErrConfiguration)

// ErrServerURLParse indicates a configured server URL could not be parsed.
var ErrServerURLParse = fmt.Errorf("%w: could not parse the Jira server URL", ErrConfiguration)

// ErrRequestFailed indicates a GET or POST against Jira failed at the transport level.
var ErrRequestFailed = errors.New("jira request failed")

// ErrMalformedPaginatedResponse indicates a page lacked the isLast or values attribute.
var ErrMalformedPaginatedResponse = errors.New("expected a paginated response")

// ErrMalformedJiraResponse indicates a Jira response lacked an expected attribute.
var ErrMalformedJiraResponse = errors.New("malformed Jira response")

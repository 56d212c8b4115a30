package issuecreate

import "errors"

// ErrInvalidInput indicates an issue-creation payload is missing or has malformed required fields.
var ErrInvalidInput = errors.New("invalid input data")

// ErrUnexpectedReporterField indicates the caller supplied a reporter, which is system-assigned.
var ErrUnexpectedReporterField = errors.New("unexpected reporter field")

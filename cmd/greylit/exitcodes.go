package main

import (
	"errors"

	"github.com/adsarch/greylit/internal/author"
	"github.com/adsarch/greylit/internal/geo"
	"github.com/adsarch/greylit/internal/ingest"
	"github.com/adsarch/greylit/internal/oasis"
	"github.com/adsarch/greylit/internal/store"
)

const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing config, bad credentials)
	ExitDataError   = 3 // Data error (malformed feed, unparsable authors or points)
	ExitAborted     = 4 // A step was declined at the prompt
)

// exitCodeFor maps an error returned by a command to its exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ingest.ErrAborted):
		return ExitAborted
	case oasis.IsAuthError(err), errors.Is(err, store.ErrSeriesNameMissing):
		return ExitConfigError
	case errors.Is(err, oasis.ErrInvalidResponse),
		errors.Is(err, author.ErrUnparsedSegments),
		errors.Is(err, geo.ErrInvalidPoint):
		return ExitDataError
	default:
		return ExitError
	}
}

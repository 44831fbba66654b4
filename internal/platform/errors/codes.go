// Package errors provides coded domain errors for the finder core.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unclassified failure.
	CodeUnknown Code = "UNKNOWN"

	// CodeValidation marks user input rejected by a registration step.
	CodeValidation Code = "VALIDATION_FAILED"
	// CodeMissingSession marks an action with no wizard or discovery state behind it.
	CodeMissingSession Code = "SESSION_MISSING"
	// CodeNotFound marks a profile or candidate that no longer exists.
	CodeNotFound Code = "NOT_FOUND"
	// CodeStoreUnavailable marks a storage read or write that could not complete.
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
	// CodeInvalidTurn marks a malformed inbound turn from the transport.
	CodeInvalidTurn Code = "TURN_INVALID"
)

// GRPCCode maps a domain code to the closest gRPC status code.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeValidation, CodeInvalidTurn:
		return codes.InvalidArgument
	case CodeMissingSession:
		return codes.FailedPrecondition
	case CodeNotFound:
		return codes.NotFound
	case CodeStoreUnavailable:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

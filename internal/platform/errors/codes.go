// Package errors provides structured error handling for worldline operations.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Worldline errors
	CodeWorldlineIDEmpty  Code = "WORLDLINE_ID_EMPTY"
	CodeWorldlineNotFound Code = "WORLDLINE_NOT_FOUND"

	// Snapshot errors
	CodeSnapshotCacheKeyMissing Code = "SNAPSHOT_CACHE_KEY_MISSING"
	CodeCacheKeyFieldMissing    Code = "CACHE_KEY_FIELD_MISSING"

	// Scenario errors
	CodeScenarioScriptInvalid Code = "SCENARIO_SCRIPT_INVALID"
)

// GRPCCode maps the error code to a gRPC status code.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeWorldlineNotFound:
		return codes.NotFound
	case CodeWorldlineIDEmpty, CodeSnapshotCacheKeyMissing, CodeCacheKeyFieldMissing, CodeScenarioScriptInvalid:
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}

// Package errors provides the error handling system for the release pipeline.
// It extends Go's standard error handling with structured error codes so that
// callers can classify a failure (setup, build, packaging, publication) without
// string matching, while errors.Is/errors.As keep working through wrapping.
package errors

// ErrorCode identifies a class of pipeline failure.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Trigger errors.

	// CodeInvalidTrigger indicates the triggering event is malformed or carries
	// no resolvable ref.
	CodeInvalidTrigger ErrorCode = "INVALID_TRIGGER"

	// Environment errors.

	// CodeSetupFailed indicates a toolchain prerequisite is missing or the
	// execution environment could not be prepared.
	CodeSetupFailed ErrorCode = "SETUP_FAILED"

	// Execution errors.

	// CodeBuildFailed indicates the platform build recipe returned non-zero.
	CodeBuildFailed ErrorCode = "BUILD_FAILED"

	// CodePackageFailed indicates the archiving step failed.
	CodePackageFailed ErrorCode = "PACKAGE_FAILED"

	// CodePublishFailed indicates artifact storage or the release API failed.
	CodePublishFailed ErrorCode = "PUBLISH_FAILED"

	// Resource errors.

	// CodeAlreadyExists indicates a release already exists for the tag and
	// cannot be created again.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// CodeNotFound indicates a requested resource (artifact, release) does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// Validation errors.

	// CodeInvalidConfig indicates a configuration error prevents the pipeline
	// from running.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// Generic errors.

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)

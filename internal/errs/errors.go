// Package errs defines the error taxonomy shared by the assembly pipeline.
//
// Three families exist:
//   - ConfigError: structural problems in a configuration graph, plus the
//     lifecycle conflict AlreadyActive. These abort the assembly pass that
//     found them and are never defaulted or retried.
//   - StorageError: a storage location could not be used.
//   - AccessDeniedError: the access control gate refused an operation.
//
// All helpers use errors.As so wrapped errors still match.
package errs

import (
	"errors"
	"fmt"
)

// ConfigCode categorizes configuration errors.
type ConfigCode string

const (
	// CodeMissingProperty indicates a required property has no value.
	CodeMissingProperty ConfigCode = "MISSING_PROPERTY"

	// CodeAmbiguousProperty indicates a single-valued property has several values.
	CodeAmbiguousProperty ConfigCode = "AMBIGUOUS_PROPERTY"

	// CodeMultipleServers indicates more than one server resource in one graph.
	CodeMultipleServers ConfigCode = "MULTIPLE_SERVERS"

	// CodeNoServicesFound indicates a configuration file declares no services.
	CodeNoServicesFound ConfigCode = "NO_SERVICES_FOUND"

	// CodeBadServiceName indicates the service name is not a simple string.
	CodeBadServiceName ConfigCode = "BAD_SERVICE_NAME"

	// CodeMissingDataset indicates a service has no resolvable dataset reference.
	CodeMissingDataset ConfigCode = "MISSING_DATASET"

	// CodeAlreadyActive indicates a storage location already has a live handle.
	CodeAlreadyActive ConfigCode = "ALREADY_ACTIVE"

	// CodeBadUserName indicates an allow-list entry is not a simple string.
	CodeBadUserName ConfigCode = "BAD_USER_NAME"

	// CodeDuplicateName indicates an access point name is already registered.
	CodeDuplicateName ConfigCode = "DUPLICATE_NAME"

	// CodeUnknownDatasetType indicates no builder exists for a dataset's types.
	CodeUnknownDatasetType ConfigCode = "UNKNOWN_DATASET_TYPE"

	// CodeBadLocation indicates a storage location string cannot be used.
	CodeBadLocation ConfigCode = "BAD_LOCATION"

	// CodeMalformedList indicates a broken rdf:first/rdf:rest chain.
	CodeMalformedList ConfigCode = "MALFORMED_LIST"

	// CodeInitFailed indicates a registered initializer returned an error.
	CodeInitFailed ConfigCode = "INIT_FAILED"

	// CodeSyntax indicates a configuration document could not be parsed.
	CodeSyntax ConfigCode = "SYNTAX"
)

// ConfigError reports a structural problem in configuration.
type ConfigError struct {
	// Code identifies the error category.
	Code ConfigCode

	// Message is a human-readable description.
	Message string

	// Subject names the graph node or file the error is about (optional).
	Subject string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s: %s (subject=%s)", e.Code, e.Message, e.Subject)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Config creates a ConfigError.
func Config(code ConfigCode, subject, format string, args ...any) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Subject: subject,
	}
}

// IsConfigCode reports whether err is a ConfigError with the given code.
func IsConfigCode(err error, code ConfigCode) bool {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// IsConfigError reports whether err is any ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// StorageCode categorizes storage errors.
type StorageCode string

const (
	// CodeLocationUnavailable indicates a location could not be created or opened.
	CodeLocationUnavailable StorageCode = "LOCATION_UNAVAILABLE"

	// CodeReleased indicates use of a handle after its location was released.
	CodeReleased StorageCode = "RELEASED"

	// CodeIO indicates a read or write against an open handle failed.
	CodeIO StorageCode = "IO"
)

// StorageError reports a failure of a storage location or handle.
type StorageError struct {
	Code     StorageCode
	Location string
	Err      error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Location, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Location)
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storage creates a StorageError.
func Storage(code StorageCode, location string, err error) *StorageError {
	return &StorageError{Code: code, Location: location, Err: err}
}

// IsStorageCode reports whether err is a StorageError with the given code.
func IsStorageCode(err error, code StorageCode) bool {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// AccessDeniedError reports that a principal may not perform an operation
// on a dataset.
type AccessDeniedError struct {
	Dataset   string
	Principal string
	Operation string
}

// Error implements the error interface.
func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: principal %q may not %s on dataset %q",
		e.Principal, e.Operation, e.Dataset)
}

// IsAccessDenied reports whether err is an AccessDeniedError.
func IsAccessDenied(err error) bool {
	var ae *AccessDeniedError
	return errors.As(err, &ae)
}

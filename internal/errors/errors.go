// Package errors provides standardized error handling for ocrdrop.
// It defines the error kinds surfaced by the upload widget, typed errors for
// files, configuration, remote calls and entries, and helpers for creating,
// wrapping and classifying them.
package errors

import (
	"errors"
	"fmt"
)

// Standard errors package errors that we re-export for convenience
var (
	// Unwrap unwraps an error to access the underlying error
	Unwrap = errors.Unwrap
	// Is reports whether any error in err's chain matches target
	Is = errors.Is
	// As finds the first error in err's chain that matches target
	As = errors.As
)

// ErrorKind represents the kind of error
type ErrorKind int

// Error kinds
const (
	Unknown ErrorKind = iota
	// File error kinds
	FileNotFound
	FileAccessDenied
	InvalidPath
	UnsupportedType
	// Config error kinds
	InvalidConfig
	ConfigNotFound
	// Input error kinds
	InvalidInputData
	// Upload lifecycle kinds
	UploadFailed
	EntryNotFound
	NotRetryable
	// Remote call kinds
	Transport
	MalformedResponse
)

var kindNames = map[ErrorKind]string{
	Unknown:           "unknown",
	FileNotFound:      "file_not_found",
	FileAccessDenied:  "file_access_denied",
	InvalidPath:       "invalid_path",
	UnsupportedType:   "unsupported_type",
	InvalidConfig:     "invalid_config",
	ConfigNotFound:    "config_not_found",
	InvalidInputData:  "invalid_input",
	UploadFailed:      "upload_failed",
	EntryNotFound:     "entry_not_found",
	NotRetryable:      "not_retryable",
	Transport:         "transport",
	MalformedResponse: "malformed_response",
}

// String returns a stable name for the kind, used in log fields.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Common error constants for frequently occurring errors
var (
	ErrFileNotFound    = NewFileError("file not found", "", FileNotFound, nil)
	ErrUnsupportedType = NewFileError("unsupported file type", "", UnsupportedType, nil)
	ErrInvalidConfig   = NewConfigError("invalid configuration", "", InvalidConfig, nil)
	ErrEntryNotFound   = NewEntryError("entry not found", "", EntryNotFound, nil)
	ErrNotRetryable    = NewEntryError("entry is not in a retryable state", "", NotRetryable, nil)
	ErrUploadFailed    = &ApplicationError{msg: "simulated upload failed", kind: UploadFailed}
)

// ApplicationError is the base error type for all application errors
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

// Error returns the error message
func (e *ApplicationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap returns the wrapped error
func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the kind of error
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// FileError represents errors related to local files
type FileError struct {
	ApplicationError
	path string
}

// NewFileError creates a new file error
func NewFileError(msg string, path string, kind ErrorKind, err error) *FileError {
	return &FileError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		path: path,
	}
}

// Error returns the file error message
func (e *FileError) Error() string {
	if e.path != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.path, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.path)
	}
	return e.ApplicationError.Error()
}

// Path returns the file path associated with the error
func (e *FileError) Path() string {
	return e.path
}

// ConfigError represents errors related to configuration
type ConfigError struct {
	ApplicationError
	param string
}

// NewConfigError creates a new configuration error
func NewConfigError(msg string, param string, kind ErrorKind, err error) *ConfigError {
	return &ConfigError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		param: param,
	}
}

// Error returns the config error message
func (e *ConfigError) Error() string {
	if e.param != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.param, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.param)
	}
	return e.ApplicationError.Error()
}

// Param returns the configuration parameter associated with the error
func (e *ConfigError) Param() string {
	return e.param
}

// RemoteError represents a failed call to the OCR service.
// Kind is Transport for connection problems and non-2xx statuses,
// MalformedResponse when the body does not match the expected shape.
type RemoteError struct {
	ApplicationError
	endpoint string
	status   int
}

// NewRemoteError creates a new remote call error
func NewRemoteError(msg string, endpoint string, kind ErrorKind, err error) *RemoteError {
	return &RemoteError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		endpoint: endpoint,
	}
}

// WithStatus records the HTTP status code returned by the endpoint
func (e *RemoteError) WithStatus(status int) *RemoteError {
	e.status = status
	return e
}

// Error returns the remote error message
func (e *RemoteError) Error() string {
	msg := e.msg
	if e.endpoint != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.endpoint)
	}
	if e.status != 0 {
		msg = fmt.Sprintf("%s: status=%d", msg, e.status)
	}
	if e.err != nil {
		return fmt.Sprintf("%s: %v", msg, e.err)
	}
	return msg
}

// Endpoint returns the endpoint path that failed
func (e *RemoteError) Endpoint() string {
	return e.endpoint
}

// Status returns the HTTP status code, or 0 when no response was received
func (e *RemoteError) Status() int {
	return e.status
}

// EntryError represents errors addressing a tracked file entry
type EntryError struct {
	ApplicationError
	id string
}

// NewEntryError creates a new entry error
func NewEntryError(msg string, id string, kind ErrorKind, err error) *EntryError {
	return &EntryError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		id: id,
	}
}

// Error returns the entry error message
func (e *EntryError) Error() string {
	if e.id != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.id, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.id)
	}
	return e.ApplicationError.Error()
}

// ID returns the entry id associated with the error
func (e *EntryError) ID() string {
	return e.id
}

// InvalidInputError represents errors related to invalid user input
type InvalidInputError struct {
	ApplicationError
	context map[string]interface{}
}

// NewInvalidInputError creates a new invalid input error
func NewInvalidInputError(msg string, err error) *InvalidInputError {
	return &InvalidInputError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: InvalidInputData,
		},
		context: make(map[string]interface{}),
	}
}

// WithContext adds context information to the invalid input error
func (e *InvalidInputError) WithContext(key string, value interface{}) *InvalidInputError {
	e.context[key] = value
	return e
}

// Context returns the context information associated with the error
func (e *InvalidInputError) Context() map[string]interface{} {
	return e.context
}

// New creates a new error with a message
func New(msg string) error {
	return &ApplicationError{
		msg:  msg,
		kind: Unknown,
	}
}

// Newf creates a new error with a formatted message
func Newf(format string, args ...interface{}) error {
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		kind: Unknown,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: Unknown,
	}
}

// Wrapf wraps an existing error with additional formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		err:  err,
		kind: Unknown,
	}
}

type kinded interface {
	Kind() ErrorKind
}

// KindOf returns the kind of the first typed error in err's chain,
// or Unknown when there is none.
func KindOf(err error) ErrorKind {
	for err != nil {
		if k, ok := err.(kinded); ok && k.Kind() != Unknown {
			return k.Kind()
		}
		err = errors.Unwrap(err)
	}
	return Unknown
}

// IsFileNotFound checks if the error is a file not found error
func IsFileNotFound(err error) bool {
	var fileErr *FileError
	if errors.As(err, &fileErr) {
		return fileErr.Kind() == FileNotFound
	}
	return false
}

// IsUnsupportedType checks if the error rejects a file by MIME type
func IsUnsupportedType(err error) bool {
	var fileErr *FileError
	if errors.As(err, &fileErr) {
		return fileErr.Kind() == UnsupportedType
	}
	return false
}

// IsInvalidConfig checks if the error is an invalid configuration error
func IsInvalidConfig(err error) bool {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Kind() == InvalidConfig
	}
	return false
}

// IsTransport checks if the error is a remote transport failure
func IsTransport(err error) bool {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Kind() == Transport
	}
	return false
}

// IsMalformedResponse checks if the remote answered with an unexpected body
func IsMalformedResponse(err error) bool {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Kind() == MalformedResponse
	}
	return false
}

// IsEntryNotFound checks if the error refers to an unknown entry id
func IsEntryNotFound(err error) bool {
	var entryErr *EntryError
	if errors.As(err, &entryErr) {
		return entryErr.Kind() == EntryNotFound
	}
	return false
}

// IsNotRetryable checks if a retry was requested for an entry that is not in error
func IsNotRetryable(err error) bool {
	var entryErr *EntryError
	if errors.As(err, &entryErr) {
		return entryErr.Kind() == NotRetryable
	}
	return false
}

// IsInvalidInputError checks if the error is an invalid input error
func IsInvalidInputError(err error) bool {
	var inputErr *InvalidInputError
	return errors.As(err, &inputErr)
}

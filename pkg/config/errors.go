package config

import (
	"fmt"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "proxies[2].listen_on.url").
	Field string

	// Err is the underlying stage-local error.
	Err error
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Err)
}

// Unwrap exposes the stage-local error for errors.As matching.
func (e FieldError) Unwrap() error {
	return e.Err
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// ListenURLError reports a listen URL that could not be accepted: bad syntax,
// an unresolvable address, an unsupported scheme, or forbidden URL components.
type ListenURLError struct {
	URL    string
	Reason string
}

func (e *ListenURLError) Error() string {
	return fmt.Sprintf("listen URL %q not valid: %s", e.URL, e.Reason)
}

// PortMissingError reports a listen URL without an explicit port.
type PortMissingError struct {
	URL string
}

func (e *PortMissingError) Error() string {
	return fmt.Sprintf("port missing from listen URL %q", e.URL)
}

// PortOutOfRangeError reports a listen port below the unprivileged range.
type PortOutOfRangeError struct {
	URL  string
	Port int
}

func (e *PortOutOfRangeError) Error() string {
	return fmt.Sprintf("port %d in listen URL %q out of bounds: ports below 1024 are not allowed", e.Port, e.URL)
}

// SSLOptionsNotAllowedError reports certificate or key options on a plain
// HTTP listener.
type SSLOptionsNotAllowedError struct {
	URL string
}

func (e *SSLOptionsNotAllowedError) Error() string {
	return fmt.Sprintf("options certificate_file and key_file are not supported when the listen protocol of %q is http", e.URL)
}

// CertificateFileRequiredError reports a missing certificate_file on an
// HTTPS listener.
type CertificateFileRequiredError struct {
	URL string
}

func (e *CertificateFileRequiredError) Error() string {
	return fmt.Sprintf("certificate_file is required when the listen protocol of %q is https", e.URL)
}

// KeyFileRequiredError reports a missing key_file on an HTTPS listener.
type KeyFileRequiredError struct {
	URL string
}

func (e *KeyFileRequiredError) Error() string {
	return fmt.Sprintf("key_file is required when the listen protocol of %q is https", e.URL)
}

// ConnectURLError reports a connect URL that could not be accepted.
type ConnectURLError struct {
	URL    string
	Reason string
}

func (e *ConnectURLError) Error() string {
	return fmt.Sprintf("connect URL %q not valid: %s", e.URL, e.Reason)
}

// ConflictError reports two proxy entries that cannot coexist. First and
// Second are 1-based positions in the proxies list.
type ConflictError struct {
	First  int
	Second int
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting configuration: proxy %d and proxy %d in the proxies list %s", e.First, e.Second, e.Reason)
}

package errors

import (
	"fmt"
	"strings"
)

// UserFriendlyError provides user-friendly error messages with context and hints
type UserFriendlyError struct {
	Message string
	Reason  string
	Hint    string
	Try     string
	Err     error
}

func (e UserFriendlyError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Message)
	if e.Reason != "" {
		buf.WriteString("\n  Reason: " + e.Reason)
	}
	if e.Hint != "" {
		buf.WriteString("\n  Hint: " + e.Hint)
	}
	if e.Try != "" {
		buf.WriteString("\n  Try: " + e.Try)
	}
	if e.Err != nil {
		buf.WriteString("\n  Details: " + e.Err.Error())
	}
	return buf.String()
}

func (e UserFriendlyError) Unwrap() error {
	return e.Err
}

// WrapLinkError wraps radio link failures with user-friendly context
func WrapLinkError(err error, linkDesc string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Failed to reach the phaser over %s", linkDesc),
		Reason:  extractLinkReason(err),
		Hint:    "The phaser may be powered off, out of range, or configured with a different secret",
		Try:     "phaselink send --position (a single query with debug logging: add -d)",
		Err:     err,
	}
}

// WrapSerialError wraps modem port failures with user-friendly context
func WrapSerialError(err error, device string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Failed to open radio modem at %s", device),
		Reason:  extractSerialReason(err),
		Hint:    "Check that the modem is plugged in and your user can access the port",
		Try:     "ls -l /dev/ttyUSB* and verify the device path in your config",
		Err:     err,
	}
}

// WrapConfigError wraps configuration errors with user-friendly context
func WrapConfigError(err error, configPath string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Configuration error in %s", configPath),
		Reason:  err.Error(),
		Hint:    "See configs/ for annotated example files",
		Try:     fmt.Sprintf("phaselink controller --config %s (errors print the failing key)", configPath),
		Err:     err,
	}
}

func extractLinkReason(err error) string {
	errStr := err.Error()

	if strings.Contains(errStr, "acknowledgment") || strings.Contains(errStr, "timeout") {
		return "No acknowledgment - the phaser did not answer within the retry budget"
	}
	if strings.Contains(errStr, "send failed") {
		return "Local transmit failed - the link device rejected the datagram"
	}
	if strings.Contains(errStr, "connection refused") {
		return "Connection refused - nothing is listening at the bench peer address"
	}

	return "Radio link communication failed"
}

func extractSerialReason(err error) string {
	errStr := err.Error()

	if strings.Contains(errStr, "no such file") || strings.Contains(errStr, "not found") {
		return "Device path does not exist - the modem may be unplugged"
	}
	if strings.Contains(errStr, "permission denied") {
		return "Permission denied - add your user to the dialout group"
	}
	if strings.Contains(errStr, "busy") {
		return "Port is busy - another process holds the modem open"
	}

	return "Serial port access failed"
}

// Package errmsg provides consistent error formatting for user-facing
// transient notifications.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Media loads
	OpTrackLoad Op = "load track"
	OpAdLoad    Op = "load ad"

	// Session persistence
	OpSnapshotLoad Op = "load session snapshot"
	OpSnapshotSave Op = "save session snapshot"

	// Initialization
	OpInitialize Op = "initialize session state"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}

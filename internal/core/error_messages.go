package core

// # Error Codes Reference
//
// User-facing messages carry a code that can be quoted to support.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large            Patterns: "file too large"
//	FILE002 - Unsupported file format   Patterns: "unsupported format"
//	FILE003 - Encoding error            Patterns: "encoding error", "not a valid zip", "zip: "
//	FILE004 - No file                   Patterns: "no file provided", "no such file"
//	FILE005 - Empty file                Patterns: "empty file"
//	FILE006 - Unreadable workbook       Patterns: "open workbook", "corrupt workbook", "workbook has no sheets"
//
// # Schema Errors (SCH001-SCH099)
//
//	SCH001 - No name column             Patterns: "missing required column: name"
//	SCH002 - No event column            Patterns: "missing required column: event"
//
// # Format Errors (FMT001-FMT099)
//
//	FMT001 - Invalid time               Patterns: "time part"
//	FMT002 - Invalid number             Patterns: "invalid number", "invalid format"
//
// # Ingest Errors (ING001-ING099)
//
//	ING001 - System busy                Patterns: "too many concurrent files"
//	ING002 - Cancelled                  Patterns: "context canceled"
//	ING003 - Timed out                  Patterns: "context deadline exceeded"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key               Patterns: "duplicate key"
//	DB002 - Unique constraint           Patterns: "unique constraint", "violates unique"
//	DB003 - Foreign key                 Patterns: "foreign key"
//	DB004 - Connection refused          Patterns: "connection refused"
//	DB005 - Connection reset            Patterns: "connection reset"
//	DB006 - Database locked or timeout  Patterns: "database is locked", "timeout"
//
// Patterns match case-insensitively with strings.Contains; the first
// match wins. ERR000 is the fallback; check the logs for the original error.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is ordered: specific patterns before general ones.
var errorPatterns = []errorPattern{
	// File errors
	{"file too large", UserMessage{"File exceeds the maximum size limit", "Split the meet into smaller files", "FILE001"}},
	{"unsupported format", UserMessage{"This file type is not supported", "Upload a .csv, .xlsx, .xls, .zip, .yaml or .json file", "FILE002"}},
	{"open workbook", UserMessage{"The workbook could not be read", "Open it in a spreadsheet program and save it again", "FILE006"}},
	{"corrupt workbook", UserMessage{"The workbook could not be read", "Open it in a spreadsheet program and save it again", "FILE006"}},
	{"workbook has no sheets", UserMessage{"The workbook has no sheets", "Add a sheet with a header row and results", "FILE006"}},
	{"encoding error", UserMessage{"File contains invalid characters", "Save the file as UTF-8", "FILE003"}},
	{"not a valid zip", UserMessage{"The archive could not be opened", "Re-create the zip file and try again", "FILE003"}},
	{"zip: ", UserMessage{"The archive could not be opened", "Re-create the zip file and try again", "FILE003"}},
	{"no file provided", UserMessage{"No file was given", "Pass at least one results file", "FILE004"}},
	{"no such file", UserMessage{"File not found", "Check the file path", "FILE004"}},
	{"empty file", UserMessage{"The file is empty", "Upload a file with a header row and results", "FILE005"}},

	// Schema errors
	{"missing required column: name", UserMessage{"No athlete name column was found", "Add a Name column, or First Name and Last Name columns", "SCH001"}},
	{"missing required column: event", UserMessage{"No event score columns were found", "Add one column per dryland event with the athletes' scores", "SCH002"}},

	// Format errors
	{"time part", UserMessage{"Invalid time format detected", "Use M:SS.ss or SS.ss", "FMT001"}},
	{"invalid number", UserMessage{"Invalid number format detected", "Use plain numbers without units", "FMT002"}},
	{"invalid format", UserMessage{"Invalid value format detected", "Check the highlighted cells", "FMT002"}},

	// Ingest errors
	{"too many concurrent files", UserMessage{"System is busy processing other files", "Please wait a moment and try again", "ING001"}},
	{"context canceled", UserMessage{"Processing was cancelled", "Start the import again when ready", "ING002"}},
	{"context deadline exceeded", UserMessage{"Processing timed out", "Try a smaller file or raise INGEST_TIMEOUT", "ING003"}},

	// Database errors
	{"duplicate key", UserMessage{"A record with this key already exists", "Check the file for repeated entries", "DB001"}},
	{"unique constraint", UserMessage{"This value must be unique but already exists", "Check the file for repeated entries", "DB002"}},
	{"violates unique", UserMessage{"A duplicate value was found", "Check the file for repeated entries", "DB002"}},
	{"foreign key", UserMessage{"Referenced record does not exist", "Re-import the meet from the start", "DB003"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"database is locked", UserMessage{"Database is busy", "Please try again", "DB006"}},
	{"timeout", UserMessage{"Operation timed out", "Please try again later", "DB006"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
//
// Example:
//
//	msg := MapError(&SchemaError{Missing: []string{"name"}})
//	// msg.Code == "SCH001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError formats err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}

// Package errors provides structured error handling for mdindex.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Storage, filesystem and watcher errors
//   - 4XX: Validation and query errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates storage, file and watcher errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates rejected input, including raw query text.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates the store or watcher cannot continue.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but the process can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound   = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    = "ERR_102_CONFIG_INVALID"
	ErrCodeConfigPermission = "ERR_103_CONFIG_PERMISSION"

	// Storage and filesystem errors (200-299)
	ErrCodeStorageInit   = "ERR_201_STORAGE_INIT"
	ErrCodeStorageIO     = "ERR_202_STORAGE_IO"
	ErrCodeDiskFull      = "ERR_203_DISK_FULL"
	ErrCodeFileNotFound  = "ERR_204_FILE_NOT_FOUND"
	ErrCodeCorruptIndex  = "ERR_205_CORRUPT_INDEX"
	ErrCodeParseSkipped  = "ERR_206_PARSE_SKIPPED"
	ErrCodeWatchOverflow = "ERR_207_WATCH_OVERFLOW"
	ErrCodeWatchStart    = "ERR_208_WATCH_START"
	ErrCodeIndexLocked   = "ERR_209_INDEX_LOCKED"

	// Validation errors (400-499)
	ErrCodeInvalidInput  = "ERR_401_INVALID_INPUT"
	ErrCodeReadOnlyQuery = "ERR_402_READ_ONLY_QUERY"
	ErrCodeInvalidQuery  = "ERR_403_INVALID_QUERY"
	ErrCodeQueryEmpty    = "ERR_404_QUERY_EMPTY"
	ErrCodeInvalidPath   = "ERR_406_INVALID_PATH"

	// Internal errors (500-599)
	ErrCodeInternal    = "ERR_501_INTERNAL"
	ErrCodeIndexFailed = "ERR_505_INDEX_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// "201" from "ERR_201_STORAGE_INIT"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeStorageInit, ErrCodeCorruptIndex, ErrCodeDiskFull:
		return SeverityFatal
	case ErrCodeParseSkipped, ErrCodeWatchOverflow:
		return SeverityWarning
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeIndexLocked:
		return true
	default:
		return false
	}
}

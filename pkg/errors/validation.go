package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxScriptNameLength bounds names stored in the script library.
const maxScriptNameLength = 256

// ValidateScriptName checks the name a flow is saved under.
// Blank names (empty or whitespace only) are EMPTY_SCRIPT_NAME; control
// characters and overlong names are INVALID_INPUT.
func ValidateScriptName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeEmptyScriptName, "please enter a script name")
	}

	if len(name) > maxScriptNameLength {
		return New(ErrCodeInvalidInput, "script name too long (max %d characters)", maxScriptNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "script name contains invalid control characters")
		}
	}

	return nil
}

// nodeIDRegex matches ids produced by the editor ("start-node", "click-1a2b3c4d")
// and the timestamp ids of the browser editor ("navigate-1718000000000").
var nodeIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)

// ValidateNodeID validates an identifier used for a node or an edge.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "id cannot be empty")
	}
	if !nodeIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid id: %q", id)
	}
	return nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// SanitizeFilename derives a file stem from a script name: whitespace runs
// become "-" and the result is lower-cased. Path separators are replaced as
// well so the stem is always a plain basename.
//
//	SanitizeFilename("My Selenium Script") == "my-selenium-script"
func SanitizeFilename(name string) string {
	stem := whitespaceRun.ReplaceAllString(name, "-")
	stem = strings.NewReplacer("/", "-", "\\", "-", "\x00", "").Replace(stem)
	stem = strings.ToLower(stem)
	if stem == "" || stem == "." || stem == ".." {
		return "flow"
	}
	return stem
}

// ValidatePath validates a relative file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	return nil
}

package errors

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ValidateName validates an identifier taken from a graph document (node id,
// cluster or subcluster name, diagram name).
//
// The rules only reject values that cannot be emitted as a string literal in
// a sensible way:
//   - No empty names
//   - No null bytes
//   - Valid UTF-8 (emitted string literals would otherwise change meaning)
//
// There is no length limit. Quoting of every other character is left to the
// emitter.
func ValidateName(kind, name string) error {
	if name == "" {
		return New(ErrCodeMalformedDocument, "%s cannot be empty", kind)
	}
	if strings.ContainsRune(name, '\x00') {
		return New(ErrCodeMalformedDocument, "%s contains a null byte", kind)
	}
	if !utf8.ValidString(name) {
		return New(ErrCodeMalformedDocument, "%s is not valid UTF-8", kind)
	}
	return nil
}

// documentExtensions lists the file extensions accepted as graph documents.
var documentExtensions = map[string]bool{
	".json": true,
	".yaml": true,
	".yml":  true,
}

// ValidateDocumentFilename validates the filename of a graph document.
// Only JSON and YAML documents are accepted.
func ValidateDocumentFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidPath, "document filename cannot be empty")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !documentExtensions[ext] {
		return New(ErrCodeInvalidFormat, "unsupported document extension %q (must be .json, .yaml or .yml)", ext)
	}
	return nil
}

// ValidatePath validates an output path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}

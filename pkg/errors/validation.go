package errors

import (
	"strings"
	"unicode"
)

const (
	maxNameLength    = 256
	maxVersionLength = 128
)

// ValidateDependencyName checks a declared dependency name before it is used
// to build URLs and output filenames.
//
// Rules:
//   - No empty names
//   - Maximum length of 256 characters
//   - No control characters, whitespace or null bytes
//   - No backslashes and no empty, "." or ".." path segments
//
// Forward slashes are allowed (scoped npm names such as "@scope/pkg").
func ValidateDependencyName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "dependency name cannot be empty")
	}
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidPackage, "dependency name too long (max %d characters)", maxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidPackage, "dependency name contains invalid characters")
		}
	}
	if strings.Contains(name, `\`) {
		return New(ErrCodeInvalidPackage, "dependency name contains invalid characters: %q", `\`)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == "" || seg == ".." || seg == "." {
			return New(ErrCodeInvalidPackage, "dependency name contains path traversal: %q", name)
		}
	}
	return nil
}

// ValidateVersion checks a declared version string. Versions are kept
// verbatim (ranges such as "^1.2.0" are allowed) but must be printable and
// free of path separators.
func ValidateVersion(version string) error {
	if version == "" {
		return New(ErrCodeInvalidPackage, "version cannot be empty")
	}
	if len(version) > maxVersionLength {
		return New(ErrCodeInvalidPackage, "version too long (max %d characters)", maxVersionLength)
	}
	for _, r := range version {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "version contains invalid control characters")
		}
	}
	if strings.ContainsAny(version, `/\`) {
		return New(ErrCodeInvalidPackage, "version contains path separators: %q", version)
	}
	return nil
}

package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidatePath validates a project-relative file path (output dir, docs dir,
// static dir) against traversal and shell metacharacters.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal detected: %s", path)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">"}
	for _, char := range dangerousChars {
		if strings.Contains(path, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

// ValidateRelativePath is ValidatePath plus a refusal of absolute paths.
func ValidateRelativePath(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if filepath.IsAbs(filepath.Clean(path)) {
		return fmt.Errorf("path should be relative: %s", path)
	}
	return nil
}

// ValidateCleanTarget rejects an output directory whose removal would take
// any of protected with it: out must not equal or contain one of them.
// Relative paths are resolved against the working directory.
func ValidateCleanTarget(out string, protected ...string) error {
	absOut, err := filepath.Abs(out)
	if err != nil {
		return err
	}
	for _, p := range protected {
		if p == "" {
			continue
		}
		absP, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		if isWithin(absOut, absP) {
			return fmt.Errorf("cleaning %s would delete %s", out, p)
		}
	}
	return nil
}

// isWithin reports whether path is dir or lies below it.
func isWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// Package validate provides shared validation functions for user input.
package validate

import (
	"fmt"
	"regexp"
	"strings"
)

// TaskContent validates task content is non-empty after trimming whitespace.
func TaskContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("is required")
	}
	return nil
}

var listIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ListID validates a list identifier. Empty is allowed and means no list.
func ListID(id string) error {
	if id == "" {
		return nil
	}
	if !listIDPattern.MatchString(id) {
		return fmt.Errorf("list %q must be lowercase letters, digits, '-' or '_'", id)
	}
	return nil
}

package builders

import (
	"strings"

	"github.com/google/uuid"
)

// UniqueCustomID returns prefix joined with a random UUID, for components
// created per invocation. The result never exceeds the custom ID limit.
func UniqueCustomID(prefix string) string {
	id := uuid.NewString()
	if prefix == "" {
		return id
	}
	prefix = strings.TrimSuffix(prefix, ":")
	if max := MaxCustomIDLength - len(id) - 1; len(prefix) > max {
		prefix = prefix[:max]
	}
	return prefix + ":" + id
}

// CustomIDPrefix returns the part of a UniqueCustomID before the UUID.
func CustomIDPrefix(customID string) string {
	i := strings.LastIndexByte(customID, ':')
	if i < 0 {
		return ""
	}
	if _, err := uuid.Parse(customID[i+1:]); err != nil {
		return ""
	}
	return customID[:i]
}

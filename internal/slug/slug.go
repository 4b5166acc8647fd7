// Package slug converts organization names to and from their URL-safe form.
package slug

import "strings"

// Safe makes an organization name usable in a URL path segment.
func Safe(name string) string {
	return strings.ReplaceAll(name, " ", "-")
}

// Raw recovers the stored organization name from a URL path segment.
// Percent-decoded spaces pass through unchanged.
func Raw(segment string) string {
	return strings.ReplaceAll(segment, "-", " ")
}

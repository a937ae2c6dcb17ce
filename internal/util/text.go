package util

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reNonEnum   = regexp.MustCompile(`[^a-z0-9\-_ ]+`)
	reUpToSlash = regexp.MustCompile(`.*/`)
)

// RemoveWhitespace drops every whitespace rune, including embedded line breaks.
func RemoveWhitespace(input string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, input)
}

// CollapseSpaces joins whitespace-separated words with single spaces.
func CollapseSpaces(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

// LowerURI is the lookup form of an identifier or URI.
func LowerURI(input string) string {
	return strings.ToLower(RemoveWhitespace(input))
}

// EndOfURI returns the lower-cased last path segment, ignoring trailing slashes.
func EndOfURI(input string) string {
	return reUpToSlash.ReplaceAllString(strings.ToLower(strings.TrimRight(input, "/")), "")
}

// NormalizeEnumValue is the lookup form of a controlled-vocabulary value.
func NormalizeEnumValue(input string) string {
	return CollapseSpaces(reNonEnum.ReplaceAllString(strings.ToLower(input), " "))
}

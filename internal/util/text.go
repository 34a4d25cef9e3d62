package util

import (
	"regexp"
	"strings"
)

var (
	reSpaces     = regexp.MustCompile(`\s+`)
	reNonLetters = regexp.MustCompile(`[^A-Z]`)
)

func NormalizeSpaces(input string) string {
	input = strings.ReplaceAll(input, "\u00a0", " ")
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// LettersOnlyUpper uppercases input and drops everything that is not A-Z.
func LettersOnlyUpper(input string) string {
	return reNonLetters.ReplaceAllString(strings.ToUpper(input), "")
}

func NormalizeCells(row []string) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		out = append(out, NormalizeSpaces(c))
	}
	return out
}

func IsBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

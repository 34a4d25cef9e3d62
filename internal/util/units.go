package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// Unit cells sometimes carry the meeting days, e.g. "3 MWF" or "3TTh".
	reTrailingDays = regexp.MustCompile(`(?i)[\s/,-]*(?:TH|SAT|SUN|[MTWFS])+\s*$`)
	reLeadingInt   = regexp.MustCompile(`^\d+`)
)

type ParsedUnits struct {
	Units int
	Raw   string
	OK    bool
}

// ParseUnits strips trailing weekday letters from a unit cell and keeps the
// leading run of digits. OK is false when no digits lead the cleaned value.
func ParseUnits(input string) ParsedUnits {
	raw := NormalizeSpaces(input)
	cleaned := raw
	for {
		next := strings.TrimSpace(reTrailingDays.ReplaceAllString(cleaned, ""))
		if next == cleaned {
			break
		}
		cleaned = next
	}

	digits := reLeadingInt.FindString(cleaned)
	if digits == "" {
		return ParsedUnits{Raw: raw}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return ParsedUnits{Raw: raw}
	}
	return ParsedUnits{Units: n, Raw: raw, OK: true}
}

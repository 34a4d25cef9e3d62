// Package daytime converts between the day and clock representations used by
// load sheets, the scheduling service and the editor.
package daytime

import (
	"regexp"
	"sort"
	"strings"
)

var weekOrder = map[string]int{
	"Mon": 1,
	"Tue": 2,
	"Wed": 3,
	"Thu": 4,
	"Fri": 5,
	"Sat": 6,
}

var shortToLong = map[string]string{
	"M":  "Mon",
	"T":  "Tue",
	"W":  "Wed",
	"Th": "Thu",
	"F":  "Fri",
	"S":  "Sat",
}

var longToShort = map[string]string{
	"Mon": "M",
	"Tue": "T",
	"Wed": "W",
	"Thu": "Th",
	"Fri": "F",
	"Sat": "S",
}

var reLongDay = regexp.MustCompile(`(?i)mon|tue|wed|thu|fri|sat`)

// Weekdays lists the teaching days in week order.
var Weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// ParseCombinedDays extracts weekday tokens from s. Long forms are matched
// anywhere in the string; otherwise s must be exactly one short form.
// The result is deduplicated and in week order.
func ParseCombinedDays(s string) []string {
	matches := reLongDay.FindAllString(s, -1)
	seen := map[string]struct{}{}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		day := canonicalLong(m)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, day)
	}
	if len(out) == 0 {
		if day, ok := shortToLong[strings.TrimSpace(s)]; ok {
			out = append(out, day)
		}
	}
	SortDays(out)
	return out
}

// CombineDays joins days in week order without a separator.
func CombineDays(days []string) string {
	switch len(days) {
	case 0:
		return ""
	case 1:
		return days[0]
	}
	sorted := append([]string(nil), days...)
	SortDays(sorted)
	return strings.Join(sorted, "")
}

// SortDays sorts long-form day tokens Mon..Sat in place. Unknown tokens sort last.
func SortDays(days []string) {
	sort.SliceStable(days, func(i, j int) bool {
		return DayIndex(days[i]) < DayIndex(days[j])
	})
}

// DayIndex returns Mon=1..Sat=6, or 99 for anything else.
func DayIndex(day string) int {
	if idx, ok := weekOrder[day]; ok {
		return idx
	}
	return 99
}

func ShortToLong(short string) (string, bool) {
	day, ok := shortToLong[short]
	return day, ok
}

func LongToShort(long string) (string, bool) {
	short, ok := longToShort[canonicalLong(long)]
	return short, ok
}

// SameDays reports whether a and b name the same set of weekdays.
func SameDays(a, b string) bool {
	da := ParseCombinedDays(a)
	db := ParseCombinedDays(b)
	if len(da) != len(db) {
		return false
	}
	for i := range da {
		if da[i] != db[i] {
			return false
		}
	}
	return true
}

// IsJoint reports whether day names exactly two weekdays.
func IsJoint(day string) bool {
	return len(ParseCombinedDays(day)) == 2
}

func canonicalLong(token string) string {
	if len(token) < 3 {
		return token
	}
	t := strings.ToLower(token[:3])
	return strings.ToUpper(t[:1]) + t[1:]
}

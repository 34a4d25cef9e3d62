package daytime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var (
	re24 = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
	re12 = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*([AP])\.?M\.?$`)
)

// To12Hour renders "HH:MM[:SS]" as "h:mm AM/PM". Invalid input yields "".
func To12Hour(t string) string {
	h, m, ok := parse24(t)
	if !ok {
		zap.L().Warn("invalid 24-hour time", zap.String("value", t))
		return ""
	}
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, m, suffix)
}

// To24Hour renders "h:mm AM/PM" as "HH:MM". Invalid input yields "".
func To24Hour(t string) string {
	match := re12.FindStringSubmatch(strings.TrimSpace(t))
	if match == nil {
		zap.L().Warn("invalid 12-hour time", zap.String("value", t))
		return ""
	}
	h, _ := strconv.Atoi(match[1])
	m, _ := strconv.Atoi(match[2])
	if h < 1 || h > 12 || m > 59 {
		zap.L().Warn("12-hour time out of range", zap.String("value", t))
		return ""
	}
	pm := strings.EqualFold(match[3], "P")
	switch {
	case pm && h != 12:
		h += 12
	case !pm && h == 12:
		h = 0
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// Canonical normalizes "H:MM[:SS]" to "HH:MM". Invalid input yields "".
func Canonical(t string) string {
	h, m, ok := parse24(t)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// Minutes returns minutes since midnight for a 24-hour time.
func Minutes(t string) (int, bool) {
	h, m, ok := parse24(t)
	if !ok {
		return 0, false
	}
	return h*60 + m, true
}

// FromMinutes is the inverse of Minutes.
func FromMinutes(total int) string {
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Duration returns end-start in minutes; ok is false unless start < end.
func Duration(start, end string) (int, bool) {
	s, ok1 := Minutes(start)
	e, ok2 := Minutes(end)
	if !ok1 || !ok2 || s >= e {
		return 0, false
	}
	return e - s, true
}

func parse24(t string) (int, int, bool) {
	match := re24.FindStringSubmatch(strings.TrimSpace(t))
	if match == nil {
		return 0, 0, false
	}
	h, _ := strconv.Atoi(match[1])
	m, _ := strconv.Atoi(match[2])
	if h > 23 || m > 59 {
		return 0, 0, false
	}
	if match[3] != "" {
		if s, _ := strconv.Atoi(match[3]); s > 59 {
			return 0, 0, false
		}
	}
	return h, m, true
}

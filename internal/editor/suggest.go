package editor

import (
	"strconv"
	"strings"

	"classload/internal"
	"classload/internal/daytime"
)

// shapeSuggestions applies the per-kind bias to raw alternatives from the
// scheduling service and drops duplicates and the rejected slot itself.
func shapeSuggestions(b suggestBias, rejected Meeting, raw []internal.Suggestion) []internal.Suggestion {
	valid := make([]internal.Suggestion, 0, len(raw))
	for _, s := range raw {
		start, ok1 := clock(s.StartTime)
		end, ok2 := clock(s.EndTime)
		if !ok1 || !ok2 || len(daytime.ParseCombinedDays(s.Day)) == 0 {
			continue
		}
		if _, ok := daytime.Duration(start, end); !ok {
			continue
		}
		s.StartTime, s.EndTime = start, end
		valid = append(valid, s)
	}

	switch {
	case b.groupJoint:
		valid = jointSuggestions(valid)
	case b.keepPair != "":
		valid = pinToPair(b.keepPair, valid)
	}

	seen := map[string]struct{}{}
	out := make([]internal.Suggestion, 0, len(valid))
	for _, s := range valid {
		m := Meeting{Day: s.Day, Start: s.StartTime, End: s.EndTime, Room: s.RoomName}
		if m.Equal(rejected) {
			continue
		}
		key := daytime.CombineDays(daytime.ParseCombinedDays(s.Day)) + "|" + s.StartTime + "|" + s.EndTime + "|" + slotRoom(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// jointSuggestions groups candidates by (start, end, room) and offers every
// pair of distinct days that share a slot as one combined-day suggestion.
func jointSuggestions(candidates []internal.Suggestion) []internal.Suggestion {
	type slot struct {
		first internal.Suggestion
		days  map[string]struct{}
	}
	var order []string
	slots := map[string]*slot{}
	for _, s := range candidates {
		key := s.StartTime + "|" + s.EndTime + "|" + slotRoom(s)
		sl, ok := slots[key]
		if !ok {
			sl = &slot{first: s, days: map[string]struct{}{}}
			slots[key] = sl
			order = append(order, key)
		}
		for _, d := range daytime.ParseCombinedDays(s.Day) {
			sl.days[d] = struct{}{}
		}
	}

	var out []internal.Suggestion
	for _, key := range order {
		sl := slots[key]
		if len(sl.days) < 2 {
			continue
		}
		days := make([]string, 0, len(sl.days))
		for d := range sl.days {
			days = append(days, d)
		}
		daytime.SortDays(days)
		for i := 0; i < len(days); i++ {
			for j := i + 1; j < len(days); j++ {
				s := sl.first
				s.Day = daytime.CombineDays([]string{days[i], days[j]})
				s.IsJoint = true
				out = append(out, s)
			}
		}
	}
	return out
}

// pinToPair keeps suggestions that fall on the selected day pair and moves
// them onto both days. Anything else would split the joint session.
func pinToPair(pair string, candidates []internal.Suggestion) []internal.Suggestion {
	pairDays := map[string]struct{}{}
	for _, d := range daytime.ParseCombinedDays(pair) {
		pairDays[d] = struct{}{}
	}
	combined := daytime.CombineDays(daytime.ParseCombinedDays(pair))

	out := make([]internal.Suggestion, 0, len(candidates))
	for _, s := range candidates {
		inside := true
		for _, d := range daytime.ParseCombinedDays(s.Day) {
			if _, ok := pairDays[d]; !ok {
				inside = false
				break
			}
		}
		if !inside {
			continue
		}
		s.Day = combined
		s.IsJoint = true
		out = append(out, s)
	}
	return out
}

func slotRoom(s internal.Suggestion) string {
	if s.RoomID != nil {
		return "#" + strconv.Itoa(*s.RoomID)
	}
	return strings.ToUpper(strings.TrimSpace(s.RoomName))
}

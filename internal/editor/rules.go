package editor

import (
	"fmt"

	"classload/internal"
	"classload/internal/config"
	"classload/internal/daytime"
)

// Rules are the day bounds checked locally before the scheduling service is
// asked. All values are minutes since midnight.
type Rules struct {
	DayStart   int
	LunchStart int
	LunchEnd   int
	Cutoff     int
}

func DefaultRules() Rules {
	return Rules{DayStart: 7 * 60, LunchStart: 12 * 60, LunchEnd: 13 * 60, Cutoff: 20*60 + 45}
}

func RulesFromConfig(cfg config.Config) (Rules, error) {
	var r Rules
	for _, f := range []struct {
		name  string
		value string
		dst   *int
	}{
		{"DAY_START_TIME", cfg.DayStartTime, &r.DayStart},
		{"LUNCH_START_TIME", cfg.LunchStartTime, &r.LunchStart},
		{"LUNCH_END_TIME", cfg.LunchEndTime, &r.LunchEnd},
		{"DAY_CUTOFF_TIME", cfg.DayCutoffTime, &r.Cutoff},
	} {
		m, ok := daytime.Minutes(f.value)
		if !ok {
			return Rules{}, fmt.Errorf("invalid %s %q", f.name, f.value)
		}
		*f.dst = m
	}
	if r.LunchStart >= r.LunchEnd {
		return Rules{}, fmt.Errorf("lunch window %s-%s is empty", cfg.LunchStartTime, cfg.LunchEndTime)
	}
	return r, nil
}

// Check returns the local conflicts of proposed relative to baseline.
func (r Rules) Check(baseline, proposed Meeting) []internal.ConflictKind {
	start, ok1 := daytime.Minutes(proposed.Start)
	end, ok2 := daytime.Minutes(proposed.End)
	if !ok1 || !ok2 {
		return nil
	}

	var out []internal.ConflictKind
	if start < r.DayStart {
		out = append(out, internal.ConflictStartTime)
	}
	if start < r.LunchEnd && end > r.LunchStart {
		out = append(out, internal.ConflictLunch)
	}
	if end > r.Cutoff {
		out = append(out, internal.ConflictCutoff)
	}
	if before, ok := baseline.duration(); ok && before != end-start {
		out = append(out, internal.ConflictDuration)
	}
	return out
}

// mergeConflicts unions the kinds in reporting order. Kinds outside the
// known taxonomy keep their arrival order at the end.
func mergeConflicts(lists ...[]internal.ConflictKind) []internal.ConflictKind {
	seen := map[internal.ConflictKind]struct{}{}
	for _, list := range lists {
		for _, k := range list {
			seen[k] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]internal.ConflictKind, 0, len(seen))
	for _, k := range internal.ConflictOrder {
		if _, ok := seen[k]; ok {
			out = append(out, k)
			delete(seen, k)
		}
	}
	for _, list := range lists {
		for _, k := range list {
			if _, ok := seen[k]; ok {
				out = append(out, k)
				delete(seen, k)
			}
		}
	}
	return out
}

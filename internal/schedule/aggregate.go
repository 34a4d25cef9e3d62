// Package schedule groups generated meetings into per-section display rows.
package schedule

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	"classload/internal"
	"classload/internal/daytime"
)

// DisplayRow is one line of a section table. Meetings of the same subject
// and instructor that share a time window are shown once with their days
// combined.
type DisplayRow struct {
	SubjectCode    string                  `json:"subjectCode"`
	SubjectTitle   string                  `json:"subjectTitle,omitempty"`
	InstructorName string                  `json:"instructorName"`
	SectionCode    string                  `json:"sectionCode"`
	YearLevel      string                  `json:"yearLevel"`
	Block          string                  `json:"block"`
	Day            string                  `json:"day"`
	StartTime      string                  `json:"startTime"`
	EndTime        string                  `json:"endTime"`
	RoomName       string                  `json:"roomName"`
	EmploymentType internal.EmploymentType `json:"employmentType,omitempty"`
	IsLab          bool                    `json:"isLab"`
	MeetingCount   int                     `json:"meetingCount"`
	// Entries are the indexes of the merged source entries.
	Entries []int `json:"entries"`
	// Sections lists every section key the row is shown under.
	Sections []string `json:"sections"`
}

type Section struct {
	Key  string       `json:"key"`
	Rows []DisplayRow `json:"rows"`
}

// SectionKey is "<Nth> Year <Block>".
func SectionKey(e internal.ScheduleEntry) string {
	year := strings.TrimSpace(e.YearLevel)
	if year == "" {
		year = internal.FirstYear
	}
	if block := strings.TrimSpace(e.Block); block != "" {
		return year + " " + block
	}
	return year
}

type mergeKey struct {
	subject    string
	instructor string
	yearLevel  string
	start      string
	end        string
}

// Aggregate merges entries that share subject, instructor, year level and
// time window, whatever their block, and files each merged row under every
// section that contributed to it.
func Aggregate(entries []internal.ScheduleEntry) map[string][]DisplayRow {
	var merged []DisplayRow
	var sections [][]string
	index := map[mergeKey]int{}

	for i, e := range entries {
		section := SectionKey(e)
		start, end := minuteClock(e.StartTime), minuteClock(e.EndTime)
		key := mergeKey{
			subject:    strings.TrimSpace(e.SubjectCode),
			instructor: strings.TrimSpace(e.InstructorName),
			yearLevel:  strings.TrimSpace(e.YearLevel),
			start:      start,
			end:        end,
		}

		if pos, ok := index[key]; ok {
			row := &merged[pos]
			row.Day = unionDays(row.Day, e.Day)
			row.RoomName = unionRooms(row.RoomName, e.RoomName)
			row.MeetingCount++
			row.Entries = append(row.Entries, i)
			row.IsLab = row.IsLab || e.IsLab
			if !slices.Contains(sections[pos], section) {
				sections[pos] = append(sections[pos], section)
			}
			continue
		}

		index[key] = len(merged)
		sections = append(sections, []string{section})
		merged = append(merged, DisplayRow{
			SubjectCode:    e.SubjectCode,
			SubjectTitle:   e.SubjectTitle,
			InstructorName: e.InstructorName,
			SectionCode:    e.SectionCode,
			YearLevel:      e.YearLevel,
			Block:          e.Block,
			Day:            unionDays("", e.Day),
			StartTime:      start,
			EndTime:        end,
			RoomName:       strings.TrimSpace(e.RoomName),
			EmploymentType: e.EmploymentType,
			IsLab:          e.IsLab,
			MeetingCount:   1,
			Entries:        []int{i},
		})
	}

	out := map[string][]DisplayRow{}
	for pos, row := range merged {
		row.Sections = sections[pos]
		for _, section := range sections[pos] {
			out[section] = append(out[section], row)
		}
	}

	for _, rows := range out {
		sort.SliceStable(rows, func(i, j int) bool {
			di, dj := firstDay(rows[i].Day), firstDay(rows[j].Day)
			if di != dj {
				return di < dj
			}
			return rows[i].StartTime < rows[j].StartTime
		})
	}
	return out
}

// Sections returns the aggregated sections in display order.
func Sections(entries []internal.ScheduleEntry) []Section {
	grouped := Aggregate(entries)
	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	SortSectionKeys(keys)
	out := make([]Section, 0, len(keys))
	for _, k := range keys {
		out = append(out, Section{Key: k, Rows: grouped[k]})
	}
	return out
}

// SortSectionKeys orders keys by numeric year level, then by trailing block.
func SortSectionKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		yi, yj := yearNumber(keys[i]), yearNumber(keys[j])
		if yi != yj {
			return yi < yj
		}
		bi, bj := trailingBlock(keys[i]), trailingBlock(keys[j])
		if bi != bj {
			return bi < bj
		}
		return keys[i] < keys[j]
	})
}

func yearNumber(key string) int {
	digits := strings.TrimLeftFunc(key, func(r rune) bool { return r < '0' || r > '9' })
	end := strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' })
	if end >= 0 {
		digits = digits[:end]
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 99
	}
	return n
}

func trailingBlock(key string) string {
	fields := strings.Fields(key)
	if len(fields) < 3 {
		return ""
	}
	return fields[len(fields)-1]
}

func unionDays(a, b string) string {
	days := append(daytime.ParseCombinedDays(a), daytime.ParseCombinedDays(b)...)
	if len(days) == 0 {
		return strings.TrimSpace(a + b)
	}
	seen := map[string]struct{}{}
	uniq := days[:0]
	for _, d := range days {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		uniq = append(uniq, d)
	}
	return daytime.CombineDays(uniq)
}

func unionRooms(a, b string) string {
	b = strings.TrimSpace(b)
	if b == "" {
		return a
	}
	for _, r := range strings.Split(a, " / ") {
		if r == b {
			return a
		}
	}
	if a == "" {
		return b
	}
	return a + " / " + b
}

func firstDay(day string) int {
	days := daytime.ParseCombinedDays(day)
	if len(days) == 0 {
		return 99
	}
	return daytime.DayIndex(days[0])
}

func minuteClock(t string) string {
	if c := daytime.Canonical(t); c != "" {
		return c
	}
	return strings.TrimSpace(t)
}

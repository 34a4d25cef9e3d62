package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"classload/internal"
	"classload/internal/util"
)

const metadataScanRows = 20

var (
	reSchoolYear     = regexp.MustCompile(`(?i)(school year|sy|academic year|ay)?\s*:?\s*(\d{4}-\d{4})`)
	reBareSchoolYear = regexp.MustCompile(`(\d{4})\s*-\s*(\d{4})`)

	reSemesterFirst  = regexp.MustCompile(`(?i)\b(1st|first)\b`)
	reSemesterSecond = regexp.MustCompile(`(?i)\b(2nd|second)\b`)
	reSummer         = regexp.MustCompile(`(?i)\bsummer\b`)
	reSemesterHint   = regexp.MustCompile(`(?i)\bsem(ester)?\b|\bsummer\b|\bterm\b`)
	reSemesterCell   = regexp.MustCompile(`(?i)^\s*(1st|first|2nd|second|summer)(\s+(sem(ester)?|term))?\.?\s*$`)

	reHeaderTokens = regexp.MustCompile(`(?i)name|course|subject|unit|dept`)

	reLeadingUpper = regexp.MustCompile(`^[A-Z]+`)

	reBlocksThreeOrMore = regexp.MustCompile(`\b[A-Z](?:\s*[&,]\s*[A-Z]){2,}\b`)
	reBlocksTwo         = regexp.MustCompile(`\b[A-Z]\s*[&,]\s*[A-Z]\b`)
	reBlockAfterYear    = regexp.MustCompile(`(?:YEAR|YR)\.?\s*-?\s*([A-Z])\b`)
	reBlockTrailing     = regexp.MustCompile(`(?:^|[^A-Z])([A-Z])\s*$`)
	reBlockLetter       = regexp.MustCompile(`[A-Z]`)
)

type yearPattern struct {
	level string
	named *regexp.Regexp
	digit *regexp.Regexp
}

// Most specific first: "IV" must win over "I".
var yearPatterns = []yearPattern{
	{level: internal.FourthYear, named: regexp.MustCompile(`\bIV\b|4TH`), digit: regexp.MustCompile(`(?:^|\D)4(?:\D|$)`)},
	{level: internal.ThirdYear, named: regexp.MustCompile(`\bIII\b|3RD`), digit: regexp.MustCompile(`(?:^|\D)3(?:\D|$)`)},
	{level: internal.SecondYear, named: regexp.MustCompile(`\bII\b|2ND`), digit: regexp.MustCompile(`(?:^|\D)2(?:\D|$)`)},
	{level: internal.FirstYear, named: regexp.MustCompile(`\bI\b|1ST`), digit: regexp.MustCompile(`(?:^|\D)1(?:\D|$)`)},
}

var reRomanOne = regexp.MustCompile(`\bI\b`)

// ExtractSchoolYear scans the leading rows for an academic year such as
// "SY: 2024-2025". ok is false when nothing was found.
func ExtractSchoolYear(rows [][]string) (string, bool) {
	limit := min(len(rows), metadataScanRows)
	for i := 0; i < limit; i++ {
		text := rowText(rows[i])
		if m := reSchoolYear.FindStringSubmatch(text); m != nil {
			return m[2], true
		}
	}
	for i := 0; i < limit; i++ {
		if m := reBareSchoolYear.FindStringSubmatch(rowText(rows[i])); m != nil {
			return m[1] + "-" + m[2], true
		}
	}
	return "", false
}

func DefaultSchoolYear(year int) string {
	return fmt.Sprintf("%d-%d", year, year+1)
}

// ExtractSemester looks for a semester in the leading rows. A row counts
// when its text names a semester or term next to the ordinal. Above the
// header row a cell holding nothing but the ordinal, such as "2nd", also
// counts; below it that would be a year-level column.
func ExtractSemester(rows [][]string) (string, bool) {
	limit := min(len(rows), metadataScanRows)
	titleRows := limit
	if h := FindHeaderRow(rows[:limit]); h >= 0 {
		titleRows = h
	}
	for i := 0; i < limit; i++ {
		if text := rowText(rows[i]); reSemesterHint.MatchString(text) {
			if sem, ok := matchSemester(text); ok {
				return sem, true
			}
		}
		if i >= titleRows {
			continue
		}
		for _, cell := range rows[i] {
			if !reSemesterCell.MatchString(cell) {
				continue
			}
			if sem, ok := matchSemester(cell); ok {
				return sem, true
			}
		}
	}
	return "", false
}

func matchSemester(text string) (string, bool) {
	switch {
	case reSummer.MatchString(text):
		return "Summer", true
	case reSemesterFirst.MatchString(text):
		return "1st Semester", true
	case reSemesterSecond.MatchString(text):
		return "2nd Semester", true
	}
	return "", false
}

// FindHeaderRow returns the index of the first row that looks like a column
// header, or -1.
func FindHeaderRow(rows [][]string) int {
	for i, row := range rows {
		for _, cell := range row {
			if reHeaderTokens.MatchString(cell) {
				return i
			}
		}
	}
	return -1
}

// EmploymentMarker reports whether row is a FULL-TIME / PART-TIME divider row.
func EmploymentMarker(row []string) (internal.EmploymentType, bool) {
	if len(row) == 0 {
		return "", false
	}
	first := row[0]
	switch util.LettersOnlyUpper(first) {
	case "FULLTIME":
		return internal.FullTime, true
	case "PARTTIME":
		return internal.PartTime, true
	}
	upper := strings.ToUpper(first)
	if strings.Contains(upper, "PART-TIME") || strings.Contains(upper, "PART TIME") {
		return internal.PartTime, true
	}
	if strings.Contains(upper, "FULL-TIME") {
		return internal.FullTime, true
	}
	return "", false
}

// NormalizeEmploymentType collapses the spellings seen in load sheets.
// Anything unrecognised is treated as full time.
func NormalizeEmploymentType(value string) internal.EmploymentType {
	compact := util.LettersOnlyUpper(value)
	switch compact {
	case "PARTTIME", "PT":
		return internal.PartTime
	case "FULLTIME", "FT":
		return internal.FullTime
	}
	return internal.FullTime
}

type DepartmentInfo struct {
	Department string
	YearLevel  string
	Blocks     []string
}

// ParseDepartment splits a department cell like "BSBA IV A & B & C" into the
// program, the year level and the block letters.
func ParseDepartment(text string) DepartmentInfo {
	upper := strings.ToUpper(util.NormalizeSpaces(text))
	return DepartmentInfo{
		Department: cleanDepartment(upper),
		YearLevel:  yearLevel(upper),
		Blocks:     blocks(upper),
	}
}

func cleanDepartment(upper string) string {
	if lead := reLeadingUpper.FindString(upper); lead != "" {
		return lead
	}
	for _, kw := range []string{"BSBA", "BSCS", "BSIT"} {
		if strings.Contains(upper, kw) {
			return kw
		}
	}
	return "BSBA"
}

func yearLevel(upper string) string {
	for _, p := range yearPatterns {
		if p.named.MatchString(upper) {
			return p.level
		}
	}
	for _, p := range yearPatterns {
		if p.digit.MatchString(upper) {
			return p.level
		}
	}
	return internal.FirstYear
}

func blocks(upper string) []string {
	for _, re := range []*regexp.Regexp{reBlocksThreeOrMore, reBlocksTwo} {
		all := re.FindAllString(upper, -1)
		if len(all) == 0 {
			continue
		}
		// Last match: an earlier list may contain the roman year token.
		letters := reBlockLetter.FindAllString(all[len(all)-1], -1)
		return dedupeSorted(letters)
	}

	if m := reBlockAfterYear.FindStringSubmatch(upper); m != nil {
		return []string{m[1]}
	}
	if m := reBlockTrailing.FindStringSubmatch(upper); m != nil {
		letter := m[1]
		if letter == "I" && reRomanOne.MatchString(upper) && strings.Count(upper, " I") == 1 {
			// "BSBA I" names the year, not block I.
			return nil
		}
		return []string{letter}
	}
	return nil
}

func dedupeSorted(letters []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(letters))
	for _, l := range letters {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func rowText(row []string) string {
	return util.NormalizeSpaces(strings.Join(row, " "))
}

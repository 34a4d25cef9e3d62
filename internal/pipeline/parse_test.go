package pipeline

import (
	"testing"
	"time"

	"classload/internal"
)

var header = []string{"Name", "Course Code", "Subject", "Units", "Dept"}

func fixedClock() time.Time {
	return time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
}

func parseRows(rows ...[]string) internal.IngestResult {
	return NewParser(WithClock(fixedClock)).Parse(rows)
}

func TestParseSplitsBlocksWithoutDividingSmallUnits(t *testing.T) {
	res := parseRows(header, []string{"Dr. Cruz", "BAC1", "Accounting 1", "3", "BSBA I A & B"})

	if len(res.Offerings) != 2 {
		t.Fatalf("len=%d", len(res.Offerings))
	}
	for i, block := range []string{"A", "B"} {
		o := res.Offerings[i]
		if o.Block != block || o.Units != 3 || o.YearLevel != internal.FirstYear || o.Department != "BSBA" {
			t.Fatalf("offering %d: %+v", i, o)
		}
		if o.EmploymentType != internal.FullTime || o.SessionType != internal.NonLabSession {
			t.Fatalf("offering %d defaults: %+v", i, o)
		}
	}
}

func TestParseDividesLargeUnitsAcrossBlocks(t *testing.T) {
	res := parseRows(header, []string{"Dr. Cruz", "BAC8", "Taxation", "6", "BSBA IV A & B & C"})

	if len(res.Offerings) != 3 {
		t.Fatalf("len=%d", len(res.Offerings))
	}
	for _, o := range res.Offerings {
		if o.Units != 2 || o.YearLevel != internal.FourthYear {
			t.Fatalf("unexpected offering: %+v", o)
		}
	}
}

func TestParseUnitSplitFloors(t *testing.T) {
	cases := []struct {
		units string
		dept  string
		want  int
	}{
		{units: "5", dept: "BSIT II A & B", want: 2},
		{units: "4", dept: "BSIT II A & B & C", want: 1},
		{units: "4", dept: "BSIT II A", want: 4},
		{units: "2", dept: "BSIT II A & B & C", want: 2},
		{units: "3 MWF", dept: "BSIT II A & B", want: 3},
	}
	for _, tc := range cases {
		res := parseRows(header, []string{"Prof. Dela Paz", "IT101", "Programming", tc.units, tc.dept})
		if len(res.Offerings) == 0 {
			t.Fatalf("%s/%s: no offerings", tc.units, tc.dept)
		}
		for _, o := range res.Offerings {
			if o.Units != tc.want {
				t.Fatalf("%s/%s: units=%d want %d", tc.units, tc.dept, o.Units, tc.want)
			}
		}
	}
}

func TestParseForwardFillsInstructor(t *testing.T) {
	res := parseRows(
		header,
		[]string{"Dr. Cruz", "BAC1", "Accounting 1", "3", "BSBA I A"},
		[]string{"", "BAC2", "Accounting 2", "3", "BSBA II B"},
		[]string{" ", "BAC3", "Accounting 3", "3", "BSBA III C"},
		[]string{"Ms. Reyes", "ECO1", "Economics", "3", "BSBA I A"},
		[]string{"", "ECO2", "Economics 2", "3", "BSBA I B"},
	)
	want := []string{"Dr. Cruz", "Dr. Cruz", "Dr. Cruz", "Ms. Reyes", "Ms. Reyes"}
	if len(res.Offerings) != len(want) {
		t.Fatalf("len=%d", len(res.Offerings))
	}
	for i, name := range want {
		if res.Offerings[i].InstructorName != name {
			t.Fatalf("offering %d instructor=%q want %q", i, res.Offerings[i].InstructorName, name)
		}
	}
	if res.Summary.Instructors != 2 {
		t.Fatalf("instructors=%d", res.Summary.Instructors)
	}
}

func TestParseEmploymentMarkers(t *testing.T) {
	res := parseRows(
		header,
		[]string{"Dr. Cruz", "BAC1", "Accounting 1", "3", "BSBA I A"},
		[]string{"PART-TIME"},
		[]string{"Ms. Reyes", "ECO1", "Economics", "3", "BSBA I A"},
		[]string{"Mr. Lim", "MKT1", "Marketing", "3", "BSBA II A"},
		[]string{"FULL-TIME", "", "", "", ""},
		[]string{"Dr. Santos", "FIN1", "Finance", "3", "BSBA III A"},
	)
	want := []internal.EmploymentType{internal.FullTime, internal.PartTime, internal.PartTime, internal.FullTime}
	if len(res.Offerings) != len(want) {
		t.Fatalf("len=%d", len(res.Offerings))
	}
	for i, mode := range want {
		if res.Offerings[i].EmploymentType != mode {
			t.Fatalf("offering %d employment=%q want %q", i, res.Offerings[i].EmploymentType, mode)
		}
	}
	if res.Summary.MarkerRows != 2 {
		t.Fatalf("markers=%d", res.Summary.MarkerRows)
	}
	if res.Summary.UnitsByType[string(internal.PartTime)] != 6 || res.Summary.UnitsByType[string(internal.FullTime)] != 6 {
		t.Fatalf("units by type=%v", res.Summary.UnitsByType)
	}
}

func TestParseSkipsMalformedRows(t *testing.T) {
	res := parseRows(
		header,
		[]string{"Dr. Cruz", "BAC1", "Accounting 1"},
		[]string{"Dr. Cruz", "", "Accounting 1", "3", "BSBA I A"},
		[]string{"Dr. Cruz", "BAC2", "", "3", "BSBA I A"},
		[]string{"", "", "", "", ""},
		[]string{"Dr. Cruz", "BAC3", "Accounting 3", "TBA", "BSBA I A"},
	)
	if len(res.Offerings) != 1 {
		t.Fatalf("len=%d", len(res.Offerings))
	}
	if res.Offerings[0].Units != 0 || res.Offerings[0].CourseCode != "BAC3" {
		t.Fatalf("unexpected offering: %+v", res.Offerings[0])
	}
	if res.Summary.RowsSkipped != 4 {
		t.Fatalf("skipped=%d", res.Summary.RowsSkipped)
	}
}

func TestParseLeadingInstructorBlankIsSkipped(t *testing.T) {
	res := parseRows(header, []string{"", "BAC1", "Accounting 1", "3", "BSBA I A"})
	if len(res.Offerings) != 0 {
		t.Fatalf("len=%d", len(res.Offerings))
	}
}

func TestParseMetadataAndDefaults(t *testing.T) {
	res := parseRows(
		[]string{"COLLEGE OF BUSINESS"},
		[]string{"First Semester", "S.Y. 2025-2026"},
		header,
		[]string{"Dr. Cruz", "BAC1", "Accounting 1", "3", "BSBA I A"},
	)
	if res.SchoolYear != "2025-2026" || res.Semester != "1st Semester" {
		t.Fatalf("sy=%q sem=%q", res.SchoolYear, res.Semester)
	}
	if res.Summary.HeaderRow != 2 {
		t.Fatalf("header=%d", res.Summary.HeaderRow)
	}

	res = parseRows(header, []string{"Dr. Cruz", "BAC1", "Accounting 1", "3", "BSBA I A"})
	if res.SchoolYear != "2026-2027" || res.Semester != "2nd Semester" {
		t.Fatalf("defaults sy=%q sem=%q", res.SchoolYear, res.Semester)
	}
}

func TestParseInfersReorderedColumns(t *testing.T) {
	res := parseRows(
		[]string{"Course Code", "Descriptive Title", "Faculty", "Dept", "Units"},
		[]string{"BAC1", "Accounting 1", "Dr. Cruz", "BSBA II A & B", "3"},
	)
	if len(res.Offerings) != 2 {
		t.Fatalf("len=%d", len(res.Offerings))
	}
	o := res.Offerings[0]
	if o.InstructorName != "Dr. Cruz" || o.SubjectTitle != "Accounting 1" || o.YearLevel != internal.SecondYear || o.Units != 3 {
		t.Fatalf("unexpected offering: %+v", o)
	}
}

func TestParseSkipsRepeatedHeader(t *testing.T) {
	res := parseRows(
		[]string{"Instructor Load Summary"},
		header,
		[]string{"Dr. Cruz", "BAC1", "Accounting 1", "3", "BSBA I A"},
		header,
		[]string{"Ms. Reyes", "ECO1", "Economics", "3", "BSBA I A"},
	)
	if len(res.Offerings) != 2 {
		t.Fatalf("len=%d", len(res.Offerings))
	}
}

func TestSetSessionType(t *testing.T) {
	res := parseRows(header, []string{"Dr. Cruz", "CS101", "Programming", "3", "BSCS I A & B"})
	if !SetSessionType(res.Offerings, 1, internal.LabSession) {
		t.Fatal("expected session type update")
	}
	if res.Offerings[1].SessionType != internal.LabSession || res.Offerings[0].SessionType != internal.NonLabSession {
		t.Fatalf("unexpected session types: %+v", res.Offerings)
	}
	if SetSessionType(res.Offerings, 5, internal.LabSession) {
		t.Fatal("out of range index accepted")
	}
	if SetSessionType(res.Offerings, 0, "Seminar") {
		t.Fatal("unknown session type accepted")
	}
}

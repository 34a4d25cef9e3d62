package schedule

import (
	"reflect"
	"testing"

	"classload/internal"
)

func meeting(subject, instructor, year, block, day, start, end, room string) internal.ScheduleEntry {
	return internal.ScheduleEntry{
		SubjectCode: subject, InstructorName: instructor, YearLevel: year, Block: block,
		SectionCode: "BSBA " + year + block, Day: day, StartTime: start, EndTime: end, RoomName: room,
	}
}

func TestAggregateMergesJointMeetings(t *testing.T) {
	entries := []internal.ScheduleEntry{
		meeting("BAC1", "Dr. Cruz", internal.FirstYear, "A", "Wed", "08:00:00", "09:30:00", "R101"),
		meeting("BAC1", "Dr. Cruz", internal.FirstYear, "A", "Mon", "08:00", "09:30", "R101"),
		meeting("BAC1", "Dr. Cruz", internal.FirstYear, "A", "Fri", "13:00", "14:30", "R101"),
		meeting("ECO1", "Ms. Reyes", internal.FirstYear, "A", "Tue", "08:00", "09:30", "R102"),
		meeting("BAC1", "Dr. Cruz", internal.FirstYear, "B", "Tue", "10:00", "11:30", "R101"),
	}

	got := Aggregate(entries)
	rows := got["1st Year A"]
	if len(rows) != 3 {
		t.Fatalf("rows=%+v", rows)
	}
	joint := rows[0]
	if joint.Day != "MonWed" || joint.MeetingCount != 2 || joint.StartTime != "08:00" || !reflect.DeepEqual(joint.Entries, []int{0, 1}) {
		t.Fatalf("joint row: %+v", joint)
	}
	if rows[1].SubjectCode != "ECO1" || rows[2].Day != "Fri" {
		t.Fatalf("row order: %+v", rows)
	}
	if len(got["1st Year B"]) != 1 {
		t.Fatalf("section B: %+v", got["1st Year B"])
	}
}

func TestAggregateMergesJointBlocksAcrossSections(t *testing.T) {
	got := Aggregate([]internal.ScheduleEntry{
		meeting("BAC1", "Dr. Cruz", internal.FirstYear, "A", "Wed", "08:00", "09:30", "R101"),
		meeting("BAC1", "Dr. Cruz", internal.FirstYear, "B", "Mon", "08:00:00", "09:30:00", "R102"),
	})
	if len(got) != 2 {
		t.Fatalf("sections=%v", got)
	}
	for _, key := range []string{"1st Year A", "1st Year B"} {
		rows := got[key]
		if len(rows) != 1 {
			t.Fatalf("%s rows=%+v", key, rows)
		}
		row := rows[0]
		if row.Day != "MonWed" || row.MeetingCount != 2 || row.RoomName != "R101 / R102" {
			t.Fatalf("%s row=%+v", key, row)
		}
		if !reflect.DeepEqual(row.Entries, []int{0, 1}) || !reflect.DeepEqual(row.Sections, []string{"1st Year A", "1st Year B"}) {
			t.Fatalf("%s provenance=%+v", key, row)
		}
	}
}

func TestAggregateKeepsDifferentWindowsApart(t *testing.T) {
	got := Aggregate([]internal.ScheduleEntry{
		meeting("BAC1", "Dr. Cruz", internal.SecondYear, "A", "Mon", "08:00", "09:30", "R101"),
		meeting("BAC1", "Dr. Cruz", internal.SecondYear, "A", "Wed", "08:00", "10:00", "R101"),
		meeting("BAC1", "Dr. Santos", internal.SecondYear, "A", "Thu", "08:00", "09:30", "R101"),
	})
	if rows := got["2nd Year A"]; len(rows) != 3 {
		t.Fatalf("rows=%+v", rows)
	}
}

func TestSortSectionKeys(t *testing.T) {
	keys := []string{"3rd Year A", "1st Year B", "10th Year A", "1st Year A", "2nd Year C", "2nd Year A", "4th Year"}
	SortSectionKeys(keys)
	want := []string{"1st Year A", "1st Year B", "2nd Year A", "2nd Year C", "3rd Year A", "4th Year", "10th Year A"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("keys=%v", keys)
	}
}

func TestSections(t *testing.T) {
	secs := Sections([]internal.ScheduleEntry{
		meeting("FIN1", "Dr. Santos", internal.ThirdYear, "B", "Mon", "08:00", "09:30", "R1"),
		meeting("BAC1", "Dr. Cruz", internal.FirstYear, "A", "Mon", "08:00", "09:30", "R2"),
	})
	if len(secs) != 2 || secs[0].Key != "1st Year A" || secs[1].Key != "3rd Year B" {
		t.Fatalf("sections=%+v", secs)
	}
}

package pipeline

import (
	"encoding/json"
	"strings"
	"testing"

	"classload/internal"
)

func TestToGenerationOfferingsDefaults(t *testing.T) {
	got := ToGenerationOfferings([]internal.CourseOffering{
		{InstructorName: " Dr. Cruz ", CourseCode: "BAC1", SubjectTitle: "Accounting 1", Units: 0, EmploymentType: "part time"},
		{InstructorName: "Ms. Reyes", CourseCode: "ECO1", SubjectTitle: "Economics", Units: 2, Department: "BSBA", YearLevel: internal.ThirdYear, Block: "C", EmploymentType: internal.FullTime, SessionType: internal.LabSession},
	})

	first := got[0]
	if first.Name != "Dr. Cruz" || first.Unit != 3 || first.Dept != "General" || first.YearLevel != internal.FirstYear || first.Block != "A" {
		t.Fatalf("defaults not applied: %+v", first)
	}
	if first.EmploymentType != string(internal.PartTime) || first.SessionType != string(internal.NonLabSession) {
		t.Fatalf("normalization: %+v", first)
	}

	second := got[1]
	if second.Unit != 2 || second.Block != "C" || second.SessionType != string(internal.LabSession) {
		t.Fatalf("values overwritten: %+v", second)
	}

	blob, err := json.Marshal(second)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"name"`, `"courseCode"`, `"subject"`, `"unit"`, `"dept"`, `"yearLevel"`, `"block"`, `"employmentType"`, `"sessionType"`} {
		if !strings.Contains(string(blob), key) {
			t.Fatalf("missing %s in %s", key, blob)
		}
	}
}

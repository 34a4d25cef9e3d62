package pipeline

import "testing"

func TestDetectLoadSheetEmail(t *testing.T) {
	res := DetectLoadSheetEmail("Faculty load for 2nd semester", "please see attached", []string{"load.xlsx"}, 1)
	if !res.IsLoadSheet || res.Reason != "rules_positive" {
		t.Fatalf("expected load sheet: %+v", res)
	}

	res = DetectLoadSheetEmail("Faculty load for 2nd semester", "", []string{"load.xlsx"}, 0)
	if res.IsLoadSheet {
		t.Fatalf("no parsed sheet must not be accepted: %+v", res)
	}

	res = DetectLoadSheetEmail("Lunch on Friday", "see you there", nil, 0)
	if res.IsLoadSheet || res.Score != 0 {
		t.Fatalf("unrelated message accepted: %+v", res)
	}

	a := DetectLoadSheetEmail("Lunch", "", []string{"load.xlsx"}, 0)
	b := DetectLoadSheetEmail("Lunch", "", []string{"load.xls"}, 0)
	if b.Score >= a.Score {
		t.Fatalf("unreadable .xls scored like a workbook: xls=%v xlsx=%v", b.Score, a.Score)
	}
}

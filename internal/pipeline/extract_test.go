package pipeline

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	pdf "github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

func mkXLSX(t *testing.T, sheets map[string][][]any, merges map[string][2]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	for name, rows := range sheets {
		if name != first {
			if _, err := f.NewSheet(name); err != nil {
				t.Fatal(err)
			}
		}
		for r, row := range rows {
			for c, v := range row {
				cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
				_ = f.SetCellValue(name, cell, v)
			}
		}
	}
	for name, span := range merges {
		if err := f.MergeCell(name, span[0], span[1]); err != nil {
			t.Fatal(err)
		}
	}
	buf := bytes.NewBuffer(nil)
	if _, err := f.WriteTo(buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestReadXLSXRowsFillsMergedDepartment(t *testing.T) {
	blob := mkXLSX(t, map[string][][]any{
		"Sheet1": {
			{"Name", "Course Code", "Subject", "Units", "Dept"},
			{"Dr. Cruz", "BAC1", "Accounting 1", 3, "BSBA I A & B"},
			{"", "BAC2", "Accounting 2", 3},
		},
	}, map[string][2]string{"Sheet1": {"E2", "E3"}})

	rows, err := ReadRows("load.xlsx", blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows=%d", len(rows))
	}
	if len(rows[2]) < 5 || rows[2][4] != "BSBA I A & B" {
		t.Fatalf("merged cell not filled: %#v", rows[2])
	}

	res := Parse(rows)
	if len(res.Offerings) != 4 {
		t.Fatalf("offerings=%d", len(res.Offerings))
	}
	if res.Offerings[3].InstructorName != "Dr. Cruz" || res.Offerings[3].CourseCode != "BAC2" {
		t.Fatalf("unexpected last offering: %+v", res.Offerings[3])
	}
}

func TestReadXLSXRowsPrefersSheetWithHeader(t *testing.T) {
	blob := mkXLSX(t, map[string][][]any{
		"Sheet1": {{"prepared by the dean's office"}},
		"Load": {
			{"Faculty", "Code", "Subject", "Units", "Dept"},
			{"Dr. Cruz", "BAC1", "Accounting 1", 3, "BSBA I A"},
		},
	}, nil)

	rows, err := ReadXLSXRows(blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0][0] != "Faculty" {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}

func TestReadCSVRows(t *testing.T) {
	blob := []byte("\xef\xbb\xbfName,Course Code,Subject,Units,Dept\n" +
		"Dr. Cruz,BAC1,\"Accounting 1, Basic\",3,BSBA I A & B\n" +
		",BAC2,Accounting 2,3,BSBA I A\n")

	rows, err := ReadRows("load.csv", blob)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0][0] != "Name" {
		t.Fatalf("bom not trimmed: %q", rows[0][0])
	}
	if rows[1][2] != "Accounting 1, Basic" || rows[2][0] != "" {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}

func TestReadHTMLRowsPicksHeaderTable(t *testing.T) {
	html := `<html><body>
<table><tr><td>Logo</td></tr></table>
<table>
<tr><th>Name</th><th>Course Code</th><th>Subject</th><th>Units</th><th>Dept</th></tr>
<tr><td>Dr.&nbsp;Cruz</td><td>BAC1</td><td>Accounting   1</td><td>3</td><td>BSBA I A</td></tr>
</table></body></html>`

	rows, err := ReadHTMLRows(html)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"Name", "Course Code", "Subject", "Units", "Dept"},
		{"Dr. Cruz", "BAC1", "Accounting 1", "3", "BSBA I A"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows=%#v", rows)
	}
}

func TestSplitTextLine(t *testing.T) {
	cases := []struct {
		line string
		want []string
	}{
		{line: "Dr. Cruz\tBAC1\tAccounting 1\t3\tBSBA I A", want: []string{"Dr. Cruz", "BAC1", "Accounting 1", "3", "BSBA I A"}},
		{line: "\tBAC2\tAccounting 2\t3\tBSBA I B", want: []string{"", "BAC2", "Accounting 2", "3", "BSBA I B"}},
		{line: "Dr. Cruz   BAC1  Accounting 1  3  BSBA I A & B", want: []string{"Dr. Cruz", "BAC1", "Accounting 1", "3", "BSBA I A & B"}},
		{line: "Dr. Cruz | BAC1 | Accounting 1 | 3 | BSBA I A", want: []string{"Dr. Cruz", "BAC1", "Accounting 1", "3", "BSBA I A"}},
		{line: "   ", want: nil},
	}
	for _, tc := range cases {
		if got := SplitTextLine(tc.line); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("SplitTextLine(%q) = %#v", tc.line, got)
		}
	}
}

func TestPDFRowCellsSplitsOnColumnGaps(t *testing.T) {
	runs := pdf.TextHorizontal{
		{X: 10, W: 12, S: "Dr."},
		{X: 24, W: 20, S: "Cruz"},
		{X: 80, W: 25, S: "BAC1"},
		{X: 130, W: 40, S: "Accounting"},
		{X: 172, W: 5, S: "1"},
	}
	got := pdfRowCells(runs)
	want := []string{"Dr. Cruz", "BAC1", "Accounting 1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("cells=%#v", got)
	}
}

func TestReadRowsErrors(t *testing.T) {
	if _, err := ReadRows("load.docx", []byte("x")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err=%v", err)
	}
	// Legacy binary workbooks are not readable by excelize.
	if _, err := ReadRows("LOAD.XLS", []byte{0xD0, 0xCF, 0x11, 0xE0}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("xls err=%v", err)
	}
	if _, err := ReadRows("load.csv", nil); !errors.Is(err, ErrNoRows) {
		t.Fatalf("err=%v", err)
	}
}

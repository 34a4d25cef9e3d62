package pipeline

import (
	"strings"

	"go.uber.org/zap"

	"classload/internal"
	"classload/internal/util"
)

const minDataColumns = 5

// Columns maps the five load-sheet fields to cell positions.
type Columns struct {
	Name       int
	CourseCode int
	Subject    int
	Units      int
	Department int
}

var positionalColumns = Columns{Name: 0, CourseCode: 1, Subject: 2, Units: 3, Department: 4}

func (c Columns) maxIndex() int {
	return max(c.Name, c.CourseCode, c.Subject, c.Units, c.Department)
}

// RowNormalizer turns data rows into offerings. It carries the state that
// spans rows: the last instructor seen (merged cells) and the current
// employment-type section.
type RowNormalizer struct {
	cols           Columns
	lastInstructor string
	employment     internal.EmploymentType
	log            *zap.Logger
}

type RowOutcome int

const (
	RowEmitted RowOutcome = iota
	RowMarker
	RowSkipped
)

func NewRowNormalizer(cols Columns, log *zap.Logger) *RowNormalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &RowNormalizer{cols: cols, employment: internal.FullTime, log: log}
}

func (n *RowNormalizer) Employment() internal.EmploymentType {
	return n.employment
}

// Normalize consumes one row. rowNumber is only used for logging.
func (n *RowNormalizer) Normalize(rowNumber int, row []string) ([]internal.CourseOffering, RowOutcome) {
	cells := util.NormalizeCells(row)
	if util.IsBlankRow(cells) {
		return nil, RowSkipped
	}

	if mode, ok := EmploymentMarker(cells); ok {
		n.employment = mode
		n.log.Debug("employment section", zap.Int("row", rowNumber), zap.String("mode", string(mode)))
		return nil, RowMarker
	}

	if len(cells) < minDataColumns || len(cells) <= n.cols.maxIndex() {
		n.log.Debug("skip short row", zap.Int("row", rowNumber), zap.Int("columns", len(cells)))
		return nil, RowSkipped
	}

	name := cells[n.cols.Name]
	if name == "" {
		name = n.lastInstructor
	} else {
		n.lastInstructor = name
	}
	code := cells[n.cols.CourseCode]
	subject := cells[n.cols.Subject]
	if name == "" || code == "" || subject == "" {
		n.log.Debug("skip incomplete row", zap.Int("row", rowNumber), zap.String("name", name), zap.String("code", code))
		return nil, RowSkipped
	}

	parsedUnits := util.ParseUnits(cells[n.cols.Units])
	if !parsedUnits.OK {
		n.log.Info("unparsable units, defaulting to 0", zap.Int("row", rowNumber), zap.String("units", parsedUnits.Raw))
	}
	dept := ParseDepartment(cells[n.cols.Department])

	units := parsedUnits.Units
	if len(dept.Blocks) > 1 && units >= 4 {
		units = units / len(dept.Blocks)
	}

	base := internal.CourseOffering{
		InstructorName: name,
		CourseCode:     code,
		SubjectTitle:   subject,
		Units:          units,
		Department:     dept.Department,
		YearLevel:      dept.YearLevel,
		EmploymentType: n.employment,
		SessionType:    internal.NonLabSession,
	}

	if len(dept.Blocks) == 0 {
		return []internal.CourseOffering{base}, RowEmitted
	}
	out := make([]internal.CourseOffering, 0, len(dept.Blocks))
	for _, block := range dept.Blocks {
		o := base
		o.Block = block
		out = append(out, o)
	}
	return out, RowEmitted
}

// InferColumns maps header cells to columns. ok is false unless all five
// fields are found in distinct cells.
func InferColumns(header []string) (Columns, bool) {
	norm := make([]string, 0, len(header))
	for _, h := range header {
		norm = append(norm, strings.ToLower(util.NormalizeSpaces(h)))
	}

	used := map[int]struct{}{}
	pick := func(probes ...string) int {
		for _, probe := range probes {
			for i, h := range norm {
				if _, taken := used[i]; taken {
					continue
				}
				if strings.Contains(h, probe) {
					used[i] = struct{}{}
					return i
				}
			}
		}
		return -1
	}

	cols := Columns{
		CourseCode: pick("course code", "subject code", "code"),
		Units:      pick("unit"),
		Department: pick("dept", "department", "program", "section", "course & year", "course/year", "year"),
		Name:       pick("instructor", "faculty", "teacher", "name"),
		Subject:    pick("descriptive", "subject", "title", "description", "course"),
	}
	if cols.Name < 0 || cols.CourseCode < 0 || cols.Subject < 0 || cols.Units < 0 || cols.Department < 0 {
		return positionalColumns, false
	}
	return cols, true
}

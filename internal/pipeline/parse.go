package pipeline

import (
	"time"

	"go.uber.org/zap"

	"classload/internal"
	"classload/internal/util"
)

const defaultSemester = "2nd Semester"

// Parser runs header detection, row normalization and the summary over the
// raw rows of one load sheet.
type Parser struct {
	now func() time.Time
	log *zap.Logger
}

type ParserOption func(*Parser)

func WithClock(now func() time.Time) ParserOption {
	return func(p *Parser) { p.now = now }
}

func WithLogger(log *zap.Logger) ParserOption {
	return func(p *Parser) { p.log = log }
}

func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{now: time.Now, log: zap.L()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse is a convenience wrapper around NewParser().Parse.
func Parse(rows [][]string) internal.IngestResult {
	return NewParser().Parse(rows)
}

func (p *Parser) Parse(rows [][]string) internal.IngestResult {
	schoolYear, ok := ExtractSchoolYear(rows)
	if !ok {
		schoolYear = DefaultSchoolYear(p.now().Year())
	}
	semester, ok := ExtractSemester(rows)
	if !ok {
		semester = defaultSemester
	}

	headerIdx := FindHeaderRow(rows)
	cols := positionalColumns
	if headerIdx >= 0 {
		if inferred, ok := InferColumns(rows[headerIdx]); ok {
			cols = inferred
		}
	}

	normalizer := NewRowNormalizer(cols, p.log)
	summary := internal.IngestSummary{HeaderRow: headerIdx, UnitsByType: map[string]int{}}
	offerings := make([]internal.CourseOffering, 0, len(rows))
	instructors := map[string]struct{}{}

	for i := headerIdx + 1; i < len(rows); i++ {
		summary.RowsScanned++
		if isRepeatedHeader(rows[i]) {
			summary.RowsSkipped++
			continue
		}
		emitted, outcome := normalizer.Normalize(i+1, rows[i])
		switch outcome {
		case RowMarker:
			summary.MarkerRows++
			continue
		case RowSkipped:
			summary.RowsSkipped++
			continue
		}
		for _, o := range emitted {
			instructors[o.InstructorName] = struct{}{}
			summary.UnitsByType[string(o.EmploymentType)] += o.Units
		}
		offerings = append(offerings, emitted...)
	}

	summary.Instructors = len(instructors)
	summary.OfferingsCount = len(offerings)

	p.log.Info("load sheet parsed",
		zap.String("schoolYear", schoolYear),
		zap.String("semester", semester),
		zap.Int("headerRow", headerIdx),
		zap.Int("rows", summary.RowsScanned),
		zap.Int("skipped", summary.RowsSkipped),
		zap.Int("offerings", len(offerings)),
	)

	return internal.IngestResult{
		SchoolYear: schoolYear,
		Semester:   semester,
		Offerings:  offerings,
		Summary:    summary,
	}
}

// isRepeatedHeader catches header rows repeated on every printed page and
// title rows that preceded the real header.
func isRepeatedHeader(row []string) bool {
	hits := 0
	for _, cell := range row {
		if reHeaderTokens.MatchString(cell) {
			hits++
		}
	}
	if hits < 2 {
		return false
	}
	for _, cell := range row {
		if util.ParseUnits(cell).OK {
			return false
		}
	}
	return true
}

// SetSessionType changes the session type of one parsed offering before the
// offerings are sent for generation.
func SetSessionType(offerings []internal.CourseOffering, index int, sessionType internal.SessionType) bool {
	if index < 0 || index >= len(offerings) {
		return false
	}
	if sessionType != internal.LabSession && sessionType != internal.NonLabSession {
		return false
	}
	offerings[index].SessionType = sessionType
	return true
}

package pipeline

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	pdf "github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"classload/internal"
	"classload/internal/util"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported load sheet format")
	ErrNoRows            = errors.New("load sheet has no rows")

	reTextColumnGap = regexp.MustCompile(`\s{2,}|\s*\|\s*`)
)

// EmailLoadSheet is one table found in a message: an attachment or the
// HTML body.
type EmailLoadSheet struct {
	FileName string
	Rows     [][]string
}

const emailBodySheet = "email-body.html"

// ExtractLoadSheetsFromEmail reads a raw RFC 822 message and returns every
// attachment it could turn into rows, plus the HTML body table when it has a
// header. Unreadable attachments are listed in attachmentNames but skipped.
func ExtractLoadSheetsFromEmail(raw []byte) ([]EmailLoadSheet, string, string, []string, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, "", "", nil, err
	}

	sheets := make([]EmailLoadSheet, 0, len(env.Attachments)+1)
	attachmentNames := make([]string, 0, len(env.Attachments))
	for _, att := range env.Attachments {
		filename := strings.TrimSpace(att.FileName)
		if filename == "" {
			filename = "attachment"
		}
		attachmentNames = append(attachmentNames, filename)

		rows, err := ReadRows(filename, att.Content)
		if err != nil {
			continue
		}
		sheets = append(sheets, EmailLoadSheet{FileName: filename, Rows: rows})
	}

	if env.HTML != "" {
		if rows, err := ReadHTMLRows(env.HTML); err == nil && FindHeaderRow(rows) >= 0 {
			sheets = append(sheets, EmailLoadSheet{FileName: emailBodySheet, Rows: rows})
		}
	}

	return sheets, env.GetHeader("Subject"), env.Text, attachmentNames, nil
}

// SourceForFile picks a row reader from a file name.
func SourceForFile(name string) (internal.RowSource, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return internal.SourceCSV, nil
	case ".txt", ".tsv":
		return internal.SourceText, nil
	case ".xlsx", ".xlsm":
		return internal.SourceXLSX, nil
	case ".html", ".htm":
		return internal.SourceHTMLTable, nil
	case ".pdf":
		return internal.SourcePDF, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// ReadRows turns an uploaded file into raw rows.
func ReadRows(name string, content []byte) ([][]string, error) {
	source, err := SourceForFile(name)
	if err != nil {
		return nil, err
	}
	return ReadRowsFrom(source, content)
}

func ReadRowsFrom(source internal.RowSource, content []byte) ([][]string, error) {
	var (
		rows [][]string
		err  error
	)
	switch source {
	case internal.SourceCSV:
		rows, err = ReadCSVRows(content)
	case internal.SourceText:
		rows = ReadTextRows(string(content))
	case internal.SourceXLSX:
		rows, err = ReadXLSXRows(content)
	case internal.SourceHTMLTable:
		rows, err = ReadHTMLRows(string(content))
	case internal.SourcePDF:
		rows, err = ReadPDFRows(content)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, source)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

func ReadCSVRows(content []byte) ([][]string, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(content))
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// ReadXLSXRows returns the rows of the first sheet that has a recognisable
// header, or of the first non-empty sheet.
func ReadXLSXRows(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var fallback [][]string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		rows = fillMergedCells(f, sheet, rows)
		if FindHeaderRow(rows) >= 0 {
			return rows, nil
		}
		if fallback == nil {
			fallback = rows
		}
	}
	return fallback, nil
}

// fillMergedCells copies the value of a vertically merged block into every
// row it spans, except column A whose blanks are forward-filled later.
func fillMergedCells(f *excelize.File, sheet string, rows [][]string) [][]string {
	merges, err := f.GetMergeCells(sheet)
	if err != nil {
		return rows
	}
	for _, mg := range merges {
		sc, sr, err := excelize.CellNameToCoordinates(mg.GetStartAxis())
		if err != nil {
			continue
		}
		ec, er, err := excelize.CellNameToCoordinates(mg.GetEndAxis())
		if err != nil || sc == 1 {
			continue
		}
		for r := sr; r <= er && r-1 < len(rows); r++ {
			for c := sc; c <= ec; c++ {
				for len(rows[r-1]) < c {
					rows[r-1] = append(rows[r-1], "")
				}
				if rows[r-1][c-1] == "" {
					rows[r-1][c-1] = mg.GetCellValue()
				}
			}
		}
	}
	return rows
}

// ReadHTMLRows returns the rows of the first table with a recognisable
// header, or of the largest table.
func ReadHTMLRows(html string) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var best [][]string
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := [][]string{}
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			cells := []string{}
			tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, util.NormalizeSpaces(cell.Text()))
			})
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		})
		if FindHeaderRow(rows) >= 0 {
			best = rows
			return false
		}
		if len(rows) > len(best) {
			best = rows
		}
		return true
	})
	return best, nil
}

// ReadPDFRows rebuilds table rows from the positioned text of each page.
func ReadPDFRows(content []byte) ([][]string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	var rows [][]string
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageRows, err := p.GetTextByRow()
		if err != nil {
			continue
		}
		for _, pr := range pageRows {
			if cells := pdfRowCells(pr.Content); len(cells) > 0 {
				rows = append(rows, cells)
			}
		}
	}
	return rows, nil
}

const (
	pdfWordGap   = 1.5
	pdfColumnGap = 10.0
)

// pdfRowCells groups the text runs of one line into cells using their
// horizontal gaps.
func pdfRowCells(runs pdf.TextHorizontal) []string {
	var cells []string
	var cur strings.Builder
	prevEnd := -1.0
	for _, run := range runs {
		if prevEnd >= 0 {
			gap := run.X - prevEnd
			switch {
			case gap > pdfColumnGap:
				cells = append(cells, util.NormalizeSpaces(cur.String()))
				cur.Reset()
			case gap > pdfWordGap:
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(run.S)
		prevEnd = run.X + run.W
	}
	if cur.Len() > 0 {
		cells = append(cells, util.NormalizeSpaces(cur.String()))
	}
	if util.IsBlankRow(cells) {
		return nil
	}
	return cells
}

// ReadTextRows reads a plain-text export where columns are separated by
// tabs, runs of spaces or pipes.
func ReadTextRows(text string) [][]string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		if cells := SplitTextLine(line); len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return rows
}

// SplitTextLine splits a plain-text table line into cells. Tab-separated
// lines keep their empty cells so merged instructor columns survive.
func SplitTextLine(line string) []string {
	line = strings.ReplaceAll(line, "\u00a0", " ")
	if strings.TrimSpace(line) == "" {
		return nil
	}
	var parts []string
	if strings.Contains(line, "\t") {
		parts = strings.Split(strings.TrimRight(line, "\r\n "), "\t")
	} else {
		parts = reTextColumnGap.Split(strings.TrimSpace(line), -1)
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, util.NormalizeSpaces(p))
	}
	return out
}

package pipeline

import (
	"path/filepath"
	"strings"
)

type DetectResult struct {
	IsLoadSheet bool
	Score       float64
	Reason      string
}

var detectKeywords = []string{"load", "faculty", "instructor", "teaching", "offering", "schedule", "semester", "subject"}

var sheetExtensions = map[string]struct{}{
	".xlsx": {}, ".xlsm": {}, ".csv": {}, ".pdf": {}, ".txt": {}, ".tsv": {}, ".html": {}, ".htm": {},
}

// DetectLoadSheetEmail scores whether a message is likely to carry an
// instructor load sheet. parsedSheets is the number of attachments that
// already yielded a header row.
func DetectLoadSheetEmail(subject, text string, attachmentNames []string, parsedSheets int) DetectResult {
	subject = strings.ToLower(subject)
	text = strings.ToLower(text)

	score := 0.0
	for _, kw := range detectKeywords {
		if strings.Contains(subject, kw) {
			score += 0.15
		}
		if strings.Contains(text, kw) {
			score += 0.05
		}
	}

	for _, name := range attachmentNames {
		if _, ok := sheetExtensions[strings.ToLower(filepath.Ext(name))]; ok {
			score += 0.25
			break
		}
	}
	if parsedSheets > 0 {
		score += 0.4
	}
	if score > 1 {
		score = 1
	}

	isLoad := score >= 0.45 && parsedSheets > 0
	reason := "rules_negative"
	if isLoad {
		reason = "rules_positive"
	}
	return DetectResult{IsLoadSheet: isLoad, Score: score, Reason: reason}
}

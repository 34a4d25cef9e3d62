package pipeline

import (
	"strings"

	"classload/internal"
)

const (
	defaultPayloadUnits = 3
	defaultPayloadDept  = "General"
	defaultPayloadBlock = "A"
)

// ToGenerationOfferings converts parsed offerings to the generator's wire
// shape, filling the defaults the generator expects.
func ToGenerationOfferings(offerings []internal.CourseOffering) []internal.GenerationOffering {
	out := make([]internal.GenerationOffering, 0, len(offerings))
	for _, o := range offerings {
		unit := o.Units
		if unit <= 0 {
			unit = defaultPayloadUnits
		}
		sessionType := o.SessionType
		if sessionType == "" {
			sessionType = internal.NonLabSession
		}
		out = append(out, internal.GenerationOffering{
			Name:           strings.TrimSpace(o.InstructorName),
			CourseCode:     strings.TrimSpace(o.CourseCode),
			Subject:        strings.TrimSpace(o.SubjectTitle),
			Unit:           unit,
			Dept:           orDefault(o.Department, defaultPayloadDept),
			YearLevel:      orDefault(o.YearLevel, internal.FirstYear),
			Block:          orDefault(o.Block, defaultPayloadBlock),
			EmploymentType: string(NormalizeEmploymentType(string(o.EmploymentType))),
			SessionType:    string(sessionType),
		})
	}
	return out
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

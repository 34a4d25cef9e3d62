package gateway

import "classload/internal"

// Locator identifies one meeting to the scheduling service without a
// database id.
type Locator struct {
	GroupID        string `json:"groupId"`
	SubjectCode    string `json:"subjectCode"`
	InstructorName string `json:"instructorName"`
	SectionCode    string `json:"sectionCode"`
	Day            string `json:"day"`
	StartTime      string `json:"startTime"`
	EndTime        string `json:"endTime"`
}

type LocateResult struct {
	InstructorID      *int   `json:"instructorId,omitempty"`
	RoomID            *int   `json:"roomId,omitempty"`
	SectionID         *int   `json:"sectionId,omitempty"`
	MeetingID         *int   `json:"meetingId,omitempty"`
	EntryID           *int   `json:"entryId,omitempty"`
	OriginalDay       string `json:"originalDay,omitempty"`
	OriginalStartTime string `json:"originalStartTime,omitempty"`
	OriginalEndTime   string `json:"originalEndTime,omitempty"`
}

type ValidateRequest struct {
	GroupID      string `json:"groupId"`
	MeetingID    *int   `json:"meetingId,omitempty"`
	EntryID      *int   `json:"entryId,omitempty"`
	InstructorID *int   `json:"instructorId,omitempty"`
	RoomID       *int   `json:"roomId,omitempty"`
	RoomName     string `json:"roomName,omitempty"`
	Day          string `json:"day"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
}

type EditType string

const (
	EditDay  EditType = "day"
	EditTime EditType = "time"
	EditRoom EditType = "room"
)

type SuggestRequest struct {
	GroupID         string   `json:"groupId"`
	InstructorID    *int     `json:"instructorId,omitempty"`
	RoomID          *int     `json:"roomId,omitempty"`
	SectionID       *int     `json:"sectionId,omitempty"`
	MeetingID       *int     `json:"meetingId,omitempty"`
	PreferredDay    string   `json:"preferredDay,omitempty"`
	DurationMinutes int      `json:"durationMinutes"`
	EditType        EditType `json:"editType"`
	OriginalDay     string   `json:"originalDay,omitempty"`
}

type UpdateRequest struct {
	GroupID        string `json:"groupId"`
	SubjectCode    string `json:"subjectCode"`
	InstructorName string `json:"instructorName"`
	SectionCode    string `json:"sectionCode"`
	OrigDay        string `json:"origDay"`
	OrigStart      string `json:"origStart"`
	OrigEnd        string `json:"origEnd"`
	NewDay         string `json:"newDay"`
	NewStart       string `json:"newStart"`
	NewEnd         string `json:"newEnd"`
	NewRoomName    string `json:"newRoomName,omitempty"`
}

type UpdateResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

type GenerateRequest struct {
	InstructorData    []internal.GenerationOffering `json:"instructorData"`
	Semester          string                        `json:"semester"`
	SchoolYear        string                        `json:"schoolYear"`
	FilterPreferences map[string]any                `json:"filterPreferences,omitempty"`
}

type GenerateResult struct {
	Success bool                     `json:"success"`
	GroupID string                   `json:"group_id"`
	Message string                   `json:"message,omitempty"`
	Data    []internal.ScheduleEntry `json:"data"`
}

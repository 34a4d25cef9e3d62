package internal

type RowSource string

const (
	SourceCSV       RowSource = "csv"
	SourceText      RowSource = "text"
	SourceXLSX      RowSource = "xlsx"
	SourceHTMLTable RowSource = "html_table"
	SourcePDF       RowSource = "pdf"
)

type EmploymentType string

const (
	FullTime EmploymentType = "FULL-TIME"
	PartTime EmploymentType = "PART-TIME"
)

type SessionType string

const (
	LabSession    SessionType = "Lab session"
	NonLabSession SessionType = "Non-Lab session"
)

const (
	FirstYear  = "1st Year"
	SecondYear = "2nd Year"
	ThirdYear  = "3rd Year"
	FourthYear = "4th Year"
)

type CourseOffering struct {
	InstructorName string         `json:"instructorName"`
	CourseCode     string         `json:"courseCode"`
	SubjectTitle   string         `json:"subjectTitle"`
	Units          int            `json:"units"`
	Department     string         `json:"department"`
	YearLevel      string         `json:"yearLevel"`
	Block          string         `json:"block"`
	EmploymentType EmploymentType `json:"employmentType"`
	SessionType    SessionType    `json:"sessionType"`
}

type IngestSummary struct {
	RowsScanned    int            `json:"rowsScanned"`
	RowsSkipped    int            `json:"rowsSkipped"`
	MarkerRows     int            `json:"markerRows"`
	HeaderRow      int            `json:"headerRow"`
	Instructors    int            `json:"instructors"`
	UnitsByType    map[string]int `json:"unitsByType"`
	OfferingsCount int            `json:"offerings"`
}

type IngestResult struct {
	SchoolYear string           `json:"schoolYear"`
	Semester   string           `json:"semester"`
	Offerings  []CourseOffering `json:"offerings"`
	Summary    IngestSummary    `json:"summary"`
}

type ScheduleEntry struct {
	SubjectCode    string         `json:"subjectCode"`
	SubjectTitle   string         `json:"subjectTitle,omitempty"`
	InstructorName string         `json:"instructorName"`
	SectionCode    string         `json:"sectionCode"`
	Department     string         `json:"department,omitempty"`
	YearLevel      string         `json:"yearLevel"`
	Block          string         `json:"block"`
	Day            string         `json:"day"`
	StartTime      string         `json:"startTime"`
	EndTime        string         `json:"endTime"`
	RoomName       string         `json:"roomName"`
	EmploymentType EmploymentType `json:"employmentType,omitempty"`
	IsLab          bool           `json:"isLab"`
}

const RoomTBA = "TBA"

type ConflictKind string

const (
	ConflictStartTime  ConflictKind = "start_time"
	ConflictLunch      ConflictKind = "lunch"
	ConflictCutoff     ConflictKind = "cutoff"
	ConflictDuration   ConflictKind = "duration"
	ConflictInstructor ConflictKind = "instructor"
	ConflictRoom       ConflictKind = "room"
	ConflictSection    ConflictKind = "section"
	// ConflictUnverified is reported under the strict failure policy when the
	// scheduling service could not be reached.
	ConflictUnverified ConflictKind = "unverified"
)

// ConflictOrder is the order conflicts are reported in.
var ConflictOrder = []ConflictKind{
	ConflictStartTime, ConflictLunch, ConflictCutoff, ConflictDuration,
	ConflictInstructor, ConflictRoom, ConflictSection, ConflictUnverified,
}

type ConflictResult struct {
	OK        bool           `json:"ok"`
	Conflicts []ConflictKind `json:"conflicts"`
	Details   map[string]any `json:"details,omitempty"`
	Degraded  bool           `json:"degraded,omitempty"`
	Message   string         `json:"message,omitempty"`
}

type Suggestion struct {
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	RoomID    *int   `json:"roomId,omitempty"`
	RoomName  string `json:"roomName"`
	IsJoint   bool   `json:"isJoint"`
}

type LoadRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

type OfferingExportRow struct {
	LoadID     int
	SourceFile string
	SchoolYear string
	Semester   string
	CourseOffering
}

// GenerationOffering is the wire shape of an offering sent to the schedule
// generator.
type GenerationOffering struct {
	Name           string `json:"name"`
	CourseCode     string `json:"courseCode"`
	Subject        string `json:"subject"`
	Unit           int    `json:"unit"`
	Dept           string `json:"dept"`
	YearLevel      string `json:"yearLevel"`
	Block          string `json:"block"`
	EmploymentType string `json:"employmentType"`
	SessionType    string `json:"sessionType"`
}

type EditJournalEntry struct {
	ID             int    `json:"id"`
	GroupID        string `json:"groupId"`
	SubjectCode    string `json:"subjectCode"`
	InstructorName string `json:"instructorName"`
	SectionCode    string `json:"sectionCode"`
	Field          string `json:"field"`
	OrigDay        string `json:"origDay"`
	OrigStart      string `json:"origStart"`
	OrigEnd        string `json:"origEnd"`
	OrigRoom       string `json:"origRoom"`
	NewDay         string `json:"newDay"`
	NewStart       string `json:"newStart"`
	NewEnd         string `json:"newEnd"`
	NewRoom        string `json:"newRoom"`
	Status         string `json:"status"`
	Message        string `json:"message,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"`
}

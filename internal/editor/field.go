package editor

import (
	"errors"
	"fmt"
	"strings"

	"classload/internal"
	"classload/internal/daytime"
	"classload/internal/gateway"
)

var ErrInvalidField = errors.New("invalid field value")

type FieldKind string

const (
	FieldDay  FieldKind = "day"
	FieldTime FieldKind = "time"
	FieldRoom FieldKind = "room"
)

// Meeting is the editable part of a schedule entry.
type Meeting struct {
	Day   string `json:"day"`
	Start string `json:"startTime"`
	End   string `json:"endTime"`
	Room  string `json:"roomName"`
}

func MeetingOf(e internal.ScheduleEntry) Meeting {
	return Meeting{Day: e.Day, Start: e.StartTime, End: e.EndTime, Room: e.RoomName}
}

func (m Meeting) applyTo(e internal.ScheduleEntry) internal.ScheduleEntry {
	e.Day = m.Day
	e.StartTime = m.Start
	e.EndTime = m.End
	e.RoomName = m.Room
	return e
}

// Equal compares day sets order-insensitively and times at minute precision.
func (m Meeting) Equal(o Meeting) bool {
	return daytime.SameDays(m.Day, o.Day) &&
		canonicalOr(m.Start) == canonicalOr(o.Start) &&
		canonicalOr(m.End) == canonicalOr(o.End) &&
		strings.TrimSpace(m.Room) == strings.TrimSpace(o.Room)
}

func (m Meeting) duration() (int, bool) {
	return daytime.Duration(m.Start, m.End)
}

func canonicalOr(t string) string {
	if c := daytime.Canonical(t); c != "" {
		return c
	}
	return strings.TrimSpace(t)
}

// suggestBias shapes how alternatives are requested and filtered for one
// kind of edit.
type suggestBias struct {
	preferredDay string
	// groupJoint synthesizes combined-day suggestions from slots shared by
	// at least two days.
	groupJoint bool
	// keepPair rewrites single-day suggestions onto the selected day pair.
	keepPair string
}

// EditableField is one of DayField, TimeField or RoomField.
type EditableField interface {
	Kind() FieldKind
	apply(m Meeting) (Meeting, error)
	bias(baseline, proposed Meeting) suggestBias
}

type DayField struct {
	Days string `json:"days"`
}

type TimeField struct {
	Start string `json:"startTime"`
	End   string `json:"endTime"`
}

type RoomField struct {
	Room string `json:"roomName"`
}

func (DayField) Kind() FieldKind  { return FieldDay }
func (TimeField) Kind() FieldKind { return FieldTime }
func (RoomField) Kind() FieldKind { return FieldRoom }

func (f DayField) apply(m Meeting) (Meeting, error) {
	days := daytime.ParseCombinedDays(f.Days)
	if len(days) == 0 || len(days) > 2 {
		return m, fmt.Errorf("%w: day %q", ErrInvalidField, f.Days)
	}
	m.Day = daytime.CombineDays(days)
	return m, nil
}

// Day edits never lean towards the day being moved away from.
func (f DayField) bias(baseline, proposed Meeting) suggestBias {
	return suggestBias{groupJoint: daytime.IsJoint(baseline.Day) || daytime.IsJoint(proposed.Day)}
}

func (f TimeField) apply(m Meeting) (Meeting, error) {
	start, ok1 := clock(f.Start)
	end, ok2 := clock(f.End)
	if !ok1 || !ok2 {
		return m, fmt.Errorf("%w: time %q-%q", ErrInvalidField, f.Start, f.End)
	}
	if _, ok := daytime.Duration(start, end); !ok {
		return m, fmt.Errorf("%w: start %s is not before end %s", ErrInvalidField, start, end)
	}
	m.Start, m.End = start, end
	return m, nil
}

func (f TimeField) bias(_, proposed Meeting) suggestBias {
	b := suggestBias{preferredDay: proposed.Day}
	if daytime.IsJoint(proposed.Day) {
		b.keepPair = proposed.Day
	}
	return b
}

func (f RoomField) apply(m Meeting) (Meeting, error) {
	room := strings.TrimSpace(f.Room)
	if room == "" {
		return m, fmt.Errorf("%w: empty room", ErrInvalidField)
	}
	m.Room = room
	return m, nil
}

func (f RoomField) bias(_, proposed Meeting) suggestBias {
	b := suggestBias{preferredDay: proposed.Day}
	if daytime.IsJoint(proposed.Day) {
		b.keepPair = proposed.Day
	}
	return b
}

// NewField builds the field for kind from loosely typed input.
func NewField(kind FieldKind, day, start, end, room string) (EditableField, error) {
	switch kind {
	case FieldDay:
		return DayField{Days: day}, nil
	case FieldTime:
		return TimeField{Start: start, End: end}, nil
	case FieldRoom:
		return RoomField{Room: room}, nil
	}
	return nil, fmt.Errorf("%w: unknown field kind %q", ErrInvalidField, kind)
}

func editType(kind FieldKind) gateway.EditType {
	switch kind {
	case FieldDay:
		return gateway.EditDay
	case FieldTime:
		return gateway.EditTime
	}
	return gateway.EditRoom
}

// clock accepts "HH:MM[:SS]" or "h:mm AM/PM" and returns "HH:MM".
func clock(t string) (string, bool) {
	if c := daytime.Canonical(t); c != "" {
		return c, true
	}
	if c := daytime.To24Hour(t); c != "" {
		return c, true
	}
	return "", false
}

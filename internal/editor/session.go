package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"classload/internal"
	"classload/internal/config"
	"classload/internal/gateway"
)

var ErrNoSuchEntry = errors.New("no such schedule entry")

// Gateway is the part of the scheduling service the editor needs.
type Gateway interface {
	LocateEntry(ctx context.Context, loc gateway.Locator) (gateway.LocateResult, error)
	ValidateEdit(ctx context.Context, req gateway.ValidateRequest) (internal.ConflictResult, error)
	SuggestAlternatives(ctx context.Context, req gateway.SuggestRequest) ([]internal.Suggestion, error)
	UpdateByLocator(ctx context.Context, req gateway.UpdateRequest) (gateway.UpdateResult, error)
}

// Journal records committed and failed saves.
type Journal interface {
	AppendEdit(e internal.EditJournalEntry) error
}

type Options struct {
	// Policy is config.PolicyPermissive or config.PolicyStrict.
	Policy  string
	Rules   Rules
	Journal Journal
	Log     *zap.Logger
}

// Session owns one generated schedule while it is being edited. It keeps
// three views of every entry: the schedule as generated, the last committed
// baseline and the displayed working copy. Snapshots handed out are copies.
type Session struct {
	ID         string
	GroupID    string
	Semester   string
	SchoolYear string

	gw   Gateway
	opts Options

	mu       sync.RWMutex
	initial  []internal.ScheduleEntry
	baseline []internal.ScheduleEntry
	working  []internal.ScheduleEntry
	editors  map[int]*Editor
}

func NewSession(groupID string, entries []internal.ScheduleEntry, gw Gateway, opts Options) *Session {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Policy == "" {
		opts.Policy = config.PolicyPermissive
	}
	if opts.Rules == (Rules{}) {
		opts.Rules = DefaultRules()
	}
	id := uuid.NewString()
	opts.Log = opts.Log.With(zap.String("session", id), zap.String("group", groupID))
	return &Session{
		ID:       id,
		GroupID:  groupID,
		gw:       gw,
		opts:     opts,
		initial:  clone(entries),
		baseline: clone(entries),
		working:  clone(entries),
		editors:  map[int]*Editor{},
	}
}

func clone(entries []internal.ScheduleEntry) []internal.ScheduleEntry {
	return append([]internal.ScheduleEntry(nil), entries...)
}

// Entries returns the displayed working copy.
func (s *Session) Entries() []internal.ScheduleEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.working)
}

// Baseline returns the last committed state.
func (s *Session) Baseline() []internal.ScheduleEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.baseline)
}

func (s *Session) Entry(index int) (internal.ScheduleEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.working) {
		return internal.ScheduleEntry{}, false
	}
	return s.working[index], true
}

func (s *Session) display(index int, m Meeting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.working[index] = m.applyTo(s.working[index])
}

// rebase makes m the committed value of entry index.
func (s *Session) rebase(index int, m Meeting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := clone(s.baseline)
	next[index] = m.applyTo(next[index])
	s.baseline = next
	s.working[index] = m.applyTo(s.working[index])
}

// Change is one entry whose committed meeting differs from the generated one.
type Change struct {
	Index          int     `json:"index"`
	SubjectCode    string  `json:"subjectCode"`
	InstructorName string  `json:"instructorName"`
	SectionCode    string  `json:"sectionCode"`
	Before         Meeting `json:"before"`
	After          Meeting `json:"after"`
}

func (s *Session) Changes() []Change {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Change
	for i := range s.initial {
		before, after := MeetingOf(s.initial[i]), MeetingOf(s.baseline[i])
		if before.Equal(after) {
			continue
		}
		out = append(out, Change{
			Index:          i,
			SubjectCode:    s.initial[i].SubjectCode,
			InstructorName: s.initial[i].InstructorName,
			SectionCode:    s.initial[i].SectionCode,
			Before:         before,
			After:          after,
		})
	}
	return out
}

// Open starts editing one field of entry index. An editor already open on
// the same entry is replaced in the same critical section and closed after
// the swap. Callers must Close the returned editor.
func (s *Session) Open(index int, kind FieldKind) (*Editor, error) {
	if _, err := NewField(kind, "", "", "", ""); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if index < 0 || index >= len(s.working) {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %d", ErrNoSuchEntry, index)
	}
	ed := newEditor(s, index, kind, s.baseline[index])
	prev := s.editors[index]
	s.editors[index] = ed
	s.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	return ed, nil
}

// WithEditor opens an editor, runs fn and always releases the editor.
func (s *Session) WithEditor(index int, kind FieldKind, fn func(*Editor) error) error {
	ed, err := s.Open(index, kind)
	if err != nil {
		return err
	}
	defer ed.Close()
	return fn(ed)
}

func (s *Session) release(ed *Editor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editors[ed.index] == ed {
		delete(s.editors, ed.index)
	}
}

// Close closes every editor still open on the session.
func (s *Session) Close() {
	s.mu.RLock()
	open := make([]*Editor, 0, len(s.editors))
	for _, ed := range s.editors {
		open = append(open, ed)
	}
	s.mu.RUnlock()
	for _, ed := range open {
		ed.Close()
	}
}

// OpenEditors reports how many editors are currently live.
func (s *Session) OpenEditors() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.editors)
}

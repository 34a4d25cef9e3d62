// Package editor implements the edit protocol for one cell of a generated
// schedule: propose a value, validate it, pick an alternative and save.
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
	"classload/internal/util"
)

var (
	ErrCheckInProgress = errors.New("a conflict check is already running for this editor")
	ErrStaleResponse   = errors.New("response belongs to a superseded check")
	ErrEditorClosed    = errors.New("editor is closed")
	ErrNotEditing      = errors.New("editor has no pending conflict to resolve")
	ErrNotClear        = errors.New("edit has not been validated as conflict-free")
	ErrCommitFailed    = errors.New("commit failed")
	ErrWrongField      = errors.New("field kind does not match editor")
	ErrNoSuggestion    = errors.New("no such suggestion")
)

type State int

const (
	Idle State = iota
	Editing
	Validating
	ConflictFound
	Clear
	Committing
)

var stateNames = [...]string{"idle", "editing", "validating", "conflict_found", "clear", "committing"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

const degradedMessage = "scheduling service unavailable; edit was not verified"

// Outcome is what a caller sees after each step.
type Outcome struct {
	EditorID    string                  `json:"editorId"`
	State       State                   `json:"state"`
	Meeting     Meeting                 `json:"meeting"`
	Result      internal.ConflictResult `json:"result"`
	Suggestions []internal.Suggestion   `json:"suggestions,omitempty"`
}

// Editor drives one field of one entry through the edit states. Network
// calls run without holding the lock; a per-editor latch keeps them from
// overlapping and a request token discards responses that arrive after the
// editor was cancelled or closed.
type Editor struct {
	id      string
	session *Session
	index   int
	kind    FieldKind
	log     *zap.Logger

	mu          sync.Mutex
	state       State
	live        bool
	checking    bool
	token       uint64
	entry       internal.ScheduleEntry
	baseline    Meeting
	proposed    Meeting
	roomID      *int
	field       EditableField
	result      internal.ConflictResult
	suggestions []internal.Suggestion
}

func newEditor(s *Session, index int, kind FieldKind, entry internal.ScheduleEntry) *Editor {
	id := uuid.NewString()
	return &Editor{
		id:       id,
		session:  s,
		index:    index,
		kind:     kind,
		log:      s.opts.Log.With(zap.String("editor", id), zap.Int("entry", index), zap.String("field", string(kind))),
		state:    Editing,
		live:     true,
		entry:    entry,
		baseline: MeetingOf(entry),
		proposed: MeetingOf(entry),
		result:   internal.ConflictResult{OK: true},
	}
}

func (e *Editor) ID() string        { return e.id }
func (e *Editor) Index() int        { return e.index }
func (e *Editor) Kind() FieldKind   { return e.kind }
func (e *Editor) Session() *Session { return e.session }

func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Editor) Outcome() Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.outcomeLocked()
}

func (e *Editor) outcomeLocked() Outcome {
	return Outcome{
		EditorID:    e.id,
		State:       e.state,
		Meeting:     e.proposed,
		Result:      e.result,
		Suggestions: append([]internal.Suggestion(nil), e.suggestions...),
	}
}

// Propose sets a new value for the editor's field and validates it.
func (e *Editor) Propose(ctx context.Context, field EditableField) (Outcome, error) {
	if field.Kind() != e.kind {
		return Outcome{}, fmt.Errorf("%w: %s editor got %s", ErrWrongField, e.kind, field.Kind())
	}
	e.mu.Lock()
	if err := e.ensureCanCheckLocked(); err != nil {
		e.mu.Unlock()
		return Outcome{}, err
	}
	proposed, err := field.apply(e.baseline)
	if err != nil {
		e.mu.Unlock()
		return Outcome{}, err
	}
	e.field = field
	e.roomID = nil
	return e.checkLocked(ctx, proposed)
}

// ApplySuggestion moves the edit to suggestion i of the last conflict and
// validates it again.
func (e *Editor) ApplySuggestion(ctx context.Context, i int) (Outcome, error) {
	e.mu.Lock()
	if err := e.ensureCanCheckLocked(); err != nil {
		e.mu.Unlock()
		return Outcome{}, err
	}
	if e.state != ConflictFound {
		e.mu.Unlock()
		return Outcome{}, ErrNotEditing
	}
	if i < 0 || i >= len(e.suggestions) {
		e.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: %d", ErrNoSuggestion, i)
	}
	s := e.suggestions[i]
	proposed := Meeting{Day: s.Day, Start: s.StartTime, End: s.EndTime, Room: e.proposed.Room}
	if s.RoomName != "" {
		proposed.Room = s.RoomName
	}
	e.roomID = s.RoomID
	return e.checkLocked(ctx, proposed)
}

func (e *Editor) ensureCanCheckLocked() error {
	switch {
	case !e.live:
		return ErrEditorClosed
	case e.checking:
		return ErrCheckInProgress
	case e.state == Committing:
		return ErrNotEditing
	}
	return nil
}

// checkLocked runs the Validating step. It is entered with e.mu held and
// releases it.
func (e *Editor) checkLocked(ctx context.Context, proposed Meeting) (Outcome, error) {
	e.proposed = proposed
	e.session.display(e.index, proposed)

	if proposed.Equal(e.baseline) {
		e.state = Clear
		e.result = internal.ConflictResult{OK: true}
		e.suggestions = nil
		e.log.Debug("edit reverted to baseline")
		out := e.outcomeLocked()
		e.mu.Unlock()
		return out, nil
	}

	e.state = Validating
	e.checking = true
	e.token++
	token := e.token
	baseline := e.baseline
	field := e.field
	roomID := e.roomID
	loc := e.locator(baseline)
	e.mu.Unlock()

	local := e.session.opts.Rules.Check(baseline, proposed)
	result, suggestions := e.validate(ctx, loc, baseline, proposed, roomID, field, local)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.live {
		e.checking = false
		return Outcome{}, ErrEditorClosed
	}
	if token != e.token {
		// The latch belongs to whichever check superseded this one.
		e.log.Debug("stale conflict check dropped", zap.Uint64("token", token), zap.Uint64("current", e.token))
		return Outcome{}, ErrStaleResponse
	}
	e.checking = false
	e.result = result
	e.suggestions = suggestions
	if result.OK {
		e.state = Clear
	} else {
		e.state = ConflictFound
	}
	e.log.Debug("edit validated",
		zap.Stringer("state", e.state),
		zap.Bool("degraded", result.Degraded),
		zap.Int("conflicts", len(result.Conflicts)),
		zap.Int("suggestions", len(suggestions)),
	)
	return e.outcomeLocked(), nil
}

func (e *Editor) validate(ctx context.Context, locator gateway.Locator, baseline, proposed Meeting, roomID *int, field EditableField, local []internal.ConflictKind) (internal.ConflictResult, []internal.Suggestion) {
	gw := e.session.gw
	loc, err := gw.LocateEntry(ctx, locator)
	if err != nil {
		return e.onTransportFailure("locate", err, local), nil
	}

	req := gateway.ValidateRequest{
		GroupID:      e.session.GroupID,
		MeetingID:    loc.MeetingID,
		EntryID:      loc.EntryID,
		InstructorID: loc.InstructorID,
		Day:          proposed.Day,
		StartTime:    proposed.Start,
		EndTime:      proposed.End,
	}
	switch {
	case roomID != nil:
		req.RoomID = roomID
	case proposed.Room == baseline.Room:
		req.RoomID = loc.RoomID
		if proposed.Room != internal.RoomTBA {
			req.RoomName = proposed.Room
		}
	case proposed.Room != internal.RoomTBA:
		req.RoomName = proposed.Room
	}

	remote, err := gw.ValidateEdit(ctx, req)
	if err != nil {
		return e.onTransportFailure("validate", err, local), nil
	}

	result := remote
	result.Conflicts = mergeConflicts(local, remote.Conflicts)
	// A rejection without a conflict kind still blocks the save.
	result.OK = remote.OK && len(result.Conflicts) == 0
	if result.OK {
		return result, nil
	}

	if field == nil {
		field, _ = NewField(e.kind, "", "", "", "")
	}
	bias := field.bias(baseline, proposed)
	duration, ok := baseline.duration()
	if !ok {
		duration, _ = proposed.duration()
	}
	sreq := gateway.SuggestRequest{
		GroupID:         e.session.GroupID,
		InstructorID:    loc.InstructorID,
		RoomID:          loc.RoomID,
		SectionID:       loc.SectionID,
		MeetingID:       loc.MeetingID,
		PreferredDay:    bias.preferredDay,
		DurationMinutes: duration,
		EditType:        editType(e.kind),
		OriginalDay:     baseline.Day,
	}
	raw, err := gw.SuggestAlternatives(ctx, sreq)
	if err != nil {
		e.log.Warn("suggestions unavailable", zap.Error(err))
		return result, nil
	}
	return result, shapeSuggestions(bias, proposed, raw)
}

func (e *Editor) onTransportFailure(step string, err error, local []internal.ConflictKind) internal.ConflictResult {
	e.log.Warn("conflict check degraded", zap.String("step", step), zap.String("policy", e.session.opts.Policy), zap.Error(err))
	res := internal.ConflictResult{Degraded: true, Message: degradedMessage}
	if e.session.opts.Policy == config.PolicyStrict {
		res.Conflicts = mergeConflicts(local, []internal.ConflictKind{internal.ConflictUnverified})
	} else {
		res.Conflicts = mergeConflicts(local)
	}
	res.OK = len(res.Conflicts) == 0
	return res
}

func (e *Editor) locator(m Meeting) gateway.Locator {
	return gateway.Locator{
		GroupID:        e.session.GroupID,
		SubjectCode:    e.entry.SubjectCode,
		InstructorName: e.entry.InstructorName,
		SectionCode:    e.entry.SectionCode,
		Day:            m.Day,
		StartTime:      m.Start,
		EndTime:        m.End,
	}
}

// Save commits a conflict-free edit. On failure the displayed value goes
// back to the baseline and the error wraps ErrCommitFailed.
func (e *Editor) Save(ctx context.Context) (Outcome, error) {
	e.mu.Lock()
	if !e.live {
		e.mu.Unlock()
		return Outcome{}, ErrEditorClosed
	}
	if e.state != Clear || e.checking {
		e.mu.Unlock()
		return Outcome{}, ErrNotClear
	}
	baseline, proposed := e.baseline, e.proposed
	if proposed.Equal(baseline) {
		e.state = Idle
		out := e.outcomeLocked()
		e.mu.Unlock()
		return out, nil
	}
	e.state = Committing
	req := gateway.UpdateRequest{
		GroupID:        e.session.GroupID,
		SubjectCode:    e.entry.SubjectCode,
		InstructorName: e.entry.InstructorName,
		SectionCode:    e.entry.SectionCode,
		OrigDay:        baseline.Day,
		OrigStart:      baseline.Start,
		OrigEnd:        baseline.End,
		NewDay:         proposed.Day,
		NewStart:       proposed.Start,
		NewEnd:         proposed.End,
	}
	if proposed.Room != baseline.Room {
		req.NewRoomName = proposed.Room
	}
	e.mu.Unlock()

	res, err := e.session.gw.UpdateByLocator(ctx, req)
	if err == nil && !res.OK {
		err = errors.New(util.FirstNonEmpty(res.Message, "update rejected"))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.session.display(e.index, baseline)
		e.proposed = baseline
		e.state = Idle
		e.result = internal.ConflictResult{OK: true}
		e.suggestions = nil
		e.journal(baseline, proposed, "failed", err.Error())
		e.log.Warn("commit failed", zap.Error(err))
		return e.outcomeLocked(), fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}

	e.session.rebase(e.index, proposed)
	e.baseline = proposed
	e.entry = proposed.applyTo(e.entry)
	e.state = Idle
	e.suggestions = nil
	e.journal(baseline, proposed, "committed", res.Message)
	e.log.Info("edit committed", zap.String("day", proposed.Day), zap.String("start", proposed.Start), zap.String("end", proposed.End), zap.String("room", proposed.Room))
	return e.outcomeLocked(), nil
}

func (e *Editor) journal(from, to Meeting, status, message string) {
	j := e.session.opts.Journal
	if j == nil {
		return
	}
	err := j.AppendEdit(internal.EditJournalEntry{
		GroupID:        e.session.GroupID,
		SubjectCode:    e.entry.SubjectCode,
		InstructorName: e.entry.InstructorName,
		SectionCode:    e.entry.SectionCode,
		Field:          string(e.kind),
		OrigDay:        from.Day,
		OrigStart:      from.Start,
		OrigEnd:        from.End,
		OrigRoom:       from.Room,
		NewDay:         to.Day,
		NewStart:       to.Start,
		NewEnd:         to.End,
		NewRoom:        to.Room,
		Status:         status,
		Message:        message,
	})
	if err != nil {
		e.log.Error("edit journal append failed", zap.Error(err))
	}
}

// Cancel abandons the pending edit and restores the displayed value but
// keeps the editor open. A check still in flight is superseded: its
// response yields ErrStaleResponse and a new Propose may start at once.
func (e *Editor) Cancel() (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.live {
		return Outcome{}, ErrEditorClosed
	}
	if e.state == Committing {
		return Outcome{}, ErrNotEditing
	}
	e.token++
	e.checking = false
	e.session.display(e.index, e.baseline)
	e.proposed = e.baseline
	e.field = nil
	e.roomID = nil
	e.state = Editing
	e.result = internal.ConflictResult{OK: true}
	e.suggestions = nil
	return e.outcomeLocked(), nil
}

// Close cancels any uncommitted edit, restores the displayed value and
// releases the editor. A response still in flight is discarded when it
// arrives. Close is idempotent.
func (e *Editor) Close() {
	e.mu.Lock()
	if !e.live {
		e.mu.Unlock()
		return
	}
	e.live = false
	e.token++
	if e.state != Committing {
		e.session.display(e.index, e.baseline)
		e.proposed = e.baseline
	}
	e.state = Idle
	e.suggestions = nil
	e.mu.Unlock()

	e.session.release(e)
}

func (e *Editor) Live() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.live
}

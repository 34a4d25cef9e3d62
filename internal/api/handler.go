package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classload/internal"
	"classload/internal/editor"
	"classload/internal/gateway"
	"classload/internal/pipeline"
	"classload/internal/schedule"
)

const maxUploadBytes = 20 << 20

// Scheduler is the scheduling service as seen by the HTTP surface.
type Scheduler interface {
	editor.Gateway
	GenerateSchedule(ctx context.Context, req gateway.GenerateRequest) (gateway.GenerateResult, error)
}

type Handler struct {
	scheduler Scheduler
	opts      editor.Options
	reg       *registry
	log       *zap.Logger
}

func NewHandler(scheduler Scheduler, opts editor.Options, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Log == nil {
		opts.Log = log
	}
	return &Handler{scheduler: scheduler, opts: opts, reg: newRegistry(), log: log}
}

func (h *Handler) Health(c *gin.Context) {
	OK(c, gin.H{"status": "ok"})
}

// Ingest parses an uploaded load sheet.
func (h *Handler) Ingest(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "multipart field \"file\" is required")
		return
	}
	if fh.Size > maxUploadBytes {
		BadRequest(c, "file too large")
		return
	}
	f, err := fh.Open()
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	defer f.Close()
	blob, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	result, err := pipeline.ParseUpload(fh.Filename, blob)
	if err != nil {
		if errors.Is(err, pipeline.ErrUnsupportedFormat) || errors.Is(err, pipeline.ErrNoRows) {
			BadRequest(c, err.Error())
			return
		}
		_ = c.Error(err)
		Error(c, http.StatusUnprocessableEntity, codeBadRequest, err.Error())
		return
	}
	OK(c, result)
}

type generateRequest struct {
	Offerings         []internal.CourseOffering `json:"offerings" binding:"required,min=1"`
	Semester          string                    `json:"semester"`
	SchoolYear        string                    `json:"schoolYear"`
	FilterPreferences map[string]any            `json:"filterPreferences"`
}

type sessionResponse struct {
	SessionID  string             `json:"sessionId"`
	GroupID    string             `json:"groupId"`
	Semester   string             `json:"semester"`
	SchoolYear string             `json:"schoolYear"`
	Entries    int                `json:"entries"`
	Sections   []schedule.Section `json:"sections"`
}

// Generate sends offerings to the generator and opens an edit session on
// the result.
func (h *Handler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	res, err := h.scheduler.GenerateSchedule(c.Request.Context(), gateway.GenerateRequest{
		InstructorData:    pipeline.ToGenerationOfferings(req.Offerings),
		Semester:          req.Semester,
		SchoolYear:        req.SchoolYear,
		FilterPreferences: req.FilterPreferences,
	})
	if err != nil {
		_ = c.Error(err)
		Error(c, http.StatusBadGateway, codeUnavailable, err.Error())
		return
	}

	s := editor.NewSession(res.GroupID, res.Data, h.scheduler, h.opts)
	s.Semester, s.SchoolYear = req.Semester, req.SchoolYear
	h.reg.addSession(s)
	h.log.Info("schedule generated", zap.String("session", s.ID), zap.String("group", res.GroupID), zap.Int("entries", len(res.Data)))

	Created(c, sessionResponse{
		SessionID:  s.ID,
		GroupID:    s.GroupID,
		Semester:   s.Semester,
		SchoolYear: s.SchoolYear,
		Entries:    len(res.Data),
		Sections:   schedule.Sections(res.Data),
	})
}

func (h *Handler) lookupSession(c *gin.Context) (*editor.Session, bool) {
	s, ok := h.reg.session(c.Param("id"))
	if !ok {
		NotFound(c, "session not found")
	}
	return s, ok
}

func (h *Handler) Sections(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}
	OK(c, schedule.Sections(s.Entries()))
}

func (h *Handler) Changes(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}
	changes := s.Changes()
	if changes == nil {
		changes = []editor.Change{}
	}
	OK(c, changes)
}

// DeleteSession drops a session and closes its editors. Uncommitted edits
// are discarded.
func (h *Handler) DeleteSession(c *gin.Context) {
	s, ok := h.reg.removeSession(c.Param("id"))
	if !ok {
		NotFound(c, "session not found")
		return
	}
	open := s.OpenEditors()
	s.Close()
	h.log.Info("session closed", zap.String("session", s.ID), zap.Int("editors", open))
	OK(c, gin.H{"sessionId": s.ID, "closedEditors": open})
}

type openEditorRequest struct {
	Index *int             `json:"index" binding:"required"`
	Field editor.FieldKind `json:"field" binding:"required"`
}

func (h *Handler) OpenEditor(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}
	var req openEditorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	ed, err := s.Open(*req.Index, req.Field)
	if err != nil {
		h.editorError(c, err, nil)
		return
	}
	h.reg.addEditor(ed)
	Created(c, ed.Outcome())
}

func (h *Handler) lookupEditor(c *gin.Context) (*editor.Editor, bool) {
	ed, ok := h.reg.editor(c.Param("id"))
	if !ok {
		NotFound(c, "editor not found")
	}
	return ed, ok
}

type proposeRequest struct {
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	RoomName  string `json:"roomName"`
}

func (h *Handler) Propose(c *gin.Context) {
	ed, ok := h.lookupEditor(c)
	if !ok {
		return
	}
	var req proposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	field, err := editor.NewField(ed.Kind(), req.Day, req.StartTime, req.EndTime, req.RoomName)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	out, err := ed.Propose(c.Request.Context(), field)
	if err != nil {
		h.editorError(c, err, nil)
		return
	}
	OK(c, out)
}

func (h *Handler) ApplySuggestion(c *gin.Context) {
	ed, ok := h.lookupEditor(c)
	if !ok {
		return
	}
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		BadRequest(c, "suggestion index must be a number")
		return
	}
	out, err := ed.ApplySuggestion(c.Request.Context(), idx)
	if err != nil {
		h.editorError(c, err, nil)
		return
	}
	OK(c, out)
}

func (h *Handler) Save(c *gin.Context) {
	ed, ok := h.lookupEditor(c)
	if !ok {
		return
	}
	out, err := ed.Save(c.Request.Context())
	if err != nil {
		h.editorError(c, err, &out)
		return
	}
	OK(c, out)
}

func (h *Handler) CancelEditor(c *gin.Context) {
	ed, ok := h.lookupEditor(c)
	if !ok {
		return
	}
	out, err := ed.Cancel()
	if err != nil {
		h.editorError(c, err, nil)
		return
	}
	OK(c, out)
}

func (h *Handler) CloseEditor(c *gin.Context) {
	ed, ok := h.reg.removeEditor(c.Param("id"))
	if !ok {
		NotFound(c, "editor not found")
		return
	}
	ed.Close()
	OK(c, ed.Outcome())
}

func (h *Handler) editorError(c *gin.Context, err error, out *editor.Outcome) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, editor.ErrInvalidField), errors.Is(err, editor.ErrWrongField):
		BadRequest(c, err.Error())
	case errors.Is(err, editor.ErrNoSuchEntry), errors.Is(err, editor.ErrNoSuggestion):
		NotFound(c, err.Error())
	case errors.Is(err, editor.ErrCheckInProgress),
		errors.Is(err, editor.ErrNotClear),
		errors.Is(err, editor.ErrNotEditing),
		errors.Is(err, editor.ErrStaleResponse):
		Error(c, http.StatusConflict, codeConflict, err.Error())
	case errors.Is(err, editor.ErrEditorClosed):
		Error(c, http.StatusGone, codeNotFound, err.Error())
	case errors.Is(err, editor.ErrCommitFailed):
		if out != nil {
			ErrorWithData(c, http.StatusBadGateway, codeUnavailable, err.Error(), out)
			return
		}
		Error(c, http.StatusBadGateway, codeUnavailable, err.Error())
	default:
		Error(c, http.StatusInternalServerError, codeInternal, "internal error")
	}
}

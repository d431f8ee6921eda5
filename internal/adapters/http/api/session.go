package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	service "github.com/okian/paddock/internal/app"
	"github.com/okian/paddock/pkg/logger"
)

// SourceHeader carries the advisory file name of an uploaded payload.
const SourceHeader = "X-Source-Filename"

// SessionHandler handles event set uploads and session requests.
type SessionHandler struct {
	session Session
	maxBody int64
	logger  logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(session Session, opts ...Option) *SessionHandler {
	h := &SessionHandler{
		session: session,
		maxBody: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("api")
	}
	return h
}

type selectRequest struct {
	Index *int `json:"index"`
}

type biasRequest struct {
	Bias string `json:"bias"`
}

// HandlePostEventSet handles POST /eventsets. The body is the raw payload
// text as produced upstream, fences and prose included.
func (h *SessionHandler) HandlePostEventSet(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_eventset"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	raw, err := h.readBody(w, r)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	source := strings.TrimSpace(r.Header.Get(SourceHeader))
	if source == "" {
		source = "upload"
	}
	snap, err := h.session.Load(r.Context(), raw, source)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// HandleGetSession handles GET /session.
func (h *SessionHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// HandleSelect handles POST /session/select.
func (h *SessionHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	const op = "api.select"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req selectRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Index == nil {
		h.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("missing index")))
		return
	}
	snap, err := h.session.Select(r.Context(), *req.Index)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleBias handles POST /session/bias.
func (h *SessionHandler) HandleBias(w http.ResponseWriter, r *http.Request) {
	const op = "api.bias"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req biasRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	snap, err := h.session.SetBias(r.Context(), req.Bias)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleAnalyze handles POST /session/analyze. An empty body analyzes the
// current event without overrides.
func (h *SessionHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyze"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req service.AnalyzeRequest
	if err := h.decode(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.session.Analyze(r.Context(), req)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleAttach handles POST /session/result. The body is analysis text
// produced elsewhere; it becomes the current event's result.
func (h *SessionHandler) HandleAttach(w http.ResponseWriter, r *http.Request) {
	const op = "api.attach"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	text, err := h.readBody(w, r)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	res, err := h.session.Attach(r.Context(), text)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *SessionHandler) readBody(w http.ResponseWriter, r *http.Request) (string, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", NewKind("read body", ErrPayloadTooLarge)
		}
		return "", WrapKind("read body", ErrBadRequest, err)
	}
	if strings.TrimSpace(string(body)) == "" {
		return "", WrapKind("read body", ErrBadRequest, errors.New("empty body"))
	}
	return string(body), nil
}

func (h *SessionHandler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (h *SessionHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err),
		)
	} else {
		h.logger.Debug(r.Context(), "request rejected",
			logger.String("path", r.URL.Path),
			logger.String("code", code),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}

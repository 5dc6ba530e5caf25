package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/s/trainingHub/internal/auth"
	"github.com/s/trainingHub/internal/automation"
	"github.com/s/trainingHub/internal/onboarding"
	"github.com/s/trainingHub/internal/querycache"
	"github.com/s/trainingHub/internal/scope"
	"github.com/s/trainingHub/internal/storage"
	"github.com/s/trainingHub/internal/training"
	"github.com/s/trainingHub/internal/validation"
)

// MsgUnavailable is shown for every store failure.
const MsgUnavailable = "Unable to connect. Please try again."

type Handler struct {
	DB     *gorm.DB
	Store  sessions.Store
	Config *oauth2.Config // nil when Google sign-in is off
	Log    zerolog.Logger

	Auth       *auth.Manager
	Training   *training.Service
	Onboarding *onboarding.Service
	Automation *automation.Service
}

type Options struct {
	RoleCheckTimeout time.Duration
	SchedulingLinks  map[int]string
}

func NewHandler(db *gorm.DB, store sessions.Store, config *oauth2.Config, opts Options, log zerolog.Logger) *Handler {
	qc := querycache.New(querycache.DefaultStale, querycache.DefaultGC)

	return &Handler{
		DB:         db,
		Store:      store,
		Config:     config,
		Log:        log,
		Auth:       auth.NewManager(db, store, auth.Options{RoleCheckTimeout: opts.RoleCheckTimeout}, log),
		Training:   training.NewService(db, qc, log),
		Onboarding: onboarding.NewService(db, qc, opts.SchedulingLinks, log),
		Automation: automation.NewService(db, log),
	}
}

// Header is the page heading shown above a top-level screen.
type Header struct {
	Icon     string `json:"icon"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

var headers = map[string]Header{
	"/training":   {Icon: "BookOpen", Title: "Training", Subtitle: "Browse and complete your training modules."},
	"/report":     {Icon: "BarChart2", Title: "Report", Subtitle: "Track your team's training progress."},
	"/automation": {Icon: "Zap", Title: "Automation Planner", Subtitle: "Plan and manage your automation workflows."},
	"/admin":      {Icon: "Shield", Title: "Admin Panel", Subtitle: "Manage training content and users."},
}

// HeaderFor returns the header of the top-level route containing path.
func HeaderFor(path string) Header {
	for prefix, h := range headers {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return h
		}
	}
	return Header{}
}

// Session returns the auth session resolved for r.
func (h *Handler) Session(r *http.Request) auth.Session {
	return auth.FromContext(r.Context())
}

// LocationID returns the location r is scoped to.
func (h *Handler) LocationID(r *http.Request) string {
	return scope.LocationID(r.Context())
}

// Actor is the board actor of r.
func (h *Handler) Actor(r *http.Request) automation.Actor {
	return automation.Actor{LocationID: h.LocationID(r), IsAdmin: h.Session(r).IsAdmin}
}

// LogActivity records an action of the signed-in user. Failures are logged
// and otherwise ignored.
func (h *Handler) LogActivity(r *http.Request, action string, details map[string]interface{}) {
	userID := h.Session(r).UserID()
	if err := storage.LogActivity(r.Context(), h.DB, userID, h.LocationID(r), action, details); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("action", action).Msg("activity log write failed")
	}
}

func RespondJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func JSONError(w http.ResponseWriter, message string, code int) {
	RespondJSON(w, code, map[string]string{"error": message})
}

// DecodeJSON reads a JSON body into v.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Fail writes err as a JSON error. Store failures are logged and reported
// with the generic connection message.
func (h *Handler) Fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		RespondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "Please check the highlighted fields.",
			"fields": verr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, training.ErrSubjectNotFound),
		errors.Is(err, training.ErrVideoNotFound),
		errors.Is(err, onboarding.ErrStepNotFound),
		errors.Is(err, automation.ErrBoardNotFound),
		errors.Is(err, automation.ErrColumnNotFound),
		errors.Is(err, automation.ErrCardNotFound),
		errors.Is(err, storage.ErrUserNotFound):
		JSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, storage.ErrNotFound):
		JSONError(w, "Not found.", http.StatusNotFound)
	case errors.Is(err, automation.ErrForbidden):
		JSONError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, training.ErrNoLocation),
		errors.Is(err, onboarding.ErrNoLocation),
		errors.Is(err, automation.ErrNoLocation):
		JSONError(w, "Open this page from your location to continue.", http.StatusBadRequest)
	case errors.Is(err, automation.ErrInvalidDrag),
		errors.Is(err, automation.ErrInvalidTarget):
		JSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, onboarding.ErrNothingToCheck):
		JSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, storage.ErrInvalidCredentials):
		JSONError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, storage.ErrRoleExists), errors.Is(err, storage.ErrEmailTaken):
		JSONError(w, err.Error(), http.StatusConflict)
	default:
		hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		JSONError(w, MsgUnavailable, http.StatusServiceUnavailable)
	}
}

// BadJSON answers a body that could not be decoded.
func BadJSON(w http.ResponseWriter) {
	JSONError(w, "Invalid JSON payload", http.StatusBadRequest)
}

// GET /
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	target := "/training"
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// GET /health
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := h.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("health check failed")
		RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusNotFound, map[string]string{
		"screen": "not_found",
		"error":  "Page not found.",
	})
}

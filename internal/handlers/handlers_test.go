package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/s/trainingHub/internal/auth"
	"github.com/s/trainingHub/internal/automation"
	"github.com/s/trainingHub/internal/handlers"
	"github.com/s/trainingHub/internal/models"
	"github.com/s/trainingHub/internal/onboarding"
	"github.com/s/trainingHub/internal/scope"
	"github.com/s/trainingHub/internal/storage"
	"github.com/s/trainingHub/internal/testutil"
	"github.com/s/trainingHub/internal/training"
	"github.com/s/trainingHub/internal/validation"
)

func newHandler(t *testing.T) (*handlers.Handler, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	store := sessions.NewCookieStore([]byte("test-session-key-0123456789abcdef"))
	h := handlers.NewHandler(db, store, nil, handlers.Options{
		RoleCheckTimeout: time.Second,
		SchedulingLinks:  map[int]string{1: "https://calendar.example.com/kickoff"},
	}, testutil.Logger())
	t.Cleanup(h.Auth.Close)
	return h, db
}

// request builds a request that already went through session and
// location resolution.
func request(method, target, body string, s auth.Session, locationID string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	ctx := auth.WithSession(req.Context(), s)
	ctx = scope.WithLocation(ctx, locationID)
	return req.WithContext(ctx)
}

func withCookies(req *http.Request, rec *httptest.ResponseRecorder) *http.Request {
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func admin() auth.Session {
	return auth.Session{User: &models.User{ID: "admin-1", Email: "admin@example.com"}, IsAdmin: true}
}

func TestHandleRootKeepsQuery(t *testing.T) {
	h, _ := newHandler(t)
	rec := httptest.NewRecorder()
	h.HandleRoot(rec, httptest.NewRequest(http.MethodGet, "/?location_id=loc-1", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/training?location_id=loc-1", rec.Header().Get("Location"))
}

func TestHeaderFor(t *testing.T) {
	assert.Equal(t, "Training", handlers.HeaderFor("/training").Title)
	assert.Equal(t, "Training", handlers.HeaderFor("/training/abc").Title)
	assert.Equal(t, "Automation Planner", handlers.HeaderFor("/automation").Title)
	assert.Equal(t, handlers.Header{}, handlers.HeaderFor("/trainingx"))
	assert.Equal(t, handlers.Header{}, handlers.HeaderFor("/unknown"))
}

func TestFailMapsErrors(t *testing.T) {
	h, _ := newHandler(t)

	tests := []struct {
		err     error
		code    int
		message string
	}{
		{validation.Field("title", "is required"), http.StatusBadRequest, "Please check the highlighted fields."},
		{training.ErrSubjectNotFound, http.StatusNotFound, "Subject not found."},
		{fmt.Errorf("load: %w", storage.ErrNotFound), http.StatusNotFound, "Not found."},
		{automation.ErrForbidden, http.StatusForbidden, "This board is view only."},
		{onboarding.ErrNoLocation, http.StatusBadRequest, "Open this page from your location to continue."},
		{storage.ErrRoleExists, http.StatusConflict, "User already has a role"},
		{storage.ErrUserNotFound, http.StatusNotFound, "User not found"},
		{storage.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid login credentials"},
		{errors.New("connection refused"), http.StatusServiceUnavailable, handlers.MsgUnavailable},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.Fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

		assert.Equal(t, tt.code, rec.Code, tt.err.Error())
		assert.Equal(t, tt.message, decode(t, rec)["error"], tt.err.Error())
	}
}

func TestFailValidationListsFields(t *testing.T) {
	h, _ := newHandler(t)
	rec := httptest.NewRecorder()
	h.Fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), validation.Field("video_url", "must be a valid URL"))

	body := decode(t, rec)
	fields, ok := body["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "must be a valid URL", fields["video_url"])
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var dst struct {
		Title string `json:"title"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"x","extra":1}`))
	assert.Error(t, handlers.DecodeJSON(req, &dst))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"x"}`))
	require.NoError(t, handlers.DecodeJSON(req, &dst))
	assert.Equal(t, "x", dst.Title)
}

func TestHandleNotFound(t *testing.T) {
	h, _ := newHandler(t)
	rec := httptest.NewRecorder()
	h.HandleNotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode(t, rec)["screen"])
}

func TestHandleHealth(t *testing.T) {
	h, _ := newHandler(t)
	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

// --- GATE ---

func TestGateStates(t *testing.T) {
	ctx := context.Background()
	h, _ := newHandler(t)
	_, err := h.Onboarding.CreateStep(ctx, onboarding.StepInput{Title: "Welcome"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		session  auth.Session
		location string
		want     string
	}{
		{"loading", auth.Session{Loading: true}, "loc-1", "auth_loading"},
		{"admin without location", admin(), "", "admin_bypass"},
		{"admin with location", admin(), "loc-1", "admin_bypass"},
		{"anonymous without location", auth.Session{}, "", "no_location"},
		{"location with pending steps", auth.Session{}, "loc-1", "onboarding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.GateAPI(rec, request(http.MethodGet, "/api/gate", "", tt.session, tt.location))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, decode(t, rec)["state"])
		})
	}
}

func TestGateScreens(t *testing.T) {
	h, _ := newHandler(t)
	_, err := h.Onboarding.CreateStep(context.Background(), onboarding.StepInput{Title: "Welcome"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.WriteGateScreen(rec, request(http.MethodGet, "/training", "", auth.Session{}, ""), h.GateState(request(http.MethodGet, "/training", "", auth.Session{}, "")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no_location", decode(t, rec)["screen"])

	req := request(http.MethodGet, "/training", "", auth.Session{}, "loc-1")
	rec = httptest.NewRecorder()
	h.WriteGateScreen(rec, req, h.GateState(req))
	body := decode(t, rec)
	assert.Equal(t, "onboarding", body["screen"])
	flow, ok := body["onboarding"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 0, flow["index"])
	assert.EqualValues(t, 1, flow["total"])

	req = request(http.MethodGet, "/training", "", auth.Session{Loading: true}, "loc-1")
	rec = httptest.NewRecorder()
	h.WriteGateScreen(rec, req, h.GateState(req))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

// --- TRAINING ---

func TestTrainingPagesAndMarkWatched(t *testing.T) {
	ctx := context.Background()
	h, _ := newHandler(t)

	subject, err := h.Training.CreateSubject(ctx, training.NewSubject{Title: "Onboarding Basics"})
	require.NoError(t, err)
	video, err := h.Training.CreateVideo(ctx, subject.ID, training.NewVideo{Title: "Intro", VideoURL: "https://v.example.com/1"})
	require.NoError(t, err)

	req := request(http.MethodPost, "/api/videos/"+video.ID+"/watched", "", auth.Session{}, "loc-1")
	req = mux.SetURLVars(req, map[string]string{"id": video.ID})
	rec := httptest.NewRecorder()
	h.MarkWatchedAPI(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decode(t, rec)["changed"])

	req = request(http.MethodGet, "/training/"+subject.ID, "", auth.Session{}, "loc-1")
	req = mux.SetURLVars(req, map[string]string{"subjectId": subject.ID})
	rec = httptest.NewRecorder()
	h.HandleSubjectPage(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	progress := body["subject"].(map[string]interface{})
	assert.EqualValues(t, 100, progress["percent"])

	rec = httptest.NewRecorder()
	h.HandleReportPage(rec, request(http.MethodGet, "/report", "", auth.Session{}, "loc-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Report", decode(t, rec)["header"].(map[string]interface{})["title"])
}

func TestSubjectPageNotFound(t *testing.T) {
	h, _ := newHandler(t)
	req := request(http.MethodGet, "/training/missing", "", auth.Session{}, "loc-1")
	req = mux.SetURLVars(req, map[string]string{"subjectId": "missing"})
	rec := httptest.NewRecorder()
	h.HandleSubjectPage(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Subject not found.", decode(t, rec)["error"])
}

func TestMarkWatchedWithoutLocation(t *testing.T) {
	h, _ := newHandler(t)
	req := request(http.MethodPost, "/api/videos/v1/watched", "", admin(), "")
	req = mux.SetURLVars(req, map[string]string{"id": "v1"})
	rec := httptest.NewRecorder()
	h.MarkWatchedAPI(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- ONBOARDING ---

func TestOnboardingFlowUnlocksApp(t *testing.T) {
	ctx := context.Background()
	h, _ := newHandler(t)
	for _, title := range []string{"Book your kickoff", "Import contacts"} {
		_, err := h.Onboarding.CreateStep(ctx, onboarding.StepInput{Title: title})
		require.NoError(t, err)
	}

	var last *httptest.ResponseRecorder
	call := func(fn http.HandlerFunc, method, path string) map[string]interface{} {
		req := request(method, path, "", auth.Session{}, "loc-1")
		if last != nil {
			req = withCookies(req, last)
		}
		rec := httptest.NewRecorder()
		fn(rec, req)
		if len(rec.Result().Cookies()) > 0 {
			last = rec
		}
		body := decode(t, rec)
		body["_code"] = rec.Code
		return body
	}

	view := call(h.OnboardingAPI, http.MethodGet, "/api/onboarding")
	assert.EqualValues(t, 0, view["index"])
	current := view["current"].(map[string]interface{})
	assert.Equal(t, "https://calendar.example.com/kickoff", current["scheduling_url"])

	view = call(h.OnboardingCheckAPI, http.MethodPost, "/api/onboarding/check")
	assert.Equal(t, true, view["current"].(map[string]interface{})["checked"])

	view = call(h.OnboardingContinueAPI, http.MethodPost, "/api/onboarding/continue")
	assert.EqualValues(t, 1, view["index"])

	res := call(h.OnboardingFinishAPI, http.MethodPost, "/api/onboarding/finish")
	assert.Equal(t, http.StatusConflict, res["_code"])

	view = call(h.OnboardingBackAPI, http.MethodPost, "/api/onboarding/back")
	assert.EqualValues(t, 0, view["index"])
	call(h.OnboardingContinueAPI, http.MethodPost, "/api/onboarding/continue")

	call(h.OnboardingCheckAPI, http.MethodPost, "/api/onboarding/check")
	gateReq := request(http.MethodGet, "/api/gate", "", auth.Session{}, "loc-1")
	assert.Equal(t, "onboarding", h.GateState(gateReq).String(), "gate waits for finish")

	view = call(h.OnboardingContinueAPI, http.MethodPost, "/api/onboarding/continue")
	assert.Equal(t, true, view["finished"])

	res = call(h.OnboardingFinishAPI, http.MethodPost, "/api/onboarding/finish")
	assert.Equal(t, http.StatusOK, res["_code"])
	assert.Equal(t, "app", res["gate"])
	assert.Equal(t, "/training?location_id=loc-1", res["redirect"])
}

func TestOnboardingFinishNeedsEveryStepChecked(t *testing.T) {
	ctx := context.Background()
	h, _ := newHandler(t)
	for _, title := range []string{"Book your kickoff", "Import contacts"} {
		_, err := h.Onboarding.CreateStep(ctx, onboarding.StepInput{Title: title})
		require.NoError(t, err)
	}

	var last *httptest.ResponseRecorder
	call := func(fn http.HandlerFunc, path string) *httptest.ResponseRecorder {
		req := request(http.MethodPost, path, "", auth.Session{}, "loc-1")
		if last != nil {
			req = withCookies(req, last)
		}
		rec := httptest.NewRecorder()
		fn(rec, req)
		if len(rec.Result().Cookies()) > 0 {
			last = rec
		}
		return rec
	}

	call(h.OnboardingContinueAPI, "/api/onboarding/continue")
	rec := call(h.OnboardingContinueAPI, "/api/onboarding/continue")
	assert.Equal(t, true, decode(t, rec)["finished"])

	rec = call(h.OnboardingFinishAPI, "/api/onboarding/finish")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NotContains(t, decode(t, rec), "redirect")

	// The saved position survives the refused finish.
	rec = call(h.OnboardingAPI, "/api/onboarding")
	assert.EqualValues(t, 2, decode(t, rec)["index"])

	gateReq := request(http.MethodGet, "/api/gate", "", auth.Session{}, "loc-1")
	assert.Equal(t, "onboarding", h.GateState(gateReq).String())
}

func TestOnboardingRequiresLocation(t *testing.T) {
	h, _ := newHandler(t)
	rec := httptest.NewRecorder()
	h.OnboardingCheckAPI(rec, request(http.MethodPost, "/api/onboarding/check", "", auth.Session{}, ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- AUTH ---

func TestSignInAPI(t *testing.T) {
	ctx := context.Background()
	h, db := newHandler(t)
	user, err := storage.CreateUser(ctx, db, "admin@example.com", "Admin", "correct horse")
	require.NoError(t, err)
	_, err = storage.GrantRole(ctx, db, user.ID, models.RoleAdmin)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.SignInAPI(rec, request(http.MethodPost, "/api/auth/sign-in", `{"email":"admin@example.com","password":"correct horse"}`, auth.Session{}, ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decode(t, rec)["is_admin"])
	assert.NotEmpty(t, rec.Result().Cookies())

	rec = httptest.NewRecorder()
	h.SignInAPI(rec, request(http.MethodPost, "/api/auth/sign-in", `{"email":"admin@example.com","password":"wrong"}`, auth.Session{}, ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.SignInAPI(rec, request(http.MethodPost, "/api/auth/sign-in", `{"email":"bad","password":""}`, auth.Session{}, ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["fields"], "email")

	rec = httptest.NewRecorder()
	h.SignInAPI(rec, request(http.MethodPost, "/api/auth/sign-in", `not json`, auth.Session{}, ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGoogleRoutesDisabledWithoutConfig(t *testing.T) {
	h, _ := newHandler(t)
	rec := httptest.NewRecorder()
	h.HandleGoogleLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/google/login", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

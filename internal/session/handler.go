package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/davidjes1/fitnesstracker/internal/identity"
	"github.com/davidjes1/fitnesstracker/internal/telemetry/tracing"
	"github.com/davidjes1/fitnesstracker/internal/tracker"
	"github.com/davidjes1/fitnesstracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// TokenHeader carries the sign-in token. A non-standard header, so
// browsers send a preflight OPTIONS request first.
const TokenHeader = "X-TRACKER-TOKEN"

const maxBodyBytes = 1 << 20

type Handler struct {
	manager *Manager
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{
		manager: manager,
	}
}

type signInResponse struct {
	Token string `json:"token"`
	View  View   `json:"view"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type weightRequest struct {
	Weight *float64 `json:"weight"`
}

func (h *Handler) HandleSignInAnonymous(w http.ResponseWriter, r *http.Request) {
	token, view, err := h.manager.SignInAnonymous(r.Context())
	if err != nil {
		log.Errorf("anonymous sign in: %s", err)
		writeError(w, err)
		return
	}
	pkg.WriteJSON(w, signInResponse{Token: token, View: view}, http.StatusCreated)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var creds identity.Credentials
	if !decodeBody(w, r, &creds) {
		return
	}
	if creds.Email == "" || creds.Password == "" {
		http.Error(w, "email and password required", http.StatusBadRequest)
		return
	}

	token, view, err := h.manager.SignInWithCredentials(r.Context(), r.Header.Get(TokenHeader), creds)
	if err != nil {
		log.Warnf("login [%s]: %s", creds.Email, err)
		writeError(w, err)
		return
	}
	pkg.WriteJSONOK(w, signInResponse{Token: token, View: view})
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.SignOut(r.Context(), r.Header.Get(TokenHeader)); err != nil {
		log.Errorf("logout: %s", err)
		writeError(w, err)
		return
	}
	pkg.WriteTextResponseOK(w, "logged-out")
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, signedIn := s.Identity()
	if !signedIn {
		writeError(w, ErrNotSignedIn)
		return
	}
	pkg.WriteJSONOK(w, id)
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	view, err := s.Dashboard()
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.WriteJSONOK(w, view)
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	stats, err := s.Stats()
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.WriteJSONOK(w, stats)
}

func (h *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	progress, err := s.Progress()
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.WriteJSONOK(w, progress)
}

func (h *Handler) HandleListWorkouts(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	history, err := s.History()
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.WriteJSONOK(w, map[string]any{
		"workouts": history,
		"total":    len(history),
	})
}

func (h *Handler) HandleGetWorkout(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := workoutID(w, r)
	if !ok {
		return
	}
	workout, err := s.Workout(id)
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.WriteJSONOK(w, workout)
}

func (h *Handler) HandleAddWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.add")
	defer span.End()

	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	var draft tracker.WorkoutDraft
	if !decodeBody(w, r, &draft) {
		return
	}

	view, err := s.SubmitWorkout(ctx, draft)
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.WriteJSON(w, view, http.StatusCreated)
}

func (h *Handler) HandleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.delete")
	defer span.End()

	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := workoutID(w, r)
	if !ok {
		return
	}

	view, err := s.DeleteWorkout(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.WriteJSONOK(w, view)
}

func (h *Handler) HandleAddWeight(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weights.add")
	defer span.End()

	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	var req weightRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Weight == nil {
		writeError(w, tracker.ErrMissingWeight)
		return
	}

	view, err := s.SubmitWeight(ctx, *req.Weight)
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.WriteJSON(w, view, http.StatusCreated)
}

func (h *Handler) HandleResetData(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	view, err := s.ResetData(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.WriteJSONOK(w, view)
}

func (h *Handler) HandleListTemplates(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSONOK(w, map[string][]string{
		"templates": tracker.TemplateNames(),
	})
}

func (h *Handler) HandleGetTemplate(w http.ResponseWriter, r *http.Request) {
	draft, err := tracker.Template(mux.Vars(r)["name"])
	if err != nil {
		http.Error(w, "template not found", http.StatusNotFound)
		return
	}
	pkg.WriteJSONOK(w, draft)
}

func requireSession(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	s, ok := FromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return nil, false
	}
	return s, true
}

func workoutID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := mux.Vars(r)["id"]
	if idStr == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(target); err != nil {
		log.Debugf("decode request body [%s]: %s", r.URL.Path, err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	var vErr *tracker.ValidationError
	if errors.As(err, &vErr) {
		pkg.WriteJSON(w, errorResponse{Error: vErr.Code, Message: vErr.Message}, http.StatusBadRequest)
		return
	}

	switch {
	case errors.Is(err, identity.ErrWrongCredentials),
		errors.Is(err, identity.ErrSessionNotFound),
		errors.Is(err, identity.ErrSessionExpired),
		errors.Is(err, ErrNotSignedIn):
		http.Error(w, "no can do", http.StatusUnauthorized)
	case errors.Is(err, ErrWorkoutNotFound):
		http.Error(w, "workout not found", http.StatusNotFound)
	case errors.Is(err, ErrCredentialsUnsupported):
		http.Error(w, "credentials not supported", http.StatusBadRequest)
	case errors.Is(err, ErrActionNotPerformed):
		pkg.WriteJSON(w, errorResponse{
			Error:   "action_not_performed",
			Message: "could not save your changes, please try again",
		}, http.StatusServiceUnavailable)
	default:
		var authErr *identity.AuthError
		if errors.As(err, &authErr) {
			http.Error(w, "sign in service unavailable", http.StatusServiceUnavailable)
			return
		}
		log.Errorf("unexpected error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

package stub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/reperto/reperto-cli/api"
	"github.com/reperto/reperto-cli/logging"
)

type contextKey string

const userKey contextKey = "stub.user"

// Handlers serves the Reperto HTTP contract from the in-memory store.
type Handlers struct {
	store *Store
	ai    Analyzer
}

func NewHandlers(store *Store) *Handlers {
	return &Handlers{store: store}
}

// requireAuth resolves the bearer token to a user or rejects with 401.
func (h *Handlers) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondWithError(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		user, ok := h.store.UserForToken(token)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

func currentUser(r *http.Request) api.User {
	user, _ := r.Context().Value(userKey).(api.User)
	return user
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	user, err := h.store.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			respondWithError(w, http.StatusConflict, "Email already registered")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	respondWithJSON(w, http.StatusCreated, api.Token{
		AccessToken: h.store.CreateSession(user.ID),
		TokenType:   "bearer",
		User:        user,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.store.Authenticate(req.Email, req.Password)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	respondWithJSON(w, http.StatusOK, api.Token{
		AccessToken: h.store.CreateSession(user.ID),
		TokenType:   "bearer",
		User:        user,
	})
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, currentUser(r))
}

func (h *Handlers) ListCases(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}
	respondWithJSON(w, http.StatusOK, h.store.Cases(currentUser(r).ID, limit))
}

func (h *Handlers) GetCase(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Case id must be numeric")
		return
	}

	analysis, err := h.store.Case(currentUser(r).ID, id)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Case not found")
		return
	}
	respondWithJSON(w, http.StatusOK, analysis)
}

func (h *Handlers) CreateCase(w http.ResponseWriter, r *http.Request) {
	var req api.CaseCreate
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" || req.PatientID == 0 {
		respondWithError(w, http.StatusBadRequest, "title and patient_id are required")
		return
	}

	cs, err := h.store.CreateCase(currentUser(r).ID, req)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Patient not found")
		return
	}
	respondWithJSON(w, http.StatusCreated, cs)
}

type analyzeRequest struct {
	Text string `json:"text"`
}

func (h *Handlers) AnalyzeCase(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Case id must be numeric")
		return
	}
	var req analyzeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondWithError(w, http.StatusBadRequest, "text is required")
		return
	}

	result := h.ai.ParseText(req.Text)
	analysis, err := h.store.ApplyAnalysis(currentUser(r).ID, id, result, h.ai.RemediesFor(result.Rubrics))
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Case not found")
		return
	}

	logging.Info("Case analyzed", "case_id", id, "rubrics", len(analysis.Rubrics), "risk", analysis.Case.RiskLevel)
	respondWithJSON(w, http.StatusOK, analysis)
}

func (h *Handlers) ParseText(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondWithError(w, http.StatusBadRequest, "text is required")
		return
	}
	respondWithJSON(w, http.StatusOK, h.ai.ParseText(req.Text))
}

func (h *Handlers) SuggestComplaint(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{
		"suggestion": h.ai.SuggestCompletion(req.Text),
	})
}

func (h *Handlers) ListPatients(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.store.Patients(currentUser(r).ID))
}

func (h *Handlers) GetPatient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Patient id must be numeric")
		return
	}

	patient, err := h.store.Patient(currentUser(r).ID, id)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Patient not found")
		return
	}
	respondWithJSON(w, http.StatusOK, patient)
}

func (h *Handlers) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req api.PatientCreate
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondWithError(w, http.StatusBadRequest, "name is required")
		return
	}

	patient, err := h.store.CreatePatient(currentUser(r).ID, req)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to create patient")
		return
	}
	respondWithJSON(w, http.StatusCreated, patient)
}

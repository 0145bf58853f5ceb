package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/BathiyaRanasinghe/safe-zone/internal/core"
	"github.com/BathiyaRanasinghe/safe-zone/internal/db"
	"github.com/BathiyaRanasinghe/safe-zone/internal/metrics"
)

// TempUserID is the placeholder owner id until authentication lands.
// TODO replace with an authentication collaborator feeding IdentityResolver.
const TempUserID = "temp-user-id"

// IdentityResolver yields the caller's user id for a request.
type IdentityResolver func(r *http.Request) string

type Server struct {
	Store    *core.Store
	Identity IdentityResolver
	Limiter  *rate.Limiter // nil disables throttling
}

func NewServer(database *db.DB) *Server {
	return &Server{
		Store:    &core.Store{DB: database},
		Identity: func(*http.Request) string { return TempUserID },
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(instrument)
	r.Use(s.throttle)

	s.mountHealth(r)
	s.mountMetrics(r)
	s.mountDocs(r)

	r.Get("/mibs", s.getMibs)
	r.Post("/mibs", s.createMib)
	r.Put("/mibs", s.putMib)
	r.Delete("/mibs", s.deleteMibs)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

// messageIDFromRequest reads the optional messageId filter from the query
// string, falling back to a JSON body of the form {"messageId": N} when
// allowBody is set (the GET endpoint historically accepts both).
func messageIDFromRequest(r *http.Request, allowBody bool) (*int64, error) {
	if v := r.URL.Query().Get("messageId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, err
		}
		return &id, nil
	}
	if !allowBody {
		return nil, nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		return nil, nil
	}
	var in struct {
		MessageID *int64 `json:"messageId"`
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, nil
	}
	return in.MessageID, nil
}

func (s *Server) getMibs(w http.ResponseWriter, r *http.Request) {
	userID := s.Identity(r)
	messageID, err := messageIDFromRequest(r, true)
	if err != nil {
		writeText(w, http.StatusBadRequest, "messageId must be an integer")
		return
	}

	mibs, err := s.Store.GetMibsForUser(r.Context(), userID, messageID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	status := http.StatusOK
	if messageID != nil && len(mibs) == 0 {
		status = http.StatusNotFound
	}
	writeJSON(w, status, mibs)
}

func (s *Server) createMib(w http.ResponseWriter, r *http.Request) {
	userID := s.Identity(r)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeText(w, http.StatusBadRequest, "Request is not JSON")
		return
	}
	req, rerr := core.ParseCreateRequest(r.Header.Get("Content-Type"), body)
	if rerr != nil {
		metrics.ValidationRejects.WithLabelValues(rerr.Reason).Inc()
		writeText(w, rerr.Status, rerr.Message)
		return
	}

	messageID, err := s.Store.CreateMib(r.Context(), core.CreateParams{
		UserID:   userID,
		Message:  req.Message,
		SendTime: req.SendTime,
		Emails:   req.Recipients.Emails,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	metrics.MibsCreated.Inc()

	w.Header().Set("Location", fmt.Sprintf("/mibs?messageId=%d", messageID))
	writeText(w, http.StatusOK, "MessageInABottle was successfully created")
}

// putMib is a placeholder; edit semantics are not implemented.
func (s *Server) putMib(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"success": "true",
		"message": "Hello from PUT /mibs",
	})
}

func (s *Server) deleteMibs(w http.ResponseWriter, r *http.Request) {
	userID := s.Identity(r)
	messageID, err := messageIDFromRequest(r, false)
	if err != nil {
		writeText(w, http.StatusBadRequest, "messageId must be an integer")
		return
	}

	deleted, err := s.Store.DeleteMibsForUser(r.Context(), userID, messageID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if messageID == nil {
		if deleted {
			metrics.MibsDeleted.WithLabelValues("all", "ok").Inc()
			writeText(w, http.StatusOK, "Successfully deleted all mibs")
			return
		}
		metrics.MibsDeleted.WithLabelValues("all", "not_found").Inc()
		writeText(w, http.StatusNotFound, "Failed to delete all mibs: User does not have any mibs")
		return
	}
	if deleted {
		metrics.MibsDeleted.WithLabelValues("single", "ok").Inc()
		writeText(w, http.StatusOK, fmt.Sprintf("Successfully deleted mib with message id %d", *messageID))
		return
	}
	metrics.MibsDeleted.WithLabelValues("single", "not_found").Inc()
	writeText(w, http.StatusNotFound, fmt.Sprintf("Failed to delete mib with message id %d", *messageID))
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"lesson-progress-engine/internal/app"
	"lesson-progress-engine/internal/domain"
	"lesson-progress-engine/internal/platform/logger"
)

// APIHandler serves the read-only JSON endpoints.
type APIHandler struct {
	service *app.LearningService
	log     *logger.Logger
}

func NewAPIHandler(service *app.LearningService, log *logger.Logger) *APIHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &APIHandler{service: service, log: log}
}

type profileView struct {
	domain.ProfileRecord
	StreakStatus app.StreakStatus `json:"streakStatus"`
}

func newProfileView(ctx context.Context, service *app.LearningService) profileView {
	return profileView{
		ProfileRecord: service.Profile(ctx).Record(),
		StreakStatus:  service.StreakStatus(ctx),
	}
}

// Register mounts the handlers on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/lessons", h.ListLessons)
	mux.HandleFunc("/profile", h.GetProfile)
}

func (h *APIHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.service.Lessons(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrContentNotFound) || errors.Is(err, domain.ErrContentMalformed) {
			status = http.StatusServiceUnavailable
		}
		h.log.Warn("list lessons failed", "error", err)
		writeJSON(w, status, errorPayload{Message: err.Error()})
		return
	}
	summaries := make([]domain.LessonSummary, 0, len(lessons))
	for _, l := range lessons {
		summaries = append(summaries, l.Summary())
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *APIHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newProfileView(r.Context(), h.service))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

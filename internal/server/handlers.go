// internal/server/handlers.go
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"paperless-analytics/internal/common/clock"
	apperrors "paperless-analytics/internal/common/errors"
	"paperless-analytics/internal/common/logger"
	"paperless-analytics/internal/common/validation"
	"paperless-analytics/internal/models"
)

var createVisitSchema = map[string]interface{}{
	"type":     "object",
	"required": []string{"branchId", "accountNumber", "serviceId"},
	"properties": map[string]interface{}{
		"branchId":      map[string]interface{}{"type": "string", "minLength": 1},
		"channel":       map[string]interface{}{"type": "string", "enum": []string{"branch", "mobile", "qr"}},
		"accountNumber": map[string]interface{}{"type": "string", "minLength": 1},
		"serviceId":     map[string]interface{}{"type": "string", "minLength": 1},
		"categoryId":    map[string]interface{}{"type": "string"},
	},
}

type handlers struct {
	stats   StatisticsReader
	trigger JobTrigger
	issuer  NumberIssuer
	visits  VisitWriter
	clock   clock.Clock
	logger  logger.Logger
}

func statsQueryFromRequest(r *http.Request) models.StatsQuery {
	q := r.URL.Query()
	return models.StatsQuery{
		TimeRange: q.Get("timeRange"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
		District:  q.Get("district"),
		BranchID:  q.Get("branchId"),
	}
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createVisitRequest struct {
	BranchID      string `json:"branchId"`
	Channel       string `json:"channel"`
	AccountNumber string `json:"accountNumber"`
	ServiceID     string `json:"serviceId"`
	CategoryID    string `json:"categoryId"`
}

type createVisitResponse struct {
	ID          string `json:"id"`
	QueueNumber int64  `json:"queueNumber"`
	BranchID    string `json:"branchId"`
	Channel     string `json:"channel"`
	CreatedAt   string `json:"createdAt"`
}

// createVisit issues a queue number and records the visit event. The number
// comes from the atomic counter, so concurrent requests never collide.
func (h *handlers) createVisit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if result := validation.Validate(raw, createVisitSchema); !result.Valid {
		writeJSON(w, http.StatusBadRequest, result)
		return
	}

	var req createVisitRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	channel := models.Channel(req.Channel)
	number, err := h.issuer.Next(r.Context(), req.BranchID, channel)
	if err != nil {
		h.writeError(w, err)
		return
	}

	event := models.VisitEvent{
		ID:            uuid.NewString(),
		BranchID:      req.BranchID,
		Channel:       channel,
		AccountNumber: req.AccountNumber,
		ServiceID:     req.ServiceID,
		CategoryID:    req.CategoryID,
		QueueNumber:   number,
		CreatedAt:     h.clock.Now().UTC(),
	}
	if err := h.visits.InsertVisit(r.Context(), event); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createVisitResponse{
		ID:          event.ID,
		QueueNumber: event.QueueNumber,
		BranchID:    event.BranchID,
		Channel:     string(event.Channel),
		CreatedAt:   event.CreatedAt.Format(time.RFC3339),
	})
}

func (h *handlers) generalStats(w http.ResponseWriter, r *http.Request) {
	resp, err := h.stats.GeneralStats(r.Context(), statsQueryFromRequest(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) transactionsOverTime(w http.ResponseWriter, r *http.Request) {
	resp, err := h.stats.TransactionsOverTime(r.Context(), statsQueryFromRequest(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) mostUsedServices(w http.ResponseWriter, r *http.Request) {
	resp, err := h.stats.MostUsedServices(r.Context(), statsQueryFromRequest(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) bestPerformingBranch(w http.ResponseWriter, r *http.Request) {
	resp, err := h.stats.BestPerformingBranch(r.Context(), statsQueryFromRequest(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) bestPerformingBranches(w http.ResponseWriter, r *http.Request) {
	resp, err := h.stats.BestPerformingBranches(r.Context(), statsQueryFromRequest(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) customerEngagement(w http.ResponseWriter, r *http.Request) {
	resp, err := h.stats.CustomerEngagementScore(r.Context(), statsQueryFromRequest(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) branchInsights(w http.ResponseWriter, r *http.Request) {
	resp, err := h.stats.BranchInsights(r.Context(), r.URL.Query().Get("district"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) branchDetail(w http.ResponseWriter, r *http.Request) {
	branchID := chi.URLParam(r, "branchId")
	resp, err := h.stats.BranchDetail(r.Context(), branchID, statsQueryFromRequest(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) customerStats(w http.ResponseWriter, r *http.Request) {
	resp, err := h.stats.CustomerStats(r.Context(), statsQueryFromRequest(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type triggerRequest struct {
	Type string `json:"type"`
	Date string `json:"date"`
}

// triggerAggregation runs one job synchronously for administrative use.
func (h *handlers) triggerAggregation(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.trigger.Trigger(r.Context(), req.Type, req.Date); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed", "type": req.Type})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps StandardError codes to HTTP statuses; anything else is a 500.
func (h *handlers) writeError(w http.ResponseWriter, err error) {
	var se *apperrors.StandardError
	if errors.As(err, &se) {
		status := http.StatusInternalServerError
		switch se.Code {
		case apperrors.ErrCodeInvalidChannel, apperrors.ErrCodeInvalidDate, apperrors.ErrCodeInvalidAggregationType:
			status = http.StatusBadRequest
		case apperrors.ErrCodeJobLocked:
			status = http.StatusConflict
		case apperrors.ErrCodeCounterConflict, apperrors.ErrCodeCounterUnavailable, apperrors.ErrCodeStoreUnavailable:
			status = http.StatusServiceUnavailable
		}
		if status >= 500 {
			h.logger.Error("request failed", map[string]interface{}{"code": se.Code, "error": err})
		}
		writeJSON(w, status, se)
		return
	}

	h.logger.Error("request failed", map[string]interface{}{"error": err})
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

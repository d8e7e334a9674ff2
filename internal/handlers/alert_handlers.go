package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"storm-platform/internal/models"
	"storm-platform/internal/repository"
	"storm-platform/internal/services"
	"storm-platform/pkg/logging"
	"storm-platform/pkg/metrics"
)

// AlertHandler handles alert and verification API endpoints
type AlertHandler struct {
	alertService        *services.AlertService
	verificationService *services.VerificationService
	logger              *logging.StructuredLogger
	metrics             *metrics.Collector
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(
	alertService *services.AlertService,
	verificationService *services.VerificationService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *AlertHandler {
	return &AlertHandler{
		alertService:        alertService,
		verificationService: verificationService,
		logger:              logger,
		metrics:             metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// ListAlerts handles GET /api/alerts
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/alerts").Observe(duration.Seconds())
	}()

	// Parse query parameters
	event := r.URL.Query().Get("event")
	verifiedStr := r.URL.Query().Get("verified")
	matchMethod := r.URL.Query().Get("match_method")
	startDateStr := r.URL.Query().Get("start_date")
	endDateStr := r.URL.Query().Get("end_date")

	page, limit := parsePagination(r)
	offset := (page - 1) * limit

	filter := repository.AlertFilter{
		Limit:  limit,
		Offset: offset,
	}

	if event != "" {
		filter.Event = &event
	}

	if verifiedStr != "" {
		verified, err := strconv.ParseBool(verifiedStr)
		if err != nil {
			h.sendError(w, r, "invalid verified value, expected true or false", http.StatusBadRequest)
			return
		}
		filter.Verified = &verified
	}

	if matchMethod != "" {
		if !models.MatchMethod(matchMethod).Valid() {
			h.sendError(w, r, "invalid match_method, expected fips, latlon, or none", http.StatusBadRequest)
			return
		}
		filter.MatchMethod = &matchMethod
	}

	if startDateStr != "" {
		startDate, err := time.Parse("2006-01-02", startDateStr)
		if err != nil {
			h.sendError(w, r, "invalid start_date format, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.StartDate = &startDate
	}

	if endDateStr != "" {
		endDate, err := time.Parse("2006-01-02", endDateStr)
		if err != nil {
			h.sendError(w, r, "invalid end_date format, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.EndDate = &endDate
	}

	alerts, total, err := h.alertService.ListAlerts(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_LIST_ALERTS_ERROR] Failed to list alerts", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/alerts")
		h.sendError(w, r, "failed to retrieve alerts", http.StatusInternalServerError)
		return
	}

	totalPages := (total + limit - 1) / limit

	response := PaginatedResponse{
		Data:       alerts,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}

	h.metrics.RecordAPIRequest("/api/alerts", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetAlert handles GET /api/alerts/{id}
func (h *AlertHandler) GetAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/alerts/{id}").Observe(duration.Seconds())
	}()

	id := mux.Vars(r)["id"]

	alert, err := h.alertService.GetAlert(ctx, id)
	if err != nil {
		var notFound *repository.NotFoundError
		if errors.As(err, &notFound) {
			h.sendError(w, r, "alert not found", http.StatusNotFound)
			return
		}

		h.logger.Error(ctx, "[API_GET_ALERT_ERROR] Failed to get alert", logging.Fields{
			"alert_id": id,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/alerts/{id}")
		h.sendError(w, r, "failed to retrieve alert", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/alerts/{id}", "GET", "200")
	h.sendJSON(w, alert, http.StatusOK)
}

// VerifyAlert handles POST /api/alerts/{id}/verify, the manual single-alert
// verification path
func (h *AlertHandler) VerifyAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/alerts/{id}/verify").Observe(duration.Seconds())
	}()

	id := mux.Vars(r)["id"]

	alert, err := h.verificationService.VerifyAlert(ctx, id)
	if err != nil {
		var notFound *repository.NotFoundError
		switch {
		case errors.As(err, &notFound):
			h.sendError(w, r, "alert not found", http.StatusNotFound)
		case errors.Is(err, services.ErrIneligibleEvent):
			h.sendError(w, r, "alert event type is not eligible for verification", http.StatusUnprocessableEntity)
		default:
			h.logger.Error(ctx, "[API_VERIFY_ALERT_ERROR] Failed to verify alert", logging.Fields{
				"alert_id": id,
			}, err)
			h.metrics.RecordAPIError("internal_error", "/api/alerts/{id}/verify")
			h.sendError(w, r, "failed to verify alert", http.StatusInternalServerError)
		}
		return
	}

	h.metrics.RecordAPIRequest("/api/alerts/{id}/verify", "POST", "200")
	h.sendJSON(w, alert, http.StatusOK)
}

// RunVerification handles POST /api/verification/run, triggering an
// on-demand batch run
func (h *AlertHandler) RunVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/verification/run").Observe(duration.Seconds())
	}()

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			h.sendError(w, r, "invalid limit, expected positive integer", http.StatusBadRequest)
			return
		}
		limit = l
	}

	result, err := h.verificationService.RunBatch(ctx, limit)
	if err != nil {
		if errors.Is(err, services.ErrBatchInProgress) {
			h.sendError(w, r, "a verification run is already in progress", http.StatusConflict)
			return
		}

		h.logger.Error(ctx, "[API_RUN_VERIFICATION_ERROR] Verification run failed", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/verification/run")
		h.sendError(w, r, "verification run failed", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/verification/run", "POST", "200")
	h.sendJSON(w, result, http.StatusOK)
}

// ListReports handles GET /api/reports
func (h *AlertHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/reports").Observe(duration.Seconds())
	}()

	reportType := r.URL.Query().Get("report_type")
	state := r.URL.Query().Get("state")
	startDateStr := r.URL.Query().Get("start_date")
	endDateStr := r.URL.Query().Get("end_date")

	page, limit := parsePagination(r)
	offset := (page - 1) * limit

	filter := repository.ReportFilter{
		Limit:  limit,
		Offset: offset,
	}

	if reportType != "" {
		if !models.ReportType(reportType).Valid() {
			h.sendError(w, r, "invalid report_type, expected tornado, wind, or hail", http.StatusBadRequest)
			return
		}
		filter.ReportType = &reportType
	}

	if state != "" {
		filter.State = &state
	}

	if startDateStr != "" {
		startDate, err := time.Parse("2006-01-02", startDateStr)
		if err != nil {
			h.sendError(w, r, "invalid start_date format, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.StartDate = &startDate
	}

	if endDateStr != "" {
		endDate, err := time.Parse("2006-01-02", endDateStr)
		if err != nil {
			h.sendError(w, r, "invalid end_date format, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.EndDate = &endDate
	}

	reports, total, err := h.alertService.ListReports(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_LIST_REPORTS_ERROR] Failed to list reports", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/reports")
		h.sendError(w, r, "failed to retrieve reports", http.StatusInternalServerError)
		return
	}

	totalPages := (total + limit - 1) / limit

	response := PaginatedResponse{
		Data:       reports,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}

	h.metrics.RecordAPIRequest("/api/reports", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *AlertHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.alertService.HealthCheck(ctx); err != nil {
		h.logger.Error(ctx, "[HEALTH_CHECK_ERROR] Store health check failed", logging.Fields{}, err)
		h.sendJSON(w, map[string]string{
			"status":    "unhealthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}, http.StatusServiceUnavailable)
		return
	}

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// parsePagination reads page/limit query parameters with defaults
func parsePagination(r *http.Request) (page, limit int) {
	page = 1
	limit = 100

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	return page, limit
}

// sendJSON sends a JSON response
func (h *AlertHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *AlertHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all alert API routes
func (h *AlertHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/alerts", h.ListAlerts).Methods("GET")
	router.HandleFunc("/api/alerts/{id}", h.GetAlert).Methods("GET")
	router.HandleFunc("/api/alerts/{id}/verify", h.VerifyAlert).Methods("POST")
	router.HandleFunc("/api/verification/run", h.RunVerification).Methods("POST")
	router.HandleFunc("/api/reports", h.ListReports).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}

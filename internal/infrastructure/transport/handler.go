package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fieldservice/app/usecase"
	"fieldservice/internal/domain/entity"
	"fieldservice/internal/domain/repository"
	"fieldservice/internal/workflow"
)

type FieldServiceHandler struct {
	jobService      usecase.JobUsecase
	workflowService usecase.WorkflowUsecase
	analytics       usecase.AnalyticsUsecase
	feed            *StatusFeed
	logger          *slog.Logger

	reqDuration *prometheus.HistogramVec
	reqCount    *prometheus.CounterVec
	errCount    *prometheus.CounterVec
}

func NewFieldServiceHandler(
	jobService usecase.JobUsecase,
	workflowService usecase.WorkflowUsecase,
	analytics usecase.AnalyticsUsecase,
	feed *StatusFeed,
	logger *slog.Logger,
) *FieldServiceHandler {

	reqDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	reqCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "path"},
	)

	errCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of HTTP request errors.",
		},
		[]string{"method", "path", "status"},
	)

	prometheus.MustRegister(reqDuration, reqCount, errCount)

	return &FieldServiceHandler{
		jobService:      jobService,
		workflowService: workflowService,
		analytics:       analytics,
		feed:            feed,
		logger:          logger,
		reqDuration:     reqDuration,
		reqCount:        reqCount,
		errCount:        errCount,
	}
}

func (h *FieldServiceHandler) withMetrics(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := r.URL.Path
		method := r.Method

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rw, r)

		duration := time.Since(start).Seconds()
		statusStr := strconv.Itoa(rw.status)

		h.reqCount.WithLabelValues(method, path).Inc()
		h.reqDuration.WithLabelValues(method, path, statusStr).Observe(duration)

		if rw.status >= 400 {
			h.errCount.WithLabelValues(method, path, statusStr).Inc()
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (h *FieldServiceHandler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/jobs", h.withMetrics(h.handleCreateJob)).Methods(http.MethodPost)
	api.HandleFunc("/jobs", h.withMetrics(h.handleListJobs)).Methods(http.MethodGet)
	api.HandleFunc("/jobs/summary", h.withMetrics(h.handleStatusSummary)).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}", h.withMetrics(h.handleGetJob)).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}/assign", h.withMetrics(h.handleAssignJob)).Methods(http.MethodPost)
	api.HandleFunc("/jobs/{id}/status", h.withMetrics(h.handleChangeStatus)).Methods(http.MethodPatch)
	api.HandleFunc("/jobs/{id}/transitions", h.withMetrics(h.handleAllowedTransitions)).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}/history", h.withMetrics(h.handleGetHistory)).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}/analytics", h.withMetrics(h.handleGetAnalytics)).Methods(http.MethodGet)
	api.HandleFunc("/health", h.withMetrics(h.handleHealth)).Methods(http.MethodGet)

	r.HandleFunc("/ws/status", h.feed.HandleWS)

	// Prometheus
	r.Handle("/metrics", promhttp.Handler())
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// writeRepoError maps usecase errors onto HTTP codes: the sentinels become
// 404 and 409, anything else is an operational fault.
func (h *FieldServiceHandler) writeRepoError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, repository.ErrStatusConflict):
		writeJSON(w, http.StatusConflict, workflow.Rejection{
			Kind:    workflow.KindStatusConflict,
			Message: "job status changed concurrently, re-read and retry",
		})
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

// rejectionStatus maps workflow rejection kinds onto HTTP codes. The engine
// itself is HTTP-agnostic.
func rejectionStatus(kind workflow.RejectionKind) int {
	switch kind {
	case workflow.KindNotFound:
		return http.StatusNotFound
	case workflow.KindInvalidTransition:
		return http.StatusUnprocessableEntity
	case workflow.KindRoleNotAuthorized, workflow.KindForbiddenTransition:
		return http.StatusForbidden
	case workflow.KindMissingComment, workflow.KindMissingAssignment:
		return http.StatusBadRequest
	case workflow.KindBusinessRuleViolation, workflow.KindStatusConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// actorID pulls the authenticated user id set by the upstream auth layer.
func actorID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

type createJobReq struct {
	Title             string  `json:"title"`
	AssignedTo        *string `json:"assigned_to,omitempty"`
	EstimatedDuration int     `json:"estimated_duration"`
}

// POST /api/v1/jobs
func (h *FieldServiceHandler) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	if actor == "" {
		writeError(w, http.StatusUnauthorized, errors.New("X-User-ID header required"))
		return
	}

	var req createJobReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("bad request body"))
		return
	}
	if req.Title == "" || req.EstimatedDuration <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("title and a positive estimated_duration are required"))
		return
	}

	job, err := h.jobService.CreateJob(r.Context(), req.Title, req.AssignedTo, req.EstimatedDuration, actor)
	if err != nil {
		h.writeRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

// GET /api/v1/jobs[?status=...]
func (h *FieldServiceHandler) handleListJobs(w http.ResponseWriter, r *http.Request) {
	var jobs []*entity.Job
	var err error

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, perr := entity.ParseJobStatus(raw)
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr)
			return
		}
		jobs, err = h.jobService.ListJobsByStatus(r.Context(), status)
	} else {
		jobs, err = h.jobService.ListJobs(r.Context())
	}
	if err != nil {
		h.writeRepoError(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []*entity.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

// GET /api/v1/jobs/summary
func (h *FieldServiceHandler) handleStatusSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.jobService.StatusSummary(r.Context())
	if err != nil {
		h.writeRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GET /api/v1/jobs/{id}
func (h *FieldServiceHandler) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, err := h.jobService.GetJob(r.Context(), id)
	if err != nil {
		h.writeRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type assignJobReq struct {
	TechnicianID string `json:"technician_id"`
}

// POST /api/v1/jobs/{id}/assign
func (h *FieldServiceHandler) handleAssignJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req assignJobReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TechnicianID == "" {
		writeError(w, http.StatusBadRequest, errors.New("technician_id is required"))
		return
	}

	if err := h.jobService.AssignJob(r.Context(), id, req.TechnicianID); err != nil {
		h.writeRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"job_id": id, "assigned_to": req.TechnicianID})
}

type changeStatusReq struct {
	Status  string `json:"status"`
	Comment string `json:"comment,omitempty"`
}

type changeStatusResp struct {
	Job   *entity.Job                `json:"job"`
	Entry *entity.StatusHistoryEntry `json:"history_entry,omitempty"`
	NoOp  bool                       `json:"no_op,omitempty"`
}

// PATCH /api/v1/jobs/{id}/status
func (h *FieldServiceHandler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	actor := actorID(r)
	if actor == "" {
		writeError(w, http.StatusUnauthorized, errors.New("X-User-ID header required"))
		return
	}

	var req changeStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("bad request body"))
		return
	}

	// An unknown literal is a 400, distinct from an illegal transition.
	target, err := entity.ParseJobStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	outcome, err := h.workflowService.ChangeStatus(r.Context(), id, actor, target, req.Comment)
	if err != nil {
		h.writeRepoError(w, r, err)
		return
	}
	if outcome.Rejection != nil {
		writeJSON(w, rejectionStatus(outcome.Rejection.Kind), outcome.Rejection)
		return
	}

	writeJSON(w, http.StatusOK, changeStatusResp{
		Job:   outcome.Job,
		Entry: outcome.Entry,
		NoOp:  outcome.NoOp,
	})
}

// GET /api/v1/jobs/{id}/transitions
func (h *FieldServiceHandler) handleAllowedTransitions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	actor := actorID(r)
	if actor == "" {
		writeError(w, http.StatusUnauthorized, errors.New("X-User-ID header required"))
		return
	}

	targets, err := h.workflowService.AllowedTransitions(r.Context(), id, actor)
	if err != nil {
		h.writeRepoError(w, r, err)
		return
	}
	if targets == nil {
		targets = []entity.JobStatus{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"job_id": id, "allowed_transitions": targets})
}

// GET /api/v1/jobs/{id}/history
func (h *FieldServiceHandler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	entries, err := h.jobService.GetHistory(r.Context(), id)
	if err != nil {
		h.writeRepoError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*entity.StatusHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// GET /api/v1/jobs/{id}/analytics
func (h *FieldServiceHandler) handleGetAnalytics(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	analytics, err := h.analytics.Analyze(r.Context(), id)
	if err != nil {
		h.writeRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

// GET /api/v1/health
func (h *FieldServiceHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"ok": true,
		"ts": time.Now().UTC(),
	}
	writeJSON(w, http.StatusOK, status)
}

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldservice/app/usecase"
	"fieldservice/internal/domain/entity"
	"fieldservice/internal/domain/repository"
	"fieldservice/internal/workflow"
)

// Stubs with swappable funcs: the handler registers prometheus collectors
// globally, so one handler instance is shared across tests.
type stubJobUsecase struct {
	createFn       func(ctx context.Context, title string, assignedTo *string, estimatedDuration int, creatorID string) (*entity.Job, error)
	getFn          func(ctx context.Context, id string) (*entity.Job, error)
	listFn         func(ctx context.Context) ([]*entity.Job, error)
	listByStatusFn func(ctx context.Context, status entity.JobStatus) ([]*entity.Job, error)
	summaryFn      func(ctx context.Context) (map[entity.JobStatus]int, error)
	assignFn       func(ctx context.Context, jobID, technicianID string) error
	historyFn      func(ctx context.Context, jobID string) ([]*entity.StatusHistoryEntry, error)
}

func (s *stubJobUsecase) CreateJob(ctx context.Context, title string, assignedTo *string, estimatedDuration int, creatorID string) (*entity.Job, error) {
	return s.createFn(ctx, title, assignedTo, estimatedDuration, creatorID)
}
func (s *stubJobUsecase) GetJob(ctx context.Context, id string) (*entity.Job, error) {
	return s.getFn(ctx, id)
}
func (s *stubJobUsecase) ListJobs(ctx context.Context) ([]*entity.Job, error) { return s.listFn(ctx) }
func (s *stubJobUsecase) ListJobsByStatus(ctx context.Context, status entity.JobStatus) ([]*entity.Job, error) {
	return s.listByStatusFn(ctx, status)
}
func (s *stubJobUsecase) StatusSummary(ctx context.Context) (map[entity.JobStatus]int, error) {
	return s.summaryFn(ctx)
}
func (s *stubJobUsecase) AssignJob(ctx context.Context, jobID, technicianID string) error {
	return s.assignFn(ctx, jobID, technicianID)
}
func (s *stubJobUsecase) GetHistory(ctx context.Context, jobID string) ([]*entity.StatusHistoryEntry, error) {
	return s.historyFn(ctx, jobID)
}

type stubWorkflowUsecase struct {
	changeFn  func(ctx context.Context, jobID, actorID string, target entity.JobStatus, comment string) (*usecase.StatusChangeOutcome, error)
	allowedFn func(ctx context.Context, jobID, actorID string) ([]entity.JobStatus, error)
}

func (s *stubWorkflowUsecase) ChangeStatus(ctx context.Context, jobID, actorID string, target entity.JobStatus, comment string) (*usecase.StatusChangeOutcome, error) {
	return s.changeFn(ctx, jobID, actorID, target, comment)
}
func (s *stubWorkflowUsecase) AllowedTransitions(ctx context.Context, jobID, actorID string) ([]entity.JobStatus, error) {
	return s.allowedFn(ctx, jobID, actorID)
}

type stubAnalyticsUsecase struct {
	analyzeFn func(ctx context.Context, jobID string) (*entity.WorkflowAnalytics, error)
}

func (s *stubAnalyticsUsecase) Analyze(ctx context.Context, jobID string) (*entity.WorkflowAnalytics, error) {
	return s.analyzeFn(ctx, jobID)
}

var (
	setupOnce    sync.Once
	testRouter   *mux.Router
	jobStub      = &stubJobUsecase{}
	workflowStub = &stubWorkflowUsecase{}
	analyticStub = &stubAnalyticsUsecase{}
)

func router(t *testing.T) *mux.Router {
	t.Helper()
	setupOnce.Do(func() {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		h := NewFieldServiceHandler(jobStub, workflowStub, analyticStub, NewStatusFeed(logger), logger)
		testRouter = mux.NewRouter()
		h.RegisterRoutes(testRouter)
	})
	return testRouter
}

func doJSON(t *testing.T, r *mux.Router, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestChangeStatusRequiresActorHeader(t *testing.T) {
	rec := doJSON(t, router(t), http.MethodPatch, "/api/v1/jobs/job-1/status", "",
		map[string]string{"status": "in_progress"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChangeStatusUnknownLiteral(t *testing.T) {
	// An unknown literal is a 400, not an illegal-transition rejection.
	rec := doJSON(t, router(t), http.MethodPatch, "/api/v1/jobs/job-1/status", "tech-1",
		map[string]string{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "archived")
}

func TestChangeStatusRejectionMapping(t *testing.T) {
	tests := []struct {
		kind workflow.RejectionKind
		code int
	}{
		{workflow.KindInvalidTransition, http.StatusUnprocessableEntity},
		{workflow.KindRoleNotAuthorized, http.StatusForbidden},
		{workflow.KindForbiddenTransition, http.StatusForbidden},
		{workflow.KindMissingComment, http.StatusBadRequest},
		{workflow.KindMissingAssignment, http.StatusBadRequest},
		{workflow.KindBusinessRuleViolation, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			workflowStub.changeFn = func(context.Context, string, string, entity.JobStatus, string) (*usecase.StatusChangeOutcome, error) {
				return &usecase.StatusChangeOutcome{
					Rejection: &workflow.Rejection{Kind: tt.kind, Message: "nope"},
				}, nil
			}

			rec := doJSON(t, router(t), http.MethodPatch, "/api/v1/jobs/job-1/status", "tech-1",
				map[string]string{"status": "completed", "comment": "done"})

			assert.Equal(t, tt.code, rec.Code)

			var rej workflow.Rejection
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rej))
			assert.Equal(t, tt.kind, rej.Kind)
		})
	}
}

func TestChangeStatusAccepted(t *testing.T) {
	job := &entity.Job{ID: "job-1", Status: entity.StatusInProgress}
	workflowStub.changeFn = func(_ context.Context, jobID, actorID string, target entity.JobStatus, _ string) (*usecase.StatusChangeOutcome, error) {
		assert.Equal(t, "job-1", jobID)
		assert.Equal(t, "tech-1", actorID)
		assert.Equal(t, entity.StatusInProgress, target)
		return &usecase.StatusChangeOutcome{Job: job}, nil
	}

	rec := doJSON(t, router(t), http.MethodPatch, "/api/v1/jobs/job-1/status", "tech-1",
		map[string]string{"status": "in_progress"})

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp changeStatusResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Job)
	assert.Equal(t, entity.StatusInProgress, resp.Job.Status)
}

func TestChangeStatusNotFound(t *testing.T) {
	workflowStub.changeFn = func(context.Context, string, string, entity.JobStatus, string) (*usecase.StatusChangeOutcome, error) {
		return nil, repository.ErrNotFound
	}

	rec := doJSON(t, router(t), http.MethodPatch, "/api/v1/jobs/missing/status", "tech-1",
		map[string]string{"status": "in_progress"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChangeStatusConflict(t *testing.T) {
	workflowStub.changeFn = func(context.Context, string, string, entity.JobStatus, string) (*usecase.StatusChangeOutcome, error) {
		return nil, repository.ErrStatusConflict
	}

	rec := doJSON(t, router(t), http.MethodPatch, "/api/v1/jobs/job-1/status", "tech-1",
		map[string]string{"status": "in_progress"})

	assert.Equal(t, http.StatusConflict, rec.Code)

	var rej workflow.Rejection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rej))
	assert.Equal(t, workflow.KindStatusConflict, rej.Kind)
}

func TestCreateJobValidatesBody(t *testing.T) {
	rec := doJSON(t, router(t), http.MethodPost, "/api/v1/jobs", "mgr-1",
		map[string]interface{}{"title": "", "estimated_duration": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateJob(t *testing.T) {
	jobStub.createFn = func(_ context.Context, title string, assignedTo *string, estimatedDuration int, creatorID string) (*entity.Job, error) {
		assert.Equal(t, "Fix furnace", title)
		assert.Equal(t, 60, estimatedDuration)
		assert.Equal(t, "mgr-1", creatorID)
		return entity.NewJob(title, assignedTo, estimatedDuration), nil
	}

	rec := doJSON(t, router(t), http.MethodPost, "/api/v1/jobs", "mgr-1",
		map[string]interface{}{"title": "Fix furnace", "estimated_duration": 60})

	assert.Equal(t, http.StatusCreated, rec.Code)

	var job entity.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, entity.StatusPending, job.Status)
}

func TestAllowedTransitionsEndpoint(t *testing.T) {
	workflowStub.allowedFn = func(context.Context, string, string) ([]entity.JobStatus, error) {
		return []entity.JobStatus{entity.StatusCompleted, entity.StatusOnHold}, nil
	}

	rec := doJSON(t, router(t), http.MethodGet, "/api/v1/jobs/job-1/transitions", "tech-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "completed")
	assert.Contains(t, rec.Body.String(), "on_hold")
}

func TestListJobsStatusFilter(t *testing.T) {
	jobStub.listByStatusFn = func(_ context.Context, status entity.JobStatus) ([]*entity.Job, error) {
		assert.Equal(t, entity.StatusOnHold, status)
		return []*entity.Job{{ID: "job-7", Status: entity.StatusOnHold}}, nil
	}

	rec := doJSON(t, router(t), http.MethodGet, "/api/v1/jobs?status=on_hold", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "job-7")

	rec = doJSON(t, router(t), http.MethodGet, "/api/v1/jobs?status=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusSummaryEndpoint(t *testing.T) {
	jobStub.summaryFn = func(context.Context) (map[entity.JobStatus]int, error) {
		return map[entity.JobStatus]int{
			entity.StatusPending:    3,
			entity.StatusInProgress: 1,
			entity.StatusOnHold:     0,
			entity.StatusCompleted:  12,
			entity.StatusCancelled:  2,
		}, nil
	}

	rec := doJSON(t, router(t), http.MethodGet, "/api/v1/jobs/summary", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var summary map[entity.JobStatus]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 12, summary[entity.StatusCompleted])
	assert.Equal(t, 0, summary[entity.StatusOnHold])
}

func TestGetAnalyticsNotFound(t *testing.T) {
	analyticStub.analyzeFn = func(context.Context, string) (*entity.WorkflowAnalytics, error) {
		return nil, repository.ErrNotFound
	}

	rec := doJSON(t, router(t), http.MethodGet, "/api/v1/jobs/missing/analytics", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := doJSON(t, router(t), http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":true`)
}

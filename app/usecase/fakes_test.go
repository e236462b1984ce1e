package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"fieldservice/internal/domain/entity"
	"fieldservice/internal/domain/repository"
)

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*entity.Job

	failWith error
	// applyHook runs just before ApplyTransition checks the expected
	// status; tests use it to simulate a concurrent writer.
	applyHook func()
}

func newFakeJobRepo(jobs ...*entity.Job) *fakeJobRepo {
	r := &fakeJobRepo{jobs: make(map[string]*entity.Job)}
	for _, j := range jobs {
		copied := *j
		r.jobs[j.ID] = &copied
	}
	return r
}

func (r *fakeJobRepo) Create(_ context.Context, job *entity.Job) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *fakeJobRepo) GetByID(_ context.Context, id string) (*entity.Job, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (r *fakeJobRepo) List(_ context.Context) ([]*entity.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Job
	for _, j := range r.jobs {
		copied := *j
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, nil
}

func (r *fakeJobRepo) ListByStatus(_ context.Context, status entity.JobStatus) ([]*entity.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Job
	for _, j := range r.jobs {
		if j.Status == status {
			copied := *j
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeJobRepo) UpdateAssignment(_ context.Context, id string, assignedTo string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return repository.ErrNotFound
	}
	job.AssignedTo = &assignedTo
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeJobRepo) ApplyTransition(_ context.Context, id string, expected entity.JobStatus, mut repository.StatusMutation) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.applyHook != nil {
		r.applyHook()
	}
	job, ok := r.jobs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if job.Status != expected {
		return repository.ErrStatusConflict
	}
	job.Status = mut.Status
	if mut.StartedAt != nil {
		job.StartedAt = mut.StartedAt
	}
	if mut.CompletedAt != nil {
		job.CompletedAt = mut.CompletedAt
	}
	if mut.ActualDuration != nil {
		job.ActualDuration = mut.ActualDuration
	}
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeJobRepo) CountByStatus(ctx context.Context, status entity.JobStatus) (int, error) {
	jobs, err := r.ListByStatus(ctx, status)
	return len(jobs), err
}

type fakeUserRepo struct {
	users map[string]*entity.User
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*entity.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []*entity.StatusHistoryEntry

	failAppend bool
}

var errAppendFailed = errors.New("history insert failed")

func (r *fakeHistoryRepo) Append(_ context.Context, entry *entity.StatusHistoryEntry) error {
	if r.failAppend {
		return errAppendFailed
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeHistoryRepo) ListByJob(_ context.Context, jobID string) ([]*entity.StatusHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.StatusHistoryEntry
	for _, e := range r.entries {
		if e.JobID == jobID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, k int) bool { return out[i].ChangedAt.Before(out[k].ChangedAt) })
	return out, nil
}

func (r *fakeHistoryRepo) LastByJob(ctx context.Context, jobID string) (*entity.StatusHistoryEntry, error) {
	entries, err := r.ListByJob(ctx, jobID)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return entries[len(entries)-1], nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	updates []entity.StatusUpdate
}

func (n *fakeNotifier) NotifyStatusChange(update entity.StatusUpdate) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, update)
}

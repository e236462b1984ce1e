package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"fieldservice/internal/domain/entity"
	"fieldservice/internal/domain/repository"
	"fieldservice/internal/infrastructure/metrics"
)

type MongoJobRepo struct {
	jobsCol *mongo.Collection
}

func NewMongoJobRepo(db *mongo.Database) repository.JobRepository {
	col := db.Collection("jobs")

	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{bson.E{Key: "status", Value: 1}},
	})

	return &MongoJobRepo{
		jobsCol: col,
	}
}

var _ repository.JobRepository = (*MongoJobRepo)(nil)

func (r *MongoJobRepo) Create(ctx context.Context, job *entity.Job) error {
	metrics.IncDBOp("put")

	_, err := r.jobsCol.InsertOne(ctx, job)
	if err != nil {
		metrics.IncError("mongo_job_repo", "create_error")
		return err
	}
	return nil
}

func (r *MongoJobRepo) GetByID(ctx context.Context, id string) (*entity.Job, error) {
	metrics.IncDBOp("get")

	var job entity.Job
	err := r.jobsCol.FindOne(ctx, bson.M{"id": id}).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		metrics.IncError("mongo_job_repo", "get_error")
		return nil, err
	}
	return &job, nil
}

func (r *MongoJobRepo) List(ctx context.Context) ([]*entity.Job, error) {
	metrics.IncDBOp("list")
	return r.find(ctx, bson.D{})
}

func (r *MongoJobRepo) ListByStatus(ctx context.Context, status entity.JobStatus) ([]*entity.Job, error) {
	metrics.IncDBOp("list")
	return r.find(ctx, bson.M{"status": status})
}

func (r *MongoJobRepo) find(ctx context.Context, filter interface{}) ([]*entity.Job, error) {
	cur, err := r.jobsCol.Find(ctx, filter)
	if err != nil {
		metrics.IncError("mongo_job_repo", "list_error")
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()

	var jobs []*entity.Job
	for cur.Next(ctx) {
		var j entity.Job
		if err := cur.Decode(&j); err != nil {
			metrics.IncError("mongo_job_repo", "list_decode_error")
			return nil, err
		}
		jobs = append(jobs, &j)
	}
	if err := cur.Err(); err != nil {
		metrics.IncError("mongo_job_repo", "list_cursor_error")
		return nil, err
	}
	return jobs, nil
}

func (r *MongoJobRepo) UpdateAssignment(ctx context.Context, id string, assignedTo string) error {
	metrics.IncDBOp("put")

	res, err := r.jobsCol.UpdateOne(ctx, bson.M{"id": id}, bson.M{
		"$set": bson.M{
			"assigned_to": assignedTo,
			"updated_at":  time.Now().UTC(),
		},
	})
	if err != nil {
		metrics.IncError("mongo_job_repo", "update_assignment_error")
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ApplyTransition filters on both id and the expected status, so a stale
// validation can never overwrite a concurrent transition: MatchedCount 0
// with an existing job means the status moved on.
func (r *MongoJobRepo) ApplyTransition(ctx context.Context, id string, expected entity.JobStatus, mut repository.StatusMutation) error {
	metrics.IncDBOp("put")

	set := bson.M{
		"status":     mut.Status,
		"updated_at": time.Now().UTC(),
	}
	if mut.StartedAt != nil {
		set["started_at"] = *mut.StartedAt
	}
	if mut.CompletedAt != nil {
		set["completed_at"] = *mut.CompletedAt
	}
	if mut.ActualDuration != nil {
		set["actual_duration"] = *mut.ActualDuration
	}

	res, err := r.jobsCol.UpdateOne(ctx,
		bson.M{"id": id, "status": expected},
		bson.M{"$set": set},
	)
	if err != nil {
		metrics.IncError("mongo_job_repo", "apply_transition_error")
		return err
	}
	if res.MatchedCount == 0 {
		// Distinguish "job gone" from "status raced".
		count, err := r.jobsCol.CountDocuments(ctx, bson.M{"id": id})
		if err != nil {
			metrics.IncError("mongo_job_repo", "apply_transition_error")
			return err
		}
		if count == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrStatusConflict
	}
	return nil
}

func (r *MongoJobRepo) CountByStatus(ctx context.Context, status entity.JobStatus) (int, error) {
	metrics.IncDBOp("count")

	count, err := r.jobsCol.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		metrics.IncError("mongo_job_repo", "count_by_status_error")
		return 0, err
	}
	return int(count), nil
}

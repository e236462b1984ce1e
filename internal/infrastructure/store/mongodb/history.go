package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fieldservice/internal/domain/entity"
	"fieldservice/internal/domain/repository"
	"fieldservice/internal/infrastructure/metrics"
)

// MongoHistoryRepo stores the append-only status trail. No update or delete
// methods exist on purpose.
type MongoHistoryRepo struct {
	historyCol *mongo.Collection
}

func NewMongoHistoryRepo(db *mongo.Database) repository.HistoryRepository {
	col := db.Collection("status_history")

	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{
			bson.E{Key: "job_id", Value: 1},
			bson.E{Key: "changed_at", Value: 1},
		},
	})

	return &MongoHistoryRepo{
		historyCol: col,
	}
}

var _ repository.HistoryRepository = (*MongoHistoryRepo)(nil)

func (r *MongoHistoryRepo) Append(ctx context.Context, entry *entity.StatusHistoryEntry) error {
	metrics.IncDBOp("put")

	_, err := r.historyCol.InsertOne(ctx, entry)
	if err != nil {
		metrics.IncError("mongo_history_repo", "append_error")
		return err
	}
	return nil
}

func (r *MongoHistoryRepo) ListByJob(ctx context.Context, jobID string) ([]*entity.StatusHistoryEntry, error) {
	metrics.IncDBOp("list")

	opts := options.Find().SetSort(bson.D{bson.E{Key: "changed_at", Value: 1}})
	cur, err := r.historyCol.Find(ctx, bson.M{"job_id": jobID}, opts)
	if err != nil {
		metrics.IncError("mongo_history_repo", "list_error")
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()

	var entries []*entity.StatusHistoryEntry
	for cur.Next(ctx) {
		var e entity.StatusHistoryEntry
		if err := cur.Decode(&e); err != nil {
			metrics.IncError("mongo_history_repo", "list_decode_error")
			return nil, err
		}
		entries = append(entries, &e)
	}
	if err := cur.Err(); err != nil {
		metrics.IncError("mongo_history_repo", "list_cursor_error")
		return nil, err
	}
	return entries, nil
}

func (r *MongoHistoryRepo) LastByJob(ctx context.Context, jobID string) (*entity.StatusHistoryEntry, error) {
	metrics.IncDBOp("get")

	opts := options.FindOne().SetSort(bson.D{bson.E{Key: "changed_at", Value: -1}})
	var entry entity.StatusHistoryEntry
	err := r.historyCol.FindOne(ctx, bson.M{"job_id": jobID}, opts).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		metrics.IncError("mongo_history_repo", "last_error")
		return nil, err
	}
	return &entry, nil
}

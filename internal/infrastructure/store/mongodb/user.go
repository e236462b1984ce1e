package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"fieldservice/internal/domain/entity"
	"fieldservice/internal/domain/repository"
	"fieldservice/internal/infrastructure/metrics"
)

type MongoUserRepo struct {
	usersCol *mongo.Collection
}

func NewMongoUserRepo(db *mongo.Database) repository.UserRepository {
	return &MongoUserRepo{
		usersCol: db.Collection("users"),
	}
}

var _ repository.UserRepository = (*MongoUserRepo)(nil)

func (r *MongoUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	metrics.IncDBOp("get")

	var user entity.User
	err := r.usersCol.FindOne(ctx, bson.M{"id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		metrics.IncError("mongo_user_repo", "get_error")
		return nil, err
	}
	return &user, nil
}

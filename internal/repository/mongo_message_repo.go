package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ahsan1011664/Buiseness-Nexus/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoMessageRepo struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewMongoMessageRepo(ctx context.Context, db *mongo.Database, timeout time.Duration) (*MongoMessageRepo, error) {
	col := db.Collection("messages")
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "read", Value: 1}}},
	})
	if err != nil {
		return nil, err
	}
	return &MongoMessageRepo{col: col, timeout: opTimeout(timeout)}, nil
}

func betweenFilter(a, b string) bson.M {
	return bson.M{"$or": []bson.M{
		{"sender_id": a, "receiver_id": b},
		{"sender_id": b, "receiver_id": a},
	}}
}

func (r *MongoMessageRepo) Insert(ctx context.Context, m *models.Message) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	_, err := r.col.InsertOne(ctx, m)
	return mapMongoErr(err)
}

func (r *MongoMessageRepo) ListBetween(ctx context.Context, a, b string) ([]*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, betweenFilter(a, b), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*models.Message{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoMessageRepo) MarkRead(ctx context.Context, receiver, peer string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	res, err := r.col.UpdateMany(ctx,
		bson.M{"sender_id": peer, "receiver_id": receiver, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoMessageRepo) CountUnread(ctx context.Context, user string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.col.CountDocuments(ctx, bson.M{"receiver_id": user, "read": false})
}

func (r *MongoMessageRepo) RecentPeers(ctx context.Context, user string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	sentTo, err := r.col.Distinct(ctx, "receiver_id", bson.M{"sender_id": user})
	if err != nil {
		return nil, err
	}
	receivedFrom, err := r.col.Distinct(ctx, "sender_id", bson.M{"receiver_id": user})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(sentTo)+len(receivedFrom))
	out := []string{}
	for _, raw := range append(sentTo, receivedFrom...) {
		id, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected peer id type %T", raw)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func (r *MongoMessageRepo) LastBetween(ctx context.Context, a, b string) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	var m models.Message
	if err := r.col.FindOne(ctx, betweenFilter(a, b), opts).Decode(&m); err != nil {
		return nil, mapMongoErr(err)
	}
	return &m, nil
}

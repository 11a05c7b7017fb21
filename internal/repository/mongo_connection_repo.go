package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahsan1011664/Buiseness-Nexus/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConnectionRepo keeps requests in connection_requests and the
// symmetric connection sets on the users documents. With transactions
// enabled (replica set) accept and disconnect touch all three documents in
// one transaction. Otherwise the request update commits first and the
// mutual set update follows, retried once; if it still fails the earlier
// writes are undone so neither side is left connected alone.
type MongoConnectionRepo struct {
	client       *mongo.Client
	requests     *mongo.Collection
	users        *mongo.Collection
	timeout      time.Duration
	transactions bool
}

func NewMongoConnectionRepo(ctx context.Context, client *mongo.Client, db *mongo.Database, timeout time.Duration, transactions bool) (*MongoConnectionRepo, error) {
	requests := db.Collection("connection_requests")
	_, err := requests.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().
				SetName("uniq_active_pair").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"active": true}),
		},
		{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return nil, err
	}
	return &MongoConnectionRepo{
		client:       client,
		requests:     requests,
		users:        db.Collection("users"),
		timeout:      opTimeout(timeout),
		transactions: transactions,
	}, nil
}

func (r *MongoConnectionRepo) CreateRequest(ctx context.Context, req *models.ConnectionRequest) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if req.PairKey == "" {
		req.PairKey = models.PairKey(req.SenderID, req.ReceiverID)
	}
	_, err := r.requests.InsertOne(ctx, req)
	return mapMongoErr(err)
}

func (r *MongoConnectionRepo) FindRequest(ctx context.Context, id string) (*models.ConnectionRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var req models.ConnectionRequest
	if err := r.requests.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		return nil, mapMongoErr(err)
	}
	return &req, nil
}

func (r *MongoConnectionRepo) ActiveBetween(ctx context.Context, a, b string) (*models.ConnectionRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var req models.ConnectionRequest
	err := r.requests.FindOne(ctx, bson.M{"pair_key": models.PairKey(a, b), "active": true}).Decode(&req)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return &req, nil
}

func (r *MongoConnectionRepo) RejectedBetween(ctx context.Context, a, b string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.requests.CountDocuments(ctx, bson.M{"pair_key": models.PairKey(a, b), "status": models.StatusRejected})
}

// inUnit runs fn inside a transaction when enabled, directly otherwise.
func (r *MongoConnectionRepo) inUnit(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	if !r.transactions {
		return fn(ctx)
	}
	sess, err := r.client.StartSession()
	if err != nil {
		return nil, err
	}
	defer sess.EndSession(ctx)
	return sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return fn(sc)
	})
}

func (r *MongoConnectionRepo) Resolve(ctx context.Context, id string, status models.RequestStatus, at time.Time) (*models.ConnectionRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := r.inUnit(ctx, func(ctx context.Context) (any, error) {
		var req models.ConnectionRequest
		err := r.requests.FindOneAndUpdate(ctx,
			bson.M{"_id": id, "status": models.StatusPending},
			bson.M{"$set": bson.M{
				"status":      status,
				"active":      status == models.StatusAccepted,
				"resolved_at": at,
			}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&req)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.whyNotPending(ctx, id)
		}
		if err != nil {
			return nil, err
		}
		if status != models.StatusAccepted {
			return &req, nil
		}
		err = r.addMutual(ctx, req.SenderID, req.ReceiverID)
		if err != nil && !r.transactions && !errors.Is(err, ErrUserMissing) {
			err = r.addMutual(ctx, req.SenderID, req.ReceiverID)
		}
		if err != nil {
			if !r.transactions {
				err = errors.Join(err, r.undoAccept(ctx, &req))
			}
			return nil, err
		}
		return &req, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*models.ConnectionRequest), nil
}

func (r *MongoConnectionRepo) whyNotPending(ctx context.Context, id string) error {
	n, err := r.requests.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrNotPending
}

func (r *MongoConnectionRepo) addMutual(ctx context.Context, a, b string) error {
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		res, err := r.users.UpdateOne(ctx,
			bson.M{"_id": pair[0]},
			bson.M{"$addToSet": bson.M{"connections": pair[1]}},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrUserMissing
		}
	}
	return nil
}

// undoAccept puts an accepted request back to pending and drops whatever
// part of the mutual update landed.
func (r *MongoConnectionRepo) undoAccept(ctx context.Context, req *models.ConnectionRequest) error {
	ctx, cancel := compensationContext(ctx, r.timeout)
	defer cancel()

	var errs []error
	_, err := r.requests.UpdateOne(ctx,
		bson.M{"_id": req.ID, "status": models.StatusAccepted},
		bson.M{
			"$set":   bson.M{"status": models.StatusPending, "active": true},
			"$unset": bson.M{"resolved_at": ""},
		},
	)
	if err != nil {
		errs = append(errs, fmt.Errorf("revert request %s: %w", req.ID, err))
	}
	for _, pair := range [][2]string{{req.SenderID, req.ReceiverID}, {req.ReceiverID, req.SenderID}} {
		if err := r.pull(ctx, pair[0], pair[1]); err != nil {
			errs = append(errs, fmt.Errorf("revert connections of %s: %w", pair[0], err))
		}
	}
	return errors.Join(errs...)
}

func (r *MongoConnectionRepo) pull(ctx context.Context, user, other string) error {
	_, err := r.users.UpdateOne(ctx,
		bson.M{"_id": user},
		bson.M{"$pull": bson.M{"connections": other}},
	)
	return err
}

func (r *MongoConnectionRepo) addOne(ctx context.Context, user, other string) error {
	_, err := r.users.UpdateOne(ctx,
		bson.M{"_id": user},
		bson.M{"$addToSet": bson.M{"connections": other}},
	)
	return err
}

// compensationContext outlives a cancelled or expired request context.
func compensationContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

func (r *MongoConnectionRepo) Disconnect(ctx context.Context, a, b string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.inUnit(ctx, func(ctx context.Context) (any, error) {
		res, err := r.users.UpdateOne(ctx,
			bson.M{"_id": a, "connections": b},
			bson.M{"$pull": bson.M{"connections": b}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, ErrNotFound
		}
		err = r.pull(ctx, b, a)
		if err == nil {
			_, err = r.requests.UpdateMany(ctx,
				bson.M{"pair_key": models.PairKey(a, b), "active": true, "status": models.StatusAccepted},
				bson.M{"$set": bson.M{"active": false}},
			)
		}
		if err != nil && !r.transactions {
			err = errors.Join(err, r.undoDisconnect(ctx, a, b))
		}
		return nil, err
	})
	return err
}

// undoDisconnect restores both sides after a partial disconnect. $addToSet
// makes it safe to run whichever pulls actually landed.
func (r *MongoConnectionRepo) undoDisconnect(ctx context.Context, a, b string) error {
	ctx, cancel := compensationContext(ctx, r.timeout)
	defer cancel()

	var errs []error
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		if err := r.addOne(ctx, pair[0], pair[1]); err != nil {
			errs = append(errs, fmt.Errorf("restore connections of %s: %w", pair[0], err))
		}
	}
	return errors.Join(errs...)
}

func (r *MongoConnectionRepo) PendingFor(ctx context.Context, user string) ([]*models.ConnectionRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.requests.Find(ctx, bson.M{"receiver_id": user, "status": models.StatusPending}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*models.ConnectionRequest{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoConnectionRepo) CountPendingFor(ctx context.Context, user string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.requests.CountDocuments(ctx, bson.M{"receiver_id": user, "status": models.StatusPending})
}

func (r *MongoConnectionRepo) Connections(ctx context.Context, user string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var doc struct {
		Connections []string `bson:"connections"`
	}
	opts := options.FindOne().SetProjection(bson.M{"connections": 1})
	if err := r.users.FindOne(ctx, bson.M{"_id": user}, opts).Decode(&doc); err != nil {
		return nil, mapMongoErr(err)
	}
	if doc.Connections == nil {
		doc.Connections = []string{}
	}
	return doc.Connections, nil
}

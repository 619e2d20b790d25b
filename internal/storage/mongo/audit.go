// Package mongo keeps the booking status history in a MongoDB collection.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hotel_pms/internal/domain"
)

const historyCollection = "booking_history"

// Connect dials uri and pings the primary before returning the client.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	log.Info().Msg("connected to mongo")
	return client, nil
}

type AuditLog struct {
	coll *mongo.Collection
}

// NewAuditLog uses the booking_history collection of db and makes sure the lookup index exists.
func NewAuditLog(ctx context.Context, client *mongo.Client, db string) (*AuditLog, error) {
	coll := client.Database(db).Collection(historyCollection)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "at", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", historyCollection, err)
	}
	return &AuditLog{coll: coll}, nil
}

func (a *AuditLog) Record(ctx context.Context, c domain.StatusChange) error {
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}
	_, err := a.coll.InsertOne(ctx, c)
	return err
}

// History returns the changes of one booking, oldest first.
func (a *AuditLog) History(ctx context.Context, bookingID int64) ([]domain.StatusChange, error) {
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := a.coll.Find(ctx, bson.M{"booking_id": bookingID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []domain.StatusChange{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].At = out[i].At.UTC()
	}
	return out, nil
}

// NopAudit is used when no MONGO_URI is configured.
type NopAudit struct{}

func (NopAudit) Record(context.Context, domain.StatusChange) error { return nil }

func (NopAudit) History(context.Context, int64) ([]domain.StatusChange, error) {
	return []domain.StatusChange{}, nil
}

var (
	_ domain.AuditLog = (*AuditLog)(nil)
	_ domain.AuditLog = NopAudit{}
)

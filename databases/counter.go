package databases

// go generate: mockery --name CounterDatabase

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const counterName = "counters"

// CounterDatabase hands out monotonic sequence numbers scoped by key. The
// increment is a single FindOneAndUpdate with $inc and upsert, so two
// concurrent creates can never observe the same value.
type CounterDatabase interface {
	NextSequence(ctx context.Context, key string) (int64, error)
}

type counterDatabase struct {
	db DatabaseHelper
}

// counterDoc is the shape of a counter document
type counterDoc struct {
	ID       string `bson:"_id"`
	Sequence int64  `bson:"sequence"`
}

// NewCounterDatabase initializes a new instance of counter database with the provided db connection
func NewCounterDatabase(db DatabaseHelper) CounterDatabase {
	return &counterDatabase{
		db: db,
	}
}

// NextSequence atomically increments and returns the counter for key,
// creating it at 1 on first use.
func (c *counterDatabase) NextSequence(ctx context.Context, key string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc counterDoc
	err := c.db.Collection(counterName).FindOneAndUpdate(
		ctx,
		bson.M{"_id": key},
		bson.M{"$inc": bson.M{"sequence": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Sequence, nil
}

// ComplaintIDPrefix returns the month-scoped prefix for human-readable
// complaint identifiers, e.g. "CMP-202608".
func ComplaintIDPrefix(now time.Time) string {
	return fmt.Sprintf("CMP-%d%02d", now.Year(), int(now.Month()))
}

// FormatComplaintID renders the full human-readable identifier, e.g.
// "CMP-202608-0042". The sequence restarts each calendar month because the
// counter key embeds the month prefix.
func FormatComplaintID(now time.Time, sequence int64) string {
	return fmt.Sprintf("%s-%04d", ComplaintIDPrefix(now), sequence)
}

// NextComplaintID draws the next identifier for the current month
func NextComplaintID(ctx context.Context, counters CounterDatabase, now time.Time) (string, error) {
	seq, err := counters.NextSequence(ctx, ComplaintIDPrefix(now))
	if err != nil {
		return "", err
	}
	return FormatComplaintID(now, seq), nil
}

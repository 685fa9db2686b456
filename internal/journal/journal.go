// Package journal persists fill notifications to MongoDB. It is opt-in:
// the venue runs it only when a Mongo URI is configured. Fills are queued
// through a bounded channel and written by background workers; a full queue
// drops fills rather than stalling the match path.
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ndrandal/venue-sim/internal/market"
)

const (
	fillsCollection = "fills"
	writerCount     = 2
)

// fillDoc is the stored form of one fill.
type fillDoc struct {
	OrderID  uint32    `bson:"order_id"`
	TraderID uint32    `bson:"trader_id"`
	Ticker   string    `bson:"ticker"`
	Side     string    `bson:"side"`
	Price    uint32    `bson:"price"`
	Quantity uint32    `bson:"quantity"`
	State    string    `bson:"state"`
	At       time.Time `bson:"at"`
}

func newFillDoc(s market.OrderStatus) fillDoc {
	return fillDoc{
		OrderID:  uint32(s.OrderID),
		TraderID: uint32(s.TraderID),
		Ticker:   s.Ticker.String(),
		Side:     s.Side.String(),
		Price:    uint32(s.FillPrice),
		Quantity: uint32(s.FillQuantity),
		State:    s.State.String(),
		At:       time.Now().UTC(),
	}
}

// Journal writes fills to the fills collection.
type Journal struct {
	client *mongo.Client
	coll   *mongo.Collection
	queue  chan market.OrderStatus
	log    *slog.Logger
}

// Open connects to MongoDB and ensures the fill indexes. The URI should
// include the database name; "venuesim" is used when it does not.
func Open(ctx context.Context, uri string, buffer int, log *slog.Logger) (*Journal, error) {
	if buffer <= 0 {
		buffer = 4096
	}
	if log == nil {
		log = slog.Default()
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	dbName := "venuesim"
	if u, err := url.Parse(uri); err == nil {
		if name := strings.TrimPrefix(u.Path, "/"); name != "" {
			dbName = name
		}
	}

	j := &Journal{
		client: client,
		coll:   client.Database(dbName).Collection(fillsCollection),
		queue:  make(chan market.OrderStatus, buffer),
		log:    log,
	}
	if err := j.ensureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	log.Info("fill journal connected", "db", dbName)
	return j, nil
}

func (j *Journal) ensureIndexes(ctx context.Context) error {
	_, err := j.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "trader_id", Value: 1}, {Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "ticker", Value: 1}, {Key: "at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("ensure fill indexes: %w", err)
	}
	return nil
}

// Record enqueues fills for persistence. Never blocks; once the queue is
// full the rest of the batch is dropped, with one warning naming the first
// dropped fill.
func (j *Journal) Record(fills []market.OrderStatus) {
	for i := range fills {
		select {
		case j.queue <- fills[i]:
		default:
			j.log.Warn("journal queue full, fill dropped", "order", uint32(fills[i].OrderID))
			return
		}
	}
}

// Run starts the writer goroutines and blocks until ctx is done.
func (j *Journal) Run(ctx context.Context) {
	done := make(chan struct{}, writerCount)
	for i := 0; i < writerCount; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			j.writer(ctx)
		}()
	}
	for i := 0; i < writerCount; i++ {
		<-done
	}
}

func (j *Journal) writer(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fill := <-j.queue:
			if _, err := j.coll.InsertOne(context.Background(), newFillDoc(fill)); err != nil {
				j.log.Error("journal insert failed", "err", err)
			}
		}
	}
}

// Close disconnects from MongoDB.
func (j *Journal) Close(ctx context.Context) {
	j.client.Disconnect(ctx)
}

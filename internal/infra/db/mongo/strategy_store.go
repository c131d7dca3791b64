package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ratepilot/internal/domain/pricing"
	"ratepilot/internal/domain/property"
)

// StrategyStore keeps one strategy per property, keyed by property id.
type StrategyStore struct {
	col *mongo.Collection
}

func NewStrategyStore(db *mongo.Database) *StrategyStore {
	col := db.Collection("pricing_strategies")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}, {Key: "next_run_at", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &StrategyStore{col: col}
}

func (s *StrategyStore) Save(ctx context.Context, st pricing.Strategy) error {
	doc := newStrategyDocument(st)
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": doc.PropertyID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *StrategyStore) ByProperty(ctx context.Context, id property.ID) (pricing.Strategy, error) {
	var doc strategyDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return pricing.Strategy{}, pricing.ErrStrategyNotFound
		}
		return pricing.Strategy{}, err
	}
	return doc.toStrategy(), nil
}

func (s *StrategyStore) Active(ctx context.Context) ([]pricing.Strategy, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.col.Find(ctx, bson.M{"status": pricing.StrategyActive}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []pricing.Strategy
	for cur.Next(ctx) {
		var doc strategyDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toStrategy())
	}
	return out, cur.Err()
}

type strategyDocument struct {
	PropertyID      string   `bson:"_id"`
	ID              string   `bson:"strategy_id"`
	Type            string   `bson:"type"`
	Multiplier      float64  `bson:"multiplier"`
	MinPrice        int64    `bson:"min_price"`
	MaxPrice        int64    `bson:"max_price"`
	HorizonDays     int      `bson:"horizon_days"`
	Schedule        string   `bson:"schedule"`
	TargetPlatforms []string `bson:"target_platforms"`
	Status          string   `bson:"status"`
	CreatedAt       int64    `bson:"created_at"`
	NextRunAt       int64    `bson:"next_run_at"`
}

func newStrategyDocument(s pricing.Strategy) strategyDocument {
	return strategyDocument{
		PropertyID:      string(s.PropertyID),
		ID:              s.ID,
		Type:            string(s.Type),
		Multiplier:      s.Parameters.Multiplier,
		MinPrice:        s.Parameters.MinPrice,
		MaxPrice:        s.Parameters.MaxPrice,
		HorizonDays:     s.Parameters.HorizonDays,
		Schedule:        string(s.Schedule),
		TargetPlatforms: s.TargetPlatforms,
		Status:          s.Status,
		CreatedAt:       timeToTimestamp(s.CreatedAt),
		NextRunAt:       timeToTimestamp(s.NextRunAt),
	}
}

func (d strategyDocument) toStrategy() pricing.Strategy {
	return pricing.Strategy{
		ID:         d.ID,
		PropertyID: property.ID(d.PropertyID),
		Type:       pricing.Aggressiveness(d.Type),
		Parameters: pricing.StrategyParameters{
			Multiplier:  d.Multiplier,
			MinPrice:    d.MinPrice,
			MaxPrice:    d.MaxPrice,
			HorizonDays: d.HorizonDays,
		},
		Schedule:        pricing.Schedule(d.Schedule),
		TargetPlatforms: d.TargetPlatforms,
		Status:          d.Status,
		CreatedAt:       timestampToTime(d.CreatedAt),
		NextRunAt:       timestampToTime(d.NextRunAt),
	}
}

var _ pricing.StrategyStore = (*StrategyStore)(nil)

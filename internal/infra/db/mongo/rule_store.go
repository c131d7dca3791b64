package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ratepilot/internal/domain/availability"
	"ratepilot/internal/domain/property"
)

// RuleStore keeps rule history; Active returns the newest active rule.
type RuleStore struct {
	col *mongo.Collection
}

func NewRuleStore(db *mongo.Database) *RuleStore {
	col := db.Collection("availability_rules")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "created_at", Value: -1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &RuleStore{col: col}
}

func (s *RuleStore) Save(ctx context.Context, r availability.Rule) error {
	doc := ruleDocument{ID: r.ID, PropertyID: string(r.PropertyID), Status: r.Status, CreatedAt: timeToTimestamp(r.CreatedAt), Rule: r}
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *RuleStore) Active(ctx context.Context, id property.ID) (availability.Rule, error) {
	filter := bson.M{"property_id": string(id), "status": availability.StatusActive}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var doc ruleDocument
	if err := s.col.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return availability.Rule{}, availability.ErrRuleNotFound
		}
		return availability.Rule{}, err
	}
	return doc.Rule, nil
}

// ruleDocument indexes a few fields and embeds the full rule.
type ruleDocument struct {
	ID         string            `bson:"_id"`
	PropertyID string            `bson:"property_id"`
	Status     string            `bson:"status"`
	CreatedAt  int64             `bson:"created_at"`
	Rule       availability.Rule `bson:"rule"`
}

var _ availability.RuleStore = (*RuleStore)(nil)

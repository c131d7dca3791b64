package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ratepilot/internal/domain/property"
)

type PropertyRepository struct {
	col *mongo.Collection
}

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{col: db.Collection("properties")}
}

func (r *PropertyRepository) ByID(ctx context.Context, id property.ID) (*property.Property, error) {
	var doc propertyDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, property.ErrNotFound
		}
		return nil, err
	}
	return doc.toProperty(), nil
}

func (r *PropertyRepository) Save(ctx context.Context, p *property.Property) error {
	if err := p.Validate(); err != nil {
		return err
	}
	doc := newPropertyDocument(p)
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

func (r *PropertyRepository) List(ctx context.Context) ([]*property.Property, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*property.Property
	for cur.Next(ctx) {
		var doc propertyDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toProperty())
	}
	return out, cur.Err()
}

type propertyDocument struct {
	ID            string   `bson:"_id"`
	Name          string   `bson:"name"`
	City          string   `bson:"city"`
	Country       string   `bson:"country"`
	AverageRate   int64    `bson:"average_rate"`
	OccupancyRate float64  `bson:"occupancy_rate"`
	Platforms     []string `bson:"platforms"`
}

func newPropertyDocument(p *property.Property) propertyDocument {
	return propertyDocument{
		ID:            string(p.ID),
		Name:          p.Name,
		City:          p.Location.City,
		Country:       p.Location.Country,
		AverageRate:   p.AverageRate,
		OccupancyRate: p.OccupancyRate,
		Platforms:     p.Platforms,
	}
}

func (d propertyDocument) toProperty() *property.Property {
	return &property.Property{
		ID:            property.ID(d.ID),
		Name:          d.Name,
		Location:      property.Location{City: d.City, Country: d.Country},
		AverageRate:   d.AverageRate,
		OccupancyRate: d.OccupancyRate,
		Platforms:     d.Platforms,
	}
}

var _ property.Repository = (*PropertyRepository)(nil)

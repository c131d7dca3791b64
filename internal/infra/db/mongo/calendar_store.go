package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ratepilot/internal/domain/calendar"
	"ratepilot/internal/domain/property"
)

// CalendarStore keeps one document per property and platform.
type CalendarStore struct {
	col *mongo.Collection
}

func NewCalendarStore(db *mongo.Database) *CalendarStore {
	return &CalendarStore{col: db.Collection("calendars")}
}

func calendarID(id property.ID, platform string) string {
	return string(id) + "/" + calendar.NormalizePlatform(platform)
}

func (s *CalendarStore) Entries(ctx context.Context, id property.ID, platform string) ([]calendar.Entry, error) {
	var doc calendarDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": calendarID(id, platform)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]calendar.Entry, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		out = append(out, calendar.Entry{
			Date:    timestampToTime(e.Date),
			EndDate: timestampToTime(e.EndDate),
			Status:  calendar.Status(e.Status),
		})
	}
	return out, nil
}

func (s *CalendarStore) Replace(ctx context.Context, id property.ID, platform string, entries []calendar.Entry) error {
	doc := calendarDocument{
		ID:         calendarID(id, platform),
		PropertyID: string(id),
		Platform:   calendar.NormalizePlatform(platform),
		Entries:    make([]entryDocument, 0, len(entries)),
		UpdatedAt:  time.Now().UTC(),
	}
	for _, e := range entries {
		doc.Entries = append(doc.Entries, entryDocument{
			Date:    timeToTimestamp(e.Date),
			EndDate: timeToTimestamp(e.EndDate),
			Status:  string(e.Status),
		})
	}
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

type calendarDocument struct {
	ID         string          `bson:"_id"`
	PropertyID string          `bson:"property_id"`
	Platform   string          `bson:"platform"`
	Entries    []entryDocument `bson:"entries"`
	UpdatedAt  time.Time       `bson:"updated_at"`
}

type entryDocument struct {
	Date    int64  `bson:"date"`
	EndDate int64  `bson:"end_date,omitempty"`
	Status  string `bson:"status"`
}

var _ calendar.Store = (*CalendarStore)(nil)

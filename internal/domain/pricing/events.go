package pricing

import "time"

type StrategyUpdated struct {
	PropertyID string
	StrategyID string
	Type       Aggressiveness
	Schedule   Schedule
	NextRunAt  time.Time
	At         time.Time
}

func (e StrategyUpdated) EventName() string     { return "pricing.strategy_updated" }
func (e StrategyUpdated) AggregateID() string   { return e.PropertyID }
func (e StrategyUpdated) OccurredAt() time.Time { return e.At }

type RatesPublished struct {
	PropertyID string
	StrategyID string
	Platforms  []string
	Rates      []DailyRate
	At         time.Time
}

func (e RatesPublished) EventName() string     { return "pricing.rates_published" }
func (e RatesPublished) AggregateID() string   { return e.PropertyID }
func (e RatesPublished) OccurredAt() time.Time { return e.At }

func StrategyUpdatedEvent(s Strategy, at time.Time) StrategyUpdated {
	return StrategyUpdated{
		PropertyID: string(s.PropertyID),
		StrategyID: s.ID,
		Type:       s.Type,
		Schedule:   s.Schedule,
		NextRunAt:  s.NextRunAt,
		At:         at,
	}
}

func RatesPublishedEvent(s Strategy, platforms []string, rates []DailyRate, at time.Time) RatesPublished {
	return RatesPublished{
		PropertyID: string(s.PropertyID),
		StrategyID: s.ID,
		Platforms:  platforms,
		Rates:      rates,
		At:         at,
	}
}

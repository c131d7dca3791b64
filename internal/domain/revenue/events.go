package revenue

import "time"

type OptimizationCompleted struct {
	PropertyID      string
	Recommendations int
	RevenueLift     float64
	At              time.Time
}

func (e OptimizationCompleted) EventName() string     { return "revenue.optimization_completed" }
func (e OptimizationCompleted) AggregateID() string   { return e.PropertyID }
func (e OptimizationCompleted) OccurredAt() time.Time { return e.At }

func (r Report) CompletedEvent() OptimizationCompleted {
	return OptimizationCompleted{
		PropertyID:      string(r.PropertyID),
		Recommendations: r.RecommendationsCount,
		RevenueLift:     r.PotentialRevenueLift,
		At:              r.GeneratedAt,
	}
}

package availability

import (
	"time"

	"ratepilot/internal/domain/property"
)

type RulesApplied struct {
	PropertyID    string
	RuleID        string
	AffectedDates []time.Time
	At            time.Time
}

func (e RulesApplied) EventName() string     { return "availability.rules_applied" }
func (e RulesApplied) AggregateID() string   { return e.PropertyID }
func (e RulesApplied) OccurredAt() time.Time { return e.At }

func RulesAppliedEvent(id property.ID, ruleID string, affected []time.Time, at time.Time) RulesApplied {
	return RulesApplied{PropertyID: string(id), RuleID: ruleID, AffectedDates: affected, At: at}
}

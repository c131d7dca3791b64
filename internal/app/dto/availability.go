package dto

import "time"

type AvailabilityResult struct {
	RuleID        string   `json:"rule_id"`
	PropertyID    string   `json:"property_id"`
	Status        string   `json:"status"`
	AffectedDates []string `json:"affected_dates"`
}

func FormatDates(days []time.Time) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, d.Format(time.DateOnly))
	}
	return out
}

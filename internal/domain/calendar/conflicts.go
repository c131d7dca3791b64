package calendar

import "time"

// ConflictRecord is a day on which a platform disagrees with the master.
// Resolution is always the master status.
type ConflictRecord struct {
	Date           time.Time `json:"date"`
	MasterStatus   Status    `json:"master_status"`
	PlatformStatus Status    `json:"platform_status"`
	Resolution     Status    `json:"resolution"`
}

// DetectConflicts yields at most one record per master entry: the first
// overlapping platform entry whose status differs.
func DetectConflicts(master, platform []Entry) []ConflictRecord {
	var out []ConflictRecord
	for _, m := range master {
		for _, p := range platform {
			if !m.Overlaps(p) || m.Status == p.Status {
				continue
			}
			out = append(out, ConflictRecord{
				Date:           m.Start(),
				MasterStatus:   m.Status,
				PlatformStatus: p.Status,
				Resolution:     m.Status,
			})
			break
		}
	}
	return out
}

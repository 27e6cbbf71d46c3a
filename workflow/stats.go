package workflow

import (
	"context"
)

// Stats counts pending records by workflow state plus the finalized rows.
// Stale assignments are still counted as assigned and reported in Stale.
type Stats struct {
	Eligible  int `json:"eligible"`
	Assigned  int `json:"assigned"`
	Stale     int `json:"stale"`
	Processed int `json:"processed"`
	Finalized int `json:"finalized"`
}

// Stats reads both tables without taking the table lock.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	pending, err := s.loadPending(ctx)
	if err != nil {
		return nil, err
	}
	finalized, err := s.loadFinalized(ctx)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	stats := &Stats{Finalized: finalized.Len()}
	for _, rec := range pending.Records {
		switch {
		case rec.Processed:
			stats.Processed++
		case rec.Processing:
			stats.Assigned++
			if rec.IsStale(now, s.Timeout) {
				stats.Stale++
			}
		case rec.Eligible():
			stats.Eligible++
		}
	}
	return stats, nil
}

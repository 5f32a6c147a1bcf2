package analytics

import (
	"context"
	"time"
)

// Repository aggregates per-day counters straight from storage.
type Repository interface {
	VisitStatusCounts(ctx context.Context, day time.Time) (map[string]int, error)
	AvgWaitMinutes(ctx context.Context, day time.Time) (float64, error)
	CompletedByDoctor(ctx context.Context, day time.Time) ([]DoctorCompleted, error)
	AppointmentStatusCounts(ctx context.Context, day time.Time) (map[string]int, error)
}

package analytics

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// TodayDashboard builds the day's snapshot. Each counter degrades to zero
// on storage failure so a broken aggregate never blanks the whole board;
// failures are logged, not surfaced.
func (s *Service) TodayDashboard(ctx context.Context) *Dashboard {
	day := s.now().UTC()
	dash := &Dashboard{
		Date:                 day.Format("2006-01-02"),
		VisitsByStatus:       map[string]int{},
		AppointmentsByStatus: map[string]int{},
	}

	if counts, err := s.repo.VisitStatusCounts(ctx, day); err != nil {
		s.logger.Error().Err(err).Msg("analytics: visit status counts failed")
	} else {
		dash.VisitsByStatus = counts
		for _, n := range counts {
			dash.TotalVisits += n
		}
	}

	if avg, err := s.repo.AvgWaitMinutes(ctx, day); err != nil {
		s.logger.Error().Err(err).Msg("analytics: avg wait failed")
	} else {
		dash.AvgWaitMinutes = avg
	}

	if byDoctor, err := s.repo.CompletedByDoctor(ctx, day); err != nil {
		s.logger.Error().Err(err).Msg("analytics: completed by doctor failed")
	} else {
		dash.CompletedByDoctor = byDoctor
	}

	if counts, err := s.repo.AppointmentStatusCounts(ctx, day); err != nil {
		s.logger.Error().Err(err).Msg("analytics: appointment counts failed")
	} else {
		dash.AppointmentsByStatus = counts
		for _, n := range counts {
			dash.AppointmentsTotal += n
		}
	}

	return dash
}

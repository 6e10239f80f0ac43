package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"storefront/api/internal/repository"
)

// Scheduler runs the housekeeping jobs: purging expired session rows and
// reporting customer profiles still waiting for an owner.
type Scheduler struct {
	cron      *cron.Cron
	sessions  *repository.SessionRepository
	customers *repository.CustomerRepository
	log       zerolog.Logger
}

func NewScheduler(sessions *repository.SessionRepository, customers *repository.CustomerRepository, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		sessions:  sessions,
		customers: customers,
		log:       log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.purgeExpiredSessions); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@daily", s.reportOrphanCustomers); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for running jobs to finish, up to five seconds.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) purgeExpiredSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	purged, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("purge expired sessions failed")
		return
	}
	if purged > 0 {
		s.log.Info().Int64("purged", purged).Msg("expired sessions purged")
	}
}

func (s *Scheduler) reportOrphanCustomers() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := s.customers.CountOrphans(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("count orphan customers failed")
		return
	}
	if count > 0 {
		s.log.Info().Int("orphans", count).Msg("customers without linked users")
	}
}

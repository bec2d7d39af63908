package services

import (
	"fmt"
	"time"

	"github.com/holidaysplanners/tour-booking-backend/internal/database"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// PlayedMarkerService runs a scheduled job that marks confirmed bookings of
// already-departed tours as played
type PlayedMarkerService struct {
	cron        *cron.Cron
	bookingRepo *database.BookingRepository
	logger      *logrus.Logger
}

// NewPlayedMarkerService creates a new PlayedMarkerService
func NewPlayedMarkerService(bookingRepo *database.BookingRepository, logger *logrus.Logger) *PlayedMarkerService {
	return &PlayedMarkerService{
		cron:        cron.New(cron.WithSeconds()),
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// Start schedules the job and starts the cron scheduler
func (s *PlayedMarkerService) Start() error {
	// Daily at 1 AM: second minute hour day month weekday
	_, err := s.cron.AddFunc("0 0 1 * * *", s.markPlayedJob)
	if err != nil {
		return fmt.Errorf("failed to schedule played-marker job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Played-marker job scheduled (daily at 1:00 AM)")

	return nil
}

// Stop stops the cron scheduler and waits for a running job to finish
func (s *PlayedMarkerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Played-marker service stopped")
}

// RunNow triggers the job immediately, outside the schedule
func (s *PlayedMarkerService) RunNow() {
	s.markPlayedJob()
}

func (s *PlayedMarkerService) markPlayedJob() {
	start := time.Now()

	updated, err := s.bookingRepo.MarkPlayedForDepartedTours(time.Now())
	if err != nil {
		s.logger.WithError(err).Error("Played-marker job failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"bookings_updated": updated,
		"duration_ms":      time.Since(start).Milliseconds(),
	}).Info("Played-marker job completed")
}

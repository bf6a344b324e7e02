package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/sqryxz/bonk-sentiment-bot/internal/config"
	"github.com/sqryxz/bonk-sentiment-bot/internal/tracker"
)

// Service handles scheduling of collection and summary tasks
type Service struct {
	config  *config.Config
	tracker *tracker.Service
	cron    *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, trackerService *tracker.Service) *Service {
	return &Service{
		config:  cfg,
		tracker: trackerService,
		cron:    cron.New(cron.WithSeconds()),
	}
}

// Start registers the collection and summary jobs and starts the cron loop.
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(s.config.CollectCron, func() {
		logrus.Info("Starting scheduled collection run")
		if err := s.tracker.RunCollection(context.Background()); err != nil {
			logrus.Errorf("Scheduled collection run failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	_, err = s.cron.AddFunc(s.config.SummaryCron, func() {
		logrus.Info("Starting scheduled daily summary run")
		if err := s.tracker.RunDailySummary(context.Background()); err != nil {
			logrus.Errorf("Scheduled daily summary run failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started (collection %q, summary %q)", s.config.CollectCron, s.config.SummaryCron)
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Scheduler stopped")
	}
}

package syncer

import (
	"context"
	"fmt"

	"github.com/liamashdown/polymonitor/internal/alerts"
	"github.com/liamashdown/polymonitor/internal/analytics"
	"github.com/liamashdown/polymonitor/internal/metrics"
	"github.com/liamashdown/polymonitor/internal/storage"
	"github.com/sirupsen/logrus"
)

// watchWhales alerts on every current whale not alerted within the cooldown
func (s *Syncer) watchWhales(ctx context.Context) error {
	opts := analytics.WhaleOptions{
		MinNetInvested: s.cfg.WhaleMinNetInvested,
		SinceHours:     s.cfg.WhaleSinceHours,
	}
	found, err := s.whales.Whales(ctx, opts)
	if err != nil {
		return fmt.Errorf("find whales: %w", err)
	}

	for _, w := range found {
		if err := s.alertWhale(ctx, w, opts); err != nil {
			metrics.RecordAlert(err, false)
			s.log.WithError(err).WithField("user", w.UserID).Error("Failed to send whale alert")
		}
	}
	return nil
}

func (s *Syncer) alertWhale(ctx context.Context, w analytics.Whale, opts analytics.WhaleOptions) error {
	now := s.now()

	lastAlert, err := s.repo.GetLastWhaleAlert(ctx, w.UserID)
	if err != nil {
		s.log.WithError(err).Warn("Failed to get last whale alert")
	}
	if lastAlert != nil {
		cooldownSec := int64(s.cfg.AlertCooldown.Seconds())
		if now.Unix()-lastAlert.CreatedTS < cooldownSec {
			s.log.WithField("user", w.UserID).Debug("Whale alert suppressed (cooldown)")
			metrics.RecordAlert(nil, true)
			return nil
		}
	}

	record := &storage.WhaleAlert{
		UserID:      w.UserID,
		NetInvested: w.NetInvested,
		WindowHours: opts.SinceHours,
		CreatedTS:   now.Unix(),
	}
	if err := s.repo.InsertWhaleAlert(ctx, record); err != nil {
		return fmt.Errorf("insert whale alert: %w", err)
	}

	payload := &alerts.WhalePayload{
		Severity:    alerts.SeverityFor(w.NetInvested, opts.MinNetInvested),
		UserID:      w.UserID,
		UserShort:   alerts.ShortenAddress(w.UserID),
		NetInvested: w.NetInvested,
		Threshold:   opts.MinNetInvested,
		WindowHours: opts.SinceHours,
		Timestamp:   now,
		Environment: s.cfg.Environment,
	}
	if err := s.alertSender.Send(ctx, payload); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	metrics.RecordAlert(nil, false)
	s.log.WithFields(logrus.Fields{
		"user":         w.UserID,
		"net_invested": w.NetInvested,
		"severity":     payload.Severity,
	}).Info("Whale alert sent")
	return nil
}

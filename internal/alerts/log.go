package alerts

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogSender sends alerts to the logger
type LogSender struct {
	log *logrus.Logger
}

// NewLogSender creates a new log sender
func NewLogSender(log *logrus.Logger) *LogSender {
	return &LogSender{log: log}
}

// Send logs the alert
func (s *LogSender) Send(ctx context.Context, payload *WhalePayload) error {
	s.log.WithFields(logrus.Fields{
		"severity":     payload.Severity,
		"user":         payload.UserShort,
		"net_invested": payload.NetInvested,
		"threshold":    payload.Threshold,
		"window_hours": payload.WindowHours,
	}).Info("Whale alert")
	return nil
}

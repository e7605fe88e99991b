package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/liamashdown/polymonitor/internal/config"
	"github.com/sirupsen/logrus"
)

// Severity represents alert severity
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityAlert Severity = "ALERT"
)

// SeverityFor grades a whale by how far its net investment clears the threshold:
// 5x or more is ALERT, 2x or more is WARN.
func SeverityFor(netInvested, threshold float64) Severity {
	switch {
	case threshold > 0 && netInvested >= 5*threshold:
		return SeverityAlert
	case threshold > 0 && netInvested >= 2*threshold:
		return SeverityWarn
	default:
		return SeverityInfo
	}
}

// WhalePayload contains all information for a whale alert
type WhalePayload struct {
	Severity    Severity
	UserID      string
	UserShort   string // Shortened for display
	NetInvested float64
	Threshold   float64
	WindowHours int
	Timestamp   time.Time
	Environment string
}

// Sender defines the interface for alert senders
type Sender interface {
	Send(ctx context.Context, payload *WhalePayload) error
}

// NewSender builds the sender for the configured alert modes
func NewSender(cfg *config.Config, log *logrus.Logger) (Sender, error) {
	var senders []Sender
	for _, mode := range cfg.AlertModes() {
		switch mode {
		case "log":
			senders = append(senders, NewLogSender(log))
		case "discord":
			for _, url := range cfg.DiscordWebhookURLs {
				senders = append(senders, NewDiscordSender(url))
			}
		default:
			return nil, fmt.Errorf("unknown alert mode: %s", mode)
		}
	}

	if len(senders) == 0 {
		return NewLogSender(log), nil
	}
	if len(senders) == 1 {
		return senders[0], nil
	}
	return NewMultiSender(senders...), nil
}

// ShortenAddress trims a wallet address for display
func ShortenAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

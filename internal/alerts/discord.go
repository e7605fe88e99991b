package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DiscordSender sends alerts to Discord via webhook
type DiscordSender struct {
	webhookURL string
	httpClient *http.Client
}

// NewDiscordSender creates a new Discord sender
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send sends the alert to Discord
func (s *DiscordSender) Send(ctx context.Context, payload *WhalePayload) error {
	webhookPayload := map[string]interface{}{
		"embeds": []interface{}{s.buildEmbed(payload)},
	}

	body, err := json.Marshal(webhookPayload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (s *DiscordSender) buildEmbed(payload *WhalePayload) map[string]interface{} {
	var title string
	var color int
	switch payload.Severity {
	case SeverityAlert:
		title = "🐋 Whale inflow (ALERT)"
		color = 0xFF0000 // Red
	case SeverityWarn:
		title = "🐋 Large inflow (WARN)"
		color = 0xFFA500 // Orange
	default:
		title = "🐋 Whale detected"
		color = 0x0099FF // Blue
	}

	description := fmt.Sprintf("**$%.2f** net invested in the last **%dh**",
		payload.NetInvested,
		payload.WindowHours,
	)

	fields := []map[string]interface{}{
		{
			"name":   "Wallet",
			"value":  fmt.Sprintf("`%s`", payload.UserShort),
			"inline": true,
		},
		{
			"name":   "Net Invested",
			"value":  fmt.Sprintf("$%.2f", payload.NetInvested),
			"inline": true,
		},
		{
			"name":   "Threshold",
			"value":  fmt.Sprintf("$%.2f", payload.Threshold),
			"inline": true,
		},
	}

	footer := map[string]interface{}{
		"text": fmt.Sprintf("Polymonitor • %s • %s", payload.Environment, payload.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC")),
	}

	return map[string]interface{}{
		"title":       title,
		"description": description,
		"color":       color,
		"fields":      fields,
		"footer":      footer,
		"timestamp":   payload.Timestamp.Format(time.RFC3339),
	}
}

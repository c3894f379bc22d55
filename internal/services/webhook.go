package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/statuscore-dev/statuscore/db"
	"github.com/statuscore-dev/statuscore/internal/models"
)

const Username = "Statuscore"

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username  string         `json:"username"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Embeds    []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

type webhookConfig struct {
	WebhookURL string `json:"webhook_url"`
}

const (
	colorDanger = 0xE74C3C
	colorGood   = 0x2ECC71
)

// WebhookNotifier delivers incident lifecycle notifications to the
// channels configured in a page's notification rules, and records each
// attempt as a Notification row.
type WebhookNotifier struct{}

func NewWebhookNotifier() *WebhookNotifier {
	return &WebhookNotifier{}
}

func (n *WebhookNotifier) IncidentCreated(statusPageID uint, incident models.Incident) {
	n.dispatch(statusPageID, incident, "incident_created")
}

func (n *WebhookNotifier) IncidentResolved(statusPageID uint, incident models.Incident) {
	n.dispatch(statusPageID, incident, "incident_resolved")
}

func (n *WebhookNotifier) dispatch(statusPageID uint, incident models.Incident, trigger string) {
	var page models.StatusPage
	if err := db.DB.First(&page, statusPageID).Error; err != nil {
		log.Printf("Failed to load status page %d for notification: %v", statusPageID, err)
		return
	}

	var rules []models.NotificationRule
	if err := db.DB.Where("status_page_id = ? AND trigger_type = ? AND is_active = ?", statusPageID, trigger, true).
		Find(&rules).Error; err != nil {
		log.Printf("Failed to load notification rules for status page %d: %v", statusPageID, err)
		return
	}

	for _, rule := range rules {
		var cfg webhookConfig
		if err := json.Unmarshal(rule.Config, &cfg); err != nil || cfg.WebhookURL == "" {
			log.Printf("Skipping notification rule %d: invalid webhook config", rule.ID)
			continue
		}

		var err error
		switch rule.Channel {
		case "discord":
			if trigger == "incident_created" {
				err = sendDiscordIncidentCreated(cfg.WebhookURL, page, incident)
			} else {
				err = sendDiscordIncidentResolved(cfg.WebhookURL, page, incident)
			}
		case "slack":
			if trigger == "incident_created" {
				err = sendSlackIncidentCreated(cfg.WebhookURL, page, incident)
			} else {
				err = sendSlackIncidentResolved(cfg.WebhookURL, page, incident)
			}
		default:
			err = errors.New("unsupported channel: " + rule.Channel)
		}

		recordNotification(incident.ID, rule.Channel, err)

		if err != nil {
			log.Printf("Notification rule %d failed: %v", rule.ID, err)
		}
	}
}

func recordNotification(incidentID uint, channel string, sendErr error) {
	now := time.Now()

	notification := models.Notification{
		IncidentID: incidentID,
		Channel:    channel,
		Status:     "sent",
		SentAt:     &now,
	}

	if sendErr != nil {
		notification.Status = "failed"
		notification.Message = sendErr.Error()
		notification.SentAt = nil
	}

	if err := db.DB.Create(&notification).Error; err != nil {
		log.Printf("Failed to record notification for incident %d: %v", incidentID, err)
	}
}

func sendDiscordIncidentCreated(webhookURL string, page models.StatusPage, incident models.Incident) error {
	startedAt := "Unknown"
	if incident.StartedAt != nil {
		startedAt = incident.StartedAt.Format("2006-01-02 15:04:05 UTC")
	}

	payload := DiscordWebhookRequest{
		Username: Username,
		Embeds: []DiscordEmbed{
			{
				Title:       fmt.Sprintf("🚨 Incident: %s", incident.Title),
				Description: incident.Description,
				Color:       colorDanger,
				Fields: []DiscordWebhookField{
					{Name: "Severity", Value: incident.Severity, Inline: true},
					{Name: "Status", Value: incident.Status, Inline: true},
					{Name: "Started At", Value: startedAt, Inline: false},
				},
				Footer:    &DiscordFooter{Text: fmt.Sprintf("Status page: %s", page.Name)},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}

	return sendDiscordWebhook(webhookURL, payload)
}

func sendDiscordIncidentResolved(webhookURL string, page models.StatusPage, incident models.Incident) error {
	duration := "Unknown"
	if incident.StartedAt != nil && incident.ResolvedAt != nil {
		duration = incident.ResolvedAt.Sub(*incident.StartedAt).Round(time.Second).String()
	}

	payload := DiscordWebhookRequest{
		Username: Username,
		Embeds: []DiscordEmbed{
			{
				Title:       fmt.Sprintf("✅ Resolved: %s", incident.Title),
				Description: "The incident has been resolved.",
				Color:       colorGood,
				Fields: []DiscordWebhookField{
					{Name: "Severity", Value: incident.Severity, Inline: true},
					{Name: "Duration", Value: duration, Inline: true},
				},
				Footer:    &DiscordFooter{Text: fmt.Sprintf("Status page: %s", page.Name)},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}

	return sendDiscordWebhook(webhookURL, payload)
}

func sendSlackIncidentCreated(webhookURL string, page models.StatusPage, incident models.Incident) error {
	startedAt := "Unknown"
	if incident.StartedAt != nil {
		startedAt = incident.StartedAt.Format("2006-01-02 15:04:05 UTC")
	}

	payload := SlackWebhookRequest{
		Username:  Username,
		IconEmoji: ":rotating_light:",
		Text:      ":rotating_light: *INCIDENT DETECTED*",
		Attachments: []SlackAttachment{
			{
				Color: "danger",
				Title: incident.Title,
				Text:  incident.Description,
				Fields: []SlackField{
					{Title: "Severity", Value: incident.Severity, Short: true},
					{Title: "Status", Value: incident.Status, Short: true},
					{Title: "Started At", Value: startedAt, Short: false},
				},
				Footer:    fmt.Sprintf("Status page: %s", page.Name),
				Timestamp: time.Now().Unix(),
			},
		},
	}

	return sendSlackWebhook(webhookURL, payload)
}

func sendSlackIncidentResolved(webhookURL string, page models.StatusPage, incident models.Incident) error {
	startedAt := "Unknown"
	resolvedAt := "Unknown"
	duration := "Unknown"

	if incident.StartedAt != nil {
		startedAt = incident.StartedAt.Format("2006-01-02 15:04:05 UTC")
	}

	if incident.ResolvedAt != nil {
		resolvedAt = incident.ResolvedAt.Format("2006-01-02 15:04:05 UTC")
		if incident.StartedAt != nil {
			duration = incident.ResolvedAt.Sub(*incident.StartedAt).Round(time.Second).String()
		}
	}

	payload := SlackWebhookRequest{
		Username:  Username,
		IconEmoji: ":white_check_mark:",
		Text:      ":white_check_mark: *INCIDENT RESOLVED*",
		Attachments: []SlackAttachment{
			{
				Color: "good",
				Title: incident.Title,
				Text:  "The incident has been resolved.",
				Fields: []SlackField{
					{Title: "Severity", Value: incident.Severity, Short: true},
					{Title: "Duration", Value: duration, Short: true},
					{Title: "Started At", Value: startedAt, Short: true},
					{Title: "Resolved At", Value: resolvedAt, Short: true},
				},
				Footer:    fmt.Sprintf("Status page: %s", page.Name),
				Timestamp: time.Now().Unix(),
			},
		},
	}

	return sendSlackWebhook(webhookURL, payload)
}

func sendDiscordWebhook(webhookURL string, payload DiscordWebhookRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Discord payload: %w", err)
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to send Discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("Discord webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func sendSlackWebhook(webhookURL string, payload SlackWebhookRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack payload: %w", err)
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to send Slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("Slack webhook returned status %d", resp.StatusCode)
	}

	return nil
}

package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/palma21/hotel-rating-fetcher/internal/config"
	"github.com/palma21/hotel-rating-fetcher/internal/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service sends operational alerts via the configured channels
type Service struct {
	config *config.Config
	client *resty.Client
	dialer emailDialer
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

type emailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle string      `json:"activityTitle,omitempty"`
	Facts         []TeamsFact `json:"facts,omitempty"`
	Markdown      bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

var alertColors = map[string]string{
	"critical": "d13438",
	"urgent":   "ff8c00",
	"info":     "0078d4",
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

// SendAlert delivers an alert to every configured channel
func (s *Service) SendAlert(alert *models.Alert) error {
	var errors []string

	if !s.config.NotificationsEnabled() {
		logrus.Warnf("No notification channel configured, dropping alert: %s - %s", alert.Type, alert.Title)
		return nil
	}

	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(alert); err != nil {
			logrus.Errorf("Failed to send Teams alert: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent alert to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(alert); err != nil {
			logrus.Errorf("Failed to send email alert: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent alert via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToTeams(alert *models.Alert) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(s.buildTeamsMessage(alert)).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildTeamsMessage(alert *models.Alert) *TeamsMessage {
	return &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: alertColors[alert.Type],
		Title:      fmt.Sprintf("Hotel Rating Fetcher - %s", alert.Title),
		Text:       alert.Message,
		Sections: []TeamsSection{
			{
				ActivityTitle: "Details",
				Facts: []TeamsFact{
					{Name: "Severity", Value: alert.Type},
					{Name: "Alert ID", Value: alert.ID},
					{Name: "Raised", Value: alert.CreatedAt.Format("2006-01-02 15:04:05 UTC")},
				},
				Markdown: true,
			},
		},
	}
}

func (s *Service) sendEmail(alert *models.Alert) error {
	htmlBody, err := s.buildEmailHTML(alert)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", fmt.Sprintf("[%s] Hotel Rating Fetcher - %s", strings.ToUpper(alert.Type), alert.Title))
	m.SetBody("text/plain", s.buildEmailText(alert))
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *Service) buildEmailHTML(alert *models.Alert) (string, error) {
	tmpl := `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { color: white; padding: 20px; border-radius: 5px; }
        .critical { background-color: #d13438; }
        .urgent { background-color: #ff8c00; }
        .info { background-color: #0078d4; }
    </style>
</head>
<body>
    <div class="header {{.Type}}">
        <h1>{{.Title}}</h1>
        <p>Raised {{.CreatedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>
    <p>{{.Message}}</p>
    <hr>
    <p><small>Alert {{.ID}} was generated automatically by the Hotel Rating Fetcher.</small></p>
</body>
</html>
`

	t, err := template.New("alert").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, alert); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *Service) buildEmailText(alert *models.Alert) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("%s\n", alert.Title))
	text.WriteString(fmt.Sprintf("Severity: %s\n", alert.Type))
	text.WriteString(fmt.Sprintf("Raised: %s\n\n", alert.CreatedAt.Format("2006-01-02 15:04:05 UTC")))
	text.WriteString(alert.Message)
	text.WriteString("\n\n---\nThis alert was generated automatically by the Hotel Rating Fetcher.\n")

	return text.String()
}

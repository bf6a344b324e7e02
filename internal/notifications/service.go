package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/sqryxz/bonk-sentiment-bot/internal/config"
)

// Discord caps messages at 2000 characters; we split below that to leave
// room for the header.
const discordMessageLimit = 1900

// Service delivers the daily summary to every configured channel (Discord
// webhook, SMTP email). A failing channel doesn't block the others.
type Service struct {
	config *config.Config
	client *resty.Client
}

var _ NotificationInterface = (*Service)(nil)

type discordPayload struct {
	Username string `json:"username"`
	Content  string `json:"content"`
}

// NewService creates a notification service.
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendSummary fans the summary out to all configured channels and joins any
// channel errors.
func (s *Service) SendSummary(subject, body string) error {
	var errs []string

	if s.config.DiscordWebhookURL != "" {
		if err := s.sendToDiscord(subject, body); err != nil {
			logrus.Errorf("Failed to send Discord notification: %v", err)
			errs = append(errs, fmt.Sprintf("discord: %v", err))
		} else {
			logrus.Info("Successfully sent summary to Discord")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(subject, body); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errs = append(errs, fmt.Sprintf("email: %v", err))
		} else {
			logrus.Info("Successfully sent summary via email")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (s *Service) sendToDiscord(subject, body string) error {
	messages := splitForDiscord(body)

	for i, message := range messages {
		content := message
		if i == 0 {
			content = fmt.Sprintf("🔔 **%s**\n\n%s", subject, message)
		}

		resp, err := s.client.R().
			SetHeader("Content-Type", "application/json").
			SetBody(discordPayload{Username: "Bonk Sentiment Bot", Content: content}).
			Post(s.config.DiscordWebhookURL)
		if err != nil {
			return fmt.Errorf("failed to post webhook message: %w", err)
		}
		if resp.StatusCode() >= 300 {
			return fmt.Errorf("discord webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
		}
	}

	return nil
}

// splitForDiscord breaks the summary on blank lines into chunks below the
// message limit, bolding section titles for Discord markdown.
func splitForDiscord(body string) []string {
	sections := strings.Split(body, "\n\n")

	var formatted []string
	for _, section := range sections {
		section = strings.TrimRight(section, "\n")
		if strings.TrimSpace(section) == "" {
			continue
		}
		lines := strings.SplitN(section, "\n", 2)
		if strings.HasSuffix(strings.TrimSpace(lines[0]), ":") {
			if len(lines) == 2 {
				section = fmt.Sprintf("**%s**\n%s", lines[0], lines[1])
			} else {
				section = fmt.Sprintf("**%s**", lines[0])
			}
		}
		formatted = append(formatted, section)
	}

	var messages []string
	var current string
	for _, section := range formatted {
		if current != "" && len(current)+len(section)+2 > discordMessageLimit {
			messages = append(messages, current)
			current = section
			continue
		}
		if current == "" {
			current = section
		} else {
			current += "\n\n" + section
		}
	}
	if current != "" {
		messages = append(messages, current)
	}

	return messages
}

func (s *Service) sendEmail(subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", strings.Split(s.config.NotificationEmail, ",")...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

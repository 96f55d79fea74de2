package mail

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/storyseed/core/internal/config"
)

// Sender delivers transactional email either over SMTP or via the Resend API.
type Sender struct {
	cfg    config.MailConfig
	logger *zap.Logger
	client *http.Client
	md     goldmark.Markdown
}

// New creates a mail sender from config.
func New(cfg config.MailConfig, logger *zap.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: 15 * time.Second},
		md:     goldmark.New(),
	}
}

// Enabled reports whether mail delivery is configured.
func (s *Sender) Enabled() bool { return s.cfg.Enable }

// DailyPromptData feeds the daily prompt templates.
type DailyPromptData struct {
	UserName     string
	BookTitle    string
	PromptText   string
	PromptType   string // human-readable label
	ElementName  string
	ElementType  string
	Streak       int
	IsTest       bool
	RespondURL   string
	SkipURL      string
	PixelURL     string
	PrevAnswer   template.HTML // rendered markdown excerpt, optional
	WebURL       string
}

// StreakWarningData feeds the streak warning template.
type StreakWarningData struct {
	UserName   string
	Streak     int
	HoursLeft  int
	RespondURL string
	WebURL     string
}

// WelcomeData feeds the registration welcome template.
type WelcomeData struct {
	UserName string
	WebURL   string
}

// SendDailyPrompt sends a daily writing prompt in the user's chosen format.
func (s *Sender) SendDailyPrompt(to, format string, data DailyPromptData) (string, error) {
	var tpl string
	subject := "Your writing prompt for today"
	switch format {
	case "minimal":
		tpl = tplDailyMinimal
	case "inspirational":
		tpl = tplDailyInspirational
		subject = "Today's spark for your story"
	default:
		tpl = tplDailyDetailed
	}
	if data.IsTest {
		subject = "[Test] " + subject
	}
	if data.BookTitle != "" {
		subject = fmt.Sprintf("%s — %s", subject, data.BookTitle)
	}

	body, err := renderTemplate(tpl, data)
	if err != nil {
		return "", err
	}
	return s.send(to, subject, body)
}

// SendStreakWarning notifies a user their writing streak is about to lapse.
func (s *Sender) SendStreakWarning(to string, data StreakWarningData) error {
	body, err := renderTemplate(tplStreakWarning, data)
	if err != nil {
		return err
	}
	_, err = s.send(to, fmt.Sprintf("Don't break your %d-day streak", data.Streak), body)
	return err
}

// SendWelcome sends the post-registration welcome mail.
func (s *Sender) SendWelcome(to string, data WelcomeData) error {
	body, err := renderTemplate(tplWelcome, data)
	if err != nil {
		return err
	}
	_, err = s.send(to, "Welcome to StorySeed", body)
	return err
}

// RenderMarkdown converts a markdown snippet to sanit-ish HTML for embedding
// in the detailed email format.
func (s *Sender) RenderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func renderTemplate(tpl string, data interface{}) (string, error) {
	t, err := template.New("mail").Funcs(template.FuncMap{
		"year": func() int { return time.Now().Year() },
	}).Parse(tpl)
	if err != nil {
		return "", fmt.Errorf("parse mail template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render mail template: %w", err)
	}
	return buf.String(), nil
}

// send dispatches the mail and returns the provider message ID when available.
func (s *Sender) send(to, subject, htmlBody string) (string, error) {
	if !s.cfg.Enable {
		s.logger.Debug("mail disabled, dropping message", zap.String("to", to), zap.String("subject", subject))
		return "", nil
	}
	if s.cfg.UseResend {
		return s.sendResend(to, subject, htmlBody)
	}
	return "", s.sendSMTP(to, subject, htmlBody)
}

func (s *Sender) sendSMTP(to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	if s.cfg.ReplyTo != "" {
		fmt.Fprintf(&msg, "Reply-To: %s\r\n", s.cfg.ReplyTo)
	}
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.WriteString(htmlBody)

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		s.logger.Error("smtp send failed", zap.String("to", to), zap.Error(err))
		return err
	}
	return nil
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

type resendResponse struct {
	ID string `json:"id"`
}

func (s *Sender) sendResend(to, subject, htmlBody string) (string, error) {
	payload := resendRequest{
		From:    s.cfg.From,
		To:      []string{to},
		Subject: subject,
		HTML:    htmlBody,
		ReplyTo: s.cfg.ReplyTo,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, "https://api.resend.com/emails", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.ResendKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("resend request failed", zap.String("to", to), zap.Error(err))
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("resend returned %d: %s", resp.StatusCode, string(body))
	}

	var rr resendResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return "", nil
	}
	return rr.ID, nil
}

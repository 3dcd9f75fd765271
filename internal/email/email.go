package email

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

// Service sends transactional mail. Callers treat failures as
// best-effort: a bounced notification never rolls back the operation
// that triggered it.
type Service interface {
	SendWelcome(to, firstName string) error
	SendShareNotification(to, petName, shareLink string, expiresAt *time.Time) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	BaseURL  string
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg Config) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendWelcome(to, firstName string) error {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Welcome to PawTrail! Add your pets and start keeping their health records in one place.</p>
<p>The PawTrail team</p>`, firstName)
	return s.send(to, "Welcome to PawTrail", body)
}

func (s *smtpService) SendShareNotification(to, petName, shareLink string, expiresAt *time.Time) error {
	expiry := "This link does not expire."
	if expiresAt != nil {
		expiry = fmt.Sprintf("This link expires on %s.", expiresAt.Format("Jan 2, 2006"))
	}
	body := fmt.Sprintf(`<p>A medical record for %s has been shared with you.</p>
<p><a href="%s">View the record</a></p>
<p>%s</p>`, petName, shareLink, expiry)
	return s.send(to, fmt.Sprintf("Medical record shared: %s", petName), body)
}

func (s *smtpService) send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// NoopService satisfies Service without sending anything. Used when
// SMTP is not configured.
type NoopService struct{}

func (NoopService) SendWelcome(string, string) error { return nil }

func (NoopService) SendShareNotification(string, string, string, *time.Time) error { return nil }

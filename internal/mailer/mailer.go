// Package mailer delivers the finished report over SMTP.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/MrJamesThe3rd/ledgerly/internal/config"
)

// ErrDelivery wraps every failure building or sending a message.
var ErrDelivery = errors.New("mail delivery failed")

type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// TLS is one of "mandatory", "opportunistic" or "none".
	TLS     string
	Timeout time.Duration
}

type Attachment struct {
	Name string
	Data []byte
}

type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
	// ID becomes the Message-ID local part; a random one is used when empty.
	ID         string
	Attachment *Attachment
}

// Sender sends messages through one SMTP relay. A connection is opened per
// Send.
type Sender struct {
	opts Options
}

func New(opts Options) (*Sender, error) {
	if strings.TrimSpace(opts.Host) == "" {
		return nil, config.Missing("SMTP_HOST")
	}

	if strings.TrimSpace(opts.From) == "" {
		return nil, config.Missing("SMTP_FROM")
	}

	if _, err := tlsPolicy(opts.TLS); err != nil {
		return nil, err
	}

	if opts.Port == 0 {
		opts.Port = 587
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	return &Sender{opts: opts}, nil
}

func tlsPolicy(s string) (mail.TLSPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "opportunistic":
		return mail.TLSOpportunistic, nil
	case "mandatory":
		return mail.TLSMandatory, nil
	case "none":
		return mail.NoTLS, nil
	}

	return mail.NoTLS, config.Invalid("SMTP_TLS", s, "want mandatory, opportunistic or none")
}

func (s *Sender) client() (*mail.Client, error) {
	policy, _ := tlsPolicy(s.opts.TLS)

	opts := []mail.Option{
		mail.WithPort(s.opts.Port),
		mail.WithTLSPortPolicy(policy),
		mail.WithTimeout(s.opts.Timeout),
	}

	if s.opts.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.opts.Username),
			mail.WithPassword(s.opts.Password),
		)
	}

	return mail.NewClient(s.opts.Host, opts...)
}

// Build assembles the MIME message: a plain-text body, an optional HTML
// alternative and the optional attachment.
func (s *Sender) Build(msg Message) (*mail.Msg, error) {
	if len(msg.To) == 0 {
		return nil, errors.New("no recipients")
	}

	m := mail.NewMsg()

	if err := m.From(s.opts.From); err != nil {
		return nil, fmt.Errorf("setting from address: %w", err)
	}

	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("setting recipients: %w", err)
	}

	m.Subject(msg.Subject)
	m.SetDate()

	if msg.ID != "" {
		m.SetMessageIDWithValue(msg.ID + "@" + s.opts.Host)
	} else {
		m.SetMessageID()
	}

	m.SetBodyString(mail.TypeTextPlain, msg.Text)

	if msg.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}

	if a := msg.Attachment; a != nil {
		err := m.AttachReader(a.Name, bytes.NewReader(a.Data), mail.WithFileContentType(contentType(a.Name)))
		if err != nil {
			return nil, fmt.Errorf("attaching %s: %w", a.Name, err)
		}
	}

	return m, nil
}

// Send delivers msg and returns its Message-ID header.
func (s *Sender) Send(ctx context.Context, msg Message) (string, error) {
	m, err := s.Build(msg)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	c, err := s.client()
	if err != nil {
		return "", fmt.Errorf("%w: creating client: %w", ErrDelivery, err)
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return "", fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	return messageID(m), nil
}

// Verify dials and authenticates without sending anything.
func (s *Sender) Verify(ctx context.Context) bool {
	c, err := s.client()
	if err != nil {
		return false
	}

	if err := c.DialWithContext(ctx); err != nil {
		return false
	}

	return c.Close() == nil
}

func contentType(name string) mail.ContentType {
	if strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return mail.ContentType("application/pdf")
	}

	return mail.TypeAppOctetStream
}

func messageID(m *mail.Msg) string {
	ids := m.GetGenHeader(mail.HeaderMessageID)
	if len(ids) == 0 {
		return ""
	}

	return ids[0]
}

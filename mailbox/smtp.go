package mailbox

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// SendInThread delivers a reply over SMTP into an existing thread by setting
// the In-Reply-To and References headers to the thread root's Message-Id.
func (m *IMAPClient) SendInThread(ctx context.Context, threadID, to, subject, bodyText, bodyHTML string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	messageID := m.newMessageID()

	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(m.cfg.FromEmail, m.cfg.FromName))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetHeader("Message-ID", messageID)
	msg.SetHeader("In-Reply-To", threadID)
	msg.SetHeader("References", threadID)
	msg.SetBody("text/plain", bodyText)
	if bodyHTML != "" {
		msg.AddAlternative("text/html", bodyHTML)
	}

	dialer := gomail.NewDialer(
		m.cfg.SMTPHost,
		m.cfg.SMTPPort,
		m.cfg.Username,
		m.cfg.Password,
	)

	if err := dialer.DialAndSend(msg); err != nil {
		return "", fmt.Errorf("failed to send reply in thread %s: %w", threadID, err)
	}

	m.logger.Printf("Sent reply %s in thread %s to %s", messageID, threadID, to)
	return messageID, nil
}

func (m *IMAPClient) newMessageID() string {
	domain := "localhost"
	if at := strings.LastIndex(m.cfg.FromEmail, "@"); at != -1 {
		domain = m.cfg.FromEmail[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.New().String(), domain)
}

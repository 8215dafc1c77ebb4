package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"net/textproto"
	"sort"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"

	"replyloop/config"
)

// IMAPClient implements Client against a plain IMAP/SMTP mailbox. Threads are
// resolved through the References/In-Reply-To headers, keyed by the initial
// message's Message-Id.
type IMAPClient struct {
	cfg    config.MailboxConfig
	logger *log.Logger
}

func NewIMAPClient(cfg config.MailboxConfig, logger *log.Logger) *IMAPClient {
	return &IMAPClient{cfg: cfg, logger: logger}
}

func (m *IMAPClient) FetchThread(ctx context.Context, threadID string) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	imapClient, err := m.dial()
	if err != nil {
		return nil, err
	}
	defer imapClient.Logout()

	if err := imapClient.Login(m.cfg.Username, m.cfg.Password); err != nil {
		return nil, fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	mailboxName := m.cfg.IMAPMailbox
	if mailboxName == "" {
		mailboxName = "INBOX"
	}
	if _, err := imapClient.Select(mailboxName, true); err != nil {
		return nil, fmt.Errorf("failed to select mailbox %s: %w", mailboxName, err)
	}

	ids, err := m.searchThread(imapClient, threadID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- imapClient.Fetch(seqset, items, messages)
	}()

	var thread []Message
	for msg := range messages {
		parsed, err := m.parseMessage(msg, section)
		if err != nil {
			m.logger.Printf("Failed to parse message %d in thread %s: %v", msg.SeqNum, threadID, err)
			continue
		}
		thread = append(thread, parsed)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("error fetching thread %s: %w", threadID, err)
	}

	sort.Slice(thread, func(i, j int) bool { return thread[i].ReceivedAt.Before(thread[j].ReceivedAt) })
	return thread, nil
}

// searchThread collects messages referencing the thread root: descendants via
// References/In-Reply-To plus the root itself when present in the mailbox.
func (m *IMAPClient) searchThread(imapClient *client.Client, threadID string) ([]uint32, error) {
	headers := []string{"References", "In-Reply-To", "Message-Id"}
	seen := make(map[uint32]struct{})
	var ids []uint32

	for _, header := range headers {
		criteria := imap.NewSearchCriteria()
		criteria.Header = textproto.MIMEHeader{}
		criteria.Header.Add(header, threadID)

		found, err := imapClient.Search(criteria)
		if err != nil {
			return nil, fmt.Errorf("failed to search %s for thread %s: %w", header, threadID, err)
		}
		for _, id := range found {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func (m *IMAPClient) parseMessage(msg *imap.Message, section *imap.BodySectionName) (Message, error) {
	var out Message

	if msg.Envelope != nil {
		out.ProviderMessageID = msg.Envelope.MessageId
		out.Subject = msg.Envelope.Subject
		out.ReceivedAt = msg.Envelope.Date
		if len(msg.Envelope.From) > 0 {
			out.From = msg.Envelope.From[0].Address()
		}
		if len(msg.Envelope.To) > 0 {
			out.To = msg.Envelope.To[0].Address()
		}
	}

	literal := msg.GetBody(section)
	if literal == nil {
		return out, fmt.Errorf("message body not found")
	}

	mr, err := mail.CreateReader(literal)
	if err != nil {
		return out, fmt.Errorf("failed to create message reader: %w", err)
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		} else if err != nil {
			return out, fmt.Errorf("failed to read next part: %w", err)
		}

		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, err := io.ReadAll(p.Body)
			if err != nil {
				continue
			}
			switch contentType {
			case "text/plain":
				out.Body = string(body)
			case "text/html":
				out.BodyHTML = string(body)
			}
		case *mail.AttachmentHeader:
			// Attachments are irrelevant to classification; skip.
		}
	}

	if out.Body == "" && out.BodyHTML != "" {
		out.Body = out.BodyHTML
	}
	return out, nil
}

func (m *IMAPClient) dial() (*client.Client, error) {
	addr := fmt.Sprintf("%s:%d", m.cfg.IMAPHost, m.cfg.IMAPPort)

	var (
		imapClient *client.Client
		err        error
	)
	switch strings.ToUpper(m.cfg.IMAPEncryption) {
	case "SSL", "TLS":
		imapClient, err = client.DialTLS(addr, &tls.Config{ServerName: m.cfg.IMAPHost})
	case "STARTTLS":
		imapClient, err = client.Dial(addr)
		if err == nil {
			err = imapClient.StartTLS(&tls.Config{ServerName: m.cfg.IMAPHost})
		}
	default:
		imapClient, err = client.Dial(addr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server %s: %w", addr, err)
	}
	return imapClient, nil
}

// Package mailbox abstracts the email provider: fetching every message in a
// conversation thread and sending a reply into an existing thread.
package mailbox

import (
	"context"
	"time"
)

// Message is one message in a provider-side thread, with enough of the
// envelope and body exposed for dedup and bounce classification.
type Message struct {
	ProviderMessageID string
	From              string
	To                string
	Subject           string
	Body              string
	BodyHTML          string
	ReceivedAt        time.Time
}

// Client is the provider contract the engine runs against.
type Client interface {
	// FetchThread returns every message in the thread identified by the
	// initial message's provider id, oldest first.
	FetchThread(ctx context.Context, threadID string) ([]Message, error)

	// SendInThread sends a reply into an existing thread and returns the
	// provider message id assigned to the sent copy.
	SendInThread(ctx context.Context, threadID, to, subject, bodyText, bodyHTML string) (string, error)
}

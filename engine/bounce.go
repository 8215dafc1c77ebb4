package engine

import (
	"strings"

	"replyloop/mailbox"
)

// BounceClassifier labels one thread message as a bounce (true) or a genuine
// reply (false). It must be total and deterministic; the default rules below
// are a policy choice and can be swapped per engine instance.
type BounceClassifier func(msg mailbox.Message) bool

// Sender local parts used by automated delivery subsystems.
var bounceSenderPrefixes = []string{
	"mailer-daemon",
	"postmaster",
	"mail-daemon",
	"maildelivery",
	"bounce",
	"no-reply+dsn",
}

// Subject lines of non-delivery reports.
var bounceSubjectMarkers = []string{
	"undeliverable",
	"undelivered mail",
	"delivery status notification",
	"delivery failure",
	"failure notice",
	"returned mail",
	"mail delivery failed",
	"message blocked",
}

// Diagnostic content found in DSN bodies.
var bounceBodyMarkers = []string{
	"smtp; 5",
	"550 ",
	"551 ",
	"552 ",
	"553 ",
	"554 ",
	"user unknown",
	"mailbox unavailable",
	"mailbox not found",
	"recipient address rejected",
	"message could not be delivered",
	"this is the mail system at host",
}

// ClassifyBounce is the default bounce heuristic over sender, subject and
// body. Any single rule firing classifies the message as a bounce.
func ClassifyBounce(msg mailbox.Message) bool {
	from := strings.ToLower(msg.From)
	localPart := from
	if at := strings.Index(from, "@"); at != -1 {
		localPart = from[:at]
	}
	for _, prefix := range bounceSenderPrefixes {
		if strings.HasPrefix(localPart, prefix) {
			return true
		}
	}

	subject := strings.ToLower(msg.Subject)
	for _, marker := range bounceSubjectMarkers {
		if strings.Contains(subject, marker) {
			return true
		}
	}

	body := strings.ToLower(msg.Body)
	for _, marker := range bounceBodyMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}

	return false
}

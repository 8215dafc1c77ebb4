package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"replyloop/mailbox"
	"replyloop/models"
	"replyloop/store"
)

func TestIngestionRecordsReplyAndCancelsFollowups(t *testing.T) {
	st := store.NewMemoryStore()
	mb := newFakeMailbox()
	eng := newTestEngine(st, mb, newFakeAI(models.IntentQuestion))

	lead := seedLead(t, st, models.LeadStatusContacted)
	msg := seedInitialMessage(t, st, lead, testThreadID)
	seedPendingAction(t, st, lead, msg, models.ActionFollowup1, testClock.Add(24*time.Hour))

	mb.threads[testThreadID] = []mailbox.Message{
		ownEcho(msg),
		prospectMessage("<reply-1@prospect.example>", "Sounds interesting, how does pricing work?"),
	}

	stats := eng.runIngestion(context.Background())

	if len(stats.errs) != 0 {
		t.Fatalf("expected no errors, got %v", stats.errs)
	}
	if stats.threadsChecked != 1 || stats.newReplies != 1 || stats.bounces != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	replies := st.Replies()
	if len(replies) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(replies))
	}
	reply := replies[0]
	if reply.EmailID != msg.ID || reply.LeadID != lead.ID {
		t.Errorf("reply not linked to origin: email_id=%d lead_id=%d", reply.EmailID, reply.LeadID)
	}
	if reply.Intent != nil {
		t.Errorf("ingestion must not classify; intent = %v", *reply.Intent)
	}

	updated, err := st.GetLead(lead.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != models.LeadStatusReplied {
		t.Errorf("lead status = %s, want replied", updated.Status)
	}

	actions := st.Actions()
	if len(actions) != 1 || actions[0].Status != models.ActionStatusCancelled {
		t.Errorf("pending action not cancelled: %+v", actions)
	}
}

func TestIngestionIsIdempotent(t *testing.T) {
	st := store.NewMemoryStore()
	mb := newFakeMailbox()
	eng := newTestEngine(st, mb, newFakeAI(models.IntentQuestion))

	lead := seedLead(t, st, models.LeadStatusContacted)
	msg := seedInitialMessage(t, st, lead, testThreadID)
	mb.threads[testThreadID] = []mailbox.Message{
		ownEcho(msg),
		prospectMessage("<reply-1@prospect.example>", "Tell me more."),
	}

	first := eng.runIngestion(context.Background())
	second := eng.runIngestion(context.Background())

	if first.newReplies != 1 {
		t.Fatalf("first pass newReplies = %d, want 1", first.newReplies)
	}
	if second.newReplies != 0 || len(second.errs) != 0 {
		t.Errorf("second pass should be a no-op: %+v", second)
	}
	if got := len(st.Replies()); got != 1 {
		t.Errorf("reply count = %d, want 1", got)
	}
}

func TestIngestionRecordsBounceOnce(t *testing.T) {
	st := store.NewMemoryStore()
	mb := newFakeMailbox()
	eng := newTestEngine(st, mb, newFakeAI(models.IntentQuestion))

	lead := seedLead(t, st, models.LeadStatusContacted)
	msg := seedInitialMessage(t, st, lead, testThreadID)
	mb.threads[testThreadID] = []mailbox.Message{
		{
			ProviderMessageID: "<dsn-1@mx.example>",
			From:              "mailer-daemon@mx.example",
			To:                testFromEmail,
			Subject:           "Undeliverable: " + msg.Subject,
			Body:              "550 5.1.1 user unknown",
		},
	}

	stats := eng.runIngestion(context.Background())
	if stats.bounces != 1 || stats.newReplies != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(st.Replies()) != 0 {
		t.Error("bounce must not create an inbound reply")
	}

	bounces := st.Bounces()
	if len(bounces) != 1 {
		t.Fatalf("expected 1 bounce, got %d", len(bounces))
	}
	if bounces[0].Reason != "550 5.1.1 user unknown" {
		t.Errorf("bounce reason = %q", bounces[0].Reason)
	}

	updated, err := st.GetLead(lead.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != models.LeadStatusBounced {
		t.Errorf("lead status = %s, want bounced", updated.Status)
	}

	again := eng.runIngestion(context.Background())
	if again.bounces != 0 || len(st.Bounces()) != 1 {
		t.Errorf("bounce recorded twice: stats=%+v count=%d", again, len(st.Bounces()))
	}
}

func TestIngestionRecordsNullSenderBounce(t *testing.T) {
	st := store.NewMemoryStore()
	mb := newFakeMailbox()
	eng := newTestEngine(st, mb, newFakeAI(models.IntentQuestion))

	lead := seedLead(t, st, models.LeadStatusContacted)
	msg := seedInitialMessage(t, st, lead, testThreadID)
	// DSNs are sent with a null reverse-path, so the envelope sender can be
	// empty; the bounce path must still catch them.
	mb.threads[testThreadID] = []mailbox.Message{
		{
			ProviderMessageID: "<dsn-null@mx.example>",
			From:              "",
			To:                testFromEmail,
			Subject:           "Undeliverable: " + msg.Subject,
			Body:              "550 5.1.1 user unknown",
		},
	}

	stats := eng.runIngestion(context.Background())
	if len(stats.errs) != 0 {
		t.Fatalf("unexpected errors: %v", stats.errs)
	}
	if stats.bounces != 1 || stats.newReplies != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(st.Bounces()) != 1 {
		t.Fatalf("bounces recorded = %d, want 1", len(st.Bounces()))
	}

	updated, err := st.GetLead(lead.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != models.LeadStatusBounced {
		t.Errorf("lead status = %s, want bounced", updated.Status)
	}

	// The DSN is marked known, so later cycles skip it instead of rescanning.
	again := eng.runIngestion(context.Background())
	if again.bounces != 0 || len(st.Bounces()) != 1 {
		t.Errorf("null-sender bounce reprocessed: stats=%+v count=%d", again, len(st.Bounces()))
	}
}

func TestIngestionSkipsMalformedSenderReplies(t *testing.T) {
	st := store.NewMemoryStore()
	mb := newFakeMailbox()
	eng := newTestEngine(st, mb, newFakeAI(models.IntentQuestion))

	lead := seedLead(t, st, models.LeadStatusContacted)
	msg := seedInitialMessage(t, st, lead, testThreadID)
	mb.threads[testThreadID] = []mailbox.Message{
		{
			ProviderMessageID: "<junk-1@mx.example>",
			From:              "not an address",
			To:                testFromEmail,
			Subject:           "Re: " + msg.Subject,
			Body:              "hello there",
		},
	}

	stats := eng.runIngestion(context.Background())
	if stats.newReplies != 0 || stats.bounces != 0 || len(stats.errs) != 0 {
		t.Errorf("malformed sender must be skipped: %+v", stats)
	}
	if len(st.Replies()) != 0 {
		t.Error("malformed sender was ingested as a reply")
	}
}

func TestIngestionSkipsOwnMessages(t *testing.T) {
	st := store.NewMemoryStore()
	mb := newFakeMailbox()
	eng := newTestEngine(st, mb, newFakeAI(models.IntentQuestion))

	lead := seedLead(t, st, models.LeadStatusContacted)
	msg := seedInitialMessage(t, st, lead, testThreadID)
	mb.threads[testThreadID] = []mailbox.Message{
		ownEcho(msg),
		{
			// A later copy of our own ack with a fresh provider id.
			ProviderMessageID: "<ack-copy@mail.acme.io>",
			From:              strings.ToUpper(testFromEmail),
			To:                lead.Email,
			Subject:           "Re: " + msg.Subject,
			Body:              "Thanks, noted.",
		},
	}

	stats := eng.runIngestion(context.Background())
	if stats.newReplies != 0 || stats.bounces != 0 || len(stats.errs) != 0 {
		t.Errorf("own messages must be skipped: %+v", stats)
	}
	if len(st.Replies()) != 0 {
		t.Error("own message was ingested as a reply")
	}
}

func TestIngestionIsolatesThreadFailures(t *testing.T) {
	st := store.NewMemoryStore()
	mb := newFakeMailbox()
	eng := newTestEngine(st, mb, newFakeAI(models.IntentQuestion))

	threadIDs := []string{"<t1@mail.acme.io>", "<t2@mail.acme.io>", "<t3@mail.acme.io>"}
	for i, threadID := range threadIDs {
		lead := seedLead(t, st, models.LeadStatusContacted)
		seedInitialMessage(t, st, lead, threadID)
		mb.threads[threadID] = []mailbox.Message{
			prospectMessage(fmt.Sprintf("<reply-%d@prospect.example>", i+1), "Following up on this."),
		}
	}
	mb.threadErr["<t2@mail.acme.io>"] = errors.New("imap: connection reset")

	stats := eng.runIngestion(context.Background())

	if stats.threadsChecked != 3 {
		t.Errorf("threadsChecked = %d, want 3", stats.threadsChecked)
	}
	if stats.newReplies != 2 {
		t.Errorf("newReplies = %d, want 2 (failed thread isolated)", stats.newReplies)
	}
	if len(stats.errs) != 1 || !strings.Contains(stats.errs[0], "<t2@mail.acme.io>") {
		t.Errorf("expected one error naming the failed thread, got %v", stats.errs)
	}
}

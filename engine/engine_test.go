package engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"replyloop/genai"
	"replyloop/knowledge"
	"replyloop/mailbox"
	"replyloop/models"
	"replyloop/store"
)

const (
	testFromEmail = "sales@acme.io"
	testThreadID  = "<initial-1@mail.acme.io>"
)

var testClock = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

type sentCall struct {
	threadID string
	to       string
	subject  string
	bodyText string
	bodyHTML string
}

type fakeMailbox struct {
	threads   map[string][]mailbox.Message
	threadErr map[string]error
	sendErr   error
	sent      []sentCall
}

func newFakeMailbox() *fakeMailbox {
	return &fakeMailbox{
		threads:   make(map[string][]mailbox.Message),
		threadErr: make(map[string]error),
	}
}

func (f *fakeMailbox) FetchThread(_ context.Context, threadID string) ([]mailbox.Message, error) {
	if err, ok := f.threadErr[threadID]; ok {
		return nil, err
	}
	return f.threads[threadID], nil
}

func (f *fakeMailbox) SendInThread(_ context.Context, threadID, to, subject, bodyText, bodyHTML string) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, sentCall{threadID: threadID, to: to, subject: subject, bodyText: bodyText, bodyHTML: bodyHTML})
	return fmt.Sprintf("<sent-%d@mail.acme.io>", len(f.sent)), nil
}

type fakeAI struct {
	intent     models.Intent
	confidence float64

	classifyErrFor map[string]error // keyed by reply body
	followUpErrFor map[string]error // keyed by original subject
	draftErr       error
	signals        []genai.Signal
	signalsErr     error

	lastDraftReq    *genai.DraftRequest
	followUpDrafted int
}

func newFakeAI(intent models.Intent) *fakeAI {
	return &fakeAI{
		intent:         intent,
		confidence:     0.9,
		classifyErrFor: make(map[string]error),
		followUpErrFor: make(map[string]error),
	}
}

func (f *fakeAI) Classify(_ context.Context, body, _ string) (*genai.IntentResult, error) {
	if err, ok := f.classifyErrFor[body]; ok {
		return nil, err
	}
	return &genai.IntentResult{Intent: f.intent, Confidence: f.confidence}, nil
}

func (f *fakeAI) DraftReply(_ context.Context, req genai.DraftRequest) (*genai.Draft, error) {
	if f.draftErr != nil {
		return nil, f.draftErr
	}
	f.lastDraftReq = &req
	return &genai.Draft{Subject: "Re: " + req.OriginalSubject, Body: "Thanks for the detail, here is our answer."}, nil
}

func (f *fakeAI) DraftFollowUp(_ context.Context, req genai.FollowUpRequest) (*genai.Draft, error) {
	if err, ok := f.followUpErrFor[req.OriginalSubject]; ok {
		return nil, err
	}
	f.followUpDrafted++
	return &genai.Draft{Subject: "", Body: "Just floating this back to the top of your inbox."}, nil
}

func (f *fakeAI) ExtractSignals(_ context.Context, _ string) ([]genai.Signal, error) {
	if f.signalsErr != nil {
		return nil, f.signalsErr
	}
	return f.signals, nil
}

func newTestEngine(st *store.MemoryStore, mb *fakeMailbox, ai *fakeAI) *Engine {
	eng := New(st, mb, ai, knowledge.NewService(st),
		log.New(os.Stdout, "TEST: ", log.LstdFlags),
		Options{
			FromEmail:          testFromEmail,
			ThreadBatchSize:    25,
			ReplyBatchSize:     5,
			ActionBatchSize:    10,
			FollowUpDelay:      7 * 24 * time.Hour,
			UnsubscribeBaseURL: "https://app.acme.io",
		})
	eng.now = func() time.Time { return testClock }
	return eng
}

func seedLead(t *testing.T, st *store.MemoryStore, status models.LeadStatus) *models.Lead {
	t.Helper()
	lead := &models.Lead{
		Email:             "pat@prospect.example",
		FirstName:         "Pat",
		Company:           "Prospect Inc",
		Status:            status,
		ConversationPhase: models.PhaseOutreach,
		Product:           "widgets",
	}
	if err := st.SaveLead(lead); err != nil {
		t.Fatalf("failed to seed lead: %v", err)
	}
	return lead
}

func seedInitialMessage(t *testing.T, st *store.MemoryStore, lead *models.Lead, threadID string) *models.SentMessage {
	t.Helper()
	sentAt := testClock.Add(-72 * time.Hour)
	msg := &models.SentMessage{
		LeadID:            lead.ID,
		Subject:           "Quick question about Prospect Inc",
		Body:              "Hi Pat, are widgets on your roadmap this year?",
		Status:            models.MessageStatusSent,
		EmailType:         models.EmailTypeInitial,
		ThreadID:          threadID,
		ProviderMessageID: threadID,
		SentAt:            &sentAt,
	}
	if err := st.CreateSentMessage(msg); err != nil {
		t.Fatalf("failed to seed initial message: %v", err)
	}
	return msg
}

func seedPendingAction(t *testing.T, st *store.MemoryStore, lead *models.Lead, msg *models.SentMessage, actionType models.ActionType, due time.Time) *models.ScheduledAction {
	t.Helper()
	action := &models.ScheduledAction{
		LeadID:         lead.ID,
		EmailID:        msg.ID,
		ActionType:     actionType,
		ScheduledAt:    due,
		Status:         models.ActionStatusPending,
		ContextSubject: msg.Subject,
		ContextBody:    msg.Body,
	}
	if err := st.CreateScheduledAction(action); err != nil {
		t.Fatalf("failed to seed action: %v", err)
	}
	return action
}

func prospectMessage(id, body string) mailbox.Message {
	return mailbox.Message{
		ProviderMessageID: id,
		From:              "pat@prospect.example",
		To:                testFromEmail,
		Subject:           "Re: Quick question about Prospect Inc",
		Body:              body,
		ReceivedAt:        testClock.Add(-time.Hour),
	}
}

func ownEcho(msg *models.SentMessage) mailbox.Message {
	return mailbox.Message{
		ProviderMessageID: msg.ProviderMessageID,
		From:              testFromEmail,
		To:                "pat@prospect.example",
		Subject:           msg.Subject,
		Body:              msg.Body,
		ReceivedAt:        *msg.SentAt,
	}
}

func seedUnclassifiedReply(t *testing.T, st *store.MemoryStore, lead *models.Lead, msg *models.SentMessage, id, body string) *models.InboundReply {
	t.Helper()
	reply := &models.InboundReply{
		EmailID:           msg.ID,
		LeadID:            lead.ID,
		ProviderMessageID: id,
		FromAddress:       lead.Email,
		Subject:           "Re: " + msg.Subject,
		Body:              body,
	}
	if err := st.CreateInboundReply(reply); err != nil {
		t.Fatalf("failed to seed reply: %v", err)
	}
	return reply
}

package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"replyloop/genai"
	"replyloop/knowledge"
	"replyloop/models"
	"replyloop/utils"
)

// runIntentRouting classifies unprocessed replies and drives their side
// effects. The batch is small: classification and drafting are the most
// expensive calls in the cycle. A failed reply keeps intent NULL, so the next
// cycle naturally retries it.
func (e *Engine) runIntentRouting(ctx context.Context) (int, []string) {
	var errs []string

	replies, err := e.store.ListUnclassifiedReplies(e.opts.ReplyBatchSize)
	if err != nil {
		return 0, []string{fmt.Sprintf("route: list unclassified replies: %v", err)}
	}

	processed := 0
	for i := range replies {
		if err := e.processReply(ctx, &replies[i]); err != nil {
			errs = append(errs, fmt.Sprintf("route reply %d: %v", replies[i].ID, err))
			continue
		}
		processed++
	}
	return processed, errs
}

func (e *Engine) processReply(ctx context.Context, reply *models.InboundReply) error {
	lead, err := e.store.GetLead(reply.LeadID)
	if err != nil {
		return err
	}
	origin, err := e.store.GetSentMessage(reply.EmailID)
	if err != nil {
		return err
	}

	result, err := e.ai.Classify(ctx, reply.Body, origin.Subject)
	if err != nil {
		return err
	}
	intent := result.Intent
	reply.Intent = utils.Pointer(intent)
	reply.IntentConfidence = result.Confidence

	if intent == models.IntentUnsubscribe {
		lead.Status = models.LeadStatusUnsubscribed
		lead.ConversationPhase = models.PhaseClosedLost
		if err := e.store.SaveLead(lead); err != nil {
			return err
		}
		return e.store.SaveInboundReply(reply)
	}

	if engageable(intent) {
		if err := e.maybeAcknowledge(ctx, lead, origin); err != nil {
			return err
		}
		if err := e.generateDraft(ctx, reply, lead, origin, intent); err != nil {
			return err
		}
	}

	// Persist the classified reply and everything drafted for it in one go;
	// a failure above leaves intent NULL for the next cycle to retry.
	if err := e.store.SaveInboundReply(reply); err != nil {
		return err
	}

	lead.ConversationPhase = NextPhase(intent, lead.TotalExchanges, lead.ConversationPhase)
	lead.TotalExchanges++
	if err := e.store.SaveLead(lead); err != nil {
		return err
	}

	e.extractVoiceSignals(ctx, reply)
	return nil
}

const ackTemplate = `Hi %s,

Thanks for getting back to me — I've seen your note and will follow up with a proper answer shortly.

Best,
%s`

// maybeAcknowledge sends the short immediate ack, at most once per thread.
// The already-acked check is a store query, which keeps duplicate acks out
// even across overlapping cycles.
func (e *Engine) maybeAcknowledge(ctx context.Context, lead *models.Lead, origin *models.SentMessage) error {
	if origin.ThreadID == "" {
		return nil
	}
	hasAck, err := e.store.ThreadHasAck(origin.ThreadID)
	if err != nil {
		return err
	}
	if hasAck {
		return nil
	}

	name := lead.FirstName
	if name == "" {
		name = "there"
	}
	subject := origin.Subject
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}
	body := fmt.Sprintf(ackTemplate, name, e.opts.FromEmail)

	providerID, err := e.mailbox.SendInThread(ctx, origin.ThreadID, lead.Email, subject, body, "")
	if err != nil {
		return fmt.Errorf("failed to send ack: %w", err)
	}

	now := e.now()
	ack := &models.SentMessage{
		LeadID:            lead.ID,
		Subject:           subject,
		Body:              body,
		Status:            models.MessageStatusSent,
		EmailType:         models.EmailTypeAck,
		ThreadID:          origin.ThreadID,
		ProviderMessageID: providerID,
		SentAt:            &now,
	}
	if err := e.store.CreateSentMessage(ack); err != nil {
		return err
	}
	lead.LastContactedAt = &now
	return e.store.SaveLead(lead)
}

func (e *Engine) generateDraft(ctx context.Context, reply *models.InboundReply, lead *models.Lead, origin *models.SentMessage, intent models.Intent) error {
	hits, err := e.knowledge.Search(reply.Body, lead.Product)
	if err != nil {
		return err
	}
	coverage := knowledge.AssessCoverage(hits)
	needsResearch := coverage == knowledge.CoverageNone && intent == models.IntentQuestion

	history, err := e.threadHistory(ctx, origin.ThreadID)
	if err != nil {
		return err
	}

	docs := make([]models.KnowledgeDoc, 0, len(hits))
	for _, hit := range hits {
		docs = append(docs, hit.Doc)
	}

	draft, err := e.ai.DraftReply(ctx, genai.DraftRequest{
		Lead:            lead,
		Intent:          intent,
		OriginalSubject: reply.Subject,
		OriginalBody:    reply.Body,
		KnowledgeHits:   docs,
		History:         history,
		NeedsResearch:   needsResearch,
	})
	if err != nil {
		return err
	}

	reply.AIDraftSubject = draft.Subject
	reply.AIDraftResponse = draft.Body
	reply.NeedsResearch = needsResearch
	if needsResearch {
		reply.EscalationNote = "Knowledge base has no coverage for this question; a human must supply the answer before the draft can be trusted."
	}

	if hitsJSON, err := json.Marshal(summarizeHits(hits)); err == nil {
		reply.KnowledgeHits = string(hitsJSON)
	}
	if historyJSON, err := json.Marshal(history); err == nil {
		reply.ConversationHistory = string(historyJSON)
	}
	return nil
}

// threadHistory rebuilds the multi-turn conversation from the provider's
// thread, attributing each message to us or them by sender address.
func (e *Engine) threadHistory(ctx context.Context, threadID string) ([]models.Turn, error) {
	if threadID == "" {
		return nil, nil
	}
	thread, err := e.mailbox.FetchThread(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch thread history: %w", err)
	}

	turns := make([]models.Turn, 0, len(thread))
	for _, msg := range thread {
		role := "them"
		if strings.EqualFold(strings.TrimSpace(msg.From), e.opts.FromEmail) {
			role = "us"
		}
		turns = append(turns, models.Turn{Role: role, Body: msg.Body})
	}
	return turns, nil
}

type hitSummary struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

func summarizeHits(hits []knowledge.Hit) []hitSummary {
	out := make([]hitSummary, 0, len(hits))
	for _, hit := range hits {
		out = append(out, hitSummary{Title: hit.Doc.Title, Score: hit.Score})
	}
	return out
}

// extractVoiceSignals is best-effort enrichment: failures are logged and
// swallowed, never failing the reply or the cycle.
func (e *Engine) extractVoiceSignals(ctx context.Context, reply *models.InboundReply) {
	signals, err := e.ai.ExtractSignals(ctx, reply.Body)
	if err != nil {
		e.logger.Printf("Voice-of-customer extraction failed for reply %d: %v", reply.ID, err)
		return
	}
	for _, signal := range signals {
		record := &models.VoiceSignal{
			LeadID:     reply.LeadID,
			ReplyID:    reply.ID,
			SignalType: signal.SignalType,
			Quote:      utils.Truncate(signal.Quote, 500),
		}
		if err := e.store.CreateVoiceSignal(record); err != nil {
			e.logger.Printf("Failed to store voice signal for reply %d: %v", reply.ID, err)
		}
	}
}

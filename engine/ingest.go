package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/badoux/checkmail"
	"gorm.io/gorm"

	"replyloop/mailbox"
	"replyloop/models"
	"replyloop/utils"
)

type ingestStats struct {
	threadsChecked int
	newReplies     int
	bounces        int
	errs           []string
}

// runIngestion polls the threads of recently sent initial messages and turns
// unseen thread messages into inbound replies or bounce records. Each thread
// is isolated: one provider failure is reported and the rest still process.
func (e *Engine) runIngestion(ctx context.Context) ingestStats {
	var stats ingestStats

	initial, err := e.store.ListInitialSentMessages(e.opts.ThreadBatchSize)
	if err != nil {
		stats.errs = append(stats.errs, fmt.Sprintf("ingest: list initial messages: %v", err))
		return stats
	}

	for _, origin := range initial {
		if origin.ThreadID == "" {
			continue
		}
		stats.threadsChecked++

		thread, err := e.mailbox.FetchThread(ctx, origin.ThreadID)
		if err != nil {
			stats.errs = append(stats.errs, fmt.Sprintf("ingest thread %s: %v", origin.ThreadID, err))
			continue
		}

		for _, msg := range thread {
			newReply, bounced, err := e.ingestThreadMessage(origin, msg)
			if err != nil {
				stats.errs = append(stats.errs, fmt.Sprintf("ingest message %s: %v", msg.ProviderMessageID, err))
				continue
			}
			if newReply {
				stats.newReplies++
			}
			if bounced {
				stats.bounces++
			}
		}
	}

	return stats
}

// ingestThreadMessage applies the per-message dedup and classification rules.
// Ordering within a thread does not matter: everything is keyed by the
// provider message id.
func (e *Engine) ingestThreadMessage(origin models.SentMessage, msg mailbox.Message) (newReply, bounced bool, err error) {
	if msg.ProviderMessageID == "" {
		return false, false, nil
	}
	// Our own copies echo back in the thread; never ingest them.
	if strings.EqualFold(strings.TrimSpace(msg.From), e.opts.FromEmail) {
		return false, false, nil
	}

	known, err := e.store.KnownProviderMessageID(msg.ProviderMessageID)
	if err != nil {
		return false, false, err
	}
	if known {
		return false, false, nil
	}

	// Bounces are classified before the sender sanity check: DSNs commonly
	// arrive with an empty or non-address envelope sender.
	if e.classifyBounce(msg) {
		return false, true, e.recordBounce(origin, msg)
	}
	if checkmail.ValidateFormat(msg.From) != nil {
		return false, false, nil
	}
	return true, false, e.recordReply(origin, msg)
}

func (e *Engine) recordBounce(origin models.SentMessage, msg mailbox.Message) error {
	bounce := &models.Bounce{
		LeadID:            origin.LeadID,
		EmailID:           origin.ID,
		ProviderMessageID: msg.ProviderMessageID,
		FromAddress:       msg.From,
		Subject:           msg.Subject,
		Reason:            firstLine(msg.Body),
	}
	if err := e.store.CreateBounce(bounce); err != nil {
		// A concurrent cycle got here first; the id is marked known either way.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}

	lead, err := e.store.GetLead(origin.LeadID)
	if err != nil {
		return err
	}
	if !lead.Status.Terminal() {
		lead.Status = models.LeadStatusBounced
		if err := e.store.SaveLead(lead); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) recordReply(origin models.SentMessage, msg mailbox.Message) error {
	reply := &models.InboundReply{
		EmailID:           origin.ID,
		LeadID:            origin.LeadID,
		ProviderMessageID: msg.ProviderMessageID,
		FromAddress:       msg.From,
		Subject:           msg.Subject,
		Body:              msg.Body,
	}
	if err := e.store.CreateInboundReply(reply); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}

	lead, err := e.store.GetLead(origin.LeadID)
	if err != nil {
		return err
	}
	if !lead.Status.Terminal() {
		lead.Status = models.LeadStatusReplied
		if err := e.store.SaveLead(lead); err != nil {
			return err
		}
	}

	// A genuine reply ends the automated chain for this lead.
	cancelled, err := e.store.CancelPendingActions(origin.LeadID)
	if err != nil {
		return err
	}
	if cancelled > 0 {
		e.logger.Printf("Cancelled %d pending follow-up(s) for lead %d after reply", cancelled, origin.LeadID)
	}
	return nil
}

func firstLine(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return utils.Truncate(trimmed, 200)
		}
	}
	return ""
}

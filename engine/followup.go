package engine

import (
	"context"
	"fmt"
	"html"
	"strings"

	"replyloop/genai"
	"replyloop/models"
	"replyloop/utils"
)

// runFollowUps materializes due scheduled actions into follow-up drafts and
// chains the next delayed action. Only invoked in cycles where the router
// processed zero replies; reply handling always wins the time budget.
func (e *Engine) runFollowUps(ctx context.Context) (int, []string) {
	var errs []string

	actions, err := e.store.ListDueActions(e.now(), e.opts.ActionBatchSize)
	if err != nil {
		return 0, []string{fmt.Sprintf("followup: list due actions: %v", err)}
	}

	processed := 0
	for i := range actions {
		resolved, err := e.handleAction(ctx, &actions[i])
		if err != nil {
			errs = append(errs, fmt.Sprintf("followup action %d: %v", actions[i].ID, err))
			continue
		}
		if resolved {
			processed++
		}
	}
	return processed, errs
}

// handleAction resolves one due action. Returns false with no error when the
// action is deliberately left pending (send throttle), so a later cycle picks
// it up once the interval has passed.
func (e *Engine) handleAction(ctx context.Context, action *models.ScheduledAction) (bool, error) {
	lead, err := e.store.GetLead(action.LeadID)
	if err != nil {
		return false, err
	}

	// Terminal leads never get another automated send.
	if lead.Status.Terminal() {
		action.Status = models.ActionStatusCancelled
		if err := e.store.SaveScheduledAction(action); err != nil {
			return false, err
		}
		return true, nil
	}

	now := e.now()
	if e.opts.MinContactInterval > 0 && lead.LastContactedAt != nil {
		if now.Sub(*lead.LastContactedAt) < e.opts.MinContactInterval {
			return false, nil
		}
	}

	draft, err := e.ai.DraftFollowUp(ctx, genai.FollowUpRequest{
		Lead:            lead,
		EmailType:       action.ActionType.EmailType(),
		OriginalSubject: action.ContextSubject,
		OriginalBody:    action.ContextBody,
	})
	if err != nil {
		return false, err
	}

	subject := draft.Subject
	if subject == "" {
		subject = "Re: " + action.ContextSubject
	}

	footerText, footerHTML := utils.UnsubscribeFooter(e.opts.UnsubscribeBaseURL, lead.ID)
	bodyText := draft.Body + footerText
	bodyHTML := textToHTML(draft.Body) + footerHTML

	// Follow-ups are drafted for human approval, never sent from here.
	message := &models.SentMessage{
		LeadID:    lead.ID,
		Subject:   subject,
		Body:      bodyText,
		BodyHTML:  bodyHTML,
		Status:    models.MessageStatusDraft,
		EmailType: action.ActionType.EmailType(),
	}
	if err := e.store.CreateSentMessage(message); err != nil {
		return false, err
	}

	action.Status = models.ActionStatusCompleted
	if err := e.store.SaveScheduledAction(action); err != nil {
		return false, err
	}

	return true, e.chainNextAction(action)
}

// chainNextAction schedules the next step of the sequence. Only the first
// follow-up chains; the chain ends after followup_2 and reapproach.
func (e *Engine) chainNextAction(action *models.ScheduledAction) error {
	switch action.ActionType {
	case models.ActionFollowup1:
		next := &models.ScheduledAction{
			LeadID:         action.LeadID,
			EmailID:        action.EmailID,
			ActionType:     models.ActionFollowup2,
			ScheduledAt:    e.now().Add(e.opts.FollowUpDelay),
			Status:         models.ActionStatusPending,
			ContextSubject: action.ContextSubject,
			ContextBody:    action.ContextBody,
		}
		return e.store.CreateScheduledAction(next)
	case models.ActionFollowup2, models.ActionReapproach:
		return nil
	}
	return nil
}

func textToHTML(body string) string {
	escaped := html.EscapeString(body)
	return "<p>" + strings.ReplaceAll(escaped, "\n\n", "</p><p>") + "</p>"
}

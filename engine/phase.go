package engine

import "replyloop/models"

// NextPhase advances the lead's conversation phase from the latest classified
// intent and the number of exchanges so far. Pure function; the router applies
// the result and bumps the counter.
func NextPhase(intent models.Intent, totalExchanges int, current models.ConversationPhase) models.ConversationPhase {
	switch intent {
	case models.IntentInterested:
		if totalExchanges >= 2 {
			return models.PhaseNegotiating
		}
		return models.PhaseEvaluating
	case models.IntentQuestion:
		return models.PhaseDiscovery
	case models.IntentInternalReview:
		return models.PhaseWaiting
	case models.IntentNotInterested, models.IntentSoftDecline, models.IntentUnsubscribe:
		return models.PhaseClosedLost
	case models.IntentOutOfOffice:
		return current
	}
	return current
}

// engageable reports whether an intent warrants acknowledgment and drafting.
// Out-of-office and unsubscribe replies get neither.
func engageable(intent models.Intent) bool {
	switch intent {
	case models.IntentOutOfOffice, models.IntentUnsubscribe:
		return false
	case models.IntentInterested, models.IntentQuestion, models.IntentNotInterested,
		models.IntentSoftDecline, models.IntentInternalReview:
		return true
	}
	return false
}

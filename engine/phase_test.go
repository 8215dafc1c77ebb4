package engine

import (
	"testing"

	"replyloop/models"
)

func TestNextPhase(t *testing.T) {
	tests := []struct {
		name      string
		intent    models.Intent
		exchanges int
		current   models.ConversationPhase
		want      models.ConversationPhase
	}{
		{"first interest", models.IntentInterested, 0, models.PhaseOutreach, models.PhaseEvaluating},
		{"sustained interest", models.IntentInterested, 2, models.PhaseEvaluating, models.PhaseNegotiating},
		{"question", models.IntentQuestion, 1, models.PhaseEvaluating, models.PhaseDiscovery},
		{"internal review", models.IntentInternalReview, 1, models.PhaseDiscovery, models.PhaseWaiting},
		{"hard no", models.IntentNotInterested, 0, models.PhaseOutreach, models.PhaseClosedLost},
		{"soft decline", models.IntentSoftDecline, 3, models.PhaseNegotiating, models.PhaseClosedLost},
		{"unsubscribe", models.IntentUnsubscribe, 0, models.PhaseOutreach, models.PhaseClosedLost},
		{"out of office keeps phase", models.IntentOutOfOffice, 2, models.PhaseWaiting, models.PhaseWaiting},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NextPhase(tc.intent, tc.exchanges, tc.current)
			if got != tc.want {
				t.Errorf("NextPhase(%s, %d, %s) = %s, want %s", tc.intent, tc.exchanges, tc.current, got, tc.want)
			}
		})
	}
}

func TestEngageable(t *testing.T) {
	for intent, want := range map[models.Intent]bool{
		models.IntentInterested:     true,
		models.IntentQuestion:       true,
		models.IntentNotInterested:  true,
		models.IntentSoftDecline:    true,
		models.IntentInternalReview: true,
		models.IntentOutOfOffice:    false,
		models.IntentUnsubscribe:    false,
	} {
		if got := engageable(intent); got != want {
			t.Errorf("engageable(%s) = %v, want %v", intent, got, want)
		}
	}
}

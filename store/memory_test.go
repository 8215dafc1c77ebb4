package store

import (
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"replyloop/models"
)

func TestMemoryStoreRejectsDuplicateProviderMessageIDs(t *testing.T) {
	st := NewMemoryStore()

	reply := &models.InboundReply{LeadID: 1, EmailID: 1, ProviderMessageID: "<r1@x>"}
	if err := st.CreateInboundReply(reply); err != nil {
		t.Fatal(err)
	}
	dup := &models.InboundReply{LeadID: 1, EmailID: 1, ProviderMessageID: "<r1@x>"}
	if err := st.CreateInboundReply(dup); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("duplicate reply error = %v, want ErrDuplicatedKey", err)
	}

	bounce := &models.Bounce{LeadID: 1, EmailID: 1, ProviderMessageID: "<b1@x>"}
	if err := st.CreateBounce(bounce); err != nil {
		t.Fatal(err)
	}
	if err := st.CreateBounce(&models.Bounce{ProviderMessageID: "<b1@x>"}); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("duplicate bounce error = %v, want ErrDuplicatedKey", err)
	}
}

func TestMemoryStoreKnownProviderMessageID(t *testing.T) {
	st := NewMemoryStore()

	if err := st.CreateInboundReply(&models.InboundReply{ProviderMessageID: "<r1@x>"}); err != nil {
		t.Fatal(err)
	}
	if err := st.CreateSentMessage(&models.SentMessage{ProviderMessageID: "<m1@x>"}); err != nil {
		t.Fatal(err)
	}
	if err := st.CreateBounce(&models.Bounce{ProviderMessageID: "<b1@x>"}); err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"<r1@x>", "<m1@x>", "<b1@x>"} {
		known, err := st.KnownProviderMessageID(id)
		if err != nil {
			t.Fatal(err)
		}
		if !known {
			t.Errorf("id %s should be known", id)
		}
	}
	known, err := st.KnownProviderMessageID("<fresh@x>")
	if err != nil {
		t.Fatal(err)
	}
	if known {
		t.Error("fresh id reported known")
	}
}

func TestMemoryStoreListDueActions(t *testing.T) {
	st := NewMemoryStore()
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	mk := func(at time.Time, status models.ActionStatus) {
		t.Helper()
		if err := st.CreateScheduledAction(&models.ScheduledAction{
			LeadID: 1, EmailID: 1, ActionType: models.ActionFollowup1,
			ScheduledAt: at, Status: status,
		}); err != nil {
			t.Fatal(err)
		}
	}
	mk(now.Add(-2*time.Hour), models.ActionStatusPending)
	mk(now.Add(-time.Hour), models.ActionStatusCompleted)
	mk(now, models.ActionStatusPending)
	mk(now.Add(time.Hour), models.ActionStatusPending)

	due, err := st.ListDueActions(now, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 2 {
		t.Fatalf("due = %d, want 2 (pending and not in the future)", len(due))
	}
	if due[0].ScheduledAt.After(due[1].ScheduledAt) {
		t.Error("due actions not ordered oldest first")
	}
}

func TestMemoryStoreCancelPendingActions(t *testing.T) {
	st := NewMemoryStore()

	for _, a := range []models.ScheduledAction{
		{LeadID: 1, Status: models.ActionStatusPending},
		{LeadID: 1, Status: models.ActionStatusCompleted},
		{LeadID: 2, Status: models.ActionStatusPending},
	} {
		action := a
		if err := st.CreateScheduledAction(&action); err != nil {
			t.Fatal(err)
		}
	}

	cancelled, err := st.CancelPendingActions(1)
	if err != nil {
		t.Fatal(err)
	}
	if cancelled != 1 {
		t.Errorf("cancelled = %d, want 1", cancelled)
	}
	for _, action := range st.Actions() {
		switch {
		case action.LeadID == 1 && action.Status == models.ActionStatusPending:
			t.Error("pending action for lead 1 survived cancellation")
		case action.LeadID == 2 && action.Status != models.ActionStatusPending:
			t.Error("other lead's action was touched")
		}
	}
}

func TestMemoryStoreThreadHasAck(t *testing.T) {
	st := NewMemoryStore()
	if err := st.CreateSentMessage(&models.SentMessage{
		ThreadID: "<t@x>", EmailType: models.EmailTypeInitial, Status: models.MessageStatusSent,
	}); err != nil {
		t.Fatal(err)
	}

	has, err := st.ThreadHasAck("<t@x>")
	if err != nil {
		t.Fatal(err)
	}
	if has {
		t.Error("initial message must not count as an ack")
	}

	if err := st.CreateSentMessage(&models.SentMessage{
		ThreadID: "<t@x>", EmailType: models.EmailTypeAck, Status: models.MessageStatusSent,
	}); err != nil {
		t.Fatal(err)
	}
	has, err = st.ThreadHasAck("<t@x>")
	if err != nil {
		t.Fatal(err)
	}
	if !has {
		t.Error("ack not detected")
	}
}

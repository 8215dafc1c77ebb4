package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"replyloop/models"
)

// MemoryStore is an in-memory Gateway used by tests and local development.
// It mirrors the Postgres store's semantics, including the unique
// provider-message-id constraint on replies and bounces.
type MemoryStore struct {
	mu sync.Mutex

	leads    map[uint]*models.Lead
	messages map[uint]*models.SentMessage
	replies  map[uint]*models.InboundReply
	actions  map[uint]*models.ScheduledAction
	bounces  map[uint]*models.Bounce
	docs     map[uint]*models.KnowledgeDoc
	signals  map[uint]*models.VoiceSignal
	runs     map[uint]*models.CycleRun

	nextID uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		leads:    make(map[uint]*models.Lead),
		messages: make(map[uint]*models.SentMessage),
		replies:  make(map[uint]*models.InboundReply),
		actions:  make(map[uint]*models.ScheduledAction),
		bounces:  make(map[uint]*models.Bounce),
		docs:     make(map[uint]*models.KnowledgeDoc),
		signals:  make(map[uint]*models.VoiceSignal),
		runs:     make(map[uint]*models.CycleRun),
		nextID:   1,
	}
}

func (s *MemoryStore) allocID() uint {
	id := s.nextID
	s.nextID++
	return id
}

func (s *MemoryStore) GetLead(id uint) (*models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[id]
	if !ok {
		return nil, fmt.Errorf("failed to load lead %d: %w", id, gorm.ErrRecordNotFound)
	}
	copied := *lead
	return &copied, nil
}

func (s *MemoryStore) SaveLead(lead *models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lead.ID == 0 {
		lead.ID = s.allocID()
		lead.CreatedAt = time.Now()
	}
	copied := *lead
	s.leads[lead.ID] = &copied
	return nil
}

func (s *MemoryStore) ListInitialSentMessages(limit int) ([]models.SentMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SentMessage
	for _, msg := range s.messages {
		if msg.Status == models.MessageStatusSent && msg.EmailType == models.EmailTypeInitial {
			out = append(out, *msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) GetSentMessage(id uint) (*models.SentMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil, fmt.Errorf("failed to load sent message %d: %w", id, gorm.ErrRecordNotFound)
	}
	copied := *msg
	return &copied, nil
}

func (s *MemoryStore) CreateSentMessage(msg *models.SentMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg.ID = s.allocID()
	msg.CreatedAt = time.Now()
	copied := *msg
	s.messages[msg.ID] = &copied
	return nil
}

func (s *MemoryStore) ThreadHasAck(threadID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range s.messages {
		if msg.ThreadID == threadID && msg.EmailType == models.EmailTypeAck {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) KnownProviderMessageID(providerMessageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.knownLocked(providerMessageID), nil
}

func (s *MemoryStore) knownLocked(providerMessageID string) bool {
	for _, reply := range s.replies {
		if reply.ProviderMessageID == providerMessageID {
			return true
		}
	}
	for _, msg := range s.messages {
		if msg.ProviderMessageID != "" && msg.ProviderMessageID == providerMessageID {
			return true
		}
	}
	for _, bounce := range s.bounces {
		if bounce.ProviderMessageID == providerMessageID {
			return true
		}
	}
	return false
}

func (s *MemoryStore) CreateInboundReply(reply *models.InboundReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.replies {
		if existing.ProviderMessageID == reply.ProviderMessageID {
			return gorm.ErrDuplicatedKey
		}
	}
	reply.ID = s.allocID()
	reply.CreatedAt = time.Now()
	copied := *reply
	s.replies[reply.ID] = &copied
	return nil
}

func (s *MemoryStore) SaveInboundReply(reply *models.InboundReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reply.ID == 0 {
		reply.ID = s.allocID()
	}
	copied := *reply
	s.replies[reply.ID] = &copied
	return nil
}

func (s *MemoryStore) GetInboundReply(id uint) (*models.InboundReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reply, ok := s.replies[id]
	if !ok {
		return nil, fmt.Errorf("failed to load reply %d: %w", id, gorm.ErrRecordNotFound)
	}
	copied := *reply
	return &copied, nil
}

func (s *MemoryStore) ListUnclassifiedReplies(limit int) ([]models.InboundReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.InboundReply
	for _, reply := range s.replies {
		if reply.Intent == nil {
			out = append(out, *reply)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) CreateBounce(bounce *models.Bounce) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.bounces {
		if existing.ProviderMessageID == bounce.ProviderMessageID {
			return gorm.ErrDuplicatedKey
		}
	}
	bounce.ID = s.allocID()
	bounce.CreatedAt = time.Now()
	copied := *bounce
	s.bounces[bounce.ID] = &copied
	return nil
}

func (s *MemoryStore) CreateScheduledAction(action *models.ScheduledAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	action.ID = s.allocID()
	action.CreatedAt = time.Now()
	copied := *action
	s.actions[action.ID] = &copied
	return nil
}

func (s *MemoryStore) SaveScheduledAction(action *models.ScheduledAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if action.ID == 0 {
		action.ID = s.allocID()
	}
	copied := *action
	s.actions[action.ID] = &copied
	return nil
}

func (s *MemoryStore) ListDueActions(now time.Time, limit int) ([]models.ScheduledAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ScheduledAction
	for _, action := range s.actions {
		if action.Status == models.ActionStatusPending && !action.ScheduledAt.After(now) {
			out = append(out, *action)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) CancelPendingActions(leadID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cancelled int64
	for _, action := range s.actions {
		if action.LeadID == leadID && action.Status == models.ActionStatusPending {
			action.Status = models.ActionStatusCancelled
			cancelled++
		}
	}
	return cancelled, nil
}

func (s *MemoryStore) SearchKnowledge(tokens []string, product string, limit int) ([]models.KnowledgeDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(tokens) == 0 {
		return nil, nil
	}
	var out []models.KnowledgeDoc
	for _, doc := range s.docs {
		if product != "" && doc.Product != "" && doc.Product != product {
			continue
		}
		haystack := strings.ToLower(doc.Title + " " + doc.Content + " " + doc.Keywords)
		for _, token := range tokens {
			if strings.Contains(haystack, strings.ToLower(token)) {
				out = append(out, *doc)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AddKnowledgeDoc seeds the corpus; used by tests and local setup.
func (s *MemoryStore) AddKnowledgeDoc(doc *models.KnowledgeDoc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.ID == 0 {
		doc.ID = s.allocID()
	}
	copied := *doc
	s.docs[doc.ID] = &copied
}

func (s *MemoryStore) CreateVoiceSignal(signal *models.VoiceSignal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	signal.ID = s.allocID()
	copied := *signal
	s.signals[signal.ID] = &copied
	return nil
}

func (s *MemoryStore) CreateCycleRun(run *models.CycleRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.ID = s.allocID()
	copied := *run
	s.runs[run.ID] = &copied
	return nil
}

// Test inspection helpers.

// Replies returns all stored inbound replies ordered by id.
func (s *MemoryStore) Replies() []models.InboundReply {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.InboundReply
	for _, reply := range s.replies {
		out = append(out, *reply)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Messages returns all stored sent messages ordered by id.
func (s *MemoryStore) Messages() []models.SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SentMessage
	for _, msg := range s.messages {
		out = append(out, *msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Actions returns all stored scheduled actions ordered by id.
func (s *MemoryStore) Actions() []models.ScheduledAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ScheduledAction
	for _, action := range s.actions {
		out = append(out, *action)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Bounces returns all recorded bounces ordered by id.
func (s *MemoryStore) Bounces() []models.Bounce {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Bounce
	for _, bounce := range s.bounces {
		out = append(out, *bounce)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Signals returns all stored voice-of-customer signals ordered by id.
func (s *MemoryStore) Signals() []models.VoiceSignal {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.VoiceSignal
	for _, signal := range s.signals {
		out = append(out, *signal)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Runs returns all persisted cycle runs ordered by id.
func (s *MemoryStore) Runs() []models.CycleRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CycleRun
	for _, run := range s.runs {
		out = append(out, *run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

package store

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"replyloop/models"
)

// GormStore is the Postgres-backed Gateway implementation.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetLead(id uint) (*models.Lead, error) {
	var lead models.Lead
	if err := s.db.First(&lead, id).Error; err != nil {
		return nil, fmt.Errorf("failed to load lead %d: %w", id, err)
	}
	return &lead, nil
}

func (s *GormStore) SaveLead(lead *models.Lead) error {
	return s.db.Save(lead).Error
}

func (s *GormStore) ListInitialSentMessages(limit int) ([]models.SentMessage, error) {
	var messages []models.SentMessage
	err := s.db.
		Where("status = ? AND email_type = ?", models.MessageStatusSent, models.EmailTypeInitial).
		Order("sent_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list initial sent messages: %w", err)
	}
	return messages, nil
}

func (s *GormStore) GetSentMessage(id uint) (*models.SentMessage, error) {
	var msg models.SentMessage
	if err := s.db.First(&msg, id).Error; err != nil {
		return nil, fmt.Errorf("failed to load sent message %d: %w", id, err)
	}
	return &msg, nil
}

func (s *GormStore) CreateSentMessage(msg *models.SentMessage) error {
	return s.db.Create(msg).Error
}

func (s *GormStore) ThreadHasAck(threadID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.SentMessage{}).
		Where("thread_id = ? AND email_type = ?", threadID, models.EmailTypeAck).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check thread %s for ack: %w", threadID, err)
	}
	return count > 0, nil
}

func (s *GormStore) KnownProviderMessageID(providerMessageID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.InboundReply{}).
		Where("provider_message_id = ?", providerMessageID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	err = s.db.Model(&models.SentMessage{}).
		Where("provider_message_id = ?", providerMessageID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	err = s.db.Model(&models.Bounce{}).
		Where("provider_message_id = ?", providerMessageID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) CreateInboundReply(reply *models.InboundReply) error {
	return s.db.Create(reply).Error
}

func (s *GormStore) SaveInboundReply(reply *models.InboundReply) error {
	return s.db.Save(reply).Error
}

func (s *GormStore) GetInboundReply(id uint) (*models.InboundReply, error) {
	var reply models.InboundReply
	if err := s.db.First(&reply, id).Error; err != nil {
		return nil, fmt.Errorf("failed to load reply %d: %w", id, err)
	}
	return &reply, nil
}

func (s *GormStore) ListUnclassifiedReplies(limit int) ([]models.InboundReply, error) {
	var replies []models.InboundReply
	err := s.db.
		Where("intent IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&replies).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unclassified replies: %w", err)
	}
	return replies, nil
}

func (s *GormStore) CreateBounce(bounce *models.Bounce) error {
	return s.db.Create(bounce).Error
}

func (s *GormStore) CreateScheduledAction(action *models.ScheduledAction) error {
	return s.db.Create(action).Error
}

func (s *GormStore) SaveScheduledAction(action *models.ScheduledAction) error {
	return s.db.Save(action).Error
}

func (s *GormStore) ListDueActions(now time.Time, limit int) ([]models.ScheduledAction, error) {
	var actions []models.ScheduledAction
	err := s.db.
		Where("status = ? AND scheduled_at <= ?", models.ActionStatusPending, now).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&actions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due actions: %w", err)
	}
	return actions, nil
}

func (s *GormStore) CancelPendingActions(leadID uint) (int64, error) {
	result := s.db.Model(&models.ScheduledAction{}).
		Where("lead_id = ? AND status = ?", leadID, models.ActionStatusPending).
		Update("status", models.ActionStatusCancelled)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cancel pending actions for lead %d: %w", leadID, result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormStore) SearchKnowledge(tokens []string, product string, limit int) ([]models.KnowledgeDoc, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	query := s.db.Model(&models.KnowledgeDoc{})
	if product != "" {
		query = query.Where("product = ? OR product = ''", product)
	}

	match := s.db.Session(&gorm.Session{NewDB: true})
	for _, token := range tokens {
		pattern := "%" + strings.ToLower(token) + "%"
		match = match.Or("LOWER(title) LIKE ? OR LOWER(content) LIKE ? OR LOWER(keywords) LIKE ?",
			pattern, pattern, pattern)
	}

	var docs []models.KnowledgeDoc
	if err := query.Where(match).Limit(limit).Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to search knowledge corpus: %w", err)
	}
	return docs, nil
}

func (s *GormStore) CreateVoiceSignal(signal *models.VoiceSignal) error {
	return s.db.Create(signal).Error
}

func (s *GormStore) CreateCycleRun(run *models.CycleRun) error {
	return s.db.Create(run).Error
}

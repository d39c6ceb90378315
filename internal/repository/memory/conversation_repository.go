package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// ConversationRecord is transient bookkeeping for a conversation this process
// created or served. Conversation state itself is owned by the completion
// backend; this cache only feeds logs and audit counters.
type ConversationRecord struct {
	Id        string
	CreatedAt time.Time
	Turns     int
}

type ConversationRepository struct {
	cache *cache.Cache
}

func NewConversationRepository() *ConversationRepository {
	// Default expiration of 1 hour, purge of expired items every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &ConversationRepository{
		cache: c,
	}
}

func (r *ConversationRepository) Save(record *ConversationRecord) {
	r.cache.Set(record.Id, record, cache.DefaultExpiration)
}

func (r *ConversationRepository) Get(conversationId string) (*ConversationRecord, bool) {
	if x, found := r.cache.Get(conversationId); found {
		return x.(*ConversationRecord), true
	}
	return nil, false
}

// IncrementTurns bumps the turn counter, creating a record for
// caller-supplied conversations this process has not seen before.
func (r *ConversationRepository) IncrementTurns(conversationId string) {
	record, found := r.Get(conversationId)
	if !found {
		record = &ConversationRecord{
			Id:        conversationId,
			CreatedAt: time.Now(),
		}
	}
	record.Turns++
	r.Save(record)
}

func (r *ConversationRepository) Delete(conversationId string) {
	r.cache.Delete(conversationId)
}

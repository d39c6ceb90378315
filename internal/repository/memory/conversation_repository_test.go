package memory

import (
	"testing"
	"time"
)

func TestSaveAndGet(t *testing.T) {
	repo := NewConversationRepository()

	repo.Save(&ConversationRecord{Id: "conv_1", CreatedAt: time.Now()})

	record, found := repo.Get("conv_1")
	if !found {
		t.Fatal("Get() found = false, want true")
	}
	if record.Id != "conv_1" {
		t.Errorf("Id = %q, want conv_1", record.Id)
	}
	if record.Turns != 0 {
		t.Errorf("Turns = %d, want 0", record.Turns)
	}

	if _, found := repo.Get("conv_missing"); found {
		t.Error("Get() on unknown id found = true, want false")
	}
}

func TestIncrementTurns(t *testing.T) {
	repo := NewConversationRepository()
	repo.Save(&ConversationRecord{Id: "conv_1", CreatedAt: time.Now()})

	repo.IncrementTurns("conv_1")
	repo.IncrementTurns("conv_1")

	record, found := repo.Get("conv_1")
	if !found {
		t.Fatal("record missing after increments")
	}
	if record.Turns != 2 {
		t.Errorf("Turns = %d, want 2", record.Turns)
	}
}

func TestIncrementTurnsUnknownConversation(t *testing.T) {
	repo := NewConversationRepository()

	repo.IncrementTurns("conv_external")

	record, found := repo.Get("conv_external")
	if !found {
		t.Fatal("expected a record for an unseen conversation id")
	}
	if record.Turns != 1 {
		t.Errorf("Turns = %d, want 1", record.Turns)
	}
}

func TestDelete(t *testing.T) {
	repo := NewConversationRepository()
	repo.Save(&ConversationRecord{Id: "conv_1", CreatedAt: time.Now()})

	repo.Delete("conv_1")

	if _, found := repo.Get("conv_1"); found {
		t.Error("record still present after Delete")
	}
}

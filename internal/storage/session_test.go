package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/dialogue-engine/pkg/narrative"
	"github.com/jwebster45206/dialogue-engine/pkg/session"
)

func TestMockStorage_SaveAndLoadSession(t *testing.T) {
	mockStorage := NewMockStorage()
	ctx := context.Background()

	sess := session.New("derelict_station.json", narrative.PhaseGreeting)
	sess.PlayerName = "Dana"
	sess.RecordPlayerTurn("Hello?", "", nil)

	err := mockStorage.SaveSession(ctx, sess.ID, sess)
	if err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	loaded, err := mockStorage.LoadSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Failed to load session: %v", err)
	}

	if loaded == nil {
		t.Fatal("Expected non-nil session")
	}

	if loaded.ID != sess.ID {
		t.Errorf("Expected ID %v, got %v", sess.ID, loaded.ID)
	}

	if loaded.PlayerName != "Dana" {
		t.Errorf("Expected player name 'Dana', got %v", loaded.PlayerName)
	}

	if len(loaded.Dialogue.History) != 1 {
		t.Errorf("Expected 1 history turn, got %d", len(loaded.Dialogue.History))
	}
}

func TestMockStorage_LoadNonExistentSession(t *testing.T) {
	mockStorage := NewMockStorage()
	ctx := context.Background()

	id := uuid.New()
	loaded, err := mockStorage.LoadSession(ctx, id)
	if err != nil {
		t.Fatalf("Expected no error for non-existent session, got: %v", err)
	}

	if loaded != nil {
		t.Error("Expected nil for non-existent session")
	}
}

func TestMockStorage_DeleteSession(t *testing.T) {
	mockStorage := NewMockStorage()
	ctx := context.Background()

	sess := session.New("derelict_station.json", narrative.PhaseGreeting)
	err := mockStorage.SaveSession(ctx, sess.ID, sess)
	if err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	loaded, err := mockStorage.LoadSession(ctx, sess.ID)
	if err != nil || loaded == nil {
		t.Fatal("Session should exist before deletion")
	}

	err = mockStorage.DeleteSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}

	loaded, err = mockStorage.LoadSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Unexpected error after deletion: %v", err)
	}
	if loaded != nil {
		t.Error("Session should be nil after deletion")
	}
}

func TestMockStorage_UpdateSession(t *testing.T) {
	mockStorage := NewMockStorage()
	ctx := context.Background()

	sess := session.New("derelict_station.json", narrative.PhaseGreeting)
	err := mockStorage.SaveSession(ctx, sess.ID, sess)
	if err != nil {
		t.Fatalf("Failed to save initial session: %v", err)
	}

	sess.RecordPlayerTurn("What happened here?", "", []string{"the incident"})
	sess.RecordPlayerTurn("Tell me more.", "", nil)

	err = mockStorage.SaveSession(ctx, sess.ID, sess)
	if err != nil {
		t.Fatalf("Failed to update session: %v", err)
	}

	loaded, err := mockStorage.LoadSession(ctx, sess.ID)
	if err != nil || loaded == nil {
		t.Fatal("Failed to load updated session")
	}

	if loaded.Dialogue.TurnCount != 2 {
		t.Errorf("Expected turn count 2, got %d", loaded.Dialogue.TurnCount)
	}
}

package badger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/recall/core"
)

func TestConversationBasics(t *testing.T) {
	_, convoRepo, backend, err := NewMemoryRepositories("test_en")
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	// Unknown thread yields empty history, not an error
	turns, err := convoRepo.History(ctx, "thread-1")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("Expected empty history, got %d turns", len(turns))
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	err = convoRepo.AppendTurns(ctx, "thread-1",
		core.Turn{Role: core.RoleUser, Content: "Where do I work?", Timestamp: now},
		core.Turn{Role: core.RoleAssistant, Content: "At Company X.", Timestamp: now},
	)
	if err != nil {
		t.Fatalf("AppendTurns failed: %v", err)
	}

	turns, err = convoRepo.History(ctx, "thread-1")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("Expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != core.RoleUser || turns[1].Role != core.RoleAssistant {
		t.Fatal("Turn order not preserved")
	}

	// Another thread stays untouched
	turns, err = convoRepo.History(ctx, "thread-2")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("Expected empty history for thread-2, got %d turns", len(turns))
	}
}

func TestConversationHistoryLimit(t *testing.T) {
	_, convoRepo, backend, err := NewMemoryRepositories("test_en")
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	for i := 0; i < historyLimit+10; i++ {
		err := convoRepo.AppendTurns(ctx, "long-thread",
			core.Turn{Role: core.RoleUser, Content: fmt.Sprintf("question %d", i)},
		)
		if err != nil {
			t.Fatalf("AppendTurns failed: %v", err)
		}
	}

	turns, err := convoRepo.History(ctx, "long-thread")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(turns) != historyLimit {
		t.Fatalf("Expected history capped at %d, got %d", historyLimit, len(turns))
	}
	// The oldest turns must be the ones dropped
	if turns[len(turns)-1].Content != fmt.Sprintf("question %d", historyLimit+9) {
		t.Fatalf("Most recent turn missing, got %q", turns[len(turns)-1].Content)
	}
}

func TestConversationConcurrentAppends(t *testing.T) {
	_, convoRepo, backend, err := NewMemoryRepositories("test_en")
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	const writers = 10

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := convoRepo.AppendTurns(ctx, "shared-thread",
				core.Turn{Role: core.RoleUser, Content: fmt.Sprintf("concurrent %d", i)},
			)
			if err != nil {
				t.Errorf("AppendTurns failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	turns, err := convoRepo.History(ctx, "shared-thread")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(turns) != writers {
		t.Fatalf("Lost appends under concurrency: expected %d turns, got %d", writers, len(turns))
	}
}

func TestConversationEmptyThreadID(t *testing.T) {
	_, convoRepo, backend, err := NewMemoryRepositories("test_en")
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	if _, err := convoRepo.History(ctx, ""); err == nil {
		t.Fatal("Expected error for empty thread id")
	}
	if err := convoRepo.AppendTurns(ctx, "", core.Turn{Role: core.RoleUser, Content: "hi"}); err == nil {
		t.Fatal("Expected error for empty thread id")
	}
}

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func fixedClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func TestMemoryRepositoryGetCreatesOnce(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	first, err := repo.Get(ctx, "919672618163")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first.State != StateStart || first.WelcomeShown || len(first.Cart) != 0 {
		t.Fatalf("unexpected default session: %+v", first)
	}

	second, _ := repo.Get(ctx, "919672618163")
	if !second.LastInteractionAt.Equal(first.LastInteractionAt) {
		t.Fatalf("expected repeated Get to return the same record")
	}
	if n, _ := repo.Count(ctx); n != 1 {
		t.Fatalf("expected 1 session, got %d", n)
	}
}

func TestMemoryRepositoryUpdateMergesAndStamps(t *testing.T) {
	repo := NewMemoryRepository()
	repo.now = fixedClock(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	before, _ := repo.Get(ctx, "u1")

	var p Patch
	p.SetCart([]string{"1", "1"})
	p.SetState(StateCartReview)
	updated, err := repo.Update(ctx, "u1", p)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.State != StateCartReview || len(updated.Cart) != 2 {
		t.Fatalf("patch not applied: %+v", updated)
	}
	if !updated.LastInteractionAt.After(before.LastInteractionAt) {
		t.Fatalf("expected LastInteractionAt to advance")
	}

	var only Patch
	only.SetPendingItem("6")
	again, _ := repo.Update(ctx, "u1", only)
	if again.State != StateCartReview || len(again.Cart) != 2 || again.PendingItem != "6" {
		t.Fatalf("expected shallow merge to keep untouched fields, got %+v", again)
	}

	empty, _ := repo.Update(ctx, "u1", Patch{})
	if !empty.LastInteractionAt.After(again.LastInteractionAt) {
		t.Fatalf("empty patch must still refresh LastInteractionAt")
	}
}

func TestMemoryRepositoryClearCartOnlyTouchesCart(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	var p Patch
	p.SetCart([]string{"4"})
	p.SetLastOrderID("ORD123456")
	repo.Update(ctx, "u1", p)

	if err := repo.ClearCart(ctx, "u1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	s, _ := repo.Get(ctx, "u1")
	if len(s.Cart) != 0 {
		t.Fatalf("expected empty cart, got %v", s.Cart)
	}
	if s.LastOrderID != "ORD123456" {
		t.Fatalf("expected last order id to survive, got %q", s.LastOrderID)
	}
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	var p Patch
	p.SetCart([]string{"1"})
	s, _ := repo.Update(ctx, "u1", p)
	s.Cart[0] = "tampered"

	stored, _ := repo.Get(ctx, "u1")
	if stored.Cart[0] != "1" {
		t.Fatalf("caller mutation leaked into repository: %v", stored.Cart)
	}
}

func TestMemoryRepositoryLookup(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if _, err := repo.Lookup(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if n, _ := repo.Count(ctx); n != 0 {
		t.Fatalf("Lookup must not create sessions, count=%d", n)
	}
	repo.Get(ctx, "u1")
	if _, err := repo.Lookup(ctx, "u1"); err != nil {
		t.Fatalf("expected session, got %v", err)
	}
}

func TestPatchIsZero(t *testing.T) {
	var p Patch
	if !p.IsZero() {
		t.Fatal("expected zero patch")
	}
	p.SetWelcomeShown(true)
	if p.IsZero() {
		t.Fatal("expected non-zero patch")
	}
}

func TestStateValid(t *testing.T) {
	if !StateAwaitingSubstitution.Valid() || !StateSupportMenu.Valid() {
		t.Fatal("expected known states to be valid")
	}
	if State("checkout").Valid() {
		t.Fatal("expected unknown state to be invalid")
	}
}

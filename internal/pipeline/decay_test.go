package pipeline

import (
	"context"
	"testing"
	"time"

	"leadscore_backend/platform/logger"
)

type decayConfigStub struct {
	days   int
	points int
}

func (d decayConfigStub) GetDecayCronSpec() string    { return "0 0 * * *" }
func (d decayConfigStub) GetDecayInactivityDays() int { return d.days }
func (d decayConfigStub) GetDecayPoints() int         { return d.points }

func seedInactiveLead(t *testing.T, store *fakeStore, email string, score int, lastActive time.Time) {
	t.Helper()
	lead, err := store.Create(context.Background(), createLeadWithEmail(email))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	store.mu.Lock()
	lead.CurrentScore = score
	lead.UpdatedAt = lastActive
	store.leads[lead.ID] = lead
	store.mu.Unlock()
}

func TestSweepDecaysInactiveLeads(t *testing.T) {
	store := newFakeStore()
	bus := &captureBus{}
	d := NewDecay(store, bus, decayConfigStub{days: 30, points: 5}, logger.New("development"))

	old := time.Now().AddDate(0, 0, -31)
	seedInactiveLead(t, store, "stale@example.com", 8, old)
	seedInactiveLead(t, store, "fresh@example.com", 8, time.Now())

	decayed, err := d.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if decayed != 1 {
		t.Fatalf("decayed = %d, want 1", decayed)
	}

	stale, _ := store.leadByEmail("stale@example.com")
	if stale.CurrentScore != 3 {
		t.Fatalf("stale score = %d, want 3", stale.CurrentScore)
	}
	fresh, _ := store.leadByEmail("fresh@example.com")
	if fresh.CurrentScore != 8 {
		t.Fatalf("fresh score = %d, want untouched 8", fresh.CurrentScore)
	}

	history := store.historyFor(stale.ID)
	if len(history) != 1 {
		t.Fatalf("history rows = %d, want 1", len(history))
	}
	if history[0].ScoreChange != -5 || history[0].ResultingScore != 3 {
		t.Fatalf("history = %+v", history[0])
	}
	if history[0].Reason != "Inactivity Decay (30 days)" {
		t.Fatalf("reason = %q", history[0].Reason)
	}

	if got := len(bus.scoreUpdates()); got != 1 {
		t.Fatalf("notifications = %d, want 1", got)
	}
}

func TestSweepFloorsAtZero(t *testing.T) {
	store := newFakeStore()
	d := NewDecay(store, &captureBus{}, decayConfigStub{days: 30, points: 5}, logger.New("development"))

	old := time.Now().AddDate(0, 0, -45)
	seedInactiveLead(t, store, "tiny@example.com", 3, old)

	if _, err := d.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	lead, _ := store.leadByEmail("tiny@example.com")
	if lead.CurrentScore != 0 {
		t.Fatalf("score = %d, want floor 0", lead.CurrentScore)
	}

	history := store.historyFor(lead.ID)
	if len(history) != 1 || history[0].ScoreChange != -5 || history[0].ResultingScore != 0 {
		t.Fatalf("history = %+v", history)
	}
}

func TestSweepSkipsZeroScores(t *testing.T) {
	store := newFakeStore()
	d := NewDecay(store, &captureBus{}, decayConfigStub{days: 30, points: 5}, logger.New("development"))

	old := time.Now().AddDate(0, 0, -60)
	seedInactiveLead(t, store, "zero@example.com", 0, old)

	decayed, err := d.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if decayed != 0 {
		t.Fatalf("decayed = %d, want 0", decayed)
	}
	lead, _ := store.leadByEmail("zero@example.com")
	if len(store.historyFor(lead.ID)) != 0 {
		t.Fatal("zero-score lead got a ledger row")
	}
}

func TestSweepResetsInactivityWindow(t *testing.T) {
	store := newFakeStore()
	d := NewDecay(store, &captureBus{}, decayConfigStub{days: 30, points: 5}, logger.New("development"))

	old := time.Now().AddDate(0, 0, -31)
	seedInactiveLead(t, store, "once@example.com", 10, old)

	if _, err := d.Sweep(context.Background()); err != nil {
		t.Fatalf("first Sweep: %v", err)
	}
	// The decay write bumped updated_at, so a second immediate sweep finds
	// no candidates.
	decayed, err := d.Sweep(context.Background())
	if err != nil {
		t.Fatalf("second Sweep: %v", err)
	}
	if decayed != 0 {
		t.Fatalf("second sweep decayed = %d, want 0", decayed)
	}

	lead, _ := store.leadByEmail("once@example.com")
	if lead.CurrentScore != 5 {
		t.Fatalf("score = %d, want 5 after a single decay", lead.CurrentScore)
	}
}

func TestSweepDisabledWithZeroPoints(t *testing.T) {
	store := newFakeStore()
	d := NewDecay(store, &captureBus{}, decayConfigStub{days: 30, points: 0}, logger.New("development"))

	seedInactiveLead(t, store, "any@example.com", 10, time.Now().AddDate(0, 0, -90))

	decayed, err := d.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if decayed != 0 {
		t.Fatalf("decayed = %d, want 0 with decay disabled", decayed)
	}
}

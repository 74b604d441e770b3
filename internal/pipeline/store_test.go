package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"leadscore_backend/internal/events"
	"leadscore_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// fakeStore is an in-memory repository.Store for pipeline tests.
type fakeStore struct {
	mu      sync.Mutex
	leads   map[uuid.UUID]repository.Lead
	events  map[string]repository.EventRecord
	history []repository.ScoreHistory
	now     time.Time
}

var _ repository.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		leads:  make(map[uuid.UUID]repository.Lead),
		events: make(map[string]repository.EventRecord),
		now:    time.Now().UTC(),
	}
}

func (s *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (s *fakeStore) GetByEmail(ctx context.Context, email string) (repository.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, lead := range s.leads {
		if lead.Email != nil && *lead.Email == email {
			return lead, nil
		}
	}
	return repository.Lead{}, repository.ErrNotFound
}

func (s *fakeStore) GetByExternalID(ctx context.Context, externalID string) (repository.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, lead := range s.leads {
		if lead.ExternalID != nil && *lead.ExternalID == externalID {
			return lead, nil
		}
	}
	return repository.Lead{}, repository.ErrNotFound
}

func (s *fakeStore) Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead := repository.Lead{
		ID:         uuid.New(),
		Name:       params.Name,
		Email:      params.Email,
		ExternalID: params.ExternalID,
		Company:    params.Company,
		Status:     params.Status,
		CreatedAt:  s.now,
		UpdatedAt:  s.now,
	}
	s.leads[lead.ID] = lead
	return lead, nil
}

func (s *fakeStore) UpdateScore(ctx context.Context, id uuid.UUID, score int) (repository.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	lead.CurrentScore = score
	lead.UpdatedAt = time.Now().UTC()
	s.leads[id] = lead
	return lead, nil
}

func (s *fakeStore) ListInactive(ctx context.Context, cutoff time.Time) ([]repository.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []repository.Lead
	for _, lead := range s.leads {
		if lead.UpdatedAt.Before(cutoff) && lead.CurrentScore > 0 {
			result = append(result, lead)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt.Before(result[j].UpdatedAt) })
	return result, nil
}

func (s *fakeStore) ResetAllScores(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, lead := range s.leads {
		lead.CurrentScore = 0
		s.leads[id] = lead
	}
	return nil
}

func (s *fakeStore) GetByEventID(ctx context.Context, eventID string) (repository.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.events[eventID]
	if !ok {
		return repository.EventRecord{}, repository.ErrEventNotFound
	}
	return rec, nil
}

func (s *fakeStore) CreateEvent(ctx context.Context, params repository.CreateEventParams) (repository.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := repository.EventRecord{
		ID:         uuid.New(),
		EventID:    params.EventID,
		EventType:  params.EventType,
		Source:     params.Source,
		OccurredAt: params.OccurredAt,
		Metadata:   params.Metadata,
		LeadID:     params.LeadID,
		Processed:  params.Processed,
		CreatedAt:  s.now,
	}
	s.events[rec.EventID] = rec
	return rec, nil
}

func (s *fakeStore) ListProcessed(ctx context.Context) ([]repository.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []repository.EventRecord
	for _, rec := range s.events {
		if rec.Processed {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].OccurredAt.Before(result[j].OccurredAt) })
	return result, nil
}

func (s *fakeStore) DeleteAllEvents(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string]repository.EventRecord)
	return nil
}

func (s *fakeStore) AppendHistory(ctx context.Context, params repository.AppendHistoryParams) (repository.ScoreHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := repository.ScoreHistory{
		ID:             uuid.New(),
		LeadID:         params.LeadID,
		ScoreChange:    params.ScoreChange,
		ResultingScore: params.ResultingScore,
		Reason:         params.Reason,
		EventRef:       params.EventRef,
		OccurredAt:     time.Now().UTC(),
	}
	s.history = append(s.history, h)
	return h, nil
}

func (s *fakeStore) DeleteAllHistory(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	return nil
}

func (s *fakeStore) historyFor(leadID uuid.UUID) []repository.ScoreHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []repository.ScoreHistory
	for _, h := range s.history {
		if h.LeadID == leadID {
			result = append(result, h)
		}
	}
	return result
}

func (s *fakeStore) leadByEmail(email string) (repository.Lead, bool) {
	lead, err := s.GetByEmail(context.Background(), email)
	return lead, err == nil
}

func createLeadWithEmail(email string) repository.CreateLeadParams {
	e := email
	return repository.CreateLeadParams{Name: "Test Lead", Company: "Testco", Status: "new", Email: &e}
}

// fakeRules resolves points from a static map.
type fakeRules map[string]int

func (f fakeRules) ActivePoints(ctx context.Context, eventType string) (int, bool, error) {
	points, ok := f[eventType]
	return points, ok, nil
}

// captureBus records published events synchronously.
type captureBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *captureBus) Publish(ctx context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *captureBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *captureBus) Subscribe(eventName string, handler events.Handler) {}

func (b *captureBus) scoreUpdates() []events.ScoreUpdated {
	b.mu.Lock()
	defer b.mu.Unlock()
	var result []events.ScoreUpdated
	for _, e := range b.published {
		if su, ok := e.(events.ScoreUpdated); ok {
			result = append(result, su)
		}
	}
	return result
}

// Package service implements the leads read surface on top of the repository.
package service

import (
	"context"
	"errors"

	"leadscore_backend/internal/leads/repository"
	"leadscore_backend/internal/leads/transport"
	"leadscore_backend/platform/apperr"

	"github.com/google/uuid"
)

const leaderboardLimit = 10

// Service serves lead queries. All score mutation goes through the pipeline;
// this surface is read-only.
type Service struct {
	repo *repository.Repository
}

func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) (transport.LeadListResponse, error) {
	leads, err := s.repo.List(ctx)
	if err != nil {
		return transport.LeadListResponse{}, apperr.Wrap(apperr.KindInternal, "failed to list leads", err)
	}
	return toListResponse(leads), nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.LeadResponse{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return transport.LeadResponse{}, apperr.Wrap(apperr.KindInternal, "failed to fetch lead", err)
	}
	return toLeadResponse(lead), nil
}

func (s *Service) History(ctx context.Context, id uuid.UUID) (transport.LeadHistoryResponse, error) {
	// 404 on unknown lead rather than an empty ledger.
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadHistoryResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadHistoryResponse{}, apperr.Wrap(apperr.KindInternal, "failed to fetch lead", err)
	}

	history, err := s.repo.ListHistoryByLead(ctx, id)
	if err != nil {
		return transport.LeadHistoryResponse{}, apperr.Wrap(apperr.KindInternal, "failed to fetch score history", err)
	}

	entries := make([]transport.ScoreHistoryEntry, 0, len(history))
	for _, h := range history {
		entries = append(entries, transport.ScoreHistoryEntry{
			ID:             h.ID,
			ScoreChange:    h.ScoreChange,
			ResultingScore: h.ResultingScore,
			Reason:         h.Reason,
			EventRef:       h.EventRef,
			OccurredAt:     h.OccurredAt,
		})
	}
	return transport.LeadHistoryResponse{LeadID: id, Entries: entries}, nil
}

func (s *Service) Leaderboard(ctx context.Context) (transport.LeadListResponse, error) {
	leads, err := s.repo.Leaderboard(ctx, leaderboardLimit)
	if err != nil {
		return transport.LeadListResponse{}, apperr.Wrap(apperr.KindInternal, "failed to fetch leaderboard", err)
	}
	return toListResponse(leads), nil
}

func toLeadResponse(lead repository.Lead) transport.LeadResponse {
	resp := transport.LeadResponse{
		ID:           lead.ID,
		Name:         lead.Name,
		Company:      lead.Company,
		CurrentScore: lead.CurrentScore,
		Status:       lead.Status,
		CreatedAt:    lead.CreatedAt,
		UpdatedAt:    lead.UpdatedAt,
	}
	if lead.Email != nil {
		resp.Email = *lead.Email
	}
	if lead.ExternalID != nil {
		resp.ExternalID = *lead.ExternalID
	}
	return resp
}

func toListResponse(leads []repository.Lead) transport.LeadListResponse {
	items := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, toLeadResponse(lead))
	}
	return transport.LeadListResponse{Items: items, Total: len(items)}
}

package party

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/brokerledger/brokerledger/internal/shared"
)

// RepositoryPort defines data access methods for parties.
type RepositoryPort interface {
	Create(ctx context.Context, p Party) (*Party, error)
	Get(ctx context.Context, id int64) (*Party, error)
	FindByName(ctx context.Context, name string) (*Party, error)
	List(ctx context.Context, req ListPartiesRequest) ([]Party, int, error)
	Update(ctx context.Context, p Party) (*Party, error)
}

// ActivityRecorder appends audit entries for UI timelines.
type ActivityRecorder interface {
	Record(ctx context.Context, act shared.Activity) error
}

// Service handles party business logic.
type Service struct {
	repo     RepositoryPort
	activity ActivityRecorder
	logger   *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, activity ActivityRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, activity: activity, logger: logger}
}

// Create validates and persists a new party. Names must be unique among
// parties, compared case-insensitively.
func (s *Service) Create(ctx context.Context, req CreatePartyRequest, actorID int64) (*Party, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, shared.Invalid("name", "required")
	}
	if strings.TrimSpace(req.ContactPerson) == "" {
		return nil, shared.Invalid("contact_person", "required")
	}
	if strings.TrimSpace(req.Phone) == "" {
		return nil, shared.Invalid("phone", "required")
	}

	if existing, err := s.repo.FindByName(ctx, name); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, shared.Invalid("name", "party %q already exists", existing.Name)
	}

	created, err := s.repo.Create(ctx, Party{
		Name:          name,
		ContactPerson: strings.TrimSpace(req.ContactPerson),
		Phone:         strings.TrimSpace(req.Phone),
		Email:         req.Email,
		Address:       req.Address,
		GSTIN:         req.GSTIN,
		Notes:         req.Notes,
		IsActive:      true,
		CreatedBy:     actorID,
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actorID, "party.created", created.ID, map[string]any{"name": created.Name})
	return created, nil
}

// Update applies a partial edit to a party.
func (s *Service) Update(ctx context.Context, id int64, req UpdatePartyRequest, actorID int64) (*Party, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, shared.Invalid("name", "must not be empty")
		}
		if !strings.EqualFold(name, current.Name) {
			if existing, err := s.repo.FindByName(ctx, name); err != nil {
				return nil, err
			} else if existing != nil && existing.ID != id {
				return nil, shared.Invalid("name", "party %q already exists", existing.Name)
			}
		}
		current.Name = name
	}
	if req.ContactPerson != nil {
		current.ContactPerson = strings.TrimSpace(*req.ContactPerson)
	}
	if req.Phone != nil {
		current.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		current.Email = req.Email
	}
	if req.Address != nil {
		current.Address = req.Address
	}
	if req.GSTIN != nil {
		current.GSTIN = req.GSTIN
	}
	if req.Notes != nil {
		current.Notes = req.Notes
	}
	if req.IsActive != nil {
		current.IsActive = *req.IsActive
	}

	updated, err := s.repo.Update(ctx, *current)
	if err != nil {
		return nil, err
	}

	s.record(ctx, actorID, "party.updated", id, map[string]any{"name": updated.Name})
	return updated, nil
}

// Deactivate marks a party inactive instead of deleting it.
func (s *Service) Deactivate(ctx context.Context, id, actorID int64) (*Party, error) {
	inactive := false
	return s.Update(ctx, id, UpdatePartyRequest{IsActive: &inactive}, actorID)
}

// Get returns a single party.
func (s *Service) Get(ctx context.Context, id int64) (*Party, error) {
	return s.repo.Get(ctx, id)
}

// List returns parties matching the request plus pagination metadata.
func (s *Service) List(ctx context.Context, req ListPartiesRequest) ([]Party, shared.Pagination, error) {
	parties, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return parties, shared.NewPagination(req.Page, req.PerPage, total), nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, partyID int64, meta map[string]any) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ctx, shared.Activity{
		ActorID:  actorID,
		Action:   action,
		Entity:   "party",
		EntityID: strconv.FormatInt(partyID, 10),
		Meta:     meta,
	}); err != nil && s.logger != nil {
		s.logger.Warn("record activity", slog.String("action", action), slog.Any("error", err))
	}
}

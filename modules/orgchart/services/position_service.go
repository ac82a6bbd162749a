package services

import (
	"context"
	"net/http"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/position"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/events"
	"github.com/iota-uz/orgchart/pkg/eventbus"
)

type PositionService struct {
	repo      position.Repository
	tx        Transactor
	publisher eventbus.EventBus
}

func NewPositionService(repo position.Repository, tx Transactor, publisher eventbus.EventBus) *PositionService {
	return &PositionService{repo: repo, tx: tx, publisher: publisher}
}

func (s *PositionService) GetByID(ctx context.Context, id int64) (position.Position, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return position.Position{}, toServiceError(err)
	}
	return d, nil
}

func (s *PositionService) GetAll(ctx context.Context) ([]position.Position, error) {
	out, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, toServiceError(err)
	}
	return out, nil
}

func (s *PositionService) Create(ctx context.Context, dto *position.CreateDTO) (position.Position, error) {
	dto.Normalize()
	if err := validateDTO(dto); err != nil {
		return position.Position{}, err
	}
	created, err := inTx(ctx, s.tx, func(txCtx context.Context) (position.Position, error) {
		return s.repo.Create(txCtx, dto.ToEntity())
	})
	if err != nil {
		return position.Position{}, toServiceError(err)
	}
	s.publish(events.OpCreated, created)
	return created, nil
}

func (s *PositionService) Update(ctx context.Context, id int64, dto *position.UpdateDTO) (position.Position, error) {
	dto.Normalize()
	if err := validateDTO(dto); err != nil {
		return position.Position{}, err
	}
	updated, err := inTx(ctx, s.tx, func(txCtx context.Context) (position.Position, error) {
		existing, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return position.Position{}, err
		}
		existing.Name = dto.Name
		existing.Level = dto.Level
		existing.IsActive = dto.IsActive
		if err := s.repo.Update(txCtx, existing); err != nil {
			return position.Position{}, err
		}
		return s.repo.GetByID(txCtx, id)
	})
	if err != nil {
		return position.Position{}, toServiceError(err)
	}
	s.publish(events.OpUpdated, updated)
	return updated, nil
}

func (s *PositionService) SetActive(ctx context.Context, id int64, active bool) (position.Position, error) {
	updated, err := inTx(ctx, s.tx, func(txCtx context.Context) (position.Position, error) {
		existing, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return position.Position{}, err
		}
		if existing.IsActive == active {
			return existing, nil
		}
		existing.IsActive = active
		if err := s.repo.Update(txCtx, existing); err != nil {
			return position.Position{}, err
		}
		return s.repo.GetByID(txCtx, id)
	})
	if err != nil {
		return position.Position{}, toServiceError(err)
	}
	s.publish(events.OpUpdated, updated)
	return updated, nil
}

// Delete soft-deletes a position no employee holds.
func (s *PositionService) Delete(ctx context.Context, id int64) (position.Position, error) {
	deleted, err := inTx(ctx, s.tx, func(txCtx context.Context) (position.Position, error) {
		existing, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return position.Position{}, err
		}
		n, err := s.repo.CountEmployees(txCtx, id)
		if err != nil {
			return position.Position{}, err
		}
		if n > 0 {
			recordWriteConflict("in_use")
			return position.Position{}, newServiceError(http.StatusConflict, CodeInUse, "position is still held by employees", nil)
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return position.Position{}, err
		}
		return existing, nil
	})
	if err != nil {
		return position.Position{}, toServiceError(err)
	}
	s.publish(events.OpDeleted, deleted)
	return deleted, nil
}

func (s *PositionService) publish(op string, p position.Position) {
	if s.publisher != nil {
		s.publisher.Publish(&events.PositionChangedEvent{Op: op, Result: p})
	}
}

package services

import (
	"context"
	"net/http"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/department"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/events"
	"github.com/iota-uz/orgchart/pkg/eventbus"
)

type DepartmentService struct {
	repo      department.Repository
	tx        Transactor
	publisher eventbus.EventBus
}

func NewDepartmentService(repo department.Repository, tx Transactor, publisher eventbus.EventBus) *DepartmentService {
	return &DepartmentService{repo: repo, tx: tx, publisher: publisher}
}

func (s *DepartmentService) GetByID(ctx context.Context, id int64) (department.Department, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return department.Department{}, toServiceError(err)
	}
	return d, nil
}

func (s *DepartmentService) GetAll(ctx context.Context) ([]department.Department, error) {
	out, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, toServiceError(err)
	}
	return out, nil
}

func (s *DepartmentService) Create(ctx context.Context, dto *department.CreateDTO) (department.Department, error) {
	dto.Normalize()
	if err := validateDTO(dto); err != nil {
		return department.Department{}, err
	}
	created, err := inTx(ctx, s.tx, func(txCtx context.Context) (department.Department, error) {
		return s.repo.Create(txCtx, dto.ToEntity())
	})
	if err != nil {
		return department.Department{}, toServiceError(err)
	}
	s.publish(events.OpCreated, created)
	return created, nil
}

func (s *DepartmentService) Update(ctx context.Context, id int64, dto *department.UpdateDTO) (department.Department, error) {
	dto.Normalize()
	if err := validateDTO(dto); err != nil {
		return department.Department{}, err
	}
	updated, err := inTx(ctx, s.tx, func(txCtx context.Context) (department.Department, error) {
		existing, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return department.Department{}, err
		}
		existing.Name = dto.Name
		existing.Code = dto.Code
		existing.IsActive = dto.IsActive
		if err := s.repo.Update(txCtx, existing); err != nil {
			return department.Department{}, err
		}
		return s.repo.GetByID(txCtx, id)
	})
	if err != nil {
		return department.Department{}, toServiceError(err)
	}
	s.publish(events.OpUpdated, updated)
	return updated, nil
}

func (s *DepartmentService) SetActive(ctx context.Context, id int64, active bool) (department.Department, error) {
	updated, err := inTx(ctx, s.tx, func(txCtx context.Context) (department.Department, error) {
		existing, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return department.Department{}, err
		}
		if existing.IsActive == active {
			return existing, nil
		}
		existing.IsActive = active
		if err := s.repo.Update(txCtx, existing); err != nil {
			return department.Department{}, err
		}
		return s.repo.GetByID(txCtx, id)
	})
	if err != nil {
		return department.Department{}, toServiceError(err)
	}
	s.publish(events.OpUpdated, updated)
	return updated, nil
}

// Delete soft-deletes a department no employee belongs to.
func (s *DepartmentService) Delete(ctx context.Context, id int64) (department.Department, error) {
	deleted, err := inTx(ctx, s.tx, func(txCtx context.Context) (department.Department, error) {
		existing, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return department.Department{}, err
		}
		n, err := s.repo.CountEmployees(txCtx, id)
		if err != nil {
			return department.Department{}, err
		}
		if n > 0 {
			recordWriteConflict("in_use")
			return department.Department{}, newServiceError(http.StatusConflict, CodeInUse, "department still has employees", nil)
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return department.Department{}, err
		}
		return existing, nil
	})
	if err != nil {
		return department.Department{}, toServiceError(err)
	}
	s.publish(events.OpDeleted, deleted)
	return deleted, nil
}

func (s *DepartmentService) publish(op string, d department.Department) {
	if s.publisher != nil {
		s.publisher.Publish(&events.DepartmentChangedEvent{Op: op, Result: d})
	}
}

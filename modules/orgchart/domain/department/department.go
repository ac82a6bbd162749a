package department

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("department not found")

type Department struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Code      *string    `json:"code,omitempty"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	DeletedAt *time.Time `json:"-"`
}

type CreateDTO struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Code     *string `json:"code" validate:"omitempty,max=50"`
	IsActive *bool   `json:"is_active"`
}

func (d *CreateDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Code = trimOptional(d.Code)
}

func (d *CreateDTO) ToEntity() Department {
	active := true
	if d.IsActive != nil {
		active = *d.IsActive
	}
	return Department{Name: d.Name, Code: d.Code, IsActive: active}
}

type UpdateDTO struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Code     *string `json:"code" validate:"omitempty,max=50"`
	IsActive bool    `json:"is_active"`
}

func (d *UpdateDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Code = trimOptional(d.Code)
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (Department, error)
	GetAll(ctx context.Context) ([]Department, error)
	Create(ctx context.Context, d Department) (Department, error)
	Update(ctx context.Context, d Department) error
	Delete(ctx context.Context, id int64) error
	CountEmployees(ctx context.Context, id int64) (int64, error)
}

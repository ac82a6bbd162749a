package position

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotFound = errors.New("position not found")

type Level int

const (
	LevelIntern Level = iota
	LevelJunior
	LevelMidLevel
	LevelSenior
	LevelCoordinator
	LevelManager
	LevelDirector
)

var levelNames = [...]string{
	LevelIntern:      "Intern",
	LevelJunior:      "Junior",
	LevelMidLevel:    "MidLevel",
	LevelSenior:      "Senior",
	LevelCoordinator: "Coordinator",
	LevelManager:     "Manager",
	LevelDirector:    "Director",
}

func (l Level) String() string {
	if l < LevelIntern || l > LevelDirector {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

func (l Level) Valid() bool {
	return l >= LevelIntern && l <= LevelDirector
}

// ParseLevel accepts either the level name (case-insensitive) or its numeric value.
func ParseLevel(s string) (Level, error) {
	s = strings.TrimSpace(s)
	for i, name := range levelNames {
		if strings.EqualFold(name, s) || fmt.Sprint(i) == s {
			return Level(i), nil
		}
	}
	return 0, fmt.Errorf("unknown position level %q", s)
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	parsed, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

type Position struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Level     Level      `json:"level"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	DeletedAt *time.Time `json:"-"`
}

type CreateDTO struct {
	Name     string `json:"name" validate:"required,max=200"`
	Level    Level  `json:"level" validate:"gte=0,lte=6"`
	IsActive *bool  `json:"is_active"`
}

func (d *CreateDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
}

func (d *CreateDTO) ToEntity() Position {
	active := true
	if d.IsActive != nil {
		active = *d.IsActive
	}
	return Position{Name: d.Name, Level: d.Level, IsActive: active}
}

type UpdateDTO struct {
	Name     string `json:"name" validate:"required,max=200"`
	Level    Level  `json:"level" validate:"gte=0,lte=6"`
	IsActive bool   `json:"is_active"`
}

func (d *UpdateDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (Position, error)
	GetAll(ctx context.Context) ([]Position, error)
	Create(ctx context.Context, p Position) (Position, error)
	Update(ctx context.Context, p Position) error
	Delete(ctx context.Context, id int64) error
	CountEmployees(ctx context.Context, id int64) (int64, error)
}

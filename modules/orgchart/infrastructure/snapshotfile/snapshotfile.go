// Package snapshotfile reads org chart fixtures from YAML. A file can be
// loaded verbatim into the in-memory store for offline inspection, or seeded
// through the services so every invariant is enforced.
package snapshotfile

import (
	"bytes"
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/department"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/position"
	"github.com/iota-uz/orgchart/modules/orgchart/infrastructure/memstore"
)

const dateLayout = "2006-01-02"

type File struct {
	Departments []Department `yaml:"departments"`
	Positions   []Position   `yaml:"positions"`
	Employees   []Employee   `yaml:"employees"`
}

type Department struct {
	ID       int64   `yaml:"id"`
	Name     string  `yaml:"name"`
	Code     *string `yaml:"code,omitempty"`
	Inactive bool    `yaml:"inactive,omitempty"`
}

type Position struct {
	ID       int64          `yaml:"id"`
	Name     string         `yaml:"name"`
	Level    position.Level `yaml:"level"`
	Inactive bool           `yaml:"inactive,omitempty"`
}

type Employee struct {
	ID           int64  `yaml:"id"`
	Name         string `yaml:"name"`
	Email        string `yaml:"email"`
	DepartmentID int64  `yaml:"department_id"`
	PositionID   int64  `yaml:"position_id"`
	ManagerID    *int64 `yaml:"manager_id,omitempty"`
	HireDate     string `yaml:"hire_date"`
}

func Read(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return File{}, nil
		}
		return File{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := f.validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

func ReadFile(path string) (File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	f, err := Read(bytes.NewReader(b))
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// validate checks the shape of the file only: positive unique ids and
// parseable dates. References and cycles are left to the consumers.
func (f File) validate() error {
	var problems []string
	check := func(kind string, ids []int64) {
		seen := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			if id <= 0 {
				problems = append(problems, fmt.Sprintf("%s id %d must be positive", kind, id))
				continue
			}
			if _, dup := seen[id]; dup {
				problems = append(problems, fmt.Sprintf("duplicate %s id %d", kind, id))
			}
			seen[id] = struct{}{}
		}
	}
	check("department", collect(f.Departments, func(d Department) int64 { return d.ID }))
	check("position", collect(f.Positions, func(p Position) int64 { return p.ID }))
	check("employee", collect(f.Employees, func(e Employee) int64 { return e.ID }))
	for _, e := range f.Employees {
		if _, err := time.Parse(dateLayout, e.HireDate); err != nil {
			problems = append(problems, fmt.Sprintf("employee %d: hire_date %q is not YYYY-MM-DD", e.ID, e.HireDate))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid snapshot: %s", strings.Join(problems, "; "))
	}
	return nil
}

func collect[T any](items []T, id func(T) int64) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func (e Employee) hireDate() time.Time {
	t, _ := time.Parse(dateLayout, e.HireDate)
	return t.UTC()
}

func (e Employee) managerID() *int64 {
	if e.ManagerID == nil {
		return nil
	}
	id := *e.ManagerID
	return &id
}

// Entities converts the file into domain values, ids unchanged.
func (f File) Entities() ([]department.Department, []position.Position, []employee.Employee) {
	departments := make([]department.Department, 0, len(f.Departments))
	for _, d := range f.Departments {
		departments = append(departments, department.Department{ID: d.ID, Name: d.Name, Code: d.Code, IsActive: !d.Inactive})
	}
	positions := make([]position.Position, 0, len(f.Positions))
	for _, p := range f.Positions {
		positions = append(positions, position.Position{ID: p.ID, Name: p.Name, Level: p.Level, IsActive: !p.Inactive})
	}
	employees := make([]employee.Employee, 0, len(f.Employees))
	for _, e := range f.Employees {
		employees = append(employees, employee.Employee{
			ID:           e.ID,
			Name:         e.Name,
			Email:        e.Email,
			DepartmentID: e.DepartmentID,
			PositionID:   e.PositionID,
			ManagerID:    e.managerID(),
			HireDate:     e.hireDate(),
		})
	}
	return departments, positions, employees
}

// LoadIntoMemstore returns a store holding the file contents verbatim,
// including any broken manager links, so integrity checks can report them.
func LoadIntoMemstore(f File) *memstore.Store {
	store := memstore.New()
	store.Load(f.Entities())
	return store
}

// Encode writes employees back out in file form, keeping their ids.
func Encode(w io.Writer, departments []department.Department, positions []position.Position, employees []employee.Employee) error {
	var f File
	for _, d := range departments {
		f.Departments = append(f.Departments, Department{ID: d.ID, Name: d.Name, Code: d.Code, Inactive: !d.IsActive})
	}
	for _, p := range positions {
		f.Positions = append(f.Positions, Position{ID: p.ID, Name: p.Name, Level: p.Level, Inactive: !p.IsActive})
	}
	for _, e := range employees {
		f.Employees = append(f.Employees, Employee{
			ID:           e.ID,
			Name:         e.Name,
			Email:        e.Email,
			DepartmentID: e.DepartmentID,
			PositionID:   e.PositionID,
			ManagerID:    e.ManagerID,
			HireDate:     e.HireDate.UTC().Format(dateLayout),
		})
	}
	slices.SortFunc(f.Employees, func(a, b Employee) int { return cmp.Compare(a.ID, b.ID) })
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return err
	}
	return enc.Close()
}

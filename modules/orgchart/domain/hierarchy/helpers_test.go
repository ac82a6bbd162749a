package hierarchy

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
)

// fakeStore is a flat id-keyed employee table answering the Store contract.
type fakeStore struct {
	mu      sync.Mutex
	byID    map[int64]employee.Employee
	queries atomic.Int64
	failOn  int64
}

var errStoreDown = errors.New("store down")

func newFakeStore(employees ...employee.Employee) *fakeStore {
	s := &fakeStore{byID: make(map[int64]employee.Employee, len(employees))}
	for _, e := range employees {
		s.byID[e.ID] = e
	}
	return s
}

func (s *fakeStore) GetByID(_ context.Context, id int64) (employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return employee.Employee{}, ErrNotFound
	}
	return e, nil
}

func (s *fakeStore) GetSubordinates(_ context.Context, managerID int64) ([]employee.Employee, error) {
	s.queries.Add(1)
	if s.failOn != 0 && s.failOn == managerID {
		return nil, errStoreDown
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []employee.Employee
	for _, e := range s.byID {
		if e.HasManager(managerID) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, compareEmployees)
	return out, nil
}

func (s *fakeStore) GetAll(_ context.Context) ([]employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]employee.Employee, 0, len(s.byID))
	for _, e := range s.byID {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b employee.Employee) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func emp(id int64, name string, managerID ...int64) employee.Employee {
	e := employee.Employee{ID: id, Name: name, Email: name + "@example.com"}
	if len(managerID) > 0 {
		m := managerID[0]
		e.ManagerID = &m
	}
	return e
}

func ptr(v int64) *int64 { return &v }

func ids(employees []employee.Employee) []int64 {
	out := make([]int64, 0, len(employees))
	for _, e := range employees {
		out = append(out, e.ID)
	}
	return out
}

// abc is the A(root) <- B <- C chain.
func abc() []employee.Employee {
	return []employee.Employee{
		emp(1, "A"),
		emp(2, "B", 1),
		emp(3, "C", 2),
	}
}

// wide builds a root with `fanout` managers each having `fanout` reports.
func wide(fanout int) []employee.Employee {
	out := []employee.Employee{emp(1, "root")}
	next := int64(2)
	for i := 0; i < fanout; i++ {
		mgr := next
		out = append(out, emp(mgr, "m"+string(rune('a'+i)), 1))
		next++
		for j := 0; j < fanout; j++ {
			out = append(out, emp(next, "r"+string(rune('a'+i))+string(rune('a'+j)), mgr))
			next++
		}
	}
	return out
}

package memstore

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/department"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/position"
)

var ErrNotInTx = errors.New("memstore: hierarchy lock requires a transaction")

type txKey struct{}

type state struct {
	employees   map[int64]employee.Employee
	departments map[int64]department.Department
	positions   map[int64]position.Position
	seq         int64
}

func (st state) clone() state {
	return state{
		employees:   maps.Clone(st.employees),
		departments: maps.Clone(st.departments),
		positions:   maps.Clone(st.positions),
		seq:         st.seq,
	}
}

// Store keeps employees, departments and positions in memory. Writers are
// serialized; a transaction holds the writer lock until it ends, works on a
// private copy of the state and publishes it only when fn succeeds, so
// readers outside the transaction never see uncommitted data.
type Store struct {
	writer sync.Mutex
	mu     sync.RWMutex
	st     state
	now    func() time.Time
}

// txState is the working copy of a running transaction.
type txState struct {
	mu sync.RWMutex
	st state
}

func New() *Store {
	return &Store{
		st: state{
			employees:   make(map[int64]employee.Employee),
			departments: make(map[int64]department.Department),
			positions:   make(map[int64]position.Position),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Employees() *EmployeeRepository     { return &EmployeeRepository{s: s} }
func (s *Store) Departments() *DepartmentRepository { return &DepartmentRepository{s: s} }
func (s *Store) Positions() *PositionRepository     { return &PositionRepository{s: s} }

func txFrom(ctx context.Context) *txState {
	tx, _ := ctx.Value(txKey{}).(*txState)
	return tx
}

func inTx(ctx context.Context) bool {
	return txFrom(ctx) != nil
}

// InTx runs fn with the writer lock held. Nested calls join the outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.writer.Lock()
	defer s.writer.Unlock()

	s.mu.RLock()
	tx := &txState{st: s.st.clone()}
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	s.mu.Lock()
	s.st = tx.st
	s.mu.Unlock()
	return nil
}

// LockHierarchy is satisfied by the writer lock InTx already holds.
func (s *Store) LockHierarchy(ctx context.Context) error {
	if !inTx(ctx) {
		return ErrNotInTx
	}
	return ctx.Err()
}

// write applies fn to the transaction's working copy, or to the committed
// state under the writer lock when called outside a transaction.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tx := txFrom(ctx); tx != nil {
		tx.mu.Lock()
		defer tx.mu.Unlock()
		return fn(&tx.st)
	}
	s.writer.Lock()
	defer s.writer.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.st)
}

func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tx := txFrom(ctx); tx != nil {
		tx.mu.RLock()
		defer tx.mu.RUnlock()
		return fn(&tx.st)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&s.st)
}

func (st *state) nextID() int64 {
	st.seq++
	return st.seq
}

func (st *state) bumpSeq(id int64) {
	if id > st.seq {
		st.seq = id
	}
}

// Load inserts records verbatim, keeping their ids and skipping all checks,
// so a snapshot file can describe data that is already inconsistent.
func (s *Store) Load(departments []department.Department, positions []position.Position, employees []employee.Employee) {
	s.writer.Lock()
	defer s.writer.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, d := range departments {
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
		}
		s.st.departments[d.ID] = d
		s.st.bumpSeq(d.ID)
	}
	for _, p := range positions {
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		s.st.positions[p.ID] = p
		s.st.bumpSeq(p.ID)
	}
	for _, e := range employees {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		e.Email = employee.NormalizeEmail(e.Email)
		s.st.employees[e.ID] = ownManager(e)
		s.st.bumpSeq(e.ID)
	}
}

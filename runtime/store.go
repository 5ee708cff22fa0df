package runtime

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/lutradb/lutra/compiler/ram"
)

// Tuple is one row of a relation.
type Tuple []ram.Domain

// Store holds named relations of fixed arity with set semantics.  All
// methods are safe for concurrent use so an executor may evaluate
// Parallel statements concurrently; the RAM tree itself is never
// mutated at run time.
type Store struct {
	mu        sync.RWMutex
	relations map[string]*relation
}

type relation struct {
	arity  int
	keys   map[string]struct{}
	tuples []Tuple
}

func NewStore() *Store {
	return &Store{relations: make(map[string]*relation)}
}

// Define creates an empty relation.  Redefining an existing relation
// with the same arity is a no-op.
func (s *Store) Define(name string, arity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rel, ok := s.relations[name]; ok {
		if rel.arity != arity {
			return fmt.Errorf("relation %s redefined with arity %d (was %d)", name, arity, rel.arity)
		}
		return nil
	}
	s.relations[name] = &relation{arity: arity, keys: make(map[string]struct{})}
	return nil
}

func (s *Store) relationLocked(name string) (*relation, error) {
	rel, ok := s.relations[name]
	if !ok {
		return nil, fmt.Errorf("unknown relation %s", name)
	}
	return rel, nil
}

// Insert adds t to the relation, reporting whether it was new.
func (s *Store) Insert(name string, t Tuple) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rel, err := s.relationLocked(name)
	if err != nil {
		return false, err
	}
	if len(t) != rel.arity {
		return false, fmt.Errorf("relation %s: inserting arity %d into arity %d", name, len(t), rel.arity)
	}
	return rel.insert(t), nil
}

func (r *relation) insert(t Tuple) bool {
	k := key(t)
	if _, ok := r.keys[k]; ok {
		return false
	}
	r.keys[k] = struct{}{}
	r.tuples = append(r.tuples, append(Tuple(nil), t...))
	return true
}

// Tuples returns a snapshot of the relation's contents; the caller may
// iterate it while inserting into the store.
func (s *Store) Tuples(name string) ([]Tuple, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rel, err := s.relationLocked(name)
	if err != nil {
		return nil, err
	}
	return append([]Tuple(nil), rel.tuples...), nil
}

// Match returns a snapshot of the tuples whose attributes equal vals at
// every position where bound is true.
func (s *Store) Match(name string, vals []ram.Domain, bound []bool) ([]Tuple, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rel, err := s.relationLocked(name)
	if err != nil {
		return nil, err
	}
	var matches []Tuple
	for _, t := range rel.tuples {
		if matchTuple(t, vals, bound) {
			matches = append(matches, t)
		}
	}
	return matches, nil
}

// Contains reports whether any tuple matches vals at the bound
// positions.
func (s *Store) Contains(name string, vals []ram.Domain, bound []bool) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rel, err := s.relationLocked(name)
	if err != nil {
		return false, err
	}
	for _, t := range rel.tuples {
		if matchTuple(t, vals, bound) {
			return true, nil
		}
	}
	return false, nil
}

func matchTuple(t Tuple, vals []ram.Domain, bound []bool) bool {
	for i, b := range bound {
		if b && t[i] != vals[i] {
			return false
		}
	}
	return true
}

// Size returns the number of tuples in the relation.
func (s *Store) Size(name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rel, err := s.relationLocked(name)
	if err != nil {
		return 0, err
	}
	return len(rel.tuples), nil
}

// Arity returns the declared arity of the relation.
func (s *Store) Arity(name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rel, err := s.relationLocked(name)
	if err != nil {
		return 0, err
	}
	return rel.arity, nil
}

// Clear removes every tuple of the relation.
func (s *Store) Clear(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rel, err := s.relationLocked(name)
	if err != nil {
		return err
	}
	rel.keys = make(map[string]struct{})
	rel.tuples = nil
	return nil
}

// Copy adds every tuple of source to target, leaving source untouched.
func (s *Store) Copy(target, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dst, err := s.relationLocked(target)
	if err != nil {
		return err
	}
	src, err := s.relationLocked(source)
	if err != nil {
		return err
	}
	if dst.arity != src.arity {
		return fmt.Errorf("copying %s (arity %d) into %s (arity %d)", source, src.arity, target, dst.arity)
	}
	for _, t := range src.tuples {
		dst.insert(t)
	}
	return nil
}

// Move adds every tuple of source to target and clears source.
func (s *Store) Move(target, source string) error {
	if err := s.Copy(target, source); err != nil {
		return err
	}
	return s.Clear(source)
}

// Swap exchanges the contents of two relations of equal arity.
func (s *Store) Swap(first, second string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.relationLocked(first)
	if err != nil {
		return err
	}
	b, err := s.relationLocked(second)
	if err != nil {
		return err
	}
	if a.arity != b.arity {
		return fmt.Errorf("swapping %s (arity %d) with %s (arity %d)", first, a.arity, second, b.arity)
	}
	a.keys, b.keys = b.keys, a.keys
	a.tuples, b.tuples = b.tuples, a.tuples
	return nil
}

// Relations returns the defined relation names in unspecified order.
func (s *Store) Relations() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.relations))
	for name := range s.relations {
		names = append(names, name)
	}
	return names
}

func key(t Tuple) string {
	var b strings.Builder
	for i, v := range t {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(v, 10))
	}
	return b.String()
}

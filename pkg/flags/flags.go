// Package flags stores boolean UI markers keyed by name, such as the
// "a filter was just applied" marker a listing view uses to decide whether to
// show a placeholder instead of stale results.
package flags

import "sync"

// FilterApplied is set when filters change and cleared once a page for the
// new filters has loaded.
const FilterApplied = "filterApplied"

// Store is a set of named flags.
type Store interface {
	Set(key string) error
	IsSet(key string) (bool, error)
	Clear(key string) error
}

// Memory is an in-process Store.
type Memory struct {
	m sync.Map
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{}
}

func (s *Memory) Set(key string) error {
	s.m.Store(key, struct{}{})
	return nil
}

func (s *Memory) IsSet(key string) (bool, error) {
	_, ok := s.m.Load(key)
	return ok, nil
}

func (s *Memory) Clear(key string) error {
	s.m.Delete(key)
	return nil
}

// Keys returns the names of all set flags, in no particular order.
func (s *Memory) Keys() []string {
	var keys []string
	s.m.Range(func(k, _ any) bool {
		keys = append(keys, k.(string))
		return true
	})
	return keys
}

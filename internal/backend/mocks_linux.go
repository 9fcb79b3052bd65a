//go:build linux
// +build linux

package backend

import (
	"bytes"
	"sync"

	"github.com/google/nftables"
	"github.com/stretchr/testify/mock"
)

// MockNFTablesConn is a mock implementation of NFTablesConn for testing.
type MockNFTablesConn struct {
	mock.Mock
	mu sync.Mutex

	// In-memory state for tracking operations
	tables   map[string]*nftables.Table
	sets     map[string]*nftables.Set
	elements map[string][]nftables.SetElement
}

// NewMockNFTablesConn creates a new mock nftables connection.
func NewMockNFTablesConn() *MockNFTablesConn {
	return &MockNFTablesConn{
		tables:   make(map[string]*nftables.Table),
		sets:     make(map[string]*nftables.Set),
		elements: make(map[string][]nftables.SetElement),
	}
}

func (m *MockNFTablesConn) AddTable(t *nftables.Table) *nftables.Table {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Called(t)
	m.tables[t.Name] = t
	return t
}

func (m *MockNFTablesConn) ListTables() ([]*nftables.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called()
	if args.Get(0) != nil {
		return args.Get(0).([]*nftables.Table), args.Error(1)
	}
	// Return in-memory tables
	tables := make([]*nftables.Table, 0, len(m.tables))
	for _, t := range m.tables {
		tables = append(tables, t)
	}
	return tables, args.Error(1)
}

func (m *MockNFTablesConn) AddSet(s *nftables.Set, vals []nftables.SetElement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(s, vals)
	m.sets[s.Name] = s
	if len(vals) > 0 {
		m.elements[s.Name] = append(m.elements[s.Name], vals...)
	}
	return args.Error(0)
}

func (m *MockNFTablesConn) GetSets(t *nftables.Table) ([]*nftables.Set, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(t)
	if args.Get(0) != nil {
		return args.Get(0).([]*nftables.Set), args.Error(1)
	}
	sets := make([]*nftables.Set, 0, len(m.sets))
	for _, s := range m.sets {
		if s.Table.Name == t.Name {
			sets = append(sets, s)
		}
	}
	return sets, args.Error(1)
}

func (m *MockNFTablesConn) GetSetElements(s *nftables.Set) ([]nftables.SetElement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(s)
	if args.Get(0) != nil {
		return args.Get(0).([]nftables.SetElement), args.Error(1)
	}
	elems := make([]nftables.SetElement, len(m.elements[s.Name]))
	copy(elems, m.elements[s.Name])
	return elems, args.Error(1)
}

func (m *MockNFTablesConn) SetAddElements(s *nftables.Set, vals []nftables.SetElement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(s, vals)
	m.elements[s.Name] = append(m.elements[s.Name], vals...)
	return args.Error(0)
}

func (m *MockNFTablesConn) SetDeleteElements(s *nftables.Set, vals []nftables.SetElement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(s, vals)
	kept := m.elements[s.Name][:0]
	for _, e := range m.elements[s.Name] {
		if !containsElement(vals, e) {
			kept = append(kept, e)
		}
	}
	m.elements[s.Name] = kept
	return args.Error(0)
}

func (m *MockNFTablesConn) FlushSet(s *nftables.Set) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Called(s)
	delete(m.elements, s.Name)
}

func (m *MockNFTablesConn) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called()
	return args.Error(0)
}

// Helper methods for test assertions

// GetTableCount returns the number of tables.
func (m *MockNFTablesConn) GetTableCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tables)
}

// GetElementCount returns the number of stored elements in a set.
func (m *MockNFTablesConn) GetElementCount(setName string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.elements[setName])
}

func containsElement(vals []nftables.SetElement, e nftables.SetElement) bool {
	for _, v := range vals {
		if v.IntervalEnd == e.IntervalEnd && bytes.Equal(v.Key, e.Key) {
			return true
		}
	}
	return false
}

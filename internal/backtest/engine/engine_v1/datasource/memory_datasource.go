package datasource

import (
	"slices"

	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
)

// MemoryDataSource serves quotes held in memory, keyed by the path passed to Initialize.
type MemoryDataSource struct {
	files   map[string][]types.Quote
	current []types.Quote
	ready   bool
}

// NewMemoryDataSource creates a data source over the given quote sets.
func NewMemoryDataSource(files map[string][]types.Quote) *MemoryDataSource {
	return &MemoryDataSource{
		files:   files,
		current: nil,
		ready:   false,
	}
}

// Initialize implements DataSource.
func (m *MemoryDataSource) Initialize(path string) error {
	quotes, ok := m.files[path]
	if !ok {
		return errors.Newf(errors.ErrCodeDataNotFound, "no quotes loaded for %s", path)
	}

	m.current = slices.Clone(quotes)
	m.ready = true

	return nil
}

// ReadAll implements DataSource.
func (m *MemoryDataSource) ReadAll() func(yield func(types.Quote, error) bool) {
	return func(yield func(types.Quote, error) bool) {
		if !m.ready {
			yield(types.Quote{}, errors.New(errors.ErrCodeDataSourceUnavailable, "data source is not initialized"))

			return
		}

		for _, quote := range m.current {
			if !yield(quote, nil) {
				return
			}
		}
	}
}

// Count implements DataSource.
func (m *MemoryDataSource) Count() (int, error) {
	if !m.ready {
		return 0, errors.New(errors.ErrCodeDataSourceUnavailable, "data source is not initialized")
	}

	return len(m.current), nil
}

// Close implements DataSource.
func (m *MemoryDataSource) Close() error {
	m.current = nil
	m.ready = false

	return nil
}

package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/facets/internal/storetest"
	"github.com/mesh-intelligence/facets/pkg/document"
	"github.com/mesh-intelligence/facets/pkg/types"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) (types.Store[document.Document], types.Config) {
		return NewStore[document.Document](nil, nil), types.Config{Backend: types.BackendMemory}
	})
}

func TestStore_DetachDropsData(t *testing.T) {
	s := NewStore[document.Document](nil, nil)
	cfg := types.Config{Backend: types.BackendMemory}
	require.NoError(t, s.Attach(cfg))
	require.NoError(t, s.SaveSubject("p1", document.Document{"name": "John"}))
	require.NoError(t, s.Detach())

	require.NoError(t, s.Attach(cfg))
	defer s.Detach()
	_, err := s.LoadSubject("p1")
	assert.ErrorIs(t, err, types.ErrSubjectNotFound)
}

func TestStore_EncodeError(t *testing.T) {
	s := NewStore[document.Document](nil, nil)
	require.NoError(t, s.Attach(types.Config{Backend: types.BackendMemory}))
	defer s.Detach()

	err := s.SaveSubject("p1", document.Document{"ch": make(chan int)})
	assert.ErrorIs(t, err, types.ErrInvalidData)
}

// Package storetest holds the behavior every types.Store implementation must
// show, run by each store package's tests.
package storetest

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/facets/pkg/document"
	"github.com/mesh-intelligence/facets/pkg/facet"
	"github.com/mesh-intelligence/facets/pkg/types"
)

// Opener returns a detached store and the config that attaches it.
type Opener func(t *testing.T) (types.Store[document.Document], types.Config)

var licence = facet.Unique[document.Document]("storetest.Licence").MustBuild()

// attached opens and attaches a store, detaching it at cleanup.
func attached(t *testing.T, open Opener) types.Store[document.Document] {
	t.Helper()
	s, cfg := open(t)
	require.NoError(t, s.Attach(cfg))
	t.Cleanup(func() { _ = s.Detach() })
	return s
}

// Run exercises the lifecycle, facet and subject operations of a store.
func Run(t *testing.T, open Opener) {
	t.Run("lifecycle", func(t *testing.T) {
		s, cfg := open(t)
		require.NoError(t, s.Attach(cfg))
		assert.ErrorIs(t, s.Attach(cfg), types.ErrAlreadyAttached)

		b, err := s.Backend("p1")
		require.NoError(t, err)

		require.NoError(t, s.Detach())
		require.NoError(t, s.Detach(), "detach is idempotent")

		_, err = s.Backend("p1")
		assert.ErrorIs(t, err, types.ErrStoreDetached)
		_, err = s.Subjects()
		assert.ErrorIs(t, err, types.ErrStoreDetached)
		assert.ErrorIs(t, s.SaveSubject("p1", document.Document{}), types.ErrStoreDetached)
		_, err = s.LoadSubject("p1")
		assert.ErrorIs(t, err, types.ErrStoreDetached)
		_, err = b.HasFacetData("t", "t")
		assert.ErrorIs(t, err, types.ErrStoreDetached, "backends taken before detach stop working")
	})

	t.Run("invalid config", func(t *testing.T) {
		s, cfg := open(t)
		cfg.Cache.Strategy = "lru"
		assert.Error(t, s.Attach(cfg))
	})

	t.Run("facet data", func(t *testing.T) {
		s := attached(t, open)
		_, err := s.Backend("")
		assert.ErrorIs(t, err, types.ErrInvalidOwner)

		b, err := s.Backend("p1")
		require.NoError(t, err)

		ok, err := b.HasFacetData("team", "red")
		require.NoError(t, err)
		assert.False(t, ok)
		_, ok, err = b.GetFacetData("team", "red")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, b.AddFacetData("team", "red", document.Document{"position": "goal"}))
		assert.ErrorIs(t, b.AddFacetData("team", "red", document.Document{"position": "back"}), types.ErrDuplicateFacet)

		d, ok, err := b.GetFacetData("team", "red")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "goal", d["position"], "duplicate add must not overwrite")

		d["position"] = "mutated"
		again, _, err := b.GetFacetData("team", "red")
		require.NoError(t, err)
		assert.Equal(t, "goal", again["position"], "reads are copies")

		ins, ok := b.(types.InsertIfAbsent[document.Document])
		require.True(t, ok)
		inserted, err := ins.InsertFacetData("team", "red", document.Document{})
		require.NoError(t, err)
		assert.False(t, inserted)
		inserted, err = ins.InsertFacetData("team", "blue", document.Document{"position": "wing"})
		require.NoError(t, err)
		assert.True(t, inserted)

		up, ok := b.(types.Updater[document.Document])
		require.True(t, ok)
		require.NoError(t, up.SetFacetData("team", "red", document.Document{"position": "back"}))
		d, _, _ = b.GetFacetData("team", "red")
		assert.Equal(t, "back", d["position"])
		assert.ErrorIs(t, up.SetFacetData("team", "green", document.Document{}), types.ErrFacetNotFound)

		require.NoError(t, b.AddFacetData("licence", "licence", document.Document{"number": "ABCDEF"}))
		l, ok := b.(types.Lister)
		require.True(t, ok)
		keys, err := l.FacetKeys()
		require.NoError(t, err)
		assert.Equal(t, []types.Key{
			types.UniqueKey("licence"),
			types.NewKey("team", "blue"),
			types.NewKey("team", "red"),
		}, keys)

		r, ok := b.(types.Remover)
		require.True(t, ok)
		removed, err := r.RemoveFacetData("team", "blue")
		require.NoError(t, err)
		assert.True(t, removed)
		removed, err = r.RemoveFacetData("team", "blue")
		require.NoError(t, err)
		assert.False(t, removed)
		ok, _ = b.HasFacetData("team", "blue")
		assert.False(t, ok)
	})

	t.Run("owners are isolated", func(t *testing.T) {
		s := attached(t, open)
		a, err := s.Backend("a")
		require.NoError(t, err)
		b, err := s.Backend("b")
		require.NoError(t, err)

		require.NoError(t, a.AddFacetData("licence", "licence", document.Document{"number": "A"}))
		require.NoError(t, b.AddFacetData("licence", "licence", document.Document{"number": "B"}))

		da, _, _ := a.GetFacetData("licence", "licence")
		db, _, _ := b.GetFacetData("licence", "licence")
		assert.Equal(t, "A", da["number"])
		assert.Equal(t, "B", db["number"])

		keys, err := a.(types.Lister).FacetKeys()
		require.NoError(t, err)
		assert.Len(t, keys, 1)
	})

	t.Run("subjects", func(t *testing.T) {
		s := attached(t, open)

		_, err := s.LoadSubject("p1")
		assert.ErrorIs(t, err, types.ErrSubjectNotFound)
		assert.ErrorIs(t, s.SaveSubject("", document.Document{}), types.ErrInvalidOwner)

		require.NoError(t, s.SaveSubject("p2", document.Document{"name": "Ann"}))
		require.NoError(t, s.SaveSubject("p1", document.Document{"name": "John"}))
		require.NoError(t, s.SaveSubject("p1", document.Document{"name": "James"}))

		d, err := s.LoadSubject("p1")
		require.NoError(t, err)
		assert.Equal(t, "James", d["name"])

		ids, err := s.Subjects()
		require.NoError(t, err)
		assert.Equal(t, []string{"p1", "p2"}, ids)
	})

	t.Run("concurrent attach", func(t *testing.T) {
		s := attached(t, open)
		b, err := s.Backend("p1")
		require.NoError(t, err)

		const n = 16
		var wg sync.WaitGroup
		var ok, dup atomic.Int32
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				f := facet.New[document.Document](nil, b)
				_, err := f.AddFacet(licence, facet.Value(document.Document{"number": "A"}))
				switch {
				case err == nil:
					ok.Add(1)
				case errors.Is(err, types.ErrDuplicateFacet):
					dup.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), ok.Load())
		assert.Equal(t, int32(n-1), dup.Load())
	})
}

// RunDurable checks that data written before Detach is read back by a new
// store attached with the same config.
func RunDurable(t *testing.T, open func(t *testing.T, dataDir string) (types.Store[document.Document], types.Config)) {
	dir := t.TempDir()

	s, cfg := open(t, dir)
	require.NoError(t, s.Attach(cfg))
	b, err := s.Backend("p1")
	require.NoError(t, err)
	require.NoError(t, b.AddFacetData("licence", "licence", document.Document{"number": "ABCDEF"}))
	require.NoError(t, b.AddFacetData("team", "red", document.Document{"position": "goal"}))
	_, err = b.(types.Remover).RemoveFacetData("team", "red")
	require.NoError(t, err)
	require.NoError(t, s.SaveSubject("p1", document.Document{"name": "James"}))
	require.NoError(t, s.Detach())

	reopened, cfg := open(t, dir)
	require.NoError(t, reopened.Attach(cfg))
	defer reopened.Detach()

	b, err = reopened.Backend("p1")
	require.NoError(t, err)
	d, ok, err := b.GetFacetData("licence", "licence")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ABCDEF", d["number"])

	ok, err = b.HasFacetData("team", "red")
	require.NoError(t, err)
	assert.False(t, ok, "removal is durable")

	subject, err := reopened.LoadSubject("p1")
	require.NoError(t, err)
	assert.Equal(t, "James", subject["name"])
}

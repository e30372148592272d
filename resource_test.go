package polaris

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type widgetCount struct{ N int }
type widgetName struct{ S string }

func TestResources_InsertAndGet(t *testing.T) {
	r := NewResources()
	r.Insert(widgetCount{N: 3}, false)

	guard, err := Get[widgetCount](r)
	require.NoError(t, err)
	require.Equal(t, widgetCount{N: 3}, guard.Value())
	guard.Release()
}

func TestResources_GetMissing(t *testing.T) {
	r := NewResources()
	_, err := Get[widgetCount](r)
	require.Error(t, err)
	var resErr *ResourceError
	require.ErrorAs(t, err, &resErr)
	require.Equal(t, ResourceNotFound, resErr.Kind)
}

func TestResources_GetMutRejectsImmutable(t *testing.T) {
	r := NewResources()
	r.Insert(widgetCount{N: 1}, true)

	_, err := GetMut[widgetCount](r)
	require.Error(t, err)
	var resErr *ResourceError
	require.ErrorAs(t, err, &resErr)
	require.Equal(t, ResourceImmutable, resErr.Kind)
}

func TestResources_GetMutMutatesInPlace(t *testing.T) {
	r := NewResources()
	r.Insert(widgetCount{N: 1}, false)

	guard, err := GetMut[widgetCount](r)
	require.NoError(t, err)
	guard.Value().N = 42
	guard.Release()

	readGuard, err := Get[widgetCount](r)
	require.NoError(t, err)
	require.Equal(t, 42, readGuard.Value().N)
	readGuard.Release()
}

func TestResources_BorrowConflictOnConcurrentWrite(t *testing.T) {
	r := NewResources()
	r.Insert(widgetCount{N: 1}, false)

	guard, err := GetMut[widgetCount](r)
	require.NoError(t, err)
	defer guard.Release()

	_, err = GetMut[widgetCount](r)
	require.Error(t, err)
	var resErr *ResourceError
	require.ErrorAs(t, err, &resErr)
	require.Equal(t, ResourceBorrowConflict, resErr.Kind)
}

func TestResources_BorrowConflictDoesNotBlock(t *testing.T) {
	r := NewResources()
	r.Insert(widgetCount{N: 1}, false)

	guard, err := GetMut[widgetCount](r)
	require.NoError(t, err)

	// A concurrent attempt must return immediately with a conflict error
	// rather than blocking until guard.Release() — TryLock semantics.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := GetMut[widgetCount](r)
		require.Error(t, err)
	}()
	wg.Wait()
	guard.Release()
}

func TestResources_ContainsAndRemove(t *testing.T) {
	r := NewResources()
	require.False(t, Contains[widgetCount](r))

	r.Insert(widgetCount{N: 9}, false)
	require.True(t, Contains[widgetCount](r))

	val, ok := Remove[widgetCount](r)
	require.True(t, ok)
	require.Equal(t, widgetCount{N: 9}, val)
	require.False(t, Contains[widgetCount](r))
}

func TestResources_DistinctTypesDoNotCollide(t *testing.T) {
	r := NewResources()
	r.Insert(widgetCount{N: 1}, false)
	r.Insert(widgetName{S: "gizmo"}, false)

	c, err := Get[widgetCount](r)
	require.NoError(t, err)
	require.Equal(t, 1, c.Value().N)
	c.Release()

	n, err := Get[widgetName](r)
	require.NoError(t, err)
	require.Equal(t, "gizmo", n.Value().S)
	n.Release()
}

func TestResources_MergeCopiesEntries(t *testing.T) {
	seed := NewResources()
	seed.Insert(widgetCount{N: 5}, false)

	dst := NewResources()
	dst.merge(seed)

	guard, err := Get[widgetCount](dst)
	require.NoError(t, err)
	require.Equal(t, 5, guard.Value().N)
	guard.Release()
}

package polaris

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContext_WithResourcesSeedsLocals(t *testing.T) {
	seed := NewResources()
	seed.Insert(counterRes{N: 11}, false)

	server := NewServer()
	c := NewContext(server)
	c.WithResources(seed)

	guard, err := Get[counterRes](c.Locals())
	require.NoError(t, err)
	require.Equal(t, 11, guard.Value().N)
	guard.Release()
}

func TestContext_IDIsStableWithinOneExecution(t *testing.T) {
	server := NewServer()
	c := NewContext(server)
	id1 := c.ID()
	id2 := c.ID()
	require.Equal(t, id1, id2)
}

func TestContext_DistinctContextsGetDistinctIDs(t *testing.T) {
	server := NewServer()
	c1 := NewContext(server)
	c2 := NewContext(server)
	require.NotEqual(t, c1.ID(), c2.ID())
}

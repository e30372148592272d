package polaris

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// ContextPool reuses *Context allocations across graph executions
// against the same Server, adapted from the teacher's PoolManager:
// a sync.Pool per pooled type plus hit/miss counters for observability.
type ContextPool struct {
	pool    sync.Pool
	server  *Server
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// NewContextPool creates a pool of Contexts for repeated executions
// against the same built Server.
func NewContextPool(server *Server) *ContextPool {
	p := &ContextPool{server: server}
	p.pool.New = func() any {
		p.misses.Add(1)
		return NewContext(server)
	}
	return p
}

// Acquire returns a Context ready for one execution, with a fresh id.
// Contexts taken from the pool had their Local resources and Outputs
// replaced with new empty stores on Release; only the Context value
// itself is reused.
func (p *ContextPool) Acquire() *Context {
	before := p.misses.Load()
	c := p.pool.Get().(*Context)
	if p.misses.Load() == before {
		p.hits.Add(1)
	}
	c.id = uuid.NewString()
	return c
}

// Release resets c and returns it to the pool.
func (p *ContextPool) Release(c *Context) {
	c.locals = NewResources()
	c.outputs = NewOutputs()
	c.pendingReleases = c.pendingReleases[:0]
	p.pool.Put(c)
}

// PoolMetrics reports pool hit/miss counts for diagnostics.
type PoolMetrics struct {
	Hits   uint64
	Misses uint64
}

func (p *ContextPool) Metrics() PoolMetrics {
	return PoolMetrics{Hits: p.hits.Load(), Misses: p.misses.Load()}
}

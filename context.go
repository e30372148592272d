package polaris

import "github.com/google/uuid"

// Context is the per-execution scope: Local resources plus Output slots,
// seeded (read-only view) from the Server's Global resources at creation.
// Non-aliasable across executions; resources inside it live until the
// Context is dropped.
type Context struct {
	id      string
	locals  *Resources
	globals *Resources
	outputs *Outputs
	server  *Server

	// pendingReleases collects write-guard releases taken during one
	// System's Fetch calls; releaseAll runs them after the system returns
	// so ResMut parameters stay locked for the duration of the call.
	pendingReleases []func()
}

// releaseAll releases every write guard acquired while fetching the
// current System's parameters.
func (c *Context) releaseAll() {
	for i := len(c.pendingReleases) - 1; i >= 0; i-- {
		c.pendingReleases[i]()
	}
	c.pendingReleases = c.pendingReleases[:0]
}

// NewContext creates a fresh per-execution Context against a built Server.
// Local resources start empty; globals are referenced, not copied.
func NewContext(server *Server) *Context {
	return &Context{
		id:      uuid.NewString(),
		locals:  NewResources(),
		globals: server.globals,
		outputs: NewOutputs(),
		server:  server,
	}
}

// ID returns this Context's unique execution-run identifier.
func (c *Context) ID() string { return c.id }

// With seeds a Local resource into the Context; returns the Context for chaining.
func (c *Context) With(value any) *Context {
	c.locals.Insert(value, false)
	return c
}

// WithResources bulk-seeds Local resources from an already-populated
// Resources store, e.g. one assembled by a Plugin at Build time and
// handed to every Context a caller creates for that Server. Returns the
// Context for chaining.
func (c *Context) WithResources(seed *Resources) *Context {
	c.locals.merge(seed)
	return c
}

// Outputs returns the Context's output store.
func (c *Context) Outputs() *Outputs { return c.outputs }

// Locals returns the Context's local resource store.
func (c *Context) Locals() *Resources { return c.locals }

// Globals returns the server's global resource store (read-only).
func (c *Context) Globals() *Resources { return c.globals }

// ctxGet resolves a read lease on T, checking Local resources first and
// falling back to Global resources (the two never share a type key).
func ctxGet[T any](c *Context) (*ReadGuard[T], error) {
	if Contains[T](c.locals) {
		return Get[T](c.locals)
	}
	return Get[T](c.globals)
}

// ctxGetMut resolves a write lease on T from Local resources. Attempting
// this against a type that only exists in Globals surfaces ResourceImmutable.
func ctxGetMut[T any](c *Context) (*WriteGuard[T], error) {
	if Contains[T](c.locals) {
		return GetMut[T](c.locals)
	}
	if Contains[T](c.globals) {
		return GetMut[T](c.globals)
	}
	return nil, &ResourceError{Kind: ResourceNotFound, TypeName: typeNameOf(reflectTypeOf[T]())}
}

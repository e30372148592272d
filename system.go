package polaris

import "reflect"

// AnySystem is the type-erased view of System[T] the Graph and Executor
// operate against, mirroring how the teacher's AnyExecutor/AnyFlow erase
// their type parameter for storage in non-generic containers.
type AnySystem interface {
	Name() string
	OutputType() reflect.Type
	Access() SystemAccess
	RunAny(c *Context) (any, *SystemError)
}

// System is one async unit of computation: it fetches typed parameters
// from a Context and produces one typed output T.
type System[T any] struct {
	name   string
	run    func(c *Context) (T, *SystemError)
	access SystemAccess
}

// Name returns the System's stable diagnostic identifier.
func (s *System[T]) Name() string { return s.name }

// OutputType returns T's type identity.
func (s *System[T]) OutputType() reflect.Type { return reflectTypeOf[T]() }

// Access returns the System's declared {read, write, output} set.
func (s *System[T]) Access() SystemAccess { return s.access }

// Run executes the System against c, writing its output into c's
// Outputs slot on success.
func (s *System[T]) Run(c *Context) (T, *SystemError) {
	val, err := s.run(c)
	if err != nil {
		var zero T
		return zero, err
	}
	c.outputs.Set(val)
	return val, nil
}

// RunAny is the type-erased entry point used by the Executor.
func (s *System[T]) RunAny(c *Context) (any, *SystemError) {
	return s.Run(c)
}

func accessFor(outType reflect.Type, entries ...AccessEntry) SystemAccess {
	return SystemAccess{Entries: entries, OutputType: outType}
}

// NewSystem0 builds a System with no declared parameters.
func NewSystem0[T any](name string, fn func(c *Context) (T, *SystemError)) *System[T] {
	return &System[T]{
		name:   name,
		access: accessFor(reflectTypeOf[T]()),
		run: func(c *Context) (T, *SystemError) {
			return fn(c)
		},
	}
}

// NewSystem1 builds a System with one declared parameter.
func NewSystem1[P1, T any](name string, p1 ParamKind[P1], fn func(c *Context, a P1) (T, *SystemError)) *System[T] {
	return &System[T]{
		name:   name,
		access: accessFor(reflectTypeOf[T](), p1.Access()),
		run: func(c *Context) (T, *SystemError) {
			defer c.releaseAll()
			v1, err := p1.Fetch(c)
			if err != nil {
				var zero T
				return zero, err
			}
			return fn(c, v1)
		},
	}
}

// NewSystem2 builds a System with two declared parameters.
func NewSystem2[P1, P2, T any](name string, p1 ParamKind[P1], p2 ParamKind[P2], fn func(c *Context, a P1, b P2) (T, *SystemError)) *System[T] {
	return &System[T]{
		name:   name,
		access: accessFor(reflectTypeOf[T](), p1.Access(), p2.Access()),
		run: func(c *Context) (T, *SystemError) {
			defer c.releaseAll()
			v1, err := p1.Fetch(c)
			if err != nil {
				var zero T
				return zero, err
			}
			v2, err := p2.Fetch(c)
			if err != nil {
				var zero T
				return zero, err
			}
			return fn(c, v1, v2)
		},
	}
}

// NewSystem3 builds a System with three declared parameters.
func NewSystem3[P1, P2, P3, T any](name string, p1 ParamKind[P1], p2 ParamKind[P2], p3 ParamKind[P3], fn func(c *Context, a P1, b P2, d P3) (T, *SystemError)) *System[T] {
	return &System[T]{
		name:   name,
		access: accessFor(reflectTypeOf[T](), p1.Access(), p2.Access(), p3.Access()),
		run: func(c *Context) (T, *SystemError) {
			defer c.releaseAll()
			v1, err := p1.Fetch(c)
			if err != nil {
				var zero T
				return zero, err
			}
			v2, err := p2.Fetch(c)
			if err != nil {
				var zero T
				return zero, err
			}
			v3, err := p3.Fetch(c)
			if err != nil {
				var zero T
				return zero, err
			}
			return fn(c, v1, v2, v3)
		},
	}
}

// NewSystem4 builds a System with four declared parameters.
func NewSystem4[P1, P2, P3, P4, T any](name string, p1 ParamKind[P1], p2 ParamKind[P2], p3 ParamKind[P3], p4 ParamKind[P4], fn func(c *Context, a P1, b P2, d P3, e P4) (T, *SystemError)) *System[T] {
	return &System[T]{
		name:   name,
		access: accessFor(reflectTypeOf[T](), p1.Access(), p2.Access(), p3.Access(), p4.Access()),
		run: func(c *Context) (T, *SystemError) {
			defer c.releaseAll()
			v1, err := p1.Fetch(c)
			if err != nil {
				var zero T
				return zero, err
			}
			v2, err := p2.Fetch(c)
			if err != nil {
				var zero T
				return zero, err
			}
			v3, err := p3.Fetch(c)
			if err != nil {
				var zero T
				return zero, err
			}
			v4, err := p4.Fetch(c)
			if err != nil {
				var zero T
				return zero, err
			}
			return fn(c, v1, v2, v3, v4)
		},
	}
}

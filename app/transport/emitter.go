package transport

import "sync"

// Emitter is a typed event fan-out with explicit unsubscribe handles, so
// consumers like the playback scheduler can be torn down deterministically.
type Emitter[T any] struct {
	mu       sync.Mutex
	handlers map[int64]func(T)
	nextID   int64
}

// NewEmitter creates an empty emitter.
func NewEmitter[T any]() *Emitter[T] {
	return &Emitter[T]{handlers: make(map[int64]func(T))}
}

// Subscribe registers a handler and returns a cancel function that removes
// it. Cancel is idempotent.
func (e *Emitter[T]) Subscribe(fn func(T)) (cancel func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	e.handlers[id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.handlers, id)
	}
}

// Emit invokes every registered handler with the value. Handlers run on the
// caller's goroutine in unspecified order.
func (e *Emitter[T]) Emit(v T) {
	e.mu.Lock()
	fns := make([]func(T), 0, len(e.handlers))
	for _, fn := range e.handlers {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

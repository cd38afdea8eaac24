package usecase

import "sync"

// observers fans a snapshot out to subscribed listeners
type observers[T any] struct {
	mu        sync.RWMutex
	next      int
	listeners map[int]func(user string, snapshot T)
}

func (o *observers[T]) subscribe(fn func(user string, snapshot T)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.listeners == nil {
		o.listeners = make(map[int]func(string, T))
	}
	id := o.next
	o.next++
	o.listeners[id] = fn

	return func() {
		o.mu.Lock()
		delete(o.listeners, id)
		o.mu.Unlock()
	}
}

func (o *observers[T]) notify(user string, snapshot T) {
	o.mu.RLock()
	fns := make([]func(string, T), 0, len(o.listeners))
	for _, fn := range o.listeners {
		fns = append(fns, fn)
	}
	o.mu.RUnlock()

	for _, fn := range fns {
		fn(user, snapshot)
	}
}

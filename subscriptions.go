// Copyright 2026 - Giacomo Failla <failla.giacomo@gmail.com>
// MIT License. See LICENSE file for details.

package cdpsession

import (
	"context"
	"sync"

	"github.com/mailru/easyjson"
)

// listenerSlot is one slab entry for a persistent subscription. generation
// lets a SubscriptionHandle unsubscribe in O(1) without needing a pointer
// identity comparison: the handle is stale, and therefore a safe no-op, the
// moment its generation no longer matches the slot's (Design Note 1,
// spec.md §9).
type listenerSlot struct {
	generation uint64
	alive      bool
	callback   func(params easyjson.RawMessage)
}

// onceSlot is one slab entry for a one-shot waiter.
type onceSlot struct {
	generation uint64
	alive      bool
	events     map[string]struct{}
	resultCh   chan onceResult
}

// onceResult is delivered to a one-shot waiter's future exactly once.
type onceResult struct {
	event  string
	params easyjson.RawMessage
	err    error
}

// subscriptionRegistry is the fan-out table of spec.md §4.E: persistent
// listeners keyed by event name, plus a list of one-shot waiters checked
// against every event. Grounded on chromedp's target.go
// (listeners []cancelableListener, runListeners) and
// daabr-chrome-vision's eventSubscribers map[string][]chan *Message.
type subscriptionRegistry struct {
	mu         sync.Mutex
	byEvent    map[string][]*listenerSlot
	onceAny    []*onceSlot
	nextGen    uint64
	sink       func(method string, params easyjson.RawMessage)
}

func newSubscriptionRegistry() *subscriptionRegistry {
	return &subscriptionRegistry{byEvent: make(map[string][]*listenerSlot)}
}

// SubscriptionHandle cancels a persistent subscription. Unsubscribe is
// idempotent and safe to call more than once or after the owning session
// has been closed.
type SubscriptionHandle struct {
	registry   *subscriptionRegistry
	event      string
	slot       *listenerSlot
	generation uint64
}

// Unsubscribe removes the listener. Later events of this name will not
// invoke the dropped callback (Testable Property 3).
func (h *SubscriptionHandle) Unsubscribe() {
	if h == nil || h.registry == nil {
		return
	}
	h.registry.mu.Lock()
	if h.slot.generation == h.generation {
		h.slot.alive = false
	}
	h.registry.mu.Unlock()
}

// subscribe appends a new persistent listener for event and returns a
// handle that cancels it.
func (r *subscriptionRegistry) subscribe(event string, callback func(easyjson.RawMessage)) *SubscriptionHandle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextGen++
	slot := &listenerSlot{generation: r.nextGen, alive: true, callback: callback}
	r.byEvent[event] = append(r.byEvent[event], slot)
	return &SubscriptionHandle{registry: r, event: event, slot: slot, generation: slot.generation}
}

// OnceFuture resolves with the payload of the first event whose name is in
// the waiter's set (Testable Property 4). OnceFuture has no cancel method:
// an unresolved waiter stays registered until a matching event resolves it
// or the session closes; only the package-internal cancelOnce removes it
// earlier.
type OnceFuture struct {
	registry *onceSlot
	resultCh chan onceResult
}

// Wait blocks until the waiter resolves, the owning session closes it
// (DisconnectedError), or ctx is done.
func (f *OnceFuture) Wait(ctx context.Context) (event string, params easyjson.RawMessage, err error) {
	select {
	case res := <-f.resultCh:
		return res.event, res.params, res.err
	case <-ctx.Done():
		return "", nil, ctx.Err()
	}
}

// registerOnceAny registers a one-shot waiter for the given event set.
func (r *subscriptionRegistry) registerOnceAny(events map[string]struct{}) *OnceFuture {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextGen++
	slot := &onceSlot{generation: r.nextGen, alive: true, events: events, resultCh: make(chan onceResult, 1)}
	r.onceAny = append(r.onceAny, slot)
	return &OnceFuture{registry: slot, resultCh: slot.resultCh}
}

// cancelOnce marks a one-shot waiter dead without resolving it, used when
// the caller drops the future before it fires.
func (r *subscriptionRegistry) cancelOnce(f *OnceFuture) {
	r.mu.Lock()
	f.registry.alive = false
	r.mu.Unlock()
}

// setSink installs (or, with nil, clears) the catch-all callback invoked for
// every inbound frame not otherwise handled as a reply.
func (r *subscriptionRegistry) setSink(sink func(method string, params easyjson.RawMessage)) {
	r.mu.Lock()
	r.sink = sink
	r.mu.Unlock()
}

// notify fans out an event to every live persistent listener (in
// subscription order, pruning dead ones lazily) and then to the first live
// one-shot waiter whose set contains event, before finally offering it to
// the sink. It returns whether anything handled the event.
func (r *subscriptionRegistry) notify(event string, params easyjson.RawMessage) bool {
	r.mu.Lock()
	slots := r.byEvent[event]
	live := slots[:0]
	var callbacks []func(easyjson.RawMessage)
	for _, slot := range slots {
		if !slot.alive {
			continue
		}
		live = append(live, slot)
		callbacks = append(callbacks, slot.callback)
	}
	r.byEvent[event] = live

	var resolved *onceSlot
	onceLive := r.onceAny[:0]
	for _, slot := range r.onceAny {
		if !slot.alive {
			continue
		}
		if resolved == nil {
			if _, ok := slot.events[event]; ok {
				resolved = slot
				continue // drop from the live list: it is about to fire.
			}
		}
		onceLive = append(onceLive, slot)
	}
	r.onceAny = onceLive

	sink := r.sink
	r.mu.Unlock()

	handled := len(callbacks) > 0 || resolved != nil
	for _, cb := range callbacks {
		invokeListener(cb, params)
	}
	if resolved != nil {
		resolved.resultCh <- onceResult{event: event, params: params}
	}
	if sink != nil {
		sink(event, params)
		handled = true
	}
	return handled
}

// invokeListener runs a subscriber callback, catching and logging panics so
// one failing listener cannot prevent subsequent listeners or waiters from
// being notified (spec.md §4.E).
func invokeListener(cb func(easyjson.RawMessage), params easyjson.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			logger().WithField("panic", r).Error("cdpsession: listener callback panicked")
		}
	}()
	cb(params)
}

// closeAll drains every live subscription and one-shot waiter with
// DisconnectedError, used by Session.Close (spec.md §5).
func (r *subscriptionRegistry) closeAll() {
	r.mu.Lock()
	r.byEvent = make(map[string][]*listenerSlot)
	onces := r.onceAny
	r.onceAny = nil
	r.sink = nil
	r.mu.Unlock()

	for _, slot := range onces {
		if slot.alive {
			slot.alive = false
			slot.resultCh <- onceResult{err: &DisconnectedError{}}
		}
	}
}

// Copyright 2026 - Giacomo Failla <failla.giacomo@gmail.com>
// MIT License. See LICENSE file for details.

package cdpsession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mailru/easyjson"
)

// State is the session's lifecycle state (spec.md §3).
type State int

const (
	Idle State = iota
	Connecting
	Connected
	Closing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Closing:
		return "closing"
	default:
		return "unknown"
	}
}

// Session is a single dispatched connection to one browser target. It owns
// the sequence allocator, pending-request table, and subscription registry,
// and runs exactly one read-dispatch goroutine for its lifetime. Grounded on
// chromedp's Browser.run: one goroutine reads frames off the transport and
// hands replies to a map keyed by request id, while a second, single-writer
// loop owns that map's mutation; this module collapses that split into the
// pendingTable/subscriptionRegistry's own internal locking, since the
// transport here is a stream of raw frames rather than a multiplexed session
// hierarchy.
type Session struct {
	mu        sync.Mutex
	state     State
	transport Transport
	tab       Tab

	seq     sequenceAllocator
	pending *pendingTable
	subs    *subscriptionRegistry

	dispatchDone chan struct{}
}

// NewSession constructs an unconnected Session. Use Connect to open it.
func NewSession() *Session {
	return &Session{
		state:   Idle,
		pending: newPendingTable(),
		subs:    newSubscriptionRegistry(),
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Tab returns the tab record Connect resolved, the zero Tab if the session
// was opened against an explicit transport or pipe.
func (s *Session) Tab() Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tab
}

// Connect resolves a transport per the endpoint-resolution policy of
// spec.md §4.G and starts the dispatch goroutine. Any prior live transport
// is closed first.
func (s *Session) Connect(ctx context.Context, opts ...ConnectOption) error {
	var o ConnectOptions
	for _, apply := range opts {
		apply(&o)
	}

	s.mu.Lock()
	if s.transport != nil {
		_ = s.transport.Close()
		s.transport = nil
	}
	s.state = Connecting
	s.mu.Unlock()

	transport, tab, err := resolveTransport(ctx, &o)
	if err != nil {
		s.mu.Lock()
		s.state = Idle
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.transport = transport
	s.tab = tab
	s.seq = sequenceAllocator{}
	s.state = Connected
	s.dispatchDone = make(chan struct{})
	s.mu.Unlock()

	go s.dispatchLoop(transport, s.dispatchDone)
	return nil
}

// resolveTransport implements the 8-step priority order of spec.md §4.G.
func resolveTransport(ctx context.Context, o *ConnectOptions) (Transport, Tab, error) {
	switch {
	case o.Transport != nil:
		return o.Transport, Tab{}, nil

	case o.PipeReader != nil && o.PipeWriter != nil:
		return newPipeTransport(o.PipeReader, o.PipeWriter, o.PipeCloser), Tab{}, nil

	case o.Endpoint != "":
		if _, ok := tabIDFromEndpoint(o.Endpoint); !ok {
			return nil, Tab{}, &MalformedEndpointError{Endpoint: o.Endpoint}
		}
		t, err := dialWebSocket(ctx, o.Endpoint)
		return t, Tab{}, err

	default:
		return resolveViaDiscovery(ctx, o)
	}
}

func resolveViaDiscovery(ctx context.Context, o *ConnectOptions) (Transport, Tab, error) {
	if o.DiscoveryBaseURL == "" {
		return nil, Tab{}, errors.New("cdpsession: DiscoveryBaseURL required unless Endpoint, Transport or a pipe pair is supplied")
	}
	disco := newDiscoveryClient(o.DiscoveryBaseURL)

	var tab Tab
	switch {
	case o.Tab.kind == tabSelectorIndex:
		tabs, err := disco.ListTabs(ctx, "page")
		if err != nil {
			return nil, Tab{}, err
		}
		if o.Tab.index < 0 || o.Tab.index >= len(tabs) {
			return nil, Tab{}, &NotFoundError{Selector: fmt.Sprintf("index %d", o.Tab.index)}
		}
		tab = tabs[o.Tab.index]

	case o.Tab.kind == tabSelectorTitle:
		tabs, err := disco.ListTabs(ctx, "page")
		if err != nil {
			return nil, Tab{}, err
		}
		found := false
		for _, t := range tabs {
			if o.Tab.title.MatchString(t.Title()) {
				tab = t
				found = true
				break
			}
		}
		if !found {
			return nil, Tab{}, &NotFoundError{Selector: "title=" + o.Tab.title.String()}
		}
		if tab.WebSocketDebuggerURL() == "" {
			return nil, Tab{}, &MissingWebSocketURLError{TabID: tab.ID()}
		}

	case o.Tab.kind == tabSelectorRecord:
		tabs, err := disco.ListTabs(ctx, "page")
		if err != nil {
			return nil, Tab{}, err
		}
		found := false
		for _, t := range tabs {
			if t.ID() == o.Tab.record.ID() {
				tab = t
				found = true
				break
			}
		}
		if !found {
			return nil, Tab{}, &NotFoundError{Selector: "record id=" + o.Tab.record.ID()}
		}

	case o.Tab.kind == tabSelectorID:
		tabs, err := disco.ListTabs(ctx, "page")
		if err != nil {
			return nil, Tab{}, err
		}
		found := false
		for _, t := range tabs {
			if t.ID() == o.Tab.id {
				tab = t
				found = true
				break
			}
		}
		if !found {
			return nil, Tab{}, &NotFoundError{Selector: "id=" + o.Tab.id}
		}

	case o.NewTab:
		t, err := disco.NewTab(ctx, o.NewTabURL)
		if err != nil {
			return nil, Tab{}, err
		}
		tab = t

	default:
		tabs, err := disco.ListTabs(ctx, "page")
		if err != nil {
			return nil, Tab{}, err
		}
		found := false
		for _, t := range tabs {
			if t.WebSocketDebuggerURL() != "" {
				tab = t
				found = true
				break
			}
		}
		if !found {
			return nil, Tab{}, &NotFoundError{Selector: "first tab with a webSocketDebuggerUrl"}
		}
	}

	if tab.WebSocketDebuggerURL() == "" {
		return nil, Tab{}, &MissingWebSocketURLError{TabID: tab.ID()}
	}
	t, err := dialWebSocket(ctx, tab.WebSocketDebuggerURL())
	return t, tab, err
}

// dispatchLoop is the session's single read-dispatch goroutine: it owns no
// shared mutable state directly (pendingTable and subscriptionRegistry are
// already internally synchronized), so a listener callback reentering
// SendRequest or Subscribe cannot deadlock against it (spec.md §4.F).
func (s *Session) dispatchLoop(transport Transport, done chan struct{}) {
	defer close(done)
	ctx := context.Background()
	for {
		frame, err := transport.Receive(ctx)
		if err != nil {
			s.teardown(&TransportError{Op: "receive", Err: err})
			return
		}
		route(frame, s.pending, s.subs)
	}
}

// teardown drains all in-flight state and transitions the session back to
// Idle. Called either by Close or by a transport failure observed in the
// dispatch loop.
func (s *Session) teardown(cause error) {
	s.mu.Lock()
	if s.state == Idle {
		s.mu.Unlock()
		return
	}
	transport := s.transport
	s.transport = nil
	s.state = Idle
	s.mu.Unlock()

	if transport != nil {
		_ = transport.Close()
	}
	s.pending.drain(&DisconnectedError{})
	s.subs.closeAll()
	if _, ok := cause.(*DisconnectedError); !ok && cause != nil {
		logger().WithField("error", cause).Debug("cdpsession: session torn down by transport failure")
	}
}

// Close transitions the session to Closing, closes the transport, drains
// every pending future with Disconnected, clears all subscriptions, and
// returns to Idle. Safe to call when already Idle.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == Idle {
		s.mu.Unlock()
		return nil
	}
	s.state = Closing
	s.mu.Unlock()

	s.teardown(&DisconnectedError{})
	return nil
}

// connectedTransport returns the live transport, or NotConnectedError if the
// session is not in the Connected state.
func (s *Session) connectedTransport() (Transport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Connected {
		return nil, &NotConnectedError{State: s.state}
	}
	return s.transport, nil
}

// SendRequest allocates a request id, registers its completion handle before
// the frame is handed to the transport (so a reply arriving before Send
// returns cannot be lost), and blocks until the matching reply resolves it,
// ctx is done, or the session is closed.
func (s *Session) SendRequest(ctx context.Context, method string, params any) (easyjson.RawMessage, error) {
	transport, err := s.connectedTransport()
	if err != nil {
		return nil, err
	}

	id := s.seq.allocate()
	ch := s.pending.register(id)

	frame, err := buildRequest(id, method, params)
	if err != nil {
		s.pending.remove(id)
		return nil, &SerializationError{Method: method, Err: err}
	}

	if err := transport.Send(ctx, frame); err != nil {
		s.pending.remove(id)
		return nil, &TransportError{Op: "send", Err: err}
	}

	select {
	case res := <-ch:
		return res.result, res.err
	case <-ctx.Done():
		s.pending.remove(id)
		return nil, ctx.Err()
	}
}

// SendNotification dispatches a fire-and-forget call: no pending entry is
// registered and completion is send-success.
func (s *Session) SendNotification(ctx context.Context, method string, params any) error {
	transport, err := s.connectedTransport()
	if err != nil {
		return err
	}
	frame, err := buildRequest(0, method, params)
	if err != nil {
		return &SerializationError{Method: method, Err: err}
	}
	if err := transport.Send(ctx, frame); err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	return nil
}

// Subscribe registers a persistent listener for event. Dropping the returned
// handle (calling Unsubscribe) removes it.
func (s *Session) Subscribe(event string, callback func(params easyjson.RawMessage)) *SubscriptionHandle {
	return s.subs.subscribe(event, callback)
}

// OnceAny registers a one-shot waiter resolving on the first event whose
// name is in events.
func (s *Session) OnceAny(events ...string) *OnceFuture {
	set := make(map[string]struct{}, len(events))
	for _, e := range events {
		set[e] = struct{}{}
	}
	return s.subs.registerOnceAny(set)
}

// SetSink installs (or, with nil, clears) the catch-all callback invoked for
// every inbound event, after any persistent listeners and one-shot waiter.
func (s *Session) SetSink(sink func(method string, params easyjson.RawMessage)) {
	s.subs.setSink(sink)
}

// Sleep blocks for d or until ctx is done, mirroring the transport's timer
// primitive (spec.md §4.A) at the session level for callers without direct
// transport access.
func (s *Session) Sleep(ctx context.Context, d time.Duration) (time.Duration, error) {
	return Sleep(ctx, d)
}

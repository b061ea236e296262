// Copyright 2026 - Giacomo Failla <failla.giacomo@gmail.com>
// MIT License. See LICENSE file for details.

package cdpsession

import (
	"sync"

	"github.com/mailru/easyjson"
)

// pendingResult is delivered to a pending request's completion channel,
// exactly once, by either fulfill, reject, or drain.
type pendingResult struct {
	result easyjson.RawMessage
	err    error
}

// pendingTable maps an outbound request id to a single-use completion
// channel. Grounded on the teacher's cdpClient.Call correlation loop and
// google-streaming_hdp's Connection.results map[int]chan Result, generalized
// to support arbitrarily many concurrent in-flight requests.
type pendingTable struct {
	mu      sync.Mutex
	entries map[int64]chan pendingResult
}

func newPendingTable() *pendingTable {
	return &pendingTable{entries: make(map[int64]chan pendingResult)}
}

// register creates and returns the completion channel for id. It must be
// called before the request is handed to the transport, so that a reply
// arriving before the send call returns cannot be lost (spec.md §4.G).
func (t *pendingTable) register(id int64) chan pendingResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch := make(chan pendingResult, 1)
	t.entries[id] = ch
	return ch
}

// remove unregisters id without delivering a result, used when cancellation
// (a dropped future) makes a late reply moot (spec.md §5).
func (t *pendingTable) remove(id int64) {
	t.mu.Lock()
	delete(t.entries, id)
	t.mu.Unlock()
}

// take removes and returns the channel for id, or nil if none is
// registered (an orphan reply, which the dispatcher logs and drops per
// spec.md §4.F.2).
func (t *pendingTable) take(id int64) chan pendingResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.entries[id]
	if !ok {
		return nil
	}
	delete(t.entries, id)
	return ch
}

// fulfill delivers a successful result to id's waiter, if any is still
// registered.
func (t *pendingTable) fulfill(id int64, result easyjson.RawMessage) bool {
	ch := t.take(id)
	if ch == nil {
		return false
	}
	ch <- pendingResult{result: result}
	return true
}

// reject delivers an error to id's waiter, if any is still registered.
func (t *pendingTable) reject(id int64, err error) bool {
	ch := t.take(id)
	if ch == nil {
		return false
	}
	ch <- pendingResult{err: err}
	return true
}

// drain fails every outstanding entry with err, used at teardown so every
// pending future rejects within one scheduler turn (spec.md §5, Testable
// Property 5).
func (t *pendingTable) drain(err error) {
	t.mu.Lock()
	entries := t.entries
	t.entries = make(map[int64]chan pendingResult)
	t.mu.Unlock()

	for _, ch := range entries {
		ch <- pendingResult{err: err}
	}
}

// Copyright 2026 - Giacomo Failla <failla.giacomo@gmail.com>
// MIT License. See LICENSE file for details.

package cdpsession

import "encoding/json"

// route implements the frame-routing decision tree: a malformed frame is
// logged and dropped; a reply frame is matched against the pending table; an
// event frame is fanned out through the subscription registry. Grounded on
// daabr-chrome-vision's parseAndRelay and the teacher's cdpClient.Call read
// loop (an id mismatch there simply continues the loop rather than erroring).
func route(raw []byte, pending *pendingTable, subs *subscriptionRegistry) {
	var m message
	if err := json.Unmarshal(raw, &m); err != nil {
		logger().WithField("error", err).Debug("cdpsession: dropping unparseable frame")
		return
	}

	if m.isReply() {
		routeReply(&m, pending)
		return
	}

	routeEvent(&m, subs)
}

// routeReply matches a reply frame against the pending table. A reply whose
// id has no registered waiter is an orphan (the waiter cancelled, or the
// frame is a duplicate) and is logged at debug and dropped, per spec.md §4.F.2.
func routeReply(m *message, pending *pendingTable) {
	if m.Error != nil {
		if ok := pending.reject(m.ID, m.Error.asProtocolError()); !ok {
			logger().WithField("id", m.ID).Debug("cdpsession: dropping orphan error reply")
		}
		return
	}
	if ok := pending.fulfill(m.ID, m.Result); !ok {
		logger().WithField("id", m.ID).Debug("cdpsession: dropping orphan reply")
	}
}

// routeEvent fans an event frame out through the subscription registry. An
// event nobody is listening for (no persistent listener, no matching one-shot
// waiter, no sink installed) is traced at the full-payload level rather than
// dropped silently, since an ignored event is ordinary CDP traffic rather
// than an error.
func routeEvent(m *message, subs *subscriptionRegistry) {
	if m.Method == "" {
		logger().Debug("cdpsession: dropping frame with neither id nor method")
		return
	}
	if m.Error != nil {
		logger().WithField("error", m.Error.asProtocolError()).Debug("cdpsession: dropping event frame carrying a top-level error")
		return
	}
	handled := subs.notify(string(m.Method), m.Params)
	if !handled {
		logger().WithFields(traceFields(m)).Trace("cdpsession: ignored event")
	}
}

func traceFields(m *message) map[string]any {
	return map[string]any{
		"method": string(m.Method),
		"params": string(m.Params),
	}
}

// Copyright 2026 - Giacomo Failla <failla.giacomo@gmail.com>
// MIT License. See LICENSE file for details.

package cdpsession

import (
	"encoding/json"

	"github.com/chromedp/cdproto"
	"github.com/mailru/easyjson"
)

// message is the wire shape of both outbound requests and inbound frames,
// mirroring spec.md's Request/Response frame shapes. Method uses
// cdproto.MethodType (rather than a bare string) so event names carry the
// Domain() accessor the rest of the corpus uses to route domain-specific
// traffic; Params/Result use easyjson.RawMessage, the payload type
// cdproto/chromedp itself uses for the same fields.
type message struct {
	ID     int64               `json:"id,omitempty"`
	Method cdproto.MethodType  `json:"method,omitempty"`
	Params easyjson.RawMessage `json:"params,omitempty"`
	Result easyjson.RawMessage `json:"result,omitempty"`
	Error  *wireError          `json:"error,omitempty"`
}

// wireError is the on-the-wire shape of a CDP error reply.
type wireError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// isReply reports whether m carries an id, i.e. it is a reply rather than
// an event (spec.md §3).
func (m *message) isReply() bool { return m.ID != 0 }

// asProtocolError converts a wire error into the package's ProtocolError.
func (e *wireError) asProtocolError() *ProtocolError {
	if e == nil {
		return nil
	}
	return &ProtocolError{Code: e.Code, Message: e.Message, Data: e.Data}
}

// buildRequest serializes a method call into an outbound frame.
func buildRequest(id int64, method string, params any) ([]byte, error) {
	var raw easyjson.RawMessage
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		raw = easyjson.RawMessage(encoded)
	}
	req := message{
		ID:     id,
		Method: cdproto.MethodType(method),
		Params: raw,
	}
	return json.Marshal(&req)
}

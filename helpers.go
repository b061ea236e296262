// Copyright 2026 - Giacomo Failla <failla.giacomo@gmail.com>
// MIT License. See LICENSE file for details.

package cdpsession

import (
	"context"
	"encoding/json"
)

// EvaluateOptions overrides the defaults Evaluate sends with
// Runtime.evaluate.
type EvaluateOptions struct {
	ReturnByValue  *bool
	AwaitPromise   *bool
	ContextID      *int64
	IncludeCommand bool
}

// Evaluate sends Runtime.evaluate, defaulting to returnByValue: true as the
// spec requires, with opts overriding individual fields. Pure composition
// over Session.SendRequest, adapted from the teacher's pdf.go
// client.Call(ctx, sessionID, "Page.*", params, &result) style, generalized
// from one hardcoded PDF pipeline to an arbitrary CDP method call.
func Evaluate(ctx context.Context, s *Session, expression string, opts *EvaluateOptions) (json.RawMessage, error) {
	params := map[string]any{
		"expression":    expression,
		"returnByValue": true,
	}
	if opts != nil {
		if opts.ReturnByValue != nil {
			params["returnByValue"] = *opts.ReturnByValue
		}
		if opts.AwaitPromise != nil {
			params["awaitPromise"] = *opts.AwaitPromise
		}
		if opts.ContextID != nil {
			params["contextId"] = *opts.ContextID
		}
	}
	result, err := s.SendRequest(ctx, "Runtime.evaluate", params)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(result), nil
}

// Eval calls Evaluate and projects result.result.value, the common case of
// wanting a plain value rather than the full remote-object wrapper.
func Eval(ctx context.Context, s *Session, expression string) (any, error) {
	raw, err := Evaluate(ctx, s, expression, nil)
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		Result struct {
			Value any `json:"value"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, &SerializationError{Method: "Runtime.evaluate", Err: err}
	}
	return wrapper.Result.Value, nil
}

// CallFunctionOnOptions overrides the defaults CallFunctionOn sends with
// Runtime.callFunctionOn.
type CallFunctionOnOptions struct {
	ObjectID      string
	Arguments     []any
	ReturnByValue *bool
	AwaitPromise  *bool
}

// CallFunctionOn sends Runtime.callFunctionOn, defaulting to
// returnByValue: true.
func CallFunctionOn(ctx context.Context, s *Session, functionDeclaration string, opts *CallFunctionOnOptions) (json.RawMessage, error) {
	params := map[string]any{
		"functionDeclaration": functionDeclaration,
		"returnByValue":       true,
	}
	if opts != nil {
		if opts.ObjectID != "" {
			params["objectId"] = opts.ObjectID
		}
		if opts.Arguments != nil {
			args := make([]map[string]any, len(opts.Arguments))
			for i, a := range opts.Arguments {
				args[i] = map[string]any{"value": a}
			}
			params["arguments"] = args
		}
		if opts.ReturnByValue != nil {
			params["returnByValue"] = *opts.ReturnByValue
		}
		if opts.AwaitPromise != nil {
			params["awaitPromise"] = *opts.AwaitPromise
		}
	}
	result, err := s.SendRequest(ctx, "Runtime.callFunctionOn", params)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(result), nil
}

// ProtocolVersion returns the Protocol-Version field reported by the
// browser's discovery endpoint.
func ProtocolVersion(ctx context.Context, baseURL string) (string, error) {
	info, err := newDiscoveryClient(baseURL).VersionInfo(ctx)
	if err != nil {
		return "", err
	}
	return info.ProtocolVersion(), nil
}

// GetDomains sends Schema.getDomains over an active session.
func GetDomains(ctx context.Context, s *Session) (json.RawMessage, error) {
	result, err := s.SendRequest(ctx, "Schema.getDomains", nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(result), nil
}

// ListTabs is the high-level wrapper over the discovery client's ListTabs,
// defaulting to the "page" type filter per spec.md §4.B.
func ListTabs(ctx context.Context, baseURL string, typeFilter string) ([]Tab, error) {
	if typeFilter == "" {
		typeFilter = "page"
	}
	return newDiscoveryClient(baseURL).ListTabs(ctx, typeFilter)
}

// ActivateTab is the high-level wrapper over the discovery client's
// ActivateTab.
func ActivateTab(ctx context.Context, baseURL, id string) error {
	return newDiscoveryClient(baseURL).ActivateTab(ctx, id)
}

// CloseTab is the high-level wrapper over the discovery client's CloseTab.
func CloseTab(ctx context.Context, baseURL, id string) error {
	return newDiscoveryClient(baseURL).CloseTab(ctx, id)
}

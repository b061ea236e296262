// Copyright 2026 - Giacomo Failla <failla.giacomo@gmail.com>
// MIT License. See LICENSE file for details.

package cdpsession

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Tab is a tab record as returned by the browser's /json/* endpoints: an
// opaque map with typed accessors for the fields the session controller and
// callers care about, grounded on google-streaming_hdp's Params/getField
// style rather than a fixed struct, since the browser is free to add fields.
type Tab struct {
	raw map[string]any
}

func newTab(raw map[string]any) Tab { return Tab{raw: raw} }

func (t Tab) field(name string) (string, bool) {
	v, ok := t.raw[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ID returns the tab's "id" field, or "" if absent.
func (t Tab) ID() string { s, _ := t.field("id"); return s }

// Type returns the tab's "type" field (e.g. "page", "background_page",
// "service_worker"), or "" if absent.
func (t Tab) Type() string { s, _ := t.field("type"); return s }

// Title returns the tab's "title" field, or "" if absent.
func (t Tab) Title() string { s, _ := t.field("title"); return s }

// WebSocketDebuggerURL returns the tab's "webSocketDebuggerUrl" field, or ""
// if absent.
func (t Tab) WebSocketDebuggerURL() string {
	s, _ := t.field("webSocketDebuggerUrl")
	return s
}

// Raw exposes the underlying decoded JSON object for fields this type does
// not otherwise surface.
func (t Tab) Raw() map[string]any { return t.raw }

// VersionInfo is the decoded response of GET /json/version.
type VersionInfo struct {
	raw map[string]any
}

func (v VersionInfo) field(name string) string {
	s, _ := v.raw[name].(string)
	return s
}

// ProtocolVersion returns the "Protocol-Version" field.
func (v VersionInfo) ProtocolVersion() string { return v.field("Protocol-Version") }

// Browser returns the "Browser" field.
func (v VersionInfo) Browser() string { return v.field("Browser") }

// UserAgent returns the "User-Agent" field.
func (v VersionInfo) UserAgent() string { return v.field("User-Agent") }

// WebSocketDebuggerURL returns the browser-wide "webSocketDebuggerUrl" field.
func (v VersionInfo) WebSocketDebuggerURL() string { return v.field("webSocketDebuggerUrl") }

// discoveryClient issues the small HTTP GETs CDP layers over a browser's
// /json endpoint before any WebSocket is opened. Grounded on the teacher's
// chromeResolver (GET /json/version, JSON-decode, cache) and
// google-streaming_hdp's Connection.Pages/ActiveTab (GET /json, decode into
// a slice). Unlike the teacher, failed discovery requests are retried with a
// bounded exponential backoff (github.com/cenkalti/backoff/v4, already
// reachable via the broader corpus's go.mod set) instead of the teacher's
// single-shot GET or google-streaming_hdp's fixed 2s-interval retry loop.
type discoveryClient struct {
	baseURL string
	client  *http.Client
}

func newDiscoveryClient(baseURL string) *discoveryClient {
	return &discoveryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// VersionInfo performs GET /json/version.
func (d *discoveryClient) VersionInfo(ctx context.Context) (VersionInfo, error) {
	var out map[string]any
	if err := d.getJSON(ctx, "/json/version", &out); err != nil {
		return VersionInfo{}, err
	}
	return VersionInfo{raw: out}, nil
}

// ListTabs performs GET /json/list, optionally filtered by a case-insensitive
// substring match on each tab's "type" field. Pass "" to disable filtering
// entirely; the session controller's default is "page".
func (d *discoveryClient) ListTabs(ctx context.Context, typeFilter string) ([]Tab, error) {
	var raw []map[string]any
	if err := d.getJSON(ctx, "/json/list", &raw); err != nil {
		return nil, err
	}
	tabs := make([]Tab, 0, len(raw))
	for _, r := range raw {
		tab := newTab(r)
		if typeFilter != "" && !strings.Contains(strings.ToLower(tab.Type()), strings.ToLower(typeFilter)) {
			continue
		}
		tabs = append(tabs, tab)
	}
	return tabs, nil
}

// NewTab performs GET /json/new, optionally navigating the new tab to url.
func (d *discoveryClient) NewTab(ctx context.Context, url string) (Tab, error) {
	path := "/json/new"
	if url != "" {
		path += "?" + url
	}
	var raw map[string]any
	if err := d.getJSON(ctx, path, &raw); err != nil {
		return Tab{}, err
	}
	return newTab(raw), nil
}

// ActivateTab performs GET /json/activate/<id>. The response body is
// ignored; only transport-level failure is reported.
func (d *discoveryClient) ActivateTab(ctx context.Context, id string) error {
	_, err := d.get(ctx, "/json/activate/"+id)
	return err
}

// CloseTab performs GET /json/close/<id>. Per spec the browser may answer
// with a connection reset rather than a clean response (the tab may already
// be gone); either is treated as success.
func (d *discoveryClient) CloseTab(ctx context.Context, id string) error {
	_, _ = d.get(ctx, "/json/close/"+id)
	return nil
}

func (d *discoveryClient) get(ctx context.Context, path string) ([]byte, error) {
	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+path, nil)
		if err != nil {
			return backoff.Permanent(&TransportError{Op: "discovery", Err: err})
		}
		resp, err := d.client.Do(req)
		if err != nil {
			return &TransportError{Op: "discovery", Err: err}
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return &TransportError{Op: "discovery", Err: fmt.Errorf("unexpected status %s", resp.Status)}
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &TransportError{Op: "discovery", Err: err}
		}
		body = data
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

func (d *discoveryClient) getJSON(ctx context.Context, path string, out any) error {
	body, err := d.get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Op: "discovery", Err: err}
	}
	return nil
}

// tabIDFromEndpoint extracts a tab id from an explicit WebSocket endpoint
// URL's final path segment, used by Connect's endpoint-resolution step 2.
// The scheme and host are never taken as a tab id.
func tabIDFromEndpoint(endpoint string) (string, bool) {
	path := endpoint
	if i := strings.Index(path, "://"); i >= 0 {
		path = path[i+3:]
	}
	slash := strings.Index(path, "/")
	if slash < 0 {
		return "", false
	}
	trimmed := strings.TrimRight(path[slash:], "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 || idx == len(trimmed)-1 {
		return "", false
	}
	id := trimmed[idx+1:]
	if id == "" {
		return "", false
	}
	return id, true
}

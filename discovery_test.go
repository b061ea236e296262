// Copyright 2026 - Giacomo Failla <failla.giacomo@gmail.com>
// MIT License. See LICENSE file for details.

package cdpsession

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDiscoveryVersionInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/version" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"Protocol-Version":"1.3","Browser":"Chrome/100","webSocketDebuggerUrl":"ws://127.0.0.1:9222/devtools/browser/abc"}`))
	}))
	defer srv.Close()

	info, err := newDiscoveryClient(srv.URL).VersionInfo(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.ProtocolVersion() != "1.3" {
		t.Fatalf("unexpected protocol version: %s", info.ProtocolVersion())
	}
	if info.Browser() != "Chrome/100" {
		t.Fatalf("unexpected browser: %s", info.Browser())
	}
}

func TestDiscoveryListTabsDefaultFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":"a","type":"page","title":"home","webSocketDebuggerUrl":"ws://x/a"},
			{"id":"b","type":"background_page","title":"ext","webSocketDebuggerUrl":"ws://x/b"}
		]`))
	}))
	defer srv.Close()

	tabs, err := newDiscoveryClient(srv.URL).ListTabs(context.Background(), "page")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tabs) != 1 || tabs[0].ID() != "a" {
		t.Fatalf("expected only the page-type tab to survive the filter, got %+v", tabs)
	}
}

func TestDiscoveryListTabsNoFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":"a","type":"page"},
			{"id":"b","type":"background_page"}
		]`))
	}))
	defer srv.Close()

	tabs, err := newDiscoveryClient(srv.URL).ListTabs(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tabs) != 2 {
		t.Fatalf("expected no filtering with an empty type, got %+v", tabs)
	}
}

func TestDiscoveryNewTabWithURL(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		w.Write([]byte(`{"id":"new1","type":"page","webSocketDebuggerUrl":"ws://x/new1"}`))
	}))
	defer srv.Close()

	tab, err := newDiscoveryClient(srv.URL).NewTab(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tab.ID() != "new1" {
		t.Fatalf("unexpected tab id: %s", tab.ID())
	}
	if gotPath == "" {
		t.Fatalf("expected the server to receive a request")
	}
}

func TestDiscoveryCloseTabSwallowsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if err := newDiscoveryClient(srv.URL).CloseTab(context.Background(), "gone"); err != nil {
		t.Fatalf("CloseTab must swallow errors, got %v", err)
	}
}

func TestDiscoveryActivateTabPropagatesTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newDiscoveryClient(srv.URL).ActivateTab(context.Background(), "a")
	if err == nil {
		t.Fatalf("expected an error for a non-200 response")
	}
}

func TestTabIDFromEndpoint(t *testing.T) {
	cases := []struct {
		endpoint string
		wantID   string
		wantOK   bool
	}{
		{"ws://127.0.0.1:9222/devtools/page/ABC123", "ABC123", true},
		{"ws://127.0.0.1:9222/devtools/page/ABC123/", "ABC123", true},
		{"ws://127.0.0.1:9222/", "", false},
	}
	for _, c := range cases {
		id, ok := tabIDFromEndpoint(c.endpoint)
		if ok != c.wantOK || id != c.wantID {
			t.Fatalf("tabIDFromEndpoint(%q) = (%q, %v), want (%q, %v)", c.endpoint, id, ok, c.wantID, c.wantOK)
		}
	}
}

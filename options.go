// Copyright 2026 - Giacomo Failla <failla.giacomo@gmail.com>
// MIT License. See LICENSE file for details.

package cdpsession

import (
	"io"
	"regexp"
)

// TabSelector picks a target among the tabs a browser reports via its
// discovery endpoint. The source this module is grounded on dispatches on
// the runtime type of the tab argument; Go has no such dispatch, so the four
// cases become an explicit tagged variant (Design Note, spec.md §9) rather
// than an `any` re-inspected with type switches at every call site.
type TabSelector struct {
	kind   tabSelectorKind
	index  int
	title  *regexp.Regexp
	id     string
	record Tab
}

type tabSelectorKind int

const (
	tabSelectorNone tabSelectorKind = iota
	tabSelectorIndex
	tabSelectorTitle
	tabSelectorID
	tabSelectorRecord
)

// TabIndex selects the tab at position i in the browser's /json/list order.
func TabIndex(i int) TabSelector { return TabSelector{kind: tabSelectorIndex, index: i} }

// TabTitle selects the first tab whose title matches re.
func TabTitle(re *regexp.Regexp) TabSelector { return TabSelector{kind: tabSelectorTitle, title: re} }

// TabID selects the tab whose id equals id.
func TabID(id string) TabSelector { return TabSelector{kind: tabSelectorID, id: id} }

// TabRecord selects the tab matching an already-fetched record's id.
func TabRecord(tab Tab) TabSelector { return TabSelector{kind: tabSelectorRecord, record: tab} }

// ConnectOptions configures Connect's endpoint-resolution policy (spec.md
// §4.G).
type ConnectOptions struct {
	// Endpoint is an explicit WebSocket debugger URL. When set, no tab
	// selector or discovery round-trip is consulted.
	Endpoint string

	// Tab selects a target via the browser's discovery endpoint. Ignored
	// when Endpoint, or PipeReader/PipeWriter, is set.
	Tab TabSelector

	// NewTab, when true and no Endpoint/Tab/pipe is given, opens a fresh
	// tab via /json/new instead of attaching to an existing one.
	NewTabURL string
	NewTab    bool

	// PipeReader/PipeWriter, when both set, select the local pipe
	// transport and skip HTTP discovery entirely (resolution step 1).
	PipeReader io.Reader
	PipeWriter io.Writer
	PipeCloser io.Closer

	// Transport overrides the transport entirely; when set, no endpoint
	// resolution of any kind runs.
	Transport Transport

	// DiscoveryBaseURL is the browser's HTTP discovery origin, e.g.
	// "http://127.0.0.1:9222". Required unless Endpoint, Transport or a
	// pipe pair is supplied.
	DiscoveryBaseURL string
}

// ConnectOption mutates ConnectOptions, following the functional-option
// style of chromedp's BrowserOption.
type ConnectOption func(*ConnectOptions)

// WithEndpoint sets an explicit WebSocket debugger URL.
func WithEndpoint(endpoint string) ConnectOption {
	return func(o *ConnectOptions) { o.Endpoint = endpoint }
}

// WithTab selects a target tab.
func WithTab(sel TabSelector) ConnectOption {
	return func(o *ConnectOptions) { o.Tab = sel }
}

// WithNewTab opens a fresh tab, optionally navigated to url.
func WithNewTab(url string) ConnectOption {
	return func(o *ConnectOptions) { o.NewTab = true; o.NewTabURL = url }
}

// WithPipe selects the local pipe transport, bypassing HTTP discovery.
func WithPipe(r io.Reader, w io.Writer, closer io.Closer) ConnectOption {
	return func(o *ConnectOptions) { o.PipeReader = r; o.PipeWriter = w; o.PipeCloser = closer }
}

// WithTransport overrides the transport entirely, bypassing both discovery
// and tab selection. Used by tests to substitute a fake Transport.
func WithTransport(t Transport) ConnectOption {
	return func(o *ConnectOptions) { o.Transport = t }
}

// WithDiscoveryBaseURL sets the browser's HTTP discovery origin.
func WithDiscoveryBaseURL(baseURL string) ConnectOption {
	return func(o *ConnectOptions) { o.DiscoveryBaseURL = baseURL }
}

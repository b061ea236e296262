// Copyright 2026 - Giacomo Failla <failla.giacomo@gmail.com>
// MIT License. See LICENSE file for details.

// Package cdpsession is a client-side dispatcher for the Chrome DevTools
// Protocol (CDP). It opens a WebSocket session against a running Chrome or
// Chromium instance, correlates outbound requests with inbound replies by
// sequence number, and fans out unsolicited browser events to persistent
// subscriptions, one-shot waiters, and an optional catch-all sink.
//
// The package does not drive a browser process and does not implement the
// semantics of any individual CDP domain (Page, DOM, Runtime, Network, ...);
// it only owns request/reply correlation, event demultiplexing, and the
// small HTTP discovery dance CDP layers over a browser's /json endpoint.
package cdpsession

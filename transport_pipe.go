// Copyright 2026 - Giacomo Failla <failla.giacomo@gmail.com>
// MIT License. See LICENSE file for details.

package cdpsession

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"sync"
)

// pipeTransport frames messages over a pair of already-open file descriptors
// (a browser launched with --remote-debugging-pipe) instead of a WebSocket.
// Grounded on daabr-chrome-vision's receiveFromPipe/scanMessages/sendToPipe,
// NUL-delimited there; this module keeps that delimiter rather than
// newline-delimiting, since CDP's pipe protocol itself reserves NUL as the
// frame terminator and JSON payloads may validly contain literal newlines.
type pipeTransport struct {
	r *bufio.Scanner
	w io.Writer

	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  bool
	closer  io.Closer
}

// newPipeTransport wraps reader/writer ends of an already-open pipe pair.
// closer, if non-nil, is invoked by Close to release both ends.
func newPipeTransport(r io.Reader, w io.Writer, closer io.Closer) *pipeTransport {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	scanner.Split(scanNulDelimited)
	return &pipeTransport{r: scanner, w: w, closer: closer}
}

// scanNulDelimited is bufio.ScanLines with \0 instead of \n as the
// separator, per daabr-chrome-vision's scanMessages.
func scanNulDelimited(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\x00'); i >= 0 {
		return i + 1, data[0:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Send writes frame followed by a NUL terminator.
func (t *pipeTransport) Send(ctx context.Context, frame []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := t.w.Write(frame); err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	if _, err := t.w.Write([]byte{0}); err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	return nil
}

// Receive blocks for the next NUL-delimited frame. The scanner is not
// context-aware; cancellation is observed on the next call after the
// underlying reader unblocks (e.g. on Close).
func (t *pipeTransport) Receive(ctx context.Context) ([]byte, error) {
	if !t.r.Scan() {
		if err := t.r.Err(); err != nil {
			return nil, &TransportError{Op: "receive", Err: err}
		}
		return nil, &TransportError{Op: "receive", Err: io.EOF}
	}
	frame := make([]byte, len(t.r.Bytes()))
	copy(frame, t.r.Bytes())
	return frame, nil
}

// Close releases the underlying descriptors. Safe to call more than once.
func (t *pipeTransport) Close() error {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}

// Copyright 2026 - Giacomo Failla <failla.giacomo@gmail.com>
// MIT License. See LICENSE file for details.

package cdpsession

import (
	"sync"
	"testing"

	"github.com/mailru/easyjson"
)

func TestPendingTableFulfill(t *testing.T) {
	pt := newPendingTable()
	ch := pt.register(1)

	if ok := pt.fulfill(1, easyjson.RawMessage(`{"ok":true}`)); !ok {
		t.Fatalf("fulfill returned false for a registered id")
	}

	res := <-ch
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}
	if string(res.result) != `{"ok":true}` {
		t.Fatalf("unexpected result: %s", res.result)
	}
}

func TestPendingTableReject(t *testing.T) {
	pt := newPendingTable()
	ch := pt.register(1)

	want := &ProtocolError{Code: -32000, Message: "Oops"}
	if ok := pt.reject(1, want); !ok {
		t.Fatalf("reject returned false for a registered id")
	}

	res := <-ch
	if res.err != want {
		t.Fatalf("expected the rejected error to be delivered verbatim")
	}
}

func TestPendingTableOrphanIsNoop(t *testing.T) {
	pt := newPendingTable()
	if ok := pt.fulfill(99, nil); ok {
		t.Fatalf("fulfill on an unregistered id should report false")
	}
	if ok := pt.reject(99, nil); ok {
		t.Fatalf("reject on an unregistered id should report false")
	}
}

func TestPendingTableFulfillTwiceIsNoop(t *testing.T) {
	pt := newPendingTable()
	ch := pt.register(1)
	pt.fulfill(1, nil)
	<-ch

	if ok := pt.fulfill(1, nil); ok {
		t.Fatalf("a second fulfill of the same id should be a no-op, not a second delivery")
	}
}

func TestPendingTableRemoveDropsLateReply(t *testing.T) {
	pt := newPendingTable()
	pt.register(1)
	pt.remove(1)

	if ok := pt.fulfill(1, nil); ok {
		t.Fatalf("fulfill should fail after remove")
	}
}

func TestPendingTableDrainRejectsEveryEntry(t *testing.T) {
	pt := newPendingTable()
	var chans []chan pendingResult
	for i := int64(1); i <= 5; i++ {
		chans = append(chans, pt.register(i))
	}

	cause := &DisconnectedError{}
	pt.drain(cause)

	for i, ch := range chans {
		res := <-ch
		if res.err != cause {
			t.Fatalf("entry %d: expected drain cause, got %v", i, res.err)
		}
	}
}

func TestPendingTableConcurrentRegisterUniqueIDs(t *testing.T) {
	pt := newPendingTable()
	const n = 200
	var wg sync.WaitGroup
	wg.Add(n)
	for i := int64(0); i < n; i++ {
		go func(id int64) {
			defer wg.Done()
			ch := pt.register(id)
			pt.fulfill(id, easyjson.RawMessage("null"))
			<-ch
		}(i)
	}
	wg.Wait()
}

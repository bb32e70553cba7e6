// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"tuner/internal/note"
)

func testReading(freq float64) Reading {
	n := note.FromFrequency(freq, note.A440)
	return Reading{
		Time:      time.Unix(1700000000, 0).UTC(),
		Frequency: freq,
		Average:   freq,
		Latest:    n.Value,
		Note:      n,
	}
}

func TestWebSocketBroadcast(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewWebSocketTransport error: %v", err)
	}
	defer wst.Close()

	url := fmt.Sprintf("ws://%s%s", wst.Addr(), WebSocketPath)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial error: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for wst.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	want := testReading(440)
	if err := wst.Send(want); err != nil {
		t.Fatalf("Send error: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Reading
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON error: %v", err)
	}
	if got.Frequency != want.Frequency || got.Note.Name != "A" || got.Note.Octave != 4 || !got.Time.Equal(want.Time) {
		t.Errorf("received %+v, want %+v", got, want)
	}
}

func TestWebSocketSendAfterClose(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewWebSocketTransport error: %v", err)
	}
	if err := wst.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := wst.Send(testReading(440)); err == nil {
		t.Error("expected error sending on closed transport")
	}
	if err := wst.Close(); err != nil {
		t.Errorf("second Close error: %v", err)
	}
}

func TestWebSocketListenError(t *testing.T) {
	if _, err := NewWebSocketTransport("256.0.0.1:bad"); err == nil {
		t.Error("expected listen error for invalid address")
	}
}

func TestFeed(t *testing.T) {
	f := NewFeed(2)

	for _, hz := range []float64{110, 220, 330} {
		if err := f.Send(testReading(hz)); err != nil {
			t.Fatalf("Send error: %v", err)
		}
	}
	if err := f.Send("not a reading"); err == nil {
		t.Error("expected error for unsupported type")
	}

	// The third reading was dropped while the buffer was full.
	if r := <-f.Readings(); r.Frequency != 110 {
		t.Errorf("first reading = %v Hz, want 110", r.Frequency)
	}
	if r := <-f.Readings(); r.Frequency != 220 {
		t.Errorf("second reading = %v Hz, want 220", r.Frequency)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if _, ok := <-f.Readings(); ok {
		t.Error("Readings channel still open after Close")
	}
	if err := f.Send(testReading(440)); err == nil {
		t.Error("expected error sending on closed feed")
	}
	if err := f.Close(); err != nil {
		t.Errorf("second Close error: %v", err)
	}
}

type recordingTransport struct {
	sent    []any
	sendErr error
	closed  bool
}

func (r *recordingTransport) Send(data any) error { r.sent = append(r.sent, data); return r.sendErr }
func (r *recordingTransport) Close() error       { r.closed = true; return nil }

func TestMultiVisitsEveryTransport(t *testing.T) {
	failing := &recordingTransport{sendErr: errors.New("down")}
	ok := &recordingTransport{}
	m := Multi{failing, ok, NewLoggingTransport()}

	if err := m.Send(testReading(440)); err == nil || err.Error() != "down" {
		t.Errorf("Send error = %v, want first transport's error", err)
	}
	if len(ok.sent) != 1 {
		t.Errorf("second transport received %d messages, want 1", len(ok.sent))
	}

	if err := m.Close(); err != nil {
		t.Errorf("Close error: %v", err)
	}
	if !failing.closed || !ok.closed {
		t.Error("Close skipped a transport")
	}
}

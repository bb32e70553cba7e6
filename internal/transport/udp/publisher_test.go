// SPDX-License-Identifier: MIT
package udp

import (
	"errors"
	"net"
	"testing"
	"time"

	"tuner/internal/note"
	"tuner/internal/transport"
)

func listen(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func receive(t *testing.T, conn *net.UDPConn) Packet {
	t.Helper()
	buf := make([]byte, 64)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP error: %v", err)
	}
	if n != PacketSize {
		t.Fatalf("packet size = %d, want %d", n, PacketSize)
	}
	p, err := DecodePacket(buf[:n])
	if err != nil {
		t.Fatalf("DecodePacket error: %v", err)
	}
	return p
}

func TestPublisherSendsReadings(t *testing.T) {
	conn := listen(t)
	pub, err := Dial(conn.LocalAddr().String())
	if err != nil {
		t.Fatalf("Dial error: %v", err)
	}
	defer pub.Close()

	now := time.Unix(1700000000, 123)
	tests := []struct {
		name    string
		reading transport.Reading
		want    Packet
	}{
		{
			"In tune",
			transport.Reading{Time: now, Frequency: 440, Average: 440, Note: note.FromFrequency(440, note.A440)},
			Packet{Sequence: 1, Timestamp: now.UnixNano(), Frequency: 440, Average: 440, Note: 69, Cents: 0, Flags: FlagTuned},
		},
		{
			"Sharp",
			transport.Reading{Time: now, Frequency: 450, Average: 445, Note: note.FromFrequency(445, note.A440)},
			Packet{Sequence: 2, Timestamp: now.UnixNano(), Frequency: 450, Average: 445, Note: 69, Cents: float32(note.FromFrequency(445, note.A440).Cents)},
		},
		{
			"Reset",
			transport.Reading{Time: now, Reset: true},
			Packet{Sequence: 3, Timestamp: now.UnixNano(), Note: -1, Flags: FlagReset},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := pub.Send(tt.reading); err != nil {
				t.Fatalf("Send error: %v", err)
			}
			if got := receive(t, conn); got != tt.want {
				t.Errorf("packet = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPublisherRejectsOtherTypes(t *testing.T) {
	conn := listen(t)
	pub, err := Dial(conn.LocalAddr().String())
	if err != nil {
		t.Fatalf("Dial error: %v", err)
	}
	defer pub.Close()

	if err := pub.Send([]float64{1, 2}); err == nil {
		t.Error("expected error for unsupported type")
	}
}

func TestSendAfterClose(t *testing.T) {
	conn := listen(t)
	pub, err := Dial(conn.LocalAddr().String())
	if err != nil {
		t.Fatalf("Dial error: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := pub.Send(transport.Reading{}); err == nil {
		t.Error("expected error sending after Close")
	}
	if err := pub.Close(); err != nil {
		t.Errorf("second Close error: %v", err)
	}
}

func TestDecodeShortPacket(t *testing.T) {
	if _, err := DecodePacket(make([]byte, PacketSize-1)); !errors.Is(err, ErrShortPacket) {
		t.Errorf("error = %v, want ErrShortPacket", err)
	}
}

func TestNewPublisherValidation(t *testing.T) {
	if _, err := NewPublisher(nil); err == nil {
		t.Error("expected error for nil sender")
	}
	if _, err := Dial("not an address"); err == nil {
		t.Error("expected error for unresolvable address")
	}
}

func TestSenderCountsAndCloses(t *testing.T) {
	conn := listen(t)
	s, err := NewSender(conn.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewSender error: %v", err)
	}
	if got := s.Target().Port; got != conn.LocalAddr().(*net.UDPAddr).Port {
		t.Errorf("Target port = %d", got)
	}

	for range 3 {
		if err := s.Send(make([]byte, PacketSize)); err != nil {
			t.Fatalf("Send error: %v", err)
		}
	}
	if st := s.Stats(); st.Sent != 3 || st.Dropped != 0 {
		t.Errorf("Stats = %+v, want 3 sent", st)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := s.Send(nil); !errors.Is(err, ErrSenderClosed) {
		t.Errorf("Send after Close = %v, want ErrSenderClosed", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close error: %v", err)
	}
}

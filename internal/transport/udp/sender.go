// SPDX-License-Identifier: MIT
package udp

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	applog "tuner/internal/log"
)

var senderLog = applog.Named("UDPSender")

// ErrSenderClosed is returned by Send after Close.
var ErrSenderClosed = errors.New("udp sender closed")

// writeTimeout bounds a single datagram write so a stalled socket cannot
// hold up the monitor loop.
const writeTimeout = 50 * time.Millisecond

// Stats counts datagrams since the sender was created.
type Stats struct {
	Sent    uint64
	Dropped uint64
}

// Sender writes reading packets to one connected UDP peer.
type Sender struct {
	target *net.UDPAddr

	mu    sync.Mutex
	conn  *net.UDPConn // nil once closed
	stats Stats
}

// NewSender resolves targetAddress ("host:port") and connects to it.
func NewSender(targetAddress string) (*Sender, error) {
	addr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("resolve udp target %q: %w", targetAddress, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial udp target %q: %w", targetAddress, err)
	}

	senderLog.Debugf("connected %s -> %s", conn.LocalAddr(), addr)
	return &Sender{target: addr, conn: conn}, nil
}

// Target returns the resolved destination.
func (s *Sender) Target() *net.UDPAddr {
	return s.target
}

// Stats returns the datagram counters.
func (s *Sender) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Send writes packet as one datagram. A failed write counts as dropped.
func (s *Sender) Send(packet []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return ErrSenderClosed
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := s.conn.Write(packet); err != nil {
		s.stats.Dropped++
		return fmt.Errorf("send to %s: %w", s.target, err)
	}
	s.stats.Sent++
	return nil
}

// Close releases the socket. Later calls do nothing.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	senderLog.Infof("closed %s after %d packet(s), %d dropped", s.target, s.stats.Sent, s.stats.Dropped)
	return err
}

// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	applog "tuner/internal/log"
	"tuner/internal/transport"
)

var publisherLog = applog.Named("UDPPublisher")

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Frequency         | float32        | 4            | Latest reading in Hz    |
| Average           | float32        | 4            | Averaged reading in Hz  |
| Note              | int16          | 2            | MIDI note, -1 if none   |
| Cents             | float32        | 4            | Offset from Note        |
| Flags             | uint8          | 1            | FlagTuned | FlagReset   |
+-----------------------------------------------------------------------------+
*/

const (
	FlagTuned uint8 = 1 << iota
	FlagReset
)

// PacketSize is the encoded length of a Packet.
const PacketSize = 27

var ErrShortPacket = errors.New("packet too short")

// Packet is the wire form of a transport.Reading.
type Packet struct {
	Sequence  uint32
	Timestamp int64
	Frequency float32
	Average   float32
	Note      int16
	Cents     float32
	Flags     uint8
}

// DecodePacket parses a packet produced by Publisher.
func DecodePacket(b []byte) (Packet, error) {
	var p Packet
	if len(b) < PacketSize {
		return p, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(b))
	}
	err := binary.Read(bytes.NewReader(b), binary.BigEndian, &p)
	return p, err
}

// Publisher encodes readings as fixed-size binary packets and sends them
// with a Sender.
type Publisher struct {
	sender *Sender

	mu           sync.Mutex // Serialises packing and sequence numbering.
	sequenceNum  uint32
	packetBuffer *bytes.Buffer
}

func NewPublisher(sender *Sender) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}
	publisherLog.Infof("publishing readings to %s", sender.Target())
	return &Publisher{
		sender:       sender,
		packetBuffer: bytes.NewBuffer(make([]byte, 0, PacketSize)),
	}, nil
}

// Dial resolves targetAddress and returns a Publisher sending to it.
func Dial(targetAddress string) (*Publisher, error) {
	sender, err := NewSender(targetAddress)
	if err != nil {
		return nil, err
	}
	return NewPublisher(sender)
}

func packetFor(r transport.Reading) Packet {
	p := Packet{
		Timestamp: r.Time.UnixNano(),
		Frequency: float32(r.Frequency),
		Average:   float32(r.Average),
		Note:      -1,
	}
	if r.Reset {
		p.Flags |= FlagReset
		return p
	}
	if r.Note.Name != "" {
		p.Note = int16(r.Note.Number)
		p.Cents = float32(r.Note.Cents)
	}
	if r.Note.Tuned {
		p.Flags |= FlagTuned
	}
	return p
}

// Send packs and transmits a transport.Reading. Other types are rejected.
func (p *Publisher) Send(data any) error {
	r, ok := data.(transport.Reading)
	if !ok {
		return fmt.Errorf("UDPPublisher: unsupported message type %T", data)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	pkt := packetFor(r)
	p.sequenceNum++
	pkt.Sequence = p.sequenceNum

	p.packetBuffer.Reset()
	if err := binary.Write(p.packetBuffer, binary.BigEndian, pkt); err != nil {
		return fmt.Errorf("UDPPublisher: error packing reading: %w", err)
	}

	if err := p.sender.Send(p.packetBuffer.Bytes()); err != nil {
		return err
	}
	publisherLog.Debugf("sent packet %d (%d bytes)", pkt.Sequence, p.packetBuffer.Len())
	return nil
}

func (p *Publisher) Close() error {
	return p.sender.Close()
}

var _ transport.Transport = (*Publisher)(nil)

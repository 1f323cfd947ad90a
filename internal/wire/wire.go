// Package wire implements the ICMP echo wire format for IPv4 and IPv6:
// encoding of Echo Requests, decoding and validation of Echo Replies,
// and the RFC 1071 internet checksum.
package wire

import (
	"encoding/binary"
	"net"
)

// Family selects the ICMP variant of a packet.
type Family int

const (
	// V4 is ICMP for IPv4 (protocol 1).
	V4 Family = iota
	// V6 is ICMPv6 (IPv6 next header 58).
	V6
)

func (f Family) String() string {
	if f == V4 {
		return "icmp4"
	}
	return "icmp6"
}

// FamilyOf returns the ICMP family matching the address family of ip.
func FamilyOf(ip net.IP) Family {
	if ip.To4() != nil {
		return V4
	}
	return V6
}

// ICMP type values for the echo message pair.
const (
	TypeEchoRequestV4 = 8
	TypeEchoReplyV4   = 0
	TypeEchoRequestV6 = 128
	TypeEchoReplyV6   = 129
)

// HeaderLen is the fixed size of an ICMP echo header:
// type, code, checksum, identifier and sequence number.
const HeaderLen = 8

// Checksum computes the RFC 1071 internet checksum over b: the
// one's-complement sum of all 16-bit words, an odd trailing byte padded
// with zero, folded until it fits 16 bits and then complemented.
func Checksum(b []byte) uint16 {
	var sum uint32

	for i := 0; i+1 < len(b); i += 2 {
		sum += uint32(b[i])<<8 | uint32(b[i+1])
	}
	if len(b)%2 == 1 {
		sum += uint32(b[len(b)-1]) << 8
	}
	for sum > 0xffff {
		sum = sum>>16 + sum&0xffff
	}

	return ^uint16(sum)
}

// EncodeRequest builds an ICMP Echo Request with the given identifier,
// sequence number and payload.
//
// For V4 the checksum covers the whole message and is filled in here.
// For V6 the checksum field is left zero: the ICMPv6 checksum covers a
// pseudo-header that includes the source address, which is unknown for
// an unbound socket, so the kernel fills it in on transmit for raw
// ICMPv6 sockets. The transport relies on the kernel in both directions
// for V6.
func EncodeRequest(fam Family, id, seq uint16, payload []byte) []byte {
	b := make([]byte, HeaderLen+len(payload))

	if fam == V4 {
		b[0] = TypeEchoRequestV4
	} else {
		b[0] = TypeEchoRequestV6
	}
	binary.BigEndian.PutUint16(b[4:6], id)
	binary.BigEndian.PutUint16(b[6:8], seq)
	copy(b[HeaderLen:], payload)

	if fam == V4 {
		binary.BigEndian.PutUint16(b[2:4], Checksum(b))
	}

	return b
}

// Reply is a decoded ICMP Echo Reply.
type Reply struct {
	Type    uint8
	Code    uint8
	ID      uint16
	Seq     uint16
	Payload []byte
}

// DecodeReply parses b as an ICMP Echo Reply of the given family. The
// second return value is false for datagrams that are too short, fail
// the V4 checksum, or carry any type other than the family's Echo
// Reply. Echo Requests (reflections of our own probes) and ICMP control
// messages such as destination-unreachable therefore never decode as
// replies. V6 checksums are not re-verified here; the kernel validates
// them against the pseudo-header before delivery.
func DecodeReply(fam Family, b []byte) (Reply, bool) {
	if len(b) < HeaderLen {
		return Reply{}, false
	}

	want := byte(TypeEchoReplyV4)
	if fam == V6 {
		want = TypeEchoReplyV6
	}
	if b[0] != want {
		return Reply{}, false
	}

	// a valid packet sums to zero, checksum field included
	if fam == V4 && Checksum(b) != 0 {
		return Reply{}, false
	}

	return Reply{
		Type:    b[0],
		Code:    b[1],
		ID:      binary.BigEndian.Uint16(b[4:6]),
		Seq:     binary.BigEndian.Uint16(b[6:8]),
		Payload: b[HeaderLen:],
	}, true
}

// Package transport owns the raw ICMP sockets of a probing session:
// one socket per address family in use, sending of encoded datagrams
// and a receive pump feeding a bounded channel.
package transport

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/digineo/go-logwrap"
	"golang.org/x/net/icmp"

	"github.com/probelab/multiprobe/internal/wire"
)

const (
	// ProtocolICMP is the number of the Internet Control Message Protocol
	// (see golang.org/x/net/internal/iana.ProtocolICMP)
	ProtocolICMP = 1

	// ProtocolICMPv6 is the IPv6 Next Header value for ICMPv6
	// see golang.org/x/net/internal/iana.ProtocolIPv6ICMP
	ProtocolICMPv6 = 58
)

// readBufferSize covers any echo reply we could have solicited.
const readBufferSize = 1500

// packetBacklog bounds the receive channel. Datagrams arriving while
// the backlog is full are dropped.
const packetBacklog = 512

var (
	log = &logwrap.Instance{}

	// SetLogger allows updating the Logger. For details, see
	// "github.com/digineo/go-logwrap".Instance.SetLogger.
	SetLogger = log.SetLogger
)

var (
	// ErrPermission indicates the OS rejected the raw socket. Sending
	// ICMP echo requests usually needs elevated privileges or an
	// adjusted net.ipv4.ping_group_range.
	ErrPermission = errors.New("insufficient privileges for ICMP sockets")

	errNotBound      = errors.New("need at least one bind address")
	errSocketMissing = errors.New("no socket for address family")
)

// Datagram is a single received ICMP datagram together with its source
// and the time it was read from the socket.
type Datagram struct {
	Source net.IPAddr
	Bytes  []byte
	At     time.Time
}

// Conn bundles up to two ICMP sockets, one per address family. All
// sockets are released by Close, on every exit path of the owning
// session.
type Conn struct {
	// Privileged selects raw IP sockets ("ip4:icmp"/"ip6:ipv6-icmp")
	// instead of unprivileged datagram-oriented ones ("udp4"/"udp6").
	// On DGRAM ICMP sockets the kernel rewrites the echo identifier, so
	// sessions must not rely on it for matching in unprivileged mode.
	Privileged bool

	conn4 net.PacketConn
	conn6 net.PacketConn

	packets chan Datagram
	wg      sync.WaitGroup
}

// Open acquires a socket for every family with a non-empty bind
// address. If the second socket fails, the first is closed again so
// repeated sessions never leak descriptors.
func (c *Conn) Open(bind4, bind6 string) error {
	var network4, network6 string

	if c.Privileged {
		network4 = "ip4:icmp"
		network6 = "ip6:ipv6-icmp"
	} else {
		network4 = "udp4"
		network6 = "udp6"
	}

	var err error
	if c.conn4, err = connectICMP(network4, bind4); err != nil {
		return wrapSocketErr(err)
	}
	if c.conn6, err = connectICMP(network6, bind6); err != nil {
		if c.conn4 != nil {
			c.conn4.Close()
		}
		return wrapSocketErr(err)
	}

	if c.conn4 == nil && c.conn6 == nil {
		return errNotBound
	}

	c.packets = make(chan Datagram, packetBacklog)
	if c.conn4 != nil {
		c.wg.Add(1)
		go c.receiver(c.conn4)
	}
	if c.conn6 != nil {
		c.wg.Add(1)
		go c.receiver(c.conn6)
	}

	return nil
}

// Packets is the stream of received datagrams. It is closed once Close
// has shut down both sockets.
func (c *Conn) Packets() <-chan Datagram {
	return c.packets
}

// WriteTo transmits one encoded datagram to addr.
func (c *Conn) WriteTo(fam wire.Family, addr *net.IPAddr, pkt []byte) error {
	var conn net.PacketConn
	if fam == wire.V4 {
		conn = c.conn4
	} else {
		conn = c.conn6
	}
	if conn == nil {
		return errSocketMissing
	}

	var err error
	if c.Privileged {
		_, err = conn.WriteTo(pkt, addr)
	} else {
		_, err = conn.WriteTo(pkt, &net.UDPAddr{IP: addr.IP, Zone: addr.Zone})
	}
	return err
}

// Close shuts down both sockets, waits for the receivers to drain and
// closes the packet channel.
func (c *Conn) Close() {
	if c.conn4 != nil {
		c.conn4.Close()
	}
	if c.conn6 != nil {
		c.conn6.Close()
	}
	c.wg.Wait()
	if c.packets != nil {
		close(c.packets)
	}
}

// receiver pumps incoming datagrams into the packet channel until the
// socket is closed.
func (c *Conn) receiver(conn net.PacketConn) {
	defer c.wg.Done()

	rb := make([]byte, readBufferSize)
	for {
		n, source, err := conn.ReadFrom(rb)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Temporary() {
				continue
			}
			return // socket gone
		}

		var ipAddr net.IPAddr
		switch addr := source.(type) {
		case *net.UDPAddr:
			ipAddr.IP = addr.IP
			ipAddr.Zone = addr.Zone
		case *net.IPAddr:
			ipAddr = *addr
		}

		buf := make([]byte, n)
		copy(buf, rb[:n])

		select {
		case c.packets <- Datagram{Source: ipAddr, Bytes: buf, At: time.Now()}:
		default:
			log.Errorf("receive backlog full, dropping %d bytes from %v", n, ipAddr)
		}
	}
}

// connectICMP opens a new ICMP connection, if network and address are not empty.
func connectICMP(network, address string) (net.PacketConn, error) {
	if network == "" || address == "" {
		return nil, nil
	}

	conn, err := icmp.ListenPacket(network, address)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func wrapSocketErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrPermission) {
		return fmt.Errorf("%w: %v", ErrPermission, err)
	}
	return err
}

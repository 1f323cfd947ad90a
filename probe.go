// Package multiprobe checks reachability of many hosts concurrently by
// sending ICMP Echo Requests (IPv4 and IPv6) over one socket per
// address family and correlating the Echo Replies. MultiProbe is the
// high-level entry point; Probe exposes the underlying send/receive
// cycle for callers that want to drive retry rounds themselves.
package multiprobe

import (
	"net"
	"os"
	"time"

	"github.com/probelab/multiprobe/internal/transport"
	"github.com/probelab/multiprobe/internal/wire"
)

const maxTargets = 1<<16 - 1

// defaultPayloadSize matches the data size of the classic ping tool.
const defaultPayloadSize = 56

type config struct {
	bind4, bind6 string
	unprivileged bool
	payloadSize  uint16
	delay        time.Duration
	mark         uint
	setMark      bool
}

// Option adjusts a Probe during construction.
type Option func(*config)

// Bind4 sets the IPv4 bind address (default "0.0.0.0").
func Bind4(addr string) Option { return func(c *config) { c.bind4 = addr } }

// Bind6 sets the IPv6 bind address (default "::").
func Bind6(addr string) Option { return func(c *config) { c.bind6 = addr } }

// Unprivileged switches to datagram-oriented ICMP sockets, which do
// not require elevated privileges on Linux systems with an appropriate
// net.ipv4.ping_group_range. The kernel rewrites the echo identifier
// on these sockets, so replies are matched by sequence and source only.
func Unprivileged() Option { return func(c *config) { c.unprivileged = true } }

// PayloadSize sets the number of random payload bytes appended to each
// request (default 56).
func PayloadSize(n uint16) Option { return func(c *config) { c.payloadSize = n } }

// SendDelay inserts a pause between consecutive transmissions within a
// round. Some networks drop bursts of ICMP requests; a small delay
// avoids the resulting spurious retries.
func SendDelay(d time.Duration) Option { return func(c *config) { c.delay = d } }

// Mark sets SO_MARK on the session's sockets (Linux only).
func Mark(mark uint) Option { return func(c *config) { c.mark = mark; c.setMark = true } }

// Probe is one probing session over a fixed set of target addresses.
// It owns its sockets and its correlation table; the caller interleaves
// Send and Receive, then calls Close. A Probe is not safe for
// concurrent use, but independent Probes may run concurrently.
type Probe struct {
	conn    *transport.Conn
	reg     *registry
	payload Payload
	delay   time.Duration
}

// New creates a probing session for the given addresses. Duplicate
// addresses are merged into a single entry. Sockets are opened only for
// the address families present in the target set; a socket or
// permission failure is fatal for the whole session.
func New(addrs []net.IPAddr, opts ...Option) (*Probe, error) {
	if len(addrs) == 0 {
		return nil, ErrNoTargets
	}
	if len(addrs) > maxTargets {
		return nil, ErrTooManyTargets
	}

	cfg := config{bind4: "0.0.0.0", bind6: "::", payloadSize: defaultPayloadSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	var need4, need6 bool
	for _, addr := range addrs {
		if wire.FamilyOf(addr.IP) == wire.V4 {
			need4 = true
		} else {
			need6 = true
		}
	}
	if !need4 {
		cfg.bind4 = ""
	}
	if !need6 {
		cfg.bind6 = ""
	}

	conn := &transport.Conn{Privileged: !cfg.unprivileged}
	if err := conn.Open(cfg.bind4, cfg.bind6); err != nil {
		return nil, err
	}
	if cfg.setMark {
		if err := conn.SetMark(cfg.mark); err != nil {
			conn.Close()
			return nil, err
		}
	}

	// process identity plus a random component, so concurrent sessions
	// on a shared network do not cross-talk
	id := uint16(os.Getpid()) ^ uint16(rng.Intn(1<<16))

	p := &Probe{
		conn:  conn,
		reg:   newRegistry(id, !cfg.unprivileged, addrs),
		delay: cfg.delay,
	}
	p.payload.Resize(cfg.payloadSize)

	return p, nil
}

// Send transmits a fresh echo request, with a new sequence number, to
// every address that has not answered yet. The first call covers all
// targets; later calls are resends to the non-responders. A transmit
// failure for one address is logged and does not abort the round; the
// entry simply stays unanswered.
func (p *Probe) Send() {
	for _, e := range p.reg.notAnswered() {
		fam := wire.FamilyOf(e.addr.IP)
		seq := p.reg.markSent(e, time.Now())
		pkt := wire.EncodeRequest(fam, p.reg.id, seq, p.payload)

		if err := p.conn.WriteTo(fam, &e.addr, pkt); err != nil {
			log.Errorf("unable to send to %v: %v", e.addr, err)
		}

		if p.delay > 0 {
			time.Sleep(p.delay)
		}
	}
}

// Receive reads replies until every target has answered or timeout has
// elapsed, whichever comes first. It returns the cumulative
// address → RTT map for the whole session and the sorted list of
// addresses still unanswered. Malformed datagrams, foreign traffic and
// stale replies to superseded sequences are dropped silently.
func (p *Probe) Receive(timeout time.Duration) (map[string]time.Duration, []string) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

loop:
	for !p.reg.allAnswered() {
		select {
		case dg, ok := <-p.conn.Packets():
			if !ok {
				break loop // sockets closed
			}
			p.handle(dg)
		case <-deadline.C:
			break loop
		}
	}

	return p.reg.answered(), p.reg.pending()
}

// handle decodes one datagram and tries to settle the matching entry.
func (p *Probe) handle(dg transport.Datagram) {
	rep, ok := wire.DecodeReply(wire.FamilyOf(dg.Source.IP), dg.Bytes)
	if !ok {
		return
	}

	p.reg.match(rep.ID, rep.Seq, dg.Source.String(), dg.At)
}

// Answered returns the address → RTT map accumulated so far.
func (p *Probe) Answered() map[string]time.Duration {
	return p.reg.answered()
}

// Pending returns the addresses still without a reply.
func (p *Probe) Pending() []string {
	return p.reg.pending()
}

// Close releases the session's sockets.
func (p *Probe) Close() {
	p.conn.Close()
}

package multiprobe

import (
	"net"
	"sort"
	"time"
)

// registry is the correlation table between sent echo requests and
// received replies for one session. All requests of a session share one
// identifier; sequence numbers are unique per in-flight request and a
// resend supersedes the previous one.
type registry struct {
	id      uint16
	matchID bool // false on DGRAM sockets, where the kernel rewrites the identifier

	seq     uint16 // last allocated sequence number
	entries map[string]*targetEntry
	bySeq   map[uint16]*targetEntry // pending entries, keyed by sequence
}

// newRegistry seeds one entry per unique address. Duplicate addresses
// are silently merged into a single entry.
func newRegistry(id uint16, matchID bool, addrs []net.IPAddr) *registry {
	r := &registry{
		id:      id,
		matchID: matchID,
		entries: make(map[string]*targetEntry, len(addrs)),
		bySeq:   make(map[uint16]*targetEntry, len(addrs)),
	}

	for _, addr := range addrs {
		key := addr.String()
		if _, dup := r.entries[key]; dup {
			continue
		}
		r.entries[key] = &targetEntry{addr: addr, key: key}
	}

	return r
}

// markSent allocates a fresh sequence number for e and puts it in
// flight. A previously pending sequence is forgotten, so a late reply
// to it can no longer match.
func (r *registry) markSent(e *targetEntry, now time.Time) uint16 {
	if e.state == statePending {
		delete(r.bySeq, e.seq)
	}

	r.seq++
	e.seq = r.seq
	e.sentAt = now
	e.state = statePending
	r.bySeq[e.seq] = e

	return e.seq
}

// match looks up the pending entry agreeing with the reply on
// identifier, sequence and source address, transitions it to answered
// and records the round-trip time. Replies to superseded sequences or
// from foreign sessions fall through and return nil.
func (r *registry) match(id, seq uint16, srcKey string, at time.Time) *targetEntry {
	if r.matchID && id != r.id {
		return nil
	}

	e := r.bySeq[seq]
	if e == nil || e.state != statePending || e.key != srcKey {
		return nil
	}

	e.state = stateAnswered
	e.rtt = at.Sub(e.sentAt)
	delete(r.bySeq, seq)

	return e
}

// notAnswered returns every entry still eligible for a (re)send.
func (r *registry) notAnswered() []*targetEntry {
	entries := make([]*targetEntry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.state != stateAnswered {
			entries = append(entries, e)
		}
	}
	return entries
}

// pending returns the sorted addresses still waiting for a reply or
// not yet sent.
func (r *registry) pending() []string {
	keys := make([]string, 0, len(r.entries))
	for key, e := range r.entries {
		if e.state != stateAnswered {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// answered returns the address → round-trip time map over all answered
// entries.
func (r *registry) answered() map[string]time.Duration {
	result := make(map[string]time.Duration)
	for key, e := range r.entries {
		if e.state == stateAnswered {
			result[key] = e.rtt
		}
	}
	return result
}

func (r *registry) allAnswered() bool {
	for _, e := range r.entries {
		if e.state != stateAnswered {
			return false
		}
	}
	return true
}

package multiprobe

import (
	"net"
	"time"
)

// targetState tracks an entry through its lifecycle: unsent → pending
// → answered. There is no failed state; a non-responder simply stays
// pending past the deadline and remains eligible for the next round.
type targetState uint8

const (
	stateUnsent targetState = iota
	statePending
	stateAnswered
)

// targetEntry is the correlation record for one probed address.
type targetEntry struct {
	addr net.IPAddr
	key  string // addr.String(), the caller-visible form

	seq    uint16 // sequence of the current in-flight request
	sentAt time.Time
	state  targetState
	rtt    time.Duration // valid once state == stateAnswered
}

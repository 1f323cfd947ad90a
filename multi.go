package multiprobe

import "time"

// minSlice is the smallest usable wait budget for a single round.
const minSlice = 100 * time.Millisecond

// MultiProbe resolves the targets, probes them all and retries the
// non-responders until every address answered, the retry budget is
// spent or the overall timeout has elapsed. The timeout is divided into
// retry+1 equal round slices, so the wall-clock budget holds regardless
// of how many rounds run; round i resends only to the addresses still
// unanswered after round i−1 and the loop exits early once everything
// answered.
//
// It returns the aggregated address → RTT map and the list of addresses
// that never answered. Target names that fail resolution abort the call
// with a *ResolveError unless suppressLookupErrors is set, in which
// case those names are excluded from the probe set and returned as part
// of the unanswered list.
func MultiProbe(targets []string, timeout time.Duration, retry int, suppressLookupErrors bool) (map[string]time.Duration, []string, error) {
	if retry < 0 {
		retry = 0
	}
	if timeout < minSlice {
		return nil, nil, ErrTimeoutTooShort
	}
	slice := timeout / time.Duration(retry+1)
	if slice < minSlice {
		return nil, nil, ErrRetrySliceTooShort
	}

	addrs, dropped, err := resolveTargets(targets, suppressLookupErrors)
	if err != nil {
		return nil, nil, err
	}
	if len(addrs) == 0 {
		return map[string]time.Duration{}, dropped, nil
	}

	probe, err := New(addrs)
	if err != nil {
		return nil, nil, err
	}
	defer probe.Close()

	var answered map[string]time.Duration
	var unanswered []string
	for round := 0; round <= retry; round++ {
		probe.Send()
		answered, unanswered = probe.Receive(slice)
		if len(unanswered) == 0 {
			break
		}
	}

	return answered, append(unanswered, dropped...), nil
}

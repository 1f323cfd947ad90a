package multiprobe

import (
	"context"
	"net"
	"time"
)

// resolveTimeout bounds a single name lookup.
const resolveTimeout = 5 * time.Second

// resolveTargets looks up every target. With suppress set, names that
// fail resolution are collected separately instead of failing the
// whole set.
func resolveTargets(targets []string, suppress bool) (addrs []net.IPAddr, dropped []string, _ error) {
	for _, target := range targets {
		addr, err := resolve(target, resolveTimeout)
		if err != nil {
			if suppress {
				log.Errorf("dropping %q: %v", target, err)
				dropped = append(dropped, target)
				continue
			}
			return nil, nil, &ResolveError{Target: target, Err: err}
		}
		addrs = append(addrs, addr)
	}

	return addrs, dropped, nil
}

// resolve picks one address for a name. A name lookup may yield a
// mixture of IPv4 and IPv6 addresses; the first IPv4 one wins, with the
// first IPv6 address as fallback.
func resolve(target string, timeout time.Duration) (net.IPAddr, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, target)
	if err != nil {
		return net.IPAddr{}, err
	}

	for _, addr := range addrs {
		if addr.IP.To4() != nil {
			return addr, nil
		}
	}
	return addrs[0], nil
}

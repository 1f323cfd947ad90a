package multiprobe

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLiteralAddresses(t *testing.T) {
	addr, err := resolve("127.0.0.1", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", addr.String())

	addr, err = resolve("::1", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "::1", addr.String())
}

func TestResolvePrefersIPv4(t *testing.T) {
	// localhost commonly maps to both ::1 and 127.0.0.1
	all, err := net.DefaultResolver.LookupIPAddr(context.Background(), "localhost")
	if err != nil {
		t.Skipf("cannot resolve localhost: %v", err)
	}
	hasV4 := false
	for _, a := range all {
		hasV4 = hasV4 || a.IP.To4() != nil
	}
	if !hasV4 {
		t.Skip("localhost has no IPv4 address here")
	}

	addr, err := resolve("localhost", time.Second)
	require.NoError(t, err)
	assert.NotNil(t, addr.IP.To4(), "expected the IPv4 address to win")
}

func TestResolveTargetsSuppression(t *testing.T) {
	targets := []string{"127.0.0.1", "host.invalid"}

	_, _, err := resolveTargets(targets, false)
	var resolveErr *ResolveError
	require.ErrorAs(t, err, &resolveErr)

	addrs, dropped, err := resolveTargets(targets, true)
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.Equal(t, "127.0.0.1", addrs[0].String())
	assert.Equal(t, []string{"host.invalid"}, dropped)
}

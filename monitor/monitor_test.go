package monitor

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorTargetManagement(t *testing.T) {
	assert := assert.New(t)

	m := New(time.Minute)
	addr := net.IPAddr{IP: net.ParseIP("192.0.2.1")}

	m.AddTarget("a", addr)
	m.AddTarget("a", addr) // existing key keeps its history
	m.AddTarget("b", net.IPAddr{IP: net.ParseIP("192.0.2.2")})
	assert.Len(m.targets, 2)

	m.RemoveTarget("a")
	assert.Len(m.targets, 1)

	// no results recorded yet, nothing to export
	assert.Empty(m.Export())
}

func TestCollector(t *testing.T) {
	m := New(time.Minute)
	c := NewCollector(m)

	// no history yet, so no metrics either
	require.Zero(t, testutil.CollectAndCount(c))

	m.AddTarget("lo", net.IPAddr{IP: net.ParseIP("127.0.0.1")})
	m.targets["lo"].history.AddResult(10*ms, false)
	m.targets["lo"].history.AddResult(0, true)

	assert.Equal(t, 7, testutil.CollectAndCount(c), "2 counters + 5 rtt stats")

	expected := `
		# HELP multiprobe_probes_lost Probes without a reply within the history window.
		# TYPE multiprobe_probes_lost gauge
		multiprobe_probes_lost{target="lo"} 2
	`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected), "multiprobe_probes_lost")
	assert.Error(t, err, "only one of two probes was lost")

	expected = `
		# HELP multiprobe_probes_lost Probes without a reply within the history window.
		# TYPE multiprobe_probes_lost gauge
		multiprobe_probes_lost{target="lo"} 1
	`
	assert.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "multiprobe_probes_lost"))
}

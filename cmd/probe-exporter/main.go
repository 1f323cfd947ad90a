// Command probe-exporter periodically probes a set of targets and
// serves their reachability statistics as Prometheus metrics.
package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/probelab/multiprobe/monitor"
)

func main() {
	listen := ":9374"
	probeInterval := 15 * time.Second
	probeTimeout := 4 * time.Second
	retry := 1
	historySize := 20

	flag.StringVar(&listen, "listen", listen, "address for the metrics endpoint")
	flag.DurationVar(&probeInterval, "interval", probeInterval, "interval between probing rounds")
	flag.DurationVar(&probeTimeout, "timeout", probeTimeout, "overall timeout per probing round")
	flag.IntVar(&retry, "retry", retry, "resends to non-responders within a round")
	flag.IntVar(&historySize, "history", historySize, "number of results to keep per target")
	flag.Parse()
	targets := flag.Args()

	if len(targets) == 0 {
		fmt.Println("Usage:", os.Args[0], "[options] target1 target2 ...")
		flag.PrintDefaults()
		os.Exit(1)
	}

	m := monitor.New(probeInterval)
	m.Timeout = probeTimeout
	m.Retry = retry
	m.HistorySize = historySize
	defer m.Stop()

	for _, target := range targets {
		addr, err := net.ResolveIPAddr("ip", target)
		if err != nil {
			fmt.Printf("invalid target %q: %v\n", target, err)
			os.Exit(1)
		}
		m.AddTarget(target, *addr)
	}
	m.Start()

	registry := prometheus.NewRegistry()
	registry.MustRegister(monitor.NewCollector(m))

	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(listen, nil); err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
	}()

	// Handle SIGINT and SIGTERM.
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	fmt.Println("received", <-ch)
}

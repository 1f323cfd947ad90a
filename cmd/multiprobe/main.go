// Command multiprobe checks reachability of many hosts at once. In
// one-shot mode it probes every host, retries the non-responders and
// prints a result table; with -watch it keeps probing on an interval
// and displays live statistics.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"sort"
	"time"

	"gopkg.in/cheggaaa/pb.v1"

	"github.com/probelab/multiprobe"
)

var opts = struct {
	timeout  time.Duration
	retry    int
	ignore   bool
	delay    time.Duration
	watch    bool
	interval time.Duration
}{
	timeout:  time.Second,
	interval: time.Second,
}

func main() {
	flag.DurationVar(&opts.timeout, "timeout", opts.timeout, "overall timeout, shared across retries")
	flag.IntVar(&opts.retry, "retry", opts.retry, "number of resends to non-responders")
	flag.BoolVar(&opts.ignore, "i", opts.ignore, "ignore name lookup errors")
	flag.DurationVar(&opts.delay, "delay", opts.delay, "pause between transmissions within a round")
	flag.BoolVar(&opts.watch, "watch", opts.watch, "keep probing and show live statistics")
	flag.DurationVar(&opts.interval, "interval", opts.interval, "probing interval in watch mode")
	flag.Parse()

	log.SetFlags(0)

	targets := flag.Args()
	if len(targets) == 0 {
		fmt.Println("Usage:", os.Args[0], "[options] target1 target2 ...")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if opts.watch {
		watch(targets)
		return
	}

	answered, unanswered := oneShot(targets)

	keys := make([]string, 0, len(answered))
	for key := range answered {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Printf("%-42s %s\n", key, ts(answered[key]))
	}
	for _, key := range unanswered {
		fmt.Printf("%-42s no reply\n", key)
	}

	if len(unanswered) > 0 {
		os.Exit(1)
	}
}

// oneShot drives the send/receive rounds manually so the progress bar
// can advance as replies come in.
func oneShot(targets []string) (map[string]time.Duration, []string) {
	addrs, dropped := resolveAll(targets)
	if len(addrs) == 0 {
		return nil, dropped
	}

	probe, err := multiprobe.New(addrs, multiprobe.SendDelay(opts.delay))
	if err != nil {
		log.Fatalf("unable to probe: %v", err)
	}
	defer probe.Close()

	slice := opts.timeout / time.Duration(opts.retry+1)

	bar := pb.StartNew(len(addrs) + len(dropped))
	var answered map[string]time.Duration
	var unanswered []string
	for round := 0; round <= opts.retry; round++ {
		probe.Send()
		answered, unanswered = probe.Receive(slice)
		bar.Set(len(answered))
		if len(unanswered) == 0 {
			break
		}
	}
	bar.Finish()

	return answered, append(unanswered, dropped...)
}

// resolveAll resolves every target, honoring the -i flag.
func resolveAll(targets []string) (addrs []net.IPAddr, dropped []string) {
	for _, target := range targets {
		addr, err := net.ResolveIPAddr("ip", target)
		if err != nil {
			if !opts.ignore {
				log.Fatalf("cannot resolve %q: %v", target, err)
			}
			dropped = append(dropped, target)
			continue
		}
		addrs = append(addrs, *addr)
	}
	return addrs, dropped
}

const tsDividend = float64(time.Millisecond) / float64(time.Nanosecond)

func ts(dur time.Duration) string {
	if 10*time.Microsecond < dur && dur < time.Second {
		return fmt.Sprintf("%0.2fms", float64(dur.Nanoseconds())/tsDividend)
	}
	return dur.String()
}

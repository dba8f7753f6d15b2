package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Tiggerlaboratoriet/pigweed/v1/spinlock"
)

var (
	concurrency = flag.Int("c", 8, "Concurrency")
	requests    = flag.Int("n", 1000000, "Total acquisitions")
	dataSize    = flag.Int("d", 64, "Protected payload size in bytes")
	target      = flag.String("target", "all", "Target: bare, value, mutex")
)

func main() {
	flag.Parse()

	targets := strings.Split(*target, ",")
	if *target == "all" {
		targets = []string{"bare", "value", "mutex"}
	}

	fmt.Printf("| %-10s | %-10s | %-12s |\n", "Lock", "Ops/sec", "Avg Latency")
	fmt.Println("|:---|:---|:---|")

	for _, t := range targets {
		runBenchmark(strings.TrimSpace(t))
	}
}

// touch dirties the payload so the critical section does real work.
func touch(p []byte) {
	for i := range p {
		p[i]++
	}
}

func runBenchmark(name string) {
	var acquireFn func()

	switch name {
	case "bare":
		l := spinlock.NewBare()
		payload := make([]byte, *dataSize)
		acquireFn = func() {
			g := l.Lock()
			touch(payload)
			g.Release()
		}

	case "value":
		l := spinlock.New(make([]byte, *dataSize))
		acquireFn = func() {
			g := l.Lock()
			g.Update(func(p *[]byte) { touch(*p) })
			g.Release()
		}

	case "mutex":
		var mu sync.Mutex
		payload := make([]byte, *dataSize)
		acquireFn = func() {
			mu.Lock()
			touch(payload)
			mu.Unlock()
		}

	default:
		log.Printf("Unknown target: %s", name)
		return
	}

	var wg sync.WaitGroup
	chunk := *requests / *concurrency

	start := time.Now()
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < chunk; j++ {
				acquireFn()
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	ops := int64(chunk) * int64(*concurrency)
	throughput := float64(ops) / elapsed.Seconds()
	avgLat := float64(elapsed.Nanoseconds()) / float64(ops)

	fmt.Printf("| %-10s | %-10.0f | %-10.0fns |\n", name, throughput, avgLat)
}

// Command lock-stress exercises lock/try-lock interleavings under real
// contention and asserts on the invariants a lock must keep: no lost updates
// through a guarded value, no successful try-lock while a guard is alive,
// and a free lock after every guard is released.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/Tiggerlaboratoriet/pigweed/v1/metrics"
	"github.com/Tiggerlaboratoriet/pigweed/v1/spinlock"
)

var (
	workers     = flag.Int("c", 8, "Concurrent workers")
	iterations  = flag.Int("n", 200000, "Iterations per worker")
	target      = flag.String("target", "all", "Target: bare, value, trylock, mutex")
	metricsAddr = flag.String("metrics-addr", "", "Expose Prometheus metrics on this address (e.g. :2112)")
)

func main() {
	flag.Parse()

	runID := uuid.NewString()
	log.Printf("run %s: %d workers x %d iterations", runID, *workers, *iterations)

	reg := metrics.NewRegistry()
	if *metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			log.Fatal(http.ListenAndServe(*metricsAddr, nil))
		}()
	}

	targets := strings.Split(*target, ",")
	if *target == "all" {
		targets = []string{"bare", "value", "trylock", "mutex"}
	}

	fmt.Printf("| %-10s | %-12s | %-12s | %-10s |\n", "Target", "Ops/sec", "Elapsed", "Contention")
	fmt.Println("|:---|:---|:---|:---|")

	for _, t := range targets {
		run(strings.TrimSpace(t), reg)
	}
}

func run(name string, reg *prometheus.Registry) {
	var elapsed time.Duration
	var contention uint64

	switch name {
	case "bare":
		elapsed, contention = runBare(reg, name)
	case "value":
		elapsed, contention = runValue(reg, name)
	case "trylock":
		elapsed, contention = runTryLock()
	case "mutex":
		elapsed, contention = runMutex()
	default:
		log.Printf("unknown target %q", name)
		return
	}

	total := float64(*workers) * float64(*iterations)
	fmt.Printf("| %-10s | %-12.0f | %-12v | %-10d |\n", name, total/elapsed.Seconds(), elapsed.Round(time.Millisecond), contention)
}

// runBare increments a plain counter under a bare lock. Any lost update
// means mutual exclusion was broken.
func runBare(reg *prometheus.Registry, name string) (time.Duration, uint64) {
	l := spinlock.NewBare(spinlock.WithMetrics(reg, name))
	counter := 0

	start := time.Now()
	var eg errgroup.Group
	for w := 0; w < *workers; w++ {
		eg.Go(func() error {
			for i := 0; i < *iterations; i++ {
				g := l.Lock()
				counter++
				g.Release()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		log.Fatalf("bare: %v", err)
	}
	elapsed := time.Since(start)

	if want := *workers * *iterations; counter != want {
		log.Fatalf("bare: lost updates, got %d want %d", counter, want)
	}
	if _, ok := l.TryLock(); !ok {
		log.Fatal("bare: lock not free after all guards released")
	}
	return elapsed, 0
}

// runValue does the same through the guarded value itself.
func runValue(reg *prometheus.Registry, name string) (time.Duration, uint64) {
	l := spinlock.New(uint64(0), spinlock.WithMetrics(reg, name))

	start := time.Now()
	var eg errgroup.Group
	for w := 0; w < *workers; w++ {
		eg.Go(func() error {
			for i := 0; i < *iterations; i++ {
				g := l.Lock()
				g.Set(g.Get() + 1)
				g.Release()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		log.Fatalf("value: %v", err)
	}
	elapsed := time.Since(start)

	g := l.Lock()
	defer g.Release()
	if want := uint64(*workers) * uint64(*iterations); g.Get() != want {
		log.Fatalf("value: lost updates, got %d want %d", g.Get(), want)
	}
	return elapsed, 0
}

// runTryLock hammers TryLock from every worker and verifies exclusion: a
// worker that wins must see every other attempt fail until it releases.
func runTryLock() (time.Duration, uint64) {
	l := spinlock.NewBare()
	var rejected atomic.Uint64
	var held atomic.Int32

	start := time.Now()
	var eg errgroup.Group
	for w := 0; w < *workers; w++ {
		eg.Go(func() error {
			for i := 0; i < *iterations; i++ {
				g, ok := l.TryLock()
				if !ok {
					rejected.Add(1)
					continue
				}
				if held.Add(1) != 1 {
					return fmt.Errorf("two live guards at once")
				}
				held.Add(-1)
				g.Release()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		log.Fatalf("trylock: %v", err)
	}
	elapsed := time.Since(start)

	if _, ok := l.TryLock(); !ok {
		log.Fatal("trylock: lock not free at end of run")
	}
	return elapsed, rejected.Load()
}

// runMutex is the sync.Mutex baseline for comparison.
func runMutex() (time.Duration, uint64) {
	var mu sync.Mutex
	counter := 0

	start := time.Now()
	var eg errgroup.Group
	for w := 0; w < *workers; w++ {
		eg.Go(func() error {
			for i := 0; i < *iterations; i++ {
				mu.Lock()
				counter++
				mu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		log.Fatalf("mutex: %v", err)
	}
	elapsed := time.Since(start)

	if want := *workers * *iterations; counter != want {
		log.Fatalf("mutex: lost updates, got %d want %d", counter, want)
	}
	return elapsed, 0
}

package main

import (
	"HistoryDB/internal/domain"
	"HistoryDB/internal/platform/client"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type RequestResult struct {
	Duration time.Duration
	Success  bool
	NotFound bool
	Error    error
}

type BenchmarkStats struct {
	Name               string
	TotalRequests      int64
	SuccessfulRequests int64
	NotFoundRequests   int64
	ErrorRequests      int64
	ResponseTimes      []time.Duration
	StartTime          time.Time
	EndTime            time.Time
	mu                 sync.Mutex
}

func (b *BenchmarkStats) AddResult(result RequestResult) {
	b.mu.Lock()
	defer b.mu.Unlock()

	atomic.AddInt64(&b.TotalRequests, 1)

	switch {
	case result.Success:
		atomic.AddInt64(&b.SuccessfulRequests, 1)
	case result.NotFound:
		atomic.AddInt64(&b.NotFoundRequests, 1)
	default:
		atomic.AddInt64(&b.ErrorRequests, 1)
	}

	b.ResponseTimes = append(b.ResponseTimes, result.Duration)
}

func (b *BenchmarkStats) CalculatePercentiles() map[string]time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.ResponseTimes) == 0 {
		return make(map[string]time.Duration)
	}

	sort.Slice(b.ResponseTimes, func(i, j int) bool {
		return b.ResponseTimes[i] < b.ResponseTimes[j]
	})

	at := func(p float64) time.Duration {
		return b.ResponseTimes[int(float64(len(b.ResponseTimes))*p)]
	}
	return map[string]time.Duration{
		"p50":  at(0.50),
		"p90":  at(0.90),
		"p95":  at(0.95),
		"p99":  at(0.99),
		"p999": at(0.999),
	}
}

func (b *BenchmarkStats) GetRPS() float64 {
	duration := b.EndTime.Sub(b.StartTime).Seconds()
	if duration == 0 {
		return 0
	}
	return float64(atomic.LoadInt64(&b.TotalRequests)) / duration
}

func (b *BenchmarkStats) GetSuccessRate() float64 {
	total := atomic.LoadInt64(&b.TotalRequests)
	if total == 0 {
		return 0
	}
	return float64(atomic.LoadInt64(&b.SuccessfulRequests)) / float64(total) * 100
}

// ingest builds a store of nbAttributes quarks whose states change at
// random points, sending batchSize intervals per request in end time order.
func ingest(cli *client.IngestClient, nbAttributes int, endTime int64, batchSize int, finish bool) (*BenchmarkStats, error) {
	stats := &BenchmarkStats{Name: "INGEST", StartTime: time.Now()}

	// next state change per quark
	starts := make([]int64, nbAttributes)
	pending := make([]domain.StateInterval, 0, batchSize)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		sort.Slice(pending, func(i, j int) bool {
			return pending[i].End() < pending[j].End()
		})
		start := time.Now()
		_, err := cli.Insert(pending)
		stats.AddResult(RequestResult{Duration: time.Since(start), Success: err == nil, Error: err})
		pending = pending[:0]
		return err
	}

	for t := int64(0); t <= endTime; t++ {
		for quark := range nbAttributes {
			if t != endTime && rand.Intn(20) != 0 {
				continue
			}
			value := domain.NewLongValue(rand.Int63n(1000))
			if rand.Intn(4) == 0 {
				value = domain.NewStringValue(fmt.Sprintf("state_%d", rand.Intn(16)))
			}
			pending = append(pending, domain.NewStateInterval(starts[quark], t, quark, value))
			starts[quark] = t + 1
		}
		// batches are cut between time steps
		if len(pending) >= batchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}

	if finish {
		if _, err := cli.Finish(endTime); err != nil {
			return stats, err
		}
	}
	stats.EndTime = time.Now()
	return stats, nil
}

func queryWorker(id int, cli *client.HistoryClient, nbAttributes int, endTime int64,
	duration time.Duration, stats *BenchmarkStats, wg *sync.WaitGroup) {
	defer wg.Done()

	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		t := rand.Int63n(endTime + 1)

		start := time.Now()
		var err error
		if rand.Intn(2) == 0 {
			_, err = cli.Singular(t, rand.Intn(nbAttributes))
		} else {
			quarks := rand.Perm(nbAttributes)[:min(nbAttributes, 8)]
			_, err = cli.Partial(t, quarks)
		}

		stats.AddResult(RequestResult{
			Duration: time.Since(start),
			Success:  err == nil,
			NotFound: errors.Is(err, domain.ErrAttributeNotFound),
			Error:    err,
		})
	}

	log.Printf("Query worker %d completed", id)
}

func printResults(stats *BenchmarkStats) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Printf("%s RESULTS\n", stats.Name)
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("Duration: %v\n", stats.EndTime.Sub(stats.StartTime))
	fmt.Printf("Total Requests: %d\n", stats.TotalRequests)
	fmt.Printf("Successful Requests: %d\n", stats.SuccessfulRequests)
	fmt.Printf("Not Found Requests: %d\n", stats.NotFoundRequests)
	fmt.Printf("Failed Requests: %d\n", stats.ErrorRequests)
	fmt.Printf("Success Rate: %.2f%%\n", stats.GetSuccessRate())
	fmt.Printf("RPS (Requests Per Second): %.2f\n", stats.GetRPS())

	fmt.Println("\nRESPONSE TIME PERCENTILES:")
	percentiles := stats.CalculatePercentiles()
	for _, p := range []string{"p50", "p90", "p95", "p99", "p999"} {
		if duration, exists := percentiles[p]; exists {
			fmt.Printf("%s: %v\n", p, duration)
		}
	}

	if len(stats.ResponseTimes) > 0 {
		var sum time.Duration
		for _, rt := range stats.ResponseTimes {
			sum += rt
		}
		avg := time.Duration(int64(sum) / int64(len(stats.ResponseTimes)))

		var variance float64
		for _, rt := range stats.ResponseTimes {
			diff := float64(rt - avg)
			variance += diff * diff
		}
		variance /= float64(len(stats.ResponseTimes))
		stdDev := time.Duration(math.Sqrt(variance))

		fmt.Printf("\nSTATISTICS:\n")
		fmt.Printf("Average Response Time: %v\n", avg)
		fmt.Printf("Standard Deviation: %v\n", stdDev)
		fmt.Printf("Min Response Time: %v\n", stats.ResponseTimes[0])
		fmt.Printf("Max Response Time: %v\n", stats.ResponseTimes[len(stats.ResponseTimes)-1])
	}

	fmt.Println(strings.Repeat("=", 60))
}

func main() {
	var (
		ingestAddress = flag.String("ingest", "tcp://localhost:7100", "ZMQ ingest address")
		serverUrl     = flag.String("server", "http://localhost:3000", "HTTP query server")
		attributes    = flag.Int("attributes", 100, "Number of quarks")
		endTime       = flag.Int64("end", 10000, "End time of the generated history")
		batchSize     = flag.Int("batch", 500, "Intervals per insert request")
		finish        = flag.Bool("finish", true, "Finish building after ingest")
		workers       = flag.Int("workers", 10, "Number of query goroutines")
		duration      = flag.Duration("duration", 30*time.Second, "Query phase duration")
	)
	flag.Parse()

	ingestClient, err := client.NewIngestClient(*ingestAddress)
	if err != nil {
		log.Fatalf("connecting ingest api: %v", err)
	}
	defer ingestClient.Close()

	fmt.Printf("Ingesting %d attributes up to t=%d\n", *attributes, *endTime)
	ingestStats, err := ingest(ingestClient, *attributes, *endTime, *batchSize, *finish)
	if ingestStats.EndTime.IsZero() {
		ingestStats.EndTime = time.Now()
	}
	printResults(ingestStats)
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}

	historyClient := client.NewHistoryClient(*serverUrl)
	bounds, err := historyClient.Bounds()
	if err != nil {
		log.Fatalf("reading bounds: %v", err)
	}
	fmt.Printf("\nQuerying %s [%d, %d] with %d workers for %v\n",
		bounds.SSID, bounds.StartTime, bounds.EndTime, *workers, *duration)

	stats := &BenchmarkStats{Name: "QUERY", StartTime: time.Now()}
	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go queryWorker(i, historyClient, *attributes, bounds.EndTime, *duration, stats, &wg)
	}
	wg.Wait()
	stats.EndTime = time.Now()

	printResults(stats)
}

package services

import (
	"context"
	"log"

	"github.com/go-co-op/gocron/v2"
)

// StartPriceWarmer refreshes the quote cache on the TTL boundary so API reads
// almost never pay upstream latency. Returns a stop function for graceful
// shutdown; a no-op when no upstreams are configured.
func (p *PriceClient) StartPriceWarmer() func() {
	if len(p.URLs) == 0 {
		return func() {}
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("[PRICE] scheduler init failed: %v", err)
		return func() {}
	}

	_, _ = sched.NewJob(
		gocron.DurationJob(p.TTL),
		gocron.NewTask(func() {
			q := p.Quote(context.Background())
			log.Printf("[PRICE] warmed cache: %.6f USD (source=%s)", q.USD, q.Source)
		}),
	)

	sched.Start()
	return func() {
		if err := sched.Shutdown(); err != nil {
			log.Printf("[PRICE] scheduler shutdown failed: %v", err)
		}
	}
}

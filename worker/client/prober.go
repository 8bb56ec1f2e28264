package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/heft/common"
	"github.com/twitter/heft/scheduler/domain"
)

const DefaultProbeTries = 3
const DefaultProbeInterval = 200 * time.Millisecond

// Prober checks each worker's health endpoint before a run so unreachable
// nodes are reported up front. It never removes a node from the schedule.
type Prober struct {
	client     Client
	tries      uint64
	newBackOff func() backoff.BackOff
}

func NewProber(client Client, tries int) *Prober {
	if client == nil {
		client = &http.Client{Timeout: common.DefaultProbeTimeout}
	}
	if tries < 1 {
		tries = 1
	}
	return &Prober{
		client: client,
		tries:  uint64(tries),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = DefaultProbeInterval
			return b
		},
	}
}

// Probe returns the liveness of every processor, keyed by processor id.
// Processors are probed concurrently.
func (p *Prober) Probe(ctx context.Context, processors []domain.Processor) map[int]error {
	var mu sync.Mutex
	var wg sync.WaitGroup
	results := make(map[int]error, len(processors))

	for _, proc := range processors {
		wg.Add(1)
		go func(proc domain.Processor) {
			defer wg.Done()
			err := p.probeOne(ctx, proc)
			if err != nil {
				log.WithFields(log.Fields{
					"processor": proc.ID,
					"endpoint":  proc.Endpoint.String(),
					"err":       err,
				}).Warn("Processor failed liveness probe")
			}
			mu.Lock()
			results[proc.ID] = err
			mu.Unlock()
		}(proc)
	}
	wg.Wait()
	return results
}

func (p *Prober) probeOne(ctx context.Context, proc domain.Processor) error {
	uri := fmt.Sprintf("http://%s%s", proc.Endpoint, HealthPath)
	try := 1
	b := backoff.WithContext(backoff.WithMaxRetries(p.newBackOff(), p.tries-1), ctx)
	return backoff.Retry(func() error {
		log.Debugf("Probe %s try #%d", uri, try)
		try++
		req, err := http.NewRequest(http.MethodGet, uri, nil)
		if err != nil {
			return err
		}
		resp, err := p.client.Do(req.WithContext(ctx))
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return errors.Errorf("health check returned %s", resp.Status)
		}
		return nil
	}, b)
}

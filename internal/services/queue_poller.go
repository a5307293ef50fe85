package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/ruangtamu/internal/gateway"
	"github.com/example/ruangtamu/internal/guest"
)

// QueueSnapshot is the last accepted queue fetch.
type QueueSnapshot struct {
	Guests    []guest.Record `json:"guests"`
	Total     int            `json:"total"`
	Seq       uint64         `json:"seq"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// QueuePoller refreshes the queue view on a timer. Each fetch carries a
// monotonic sequence number assigned at launch; a response is discarded if
// a newer fetch has already landed, so overlapping polls can never roll
// the snapshot backwards.
type QueuePoller struct {
	gw       *gateway.Client
	interval time.Duration
	log      zerolog.Logger

	seq    atomic.Uint64
	mu     sync.RWMutex
	snap   QueueSnapshot
	cancel context.CancelFunc
	done   chan struct{}
}

// NewQueuePoller builds a poller; Start launches it.
func NewQueuePoller(gw *gateway.Client, interval time.Duration, log zerolog.Logger) *QueuePoller {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &QueuePoller{gw: gw, interval: interval, log: log}
}

// Start begins polling until Stop is called or ctx is cancelled. Fetches
// run in their own goroutines so a slow backend cannot stall the ticker.
func (p *QueuePoller) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.launchFetch(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.launchFetch(ctx)
			}
		}
	}()
}

// Stop halts the ticker and waits for it to exit. In-flight fetches are
// cancelled through the context.
func (p *QueuePoller) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
}

func (p *QueuePoller) launchFetch(ctx context.Context) {
	seq := p.seq.Add(1)
	go func() {
		result, err := p.gw.Queue(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.log.Warn().Err(err).Uint64("seq", seq).Msg("queue poll failed")
			}
			return
		}
		p.apply(seq, result)
	}()
}

// apply installs a fetch result unless a newer one already landed.
func (p *QueuePoller) apply(seq uint64, result gateway.ListResult) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if seq <= p.snap.Seq {
		p.log.Debug().Uint64("seq", seq).Uint64("current", p.snap.Seq).Msg("stale queue response discarded")
		return false
	}
	p.snap = QueueSnapshot{
		Guests:    result.Guests,
		Total:     result.Total,
		Seq:       seq,
		FetchedAt: time.Now().UTC(),
	}
	return true
}

// Snapshot returns the last accepted queue state. The zero snapshot (Seq 0)
// means no poll has landed yet.
func (p *QueuePoller) Snapshot() QueueSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

package tracking

import (
	"context"
	"sync"
	"time"
)

// ProgressSource reports the current playback position. Implemented by the
// host's media player binding.
type ProgressSource interface {
	// Progress returns the playhead and total duration in seconds. Duration
	// may be 0 until the player has loaded media metadata.
	Progress() (positionSeconds, durationSeconds float64)
}

// Poller samples a ProgressSource on a fixed interval and feeds the tracker.
// Quartile thresholds are evaluated per sample, so the interval bounds how
// late an event can fire, never whether it fires.
type Poller struct {
	interval time.Duration
	source   ProgressSource
	tracker  *Tracker
	done     chan struct{}
	stopOnce sync.Once
}

func NewPoller(interval time.Duration, source ProgressSource, tracker *Tracker) *Poller {
	return &Poller{
		interval: interval,
		source:   source,
		tracker:  tracker,
		done:     make(chan struct{}),
	}
}

// Start samples immediately and then on every tick until the context is
// cancelled, Stop is called, or the tracker reports playback done.
func (p *Poller) Start(ctx context.Context) {
	p.observe()
	go p.runRecurring(ctx)
}

// Stop halts polling. The tracker keeps its state; a resumed ad would attach
// a new poller to the same tracker.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.done) })
}

// Done exports the readonly done channel.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

func (p *Poller) runRecurring(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.observe()
			if p.tracker.Done() {
				p.Stop()
				return
			}
		case <-ctx.Done():
			p.Stop()
			return
		case <-p.done:
			return
		}
	}
}

func (p *Poller) observe() {
	position, duration := p.source.Progress()
	p.tracker.OnProgress(position, duration)
}

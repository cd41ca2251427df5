package igrill

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

const DefaultPollInterval = 5 * time.Second

// ReadingsGetter is satisfied by *Client.
type ReadingsGetter interface {
	GetReadings(ctx context.Context) (Readings, error)
}

type Listener func(State)

// Poller owns the device status state machine. It is the only writer of the
// current State; readers go through Current and never block.
type Poller struct {
	source ReadingsGetter
	logger *log.Logger

	current atomic.Pointer[State]

	listenersMu sync.Mutex
	listeners   []Listener
}

func NewPoller(source ReadingsGetter) *Poller {
	p := &Poller{
		source: source,
		logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix:          "iGrill poller 🔥",
			Level:           log.GetLevel(),
			ReportTimestamp: true,
		}),
	}

	initial := State{Status: StatusNormal}
	p.current.Store(&initial)
	return p
}

// Subscribe registers fn to be called after every completed poll.
func (p *Poller) Subscribe(fn Listener) {
	p.listenersMu.Lock()
	defer p.listenersMu.Unlock()

	p.listeners = append(p.listeners, fn)
}

func (p *Poller) Current() State {
	return *p.current.Load()
}

// Poll runs one request, swaps in the new State and notifies listeners.
func (p *Poller) Poll(ctx context.Context) State {
	readings, err := p.source.GetReadings(ctx)
	if ctx.Err() != nil {
		// shutting down, keep the last completed poll
		return p.Current()
	}
	if err != nil {
		// battery is the only field carried over from the last good poll
		readings = p.Current().Readings
	}
	next := NewState(readings, err)

	previous := p.current.Swap(&next)
	p.logTransition(previous.Status, next, err)

	p.listenersMu.Lock()
	listeners := append([]Listener(nil), p.listeners...)
	p.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}

	return next
}

func (p *Poller) logTransition(previous DeviceStatus, next State, err error) {
	p.logger.Debug("poll done", "status", next.Status, "readings", next.Readings)

	if previous == next.Status {
		return
	}

	switch next.Status {
	case StatusNormal:
		p.logger.Info("iGrill readings available again", "was", previous)
	case StatusServerUnreachable:
		p.logger.Error("Cannot connect to iGrill server", "err", err)
	case StatusProbeUnavailable:
		p.logger.Warn("iGrill appears to be off or not connected to server", "err", err)
	}
}

// Run polls at once and then on every tick until ctx is done. Polls never
// overlap: a slow request delays the following tick.
func (p *Poller) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	p.Poll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

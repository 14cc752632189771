package host

import (
	"context"
	"log/slog"
	"time"

	"github.com/loomui/loom/internal/errors"
	"github.com/loomui/loom/internal/telemetry"
	"github.com/loomui/loom/pkg/protocol"
)

// DefaultPollInterval is the event poll cadence.
const DefaultPollInterval = 4 * time.Millisecond

// pollCallTimeout bounds a single poll roundtrip. Without it a wedged
// engine would block the loop in a transport read forever, and session
// shutdown waits on this loop.
const pollCallTimeout = 1 * time.Second

// Sink receives decoded events from the poll loop. DispatchEvent returns
// false for stale targets; the poller only records that, it never fails
// on it.
type Sink interface {
	DispatchEvent(ev protocol.Event) bool
}

// Poller drives the event poll loop for one session. Each tick drains the
// engine's queued raw events and dispatches them synchronously, in order,
// before the next tick runs.
type Poller struct {
	bridge   *Bridge
	windowID uint64
	sink     Sink
	interval time.Duration
	log      *slog.Logger
}

// NewPoller creates a poller. A non-positive interval selects
// DefaultPollInterval.
func NewPoller(bridge *Bridge, windowID uint64, sink Sink, interval time.Duration, log *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Poller{
		bridge:   bridge,
		windowID: windowID,
		sink:     sink,
		interval: interval,
		log:      log,
	}
}

// Run polls until ctx is cancelled or the transport closes. Decode
// failures are isolated to their tick: the batch is dropped, logged,
// counted, and polling continues.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		tickCtx, cancelTick := context.WithTimeout(ctx, pollCallTimeout)
		events, err := p.bridge.PollEvents(tickCtx, p.windowID)
		cancelTick()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if tickCtx.Err() != nil {
				p.log.Warn("event poll timed out", "err", err)
				continue
			}
			if errors.Is(err, errors.CodeTransportClosed) {
				p.log.Info("event polling stopped: transport closed")
				return
			}
			if errors.Is(err, errors.CodeEventDecode) {
				telemetry.RecordBatchDropped()
				p.log.Warn("dropping undecodable event batch", "err", err)
				continue
			}
			p.log.Warn("event poll failed", "err", err)
			continue
		}

		for _, ev := range events {
			if p.sink.DispatchEvent(ev) {
				telemetry.RecordDispatch(ev.Type().String())
			} else {
				telemetry.RecordStaleEvent()
			}
		}
	}
}

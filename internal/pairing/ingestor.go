package pairing

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/sendpair/internal/device"
	"github.com/muurk/sendpair/internal/logging"
)

// DefaultRecoveryDelay is how long the ingestor stays disarmed after a failed
// attempt, so a bad code left in front of the scanner is not retried in a loop.
const DefaultRecoveryDelay = 2 * time.Second

// Registry receives validated devices.
type Registry interface {
	AddManualDevice(ctx context.Context, d *device.Device) error
}

// Haptics emits a short tactile pulse. Implementations that have no such
// capability may simply return nil.
type Haptics interface {
	Pulse(ctx context.Context) error
}

// Status is the result category of a capture.
type Status int

const (
	// StatusAccepted means a device was built and delivered to the registry.
	StatusAccepted Status = iota
	// StatusRejected means the capture was processed and failed.
	StatusRejected
	// StatusIgnored means the capture was dropped without processing.
	StatusIgnored
)

// String returns the status name
func (s Status) String() string {
	switch s {
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	case StatusIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Outcome is the completion signal for one capture.
type Outcome struct {
	Status Status
	Device *device.Device // set when accepted
	Err    error          // set when rejected or ignored
}

// Reason returns the user-facing reason for a rejection, or "" otherwise.
func (o Outcome) Reason() string {
	if o.Status != StatusRejected {
		return ""
	}
	return UserMessage(o.Err)
}

// Capture is one detection event. A single event may contain several codes;
// only the first valid one is used.
type Capture struct {
	Codes []string
}

// CaptureSource produces capture events. Next returns io.EOF once the source
// is exhausted.
type CaptureSource interface {
	Next(ctx context.Context) (Capture, error)
	Close() error
}

// Options configure an Ingestor.
type Options struct {
	// Registry receives accepted devices. Required.
	Registry Registry

	// Haptics is pulsed on every processed detection. Optional.
	Haptics Haptics

	// RecoveryDelay defaults to DefaultRecoveryDelay.
	RecoveryDelay time.Duration

	// OnResult is called with every accepted or rejected Outcome. Optional.
	OnResult func(Outcome)
}

type ingestState int

const (
	stateArmed ingestState = iota
	stateBusy
	stateRecovering
	stateClosed
)

// Ingestor turns scanned pairing codes into registered devices.
//
// It handles one code at a time. Captures arriving while a code is in flight,
// or during the recovery delay after a failure, are ignored.
type Ingestor struct {
	registry Registry
	haptics  Haptics
	delay    time.Duration
	onResult func(Outcome)

	mu      sync.Mutex
	state   ingestState
	timer   *time.Timer
	gen     uint64 // identifies the pending re-arm
	cancels map[uint64]context.CancelFunc
	nextRun uint64
}

// New creates an armed Ingestor.
func New(opts Options) (*Ingestor, error) {
	if opts.Registry == nil {
		return nil, errors.New("pairing: registry is required")
	}
	if opts.RecoveryDelay <= 0 {
		opts.RecoveryDelay = DefaultRecoveryDelay
	}
	return &Ingestor{
		registry: opts.Registry,
		haptics:  opts.Haptics,
		delay:    opts.RecoveryDelay,
		onResult: opts.OnResult,
	}, nil
}

// Armed reports whether the next capture will be processed.
func (i *Ingestor) Armed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state == stateArmed
}

// Submit processes a single raw payload.
func (i *Ingestor) Submit(ctx context.Context, raw string) Outcome {
	return i.HandleCapture(ctx, Capture{Codes: []string{raw}})
}

// HandleCapture processes one capture event.
func (i *Ingestor) HandleCapture(ctx context.Context, c Capture) Outcome {
	if len(c.Codes) == 0 {
		return Outcome{Status: StatusIgnored, Err: ErrEmptyCapture}
	}

	if err := i.acquire(); err != nil {
		logging.Debug("Capture ignored", zap.Error(err), zap.Int("codes", len(c.Codes)))
		return Outcome{Status: StatusIgnored, Err: err}
	}

	i.pulse(ctx)

	d, err := firstValid(c.Codes)
	if err != nil {
		return i.fail(err, c.Codes[0])
	}
	if len(c.Codes) > 1 {
		logging.Debug("Discarding remaining codes in capture", zap.Int("discarded", len(c.Codes)-1))
	}

	if err := i.registry.AddManualDevice(ctx, d); err != nil {
		return i.fail(deliveryError(err), "")
	}

	i.mu.Lock()
	if i.state == stateBusy {
		i.state = stateArmed
	}
	i.mu.Unlock()

	logging.LogPairingEvent("accepted",
		zap.String("id", d.ID()),
		zap.String("name", d.Name()))

	out := Outcome{Status: StatusAccepted, Device: d}
	i.notify(out)
	return out
}

// Run feeds captures from src into the ingestor until ctx is done, src is
// exhausted or the ingestor is closed. src is always closed before Run
// returns. Closing the ingestor ends Run with ErrClosed.
func (i *Ingestor) Run(ctx context.Context, src CaptureSource) (err error) {
	defer func() {
		if cerr := src.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	runCtx, id, ok := i.register(ctx)
	if !ok {
		return ErrClosed
	}
	defer i.unregister(id)

	for {
		c, nerr := src.Next(runCtx)
		if errors.Is(nerr, io.EOF) {
			return nil
		}
		if nerr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if runCtx.Err() != nil {
				return ErrClosed
			}
			return nerr
		}
		if out := i.HandleCapture(runCtx, c); errors.Is(out.Err, ErrClosed) {
			return ErrClosed
		}
	}
}

// register gives a Run call its own cancellable context so Close can end it.
func (i *Ingestor) register(ctx context.Context) (context.Context, uint64, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state == stateClosed {
		return nil, 0, false
	}
	runCtx, cancel := context.WithCancel(ctx)
	if i.cancels == nil {
		i.cancels = make(map[uint64]context.CancelFunc)
	}
	i.nextRun++
	i.cancels[i.nextRun] = cancel
	return runCtx, i.nextRun, true
}

func (i *Ingestor) unregister(id uint64) {
	i.mu.Lock()
	cancel := i.cancels[id]
	delete(i.cancels, id)
	i.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Close disarms the ingestor permanently, cancels a pending re-arm and ends
// every running Run, which releases its capture source.
func (i *Ingestor) Close() error {
	i.mu.Lock()
	i.state = stateClosed
	i.gen++
	if i.timer != nil {
		i.timer.Stop()
		i.timer = nil
	}
	cancels := i.cancels
	i.cancels = nil
	i.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	return nil
}

func (i *Ingestor) acquire() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	switch i.state {
	case stateArmed:
		i.state = stateBusy
		return nil
	case stateClosed:
		return ErrClosed
	default:
		return ErrBusy
	}
}

// fail reports err and schedules the re-arm.
func (i *Ingestor) fail(err error, raw string) Outcome {
	i.mu.Lock()
	if i.state == stateBusy {
		i.state = stateRecovering
		i.gen++
		gen := i.gen
		i.timer = time.AfterFunc(i.delay, func() { i.rearm(gen) })
	}
	i.mu.Unlock()

	fields := []zap.Field{zap.Error(err), zap.Duration("rearm_in", i.delay)}
	if raw != "" {
		fields = append(fields, zap.String("payload", logging.Redact(raw)))
	}
	logging.LogPairingEvent("rejected", fields...)

	out := Outcome{Status: StatusRejected, Err: err}
	i.notify(out)
	return out
}

func (i *Ingestor) rearm(gen uint64) {
	i.mu.Lock()
	defer i.mu.Unlock()

	// A stale timer must not re-arm a closed ingestor
	if i.gen != gen || i.state != stateRecovering {
		return
	}
	i.state = stateArmed
	i.timer = nil
	logging.Debug("Pairing re-armed")
}

func (i *Ingestor) pulse(ctx context.Context) {
	if i.haptics == nil {
		return
	}
	if err := i.haptics.Pulse(ctx); err != nil {
		logging.Debug("Haptic pulse failed", zap.Error(err))
	}
}

func (i *Ingestor) notify(out Outcome) {
	if i.onResult != nil {
		i.onResult(out)
	}
}

// firstValid returns the device from the first code that decodes and
// validates. If none does, the first code's error is returned.
func firstValid(codes []string) (*device.Device, error) {
	var firstErr error
	for _, code := range codes {
		d, err := Parse(code)
		if err == nil {
			return d, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

package pairing

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/sendpair/internal/device"
)

type fakeRegistry struct {
	mu      sync.Mutex
	devices []*device.Device
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeRegistry) AddManualDevice(ctx context.Context, d *device.Device) error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.devices = append(f.devices, d)
	return nil
}

func (f *fakeRegistry) Devices() []*device.Device {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*device.Device(nil), f.devices...)
}

type fakeHaptics struct {
	pulses atomic.Int32
	err    error
}

func (f *fakeHaptics) Pulse(context.Context) error {
	f.pulses.Add(1)
	return f.err
}

func newTestIngestor(t *testing.T, opts Options) *Ingestor {
	t.Helper()
	if opts.RecoveryDelay == 0 {
		opts.RecoveryDelay = time.Hour
	}
	ing, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ing.Close() })
	return ing
}

func TestNew_RequiresRegistry(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestNew_DefaultRecoveryDelay(t *testing.T) {
	ing, err := New(Options{Registry: &fakeRegistry{}})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, ing.delay)
}

func TestSubmit_Accepted(t *testing.T) {
	reg := &fakeRegistry{}
	haptics := &fakeHaptics{}
	var results []Outcome
	ing := newTestIngestor(t, Options{
		Registry: reg,
		Haptics:  haptics,
		OnResult: func(o Outcome) { results = append(results, o) },
	})

	out := ing.Submit(context.Background(), `{"id":"abc","name":"Pixel 7"}`)
	require.Equal(t, StatusAccepted, out.Status)
	assert.NoError(t, out.Err)
	assert.Empty(t, out.Reason())

	devices := reg.Devices()
	require.Len(t, devices, 1)
	assert.Equal(t, "abc", devices[0].ID())
	assert.Equal(t, "Pixel 7", devices[0].Name())

	assert.Equal(t, int32(1), haptics.pulses.Load())
	require.Len(t, results, 1)
	assert.Equal(t, StatusAccepted, results[0].Status)

	// Success re-arms immediately
	assert.True(t, ing.Armed())
	out = ing.Submit(context.Background(), `{"id":"def","name":"Laptop"}`)
	assert.Equal(t, StatusAccepted, out.Status)
	assert.Len(t, reg.Devices(), 2)
}

func TestSubmit_InvalidNeverReachesRegistry(t *testing.T) {
	for _, raw := range []string{
		`{"name":"Pixel 7"}`,
		`{"id":"abc"}`,
		`not a code`,
	} {
		t.Run(raw, func(t *testing.T) {
			reg := &fakeRegistry{}
			haptics := &fakeHaptics{}
			ing := newTestIngestor(t, Options{Registry: reg, Haptics: haptics})

			out := ing.Submit(context.Background(), raw)
			assert.Equal(t, StatusRejected, out.Status)
			assert.Equal(t, "Invalid pairing code", out.Reason())
			assert.Empty(t, reg.Devices())

			// Detection still pulses
			assert.Equal(t, int32(1), haptics.pulses.Load())
		})
	}
}

func TestSubmit_RecoveryDelay(t *testing.T) {
	reg := &fakeRegistry{}
	ing := newTestIngestor(t, Options{Registry: reg, RecoveryDelay: 50 * time.Millisecond})
	ctx := context.Background()

	out := ing.Submit(ctx, `{"id":"abc"}`)
	require.Equal(t, StatusRejected, out.Status)
	assert.False(t, ing.Armed())

	// A valid code during recovery is ignored
	out = ing.Submit(ctx, `{"id":"abc","name":"Pixel 7"}`)
	assert.Equal(t, StatusIgnored, out.Status)
	assert.ErrorIs(t, out.Err, ErrBusy)
	assert.Empty(t, reg.Devices())

	require.Eventually(t, ing.Armed, time.Second, 5*time.Millisecond)

	out = ing.Submit(ctx, `{"id":"abc","name":"Pixel 7"}`)
	assert.Equal(t, StatusAccepted, out.Status)
	assert.Len(t, reg.Devices(), 1)
}

func TestSubmit_RegistryFailureRejects(t *testing.T) {
	reg := &fakeRegistry{err: errors.New("disk full")}
	ing := newTestIngestor(t, Options{Registry: reg})

	out := ing.Submit(context.Background(), `{"id":"abc","name":"Pixel 7"}`)
	assert.Equal(t, StatusRejected, out.Status)
	assert.True(t, IsDeliveryFailure(out.Err))
	assert.Contains(t, out.Err.Error(), "disk full")
	assert.Equal(t, "Could not save the paired device", out.Reason())
	assert.False(t, ing.Armed())
}

func TestHandleCapture_FirstValidOnly(t *testing.T) {
	reg := &fakeRegistry{}
	ing := newTestIngestor(t, Options{Registry: reg})

	out := ing.HandleCapture(context.Background(), Capture{Codes: []string{
		`{"id":"first","name":"One"}`,
		`{"id":"second","name":"Two"}`,
	}})
	require.Equal(t, StatusAccepted, out.Status)

	devices := reg.Devices()
	require.Len(t, devices, 1)
	assert.Equal(t, "first", devices[0].ID())
}

func TestHandleCapture_SkipsInvalidCodesInBatch(t *testing.T) {
	reg := &fakeRegistry{}
	ing := newTestIngestor(t, Options{Registry: reg})

	out := ing.HandleCapture(context.Background(), Capture{Codes: []string{
		`https://example.com`,
		`{"id":"second","name":"Two"}`,
		`{"id":"third","name":"Three"}`,
	}})
	require.Equal(t, StatusAccepted, out.Status)
	assert.Equal(t, "second", out.Device.ID())
	assert.Len(t, reg.Devices(), 1)
}

func TestHandleCapture_AllInvalidReportsFirstError(t *testing.T) {
	ing := newTestIngestor(t, Options{Registry: &fakeRegistry{}})

	out := ing.HandleCapture(context.Background(), Capture{Codes: []string{
		`garbage`,
		`{"id":"abc"}`,
	}})
	assert.Equal(t, StatusRejected, out.Status)
	assert.True(t, IsDecodeFailure(out.Err))
}

func TestHandleCapture_Empty(t *testing.T) {
	haptics := &fakeHaptics{}
	ing := newTestIngestor(t, Options{Registry: &fakeRegistry{}, Haptics: haptics})

	out := ing.HandleCapture(context.Background(), Capture{})
	assert.Equal(t, StatusIgnored, out.Status)
	assert.ErrorIs(t, out.Err, ErrEmptyCapture)
	assert.True(t, ing.Armed())
	assert.Zero(t, haptics.pulses.Load())
}

func TestHandleCapture_IgnoredWhileInFlight(t *testing.T) {
	reg := &fakeRegistry{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	ing := newTestIngestor(t, Options{Registry: reg})
	ctx := context.Background()

	first := make(chan Outcome, 1)
	go func() { first <- ing.Submit(ctx, `{"id":"abc","name":"Pixel 7"}`) }()
	<-reg.entered

	// Rapid repeat detection of the same code
	out := ing.Submit(ctx, `{"id":"abc","name":"Pixel 7"}`)
	assert.Equal(t, StatusIgnored, out.Status)
	assert.ErrorIs(t, out.Err, ErrBusy)

	close(reg.block)
	assert.Equal(t, StatusAccepted, (<-first).Status)
	assert.Len(t, reg.Devices(), 1)
}

func TestHapticsFailureIsNotAnError(t *testing.T) {
	reg := &fakeRegistry{}
	ing := newTestIngestor(t, Options{Registry: reg, Haptics: &fakeHaptics{err: errors.New("no vibrator")}})

	out := ing.Submit(context.Background(), `{"id":"abc","name":"Pixel 7"}`)
	assert.Equal(t, StatusAccepted, out.Status)
}

func TestClose_CancelsRearm(t *testing.T) {
	ing, err := New(Options{Registry: &fakeRegistry{}, RecoveryDelay: 20 * time.Millisecond})
	require.NoError(t, err)

	out := ing.Submit(context.Background(), `garbage`)
	require.Equal(t, StatusRejected, out.Status)
	require.NoError(t, ing.Close())

	time.Sleep(60 * time.Millisecond)
	assert.False(t, ing.Armed())

	out = ing.Submit(context.Background(), `{"id":"abc","name":"Pixel 7"}`)
	assert.Equal(t, StatusIgnored, out.Status)
	assert.ErrorIs(t, out.Err, ErrClosed)
}

// sliceSource replays fixed captures and records Close.
type sliceSource struct {
	captures []Capture
	err      error
	closed   atomic.Bool
}

func (s *sliceSource) Next(ctx context.Context) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return Capture{}, err
	}
	if len(s.captures) == 0 {
		if s.err != nil {
			return Capture{}, s.err
		}
		return Capture{}, io.EOF
	}
	c := s.captures[0]
	s.captures = s.captures[1:]
	return c, nil
}

func (s *sliceSource) Close() error {
	s.closed.Store(true)
	return nil
}

func TestRun_ClosesSourceOnExhaustion(t *testing.T) {
	reg := &fakeRegistry{}
	ing := newTestIngestor(t, Options{Registry: reg})

	src := &sliceSource{captures: []Capture{
		{Codes: []string{`{"id":"a","name":"A"}`}},
		{Codes: []string{`{"id":"b","name":"B"}`}},
	}}
	require.NoError(t, ing.Run(context.Background(), src))
	assert.True(t, src.closed.Load())
	assert.Len(t, reg.Devices(), 2)
}

func TestRun_ClosesSourceOnError(t *testing.T) {
	ing := newTestIngestor(t, Options{Registry: &fakeRegistry{}})

	src := &sliceSource{err: errors.New("camera unplugged")}
	err := ing.Run(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "camera unplugged")
	assert.True(t, src.closed.Load())
}

func TestRun_ClosesSourceOnCancel(t *testing.T) {
	ing := newTestIngestor(t, Options{Registry: &fakeRegistry{}})

	pr, pw := io.Pipe()
	defer pw.Close()
	src := NewLineSource(pr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ing.Run(ctx, src) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	// The pipe reader was closed by the source
	_, err := pw.Write([]byte("x\n"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

// blockingSource blocks in Next until its context ends.
type blockingSource struct {
	waiting chan struct{}
	closed  atomic.Bool
}

func newBlockingSource() *blockingSource {
	return &blockingSource{waiting: make(chan struct{}, 1)}
}

func (s *blockingSource) Next(ctx context.Context) (Capture, error) {
	select {
	case s.waiting <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return Capture{}, ctx.Err()
}

func (s *blockingSource) Close() error {
	s.closed.Store(true)
	return nil
}

func TestClose_EndsRunAndReleasesSource(t *testing.T) {
	ing := newTestIngestor(t, Options{Registry: &fakeRegistry{}})

	src := newBlockingSource()
	done := make(chan error, 1)
	go func() { done <- ing.Run(context.Background(), src) }()

	select {
	case <-src.waiting:
	case <-time.After(time.Second):
		t.Fatal("Run never asked the source for a capture")
	}

	require.NoError(t, ing.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}
	assert.True(t, src.closed.Load())
}

func TestClose_StopsRunBeforeNextCapture(t *testing.T) {
	reg := &fakeRegistry{}
	ing := newTestIngestor(t, Options{Registry: reg})
	require.NoError(t, ing.Close())

	src := &sliceSource{captures: []Capture{
		{Codes: []string{`{"id":"a","name":"A"}`}},
		{Codes: []string{`{"id":"b","name":"B"}`}},
	}}
	assert.ErrorIs(t, ing.Run(context.Background(), src), ErrClosed)
	assert.True(t, src.closed.Load())
	assert.Len(t, src.captures, 2, "no capture is read after Close")
	assert.Empty(t, reg.Devices())
}

func TestLineSource(t *testing.T) {
	input := strings.Join([]string{
		`{"id":"a","name":"A"}`,
		``,
		"  \t ",
		"{\"id\":\"b\",\"name\":\"B\"}\t{\"id\":\"c\",\"name\":\"C\"}",
	}, "\n")

	src := NewLineSource(strings.NewReader(input))
	defer src.Close()
	ctx := context.Background()

	c, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{`{"id":"a","name":"A"}`}, c.Codes)

	c, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Len(t, c.Codes, 2)

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)

	assert.NoError(t, src.Close())
}

package settings

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/sendpair/internal/config"
	"github.com/muurk/sendpair/internal/logging"
	"github.com/muurk/sendpair/internal/platform"
)

const (
	// DefaultQueueSize is the number of mutations that may wait for the
	// apply loop before callers block.
	DefaultQueueSize = 64

	// DefaultIOTimeout bounds each store or adapter call.
	DefaultIOTimeout = 10 * time.Second
)

// State is the coordinator lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Snapshot is a published settings value. Version 0 is the pre-load
// placeholder; the loaded value is version 1 and every mutation adds one.
type Snapshot struct {
	Version  uint64
	Settings Settings
}

// Options configure a Coordinator.
type Options struct {
	// Store persists the encoded settings under config.KeySettings. Required.
	Store config.Store

	// Startup and ContextMenu receive the platform side effects. Either may
	// be nil, in which case the toggle only persists.
	Startup     platform.StartupAdapter
	ContextMenu platform.ContextMenuAdapter

	// ResolveDeviceName and ResolveDownloadPath fill empty fields after load.
	// Default to DefaultDeviceName and DefaultDownloadPath.
	ResolveDeviceName   func() string
	ResolveDownloadPath func() string

	QueueSize int
	IOTimeout time.Duration
}

type effect int

const (
	effectNone effect = iota
	effectStartup
	effectContextMenu
)

type operation struct {
	name   string
	apply  func(Settings) Settings
	effect effect
	done   chan Settings
}

type effectJob struct {
	op   *operation
	snap Snapshot
}

// Coordinator owns the live Settings value.
//
// The value is loaded exactly once, in the background, starting at New.
// Mutations are queued in call order and applied by a single loop only after
// the load finished, so a mutation never lands on placeholder defaults. Each
// applied snapshot is then handed to a single effects worker that saves it and
// runs any platform side effect; the mutation call returns once its own
// effects completed. Save and adapter failures are logged, never returned.
type Coordinator struct {
	store       config.Store
	startup     platform.StartupAdapter
	contextMenu platform.ContextMenuAdapter
	resolveName func() string
	resolvePath func() string
	ioTimeout   time.Duration

	state atomic.Int32
	ready chan struct{}

	// submitMu guards closed and the send side of ops
	submitMu sync.RWMutex
	closed   bool
	ops      chan *operation
	effects  chan *effectJob
	done     chan struct{}

	// mu guards current, subs and subsClosed
	mu         sync.RWMutex
	current    Snapshot
	subs       map[*Subscription]struct{}
	subsClosed bool
}

// New creates a Coordinator and immediately starts loading the stored value.
func New(opts Options) (*Coordinator, error) {
	if opts.Store == nil {
		return nil, errors.New("settings: store is required")
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.IOTimeout <= 0 {
		opts.IOTimeout = DefaultIOTimeout
	}
	if opts.ResolveDeviceName == nil {
		opts.ResolveDeviceName = DefaultDeviceName
	}
	if opts.ResolveDownloadPath == nil {
		opts.ResolveDownloadPath = DefaultDownloadPath
	}

	c := &Coordinator{
		store:       opts.Store,
		startup:     opts.Startup,
		contextMenu: opts.ContextMenu,
		resolveName: opts.ResolveDeviceName,
		resolvePath: opts.ResolveDownloadPath,
		ioTimeout:   opts.IOTimeout,
		ready:       make(chan struct{}),
		ops:         make(chan *operation, opts.QueueSize),
		effects:     make(chan *effectJob, opts.QueueSize),
		done:        make(chan struct{}),
		current:     Snapshot{Settings: Defaults()},
		subs:        make(map[*Subscription]struct{}),
	}

	c.state.Store(int32(StateLoading))

	effectsDone := make(chan struct{})
	go func() {
		defer close(effectsDone)
		c.runEffects()
	}()
	go func() {
		c.run()
		<-effectsDone
		c.closeSubscriptions()
		close(c.done)
	}()

	return c, nil
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Ready returns a channel that is closed once the initial load completed.
// It never reopens.
func (c *Coordinator) Ready() <-chan struct{} {
	return c.ready
}

// WaitReady blocks until the initial load completed or ctx is done.
func (c *Coordinator) WaitReady(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Current returns the latest snapshot. Before the load completes this is the
// version 0 placeholder.
func (c *Coordinator) Current() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Close stops accepting mutations, lets queued mutations and their effects
// finish, then closes all subscriptions. It is safe to call more than once.
func (c *Coordinator) Close() error {
	c.submitMu.Lock()
	if !c.closed {
		c.closed = true
		close(c.ops)
	}
	c.submitMu.Unlock()

	<-c.done
	return nil
}

// SetDeviceName replaces the device name.
func (c *Coordinator) SetDeviceName(ctx context.Context, name string) (Settings, error) {
	return c.mutate(ctx, "set_device_name", effectNone, func(s Settings) Settings {
		s.DeviceName = name
		return s
	})
}

// SetDownloadPath replaces the download directory. Callers that want the
// path re-validated use CheckWritable first.
func (c *Coordinator) SetDownloadPath(ctx context.Context, path string) (Settings, error) {
	return c.mutate(ctx, "set_download_path", effectNone, func(s Settings) Settings {
		s.DownloadPath = path
		return s
	})
}

// SetTheme replaces the theme. Unknown values are stored as given.
func (c *Coordinator) SetTheme(ctx context.Context, theme Theme) (Settings, error) {
	return c.mutate(ctx, "set_theme", effectNone, func(s Settings) Settings {
		s.Theme = theme
		return s
	})
}

// SetLocale replaces the language tag.
func (c *Coordinator) SetLocale(ctx context.Context, locale string) (Settings, error) {
	return c.mutate(ctx, "set_locale", effectNone, func(s Settings) Settings {
		s.Locale = locale
		return s
	})
}

// SetMaxFileSize replaces the per-file size limit (0 = unlimited).
func (c *Coordinator) SetMaxFileSize(ctx context.Context, bytes uint64) (Settings, error) {
	return c.mutate(ctx, "set_max_file_size", effectNone, func(s Settings) Settings {
		s.MaxFileSizeBytes = bytes
		return s
	})
}

// SetMaxUploadSpeed replaces the upload rate limit (0 = unlimited).
func (c *Coordinator) SetMaxUploadSpeed(ctx context.Context, kbps uint64) (Settings, error) {
	return c.mutate(ctx, "set_max_upload_speed", effectNone, func(s Settings) Settings {
		s.MaxUploadSpeedKBps = kbps
		return s
	})
}

// ToggleAutoAccept flips AutoAcceptFiles.
func (c *Coordinator) ToggleAutoAccept(ctx context.Context) (Settings, error) {
	return c.mutate(ctx, "toggle_auto_accept", effectNone, func(s Settings) Settings {
		s.AutoAcceptFiles = !s.AutoAcceptFiles
		return s
	})
}

// ToggleOverwriteFiles flips OverwriteFiles.
func (c *Coordinator) ToggleOverwriteFiles(ctx context.Context) (Settings, error) {
	return c.mutate(ctx, "toggle_overwrite_files", effectNone, func(s Settings) Settings {
		s.OverwriteFiles = !s.OverwriteFiles
		return s
	})
}

// ToggleMinimizeToTray flips MinimizeToTray. The new value takes effect on
// the next launch; there is no live platform effect.
func (c *Coordinator) ToggleMinimizeToTray(ctx context.Context) (Settings, error) {
	return c.mutate(ctx, "toggle_minimize_to_tray", effectNone, func(s Settings) Settings {
		s.MinimizeToTray = !s.MinimizeToTray
		return s
	})
}

// ToggleLaunchAtStartup flips LaunchAtStartup, persists it, then enables or
// disables the startup adapter to match. An adapter failure leaves the flag
// as toggled.
func (c *Coordinator) ToggleLaunchAtStartup(ctx context.Context) (Settings, error) {
	return c.mutate(ctx, "toggle_launch_at_startup", effectStartup, func(s Settings) Settings {
		s.LaunchAtStartup = !s.LaunchAtStartup
		return s
	})
}

// ToggleExplorerMenu flips ShowInExplorerMenu, persists it, then registers or
// unregisters the context menu entry to match. An adapter failure leaves the
// flag as toggled.
func (c *Coordinator) ToggleExplorerMenu(ctx context.Context) (Settings, error) {
	return c.mutate(ctx, "toggle_explorer_menu", effectContextMenu, func(s Settings) Settings {
		s.ShowInExplorerMenu = !s.ShowInExplorerMenu
		return s
	})
}

// mutate queues op and waits for it to be applied and persisted. The only
// errors are ErrClosed and ctx errors; if ctx ends after the operation was
// queued, the operation still runs.
func (c *Coordinator) mutate(ctx context.Context, name string, eff effect, apply func(Settings) Settings) (Settings, error) {
	op := &operation{
		name:   name,
		apply:  apply,
		effect: eff,
		done:   make(chan Settings, 1),
	}

	if err := c.enqueue(ctx, op); err != nil {
		return Settings{}, err
	}

	select {
	case s := <-op.done:
		return s, nil
	case <-ctx.Done():
		return Settings{}, ctx.Err()
	}
}

func (c *Coordinator) enqueue(ctx context.Context, op *operation) error {
	c.submitMu.RLock()
	defer c.submitMu.RUnlock()

	if c.closed {
		return ErrClosed
	}

	select {
	case c.ops <- op:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the single apply loop. It performs the one load attempt, opens the
// barrier, then applies queued operations in order.
func (c *Coordinator) run() {
	defer close(c.effects)

	loaded := c.load()

	c.mu.Lock()
	c.current = Snapshot{Version: 1, Settings: loaded}
	snap := c.current
	c.mu.Unlock()

	c.state.Store(int32(StateReady))
	close(c.ready)
	c.publish(snap)

	logging.Info("Settings ready",
		zap.String("device_name", loaded.DeviceName),
		zap.String("theme", string(loaded.Theme)),
		zap.String("locale", loaded.Locale),
	)

	for op := range c.ops {
		c.mu.Lock()
		next := Snapshot{
			Version:  c.current.Version + 1,
			Settings: op.apply(c.current.Settings),
		}
		c.current = next
		c.mu.Unlock()

		logging.LogSettingsEvent(op.name, next.Version)
		c.publish(next)
		c.effects <- &effectJob{op: op, snap: next}
	}
}

// load reads and decodes the stored value. Every failure falls back to
// defaults; the result is always fully populated.
func (c *Coordinator) load() Settings {
	ctx, cancel := context.WithTimeout(context.Background(), c.ioTimeout)
	defer cancel()

	s := Defaults()

	raw, found, err := c.store.Load(ctx, config.KeySettings)
	switch {
	case err != nil:
		logging.Warn("Failed to load settings, using defaults",
			zap.Error(newError(ErrTypeLoad, "load", 0, err)))
	case !found:
		logging.Debug("No stored settings, using defaults")
	default:
		decoded, derr := DecodeStrict(raw)
		if derr != nil {
			logging.Warn("Stored settings unreadable, using defaults",
				zap.Error(newError(ErrTypeLoad, "decode", 0, derr)))
		} else {
			s = decoded
		}
	}

	if s.DeviceName == "" {
		s.DeviceName = c.resolveName()
	}
	if s.DownloadPath == "" {
		s.DownloadPath = c.resolvePath()
	}
	return s
}

// runEffects persists snapshots and runs platform side effects strictly in
// the order the snapshots were applied.
func (c *Coordinator) runEffects() {
	for job := range c.effects {
		c.persist(job.snap)
		c.applyPlatform(job)
		job.op.done <- job.snap.Settings
	}
}

func (c *Coordinator) persist(snap Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), c.ioTimeout)
	defer cancel()

	if err := c.store.Save(ctx, config.KeySettings, Encode(snap.Settings)); err != nil {
		logging.Warn("Failed to persist settings",
			zap.Error(newError(ErrTypePersist, "save", snap.Version, err)))
		return
	}
	logging.LogSettingsEvent("persisted", snap.Version)
}

func (c *Coordinator) applyPlatform(job *effectJob) {
	var (
		op  string
		err error
	)

	ctx, cancel := context.WithTimeout(context.Background(), c.ioTimeout)
	defer cancel()

	s := job.snap.Settings
	switch job.op.effect {
	case effectStartup:
		if c.startup == nil {
			return
		}
		if s.LaunchAtStartup {
			op, err = "startup.enable", c.startup.Enable(ctx)
		} else {
			op, err = "startup.disable", c.startup.Disable(ctx)
		}
	case effectContextMenu:
		if c.contextMenu == nil {
			return
		}
		if s.ShowInExplorerMenu {
			op, err = "context_menu.register", c.contextMenu.Register(ctx)
		} else {
			op, err = "context_menu.unregister", c.contextMenu.Unregister(ctx)
		}
	default:
		return
	}

	if err != nil {
		logging.Warn("Platform integration failed; setting kept",
			zap.Error(newError(ErrTypePlatformAdapter, op, job.snap.Version, err)))
		return
	}
	logging.LogSettingsEvent(op, job.snap.Version)
}

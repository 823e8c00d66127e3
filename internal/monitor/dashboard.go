package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/network-monitor/backend/internal/metrics"
)

// recordTimeout bounds a single decision write.
const recordTimeout = 10 * time.Second

// PendingPolicy decides what happens when a device arrives while an alert is
// already pending.
type PendingPolicy string

const (
	// PolicyKeep leaves the pending alert untouched. The newer device is
	// registered without an alert of its own.
	PolicyKeep PendingPolicy = "keep"
	// PolicyReplace overwrites the pending slot with the newer device.
	PolicyReplace PendingPolicy = "replace"
)

// ParsePendingPolicy maps a config value onto a PendingPolicy.
func ParsePendingPolicy(s string) (PendingPolicy, error) {
	switch PendingPolicy(s) {
	case PolicyKeep, "":
		return PolicyKeep, nil
	case PolicyReplace:
		return PolicyReplace, nil
	default:
		return "", fmt.Errorf("unknown pending policy %q", s)
	}
}

// DecisionRecorder persists decisions. Failures are logged and never undo the
// in-memory transition.
type DecisionRecorder interface {
	RecordDecision(ctx context.Context, d Decision) error
}

// Options configures a Dashboard.
type Options struct {
	LogCapacity   int
	PendingPolicy PendingPolicy
	// Blocked seeds the deny-list, usually from storage.
	Blocked  []string
	Recorder DecisionRecorder
	Observer Observer
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

// SpeedSample is a fabricated throughput reading.
type SpeedSample struct {
	DownloadMbps float64   `json:"download_mbps"`
	UploadMbps   float64   `json:"upload_mbps"`
	SampledAt    time.Time `json:"sampled_at"`
}

// Snapshot is a consistent copy of the whole dashboard state.
type Snapshot struct {
	Devices      []Device     `json:"devices"`
	Pending      *Device      `json:"pending,omitempty"`
	Connections  int          `json:"connections"`
	BlockedCount int          `json:"blocked_count"`
	Log          []LogEntry   `json:"log"`
	Speed        *SpeedSample `json:"speed,omitempty"`
}

// Dashboard owns the registry, the alert slot, the connection counter and the
// connection log. All transitions happen under one mutex, so each completes
// atomically and observers see them in order.
type Dashboard struct {
	mu sync.Mutex

	log      zerolog.Logger
	registry *Registry
	entries  *ConnectionLog
	pending  *Device
	policy   PendingPolicy

	connections int
	speed       *SpeedSample

	recorder DecisionRecorder
	observer Observer
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewDashboard creates an idle dashboard.
func NewDashboard(log zerolog.Logger, opts Options) *Dashboard {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	policy := opts.PendingPolicy
	if policy == "" {
		policy = PolicyKeep
	}
	observer := opts.Observer
	if observer == nil {
		observer = NopObserver{}
	}

	return &Dashboard{
		log:      log.With().Str("component", "dashboard").Logger(),
		registry: NewRegistry(opts.Blocked...),
		entries:  NewConnectionLog(opts.LogCapacity, now),
		policy:   policy,
		recorder: opts.Recorder,
		observer: observer,
		metrics:  opts.Metrics,
		now:      now,
	}
}

// IsBlocked reports whether id is on the permanent deny-list.
func (d *Dashboard) IsBlocked(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registry.IsBlocked(id)
}

// Register adds a device to the registry. Blocked ids are ignored.
func (d *Dashboard) Register(dev Device) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.register(dev)
}

func (d *Dashboard) register(dev Device) bool {
	if !d.registry.Register(dev) {
		d.log.Debug().Str("device_id", dev.ID).Msg("ignoring blocked device")
		return false
	}
	d.observer.OnDeviceAdded(dev)
	return true
}

// Incoming hands a freshly detected device to the alert workflow and the
// registry. It reports false when the id is blocked and the device was dropped.
func (d *Dashboard) Incoming(dev Device) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.registry.IsBlocked(dev.ID) {
		d.metrics.IncDeviceDropped()
		d.log.Debug().Str("device_id", dev.ID).Msg("dropping blocked device")
		return false
	}

	switch {
	case d.pending == nil:
		d.openAlert(dev)
	case d.policy == PolicyReplace:
		d.log.Info().
			Str("device_id", dev.ID).
			Str("replaced_id", d.pending.ID).
			Msg("pending alert replaced by newer device")
		d.openAlert(dev)
	default:
		d.log.Info().
			Str("device_id", dev.ID).
			Str("pending_id", d.pending.ID).
			Msg("alert already pending, device registered without alert")
	}

	d.register(dev)
	d.metrics.IncDeviceDetected()
	d.log.Info().
		Str("device_id", dev.ID).
		Str("name", dev.Name).
		Str("ip", dev.IP).
		Str("type", string(dev.Type)).
		Msg("device detected")
	return true
}

func (d *Dashboard) openAlert(dev Device) {
	pending := dev
	d.pending = &pending
	d.observer.OnAlertOpened(dev)
}

func (d *Dashboard) closeAlert() {
	d.pending = nil
	d.observer.OnAlertClosed()
}

// Allow marks a visible device as permitted and bumps the connection counter.
func (d *Dashboard) Allow(ctx context.Context, id string) error {
	d.mu.Lock()
	decision, err := d.allow(id)
	d.mu.Unlock()

	if err != nil {
		return err
	}
	d.record(ctx, decision)
	return nil
}

func (d *Dashboard) allow(id string) (Decision, error) {
	dev, ok := d.registry.Authorize(id)
	if !ok {
		d.log.Warn().Str("device_id", id).Msg("allow: device not found")
		return Decision{}, fmt.Errorf("allow %s: %w", id, ErrNotFound)
	}

	d.connections++
	d.metrics.SetConnections(d.connections)
	d.metrics.IncDecision(string(ActionAllowed))
	d.observer.OnConnectionCountChanged(d.connections)
	d.appendLog(fmt.Sprintf("Device %s allowed access", id), StatusAllowed)
	return d.decision(dev, ActionAllowed), nil
}

// Block removes a visible device and denies its id forever.
func (d *Dashboard) Block(ctx context.Context, id string) error {
	d.mu.Lock()
	decision, err := d.block(id)
	d.mu.Unlock()

	if err != nil {
		return err
	}
	d.record(ctx, decision)
	return nil
}

func (d *Dashboard) block(id string) (Decision, error) {
	dev, ok := d.registry.Block(id)
	if !ok {
		d.log.Warn().Str("device_id", id).Msg("block: device not found")
		return Decision{}, fmt.Errorf("block %s: %w", id, ErrNotFound)
	}

	d.metrics.IncDecision(string(ActionBlocked))
	d.observer.OnDeviceRemoved(id)
	d.appendLog(fmt.Sprintf("Device %s blocked forever", id), StatusBlocked)
	return d.decision(dev, ActionBlocked), nil
}

// AllowPending allows the pending device and closes the alert. It returns the
// device the alert was for. The alert is closed even when the device has left
// the registry in the meantime.
func (d *Dashboard) AllowPending(ctx context.Context) (Device, error) {
	return d.resolvePending(ctx, d.allow)
}

// BlockPending blocks the pending device and closes the alert.
func (d *Dashboard) BlockPending(ctx context.Context) (Device, error) {
	return d.resolvePending(ctx, d.block)
}

// DismissPending closes the alert without touching the registry.
func (d *Dashboard) DismissPending(ctx context.Context) (Device, error) {
	return d.resolvePending(ctx, func(string) (Decision, error) {
		d.metrics.IncDecision(string(ActionDismissed))
		return d.decision(*d.pending, ActionDismissed), nil
	})
}

func (d *Dashboard) resolvePending(ctx context.Context, resolve func(id string) (Decision, error)) (Device, error) {
	d.mu.Lock()
	if d.pending == nil {
		d.mu.Unlock()
		return Device{}, ErrNoPendingAlert
	}
	dev := *d.pending
	decision, err := resolve(dev.ID)
	d.closeAlert()
	d.mu.Unlock()

	if err != nil {
		return dev, err
	}
	d.record(ctx, decision)
	return dev, nil
}

func (d *Dashboard) decision(dev Device, action Action) Decision {
	return Decision{Device: dev, Action: action, DecidedAt: d.now().UTC()}
}

// record persists a decision after the lock is released. The transition has
// already happened, so the write ignores the caller's cancellation.
func (d *Dashboard) record(ctx context.Context, decision Decision) {
	if d.recorder == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := d.recorder.RecordDecision(ctx, decision); err != nil {
		d.log.Error().Err(err).
			Str("device_id", decision.Device.ID).
			Str("action", string(decision.Action)).
			Msg("failed to record decision")
	}
}

// AppendLog adds an entry to the connection log.
func (d *Dashboard) AppendLog(message string, status LogStatus) LogEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.appendLog(message, status)
}

func (d *Dashboard) appendLog(message string, status LogStatus) LogEntry {
	entry := d.entries.Append(message, status)
	d.observer.OnLogAppended(entry)
	return entry
}

// SeedLog writes the startup banner to the connection log. The owner line is
// skipped when owner is empty.
func (d *Dashboard) SeedLog(owner string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.appendLog("Network Monitor Dashboard initialized", StatusAllowed)
	d.appendLog("Scanning for network connections...", StatusAllowed)
	d.appendLog("Security protocols activated", StatusAllowed)
	if owner != "" {
		d.appendLog("Owner: "+owner, StatusAllowed)
	}
}

// RecordSpeed publishes a throughput sample.
func (d *Dashboard) RecordSpeed(downloadMbps, uploadMbps float64) SpeedSample {
	d.mu.Lock()
	defer d.mu.Unlock()

	sample := SpeedSample{
		DownloadMbps: downloadMbps,
		UploadMbps:   uploadMbps,
		SampledAt:    d.now().UTC(),
	}
	d.speed = &sample
	d.metrics.SetBandwidth(downloadMbps, uploadMbps)
	d.observer.OnSpeedSample(downloadMbps, uploadMbps)
	return sample
}

// RecordActivity publishes which link types currently show traffic.
func (d *Dashboard) RecordActivity(activity map[DeviceType]bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observer.OnNetworkActivity(activity)
}

// Device returns a visible device by id.
func (d *Dashboard) Device(id string) (Device, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	dev, ok := d.registry.Get(id)
	if !ok {
		return Device{}, fmt.Errorf("device %s: %w", id, ErrNotFound)
	}
	return dev, nil
}

// Devices returns the visible devices in arrival order.
func (d *Dashboard) Devices() []Device {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registry.List()
}

// Pending returns the device awaiting a decision, if any.
func (d *Dashboard) Pending() (Device, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending == nil {
		return Device{}, false
	}
	return *d.pending, true
}

// Connections returns the connection counter.
func (d *Dashboard) Connections() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connections
}

// Log returns the connection log, newest first.
func (d *Dashboard) Log() []LogEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.entries.Entries()
}

// LatestSpeed returns the most recent throughput sample, if one was taken.
func (d *Dashboard) LatestSpeed() (SpeedSample, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.speed == nil {
		return SpeedSample{}, false
	}
	return *d.speed, true
}

// Snapshot returns a consistent copy of the dashboard state.
func (d *Dashboard) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot()
}

// WithSnapshot calls fn with a snapshot while holding the lock, so no
// observer callback can fire between the snapshot and whatever fn queues.
// fn must not block or call back into the dashboard.
func (d *Dashboard) WithSnapshot(fn func(Snapshot)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.snapshot())
}

func (d *Dashboard) snapshot() Snapshot {
	snap := Snapshot{
		Devices:      d.registry.List(),
		Connections:  d.connections,
		BlockedCount: d.registry.BlockedCount(),
		Log:          d.entries.Entries(),
	}
	if d.pending != nil {
		pending := *d.pending
		snap.Pending = &pending
	}
	if d.speed != nil {
		speed := *d.speed
		snap.Speed = &speed
	}
	return snap
}

package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type recordingObserver struct {
	NopObserver
	added       []string
	removed     []string
	opened      []string
	closed      int
	connections []int
	logged      []LogEntry
	speed       [][2]float64
}

func (o *recordingObserver) OnDeviceAdded(d Device) { o.added = append(o.added, d.ID) }
func (o *recordingObserver) OnDeviceRemoved(id string) { o.removed = append(o.removed, id) }
func (o *recordingObserver) OnAlertOpened(d Device) { o.opened = append(o.opened, d.ID) }
func (o *recordingObserver) OnAlertClosed() { o.closed++ }
func (o *recordingObserver) OnConnectionCountChanged(n int) {
	o.connections = append(o.connections, n)
}
func (o *recordingObserver) OnLogAppended(e LogEntry) { o.logged = append(o.logged, e) }
func (o *recordingObserver) OnSpeedSample(down, up float64) {
	o.speed = append(o.speed, [2]float64{down, up})
}

type fakeRecorder struct {
	decisions []Decision
	ctxErrs   []error
	err       error

	// dash, when set, is read during the write to check the lock is free.
	dash *Dashboard
}

func (f *fakeRecorder) RecordDecision(ctx context.Context, d Decision) error {
	if f.dash != nil {
		_ = f.dash.Connections()
	}
	f.decisions = append(f.decisions, d)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return f.err
}

func newTestDashboard(opts Options) (*Dashboard, *recordingObserver) {
	obs := &recordingObserver{}
	opts.Observer = obs
	return NewDashboard(zerolog.Nop(), opts), obs
}

func TestDashboard_allowScenario(t *testing.T) {
	d, obs := newTestDashboard(Options{})
	ctx := context.Background()

	d.Register(Device{ID: "1", Name: "Laptop 1"})
	if err := d.Allow(ctx, "1"); err != nil {
		t.Fatalf("Allow: %v", err)
	}

	if d.Connections() != 1 {
		t.Fatalf("Connections() = %d, want 1", d.Connections())
	}
	log := d.Log()
	if len(log) == 0 || log[0].Message != "Device 1 allowed access" || log[0].Status != StatusAllowed {
		t.Fatalf("log[0] = %+v", log)
	}
	dev, err := d.Device("1")
	if err != nil || !dev.Authorized {
		t.Fatalf("Device(1) = %+v, %v", dev, err)
	}
	if len(obs.connections) != 1 || obs.connections[0] != 1 {
		t.Fatalf("connection callbacks = %v", obs.connections)
	}
}

func TestDashboard_blockScenario(t *testing.T) {
	d, obs := newTestDashboard(Options{})
	ctx := context.Background()

	d.Register(Device{ID: "2"})
	if err := d.Block(ctx, "2"); err != nil {
		t.Fatalf("Block: %v", err)
	}
	if _, err := d.Device("2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Device(2) err = %v, want ErrNotFound", err)
	}

	d.Register(Device{ID: "2", Name: "again"})
	if len(d.Devices()) != 0 {
		t.Fatalf("blocked device reappeared: %+v", d.Devices())
	}
	if got := d.Log()[0].Message; got != "Device 2 blocked forever" {
		t.Fatalf("log[0] = %q", got)
	}
	if len(obs.removed) != 1 || obs.removed[0] != "2" {
		t.Fatalf("removed callbacks = %v", obs.removed)
	}
	if len(obs.added) != 1 {
		t.Fatalf("added callbacks = %v, want only the first register", obs.added)
	}
}

func TestDashboard_allowUnknownLeavesCounter(t *testing.T) {
	d, _ := newTestDashboard(Options{})

	err := d.Allow(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if d.Connections() != 0 {
		t.Fatalf("Connections() = %d, want 0", d.Connections())
	}
	if len(d.Log()) != 0 {
		t.Fatalf("log should be empty, got %+v", d.Log())
	}
}

func TestDashboard_blockUnknown(t *testing.T) {
	d, _ := newTestDashboard(Options{})
	if err := d.Block(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if d.IsBlocked("ghost") {
		t.Fatal("unknown id was blocked")
	}
}

func TestDashboard_counterCountsAllowsAndIgnoresBlocks(t *testing.T) {
	d, _ := newTestDashboard(Options{})
	ctx := context.Background()

	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		d.Register(Device{ID: id})
	}
	for _, id := range ids[:3] {
		if err := d.Allow(ctx, id); err != nil {
			t.Fatalf("Allow(%s): %v", id, err)
		}
	}
	if d.Connections() != 3 {
		t.Fatalf("Connections() = %d, want 3", d.Connections())
	}

	// Blocking an allowed device does not give the connection back.
	if err := d.Block(ctx, "a"); err != nil {
		t.Fatalf("Block(a): %v", err)
	}
	if err := d.Block(ctx, "d"); err != nil {
		t.Fatalf("Block(d): %v", err)
	}
	if d.Connections() != 3 {
		t.Fatalf("Connections() after blocks = %d, want 3", d.Connections())
	}
}

func TestDashboard_seededBlockedDropsIncoming(t *testing.T) {
	d, obs := newTestDashboard(Options{Blocked: []string{"42"}})

	if d.Incoming(Device{ID: "42"}) {
		t.Fatal("Incoming accepted a blocked id")
	}
	if _, ok := d.Pending(); ok {
		t.Fatal("blocked device opened an alert")
	}
	if len(obs.added) != 0 || len(obs.opened) != 0 {
		t.Fatalf("callbacks fired for a blocked device: %+v", obs)
	}
}

func TestDashboard_alertWorkflow(t *testing.T) {
	ctx := context.Background()

	t.Run("allow pending", func(t *testing.T) {
		d, obs := newTestDashboard(Options{})
		d.Incoming(Device{ID: "1"})

		if p, ok := d.Pending(); !ok || p.ID != "1" {
			t.Fatalf("Pending() = %+v, %v", p, ok)
		}
		if _, err := d.AllowPending(ctx); err != nil {
			t.Fatalf("AllowPending: %v", err)
		}
		if _, ok := d.Pending(); ok {
			t.Fatal("alert still pending")
		}
		if d.Connections() != 1 || obs.closed != 1 {
			t.Fatalf("connections=%d closed=%d", d.Connections(), obs.closed)
		}
	})

	t.Run("block pending", func(t *testing.T) {
		d, _ := newTestDashboard(Options{})
		d.Incoming(Device{ID: "1"})

		if _, err := d.BlockPending(ctx); err != nil {
			t.Fatalf("BlockPending: %v", err)
		}
		if !d.IsBlocked("1") || len(d.Devices()) != 0 {
			t.Fatal("pending device was not blocked")
		}
	})

	t.Run("dismiss pending", func(t *testing.T) {
		d, _ := newTestDashboard(Options{})
		d.Incoming(Device{ID: "1"})

		if _, err := d.DismissPending(ctx); err != nil {
			t.Fatalf("DismissPending: %v", err)
		}
		dev, err := d.Device("1")
		if err != nil {
			t.Fatalf("dismissed device left the registry: %v", err)
		}
		if dev.Authorized || d.Connections() != 0 {
			t.Fatal("dismiss mutated the registry")
		}
	})

	t.Run("idle", func(t *testing.T) {
		d, _ := newTestDashboard(Options{})
		for name, op := range map[string]func(context.Context) (Device, error){
			"allow":   d.AllowPending,
			"block":   d.BlockPending,
			"dismiss": d.DismissPending,
		} {
			if _, err := op(ctx); !errors.Is(err, ErrNoPendingAlert) {
				t.Fatalf("%s while idle: err = %v", name, err)
			}
		}
	})

	t.Run("pending device already blocked", func(t *testing.T) {
		d, obs := newTestDashboard(Options{})
		d.Incoming(Device{ID: "1"})
		if err := d.Block(ctx, "1"); err != nil {
			t.Fatalf("Block: %v", err)
		}

		_, err := d.AllowPending(ctx)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("AllowPending err = %v, want ErrNotFound", err)
		}
		if _, ok := d.Pending(); ok || obs.closed != 1 {
			t.Fatal("alert should close even when the device is gone")
		}
		if d.Connections() != 0 {
			t.Fatalf("Connections() = %d, want 0", d.Connections())
		}
	})
}

func TestDashboard_secondArrivalWhilePending(t *testing.T) {
	t.Run("replace", func(t *testing.T) {
		d, obs := newTestDashboard(Options{PendingPolicy: PolicyReplace})
		d.Incoming(Device{ID: "1"})
		d.Incoming(Device{ID: "2"})

		if len(d.Devices()) != 2 {
			t.Fatalf("Devices() = %+v, want both registered", d.Devices())
		}
		if p, _ := d.Pending(); p.ID != "2" {
			t.Fatalf("Pending() = %s, want 2", p.ID)
		}
		if len(obs.opened) != 2 {
			t.Fatalf("opened = %v", obs.opened)
		}
	})

	t.Run("keep is the default", func(t *testing.T) {
		d, obs := newTestDashboard(Options{})
		d.Incoming(Device{ID: "1"})
		d.Incoming(Device{ID: "2"})

		if len(d.Devices()) != 2 {
			t.Fatalf("Devices() = %+v, want both registered", d.Devices())
		}
		if p, _ := d.Pending(); p.ID != "1" {
			t.Fatalf("Pending() = %s, want 1", p.ID)
		}
		if len(obs.opened) != 1 {
			t.Fatalf("opened = %v, want a single alert", obs.opened)
		}
	})
}

func TestDashboard_recordsDecisions(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	d, _ := newTestDashboard(Options{Recorder: rec})
	ctx := context.Background()

	d.Incoming(Device{ID: "1"})
	d.Register(Device{ID: "2"})
	_, _ = d.DismissPending(ctx)
	_ = d.Allow(ctx, "1")
	_ = d.Block(ctx, "2")

	if len(rec.decisions) != 3 {
		t.Fatalf("recorded %d decisions, want 3", len(rec.decisions))
	}
	want := []Action{ActionDismissed, ActionAllowed, ActionBlocked}
	for i, a := range want {
		if rec.decisions[i].Action != a {
			t.Fatalf("decision[%d] = %s, want %s", i, rec.decisions[i].Action, a)
		}
	}
	// A failing recorder never rolls back the transition.
	if !d.IsBlocked("2") || d.Connections() != 1 {
		t.Fatal("recorder failure undid a transition")
	}
}

func TestDashboard_recordsDecisionsAfterCancel(t *testing.T) {
	rec := &fakeRecorder{}
	d, _ := newTestDashboard(Options{Recorder: rec})
	rec.dash = d

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d.Register(Device{ID: "1"})
	d.Register(Device{ID: "2"})
	d.Incoming(Device{ID: "3"})
	if err := d.Block(ctx, "1"); err != nil {
		t.Fatalf("Block: %v", err)
	}
	if err := d.Allow(ctx, "2"); err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if _, err := d.BlockPending(ctx); err != nil {
		t.Fatalf("BlockPending: %v", err)
	}

	if len(rec.decisions) != 3 {
		t.Fatalf("recorded %d decisions, want 3", len(rec.decisions))
	}
	for i, err := range rec.ctxErrs {
		if err != nil {
			t.Fatalf("decision[%d] written with a dead context: %v", i, err)
		}
	}
}

func TestDashboard_failedTransitionNotRecorded(t *testing.T) {
	rec := &fakeRecorder{}
	d, _ := newTestDashboard(Options{Recorder: rec})

	if err := d.Block(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Block = %v, want ErrNotFound", err)
	}
	if len(rec.decisions) != 0 {
		t.Fatalf("recorded %v for a failed transition", rec.decisions)
	}
}

func TestDashboard_snapshotAndSpeed(t *testing.T) {
	d, obs := newTestDashboard(Options{})
	if _, ok := d.LatestSpeed(); ok {
		t.Fatal("LatestSpeed before any sample")
	}

	d.Incoming(Device{ID: "1"})
	d.RecordSpeed(100, 20)
	d.AppendLog("Navigated to example.com", StatusAllowed)

	snap := d.Snapshot()
	if len(snap.Devices) != 1 || snap.Pending == nil || snap.Pending.ID != "1" {
		t.Fatalf("snapshot devices/pending = %+v", snap)
	}
	if snap.Speed == nil || snap.Speed.DownloadMbps != 100 {
		t.Fatalf("snapshot speed = %+v", snap.Speed)
	}
	if len(snap.Log) != 1 || len(obs.logged) != 1 {
		t.Fatalf("log = %+v", snap.Log)
	}
	if len(obs.speed) != 1 || obs.speed[0] != [2]float64{100, 20} {
		t.Fatalf("speed callbacks = %v", obs.speed)
	}
}

func TestParsePendingPolicy(t *testing.T) {
	for in, want := range map[string]PendingPolicy{"": PolicyKeep, "replace": PolicyReplace, "keep": PolicyKeep} {
		got, err := ParsePendingPolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParsePendingPolicy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePendingPolicy("queue"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestDashboard_seedLog(t *testing.T) {
	for _, tc := range []struct {
		owner string
		want  []string
	}{
		{"", []string{
			"Security protocols activated",
			"Scanning for network connections...",
			"Network Monitor Dashboard initialized",
		}},
		{"Ada", []string{
			"Owner: Ada",
			"Security protocols activated",
			"Scanning for network connections...",
			"Network Monitor Dashboard initialized",
		}},
	} {
		d, obs := newTestDashboard(Options{})
		d.SeedLog(tc.owner)

		entries := d.Log()
		if len(entries) != len(tc.want) || len(obs.logged) != len(tc.want) {
			t.Fatalf("owner %q: %d entries, want %d", tc.owner, len(entries), len(tc.want))
		}
		for i, e := range entries {
			if e.Message != tc.want[i] || e.Status != StatusAllowed {
				t.Fatalf("owner %q: entry %d = %+v, want %q", tc.owner, i, e, tc.want[i])
			}
		}
	}
}

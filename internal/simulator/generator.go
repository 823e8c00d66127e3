// Package simulator fabricates the dashboard's network activity: incoming
// device connections, bandwidth samples and link-type activity.
package simulator

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/network-monitor/backend/internal/monitor"
)

// Source supplies randomness. *math/rand.Rand satisfies it; tests pass a
// scripted sequence.
type Source interface {
	Float64() float64
	Intn(n int) int
}

var deviceNames = []string{
	"Unknown Device", "Mobile Phone", "Laptop", "Tablet",
	"Smart TV", "IoT Device", "Router", "Server",
}

var locations = []string{
	"New York, USA", "London, UK", "Tokyo, Japan",
	"Paris, France", "Berlin, Germany", "Sydney, Australia",
}

const (
	// markerSpread is the width in degrees of the box device markers are
	// scattered in, centred on the observer.
	markerSpread = 0.1

	activeChance = 0.7
)

// Generator fabricates devices and samples. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	src Source
	now func() time.Time

	centerLat float64
	centerLng float64
}

// NewGenerator creates a generator scattering markers around the given point.
func NewGenerator(src Source, now func() time.Time, centerLat, centerLng float64) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{src: src, now: now, centerLat: centerLat, centerLng: centerLng}
}

// Roll reports true with probability p.
func (g *Generator) Roll(p float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.src.Float64() < p
}

// Device fabricates a device with a time-based id and a private-range address.
func (g *Generator) Device() monitor.Device {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	deviceType := monitor.DeviceTypes[g.src.Intn(len(monitor.DeviceTypes))]
	name := deviceNames[g.src.Intn(len(deviceNames))]
	location := locations[g.src.Intn(len(locations))]

	return monitor.Device{
		ID:         strconv.FormatInt(now.UnixMilli(), 10),
		Name:       fmt.Sprintf("%s %d", name, g.src.Intn(1000)),
		IP:         fmt.Sprintf("192.168.%d.%d", g.src.Intn(255), g.src.Intn(255)),
		Type:       deviceType,
		Icon:       deviceType.Icon(),
		Location:   location,
		Latitude:   g.centerLat + (g.src.Float64()-0.5)*markerSpread,
		Longitude:  g.centerLng + (g.src.Float64()-0.5)*markerSpread,
		DetectedAt: now.UTC(),
	}
}

// Speed returns a download sample in [50,150) and an upload sample in [10,40) Mbps.
func (g *Generator) Speed() (downloadMbps, uploadMbps float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	downloadMbps = 50 + g.src.Float64()*100
	uploadMbps = 10 + g.src.Float64()*30
	return downloadMbps, uploadMbps
}

// Activity marks each link type active with a fixed chance.
func (g *Generator) Activity() map[monitor.DeviceType]bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	activity := make(map[monitor.DeviceType]bool, len(monitor.DeviceTypes))
	for _, t := range monitor.DeviceTypes {
		activity[t] = g.src.Float64() < activeChance
	}
	return activity
}

// Package presence tracks which devices are currently online. The registry
// is process-local mutable state: activity events overwrite a per-device
// entry, and status is derived from elapsed time at snapshot time. Nothing
// is persisted; a restart clears the registry.
package presence

import (
	"sync"
	"time"

	"github.com/synchub/backend/internal/server/models"
)

// DefaultThreshold is the window after which a silent device is reported
// inactive.
const DefaultThreshold = 300 * time.Second

// entry is the stored state per device name.
type entry struct {
	deviceType string
	address    string
	userEmail  string
	lastSeen   time.Time
}

// Tracker is a mutex-guarded device registry. Entries are keyed by device
// display name, so two devices sharing a name overwrite each other; this is
// an accepted naming-uniqueness assumption, not silent data loss.
type Tracker struct {
	mu        sync.Mutex
	devices   map[string]*entry
	order     []string
	threshold time.Duration
	now       func() time.Time
}

// NewTracker builds a Tracker with the given activity threshold.
// A non-positive threshold falls back to DefaultThreshold.
func NewTracker(threshold time.Duration) *Tracker {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Tracker{
		devices:   make(map[string]*entry),
		threshold: threshold,
		now:       time.Now,
	}
}

// RecordActivity creates or refreshes the entry for name with the current
// timestamp. Login, heartbeat and explicit registration all funnel here.
func (t *Tracker) RecordActivity(name, deviceType, address, userEmail string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.devices[name]; !ok {
		t.order = append(t.order, name)
	}
	t.devices[name] = &entry{
		deviceType: deviceType,
		address:    address,
		userEmail:  userEmail,
		lastSeen:   t.now(),
	}
}

// Snapshot derives the status of every tracked device from elapsed time
// since its last activity. The first entry in insertion order is flagged as
// the main device. An empty registry yields exactly one synthesized
// placeholder so callers never observe an empty device list.
func (t *Tracker) Snapshot() []models.DeviceStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()

	if len(t.order) == 0 {
		return []models.DeviceStatus{{
			Name:     "Current Device",
			Type:     "laptop",
			Status:   models.DeviceStatusActive,
			LastSeen: now,
			IsMain:   true,
			Address:  "127.0.0.1",
		}}
	}

	result := make([]models.DeviceStatus, 0, len(t.order))
	for i, name := range t.order {
		e := t.devices[name]
		status := models.DeviceStatusActive
		if now.Sub(e.lastSeen) >= t.threshold {
			status = models.DeviceStatusInactive
		}
		result = append(result, models.DeviceStatus{
			Name:      name,
			Type:      e.deviceType,
			Status:    status,
			LastSeen:  e.lastSeen,
			IsMain:    i == 0,
			UserEmail: e.userEmail,
			Address:   e.address,
		})
	}
	return result
}

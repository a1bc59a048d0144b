package presence

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synchub/backend/internal/server/models"
)

func newTestTracker(start time.Time) (*Tracker, *time.Time) {
	current := start
	tr := NewTracker(DefaultThreshold)
	tr.now = func() time.Time { return current }
	return tr, &current
}

func TestSnapshot_EmptyRegistrySynthesizesPlaceholder(t *testing.T) {
	tr, _ := newTestTracker(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	snapshot := tr.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "Current Device", snapshot[0].Name)
	assert.Equal(t, models.DeviceStatusActive, snapshot[0].Status)
	assert.True(t, snapshot[0].IsMain)
}

func TestSnapshot_ThresholdBoundary(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tr, clock := newTestTracker(start)

	tr.RecordActivity("A", "laptop", "10.0.0.1", "a@b.c")

	*clock = start.Add(299 * time.Second)
	snapshot := tr.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, models.DeviceStatusActive, snapshot[0].Status, "299s elapsed must be active")

	*clock = start.Add(301 * time.Second)
	snapshot = tr.Snapshot()
	assert.Equal(t, models.DeviceStatusInactive, snapshot[0].Status, "301s elapsed must be inactive")
}

func TestRecordActivity_RefreshRevivesDevice(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tr, clock := newTestTracker(start)

	tr.RecordActivity("A", "laptop", "10.0.0.1", "a@b.c")

	*clock = start.Add(10 * time.Minute)
	assert.Equal(t, models.DeviceStatusInactive, tr.Snapshot()[0].Status)

	tr.RecordActivity("A", "laptop", "10.0.0.1", "a@b.c")
	assert.Equal(t, models.DeviceStatusActive, tr.Snapshot()[0].Status)
}

func TestRecordActivity_SameNameOverwrites(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tr, _ := newTestTracker(start)

	tr.RecordActivity("A", "laptop", "10.0.0.1", "a@b.c")
	tr.RecordActivity("A", "phone", "10.0.0.2", "a@b.c")

	snapshot := tr.Snapshot()
	require.Len(t, snapshot, 1, "entries are keyed by name")
	assert.Equal(t, "phone", snapshot[0].Type)
	assert.Equal(t, "10.0.0.2", snapshot[0].Address)
}

func TestSnapshot_FirstEntryIsMainDevice(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tr, _ := newTestTracker(start)

	tr.RecordActivity("first", "laptop", "10.0.0.1", "a@b.c")
	tr.RecordActivity("second", "phone", "10.0.0.2", "a@b.c")

	snapshot := tr.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "first", snapshot[0].Name)
	assert.True(t, snapshot[0].IsMain)
	assert.False(t, snapshot[1].IsMain)
}

func TestTracker_ConcurrentAccess(t *testing.T) {
	tr := NewTracker(DefaultThreshold)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tr.RecordActivity("shared", "laptop", "10.0.0.1", "a@b.c")
		}()
		go func() {
			defer wg.Done()
			_ = tr.Snapshot()
		}()
	}
	wg.Wait()

	assert.Len(t, tr.Snapshot(), 1)
}

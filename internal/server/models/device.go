package models

import "time"

// Device statuses derived from the last-seen timestamp.
const (
	DeviceStatusActive   = "active"
	DeviceStatusInactive = "inactive"
)

// DeviceStatus describes one tracked device. Entries are keyed by Name in the
// presence registry and are never persisted; process restart clears them.
type DeviceStatus struct {
	// Name is the device display name and the registry key.
	Name string
	// Type is the declared device type ("laptop", "phone").
	Type string
	// Status is derived at snapshot time from LastSeen.
	Status string
	// LastSeen is the time of the most recent activity.
	LastSeen time.Time
	// IsMain flags the first entry in iteration order, a presentation
	// convenience only.
	IsMain bool
	// UserEmail identifies the owning user.
	UserEmail string
	// Address is the originating network address.
	Address string
}

package domain

type DeviceKind string

const (
	DeviceMobile  DeviceKind = "mobile"
	DeviceDesktop DeviceKind = "desktop"
	DeviceWeb     DeviceKind = "web"
)

type DeviceStatus string

const (
	DeviceOnline  DeviceStatus = "online"
	DeviceOffline DeviceStatus = "offline"
)

// Device is one logical endpoint under a user identity. Exactly one device
// in a roster is the current one; it represents local capture and playback.
type Device struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Kind      DeviceKind   `json:"kind"`
	IsCurrent bool         `json:"isCurrent"`
	IsMuted   bool         `json:"isMuted"`
	Status    DeviceStatus `json:"status"`
}

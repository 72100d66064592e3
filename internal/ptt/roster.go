package ptt

import (
	"fmt"
	"sync"

	"github.com/vokitoky/vokitoky/internal/domain"
)

// DeviceRoster models the logical devices under one user identity.
// Exactly one device is current; it is the local capture/playback endpoint.
type DeviceRoster struct {
	mu      sync.RWMutex
	devices []*domain.Device
	book    *LogBook
}

func NewDeviceRoster(book *LogBook, devices ...domain.Device) *DeviceRoster {
	r := &DeviceRoster{book: book}
	for i := range devices {
		d := devices[i]
		r.devices = append(r.devices, &d)
	}
	return r
}

// DefaultDevices seeds the roster the talk client starts with.
func DefaultDevices() []domain.Device {
	return []domain.Device{
		{ID: "dev-1", Name: "Terminal Client", Kind: domain.DeviceWeb, IsCurrent: true, Status: domain.DeviceOnline},
		{ID: "dev-2", Name: "Mobile App", Kind: domain.DeviceMobile, Status: domain.DeviceOnline},
		{ID: "dev-3", Name: "Desktop App", Kind: domain.DeviceDesktop, IsMuted: true, Status: domain.DeviceOffline},
	}
}

// ToggleMute flips the mute flag on exactly the named device.
func (r *DeviceRoster) ToggleMute(deviceID string) {
	r.mu.Lock()
	var flipped *domain.Device
	for _, d := range r.devices {
		if d.ID == deviceID {
			d.IsMuted = !d.IsMuted
			flipped = d
			break
		}
	}
	r.mu.Unlock()
	if flipped == nil || r.book == nil {
		return
	}
	if flipped.IsMuted {
		r.book.System(fmt.Sprintf("Device %s muted", flipped.Name))
	} else {
		r.book.System(fmt.Sprintf("Device %s unmuted", flipped.Name))
	}
}

// MarkOffline sets the device offline. There is no path back online.
func (r *DeviceRoster) MarkOffline(deviceID string) {
	r.mu.Lock()
	var gone *domain.Device
	for _, d := range r.devices {
		if d.ID == deviceID {
			d.Status = domain.DeviceOffline
			gone = d
			break
		}
	}
	r.mu.Unlock()
	if gone != nil && r.book != nil {
		r.book.System(fmt.Sprintf("Device %s disconnected remotely", gone.Name))
	}
}

// Current returns the single current device. A roster with zero or several
// current devices is a programming error, hence the panic.
func (r *DeviceRoster) Current() domain.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var cur *domain.Device
	for _, d := range r.devices {
		if !d.IsCurrent {
			continue
		}
		if cur != nil {
			panic("ptt: device roster has multiple current devices")
		}
		cur = d
	}
	if cur == nil {
		panic("ptt: device roster has no current device")
	}
	return *cur
}

// Devices returns a snapshot of the roster.
func (r *DeviceRoster) Devices() []domain.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, *d)
	}
	return out
}

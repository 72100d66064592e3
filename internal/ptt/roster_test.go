package ptt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vokitoky/vokitoky/internal/domain"
)

func TestToggleMuteFlipsOneDevice(t *testing.T) {
	book := NewLogBook()
	r := NewDeviceRoster(book, DefaultDevices()...)

	r.ToggleMute("dev-1")
	assert.True(t, r.Current().IsMuted)
	// Other devices untouched.
	for _, d := range r.Devices() {
		if d.ID != "dev-1" && d.ID != "dev-3" {
			assert.False(t, d.IsMuted)
		}
	}

	r.ToggleMute("dev-1")
	assert.False(t, r.Current().IsMuted)

	sys := book.Entries()
	require.Len(t, sys, 2)
	assert.Contains(t, sys[0].Message, "muted")
	assert.Contains(t, sys[1].Message, "unmuted")
}

func TestToggleMuteUnknownDevice(t *testing.T) {
	book := NewLogBook()
	r := NewDeviceRoster(book, DefaultDevices()...)

	r.ToggleMute("dev-404")
	assert.Empty(t, book.Entries())
}

func TestMarkOffline(t *testing.T) {
	book := NewLogBook()
	r := NewDeviceRoster(book, DefaultDevices()...)

	r.MarkOffline("dev-2")
	for _, d := range r.Devices() {
		if d.ID == "dev-2" {
			assert.Equal(t, domain.DeviceOffline, d.Status)
		}
	}
	require.Len(t, book.Entries(), 1)
	assert.Contains(t, book.Entries()[0].Message, "disconnected remotely")
}

func TestCurrentPanicsWithoutCurrentDevice(t *testing.T) {
	r := NewDeviceRoster(nil, domain.Device{ID: "d1", Name: "Phone", Kind: domain.DeviceMobile})
	assert.Panics(t, func() { r.Current() })
}

func TestCurrentPanicsWithTwoCurrentDevices(t *testing.T) {
	r := NewDeviceRoster(nil,
		domain.Device{ID: "d1", IsCurrent: true},
		domain.Device{ID: "d2", IsCurrent: true},
	)
	assert.Panics(t, func() { r.Current() })
}

func TestDevicesReturnsSnapshot(t *testing.T) {
	r := NewDeviceRoster(nil, DefaultDevices()...)
	snap := r.Devices()
	snap[0].IsMuted = true
	assert.False(t, r.Devices()[0].IsMuted)
}

package relay

import "github.com/vokitoky/vokitoky/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

// Policy decides what happens to recipients that cannot keep up with the
// broadcast fan-out.
type Policy interface {
	OnBackPressure(channel domain.ChannelName, id domain.ConnID) BackpressureAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(channel domain.ChannelName, id domain.ConnID) BackpressureAction {
	return KickMember
}

package relay

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vokitoky/vokitoky/internal/domain"
	"github.com/vokitoky/vokitoky/internal/protocol"
	"github.com/vokitoky/vokitoky/internal/registry"
)

type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	fail   bool
}

func (c *fakeConn) TrySend(f []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return ErrSlow
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

func (c *fakeConn) setFail(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = v
}

var ErrSlow = assert.AnError

func (c *fakeConn) types(t *testing.T) []string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		var env protocol.Envelope
		require.NoError(t, json.Unmarshal(f, &env))
		out = append(out, env.Type)
	}
	return out
}

func (c *fakeConn) last(t *testing.T, v any) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.frames)
	require.NoError(t, json.Unmarshal(c.frames[len(c.frames)-1], v))
}

func newTestRelay() *Relay {
	return New(registry.New(), NewSessionTable(), SimplePolicy{})
}

func bind(r *Relay, id domain.ConnID) *fakeConn {
	c := &fakeConn{}
	r.Sessions.Bind(id, c, nil)
	return c
}

func TestJoinBroadcastsNotificationThenSnapshot(t *testing.T) {
	r := newTestRelay()
	alpha := bind(r, "c1")

	require.NoError(t, r.HandleJoin("c1", "Alpha", "Squad-Alpha"))
	assert.Equal(t, []string{protocol.TypeUserJoined, protocol.TypeActiveUsers}, alpha.types(t))

	bravo := bind(r, "c2")
	require.NoError(t, r.HandleJoin("c2", "Bravo", "Squad-Alpha"))

	// Both members see the join, notification before snapshot.
	assert.Equal(t, []string{
		protocol.TypeUserJoined, protocol.TypeActiveUsers,
		protocol.TypeUserJoined, protocol.TypeActiveUsers,
	}, alpha.types(t))
	assert.Equal(t, []string{protocol.TypeUserJoined, protocol.TypeActiveUsers}, bravo.types(t))

	var snap protocol.ActiveUsers
	bravo.last(t, &snap)
	require.Len(t, snap.Users, 2)
	assert.Equal(t, "Alpha", snap.Users[0].Name)
	assert.Equal(t, "Bravo", snap.Users[1].Name)
}

func TestJoinRejectsBadNames(t *testing.T) {
	r := newTestRelay()
	bind(r, "c1")

	assert.ErrorIs(t, r.HandleJoin("c1", "", "Squad-Alpha"), domain.ErrDisplayNameEmpty)
	assert.ErrorIs(t, r.HandleJoin("c1", "Alpha", ""), domain.ErrChannelNameEmpty)
}

func TestVoiceSkipsSender(t *testing.T) {
	r := newTestRelay()
	alpha := bind(r, "c1")
	bravo := bind(r, "c2")
	require.NoError(t, r.HandleJoin("c1", "Alpha", "Squad-Alpha"))
	require.NoError(t, r.HandleJoin("c2", "Bravo", "Squad-Alpha"))
	alphaBefore := len(alpha.types(t))

	r.HandleVoice("c1", []byte("blob"), "copy that", 1200)

	var msg protocol.VoiceBroadcast
	bravo.last(t, &msg)
	assert.Equal(t, protocol.TypeVoiceMessage, msg.Type)
	assert.Equal(t, "Alpha", msg.SenderName)
	assert.Equal(t, domain.ConnID("c1"), msg.SenderID)
	assert.Equal(t, []byte("blob"), msg.Audio)
	assert.Equal(t, "copy that", msg.Transcription)
	assert.Equal(t, int64(1200), msg.DurationMs)
	assert.NotEmpty(t, msg.ID)
	assert.NotZero(t, msg.Timestamp)

	// No self-delivery.
	assert.Len(t, alpha.types(t), alphaBefore)
}

func TestVoiceFromUnregisteredDroppedSilently(t *testing.T) {
	r := newTestRelay()
	alpha := bind(r, "c1")
	require.NoError(t, r.HandleJoin("c1", "Alpha", "Squad-Alpha"))
	before := len(alpha.types(t))

	bind(r, "ghost")
	r.HandleVoice("ghost", []byte("blob"), "", 100)

	assert.Len(t, alpha.types(t), before)
}

func TestVoiceStaysInChannel(t *testing.T) {
	r := newTestRelay()
	bind(r, "c1")
	other := bind(r, "c2")
	require.NoError(t, r.HandleJoin("c1", "Alpha", "Squad-Alpha"))
	require.NoError(t, r.HandleJoin("c2", "Echo", "Squad-Bravo"))
	before := len(other.types(t))

	r.HandleVoice("c1", []byte("blob"), "", 100)

	assert.Len(t, other.types(t), before)
}

func TestRejoinRebroadcastsToOldChannel(t *testing.T) {
	r := newTestRelay()
	alpha := bind(r, "c1")
	bravo := bind(r, "c2")
	require.NoError(t, r.HandleJoin("c1", "Alpha", "Squad-Alpha"))
	require.NoError(t, r.HandleJoin("c2", "Bravo", "Squad-Alpha"))

	// Moving to another channel is a leave of the old one; the members
	// staying behind get the reduced snapshot.
	require.NoError(t, r.HandleJoin("c1", "Alpha", "Squad-Bravo"))

	var snap protocol.ActiveUsers
	bravo.last(t, &snap)
	require.Len(t, snap.Users, 1)
	assert.Equal(t, "Bravo", snap.Users[0].Name)

	// The mover sees only its new channel.
	alpha.last(t, &snap)
	require.Len(t, snap.Users, 1)
	assert.Equal(t, "Alpha", snap.Users[0].Name)
	assert.Equal(t, domain.ChannelName("Squad-Bravo"), snap.Users[0].Channel)
}

func TestDisconnectRebroadcastsSnapshot(t *testing.T) {
	r := newTestRelay()
	bind(r, "c1")
	bravo := bind(r, "c2")
	require.NoError(t, r.HandleJoin("c1", "Alpha", "Squad-Alpha"))
	require.NoError(t, r.HandleJoin("c2", "Bravo", "Squad-Alpha"))

	r.HandleDisconnect("c1")

	var snap protocol.ActiveUsers
	bravo.last(t, &snap)
	require.Len(t, snap.Users, 1)
	assert.Equal(t, "Bravo", snap.Users[0].Name)
}

func TestDisconnectBeforeJoinIsNoop(t *testing.T) {
	r := newTestRelay()
	alpha := bind(r, "c1")
	require.NoError(t, r.HandleJoin("c1", "Alpha", "Squad-Alpha"))
	before := len(alpha.types(t))

	bind(r, "ghost")
	r.HandleDisconnect("ghost")

	assert.Len(t, alpha.types(t), before)
}

func TestBackpressureKicksSlowMember(t *testing.T) {
	r := newTestRelay()
	bind(r, "c1")

	slow := &fakeConn{}
	canceled := false
	r.Sessions.Bind("c2", slow, func() { canceled = true })

	require.NoError(t, r.HandleJoin("c1", "Alpha", "Squad-Alpha"))
	require.NoError(t, r.HandleJoin("c2", "Bravo", "Squad-Alpha"))
	require.False(t, canceled)

	slow.setFail(true)
	r.HandleVoice("c1", []byte("blob"), "", 100)

	assert.True(t, canceled)
}

func snapshotSizes(t *testing.T, c *fakeConn) []int {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []int
	for _, f := range c.frames {
		var env protocol.Envelope
		require.NoError(t, json.Unmarshal(f, &env))
		if env.Type != protocol.TypeActiveUsers {
			continue
		}
		var snap protocol.ActiveUsers
		require.NoError(t, json.Unmarshal(f, &snap))
		out = append(out, len(snap.Users))
	}
	return out
}

// Membership mutation and snapshot fan-out share one lock, so a long-lived
// member must see snapshots in mutation order even when joins and leaves
// race: sizes only grow while connections join, only shrink while they
// leave, and never show an intermediate state twice out of order.
func TestConcurrentMembershipSnapshotsStayConsistent(t *testing.T) {
	r := newTestRelay()
	observer := bind(r, "obs")
	require.NoError(t, r.HandleJoin("obs", "Observer", "Squad-Alpha"))

	const n = 16
	ids := make([]domain.ConnID, 0, n)
	for i := 0; i < n; i++ {
		id := domain.ConnID(fmt.Sprintf("c%d", i))
		bind(r, id)
		ids = append(ids, id)
	}

	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id domain.ConnID) {
			defer wg.Done()
			errs <- r.HandleJoin(id, fmt.Sprintf("Member-%d", i), "Squad-Alpha")
		}(i, id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	grow := snapshotSizes(t, observer)
	require.NotEmpty(t, grow)
	prev := 0
	for _, size := range grow {
		assert.GreaterOrEqual(t, size, prev)
		prev = size
	}
	assert.Equal(t, n+1, prev)

	for _, id := range ids {
		wg.Add(1)
		go func(id domain.ConnID) {
			defer wg.Done()
			r.HandleDisconnect(id)
		}(id)
	}
	wg.Wait()

	all := snapshotSizes(t, observer)
	shrink := all[len(grow):]
	require.Len(t, shrink, n)
	prev = n + 1
	for _, size := range shrink {
		assert.LessOrEqual(t, size, prev)
		prev = size
	}
	assert.Equal(t, 1, prev)
}

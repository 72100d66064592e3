package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vokitoky/vokitoky/internal/domain"
)

func member(t *testing.T, id, name, channel string) *domain.Member {
	t.Helper()
	m, err := domain.NewMember(domain.ConnID(id), name, domain.ChannelName(channel))
	require.NoError(t, err)
	return m
}

func names(members []domain.Member) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		out = append(out, m.Name)
	}
	return out
}

func TestJoinKeepsJoinOrder(t *testing.T) {
	r := New()

	res := r.Join(member(t, "c1", "Alpha", "Squad-Alpha"))
	assert.Equal(t, []string{"Alpha"}, names(res.Members))

	res = r.Join(member(t, "c2", "Bravo", "Squad-Alpha"))
	assert.Equal(t, []string{"Alpha", "Bravo"}, names(res.Members))

	res = r.Join(member(t, "c3", "Charlie", "Squad-Alpha"))
	assert.Equal(t, []string{"Alpha", "Bravo", "Charlie"}, names(res.Members))
}

func TestJoinIdempotent(t *testing.T) {
	r := New()
	r.Join(member(t, "c1", "Alpha", "Squad-Alpha"))
	res := r.Join(member(t, "c1", "Alpha", "Squad-Alpha"))

	assert.Equal(t, []string{"Alpha"}, names(res.Members))
	assert.False(t, res.Moved)
	assert.Len(t, r.MembersOf("Squad-Alpha"), 1)
}

func TestRejoinMovesChannel(t *testing.T) {
	r := New()
	r.Join(member(t, "c1", "Alpha", "Squad-Alpha"))
	r.Join(member(t, "c2", "Bravo", "Squad-Alpha"))
	res := r.Join(member(t, "c1", "Alpha", "Squad-Bravo"))

	assert.Equal(t, []string{"Alpha"}, names(res.Members))
	require.True(t, res.Moved)
	assert.Equal(t, domain.ChannelName("Squad-Alpha"), res.Left)
	assert.Equal(t, []string{"Bravo"}, names(res.Remaining))
	assert.Equal(t, []string{"Bravo"}, names(r.MembersOf("Squad-Alpha")))

	ch, ok := r.ChannelOf("c1")
	require.True(t, ok)
	assert.Equal(t, domain.ChannelName("Squad-Bravo"), ch)
}

func TestLeave(t *testing.T) {
	r := New()
	r.Join(member(t, "c1", "Alpha", "Squad-Alpha"))
	r.Join(member(t, "c2", "Bravo", "Squad-Alpha"))

	ch, snap, ok := r.Leave("c1")
	require.True(t, ok)
	assert.Equal(t, domain.ChannelName("Squad-Alpha"), ch)
	assert.Equal(t, []string{"Bravo"}, names(snap))

	_, ok = r.ChannelOf("c1")
	assert.False(t, ok)
}

func TestLeaveUnknownIsNoop(t *testing.T) {
	r := New()
	_, _, ok := r.Leave("ghost")
	assert.False(t, ok)
}

func TestEmptyChannelReclaimed(t *testing.T) {
	r := New()
	r.Join(member(t, "c1", "Alpha", "Squad-Alpha"))
	require.Len(t, r.Channels(), 1)

	_, _, ok := r.Leave("c1")
	require.True(t, ok)
	assert.Empty(t, r.Channels())
}

func TestChannelsCounts(t *testing.T) {
	r := New()
	r.Join(member(t, "c1", "Alpha", "Squad-Alpha"))
	r.Join(member(t, "c2", "Bravo", "Squad-Alpha"))
	r.Join(member(t, "c3", "Charlie", "Squad-Bravo"))

	infos := r.Channels()
	require.Len(t, infos, 2)
	counts := map[domain.ChannelName]int{}
	for _, info := range infos {
		counts[info.Name] = info.MemberCount
	}
	assert.Equal(t, 2, counts["Squad-Alpha"])
	assert.Equal(t, 1, counts["Squad-Bravo"])
}

func TestSnapshotIsACopy(t *testing.T) {
	r := New()
	r.Join(member(t, "c1", "Alpha", "Squad-Alpha"))

	snap := r.MembersOf("Squad-Alpha")
	snap[0].Name = "Mallory"

	assert.Equal(t, "Alpha", r.MembersOf("Squad-Alpha")[0].Name)
}

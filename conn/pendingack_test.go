package conn

import (
	"testing"
	"time"

	"rudp/wire"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertIfAbsent(t *testing.T) {
	table := NewPendingAckTable()
	p := wire.NewPacket(wire.MethodData, 1, 100, true, nil)
	now := time.Now()

	inserted := table.InsertIfAbsent(p, now)
	assert.True(t, inserted)

	inserted = table.InsertIfAbsent(p, now)
	assert.False(t, inserted)
	assert.Equal(t, 1, table.Len())
}

func TestRemove(t *testing.T) {
	table := NewPendingAckTable()
	p := wire.NewPacket(wire.MethodData, 1, 100, true, nil)
	now := time.Now()
	table.InsertIfAbsent(p, now)

	rec, ok := table.Remove(100)
	require.True(t, ok)
	assert.Equal(t, p.Header.PacketID, rec.Packet.Header.PacketID)
	assert.Equal(t, 0, table.Len())

	_, ok = table.Remove(100)
	assert.False(t, ok)
}

func TestPlanSweepRespectsMinIntervalAndBudget(t *testing.T) {
	table := NewPendingAckTable()
	now := time.Now()

	fresh := wire.NewPacket(wire.MethodData, 1, 1, true, nil)
	table.InsertIfAbsent(fresh, now)

	// Too young to retransmit yet.
	plan := table.PlanSweep(now, 200*time.Millisecond, 20)
	assert.Empty(t, plan)

	// Old enough now.
	plan = table.PlanSweep(now.Add(250*time.Millisecond), 200*time.Millisecond, 20)
	require.Len(t, plan, 1)
	assert.False(t, plan[0].Exhausted)
}

func TestSweepExhaustsAfterMaxAttempts(t *testing.T) {
	table := NewPendingAckTable()
	now := time.Now()

	p := wire.NewPacket(wire.MethodConnect, 1, 1, true, nil)
	table.InsertIfAbsent(p, now)

	// Drive attempts up to the budget via repeated plan/apply ticks.
	tick := now
	for i := 0; i < 3; i++ {
		tick = tick.Add(time.Second)
		plan := table.PlanSweep(tick, 0, 3)
		table.Apply(plan, tick)
	}
	require.Equal(t, 1, table.Len())

	tick = tick.Add(time.Second)
	plan := table.PlanSweep(tick, 0, 3)
	require.Len(t, plan, 1)
	assert.True(t, plan[0].Exhausted)

	exhausted := table.Apply(plan, tick)
	require.Len(t, exhausted, 1)
	assert.Equal(t, uint32(1), exhausted[0].Packet.Header.PacketID)
	assert.Equal(t, 0, table.Len())
}

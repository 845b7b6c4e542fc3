package conn

import (
	"sync"
	"time"

	"rudp/wire"
)

// PendingAckRecord is the bookkeeping kept for a sent packet awaiting
// an Ack: the cached packet so it can be retransmitted unchanged, and
// the timing/attempt counters the retransmit loop sweeps.
type PendingAckRecord struct {
	Packet      wire.Packet
	FirstSentAt time.Time
	LastSentAt  time.Time
	Attempts    int
}

// PendingAckTable is the shared map packet_id -> PendingAckRecord
// tracking every sent packet still awaiting acknowledgement. It is
// safe for concurrent use: the retransmit loop takes a read view to
// walk records and a write view to apply increments/removals (in two
// separate phases, so neither holds the write lock across a socket
// write); Send and dispatch take a write view for single insert/remove
// operations.
type PendingAckTable struct {
	mu      sync.RWMutex
	records map[uint32]*PendingAckRecord
}

// NewPendingAckTable returns an empty table.
func NewPendingAckTable() *PendingAckTable {
	return &PendingAckTable{records: make(map[uint32]*PendingAckRecord)}
}

// InsertIfAbsent creates a record for p.Header.PacketID if one does
// not already exist, returning whether it inserted a new record.
func (t *PendingAckTable) InsertIfAbsent(p wire.Packet, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.records[p.Header.PacketID]; exists {
		return false
	}
	t.records[p.Header.PacketID] = &PendingAckRecord{
		Packet:      p,
		FirstSentAt: now,
		LastSentAt:  now,
	}
	return true
}

// Remove deletes and returns the record for packetID, if present.
func (t *PendingAckTable) Remove(packetID uint32) (PendingAckRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[packetID]
	if !ok {
		return PendingAckRecord{}, false
	}
	delete(t.records, packetID)
	return *rec, true
}

// Len reports the number of outstanding pending-ack records.
func (t *PendingAckTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// SweepPlan is what the retransmit loop's read-view walk phase
// decides to do with each record before the write-view apply phase
// commits it.
type SweepPlan struct {
	PacketID   uint32
	Packet     wire.Packet
	Exhausted  bool
}

// PlanSweep takes a read view of the table and decides, for every
// record whose age since last send is at least minInterval, whether
// it should be retransmitted or has exhausted its attempt budget. It
// does not mutate the table; Apply does that in a separate phase so
// the two never need to hold the write lock across a socket write.
func (t *PendingAckTable) PlanSweep(now time.Time, minInterval time.Duration, maxAttempts int) []SweepPlan {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var plan []SweepPlan
	for id, rec := range t.records {
		if rec.Attempts >= maxAttempts {
			plan = append(plan, SweepPlan{PacketID: id, Packet: rec.Packet, Exhausted: true})
			continue
		}
		if now.Sub(rec.LastSentAt) >= minInterval {
			plan = append(plan, SweepPlan{PacketID: id, Packet: rec.Packet, Exhausted: false})
		}
	}
	return plan
}

// Apply commits the outcome of a PlanSweep: exhausted records are
// removed, retransmitted records have their attempt count
// incremented and LastSentAt refreshed. Returns the removed-for-
// exhaustion records so the caller can transition their originating
// connections.
func (t *PendingAckTable) Apply(plan []SweepPlan, now time.Time) []PendingAckRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	var exhausted []PendingAckRecord
	for _, item := range plan {
		rec, ok := t.records[item.PacketID]
		if !ok {
			continue
		}
		if item.Exhausted {
			delete(t.records, item.PacketID)
			exhausted = append(exhausted, *rec)
			continue
		}
		rec.Attempts++
		rec.LastSentAt = now
	}
	return exhausted
}

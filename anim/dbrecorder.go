package anim

import (
	"github.com/sarchlab/animtrace/datarecording"
	"github.com/sarchlab/animtrace/sim"
)

type packetTableEntry struct {
	Token          uint64
	Category       string
	FromNode       uint32
	ToNode         uint32
	FirstBitTxTime float64
	LastBitTxTime  float64
	FirstBitRxTime float64
	LastBitRxTime  float64
	ByteCount      uint32
}

type sessionTableEntry struct {
	StartTime float64
	StopTime  float64
	Packets   uint64
}

// A PacketRecorder stores every correlated packet record and a per-session
// summary row into a data-recording backend, so traces can be analyzed
// offline with SQL without parsing the trace stream.
type PacketRecorder struct {
	backend datarecording.DataRecorder
	packets uint64
}

// NewPacketRecorder creates a PacketRecorder on top of the backend and
// creates the packets and sessions tables.
func NewPacketRecorder(
	backend datarecording.DataRecorder,
) *PacketRecorder {
	backend.CreateTable("packets", packetTableEntry{})
	backend.CreateTable("sessions", sessionTableEntry{})

	return &PacketRecorder{backend: backend}
}

// RecordPacket stores one correlated tx/rx pair.
func (r *PacketRecorder) RecordPacket(
	category Category,
	rec PendingRecord,
	rx RxRecord,
) {
	r.packets++

	r.backend.InsertData("packets", packetTableEntry{
		Token:          uint64(rec.Token),
		Category:       category.String(),
		FromNode:       uint32(rec.FromNode),
		ToNode:         uint32(rx.ToNode),
		FirstBitTxTime: float64(rec.FirstBitTxTime),
		LastBitTxTime:  float64(rec.LastBitTxTime),
		FirstBitRxTime: float64(rx.FirstBitRxTime),
		LastBitRxTime:  float64(rx.LastBitRxTime),
		ByteCount:      rec.ByteCount,
	})
}

// RecordSession stores the summary row of a finished capture session.
func (r *PacketRecorder) RecordSession(start, stop sim.VTimeInSec) {
	r.backend.InsertData("sessions", sessionTableEntry{
		StartTime: float64(start),
		StopTime:  float64(stop),
		Packets:   r.packets,
	})
}

// Flush flushes the backend buffers.
func (r *PacketRecorder) Flush() {
	r.backend.Flush()
}

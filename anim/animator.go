package anim

import (
	"log"
	"os"

	"github.com/sarchlab/animtrace/sim"
)

// SessionState is the lifecycle state of a capture session.
type SessionState int

// The session states. A stopped session can be restarted with
// StartAnimation(true).
const (
	SessionUninitialized SessionState = iota
	SessionStarted
	SessionStopped
)

func (s SessionState) String() string {
	switch s {
	case SessionStarted:
		return "started"
	case SessionStopped:
		return "stopped"
	default:
		return "uninitialized"
	}
}

const topologyMarginFraction = 0.1

// An Animator observes transmit, receive, drop, and mobility events from
// the simulated network, correlates transmits with receives through packet
// tokens, and streams the resulting trace records through its Writer. All
// of its work is reactive; only mobility polling and pending-table purging
// self-schedule on the engine, and both are cancelled at session stop.
type Animator struct {
	engine   sim.Engine
	registry *NodeRegistry
	tracker  *PositionTracker
	tagger   *Tagger
	writer   *Writer
	tables   map[Category]*PendingTable
	recorder *PacketRecorder
	logger   *log.Logger

	mobilityPoller *sim.IntervalScheduler
	purgePoller    *sim.IntervalScheduler
	purgeMaxAge    sim.VTimeInSec

	showAllFrames  bool
	enableMetadata bool
	wirelessRange  float64

	state            SessionState
	sessionStartTime sim.VTimeInSec
	packetsWritten   uint64

	rxBeginTimes map[rxKey]sim.VTimeInSec
	rxReady      map[rxKey]RxRecord
}

type rxKey struct {
	category Category
	token    CorrelationToken
	node     NodeID
}

// Name returns the name of the animator for event logging.
func (a *Animator) Name() string {
	return "Animator"
}

// Registry returns the node registry of the session.
func (a *Animator) Registry() *NodeRegistry {
	return a.registry
}

// Tracker returns the position tracker of the session.
func (a *Animator) Tracker() *PositionTracker {
	return a.tracker
}

// Writer returns the output writer of the session.
func (a *Animator) Writer() *Writer {
	return a.writer
}

// Table returns the pending table of the given category.
func (a *Animator) Table(category Category) *PendingTable {
	return a.tables[category]
}

// IsStarted returns true while a capture session is active.
func (a *Animator) IsStarted() bool {
	return a.state == SessionStarted
}

// State returns the lifecycle state of the session.
func (a *Animator) State() SessionState {
	return a.state
}

// TracePacketCount returns the number of packet records in the current
// trace file.
func (a *Animator) TracePacketCount() uint64 {
	return a.writer.TracePacketCount()
}

// Stats summarizes the observable counters of a session for diagnostics.
type Stats struct {
	State          string
	PacketsWritten uint64
	TokensAssigned uint64
	PendingTotal   int
	PurgedTotal    uint64
}

// Stats returns the current session counters.
func (a *Animator) Stats() Stats {
	s := Stats{
		State:          a.state.String(),
		PacketsWritten: a.packetsWritten,
		TokensAssigned: a.tagger.Count(),
	}

	for _, table := range a.tables {
		s.PendingTotal += table.Len()
		s.PurgedTotal += table.PurgedCount()
	}

	return s
}

// StartAnimation opens the output destination, writes the preamble and the
// current topology snapshot, and starts the mobility and purge pollers.
// Restarting a stopped session reuses the prior configuration. A failed
// start leaves no partial state behind.
func (a *Animator) StartAnimation(restart bool) error {
	if a.state == SessionStarted {
		return nil
	}

	if a.state == SessionStopped && !restart {
		return ErrSessionNotStarted
	}

	if a.state == SessionStopped {
		a.resetCorrelationState()
	}

	if err := a.writer.Open(); err != nil {
		return err
	}

	if err := a.writer.WritePreamble(); err != nil {
		_ = a.writer.Close()
		return err
	}

	if err := a.writeTopologySnapshot(); err != nil {
		_ = a.writer.Close()
		return err
	}

	a.sessionStartTime = a.engine.CurrentTime()
	a.state = SessionStarted

	a.mobilityPoller.Start()
	a.purgePoller.Start()

	return nil
}

// StopAnimation cancels the pollers, flushes, and closes the destination.
// The session transitions to the terminal stopped state.
func (a *Animator) StopAnimation() error {
	if a.state != SessionStarted {
		return ErrSessionNotStarted
	}

	a.mobilityPoller.Cancel()
	a.purgePoller.Cancel()

	if a.recorder != nil {
		a.recorder.RecordSession(
			a.sessionStartTime, a.engine.CurrentTime())
		a.recorder.Flush()
	}

	a.state = SessionStopped

	return a.writer.Close()
}

// resetCorrelationState drops pending records and receive-side bookkeeping
// left over from the previous session, so a pre-stop transmit cannot
// correlate into the new session's output.
func (a *Animator) resetCorrelationState() {
	for _, table := range a.tables {
		table.Reset()
	}

	a.rxBeginTimes = make(map[rxKey]sim.VTimeInSec)
	a.rxReady = make(map[rxKey]RxRecord)
}

// HandleNewFile re-emits the topology snapshot after a trace file rotation
// so that every file in the sequence stands alone.
func (a *Animator) HandleNewFile() error {
	return a.writeTopologySnapshot()
}

func (a *Animator) writeTopologySnapshot() error {
	a.primeMobilityPositions()

	nodes := a.tracker.RecalcBounds()
	bounds := a.tracker.Bounds().WithMargin(topologyMarginFraction)

	if err := a.writer.WriteTopologyOpen(bounds); err != nil {
		return err
	}

	for _, node := range nodes {
		pos, err := a.tracker.GetPosition(node)
		if err != nil {
			a.logger.Printf("topology: %v", err)
			continue
		}

		err = a.writer.WriteNode(node, pos, a.registry.Description(node))
		if err != nil {
			return err
		}
	}

	for _, link := range a.registry.Links() {
		if err := a.writer.WriteLink(link.From, link.To); err != nil {
			return err
		}
	}

	return a.writer.WriteTopologyClose()
}

// primeMobilityPositions seeds the tracker with the current position of
// every node that has a mobility source, so the first topology snapshot
// includes them.
func (a *Animator) primeMobilityPositions() {
	for _, node := range a.registry.NodesWithMobility() {
		provider, _ := a.registry.MobilityProvider(node)
		a.tracker.UpdatePosition(node, provider.Position())
	}
}

func (a *Animator) now() sim.VTimeInSec {
	return a.engine.CurrentTime()
}

// recording returns true if the session is active and the current simulated
// time is inside the capture window. It is the single per-event gate.
func (a *Animator) recording() bool {
	return a.state == SessionStarted && a.writer.IsInTimeWindow(a.now())
}

// DeviceTx handles a point-to-point device transmit where both endpoints
// and both times are known up front. The packet and rx records are written
// in one shot without going through a pending table.
func (a *Animator) DeviceTx(
	txContext, rxContext string,
	p Packet,
	txTime, rxTime sim.VTimeInSec,
) {
	if !a.recording() {
		return
	}

	fromNode, err := NodeIDFromContext(txContext)
	if err != nil {
		a.logger.Printf("device tx: %v", err)
		return
	}

	toNode, err := NodeIDFromContext(rxContext)
	if err != nil {
		a.logger.Printf("device tx: %v", err)
		return
	}

	token := a.tagger.Tag(p)
	rec := PendingRecord{
		Token:          token,
		FromNode:       fromNode,
		FirstBitTxTime: txTime,
		LastBitTxTime:  txTime,
		ByteCount:      p.ByteCount(),
	}
	rx := RxRecord{
		ToNode:         toNode,
		FirstBitRxTime: rxTime,
		LastBitRxTime:  rxTime,
	}

	a.writePacket(CategoryCsma, rec, rx, a.metadataOf(p))
}

// TxBegin handles a transmit-begin notification of a link category. The
// packet is tagged and a pending record is created.
func (a *Animator) TxBegin(category Category, context string, p Packet) {
	if !a.recording() {
		return
	}

	node, err := NodeIDFromContext(context)
	if err != nil {
		a.logger.Printf("%s tx begin: %v", category, err)
		return
	}

	now := a.now()
	token := a.tagger.Tag(p)
	rec := PendingRecord{
		FromNode:       node,
		FirstBitTxTime: now,
		LastBitTxTime:  now,
		ByteCount:      p.ByteCount(),
	}
	if category.IsWireless() {
		rec.WirelessRange = a.wirelessRange
	}

	err = a.tables[category].RecordTransmit(token, rec)
	if err != nil {
		a.logger.Printf("%s tx begin: %v", category, err)
	}
}

// TxEnd handles a transmit-end notification, closing the transmit interval
// of the pending record.
func (a *Animator) TxEnd(category Category, context string, p Packet) {
	if !a.recording() {
		return
	}

	token, ok := a.tagger.TokenOf(p)
	if !ok {
		a.logger.Printf("%s tx end: packet %s was never tagged",
			category, p.UID())
		return
	}

	a.tables[category].SetLastBitTxTime(token, a.now())
}

// TxDrop handles a transmit-drop notification. The pending record is
// removed; the packet never travelled.
func (a *Animator) TxDrop(category Category, context string, p Packet) {
	if !a.recording() {
		return
	}

	token, ok := a.tagger.TokenOf(p)
	if !ok {
		return
	}

	a.tables[category].Complete(token)
}

// RxBegin handles a receive-begin notification, remembering the first-bit
// receive time for this receiver.
func (a *Animator) RxBegin(category Category, context string, p Packet) {
	if !a.recording() {
		return
	}

	node, err := NodeIDFromContext(context)
	if err != nil {
		a.logger.Printf("%s rx begin: %v", category, err)
		return
	}

	token, ok := a.tagger.TokenOf(p)
	if !ok {
		a.logger.Printf("%s rx begin: %v: packet %s",
			category, ErrUnmatchedReceive, p.UID())
		return
	}

	key := rxKey{category: category, token: token, node: node}
	a.rxBeginTimes[key] = a.now()
}

// RxEnd handles a receive-end notification. In show-all-frames mode the
// correlated packet record is emitted immediately; otherwise it is held
// until the link layer accepts the frame (RxAccepted).
func (a *Animator) RxEnd(category Category, context string, p Packet) {
	if !a.recording() {
		return
	}

	node, err := NodeIDFromContext(context)
	if err != nil {
		a.logger.Printf("%s rx end: %v", category, err)
		return
	}

	token, ok := a.tagger.TokenOf(p)
	if !ok {
		a.logger.Printf("%s rx end: %v: packet %s",
			category, ErrUnmatchedReceive, p.UID())
		return
	}

	now := a.now()
	key := rxKey{category: category, token: token, node: node}

	firstBit, ok := a.rxBeginTimes[key]
	if !ok {
		firstBit = now
	}
	delete(a.rxBeginTimes, key)

	rx := RxRecord{
		ToNode:         node,
		FirstBitRxTime: firstBit,
		LastBitRxTime:  now,
	}

	if a.showAllFrames && category == CategoryWifi {
		a.emit(category, token, rx, p)
		return
	}

	a.rxReady[key] = rx
}

// RxAccepted handles the link layer accepting a received frame. The packet
// record held since RxEnd is emitted. In the default accepted-only mode
// this is the moment a wifi or csma packet becomes visible in the trace.
func (a *Animator) RxAccepted(category Category, context string, p Packet) {
	if !a.recording() {
		return
	}

	node, err := NodeIDFromContext(context)
	if err != nil {
		a.logger.Printf("%s rx accepted: %v", category, err)
		return
	}

	token, ok := a.tagger.TokenOf(p)
	if !ok {
		a.logger.Printf("%s rx accepted: %v: packet %s",
			category, ErrUnmatchedReceive, p.UID())
		return
	}

	now := a.now()
	key := rxKey{category: category, token: token, node: node}

	rx, ok := a.rxReady[key]
	if !ok {
		rx = RxRecord{ToNode: node, FirstBitRxTime: now, LastBitRxTime: now}
	}
	delete(a.rxReady, key)

	if a.showAllFrames && category == CategoryWifi {
		// Already emitted at RxEnd.
		return
	}

	a.emit(category, token, rx, p)
}

// RxDrop handles a receive-drop notification, discarding the receive-side
// bookkeeping of this receiver.
func (a *Animator) RxDrop(category Category, context string, p Packet) {
	if !a.recording() {
		return
	}

	node, err := NodeIDFromContext(context)
	if err != nil {
		return
	}

	token, ok := a.tagger.TokenOf(p)
	if !ok {
		return
	}

	key := rxKey{category: category, token: token, node: node}
	delete(a.rxBeginTimes, key)
	delete(a.rxReady, key)
}

// Rx handles the single receive notification of technologies that report
// neither bit-level timing nor link-layer acceptance separately (wimax,
// lte). The packet record is emitted immediately.
func (a *Animator) Rx(category Category, context string, p Packet) {
	if !a.recording() {
		return
	}

	node, err := NodeIDFromContext(context)
	if err != nil {
		a.logger.Printf("%s rx: %v", category, err)
		return
	}

	token, ok := a.tagger.TokenOf(p)
	if !ok {
		a.logger.Printf("%s rx: %v: packet %s",
			category, ErrUnmatchedReceive, p.UID())
		return
	}

	now := a.now()
	rx := RxRecord{ToNode: node, FirstBitRxTime: now, LastBitRxTime: now}

	a.emit(category, token, rx, p)
}

func (a *Animator) emit(
	category Category,
	token CorrelationToken,
	rx RxRecord,
	p Packet,
) {
	rec, err := a.tables[category].Consume(token)
	if err != nil {
		a.logger.Printf("%s rx: %v", category, err)
		return
	}

	a.writePacket(category, rec, rx, a.metadataOf(p))
}

func (a *Animator) writePacket(
	category Category,
	rec PendingRecord,
	rx RxRecord,
	metadata string,
) {
	err := a.writer.WritePacket(category, rec, rx, metadata)
	if err != nil {
		a.failSession(err)
		return
	}

	a.packetsWritten++

	if a.recorder != nil {
		a.recorder.RecordPacket(category, rec, rx)
	}
}

func (a *Animator) metadataOf(p Packet) string {
	if !a.enableMetadata {
		return ""
	}

	provider, ok := p.(MetadataProvider)
	if !ok {
		return ""
	}

	return provider.Metadata()
}

// failSession tears the session down after a fatal destination failure. The
// recorder's session summary is still written, so the run keeps its index
// row for a post-mortem.
func (a *Animator) failSession(err error) {
	a.logger.Printf("fatal trace output failure: %v", err)

	a.mobilityPoller.Cancel()
	a.purgePoller.Cancel()

	if a.recorder != nil {
		a.recorder.RecordSession(
			a.sessionStartTime, a.engine.CurrentTime())
		a.recorder.Flush()
	}

	a.state = SessionStopped

	_ = a.writer.Close()
}

// MobilityCourseChange handles an externally delivered position change of a
// node. A node record is emitted if the node actually moved.
func (a *Animator) MobilityCourseChange(node NodeID, pos Vector) {
	if !a.recording() {
		return
	}

	if !a.tracker.HasMoved(node, pos) {
		return
	}

	a.tracker.UpdatePosition(node, pos)

	err := a.writer.WriteNode(node, pos, a.registry.Description(node))
	if err != nil {
		a.failSession(err)
	}
}

// mobilityPollHandler drives the recurring mobility poll.
type mobilityPollHandler struct {
	animator *Animator
}

func (h *mobilityPollHandler) Handle(e sim.Event) error {
	a := h.animator

	if a.mobilityPoller.IsCancelled() {
		return nil
	}

	a.pollMobility()
	a.mobilityPoller.ScheduleNext()

	return nil
}

func (a *Animator) pollMobility() {
	if !a.recording() {
		return
	}

	for _, node := range a.registry.NodesWithMobility() {
		provider, _ := a.registry.MobilityProvider(node)
		pos := provider.Position()

		if !a.tracker.HasMoved(node, pos) {
			continue
		}

		a.tracker.UpdatePosition(node, pos)

		err := a.writer.WriteNode(node, pos, a.registry.Description(node))
		if err != nil {
			a.failSession(err)
			return
		}
	}
}

// purgeHandler drives the recurring pending-table purge.
type purgeHandler struct {
	animator *Animator
}

func (h *purgeHandler) Handle(e sim.Event) error {
	a := h.animator

	if a.purgePoller.IsCancelled() {
		return nil
	}

	for _, table := range a.tables {
		removed := table.Purge(a.purgeMaxAge)
		if removed > 0 {
			a.logger.Printf("purged %d stale %s records",
				removed, table.Category())
		}
	}

	a.purgeRxState()

	a.purgePoller.ScheduleNext()

	return nil
}

// purgeRxState drops receive-side bookkeeping whose transmit is no longer
// pending. Receivers that filter a frame without accepting or dropping it,
// e.g. every non-addressed receiver of a broadcast, would otherwise leave
// their entries behind for the session lifetime.
func (a *Animator) purgeRxState() {
	for key := range a.rxBeginTimes {
		if !a.tables[key.category].IsPending(key.token) {
			delete(a.rxBeginTimes, key)
		}
	}

	for key := range a.rxReady {
		if !a.tables[key.category].IsPending(key.token) {
			delete(a.rxReady, key)
		}
	}
}

func defaultLogger() *log.Logger {
	return log.New(os.Stderr, "anim ", log.LstdFlags)
}

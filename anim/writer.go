package anim

import (
	"fmt"
	"io"
	"math"
	"net"
	"os"
	"strconv"

	"github.com/sarchlab/animtrace/sim"
	"github.com/tebeka/atexit"
)

// MaxRecordsPerTraceFile is the default number of packet records per trace
// file before rotation.
const MaxRecordsPerTraceFile = 100000

// A WriteObserver receives every rendered trace record verbatim, before the
// record is written to the destination. Observers allow external
// consumption of the trace without touching the file system.
type WriteObserver interface {
	Observe(record string)
}

// A RotationHandler is notified right after a rotation opened a new trace
// file and wrote its preamble, so the session owner can re-emit the
// topology snapshot and keep every file self-contained.
type RotationHandler interface {
	HandleNewFile() error
}

// A Writer renders correlated trace records into a structured output stream
// and manages the output destination, the capture time window, and trace
// file rotation.
type Writer struct {
	renderer recordRenderer

	baseName     string
	port         int
	usingSockets bool

	dest     io.WriteCloser
	listener net.Listener
	opened   bool

	observers       []WriteObserver
	rotationHandler RotationHandler

	maxRecordsPerFile uint64
	recordCount       uint64
	fileIndex         int
	linkPathCount     int

	startTime sim.VTimeInSec
	stopTime  sim.VTimeInSec
}

// NewWriter creates a Writer rendering in XML mode if xml is true, in the
// dense plain-text mode otherwise. The capture window is unbounded and the
// per-file record limit is MaxRecordsPerTraceFile.
func NewWriter(xml bool) *Writer {
	w := &Writer{
		maxRecordsPerFile: MaxRecordsPerTraceFile,
		linkPathCount:     1,
		stopTime:          sim.VTimeInSec(math.MaxFloat64),
	}

	if xml {
		w.renderer = xmlRenderer{}
	} else {
		w.renderer = plainRenderer{}
	}

	atexit.Register(func() {
		if w.opened {
			_ = w.dest.Close()
			w.opened = false
		}
	})

	return w
}

// SetDestinationFile directs the output to the file at path. Rotation
// produces path-1, path-2, and so on.
func (w *Writer) SetDestinationFile(path string) {
	w.baseName = path
	w.usingSockets = false
}

// SetDestinationPort directs the output to a TCP socket. Open blocks until
// the external consumer connects. Socket sessions do not rotate.
func (w *Writer) SetDestinationPort(port int) {
	w.port = port
	w.usingSockets = true
}

// AddObserver registers an observer for every rendered record.
func (w *Writer) AddObserver(o WriteObserver) {
	w.observers = append(w.observers, o)
}

// SetRotationHandler registers the handler called after each rotation.
func (w *Writer) SetRotationHandler(h RotationHandler) {
	w.rotationHandler = h
}

// SetMaxRecordsPerFile sets the packet-record count at which the current
// trace file is rotated.
func (w *Writer) SetMaxRecordsPerFile(n uint64) {
	w.maxRecordsPerFile = n
}

// SetTimeWindow restricts capture to the inclusive simulated-time interval
// [start, stop].
func (w *Writer) SetTimeWindow(start, stop sim.VTimeInSec) {
	w.startTime = start
	w.stopTime = stop
}

// IsInTimeWindow reports whether a record at the given simulated time is
// inside the capture window. Both boundaries are inclusive.
func (w *Writer) IsInTimeWindow(now sim.VTimeInSec) bool {
	return now >= w.startTime && now <= w.stopTime
}

// TracePacketCount returns the number of packet records written to the
// current trace file.
func (w *Writer) TracePacketCount() uint64 {
	return w.recordCount
}

// Open establishes the output destination. With no destination configured
// the writer runs observer-only, which requires at least one observer.
func (w *Writer) Open() error {
	if w.opened {
		return nil
	}

	w.fileIndex = 0
	w.recordCount = 0

	switch {
	case w.usingSockets:
		return w.openSocket()
	case w.baseName != "":
		return w.openFile(w.baseName)
	case len(w.observers) > 0:
		return nil
	default:
		return fmt.Errorf("%w: no destination and no observer",
			ErrDestinationUnavailable)
	}
}

func (w *Writer) openFile(name string) error {
	file, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDestinationUnavailable, name, err)
	}

	w.dest = file
	w.opened = true

	return nil
}

func (w *Writer) openSocket() error {
	listener, err := net.Listen("tcp",
		net.JoinHostPort("", strconv.Itoa(w.port)))
	if err != nil {
		return fmt.Errorf("%w: port %d: %v",
			ErrDestinationUnavailable, w.port, err)
	}

	w.listener = listener

	conn, err := listener.Accept()
	if err != nil {
		_ = listener.Close()
		return fmt.Errorf("%w: accept on port %d: %v",
			ErrDestinationUnavailable, w.port, err)
	}

	w.dest = conn
	w.opened = true

	return nil
}

// WritePreamble writes the format preamble and the root record carrying the
// link-path-count metadata.
func (w *Writer) WritePreamble() error {
	if err := w.writeRecord(w.renderer.Preamble()); err != nil {
		return err
	}
	return w.writeRecord(w.renderer.AnimOpen(w.linkPathCount))
}

// WriteTopologyOpen writes the topology record with the given bounds.
func (w *Writer) WriteTopologyOpen(b Bounds) error {
	return w.writeRecord(w.renderer.TopologyOpen(b))
}

// WriteTopologyClose closes the topology record.
func (w *Writer) WriteTopologyClose() error {
	return w.writeRecord(w.renderer.TopologyClose())
}

// WriteNode writes one node record. The same record kind announces a node
// and reports a position update.
func (w *Writer) WriteNode(id NodeID, pos Vector, description string) error {
	return w.writeRecord(w.renderer.Node(id, pos, description))
}

// WriteLink writes one link record for a point-to-point connection.
func (w *Writer) WriteLink(from, to NodeID) error {
	return w.writeRecord(w.renderer.Link(from, to))
}

// WritePacket writes one correlated tx/rx packet record, with an optional
// metadata sub-record. Wireless categories render as wpacket records
// carrying the transmission range. Reaching the per-file record limit
// rotates the trace file before the record is written.
func (w *Writer) WritePacket(
	category Category,
	rec PendingRecord,
	rx RxRecord,
	metadata string,
) error {
	if err := w.rotateIfNeeded(); err != nil {
		return err
	}

	wireless := category.IsWireless()

	var open string
	if wireless {
		open = w.renderer.WPacketOpen(rec)
	} else {
		open = w.renderer.PacketOpen(rec)
	}

	if err := w.writeRecord(open); err != nil {
		return err
	}

	if err := w.writeRecord(w.renderer.Rx(rx)); err != nil {
		return err
	}

	if metadata != "" {
		if err := w.writeRecord(w.renderer.Meta(metadata)); err != nil {
			return err
		}
	}

	if err := w.writeRecord(w.renderer.PacketClose(wireless)); err != nil {
		return err
	}

	w.recordCount++

	return nil
}

// WriteMetadata writes one free-form metadata record.
func (w *Writer) WriteMetadata(info string) error {
	return w.writeRecord(w.renderer.Meta(info))
}

func (w *Writer) rotateIfNeeded() error {
	if w.usingSockets || w.baseName == "" {
		return nil
	}

	if w.recordCount < w.maxRecordsPerFile {
		return nil
	}

	if err := w.writeRecord(w.renderer.AnimClose()); err != nil {
		return err
	}

	if err := w.dest.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrRotationIOFailure, err)
	}
	w.opened = false

	w.fileIndex++
	name := fmt.Sprintf("%s-%d", w.baseName, w.fileIndex)

	if err := w.openFile(name); err != nil {
		return fmt.Errorf("%w: %s", ErrRotationIOFailure, name)
	}

	w.recordCount = 0

	if err := w.WritePreamble(); err != nil {
		return err
	}

	if w.rotationHandler != nil {
		return w.rotationHandler.HandleNewFile()
	}

	return nil
}

// Close writes the closing markers and releases the destination. The
// destination is released even when the closing marker cannot be written.
func (w *Writer) Close() error {
	markerErr := w.writeRecord(w.renderer.AnimClose())

	if w.listener != nil {
		_ = w.listener.Close()
		w.listener = nil
	}

	if !w.opened {
		return markerErr
	}

	w.opened = false

	if err := w.dest.Close(); err != nil {
		return err
	}

	return markerErr
}

func (w *Writer) writeRecord(record string) error {
	if record == "" {
		return nil
	}

	for _, o := range w.observers {
		o.Observe(record)
	}

	if !w.opened {
		return nil
	}

	_, err := io.WriteString(w.dest, record)
	if err != nil {
		return fmt.Errorf("%w: write: %v", ErrDestinationUnavailable, err)
	}

	return nil
}

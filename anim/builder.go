package anim

import (
	"log"

	"github.com/sarchlab/animtrace/sim"
)

// Default cadences and ranges of a capture session.
const (
	DefaultMobilityPollInterval = sim.VTimeInSec(0.25)
	DefaultPurgeInterval        = sim.VTimeInSec(0.5)
	DefaultPurgeMaxAge          = sim.VTimeInSec(5.0)
	DefaultWirelessRange        = 250.0
)

// Builder can be used to build an Animator.
type Builder struct {
	engine   sim.Engine
	registry *NodeRegistry
	logger   *log.Logger
	recorder *PacketRecorder

	outputFile string
	listenPort int
	xml        bool

	maxRecordsPerFile uint64
	windowSet         bool
	startTime         sim.VTimeInSec
	stopTime          sim.VTimeInSec

	mobilityPollInterval sim.VTimeInSec
	purgeInterval        sim.VTimeInSec
	purgeMaxAge          sim.VTimeInSec

	randomFallback  bool
	movementEpsilon float64
	showAllFrames   bool
	enableMetadata  bool
	wirelessRange   float64

	observers []WriteObserver
}

// MakeBuilder creates a Builder with the default configuration: XML
// output, unbounded capture window, 100000 packet records per file, 0.25s
// mobility polling, 0.5s purge cadence with a 5s maximum pending age,
// random position fallback off, accepted-only frames, metadata capture
// off.
func MakeBuilder() Builder {
	return Builder{
		xml:                  true,
		mobilityPollInterval: DefaultMobilityPollInterval,
		purgeInterval:        DefaultPurgeInterval,
		purgeMaxAge:          DefaultPurgeMaxAge,
		wirelessRange:        DefaultWirelessRange,
		maxRecordsPerFile:    MaxRecordsPerTraceFile,
	}
}

// WithEngine sets the event engine driving the session.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithRegistry sets a pre-populated node registry.
func (b Builder) WithRegistry(registry *NodeRegistry) Builder {
	b.registry = registry
	return b
}

// WithLogger sets the logger for recoverable trace anomalies.
func (b Builder) WithLogger(logger *log.Logger) Builder {
	b.logger = logger
	return b
}

// WithOutputFile directs the trace to the file at path.
func (b Builder) WithOutputFile(path string) Builder {
	b.outputFile = path
	return b
}

// WithListenPort directs the trace to a TCP socket on the given port.
func (b Builder) WithListenPort(port int) Builder {
	b.listenPort = port
	return b
}

// WithPlainOutput selects the dense plain-text rendering instead of XML.
func (b Builder) WithPlainOutput() Builder {
	b.xml = false
	return b
}

// WithMaxRecordsPerFile sets the packet-record count per trace file.
func (b Builder) WithMaxRecordsPerFile(n uint64) Builder {
	b.maxRecordsPerFile = n
	return b
}

// WithTimeWindow restricts capture to [start, stop], inclusive.
func (b Builder) WithTimeWindow(start, stop sim.VTimeInSec) Builder {
	b.windowSet = true
	b.startTime = start
	b.stopTime = stop
	return b
}

// WithMobilityPollInterval sets the mobility polling cadence.
func (b Builder) WithMobilityPollInterval(t sim.VTimeInSec) Builder {
	b.mobilityPollInterval = t
	return b
}

// WithPurgeInterval sets the pending-table purge cadence.
func (b Builder) WithPurgeInterval(t sim.VTimeInSec) Builder {
	b.purgeInterval = t
	return b
}

// WithPurgeMaxAge sets the age beyond which pending records are purged.
func (b Builder) WithPurgeMaxAge(t sim.VTimeInSec) Builder {
	b.purgeMaxAge = t
	return b
}

// WithRandomPositionFallback lets the tracker synthesize positions for
// nodes without a mobility source.
func (b Builder) WithRandomPositionFallback() Builder {
	b.randomFallback = true
	return b
}

// WithMovementEpsilon sets the distance below which a position change is
// not treated as movement.
func (b Builder) WithMovementEpsilon(epsilon float64) Builder {
	b.movementEpsilon = epsilon
	return b
}

// WithAllLinkLayerFrames records all link-layer frames instead of only the
// frames accepted by the link layer.
func (b Builder) WithAllLinkLayerFrames() Builder {
	b.showAllFrames = true
	return b
}

// WithPacketMetadata enables per-packet metadata records. Metadata capture
// is costly and off by default.
func (b Builder) WithPacketMetadata() Builder {
	b.enableMetadata = true
	return b
}

// WithWirelessRange sets the transmission range stamped on wireless packet
// records.
func (b Builder) WithWirelessRange(r float64) Builder {
	b.wirelessRange = r
	return b
}

// WithWriteObserver registers an observer for every rendered record.
func (b Builder) WithWriteObserver(o WriteObserver) Builder {
	b.observers = append(b.observers, o)
	return b
}

// WithPacketRecorder attaches a database sink for correlated packet
// records.
func (b Builder) WithPacketRecorder(r *PacketRecorder) Builder {
	b.recorder = r
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.engine == nil {
		panic("animator requires an engine")
	}

	if b.outputFile != "" && b.listenPort != 0 {
		panic("output file and listen port are mutually exclusive")
	}
}

// Build builds the Animator.
func (b Builder) Build() *Animator {
	b.parametersMustBeValid()

	registry := b.registry
	if registry == nil {
		registry = NewNodeRegistry()
	}

	logger := b.logger
	if logger == nil {
		logger = defaultLogger()
	}

	writer := NewWriter(b.xml)
	if b.outputFile != "" {
		writer.SetDestinationFile(b.outputFile)
	}
	if b.listenPort != 0 {
		writer.SetDestinationPort(b.listenPort)
	}
	writer.SetMaxRecordsPerFile(b.maxRecordsPerFile)
	if b.windowSet {
		writer.SetTimeWindow(b.startTime, b.stopTime)
	}
	for _, o := range b.observers {
		writer.AddObserver(o)
	}

	tracker := NewPositionTracker()
	tracker.SetRandomFallback(b.randomFallback)
	tracker.SetMovementEpsilon(b.movementEpsilon)

	a := &Animator{
		engine:   b.engine,
		registry: registry,
		tracker:  tracker,
		tagger:   NewTagger(),
		writer:   writer,
		tables:   make(map[Category]*PendingTable),
		recorder: b.recorder,
		logger:   logger,

		purgeMaxAge: b.purgeMaxAge,

		showAllFrames:  b.showAllFrames,
		enableMetadata: b.enableMetadata,
		wirelessRange:  b.wirelessRange,

		rxBeginTimes: make(map[rxKey]sim.VTimeInSec),
		rxReady:      make(map[rxKey]RxRecord),
	}

	for _, category := range Categories() {
		a.tables[category] = NewPendingTable(category, b.engine)
	}

	writer.SetRotationHandler(a)

	a.mobilityPoller = sim.NewIntervalScheduler(
		&mobilityPollHandler{animator: a}, b.engine, b.mobilityPollInterval)
	a.purgePoller = sim.NewIntervalScheduler(
		&purgeHandler{animator: a}, b.engine, b.purgeInterval)

	return a
}

package simulation

import (
	"github.com/rs/xid"

	"github.com/sarchlab/animtrace/anim"
	"github.com/sarchlab/animtrace/datarecording"
	"github.com/sarchlab/animtrace/monitoring"
	"github.com/sarchlab/animtrace/sim"
)

// Builder can be used to build a simulation.
type Builder struct {
	animBuilder anim.Builder

	dataRecordingOn bool
	recorderPath    string

	monitorOn   bool
	monitorPort int
}

// MakeBuilder creates a new builder with monitoring on and data recording
// off.
func MakeBuilder() Builder {
	return Builder{
		animBuilder: anim.MakeBuilder(),
		monitorOn:   true,
	}
}

// WithAnimBuilder sets a pre-configured animation builder. Its engine is
// overridden by the engine the simulation creates.
func (b Builder) WithAnimBuilder(ab anim.Builder) Builder {
	b.animBuilder = ab
	return b
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithDataRecording attaches a SQLite packet recorder writing to path.
func (b Builder) WithDataRecording(path string) Builder {
	b.dataRecordingOn = true
	b.recorderPath = path
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{}
	s.id = xid.New().String()

	s.engine = sim.NewSerialEngine()

	animBuilder := b.animBuilder.WithEngine(s.engine)

	if b.dataRecordingOn {
		path := b.recorderPath
		if path == "" {
			path = "animtrace_" + s.id
		}
		s.dataRecorder = datarecording.New(path)

		recorder := anim.NewPacketRecorder(s.dataRecorder)
		animBuilder = animBuilder.WithPacketRecorder(recorder)
	}

	s.animator = animBuilder.Build()

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		s.monitor.RegisterEngine(s.engine)
		s.monitor.RegisterAnimator(s.animator)
		s.monitor.StartServer()
	}

	return s
}

// Package simulation wires an engine, an animation session, a data
// recorder, and a monitor together into one runnable unit.
package simulation

import (
	"github.com/sarchlab/animtrace/anim"
	"github.com/sarchlab/animtrace/datarecording"
	"github.com/sarchlab/animtrace/monitoring"
	"github.com/sarchlab/animtrace/sim"
)

// A Simulation provides the services required to run an animated network
// simulation.
type Simulation struct {
	id string

	engine       sim.Engine
	animator     *anim.Animator
	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor
}

// ID returns the unique identity of the simulation run.
func (s *Simulation) ID() string {
	return s.id
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() sim.Engine {
	return s.engine
}

// GetAnimator returns the animation session of the simulation.
func (s *Simulation) GetAnimator() *anim.Animator {
	return s.animator
}

// GetDataRecorder returns the data recorder used in the simulation, or nil
// if data recording is disabled.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor used in the simulation, or nil if
// monitoring is disabled.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// Terminate stops the capture session if it is still running and closes
// the data recorder.
func (s *Simulation) Terminate() {
	if s.animator.IsStarted() {
		_ = s.animator.StopAnimation()
	}

	if s.dataRecorder != nil {
		s.dataRecorder.Close()
	}
}

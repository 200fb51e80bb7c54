package main

import (
	"fmt"
	"os"

	"github.com/rs/xid"
	"github.com/spf13/cobra"

	"github.com/sarchlab/animtrace/anim"
	"github.com/sarchlab/animtrace/sim"
	"github.com/sarchlab/animtrace/simulation"
)

var (
	demoOutput     string
	demoPlain      bool
	demoStart      float64
	demoStop       float64
	demoMaxRecords uint64
	demoMonitor    bool
	demoRecordDB   string
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a canned two-node scenario and write its trace.",
	Run: func(cmd *cobra.Command, args []string) {
		runDemo()
	},
}

func init() {
	demoCmd.Flags().StringVarP(&demoOutput, "output", "o",
		defaultOutput(), "trace output file")
	demoCmd.Flags().BoolVar(&demoPlain, "plain", false,
		"write the dense plain-text format instead of XML")
	demoCmd.Flags().Float64Var(&demoStart, "start", 0,
		"capture window start in simulated seconds")
	demoCmd.Flags().Float64Var(&demoStop, "stop", 0,
		"capture window stop in simulated seconds (0 = unbounded)")
	demoCmd.Flags().Uint64Var(&demoMaxRecords, "max-records",
		anim.MaxRecordsPerTraceFile, "packet records per trace file")
	demoCmd.Flags().BoolVar(&demoMonitor, "monitor", false,
		"serve the monitoring API while the demo runs")
	demoCmd.Flags().StringVar(&demoRecordDB, "record-db", "",
		"also record packets into a SQLite database at this path")

	rootCmd.AddCommand(demoCmd)
}

func defaultOutput() string {
	if path := os.Getenv("ANIMTRACE_OUTPUT"); path != "" {
		return path
	}
	return "animation.xml"
}

// demoPacket is a minimal packet carrying a stable instance identity.
type demoPacket struct {
	uid  string
	size uint32
}

func (p demoPacket) UID() string {
	return p.uid
}

func (p demoPacket) ByteCount() uint32 {
	return p.size
}

func newDemoPacket(size uint32) demoPacket {
	return demoPacket{uid: xid.New().String(), size: size}
}

// constantPosition is a mobility source that never moves.
type constantPosition struct {
	pos anim.Vector
}

func (c constantPosition) Position() anim.Vector {
	return c.pos
}

// actionEvent runs a closure at its simulated time.
type actionEvent struct {
	*sim.EventBase
	act func()
}

type actionRunner struct{}

func (actionRunner) Handle(e sim.Event) error {
	e.(*actionEvent).act()
	return nil
}

func runDemo() {
	registry := anim.NewNodeRegistry()
	registry.SetDescription(0, "alice")
	registry.SetDescription(1, "bob")
	registry.SetMobilityProvider(0,
		constantPosition{pos: anim.Vector{X: 10, Y: 20}})
	registry.SetMobilityProvider(1,
		constantPosition{pos: anim.Vector{X: 60, Y: 20}})
	registry.AddLink(0, 1)

	animBuilder := anim.MakeBuilder().
		WithRegistry(registry).
		WithOutputFile(demoOutput).
		WithMaxRecordsPerFile(demoMaxRecords)
	if demoPlain {
		animBuilder = animBuilder.WithPlainOutput()
	}
	if demoStop > 0 {
		animBuilder = animBuilder.WithTimeWindow(
			sim.VTimeInSec(demoStart), sim.VTimeInSec(demoStop))
	}

	builder := simulation.MakeBuilder().WithAnimBuilder(animBuilder)
	if demoMonitor {
		builder = builder.WithMonitorPort(8080)
	} else {
		builder = builder.WithoutMonitoring()
	}
	if demoRecordDB != "" {
		builder = builder.WithDataRecording(demoRecordDB)
	}

	s := builder.Build()
	defer s.Terminate()

	engine := s.GetEngine()
	animator := s.GetAnimator()

	if err := animator.StartAnimation(false); err != nil {
		fmt.Fprintf(os.Stderr, "cannot start animation: %v\n", err)
		os.Exit(1)
	}

	scheduleDemoTraffic(engine, animator)

	if err := engine.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "simulation failed: %v\n", err)
		os.Exit(1)
	}

	engine.Finished()

	stats := animator.Stats()
	fmt.Printf("wrote %d packet records to %s\n",
		stats.PacketsWritten, demoOutput)
}

// scheduleDemoTraffic scripts a wifi exchange and a point-to-point
// transfer between the two demo nodes.
func scheduleDemoTraffic(engine sim.Engine, a *anim.Animator) {
	runner := actionRunner{}

	at := func(t sim.VTimeInSec, act func()) {
		engine.Schedule(&actionEvent{
			EventBase: sim.NewEventBase(t, runner),
			act:       act,
		})
	}

	wifiPkt := newDemoPacket(1500)
	txCtx := "/NodeList/0/DeviceList/0/Phy"
	rxCtx := "/NodeList/1/DeviceList/0/Phy"

	at(1.0, func() { a.TxBegin(anim.CategoryWifi, txCtx, wifiPkt) })
	at(1.0001, func() { a.TxEnd(anim.CategoryWifi, txCtx, wifiPkt) })
	at(1.002, func() { a.RxBegin(anim.CategoryWifi, rxCtx, wifiPkt) })
	at(1.0021, func() { a.RxEnd(anim.CategoryWifi, rxCtx, wifiPkt) })
	at(1.0022, func() { a.RxAccepted(anim.CategoryWifi, rxCtx, wifiPkt) })

	p2pPkt := newDemoPacket(512)
	at(2.0, func() {
		a.DeviceTx(txCtx, rxCtx, p2pPkt, 2.0, 2.004)
	})

	// Stopping the session cancels the mobility and purge pollers, so the
	// engine runs out of events and Run returns.
	at(3.0, func() {
		if err := a.StopAnimation(); err != nil {
			fmt.Fprintf(os.Stderr, "cannot stop animation: %v\n", err)
		}
	})
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kh4i-dev/sortx"
	"github.com/kh4i-dev/sortx/gpio"
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Replay a YAML scenario through the engine",
	Long: `run wires the engine to a simulated GPIO backend and a scripted
camera, then replays the scenario's timeline: QR payloads and
classifier detections appear in front of the camera, lane and entry
sensors pulse at their configured offsets, and every event the engine
emits is printed as it happens.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScenario(cmd, args[0])
	},
}

// printingSink writes every engine event to the command's stdout.
type printingSink struct {
	cmd   *cobra.Command
	start time.Time
}

func (s *printingSink) Emit(kind sortx.EventKind, message string, payload any) {
	elapsed := time.Since(s.start).Round(time.Millisecond)
	if payload == nil {
		s.cmd.Printf("%8s  %-10s  %s\n", elapsed, kind, message)
		return
	}
	detail, err := json.Marshal(payload)
	if err != nil {
		detail = []byte(fmt.Sprintf("%v", payload))
	}
	s.cmd.Printf("%8s  %-10s  %s  %s\n", elapsed, kind, message, detail)
}

func runScenario(cmd *cobra.Command, path string) error {
	sc, err := loadScenario(path)
	if err != nil {
		return err
	}
	params, err := sc.params()
	if err != nil {
		return err
	}

	sim := gpio.NewSim()
	frames := sortx.NewScriptedFrameSource()
	sink := &printingSink{cmd: cmd, start: time.Now()}
	counter := sortx.NewMemoryDayCounter()

	engine, err := sortx.New(params, &sortx.Options{
		GPIO:    sim,
		Frames:  frames,
		Sink:    sink,
		Counter: counter,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sink.start = time.Now()
	if err := engine.Start(ctx); err != nil {
		return err
	}

	start := time.Now()
	for i := range sc.Events {
		ev := &sc.Events[i]
		if wait := mustDuration(ev.At) - time.Since(start); wait > 0 {
			time.Sleep(wait)
		}
		applyEvent(ev, sc, sim, frames)
	}

	drain := time.Second
	if sc.Drain != "" {
		drain = mustDuration(sc.Drain)
	}
	time.Sleep(drain)

	printSummary(cmd, engine)
	return engine.Stop()
}

func applyEvent(ev *scenarioEvent, sc *scenario, sim *gpio.Sim, frames *sortx.ScriptedFrameSource) {
	switch {
	case ev.QR != "":
		frames.SetFrame(brightFrame(ev.QR))
	case ev.Detections != "":
		frames.SetFrame(brightFrame(ev.Detections))
	case ev.Sensor != nil:
		pulse(sim, *ev.Sensor, ev.hold())
	case ev.Entry && sc.EntrySensorPin != nil:
		pulse(sim, *sc.EntrySensorPin, ev.hold())
	}
}

func pulse(sim *gpio.Sim, pin int, hold time.Duration) {
	sim.SetInput(pin, gpio.High)
	time.Sleep(hold)
	sim.SetInput(pin, gpio.Low)
}

// brightFrame carries payload on a frame bright enough to pass the
// recognizer's luminance gate.
func brightFrame(payload string) sortx.Frame {
	gray := make([]byte, 64)
	for i := range gray {
		gray[i] = 200
	}
	return sortx.Frame{Width: 8, Height: 8, Gray: gray, Raw: []byte(payload)}
}

func printSummary(cmd *cobra.Command, engine *sortx.Engine) {
	snap := engine.Snapshot()
	metrics := engine.MetricsSnapshot()

	cmd.Println()
	cmd.Println("final state:")
	for _, l := range snap.Lanes {
		cmd.Printf("  lane %-4s %-12s count=%d push=%s pull=%s\n",
			l.ID, l.Status, l.Count, l.PushState, l.PullState)
	}
	cmd.Printf("  queue=%v pre_queue=%v maintenance=%v\n",
		snap.QueueIndices, snap.PreQueueIndices, snap.Maintenance)
	cmd.Printf("  jobs=%d cycles=%d evictions=%d out_of_order=%d reject_rate=%.1f%%\n",
		metrics.TotalJobs, metrics.TotalCycles, metrics.HeadEvictions, metrics.OutOfOrder, metrics.RejectRate)
}

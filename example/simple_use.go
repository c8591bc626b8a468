package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/leandrodaf/midisync/internal/logger"
	"github.com/leandrodaf/midisync/sdk/contracts"
	"github.com/leandrodaf/midisync/sdk/midisync"
)

// demoPlayer is a stand-in for a real tracker playback engine. It just logs
// the commands a remote instance would trigger.
type demoPlayer struct {
	log contracts.Logger
}

func (p *demoPlayer) Play() { p.log.Info("play") }
func (p *demoPlayer) Stop() { p.log.Info("stop") }
func (p *demoPlayer) Pause() { p.log.Info("pause") }
func (p *demoPlayer) Retrigger() { p.log.Info("retrigger") }

func (p *demoPlayer) LoadFile(name string) error {
	p.log.Info("load file", p.log.Field().String("name", name))
	return nil
}

func (p *demoPlayer) JumpOrder(order, row int, queued bool) {
	p.log.Info("jump order",
		p.log.Field().Int("order", order),
		p.log.Field().Int("row", row),
		p.log.Field().Bool("queued", queued))
}

func (p *demoPlayer) JumpPattern(pattern, row int, queued bool) {
	p.log.Info("jump pattern",
		p.log.Field().Int("pattern", pattern),
		p.log.Field().Int("row", row),
		p.log.Field().Bool("queued", queued))
}

func (p *demoPlayer) SetLoopRange(so, sr, eo, er int) { p.log.Info("set loop range") }
func (p *demoPlayer) LoopCurrent() { p.log.Info("loop current") }
func (p *demoPlayer) LoopOrder() { p.log.Info("loop order") }
func (p *demoPlayer) LoopPattern() { p.log.Info("loop pattern") }
func (p *demoPlayer) SetTempo(bpm float64) { p.log.Info("set tempo", p.log.Field().Float64("bpm", bpm)) }
func (p *demoPlayer) SetTempoFactor(ratio float64) { p.log.Info("set tempo factor", p.log.Field().Float64("ratio", ratio)) }
func (p *demoPlayer) Mute(channel int, on bool) { p.log.Info("mute", p.log.Field().Int("channel", channel)) }
func (p *demoPlayer) Solo(channel int, on bool) { p.log.Info("solo", p.log.Field().Int("channel", channel)) }
func (p *demoPlayer) SetChannelVolume(channel, volume int) { p.log.Info("channel volume") }
func (p *demoPlayer) TriggerPhrase(index int) { p.log.Info("trigger phrase") }
func (p *demoPlayer) TriggerLoop(index int) { p.log.Info("trigger loop") }
func (p *demoPlayer) TriggerPad(index int) { p.log.Info("trigger pad") }

func (p *demoPlayer) State() contracts.PlayerState {
	return contracts.PlayerState{Playing: true, Order: 2, Row: 16, TotalRows: 64, NumChannels: 8}
}

func main() {
	log := logger.NewZapLogger()

	s, err := midisync.NewSynchronizer(&demoPlayer{log: log},
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
		contracts.WithClientName("midisync-demo"),
		contracts.WithDeviceID(0),
		contracts.WithSPPMode(contracts.SPPDuringPlayback, 16),
	)
	if err != nil {
		log.Error("failed to create synchronizer", log.Field().Error("error", err))
		return
	}
	defer s.Close()

	outputs, err := s.Outputs()
	if err != nil || len(outputs) == 0 {
		log.Error("no MIDI outputs found", log.Field().Error("error", err))
		return
	}
	fmt.Println("Available MIDI outputs:", outputs)

	if err := s.OpenOutput(0); err != nil {
		log.Error("failed to open MIDI output", log.Field().Error("error", err))
		return
	}
	if inputs, err := s.Inputs(); err == nil && len(inputs) > 0 {
		if err := s.OpenInput(0); err != nil {
			log.Warn("failed to open MIDI input", log.Field().Error("error", err))
		}
	}

	// Drive the transport the way a playback engine would.
	s.ReportTempo(125)
	s.Start()
	s.ReportPosition(contracts.Position{Order: 0, Row: 0, TotalRows: 64})

	fmt.Println("Emitting MIDI clock... Press Ctrl+C to exit.")
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig

	s.Stop()
}

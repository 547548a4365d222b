package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kaiku-audio/kaiku/audio"
	"github.com/kaiku-audio/kaiku/studio"
	"github.com/kaiku-audio/kaiku/version"
)

var config struct {
	midiInput  string
	oscHost    string
	oscPort    int
	remotePort int
	noAudio    bool
	play       bool
}

var rootCmd = &cobra.Command{
	Use:     "kaiku [song file]",
	Short:   "A headless DAW engine",
	Long:    "Kaiku runs the song model, undo history and transport of a digital audio workstation without a UI, for testing frontends and driving remote gear over OSC and MIDI.",
	Version: version.VersionOrHash,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runKaiku,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&config.midiInput, "midi-input", "",
		"connect MIDI input to matching device name prefix")
	rootCmd.PersistentFlags().StringVar(&config.oscHost, "osc-host", "127.0.0.1",
		"host to send OSC transport sync to")
	rootCmd.PersistentFlags().IntVar(&config.oscPort, "osc-port", 0,
		"port to send OSC transport sync to (0 disables)")
	rootCmd.PersistentFlags().IntVar(&config.remotePort, "remote-port", 0,
		"port to listen for OSC transport commands on (0 disables)")
	rootCmd.PersistentFlags().BoolVar(&config.noAudio, "no-audio", false,
		"run the transport on a wall-clock ticker instead of the audio device")
	rootCmd.PersistentFlags().BoolVar(&config.play, "play", false,
		"start playback immediately")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runKaiku(cmd *cobra.Command, args []string) error {
	recoveryFile := ""
	if configDir, err := os.UserConfigDir(); err == nil {
		recoveryFile = filepath.Join(configDir, "kaiku", "kaiku-recovery")
	}
	broker := studio.NewBroker()
	model := studio.NewModel(broker, recoveryFile)

	if len(args) > 0 {
		if err := model.LoadSongFile(args[0]); err != nil {
			return fmt.Errorf("cannot open song: %w", err)
		}
	}

	midiContext := newMidiContext(broker)
	defer midiContext.Close()
	if config.midiInput != "" {
		if input, ok := studio.FindMIDIDeviceByPrefix(midiContext, config.midiInput); ok {
			if err := input.Open(); err != nil {
				log.Printf("failed to open MIDI input '%s': %v", input, err)
			}
		} else {
			log.Printf("no MIDI input device found with prefix '%s'", config.midiInput)
		}
	}

	transport := studio.NewTransport(broker, model.Song())
	if config.oscPort > 0 {
		transport.SetSync(studio.NewTransportSync(config.oscHost, config.oscPort))
	}
	if config.remotePort > 0 {
		remote := studio.NewRemoteServer(config.remotePort, broker)
		defer remote.Close()
	}

	var closeAudio func()
	if config.noAudio {
		go transport.Run()
		closeAudio = func() {
			broker.CloseTransport <- struct{}{}
			<-broker.FinishedTransport
		}
	} else {
		audioContext, err := audio.NewContext()
		if err != nil {
			return fmt.Errorf("cannot open audio: %w", err)
		}
		sequencer := studio.NewSequencer(transport, nil, audio.SampleRate)
		player := audioContext.Play(sequencer)
		closeAudio = func() {
			player.Close()
			audioContext.Close()
		}
	}

	if config.play {
		model.Play()
	}

	sigs := make(chan struct{}, 1)
	onSignal(sigs)

	recoveryTicker := time.NewTicker(30 * time.Second)
	defer recoveryTicker.Stop()
	frame := time.NewTicker(50 * time.Millisecond)
	defer frame.Stop()
loop:
	for {
		select {
		case <-sigs:
			break loop
		case <-recoveryTicker.C:
			if err := model.SaveRecovery(); err != nil {
				log.Printf("recovery save failed: %v", err)
			}
		case <-frame.C:
			model.ProcessMessages()
			for alert, ok := model.Alerts().Pop(); ok; alert, ok = model.Alerts().Pop() {
				log.Printf("%s", alert.Message)
			}
		}
	}

	closeAudio()
	model.MarshalRecovery()
	return nil
}

func onSignal(done chan<- struct{}) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		done <- struct{}{}
	}()
}

package main

import (
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/loopcore/stompbox/looper"
	"github.com/loopcore/stompbox/looper/iohw/audiooto"
	"github.com/loopcore/stompbox/looper/iohw/fixture"
	"github.com/loopcore/stompbox/looper/iohw/termhw"
)

func main() {
	app := cli.NewApp()
	app.Name = "stompbox"
	app.Description = "A live-performance audio looper pedal"
	app.Usage = "stompbox [command] [options]"
	app.Version = "1.0.0"
	app.Commands = []cli.Command{
		{
			Name:  "run",
			Usage: "run the looper against the terminal demo control surface and speaker output",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "sample-rate", Value: 44_100, Usage: "audio sample rate in Hz"},
				cli.IntFlag{Name: "block-size", Value: 128, Usage: "audio block size in frames"},
				cli.IntFlag{Name: "max-samples-per-beat", Value: 4 * 44_100, Usage: "slowest tempo, in samples per beat, that STUTTER's one-bar (4-beat) capture buffer is sized for"},
				cli.IntFlag{Name: "quant", Value: 16, Usage: "musical-grid denominator (32/16/8/4) the quantization selector starts at"},
				cli.Float64Flag{Name: "fade-ms", Value: 3, Usage: "CHOKE's crossfade length in milliseconds"},
				cli.Float64Flag{Name: "freeze-ms", Value: 3, Usage: "FREEZE's capture buffer length in milliseconds"},
				cli.IntFlag{Name: "lookahead", Value: 128, Usage: "quantized-onset lookahead in samples"},
			},
			Action: runLive,
		},
		{
			Name:  "bench",
			Usage: "drive the core headlessly for a fixed number of blocks, optionally replaying a recorded clock/command fixture, with no control surface",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "sample-rate", Value: 44_100, Usage: "audio sample rate in Hz"},
				cli.IntFlag{Name: "block-size", Value: 128, Usage: "audio block size in frames"},
				cli.IntFlag{Name: "max-samples-per-beat", Value: 4 * 44_100, Usage: "slowest tempo, in samples per beat, that STUTTER's one-bar (4-beat) capture buffer is sized for"},
				cli.IntFlag{Name: "blocks", Value: 1000, Usage: "number of audio blocks to process"},
				cli.IntFlag{Name: "quant", Value: 16, Usage: "musical-grid denominator (32/16/8/4) the quantization selector starts at"},
				cli.Float64Flag{Name: "fade-ms", Value: 3, Usage: "CHOKE's crossfade length in milliseconds"},
				cli.Float64Flag{Name: "freeze-ms", Value: 3, Usage: "FREEZE's capture buffer length in milliseconds"},
				cli.IntFlag{Name: "lookahead", Value: 128, Usage: "quantized-onset lookahead in samples"},
				cli.StringFlag{Name: "fixture", Usage: "path to a recorded clock/command fixture script; omit to drive silence with no events"},
			},
			Action: runBench,
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("stompbox exited with an error", "error", err)
		os.Exit(1)
	}
}

func runLive(c *cli.Context) error {
	sampleRate := c.Int("sample-rate")
	blockSize := c.Int("block-size")

	backend, err := termhw.New()
	if err != nil {
		return err
	}
	defer backend.Close()

	player, err := audiooto.New(sampleRate, blockSize)
	if err != nil {
		return err
	}

	l := looper.New(looper.Config{
		SampleRate:        sampleRate,
		MaxSamplesPerBeat: c.Int("max-samples-per-beat"),
		Quant:             c.Int("quant"),
		FadeMs:            c.Float64("fade-ms"),
		FreezeMs:          c.Float64("freeze-ms"),
		Lookahead:         uint64(c.Int("lookahead")),
		Buttons:           backend,
		Encoders:          backend,
		Display:           backend,
		LED:               backend,
		Debug:             backend,
	})

	if err := player.Start(l.RunAudioBlock); err != nil {
		return err
	}
	defer player.Stop()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	slog.Info("stompbox running", "sample_rate", sampleRate, "block_size", blockSize)

	for {
		select {
		case <-signals:
			slog.Info("received stop signal")
			return nil
		default:
			now := time.Now()
			backend.Update(now)
			l.RunControlOnce(now)
			l.Yield()
		}
	}
}

func runBench(c *cli.Context) error {
	sampleRate := c.Int("sample-rate")
	blockSize := c.Int("block-size")
	blocks := c.Int("blocks")
	if blocks <= 0 {
		return errors.New("bench requires --blocks with a positive value")
	}

	var events []fixture.Event
	if path := c.String("fixture"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		events, err = fixture.Parse(f)
		f.Close()
		if err != nil {
			return err
		}
	}
	player := fixture.NewPlayer(events)

	l := looper.New(looper.Config{
		SampleRate:        sampleRate,
		MaxSamplesPerBeat: c.Int("max-samples-per-beat"),
		Quant:             c.Int("quant"),
		FadeMs:            c.Float64("fade-ms"),
		FreezeMs:          c.Float64("freeze-ms"),
		Lookahead:         uint64(c.Int("lookahead")),
		Buttons:           player,
		Clock:             player,
	})

	silence := make([]int16, blockSize)
	leftOut := make([]int16, blockSize)
	rightOut := make([]int16, blockSize)

	start := time.Now()
	now := time.Now()
	for i := 0; i < blocks; i++ {
		player.AdvanceTo(uint64(i))
		l.RunAudioBlock(uint64(i), silence, silence, leftOut, rightOut)
		l.RunControlOnce(now)
		now = now.Add(time.Duration(blockSize) * time.Second / time.Duration(sampleRate))
		if i%100 == 0 {
			slog.Info("bench progress", "block", i, "total", blocks)
		}
	}
	elapsed := time.Since(start)

	slog.Info("bench completed",
		"blocks", blocks,
		"samples", blocks*blockSize,
		"elapsed", elapsed,
		"fixture_events", len(events),
		"dropped_commands", player.DroppedCommands(),
		"real_time_equivalent", time.Duration(blocks*blockSize)*time.Second/time.Duration(sampleRate),
	)
	return nil
}

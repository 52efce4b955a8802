// Showbox Core - Live Show Sequencing Engine
//
// This is the main entry point for the Showbox application. Showbox drives
// a live animatronic show: it plays a scripted sequence of audio lines,
// narrates them through speech synthesis, and keeps remote character boxes
// in sync over MQTT while tolerating a flaky command channel.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hollyward/showbox-core/internal/audio"
	"github.com/hollyward/showbox-core/internal/device"
	"github.com/hollyward/showbox-core/internal/dispatch"
	"github.com/hollyward/showbox-core/internal/infrastructure/config"
	"github.com/hollyward/showbox-core/internal/infrastructure/database"
	"github.com/hollyward/showbox-core/internal/infrastructure/logging"
	"github.com/hollyward/showbox-core/internal/infrastructure/mqtt"
	"github.com/hollyward/showbox-core/internal/infrastructure/telemetry"
	"github.com/hollyward/showbox-core/internal/playback"
	"github.com/hollyward/showbox-core/internal/script"
	"github.com/hollyward/showbox-core/internal/sequencer"
	"github.com/hollyward/showbox-core/internal/showlog"
	"github.com/hollyward/showbox-core/internal/speech"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// amplitudeInterval is how often the amplitude poller samples playback
// loudness for telemetry.
const amplitudeInterval = 100 * time.Millisecond

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Showbox",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open the show event log database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	events := showlog.NewSQLiteRepository(db.DB)

	// Connect to the telemetry backend (optional)
	var metrics *telemetry.Client
	if cfg.Telemetry.Enabled {
		metrics, err = telemetry.Connect(cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("connecting to telemetry: %w", err)
		}
		defer func() {
			log.Info("closing telemetry connection")
			if closeErr := metrics.Close(); closeErr != nil {
				log.Error("error closing telemetry", "error", closeErr)
			}
		}()
		metrics.SetOnError(func(err error) {
			log.Error("telemetry write error", "error", err)
		})
		log.Info("telemetry connected",
			"url", cfg.Telemetry.URL,
			"org", cfg.Telemetry.Org,
			"bucket", cfg.Telemetry.Bucket,
		)
	} else {
		log.Info("telemetry disabled")
	}

	// Device directory and command dispatcher
	directory := device.NewDirectory(cfg.Devices, log)
	log.Info("device directory initialised", "devices", directory.Len())

	mqttClient := mqtt.NewClient(cfg.MQTT)
	mqttClient.SetLogger(log)
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()

	dispatcher := dispatch.New(&channelAdapter{client: mqttClient}, directory,
		dispatch.WithRetryDelay(cfg.GetReconnectDelay()),
		dispatch.WithLogger(log),
	)
	dispatcher.OnStatusChange(func(status map[string]any) {
		log.Debug("device status updated", "status", status)
		recordEvent(ctx, log, events, &showlog.Event{
			Kind:    showlog.KindConnection,
			Details: status,
		})
	})
	dispatcher.OnStateChange(func(state dispatch.State) {
		log.Info("command channel state changed", "state", state.String())
		if metrics != nil {
			metrics.WriteChannelState(state.String())
		}
	})
	dispatcher.Connect()
	log.Info("dispatcher started",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Speech queue over the external synthesizer
	synth := playback.NewSynthesizer(playback.SynthConfig{
		Binary: cfg.Playback.Synth.Binary,
		Args:   cfg.Playback.Synth.Args,
		Voices: cfg.Playback.Synth.Voices,
	})
	synth.SetLogger(log)

	cues := &cueRecorder{
		ctx:     ctx,
		next:    dispatcher,
		events:  events,
		metrics: metrics,
		log:     log,
	}
	narrator := speech.NewQueue(synth, cues, cfg.Speech, speech.WithLogger(log))
	defer narrator.Stop()

	// Sequencer over the external player, with the amplitude sampler
	// wired in for telemetry
	player := playback.NewPlayer(playback.PlayerConfig{
		Binary: cfg.Playback.Player.Binary,
		Args:   cfg.Playback.Player.Args,
	})
	player.SetLogger(log)

	sampler := audio.NewSampler()
	seq := sequencer.New(player, sampler, sequencer.WithLogger(log))
	defer seq.Stop()

	wireShowEvents(ctx, seq, narrator, events, metrics, log)

	// Load and start the show script, if configured
	if cfg.Show.Script != "" {
		items, loadErr := script.Load(cfg.Show.Script)
		if loadErr != nil {
			return fmt.Errorf("loading script: %w", loadErr)
		}
		seq.Load(items)
		log.Info("script loaded", "path", cfg.Show.Script, "items", len(items))
		seq.Play()
	} else {
		log.Info("no script configured, waiting for operator")
	}

	if metrics != nil {
		go pollAmplitude(ctx, sampler, seq, metrics)
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	logShowSummary(events, log)
	log.Info("Showbox stopped")
	return nil
}

// logShowSummary reads back what this run recorded in the show log and
// reports the headline counts for post-show review.
func logShowSummary(events showlog.Repository, log *logging.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := events.List(ctx, showlog.Filter{Limit: 200})
	if err != nil {
		log.Warn("failed to read show log for summary", "error", err)
		return
	}

	counts := make(map[string]int, len(result.Events))
	for _, event := range result.Events {
		counts[event.Kind]++
	}

	log.Info("show summary",
		"events_total", result.Total,
		"items_played", counts[showlog.KindItemEnd],
		"cues_sent", counts[showlog.KindCue],
		"completions", counts[showlog.KindShowComplete],
	)
}

// cueRecorder forwards speaking cues to the dispatcher and mirrors each one
// into the show log and telemetry.
type cueRecorder struct {
	ctx     context.Context
	next    speech.CueSender
	events  showlog.Repository
	metrics *telemetry.Client
	log     *logging.Logger
}

func (c *cueRecorder) SendAnimationCue(character, cueType, state string) {
	c.next.SendAnimationCue(character, cueType, state)

	recordEvent(c.ctx, c.log, c.events, &showlog.Event{
		Kind:      showlog.KindCue,
		Character: character,
		Details:   map[string]any{"type": cueType, "state": state},
	})
	if c.metrics != nil {
		c.metrics.WriteCue(character, cueType, state)
	}
}

// wireShowEvents connects sequencer lifecycle events to narration, the
// event log, and telemetry.
func wireShowEvents(
	ctx context.Context,
	seq *sequencer.Sequencer,
	narrator *speech.Queue,
	events showlog.Repository,
	metrics *telemetry.Client,
	log *logging.Logger,
) {
	// One item plays at a time, so a single start timestamp is enough to
	// measure playback duration.
	var mu sync.Mutex
	var itemStarted time.Time

	seq.On(sequencer.EventItemStart, func(item script.Item) {
		mu.Lock()
		itemStarted = time.Now()
		mu.Unlock()

		log.Info("item started", "character", item.Character, "media", item.MediaRef)
		narrator.Enqueue(item.Text, item.Character, speech.Options{})
		recordEvent(ctx, log, events, &showlog.Event{
			Kind:      showlog.KindItemStart,
			Character: item.Character,
			MediaRef:  item.MediaRef,
		})
	})

	seq.On(sequencer.EventItemEnd, func(item script.Item) {
		mu.Lock()
		duration := time.Since(itemStarted)
		mu.Unlock()

		log.Info("item ended", "character", item.Character, "media", item.MediaRef)
		recordEvent(ctx, log, events, &showlog.Event{
			Kind:      showlog.KindItemEnd,
			Character: item.Character,
			MediaRef:  item.MediaRef,
		})
		if metrics != nil {
			metrics.WriteItemPlayback(item.Character, item.MediaRef, duration)
		}
	})

	seq.On(sequencer.EventComplete, func(script.Item) {
		log.Info("show complete")
		recordEvent(ctx, log, events, &showlog.Event{Kind: showlog.KindShowComplete})
	})
}

// pollAmplitude samples playback loudness at animation cadence and writes
// it to telemetry while a script is playing. Nothing is written until a
// spectrum source attaches; a player without one would otherwise report a
// constant zero.
func pollAmplitude(ctx context.Context, sampler *audio.Sampler, seq *sequencer.Sequencer, metrics *telemetry.Client) {
	ticker := time.NewTicker(amplitudeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if amplitudeReady(sampler, seq) {
				metrics.WriteAmplitude(sampler.Sample())
			}
		}
	}
}

// amplitudeReady reports whether an amplitude sample would be meaningful:
// a spectrum source is attached and the show is actually playing.
func amplitudeReady(sampler *audio.Sampler, seq *sequencer.Sequencer) bool {
	return sampler.Attached() && seq.Playing()
}

// recordEvent writes one event to the show log, logging failures instead
// of propagating them. A full disk must not stop the show.
func recordEvent(ctx context.Context, log *logging.Logger, events showlog.Repository, event *showlog.Event) {
	if err := events.Record(ctx, event); err != nil {
		log.Warn("failed to record show event", "kind", event.Kind, "error", err)
	}
}

// getConfigPath returns the configuration file path.
// Uses SHOWBOX_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SHOWBOX_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// channelAdapter adapts the infrastructure MQTT client to the dispatcher's
// Channel interface. The only difference is the Subscribe handler type:
// the client takes its named mqtt.MessageHandler, the dispatcher passes a
// plain func.
type channelAdapter struct {
	client *mqtt.Client
}

// Dial implements dispatch.Channel.
func (a *channelAdapter) Dial(onSuccess func(), onFailure func(err error)) error {
	return a.client.Dial(onSuccess, onFailure)
}

// Publish implements dispatch.Channel.
func (a *channelAdapter) Publish(topic string, payload []byte) error {
	return a.client.Publish(topic, payload)
}

// Subscribe implements dispatch.Channel.
func (a *channelAdapter) Subscribe(topic string, handler func(topic string, payload []byte) error) error {
	return a.client.Subscribe(topic, mqtt.MessageHandler(handler))
}

// SetOnConnectionLost implements dispatch.Channel.
func (a *channelAdapter) SetOnConnectionLost(callback func(err error)) {
	a.client.SetOnConnectionLost(callback)
}

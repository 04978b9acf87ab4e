// Package main is the entry point for BeatKanji.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/go-logr/logr"
	"github.com/joho/godotenv"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/samdwyer/beatkanji/internal/assign"
	"github.com/samdwyer/beatkanji/internal/beatmap"
	"github.com/samdwyer/beatkanji/internal/game"
	"github.com/samdwyer/beatkanji/internal/gamedata"
	"github.com/samdwyer/beatkanji/internal/record"
	"github.com/samdwyer/beatkanji/internal/telemetry"
)

var (
	app = kingpin.New("beatkanji", "Write kana and kanji stroke by stroke to the beat.")

	verbosity = app.Flag("verbose", "Log verbosity (0-2).").Short('v').Envar("BEATKANJI_VERBOSITY").Default("0").Int()
	logFile   = app.Flag("log-file", "Write logs to this file instead of stderr.").Envar("BEATKANJI_LOG_FILE").String()
	noTrace   = app.Flag("no-telemetry", "Disable OpenTelemetry export.").Envar("BEATKANJI_NO_TELEMETRY").Bool()
	records   = app.Flag("records", "Results database path; empty disables results.").Envar("BEATKANJI_RECORDS").Default("beatkanji.db").String()

	play       = app.Command("play", "Play a song.").Default()
	song       = play.Arg("song", "Bundled song name or beatmap file.").String()
	difficulty = play.Flag("difficulty", "easy, medium or hard.").Short('d').Envar("BEATKANJI_DIFFICULTY").Default("easy").String()
	seed       = play.Flag("seed", "Random seed; 0 picks one from the clock.").Short('s').Envar("BEATKANJI_SEED").Default("0").Int64()
	lives      = play.Flag("lives", "Lives at the start of a song.").Envar("BEATKANJI_LIVES").Default("3").Int()
	gapBeats   = play.Flag("gap-beats", "Idle beats between symbols.").Envar("BEATKANJI_GAP_BEATS").Default("0").Int()
	batchSize  = play.Flag("batch-size", "Candidates drawn per symbol choice.").Envar("BEATKANJI_BATCH_SIZE").Default("30").Int()
	pad        = play.Flag("pad", "Pad unassignable notes with gap beats instead of failing.").Envar("BEATKANJI_PAD").Bool()
	catalog    = play.Flag("catalog", "KanjiVG-derived SQLite symbol database.").Envar("BEATKANJI_CATALOG").ExistingFile()
	tags       = play.Flag("tag", "Only use symbols with this tag (n5..n1, hiragana, katakana). Repeatable.").Short('t').Envar("BEATKANJI_TAGS").Strings()
	maxStrokes = play.Flag("max-strokes", "Skip symbols with more strokes; 0 for no limit.").Envar("BEATKANJI_MAX_STROKES").Default("0").Int()
	mute       = play.Flag("mute", "Disable sound.").Short('m').Envar("BEATKANJI_MUTE").Bool()
	volume     = play.Flag("volume", "Master volume from 0 to 1.").Envar("BEATKANJI_VOLUME").Default("0.8").Float64()

	songs = app.Command("songs", "List bundled songs.")

	history      = app.Command("history", "Show recent results.")
	historyLimit = history.Flag("limit", "Number of results.").Short('n').Default("10").Int()
)

func main() {
	// Load .env file for local development
	// This makes HONEYCOMB_BEATKANJI_API_KEY available
	if err := godotenv.Load(); err != nil {
		// Not fatal - env vars might be set directly
		log.Printf("Note: .env file not loaded: %v", err)
	}

	app.Version("0.3.0")
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, closeLog := newLogger()
	defer closeLog()

	var err error
	switch command {
	case play.FullCommand():
		err = runPlay(ctx, logger)
	case songs.FullCommand():
		err = runSongs(ctx)
	case history.FullCommand():
		err = runHistory(ctx, logger)
	}
	if err != nil {
		log.Fatalf("%s: %v", command, err)
	}
}

// newLogger logs to the chosen file. The terminal is owned by the game
// screen while playing, so stderr output is only readable after exit.
func newLogger() (logr.Logger, func()) {
	if *logFile == "" {
		return telemetry.NewLogger(os.Stderr, *verbosity), func() {}
	}
	f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("Warning: cannot open log file %s: %v", *logFile, err)
		return telemetry.NewLogger(os.Stderr, *verbosity), func() {}
	}
	return telemetry.NewLogger(f, *verbosity), func() { f.Close() }
}

func runPlay(ctx context.Context, logger logr.Logger) error {
	cfg, err := playConfig()
	if err != nil {
		return err
	}

	if *noTrace {
		telemetry.Disable()
	} else {
		// Set up OTEL environment variables from our .env variables
		setupOTelEnv()

		shutdown, err := telemetry.Setup(ctx)
		if err != nil {
			log.Printf("Warning: telemetry setup failed: %v", err)
			log.Printf("Game will run without observability")
		} else {
			defer func() {
				if err := shutdown(context.WithoutCancel(ctx)); err != nil {
					log.Printf("Error shutting down telemetry: %v", err)
				}
			}()
		}
	}

	g, err := game.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize game: %w", err)
	}
	return g.Run(ctx)
}

func playConfig() (game.Config, error) {
	cfg := game.DefaultConfig()

	d, err := beatmap.ParseDifficulty(*difficulty)
	if err != nil {
		return cfg, err
	}
	cfg.Difficulty = d
	cfg.Seed = *seed
	cfg.Song = *song
	cfg.CatalogPath = *catalog
	cfg.MaxStrokes = *maxStrokes
	cfg.RecordPath = *records
	cfg.Mute = *mute
	cfg.Volume = *volume
	cfg.Session.MaxLives = *lives
	cfg.Assign.GapBeats = *gapBeats
	cfg.Assign.BatchSize = *batchSize
	if *pad {
		cfg.Assign.Remainder = assign.RemainderPad
	}

	// BEATKANJI_TAGS may hold a comma separated list
	for _, t := range *tags {
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				cfg.Tags = append(cfg.Tags, part)
			}
		}
	}
	return cfg, nil
}

func runSongs(ctx context.Context) error {
	list, err := gamedata.ListSongs(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTITLE\tBPM\tLENGTH")
	for _, s := range list {
		fmt.Fprintf(w, "%s\t%s\t%.0f\t%.0fs\n", strings.TrimSuffix(s.Name, ".json"), s.Meta.DisplayTitle(), s.Meta.BPM, s.Meta.TotalDuration)
	}
	return w.Flush()
}

func runHistory(ctx context.Context, logger logr.Logger) error {
	if *records == "" {
		return fmt.Errorf("no results database configured")
	}
	store, err := record.Open(*records, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Recent(ctx, *historyLimit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PLAYED\tSONG\tDIFFICULTY\tSCORE\tCOMBO\tMISSES\tCLEARED")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%v\n",
			r.PlayedAt.Format("2006-01-02 15:04"), r.Song, r.Difficulty, r.Score, r.MaxCombo, r.Misses, r.Cleared)
	}
	return w.Flush()
}

// setupOTelEnv configures OTEL environment variables from our custom env vars.
func setupOTelEnv() {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "https://api.honeycomb.io")
	}

	apiKey := os.Getenv("HONEYCOMB_BEATKANJI_API_KEY")
	dataset := os.Getenv("HONEYCOMB_BEATKANJI_DATASET")
	if dataset == "" {
		dataset = "beatkanji" // default dataset name
	}
	if apiKey != "" {
		os.Setenv("OTEL_EXPORTER_OTLP_HEADERS",
			fmt.Sprintf("x-honeycomb-team=%s,x-honeycomb-dataset=%s", apiKey, dataset))
	}
}

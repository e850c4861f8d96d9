package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Mavwarf/iconset/internal/config"
	"github.com/Mavwarf/iconset/internal/entry"
	"github.com/Mavwarf/iconset/internal/history"
	"github.com/Mavwarf/iconset/internal/idiom"
	"github.com/Mavwarf/iconset/internal/logging"
	"github.com/Mavwarf/iconset/internal/mqtt"
	"github.com/Mavwarf/iconset/internal/pipeline"
	"github.com/Mavwarf/iconset/internal/render"
)

var dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

// fatal prints msg to stderr and exits with status 1.
func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// loadConfig reads config file and environment, then applies flag
// overrides and validates the result.
func loadConfig(opts cliOpts) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	applyFlags(&cfg, opts)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, describe(err)
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config, opts cliOpts) {
	if opts.Idioms != "" {
		cfg.Idioms = opts.Idioms
	}
	if opts.PrefixSet {
		cfg.Prefix = opts.Prefix
	}
	if opts.Badge != "" {
		cfg.Badge = opts.Badge
	}
	if opts.Author != "" {
		cfg.Author = opts.Author
	}
	if opts.Workers >= 0 {
		cfg.Workers = opts.Workers
	}
	if opts.NoHistory {
		cfg.History = false
	}
}

// describe adds the accepted tokens to idiom errors.
func describe(err error) error {
	var ie *idiom.InvalidIdiomError
	if errors.As(err, &ie) {
		return fmt.Errorf("%w (try \"iconset list -i all\")", err)
	}
	return err
}

func newLogger(opts cliOpts) zerolog.Logger {
	return logging.New(os.Stderr, logging.Options{
		Level: logging.Level(opts.Quiet, opts.Verbose),
		JSON:  opts.LogJSON,
	})
}

// buildNotifiers returns one notifier per configured target.
func buildNotifiers(n config.Notify) []pipeline.Notifier {
	var out []pipeline.Notifier
	if n.MQTT.Broker != "" {
		clientID := n.MQTT.ClientID
		if clientID == "" {
			clientID = "iconset-" + uuid.NewString()[:8]
		}
		out = append(out, pipeline.MQTTNotifier{Options: mqtt.Options{
			Broker:   n.MQTT.Broker,
			ClientID: clientID,
			Topic:    n.MQTT.Topic,
			Username: n.MQTT.Username,
			Password: n.MQTT.Password,
			QoS:      n.MQTT.QoS,
			Retain:   n.MQTT.Retain,
		}})
	}
	if n.Webhook != "" {
		out = append(out, pipeline.WebhookNotifier{URL: n.Webhook, Headers: n.WebhookHeaders})
	}
	return out
}

func generateCmd(args []string, opts cliOpts) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Error: generate requires exactly one source image")
		return 1
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	log := newLogger(opts)
	if cfg.Source != "" {
		log.Debug().Str("file", cfg.Source).Msg("config loaded")
	}

	target := opts.Out
	if target == "" {
		target = "."
	}

	var store history.Store
	if cfg.History {
		s, err := history.NewSQLiteStore(cfg.ResolvedHistoryPath())
		if err != nil {
			log.Warn().Err(err).Msg("history disabled")
		} else {
			store = s
			defer s.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rep, err := pipeline.Run(ctx, pipeline.Options{
		Source:    args[0],
		Badge:     cfg.Badge,
		Target:    target,
		Idioms:    cfg.Idioms,
		Prefix:    cfg.Prefix,
		Info:      cfg.Info(),
		Workers:   cfg.Workers,
		Renderer:  render.New(cfg.Workers, log),
		History:   store,
		Notifiers: buildNotifiers(cfg.Notify),
		Log:       log,
	})
	if err != nil {
		log.Error().Err(describe(err)).Msg("generate failed")
	}
	if rep != nil && !opts.Quiet {
		fmt.Printf("%s: %d entries, %d files, %d failed\n",
			rep.Layout.CatalogDir(), len(rep.Entries), len(render.Written(rep.Results)), rep.Failures())
	}
	return exitCode(err)
}

// entryRows formats entries for the list table.
func entryRows(entries []entry.Entry) [][]string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			e.Idiom,
			e.DisplaySize(),
			strconv.Itoa(e.Scale) + "x",
			strconv.Itoa(e.Pixels()),
			e.FileName(),
		}
	}
	return rows
}

func listCmd(opts cliOpts) int {
	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	entries, sizes, err := pipeline.Plan(cfg.Idioms, cfg.Prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", describe(err))
		return 1
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("IDIOM", "SIZE", "SCALE", "PIXELS", "FILE").
		Rows(entryRows(entries)...)
	fmt.Println(t)
	fmt.Println(dimStyle.Render(fmt.Sprintf("%d entries, %d files", len(entries), len(sizes))))
	return 0
}

func sizesCmd(opts cliOpts) int {
	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	_, sizes, err := pipeline.Plan(cfg.Idioms, cfg.Prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", describe(err))
		return 1
	}
	for _, px := range sizes {
		fmt.Printf("%5d  %s\n", px, entry.FileName(cfg.Prefix, px))
	}
	return 0
}

// runRows formats history runs for the history table.
func runRows(runs []history.Run) [][]string {
	rows := make([][]string, len(runs))
	for i, r := range runs {
		took := "-"
		if !r.Finished.IsZero() {
			took = r.Finished.Sub(r.Started).Round(time.Millisecond).String()
		}
		rows[i] = []string{
			r.ID[:min(8, len(r.ID))],
			r.Started.Local().Format("2006-01-02 15:04:05"),
			string(r.Status),
			r.Idioms,
			strconv.Itoa(r.Entries),
			took,
			r.Source,
			r.Target,
		}
	}
	return rows
}

// outputRows formats one run's per-size outcomes.
func outputRows(outs []history.Output) [][]string {
	rows := make([][]string, len(outs))
	for i, o := range outs {
		status := "ok"
		if o.Error != "" {
			status = o.Error
		}
		rows[i] = []string{strconv.Itoa(o.Size), o.Path, o.Duration.Round(time.Microsecond).String(), status}
	}
	return rows
}

// findRun resolves a full or shortened run ID.
func findRun(runs []history.Run, id string) (history.Run, bool) {
	for _, r := range runs {
		if r.ID == id || (len(id) >= 4 && len(r.ID) >= len(id) && r.ID[:len(id)] == id) {
			return r, true
		}
	}
	return history.Run{}, false
}

func historyCmd(args []string, opts cliOpts) int {
	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	store, err := history.NewSQLiteStore(cfg.ResolvedHistoryPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer store.Close()

	if len(args) > 0 && args[0] == "clear" {
		if err := store.Clear(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Printf("History cleared (%s)\n", store.Path())
		return 0
	}

	if len(args) > 0 {
		runs, err := store.Runs(0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		run, ok := findRun(runs, args[0])
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: no run %q\n", args[0])
			return 1
		}
		outs, err := store.Outputs(run.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Printf("%s  %s  %s -> %s\n", run.ID, run.Status, run.Source, run.Target)
		if run.Error != "" {
			fmt.Println(dimStyle.Render(run.Error))
		}
		fmt.Println(table.New().
			Border(lipgloss.NormalBorder()).
			Headers("SIZE", "PATH", "TOOK", "RESULT").
			Rows(outputRows(outs)...))
		return 0
	}

	limit := opts.Limit
	if limit == 0 {
		limit = 20
	}
	runs, err := store.Runs(limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return 0
	}
	fmt.Println(table.New().
		Border(lipgloss.NormalBorder()).
		Headers("RUN", "STARTED", "STATUS", "IDIOMS", "ENTRIES", "TOOK", "SOURCE", "TARGET").
		Rows(runRows(runs)...))
	fmt.Println(dimStyle.Render(store.Path()))
	return 0
}

// shortlog is a terminal viewer for short log tables: search, per-column
// value filters, jump buttons and row styling over JSON, CSV or SQLite rows.
//
//	shortlog -config widget.toml app.jsonl
//	kubectl logs deploy/api | shortlog -format jsonl
//	shortlog -sqlite logs.db -query "SELECT ts, lvl, msg FROM logs ORDER BY ts DESC LIMIT 500"
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/kungfusheep/shortlog"
)

var (
	configPath = flag.String("config", "", "widget snapshot (.json or .toml): columns, filters, jump buttons, style rules")
	format     = flag.String("format", "jsonl", "format of rows read from stdin: json, jsonl, csv, tsv")
	sqliteDSN  = flag.String("sqlite", "", "read rows from this SQLite database")
	sqlQuery   = flag.String("query", "SELECT * FROM logs", "query run against -sqlite")
	eventsPath = flag.String("events", "", "append row selection events as JSON lines to this file")
	plain      = flag.Bool("plain", false, "print the filtered table once and exit")
	logPath    = flag.String("log", "", "write debug logs to this file")
	search     = flag.String("search", "", "initial search query")
	debounce   = flag.Duration("debounce", -1, "selection event debounce (overrides the snapshot)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: shortlog [flags] [file]\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger, closeLog, err := newLogger(*logPath)
	if err != nil {
		log.Fatal(err)
	}
	defer closeLog()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	snap, err := loadInput(ctx, logger, flag.Args())
	cancel()
	if err != nil {
		log.Fatal(err)
	}
	if *search != "" {
		snap.SearchConfig.Initial = *search
	}

	host, closeHost, err := newHost(*eventsPath)
	if err != nil {
		log.Fatal(err)
	}
	defer closeHost()

	opts := []shortlog.Option{
		shortlog.WithLogger(logger),
		shortlog.WithWidthMetrics(shortlog.CellMetrics),
	}
	if *debounce >= 0 {
		opts = append(opts, shortlog.WithDebounce(*debounce))
	}
	w := shortlog.New(host, opts...)
	defer w.Close()

	if *plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		w.Update(snap)
		width := 120
		if cols, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && cols > 0 {
			width = cols
		}
		io.WriteString(os.Stdout, renderPlain(w.View(), width))
		return
	}

	progOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion()}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		// rows came in on stdin; keys come from the terminal
		progOpts = append(progOpts, tea.WithInputTTY())
	}
	m := newModel(w, logger)
	p := tea.NewProgram(m, progOpts...)
	w.OnChange(func() {
		// timer callbacks arrive off the event loop
		go p.Send(changedMsg{})
	})
	w.Update(snap)

	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
}

// newLogger writes zerolog JSON to path, or discards when path is empty.
// The TUI owns the terminal, so logs never go to stderr.
func newLogger(path string) (zerolog.Logger, func(), error) {
	if path == "" {
		return zerolog.Nop(), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log: %w", err)
	}
	logger := zerolog.New(f).With().Timestamp().Str("component", "shortlog").Logger().Level(zerolog.DebugLevel)
	return logger, func() { f.Close() }, nil
}

// newHost returns where selection events go: a JSON lines file, or nowhere.
func newHost(path string) (shortlog.Host, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open events: %w", err)
	}
	h := shortlog.NewJSONHost(f)
	return h, func() {
		if err := h.Err(); err != nil {
			log.Printf("events: %v", err)
		}
		f.Close()
	}, nil
}

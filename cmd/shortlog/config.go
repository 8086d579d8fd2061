package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/kungfusheep/shortlog"
	"github.com/kungfusheep/shortlog/source"
)

// loadInput builds the first snapshot: the -config file if any, with rows
// from the file argument, stdin or -sqlite replacing the configured rows.
func loadInput(ctx context.Context, logger zerolog.Logger, args []string) (shortlog.Snapshot, error) {
	var snap shortlog.Snapshot
	configured := false
	if *configPath != "" {
		s, err := loadSnapshot(*configPath, logger)
		if err != nil {
			return snap, err
		}
		snap, configured = s, true
	}

	tbl, ok, err := loadRows(ctx, args)
	if err != nil {
		return snap, err
	}
	if ok {
		if tbl.Skipped > 0 {
			logger.Warn().Int("skipped", tbl.Skipped).Msg("unreadable records skipped")
		}
		snap.Rows = tbl.Rows
		if len(snap.Columns) == 0 {
			snap.Columns = tbl.Columns
		}
	}
	if !configured {
		inferDefaults(&snap)
	}
	logger.Info().
		Int("rows", len(snap.Rows)).
		Strs("columns", snap.ResolvedColumns()).
		Bool("configured", configured).
		Msg("input loaded")
	return snap, nil
}

func loadSnapshot(path string, logger zerolog.Logger) (shortlog.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return shortlog.Snapshot{}, fmt.Errorf("read config: %w", err)
	}
	var (
		snap     shortlog.Snapshot
		problems []shortlog.FieldError
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		snap, problems, err = shortlog.ParseSnapshotTOML(data)
	} else {
		snap, problems, err = shortlog.ParseSnapshot(data)
	}
	if err != nil {
		return snap, fmt.Errorf("config %s: %w", path, err)
	}
	for _, p := range problems {
		logger.Warn().Str("field", p.Field).Err(p.Err).Msg("config field ignored")
	}
	return snap, nil
}

// loadRows reads rows from the first source given. ok is false when no
// source was given and stdin is a terminal.
func loadRows(ctx context.Context, args []string) (source.Table, bool, error) {
	switch {
	case *sqliteDSN != "":
		t, err := source.LoadSQLite(ctx, *sqliteDSN, *sqlQuery)
		return t, err == nil, err
	case len(args) > 0:
		t, err := source.Load(args[0])
		return t, err == nil, err
	case !term.IsTerminal(int(os.Stdin.Fd())):
		f, err := source.ParseFormat(*format)
		if err != nil {
			return source.Table{}, false, err
		}
		t, err := source.Read(os.Stdin, f)
		if err != nil {
			return source.Table{}, false, fmt.Errorf("read stdin: %w", err)
		}
		return t, true, nil
	}
	return source.Table{}, false, nil
}

// levelColumns are the column names treated as a log level when no config
// is given.
var levelColumns = []string{"lvl", "level", "severity", "log_level", "loglevel"}

// inferDefaults gives an unconfigured table a level filter, Error and Warn
// jump buttons and matching row colours.
func inferDefaults(s *shortlog.Snapshot) {
	cols := s.ResolvedColumns()
	level := ""
	for _, c := range cols {
		for _, name := range levelColumns {
			if strings.EqualFold(c, name) {
				level = c
				break
			}
		}
		if level != "" {
			break
		}
	}
	if level == "" {
		return
	}
	s.FilterConfig.Columns = shortlog.StringList{level}
	s.JumpButtons = shortlog.JumpButtons{
		{Label: "Error", Rules: []shortlog.JumpRule{{Column: level, Terms: []any{"error", "fatal", "crit"}}}},
		{Label: "Warn", Rules: []shortlog.JumpRule{{Column: level, Terms: []any{"warn"}}}},
	}
	s.StyleRules = []shortlog.StyleRule{
		{Column: level, Regex: "^(error|fatal|crit)", BackgroundColor: "#5F1E1E", Badge: true},
		{Column: level, Includes: shortlog.StringList{"warn"}, BackgroundColor: "#5C4A12", Badge: true},
	}
}

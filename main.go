package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	cmdanalyze "intervention-stats/command/analyze"
	cmdweb "intervention-stats/command/web"
	cconfig "intervention-stats/connectors/config"
)

// Operator intervention report tool.
// Usage:
//   intervention-stats analyze -file donnee.xlsx [-all | -operators A,B] [-period month] [-from 2024-01-01] [-to 2024-03-31]
//   intervention-stats web [-addr :8080] [-ui ./ui/dist]
// Notes:
// - Counts intervention reports per operator and calendar period, draws two random reports
//   per operator for review and exports the all-time table as xlsx, pdf or csv.
// - Dataset column names (operator, category, photos, date) come from the YAML config.

func main() {
	args := os.Args
	// Initialize slog logger (text to stderr); the level is raised or lowered once the config is read
	var level slog.LevelVar
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level})
	slog.SetDefault(slog.New(h))

	cfg, err := cconfig.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	level.Set(parseLevel(cfg.Log.Level))

	if len(args) > 1 {
		sub := args[1]
		rest := append([]string{}, args[2:]...)
		switch sub {
		case "analyze":
			if err := cmdanalyze.Run(cfg, rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		case "web":
			if err := cmdweb.Run(cfg, rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: intervention-stats analyze -file <xlsx|csv> | -url <url> [-all | -operators <list>] [-period day|week|month|quarter|year|total] [-from YYYY-MM-DD] [-to YYYY-MM-DD] [-out ./out] | web [-addr :8080] [-ui ./ui/dist]\nENV: set CONFIG_PATH to point to a YAML config file (default ./config.yml)")
	os.Exit(2)
}

// parseLevel converts "debug", "info", "warn" or "error" to a slog.Level.
// Unknown strings default to info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

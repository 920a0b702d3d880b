// cmd/tools/registry-updater/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"weather-workers/internal/common/config"
	"weather-workers/internal/common/logger"
	"weather-workers/internal/toolset"
	"weather-workers/pkg/registry"
)

const defaultManifestPath = "configs/tool-registry.json"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		help(stderr)
		return 1
	}

	switch args[0] {
	case "export":
		exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
		exportCmd.SetOutput(stderr)
		path := exportCmd.String("path", "", "Path to write the manifest to (default: registry.path from config)")
		configFile := exportCmd.String("config", "", "Config file (default: configs/config.yaml)")
		if err := exportCmd.Parse(args[1:]); err != nil {
			return 1
		}

		written, count, err := export(*configFile, *path)
		if err != nil {
			fmt.Fprintf(stderr, "Error exporting manifest: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Exported %d tools to %s\n", count, written)

	case "validate":
		validateCmd := flag.NewFlagSet("validate", flag.ContinueOnError)
		validateCmd.SetOutput(stderr)
		path := validateCmd.String("path", defaultManifestPath, "Path to manifest file")
		if err := validateCmd.Parse(args[1:]); err != nil {
			return 1
		}

		m, err := registry.LoadManifest(*path)
		if err != nil {
			fmt.Fprintf(stderr, "Manifest validation failed: %v\n", err)
			return 1
		}
		if err := m.Validate(); err != nil {
			fmt.Fprintf(stderr, "Manifest validation failed: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Manifest validation passed. Found %d tools.\n", len(m.Tools))

	case "help", "-h", "--help":
		help(stdout)

	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		help(stderr)
		return 1
	}
	return 0
}

func export(configFile, path string) (string, int, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return "", 0, fmt.Errorf("load config: %w", err)
	}

	if path == "" {
		path = cfg.Registry.Path
	}
	if path == "" {
		path = defaultManifestPath
	}

	set, err := toolset.Build(context.Background(), cfg, logger.NewNoOpLogger())
	if err != nil {
		return "", 0, err
	}

	m := set.Manifest(time.Now())
	if err := m.Validate(); err != nil {
		return "", 0, err
	}
	if err := registry.SaveManifest(m, path); err != nil {
		return "", 0, err
	}
	return path, len(m.Tools), nil
}

func help(w io.Writer) {
	fmt.Fprint(w, `
Usage: registry-updater <command> [flags]

Commands:
  export    Write the manifest of every registered tool
  validate  Validate a manifest file
  help      Show this help message

Examples:
  registry-updater export -path configs/tool-registry.json
  registry-updater validate -path configs/tool-registry.json

Use 'registry-updater <command> -h' for more information about a command.
`)
}

// cmd/weather-forecast/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"weather-workers/internal/common/config"
	stderrors "weather-workers/internal/common/errors"
	"weather-workers/internal/common/logger"
	"weather-workers/internal/tool"
	"weather-workers/internal/weather"
	weatherforecast "weather-workers/internal/workers/weather/weather-forecast"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("weather-forecast", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "log pipeline steps to stderr")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), `Usage: weather-forecast [-v] [zipcode] [days]

Prints the weather forecast for a US zipcode, days ahead of today (0 is today).
Defaults come from the cli section of the configuration.

`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	// flag stops at the first positional argument, so a trailing -h is still a help request.
	for _, arg := range fs.Args() {
		if arg == "-h" || arg == "-help" || arg == "--help" {
			fs.Usage()
			return 0
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if fs.NArg() > 2 {
		fmt.Fprintf(stderr, "Error: expected at most 2 arguments, got %d\n", fs.NArg())
		return 1
	}

	params := map[string]interface{}{
		"zipcode":   cfg.CLI.DefaultZipcode,
		"daysAhead": cfg.CLI.DefaultDays,
	}
	if fs.NArg() > 0 {
		params["zipcode"] = fs.Arg(0)
	}
	if fs.NArg() > 1 {
		// A non-integer is passed through as a string so validation reports it.
		if days, err := strconv.Atoi(fs.Arg(1)); err == nil {
			params["daysAhead"] = days
		} else {
			params["daysAhead"] = fs.Arg(1)
		}
	}

	level := "error"
	if *verbose {
		level = "debug"
	}
	log := logger.NewStructured(level, cfg.Logging.Format)

	registry, err := newRegistry(weather.NewServiceFromConfig(cfg, log))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := registry.Invoke(ctx, weatherforecast.TaskType, params, tool.ExecContext{Logger: log})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", describe(err))
		return 1
	}

	fmt.Fprintln(stdout, out)
	return 0
}

func newRegistry(forecaster weather.Forecaster) (*tool.Registry, error) {
	forecastTool, err := weatherforecast.NewTool(forecaster)
	if err != nil {
		return nil, err
	}
	registry := tool.NewRegistry()
	if err := registry.Register(forecastTool); err != nil {
		return nil, err
	}
	return registry, nil
}

func describe(err error) string {
	stdErr := stderrors.AsStandard(err)
	if stdErr == nil {
		return err.Error()
	}
	if stdErr.Details == "" {
		return stdErr.Message
	}
	return fmt.Sprintf("%s (%s)", stdErr.Message, stdErr.Details)
}

// Command simulate plays a YAML scenario against an in-process ledger and
// reports every step.
//
// Usage:
//
//	go run ./cmd/simulate -scenario cmd/simulate/scenarios/quest.yaml
//	go run ./cmd/simulate -scenario quest.yaml -events
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
	"github.com/xeonarno/Alyra-blockquest/internal/repository"
	"github.com/xeonarno/Alyra-blockquest/internal/simulate"
)

type eventPrinter struct {
	enc *json.Encoder
}

func (p eventPrinter) Publish(_ context.Context, events []model.Event) {
	for _, e := range events {
		_ = p.enc.Encode(e)
	}
}

func main() {
	path := flag.String("scenario", "cmd/simulate/scenarios/quest.yaml", "Path to the scenario file")
	events := flag.Bool("events", false, "Print committed events as JSON lines")
	verbose := flag.Bool("v", false, "Log store commits")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	sc, err := simulate.Load(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var sinks []repository.EventSink
	if *events {
		sinks = append(sinks, eventPrinter{enc: json.NewEncoder(os.Stdout)})
	}

	runner, err := simulate.NewRunner(sc, simulate.RunnerConfig{Sinks: sinks, Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	results, err := runner.Run(context.Background())
	fmt.Fprintf(os.Stderr, "%s: %d steps\n", sc.Name, len(results))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

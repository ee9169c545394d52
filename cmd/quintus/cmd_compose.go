package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fwachter/quintus/config"
	"github.com/fwachter/quintus/piece"
	"github.com/fwachter/quintus/render"
	"github.com/fwachter/quintus/search"
	"github.com/fwachter/quintus/store"
)

var (
	composeNoTUI bool
	composeSeed  int64

	composeCmd = &cobra.Command{
		Use:   "compose",
		Short: "Search for counterpoint lines and write them to the output directory",
		RunE:  runCompose,
	}
)

func init() {
	composeCmd.Flags().BoolVar(&composeNoTUI, "no-tui", false, "log plain progress lines instead of the TUI")
	composeCmd.Flags().Int64Var(&composeSeed, "seed", 0, "override the configured random seed")
}

func runCompose(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		cfg.Search.Seed = composeSeed
	}

	start, err := cfg.BuildPiece()
	if err != nil {
		return err
	}
	engine, err := cfg.BuildEngine()
	if err != nil {
		return err
	}
	eval, err := cfg.BuildEvaluator()
	if err != nil {
		return err
	}
	searcher, err := search.New(engine, eval, cfg.SearchParams())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var result *search.Result
	var searchErr error
	if composeNoTUI {
		result, searchErr = searcher.Run(ctx, start)
	} else {
		result, searchErr = runWithTUI(ctx, searcher, start)
	}
	if searchErr != nil {
		if errors.Is(searchErr, search.ErrSearchExhausted) {
			log.Printf("No complete line exists under this configuration; try another seed or relaxed rules")
		}
		return searchErr
	}

	log.Printf("Best line (reward %.5f):", result.Best.Reward)
	for _, el := range result.Best.Piece.Counterpoint {
		log.Printf("  %-3s eighths %d..%d", el.Note, el.StartTimeInEighths, el.EndTimeInEighths)
	}

	runID := fmt.Sprintf("run_%d", time.Now().UnixNano())
	records := append([]search.Record{result.Best}, result.Runners...)
	rows := store.RecordRows(runID, cfg.Search.Seed, records)
	parquetPath, err := store.WriteRecordsBatch(cfg.Output.Dir, rows)
	if err != nil {
		return err
	}
	log.Printf("Wrote %d records to %s", len(rows), parquetPath)

	rollPath := filepath.Join(cfg.Output.Dir, runID+"_roll.tsv")
	if err := render.WriteRollTSV(rollPath, result.Best.Piece); err != nil {
		return err
	}
	eventsPath := filepath.Join(cfg.Output.Dir, runID+"_events.tsv")
	err = render.WriteEventsTSV(
		eventsPath, result.Best.Piece, cfg.Output.SecondsPerEighth, cfg.Output.Velocity,
	)
	if err != nil {
		return err
	}
	log.Printf("Wrote %s and %s", rollPath, eventsPath)
	return nil
}

// runWithTUI drives the search under a bubbletea progress view. Log output
// is silenced while the TUI owns the terminal; quitting the view cancels
// the search.
func runWithTUI(ctx context.Context, searcher *search.Searcher, start *piece.Piece) (*search.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	progress := make(chan search.Progress, 64)
	searcher.OnProgress = func(p search.Progress) {
		select {
		case progress <- p:
		default:
		}
	}

	logOut := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(logOut)

	program := tea.NewProgram(newComposeModel(progress))

	type searchOutcome struct {
		result *search.Result
		err    error
	}
	outcome := make(chan searchOutcome, 1)
	go func() {
		result, err := searcher.Run(ctx, start)
		close(progress)
		outcome <- searchOutcome{result: result, err: err}
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		<-outcome
		return nil, err
	}
	cancel()
	o := <-outcome
	return o.result, o.err
}

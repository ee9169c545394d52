package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fwachter/quintus/config"
	"github.com/fwachter/quintus/search"
	"github.com/fwachter/quintus/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a search and stream progress and results over HTTP and websocket",
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
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

	srv := server.New(cfg.Server.Addr)
	searcher.OnProgress = srv.PublishProgress

	go func() {
		result, err := searcher.Run(ctx, start)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Printf("Search failed: %v", err)
			return
		}
		log.Printf("Search finished, best reward %.5f", result.Best.Reward)
		srv.PublishResult(result)
	}()

	err = srv.ListenAndServe(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

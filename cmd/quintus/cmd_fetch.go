package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fwachter/quintus/catalog"
)

var (
	fetchIndexURLs []string
	fetchDelay     time.Duration
	fetchMaxPages  int

	fetchCmd = &cobra.Command{
		Use:   "fetch",
		Short: "Fetch cantus firmus collections and print them as config snippets",
		RunE:  runFetch,
	}
)

func init() {
	fetchCmd.Flags().StringSliceVar(&fetchIndexURLs, "index", nil, "catalog index URLs to crawl")
	fetchCmd.Flags().DurationVar(&fetchDelay, "delay", 500*time.Millisecond, "delay between HTTP requests")
	fetchCmd.Flags().IntVar(&fetchMaxPages, "max-pages", 20, "maximum collection pages per index (0 = unlimited)")
}

// fetchedPiece is the printed YAML fragment: paste it under `piece:` in a
// config file to compose against the fetched melody.
type fetchedPiece struct {
	Name         string   `yaml:"name"`
	Tonic        string   `yaml:"tonic"`
	ScaleType    string   `yaml:"scale_type"`
	CantusFirmus []string `yaml:"cantus_firmus,flow"`
}

func runFetch(_ *cobra.Command, _ []string) error {
	if len(fetchIndexURLs) == 0 {
		return fmt.Errorf("at least one --index URL is required")
	}

	worker := catalog.NewWorker(catalog.Config{
		IndexURLs:    fetchIndexURLs,
		RequestDelay: fetchDelay,
		MaxPages:     fetchMaxPages,
	}, nil)

	out := make(chan catalog.CantusFirmus, 64)
	fetchErr := make(chan error, 1)
	go func() {
		fetchErr <- worker.Fetch(out)
		close(out)
	}()

	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()

	n := 0
	for entry := range out {
		err := enc.Encode([]fetchedPiece{{
			Name:         entry.Name,
			Tonic:        entry.Tonic,
			ScaleType:    entry.ScaleType,
			CantusFirmus: entry.Notes,
		}})
		if err != nil {
			return err
		}
		n++
	}
	if err := <-fetchErr; err != nil {
		return err
	}
	log.Printf("Fetched %d cantus firmus entries", n)
	return nil
}

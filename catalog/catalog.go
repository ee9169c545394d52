// Package catalog collects cantus firmus material from HTML collection
// pages, so compose runs can draw on more source melodies than the built-in
// default.
package catalog

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/fwachter/quintus/music"
)

// CantusFirmus is one catalog entry: a named melody in a declared scale.
type CantusFirmus struct {
	Name      string
	Tonic     string
	ScaleType string
	Notes     []string
}

// Config holds fetch worker configuration.
type Config struct {
	IndexURLs    []string      // collection index pages to crawl
	RequestDelay time.Duration // delay between HTTP requests to be polite
	MaxPages     int           // maximum collection pages per index (0 = unlimited)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RequestDelay: 500 * time.Millisecond,
		MaxPages:     20,
	}
}

// Worker fetches cantus firmus collections from catalog pages.
type Worker struct {
	config  Config
	client  *http.Client
	known   map[string]bool
	knownMu sync.Mutex
}

// NewWorker creates a fetch worker. existingNames seeds deduplication.
func NewWorker(config Config, existingNames map[string]bool) *Worker {
	if existingNames == nil {
		existingNames = make(map[string]bool)
	}
	return &Worker{
		config: config,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		known: existingNames,
	}
}

// Fetch crawls every configured index, follows collection links and sends
// new entries to the channel. Entries whose notes fall outside the declared
// scale are dropped with a log line.
func (w *Worker) Fetch(out chan<- CantusFirmus) error {
	log.Println("[Catalog] Starting catalog crawl...")

	totalNew := 0
	for _, indexURL := range w.config.IndexURLs {
		log.Printf("[Catalog] Scraping index: %s", indexURL)

		pages, err := w.getCollectionPages(indexURL)
		if err != nil {
			log.Printf("[Catalog] Error getting index %s: %v", indexURL, err)
			continue
		}
		if w.config.MaxPages > 0 && len(pages) > w.config.MaxPages {
			pages = pages[:w.config.MaxPages]
		}
		log.Printf("[Catalog] Found %d collection pages on %s", len(pages), indexURL)

		for i, pageURL := range pages {
			log.Printf("[Catalog] Fetching collection %d/%d: %s", i+1, len(pages), pageURL)

			entries, err := w.getCollection(pageURL)
			if err != nil {
				log.Printf("[Catalog] Error fetching %s: %v", pageURL, err)
				continue
			}
			for _, entry := range entries {
				w.knownMu.Lock()
				known := w.known[entry.Name]
				if !known {
					w.known[entry.Name] = true
				}
				w.knownMu.Unlock()
				if known {
					continue
				}
				out <- entry
				totalNew++
			}

			// Rate limiting.
			time.Sleep(w.config.RequestDelay)
		}
	}

	log.Printf("[Catalog] Crawl complete. Total new entries: %d", totalNew)
	return nil
}

// getCollectionPages fetches an index page and extracts collection links.
func (w *Worker) getCollectionPages(indexURL string) ([]string, error) {
	doc, err := w.get(indexURL)
	if err != nil {
		return nil, err
	}

	base := indexURL
	if i := strings.Index(base, "//"); i >= 0 {
		if j := strings.Index(base[i+2:], "/"); j >= 0 {
			base = base[:i+2+j]
		}
	}

	var pages []string
	seen := make(map[string]bool)
	doc.Find("a[href*='/collection/']").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || seen[href] {
			return
		}
		seen[href] = true
		if strings.HasPrefix(href, "/") {
			href = base + href
		}
		pages = append(pages, href)
	})
	return pages, nil
}

// getCollection fetches one collection page and parses its entries.
func (w *Worker) getCollection(pageURL string) ([]CantusFirmus, error) {
	doc, err := w.get(pageURL)
	if err != nil {
		return nil, err
	}
	return parseCollection(doc), nil
}

func (w *Worker) get(url string) (*goquery.Document, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "QuintusCatalog/1.0 (cantus-firmus-collector)")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// ParseCollection reads catalog entries from an HTML document. Rows are
// table rows with name, tonic, scale and space-separated note cells.
func ParseCollection(r io.Reader) ([]CantusFirmus, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return parseCollection(doc), nil
}

func parseCollection(doc *goquery.Document) []CantusFirmus {
	var entries []CantusFirmus
	doc.Find("table.cantus-firmi tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}
		entry := CantusFirmus{
			Name:      strings.TrimSpace(cells.Eq(0).Text()),
			Tonic:     strings.TrimSpace(cells.Eq(1).Text()),
			ScaleType: strings.TrimSpace(cells.Eq(2).Text()),
			Notes:     strings.Fields(cells.Eq(3).Text()),
		}
		if entry.Name == "" || len(entry.Notes) == 0 {
			return
		}
		if err := validateEntry(entry); err != nil {
			log.Printf("[Catalog] Dropping %q: %v", entry.Name, err)
			return
		}
		entries = append(entries, entry)
	})
	return entries
}

// validateEntry checks that every note of the entry belongs to its declared
// scale.
func validateEntry(entry CantusFirmus) error {
	scaleType, err := music.ParseScaleType(entry.ScaleType)
	if err != nil {
		return err
	}
	scale, err := music.BuildScale(entry.Tonic, scaleType)
	if err != nil {
		return err
	}
	for _, note := range entry.Notes {
		_, ok, err := scale.ElementByNote(note)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s does not belong to %s-%s scale", note, entry.Tonic, entry.ScaleType)
		}
	}
	return nil
}

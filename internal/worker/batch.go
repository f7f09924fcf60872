package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// Fetcher retrieves a single URL and stores it wherever it belongs
type Fetcher interface {
	FetchURL(ctx context.Context, url string) error
}

// FetchAll fetches every URL with at most concurrency requests in flight.
// Outcomes follow the order of urls.
func FetchAll(ctx context.Context, f Fetcher, urls []string, concurrency int) []Outcome {
	if len(urls) == 0 {
		return []Outcome{}
	}

	pool := NewPool(ctx, concurrency)
	for _, u := range urls {
		pool.Submit(u, func(ctx context.Context) error {
			return f.FetchURL(ctx, u)
		})
	}
	return pool.Wait()
}

// FirstError returns the first failed outcome as an error naming its URL
func FirstError(outcomes []Outcome) error {
	for _, o := range outcomes {
		if o.Err != nil {
			return fmt.Errorf("%s: %w", o.Name, o.Err)
		}
	}
	return nil
}

// ReadManifest reads asset paths from a file, one per line. Blank lines and
// lines starting with # are skipped and duplicates dropped.
func ReadManifest(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer func() { _ = file.Close() }()

	var entries []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || seen[line] {
			continue
		}
		seen[line] = true
		entries = append(entries, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan manifest: %w", err)
	}
	return entries, nil
}

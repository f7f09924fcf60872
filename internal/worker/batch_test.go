package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// mockFetcher implements Fetcher
type mockFetcher struct {
	mu      sync.Mutex
	fetched []string
	failOn  string
}

func (m *mockFetcher) FetchURL(ctx context.Context, url string) error {
	time.Sleep(5 * time.Millisecond)
	m.mu.Lock()
	m.fetched = append(m.fetched, url)
	m.mu.Unlock()
	if url == m.failOn {
		return errors.New("fetch error")
	}
	return nil
}

func TestFetchAll(t *testing.T) {
	fetcher := &mockFetcher{}
	urls := []string{"http://localhost/", "http://localhost/index.js", "http://localhost/style.css"}

	outcomes := FetchAll(context.Background(), fetcher, urls, 2)

	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	for i, o := range outcomes {
		if o.Name != urls[i] {
			t.Errorf("expected outcome %d for %s, got %s", i, urls[i], o.Name)
		}
	}
	if len(fetcher.fetched) != 3 {
		t.Errorf("expected 3 fetches, got %d", len(fetcher.fetched))
	}
	if err := FirstError(outcomes); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestFetchAll_Error(t *testing.T) {
	fetcher := &mockFetcher{failOn: "http://localhost/missing.css"}
	outcomes := FetchAll(context.Background(), fetcher, []string{"http://localhost/", "http://localhost/missing.css"}, 2)

	err := FirstError(outcomes)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "missing.css") {
		t.Errorf("expected error to name the URL, got %v", err)
	}
}

func TestFetchAll_Empty(t *testing.T) {
	if outcomes := FetchAll(context.Background(), &mockFetcher{}, nil, 2); len(outcomes) != 0 {
		t.Errorf("expected 0 outcomes, got %d", len(outcomes))
	}
}

func TestFetchAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &mockFetcher{}
	outcomes := FetchAll(ctx, fetcher, []string{"http://localhost/a", "http://localhost/b"}, 1)

	if len(outcomes) != 2 {
		t.Fatalf("expected one outcome per URL, got %d", len(outcomes))
	}
	if !errors.Is(FirstError(outcomes), context.Canceled) {
		t.Errorf("expected cancellation to surface as context.Canceled")
	}
	if len(fetcher.fetched) != 0 {
		t.Errorf("expected nothing fetched after cancellation, got %v", fetcher.fetched)
	}
}

func TestReadManifest(t *testing.T) {
	content := `./
# comment
./src/stylesheets/style.css

./index.js
./index.js`

	path := filepath.Join(t.TempDir(), "manifest.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := ReadManifest(path)
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}

	expected := []string{"./", "./src/stylesheets/style.css", "./index.js"}
	if len(entries) != len(expected) {
		t.Fatalf("expected %d entries, got %d", len(expected), len(entries))
	}
	for i, e := range entries {
		if e != expected[i] {
			t.Errorf("expected %s at index %d, got %s", expected[i], i, e)
		}
	}
}

func TestReadManifest_NonExistent(t *testing.T) {
	if _, err := ReadManifest("non_existent_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

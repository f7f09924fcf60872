package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ppiankov/schooldash/internal/chart"
	"github.com/ppiankov/schooldash/internal/locale"
	"github.com/ppiankov/schooldash/internal/pipeline"
)

const fixtureJSON = `{"updatedAt":"2019-03-01","data":[
 {"school_name":"GHS Adyar","district":"Chennai","category_of_school":"Primary","school_medium":"Tamil",
  "number_of_students":120,"number_of_staff":6,"number_of_restrooms":4,"availabilty_of_playground":"Yes",
  "number_of_differently_abled_student":1,"number_of_classrooms":8},
 {"school_name":"PUMS Melur","district":"Madurai","category_of_school":"Middle","school_medium":"English",
  "number_of_students":80,"number_of_staff":4,"number_of_restrooms":0,"availabilty_of_playground":"No",
  "number_of_differently_abled_student":0,"number_of_classrooms":5},
 {"school_name":"GPS Attur","district":"Salem","category_of_school":"Primary","school_medium":"Tamil",
  "number_of_students":"NULL","number_of_staff":2,"number_of_restrooms":2,"availabilty_of_playground":"NULL",
  "number_of_differently_abled_student":0,"number_of_classrooms":3}]}`

func newTestServer(t *testing.T, load bool, prefs *locale.Preferences) (*Server, *pipeline.Pipeline) {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, fixtureJSON)
	}))
	t.Cleanup(upstream.Close)

	p := pipeline.New(pipeline.Options{
		URL:     upstream.URL,
		Fetcher: pipeline.NewFetcher(upstream.Client(), "test-agent", 1<<20, nil, nil),
		Format:  chart.FormatSVG,
	})
	t.Cleanup(p.Close)
	if load {
		require.NoError(t, p.Load(context.Background()))
	}
	return New(p, Options{Preferences: prefs}), p
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestServer_NotLoaded(t *testing.T) {
	s, _ := newTestServer(t, false, nil)

	for _, path := range []string{"/api/dataset", "/api/views/1", "/api/views/2/chart", "/api/summary/3"} {
		rec := do(t, s, http.MethodGet, path, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}

	rec := do(t, s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["loaded"])
}

func TestServer_Dataset(t *testing.T) {
	s, p := newTestServer(t, true, nil)

	rec := do(t, s, http.MethodGet, "/api/dataset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(3), body["records"])
	assert.Equal(t, float64(1), body["faults"])
	assert.Equal(t, p.ID(), body["session"])
	assert.Equal(t, "en", body["locale"])
}

func TestServer_View(t *testing.T) {
	s, _ := newTestServer(t, true, nil)

	rec := do(t, s, http.MethodGet, "/api/views/3", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Category int        `json:"category"`
		Name     string     `json:"name"`
		Summary  string     `json:"summary"`
		Chart    IntentView `json:"chart"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Category)
	assert.Equal(t, "schools_without_restrooms", body.Name)
	assert.Equal(t, "1 of 3 schools have no restrooms.", body.Summary)
	require.Len(t, body.Chart.Points, 1)
	assert.Equal(t, "Madurai", body.Chart.Points[0].X)
	assert.NotEmpty(t, body.Chart.Points[0].Tooltip)
}

func TestServer_ViewUnknownCategoryFallsBack(t *testing.T) {
	s, _ := newTestServer(t, true, nil)

	for _, path := range []string{"/api/views/42", "/api/views/abc"} {
		rec := do(t, s, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, float64(1), decode(t, rec)["category"], path)
	}
}

func TestServer_Chart(t *testing.T) {
	s, _ := newTestServer(t, true, nil)

	rec := do(t, s, http.MethodGet, "/api/views/2/chart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")
}

func TestServer_ChartUnderConcurrentSelections(t *testing.T) {
	s, _ := newTestServer(t, true, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			path := fmt.Sprintf("/api/views/%d/chart", n%5+1)
			rec := do(t, s, http.MethodGet, path, "")
			assert.Equal(t, http.StatusOK, rec.Code, path)
			assert.Contains(t, rec.Body.String(), "<svg", path)
			assert.Equal(t, strconv.Itoa(rec.Body.Len()), rec.Header().Get("Content-Length"), path)
		}(i)
	}
	wg.Wait()
}

func TestServer_EmptyDataset(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"data": []}`)
	}))
	t.Cleanup(upstream.Close)

	p := pipeline.New(pipeline.Options{
		URL:     upstream.URL,
		Fetcher: pipeline.NewFetcher(upstream.Client(), "test-agent", 1<<20, nil, nil),
		Format:  chart.FormatSVG,
	})
	t.Cleanup(p.Close)
	require.NoError(t, p.Load(context.Background()))
	s := New(p, Options{})

	// Scatter views draw empty axes
	rec := do(t, s, http.MethodGet, "/api/views/3/chart", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// A bar chart needs at least one group
	rec = do(t, s, http.MethodGet, "/api/views/2/chart", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], chart.ErrNoData.Error())
}

func TestServer_Summary(t *testing.T) {
	s, _ := newTestServer(t, true, nil)

	rec := do(t, s, http.MethodGet, "/api/summary/5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1 of 3 schools have no playground.", decode(t, rec)["summary"])
}

func TestServer_SetLocale(t *testing.T) {
	prefs, err := locale.OpenPreferences(filepath.Join(t.TempDir(), "prefs.yaml"))
	require.NoError(t, err)
	s, p := newTestServer(t, true, prefs)

	rec := do(t, s, http.MethodPut, "/api/locale", `{"locale":"ta"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["reloaded"])
	assert.Equal(t, locale.Tamil, p.Dictionary().Tag)
	assert.Equal(t, locale.Tamil, prefs.Locale())

	reopened, err := locale.OpenPreferences(prefs.Path())
	require.NoError(t, err)
	assert.Equal(t, locale.Tamil, reopened.Locale())

	rec = do(t, s, http.MethodGet, "/api/locale", "")
	assert.Equal(t, "ta", decode(t, rec)["locale"])

	rec = do(t, s, http.MethodPut, "/api/locale", `{"locale":"fr"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPut, "/api/locale", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Views(t *testing.T) {
	s, _ := newTestServer(t, false, nil)

	rec := do(t, s, http.MethodGet, "/api/views", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out, 5)
}

func TestServer_CORS(t *testing.T) {
	s, _ := newTestServer(t, true, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

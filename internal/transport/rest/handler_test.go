package rest

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerem-kaynak/japanese-lookup/pkg/deinflect"
	"github.com/kerem-kaynak/japanese-lookup/pkg/lookup"
	"github.com/kerem-kaynak/japanese-lookup/pkg/term"
	"github.com/kerem-kaynak/japanese-lookup/pkg/termstore"
	"github.com/kerem-kaynak/japanese-lookup/pkg/yomitan"
)

func archive(t *testing.T, title string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	members := map[string]string{
		"index.json":       `{"title":"` + title + `","format":3,"revision":"r1"}`,
		"term_bank_1.json": `[["見る","みる","v1","v1",100,["to see"]],["走る","はしる","v5","v5",50,["to run"]]]`,
		"tag_bank_1.json":  `[["v1","partOfSpeech",0,"Ichidan verb",0]]`,
	}
	for name, body := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

type server struct {
	mux   *http.ServeMux
	store *termstore.Store
}

func newServer(t *testing.T) *server {
	t.Helper()
	store := termstore.Open("")
	d := deinflect.New(nil)
	engine := lookup.NewEngine(store, d)
	h := NewHandler(Deps{
		Engine:      engine,
		Scanner:     lookup.NewScanner(engine),
		Deinflector: d,
		Catalog:     store,
		Importer:    yomitan.NewImporter(store),
	}, slog.Default())

	mux := http.NewServeMux()
	h.Register(mux)
	NewHealthHandler(store, "test").Register(mux)
	return &server{mux: mux, store: store}
}

func (s *server) do(t *testing.T, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func (s *server) seed(t *testing.T) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/dictionaries", archive(t, "JMdict"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestImportDictionary(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/api/dictionaries", archive(t, "JMdict"))
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[importResponse](t, rec)
	assert.Equal(t, "imported", resp.Status)
	assert.Equal(t, 2, resp.Terms)

	rec = s.do(t, http.MethodPost, "/api/dictionaries", archive(t, "JMdict"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "skipped", decode[importResponse](t, rec).Status)

	rec = s.do(t, http.MethodPost, "/api/dictionaries", []byte("not a zip"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLookup(t *testing.T) {
	s := newServer(t)
	s.seed(t)

	rec := s.do(t, http.MethodGet, "/api/lookup?q="+url.QueryEscape("見た"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[lookupResponse](t, rec)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "見る", resp.Entries[0].Expression)
	assert.Equal(t, "見る", resp.Entries[0].Source)
	assert.Equal(t, []string{"past"}, resp.Entries[0].Reasons)

	rec = s.do(t, http.MethodGet, "/api/lookup?q=hello", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[lookupResponse](t, rec).Entries)

	rec = s.do(t, http.MethodGet, "/api/lookup", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScan(t *testing.T) {
	s := newServer(t)
	s.seed(t)

	rec := s.do(t, http.MethodGet, "/api/scan?text="+url.QueryEscape("昨日走った道")+"&start=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[scanResponse](t, rec)
	assert.True(t, resp.Matched)
	assert.Equal(t, "走った", resp.Text)
	assert.Equal(t, 3, resp.Length)

	rec = s.do(t, http.MethodGet, "/api/scan?text=abc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[scanResponse](t, rec).Matched)

	rec = s.do(t, http.MethodGet, "/api/scan?text=abc&start=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeinflect(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/api/deinflect?q="+url.QueryEscape("見た"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[deinflectResponse](t, rec)
	require.NotEmpty(t, resp.Candidates)
	assert.Equal(t, candidateJSON{Term: "見た", Rules: []string{}, Reasons: []string{}}, resp.Candidates[0])

	var found bool
	for _, c := range resp.Candidates {
		if c.Term == "見る" && len(c.Reasons) == 1 && c.Reasons[0] == "past" {
			found = true
			assert.Contains(t, c.Rules, "v1")
		}
	}
	assert.True(t, found)
}

func TestSearchDictionariesTags(t *testing.T) {
	s := newServer(t)
	s.seed(t)

	rec := s.do(t, http.MethodGet, "/api/search?word=running", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	search := decode[searchResponse](t, rec)
	require.Len(t, search.Entries, 1)
	assert.Equal(t, "走る", search.Entries[0].Expression)

	rec = s.do(t, http.MethodGet, "/api/dictionaries", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dicts := decode[dictionariesResponse](t, rec)
	require.Len(t, dicts.Dictionaries, 1)
	assert.Equal(t, "JMdict", dicts.Dictionaries[0].Title)
	assert.Equal(t, 2, dicts.Terms)

	rec = s.do(t, http.MethodGet, "/api/tags", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]term.TagDefinition](t, rec), 1)

	rec = s.do(t, http.MethodGet, "/api/tags/v1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ichidan verb", decode[term.TagDefinition](t, rec).Notes)

	rec = s.do(t, http.MethodGet, "/api/tags/none", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	s.seed(t)

	rec := s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[HealthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Components["store"].Terms)

	rec = s.do(t, http.MethodGet, "/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

type downStore struct{}

func (downStore) Stats(context.Context) (termstore.Stats, error) {
	return termstore.Stats{}, termstore.ErrStoreUnavailable
}

func TestHealth_StoreDown(t *testing.T) {
	h := NewHealthHandler(downStore{}, "test")
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "down", decode[HealthResponse](t, rec).Components["store"].Status)
}

type failingEngine struct{ err error }

func (f failingEngine) LookupDetailed(context.Context, string) ([]lookup.Match, error) {
	return nil, f.err
}

func TestLookup_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{termstore.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		h := NewHandler(Deps{Engine: failingEngine{err: tt.err}}, slog.Default())
		rec := httptest.NewRecorder()
		h.Lookup(rec, httptest.NewRequest(http.MethodGet, "/api/lookup?q="+url.QueryEscape("見た"), nil))
		assert.Equal(t, tt.code, rec.Code, tt.err.Error())
	}
}

// Package rest serves the lookup engine as a JSON HTTP API.
//
// Endpoints:
//
//	GET  /api/lookup?q=<text>
//	GET  /api/scan?text=<text>[&start=<rune offset>][&window=<runes>]
//	GET  /api/deinflect?q=<text>
//	GET  /api/search?word=<english word>
//	GET  /api/dictionaries
//	POST /api/dictionaries   body: Yomitan zip archive
//	GET  /api/tags
//	GET  /api/tags/{name}
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kerem-kaynak/japanese-lookup/pkg/deinflect"
	"github.com/kerem-kaynak/japanese-lookup/pkg/lookup"
	"github.com/kerem-kaynak/japanese-lookup/pkg/term"
	"github.com/kerem-kaynak/japanese-lookup/pkg/termstore"
	"github.com/kerem-kaynak/japanese-lookup/pkg/yomitan"
)

// MaxArchiveSize bounds uploaded dictionary archives.
const MaxArchiveSize = 512 << 20

type engine interface {
	LookupDetailed(ctx context.Context, text string) ([]lookup.Match, error)
}

type scanner interface {
	Scan(ctx context.Context, text string, start, maxWindow int) (lookup.Result, bool, error)
}

type deinflector interface {
	Deinflect(source string) []deinflect.Candidate
}

type catalog interface {
	Stats(ctx context.Context) (termstore.Stats, error)
	Dictionaries(ctx context.Context) ([]term.DictionaryInfo, error)
	Tags(ctx context.Context) ([]term.TagDefinition, error)
	Tag(ctx context.Context, name string) (term.TagDefinition, bool, error)
	SearchGlossary(ctx context.Context, word string) ([]term.Entry, error)
}

type importer interface {
	Import(ctx context.Context, b *termstore.Batch) (yomitan.Result, error)
}

// Deps are the services a Handler needs.
type Deps struct {
	Engine      engine
	Scanner     scanner
	Deinflector deinflector
	Catalog     catalog
	Importer    importer
}

// Handler serves the lookup API.
type Handler struct {
	deps Deps
	log  *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(deps Deps, logger *slog.Logger) *Handler {
	return &Handler{deps: deps, log: logger}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/lookup", h.Lookup)
	mux.HandleFunc("GET /api/scan", h.Scan)
	mux.HandleFunc("GET /api/deinflect", h.Deinflect)
	mux.HandleFunc("GET /api/search", h.Search)
	mux.HandleFunc("GET /api/dictionaries", h.Dictionaries)
	mux.HandleFunc("POST /api/dictionaries", h.ImportDictionary)
	mux.HandleFunc("GET /api/tags", h.Tags)
	mux.HandleFunc("GET /api/tags/{name}", h.Tag)
}

// ---- JSON response types ------------------------------------------------

type candidateJSON struct {
	Term    string   `json:"term"`
	Rules   []string `json:"rules"`
	Reasons []string `json:"reasons"`
}

type matchJSON struct {
	term.Entry
	Source  string   `json:"source"`
	Reasons []string `json:"reasons"`
}

type lookupResponse struct {
	Query   string      `json:"query"`
	Entries []matchJSON `json:"entries"`
}

type scanResponse struct {
	Matched bool `json:"matched"`
	lookup.Result
}

type deinflectResponse struct {
	Query      string          `json:"query"`
	Candidates []candidateJSON `json:"candidates"`
}

type searchResponse struct {
	Word    string       `json:"word"`
	Entries []term.Entry `json:"entries"`
}

type dictionariesResponse struct {
	Dictionaries []term.DictionaryInfo `json:"dictionaries"`
	Terms        int                   `json:"terms"`
	Tags         int                   `json:"tags"`
	Size         int64                 `json:"size"`
}

type importResponse struct {
	Status   string `json:"status"`
	Title    string `json:"title"`
	Revision string `json:"revision"`
	Terms    int    `json:"terms"`
	Tags     int    `json:"tags"`
	Cleared  bool   `json:"cleared"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toCandidateJSON(c deinflect.Candidate) candidateJSON {
	reasons := c.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	rules := c.Rules.Names()
	if rules == nil {
		rules = []string{}
	}
	return candidateJSON{Term: c.Term, Rules: rules, Reasons: reasons}
}

// ---- handlers -----------------------------------------------------------

// Lookup resolves q to ranked entries.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing 'q' query parameter")
		return
	}

	matches, err := h.deps.Engine.LookupDetailed(r.Context(), q)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	out := make([]matchJSON, 0, len(matches))
	for _, m := range matches {
		reasons := m.Candidate.Reasons
		if reasons == nil {
			reasons = []string{}
		}
		out = append(out, matchJSON{Entry: m.Entry, Source: m.Candidate.Term, Reasons: reasons})
	}
	writeJSON(w, http.StatusOK, lookupResponse{Query: q, Entries: out})
}

// Scan finds the longest match at start.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	text := query.Get("text")
	if text == "" {
		writeError(w, http.StatusBadRequest, "missing 'text' query parameter")
		return
	}
	start, ok := intParam(w, query.Get("start"), "start")
	if !ok {
		return
	}
	window, ok := intParam(w, query.Get("window"), "window")
	if !ok {
		return
	}

	res, matched, err := h.deps.Scanner.Scan(r.Context(), text, start, window)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if !matched {
		res = lookup.Result{Start: start, Entries: []term.Entry{}}
	}
	writeJSON(w, http.StatusOK, scanResponse{Matched: matched, Result: res})
}

// Deinflect lists the candidate dictionary forms of q.
func (h *Handler) Deinflect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing 'q' query parameter")
		return
	}

	cands := h.deps.Deinflector.Deinflect(q)
	out := make([]candidateJSON, 0, len(cands))
	for _, c := range cands {
		out = append(out, toCandidateJSON(c))
	}
	writeJSON(w, http.StatusOK, deinflectResponse{Query: q, Candidates: out})
}

// Search finds entries whose definitions contain word.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	word := r.URL.Query().Get("word")
	if word == "" {
		writeError(w, http.StatusBadRequest, "missing 'word' query parameter")
		return
	}

	entries, err := h.deps.Catalog.SearchGlossary(r.Context(), word)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if entries == nil {
		entries = []term.Entry{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Word: word, Entries: entries})
}

// Dictionaries lists imported dictionaries and store totals.
func (h *Handler) Dictionaries(w http.ResponseWriter, r *http.Request) {
	dicts, err := h.deps.Catalog.Dictionaries(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	st, err := h.deps.Catalog.Stats(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if dicts == nil {
		dicts = []term.DictionaryInfo{}
	}
	writeJSON(w, http.StatusOK, dictionariesResponse{
		Dictionaries: dicts,
		Terms:        st.Terms,
		Tags:         st.Tags,
		Size:         st.Size,
	})
}

// ImportDictionary imports the archive in the request body.
func (h *Handler) ImportDictionary(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxArchiveSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "archive too large")
			return
		}
		writeError(w, http.StatusBadRequest, "read body")
		return
	}

	b, err := yomitan.ReadArchiveFrom(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	res, err := h.deps.Importer.Import(r.Context(), b)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	status := http.StatusCreated
	if res.Status == termstore.StatusSkipped {
		status = http.StatusOK
	}
	writeJSON(w, status, importResponse{
		Status:   res.Status.String(),
		Title:    res.Title,
		Revision: res.Revision,
		Terms:    res.Terms,
		Tags:     res.Tags,
		Cleared:  res.Cleared,
	})
}

// Tags lists tag definitions.
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.deps.Catalog.Tags(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if tags == nil {
		tags = []term.TagDefinition{}
	}
	writeJSON(w, http.StatusOK, tags)
}

// Tag returns one tag definition.
func (h *Handler) Tag(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	tag, ok, err := h.deps.Catalog.Tag(r.Context(), name)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("tag %q not found", name))
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// ---- helpers ------------------------------------------------------------

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, yomitan.ErrInvalidArchive),
		errors.Is(err, yomitan.ErrInvalidRecord),
		errors.Is(err, termstore.ErrInvalidBatch):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, termstore.ErrStoreUnavailable):
		h.log.WarnContext(r.Context(), "store unavailable", slog.String("error", err.Error()))
		writeError(w, http.StatusServiceUnavailable, "term store unavailable")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		h.log.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func intParam(w http.ResponseWriter, raw, name string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("'%s' must be a non-negative integer", name))
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

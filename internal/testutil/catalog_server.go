// Package testutil provides an in-process fake of the card catalog API for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/masteraset/cardfetch/internal/models"
)

// PNGBody is a payload served for images; it is larger than the default skip threshold
// so downloaded files count as complete on a second run.
var PNGBody = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 12_000)...)

// CatalogServer serves /cards, /sets and /images/* the way the remote catalog does.
type CatalogServer struct {
	*httptest.Server

	mu          sync.Mutex
	cards       map[string][]models.Card
	sets        []models.Set
	cardsStatus map[string]int    // set id -> forced status for /cards
	imageStatus map[string][]int  // image path -> statuses returned before serving bytes
	images      map[string][]byte // image path -> body

	apiKey string

	cardRequests  atomic.Int64
	setRequests   atomic.Int64
	imageRequests atomic.Int64
	lastUserAgent atomic.Value
}

// NewCatalogServer starts a server that is closed when the test ends.
func NewCatalogServer(t *testing.T) *CatalogServer {
	t.Helper()
	s := &CatalogServer{
		cards:       make(map[string][]models.Card),
		cardsStatus: make(map[string]int),
		imageStatus: make(map[string][]int),
		images:      make(map[string][]byte),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// AddSet registers n cards for setID, each with a small and large image served by s.
func (s *CatalogServer) AddSet(setID string, n int) []models.Card {
	cards := make([]models.Card, 0, n)
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("%s-%d", setID, i)
		cards = append(cards, models.Card{
			ID:     id,
			Name:   fmt.Sprintf("Card %d", i),
			Number: strconv.Itoa(i),
			Images: map[string]string{
				"small": s.AddImage(fmt.Sprintf("/images/%s/%d.png", setID, i), PNGBody),
				"large": s.AddImage(fmt.Sprintf("/images/%s/%d_hires.png", setID, i), PNGBody),
			},
		})
	}
	s.SetCards(setID, cards)
	return cards
}

// SetCards replaces the cards served for setID.
func (s *CatalogServer) SetCards(setID string, cards []models.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[setID] = cards
	s.sets = append(s.sets, models.Set{ID: setID, Name: strings.ToUpper(setID), Total: len(cards)})
}

// AddImage serves body at path and returns its absolute URL.
func (s *CatalogServer) AddImage(path string, body []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[path] = body
	return s.URL + path
}

// RequireAPIKey makes every request without X-Api-Key: key answer 401.
func (s *CatalogServer) RequireAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = key
}

// FailCards makes every /cards request for setID answer with status.
func (s *CatalogServer) FailCards(setID string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cardsStatus[setID] = status
}

// FailImage makes the next len(statuses) requests for path answer with those statuses.
func (s *CatalogServer) FailImage(path string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imageStatus[path] = append(s.imageStatus[path], statuses...)
}

func (s *CatalogServer) CardRequests() int  { return int(s.cardRequests.Load()) }
func (s *CatalogServer) SetRequests() int   { return int(s.setRequests.Load()) }
func (s *CatalogServer) ImageRequests() int { return int(s.imageRequests.Load()) }

// LastUserAgent returns the User-Agent of the most recent request.
func (s *CatalogServer) LastUserAgent() string {
	ua, _ := s.lastUserAgent.Load().(string)
	return ua
}

func (s *CatalogServer) handle(w http.ResponseWriter, r *http.Request) {
	s.lastUserAgent.Store(r.Header.Get("User-Agent"))

	s.mu.Lock()
	apiKey := s.apiKey
	s.mu.Unlock()

	if apiKey != "" && r.Header.Get("X-Api-Key") != apiKey {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch {
	case r.URL.Path == "/cards":
		s.cardRequests.Add(1)
		s.serveCards(w, r)
	case r.URL.Path == "/sets":
		s.setRequests.Add(1)
		s.serveSets(w, r)
	case strings.HasPrefix(r.URL.Path, "/images/"):
		s.imageRequests.Add(1)
		s.serveImage(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *CatalogServer) serveCards(w http.ResponseWriter, r *http.Request) {
	setID := strings.TrimPrefix(r.URL.Query().Get("q"), "set.id:")

	s.mu.Lock()
	status, failing := s.cardsStatus[setID]
	cards := s.cards[setID]
	s.mu.Unlock()

	if failing {
		w.WriteHeader(status)
		return
	}
	writePage(w, r, cards)
}

func (s *CatalogServer) serveSets(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	sets := append([]models.Set(nil), s.sets...)
	s.mu.Unlock()

	writePage(w, r, sets)
}

func (s *CatalogServer) serveImage(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	body, ok := s.images[r.URL.Path]
	var status int
	if queued := s.imageStatus[r.URL.Path]; len(queued) > 0 {
		status = queued[0]
		s.imageStatus[r.URL.Path] = queued[1:]
	}
	s.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(body)
}

func writePage[T any](w http.ResponseWriter, r *http.Request, all []T) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 250
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}

	resp := models.Page[T]{
		Data:       all[start:end],
		Page:       page,
		PageSize:   pageSize,
		Count:      end - start,
		TotalCount: len(all),
	}
	if resp.Data == nil {
		resp.Data = []T{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

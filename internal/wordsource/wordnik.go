package wordsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	game "github.com/CodeAndHammer/rootword/internal/game"
	util "github.com/CodeAndHammer/rootword/internal/util"
)

var (
	ErrMissingAPIKey = errors.New("wordnik api key cannot be empty")
	ErrInvalidAPIKey = errors.New("wordnik api key is invalid")
)

// ErrStatus is returned for non-2xx upstream responses.
type ErrStatus struct {
	Code int
	Body string
}

func (e *ErrStatus) Error() string {
	return fmt.Sprintf("wordnik returned status %d: %s", e.Code, e.Body)
}

const (
	DefaultWordnikURL   = "https://api.wordnik.com/v4"
	DefaultMinLength    = 7
	DefaultMaxAttempts  = 5
	defaultTimeout      = 5 * time.Second
	maxErrorBodyInBytes = 512
)

var definitionSources = []string{"ahd-5", "wordnet", "wiktionary"}

// Wordnik is a WordSource backed by the Wordnik REST API.
type Wordnik struct {
	baseURL     string
	apiKey      string
	client      *http.Client
	timeout     time.Duration
	limiter     *rate.Limiter
	cache       ValidationCache
	common      map[string]struct{}
	minLength   int
	maxAttempts int
}

type WordnikOption func(*Wordnik)

func WithBaseURL(u string) WordnikOption {
	return func(w *Wordnik) {
		if u != "" {
			w.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(c *http.Client) WordnikOption {
	return func(w *Wordnik) {
		if c != nil {
			w.client = c
		}
	}
}

// WithTimeout bounds each upstream call, including the wait for the rate
// limiter. The http.Client itself is left untouched.
func WithTimeout(d time.Duration) WordnikOption {
	return func(w *Wordnik) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithRateLimit throttles upstream calls to rps with the given burst.
func WithRateLimit(rps float64, burst int) WordnikOption {
	return func(w *Wordnik) {
		if rps <= 0 {
			w.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		w.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithCache(c ValidationCache) WordnikOption {
	return func(w *Wordnik) {
		if c != nil {
			w.cache = c
		}
	}
}

func WithCommonWords(set map[string]struct{}) WordnikOption {
	return func(w *Wordnik) {
		w.common = set
	}
}

func WithMinLength(n int) WordnikOption {
	return func(w *Wordnik) {
		if n > 0 {
			w.minLength = n
		}
	}
}

func WithMaxAttempts(n int) WordnikOption {
	return func(w *Wordnik) {
		if n > 0 {
			w.maxAttempts = n
		}
	}
}

func NewWordnik(apiKey string, opts ...WordnikOption) (*Wordnik, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	w := &Wordnik{
		baseURL:     DefaultWordnikURL,
		apiKey:      apiKey,
		client:      &http.Client{},
		timeout:     defaultTimeout,
		cache:       NewMemoryCache(DefaultCacheSize, DefaultCacheTTL, nil),
		common:      map[string]struct{}{},
		minLength:   DefaultMinLength,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

type tokenStatus struct {
	Valid          bool  `json:"valid"`
	RemainingCalls int64 `json:"remainingCalls"`
}

// Validate checks the API key against the token status endpoint.
func (w *Wordnik) Validate(ctx context.Context) error {
	var status tokenStatus
	if err := w.getJSON(ctx, "/account.json/apiTokenStatus", nil, &status); err != nil {
		var se *ErrStatus
		if errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden) {
			return ErrInvalidAPIKey
		}
		return fmt.Errorf("validate wordnik key: %w", err)
	}
	if !status.Valid {
		return ErrInvalidAPIKey
	}
	util.LogInfo("Wordnik API key is valid (%d calls remaining)", status.RemainingCalls)
	return nil
}

type randomWordResponse struct {
	Word string `json:"word"`
}

// RandomWord asks for a dictionary word of at least the configured length,
// retrying when upstream hands back something shorter.
func (w *Wordnik) RandomWord(ctx context.Context) (string, error) {
	q := url.Values{}
	q.Set("hasDictionaryDef", "true")
	q.Set("minLength", strconv.Itoa(w.minLength))

	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		var resp randomWordResponse
		if err := w.getJSON(ctx, "/words.json/randomWord", q, &resp); err != nil {
			return "", fmt.Errorf("fetch random word: %w", err)
		}
		word := game.Normalize(resp.Word)
		if utf8.RuneCountInString(word) >= w.minLength {
			return word, nil
		}
		util.Logger(ctx).Debug().Str("word", word).Int("attempt", attempt).Msg("random word too short, retrying")
	}
	return "", fmt.Errorf("no word of %d+ letters after %d attempts", w.minLength, w.maxAttempts)
}

// WordExists consults the common-word set, then the cache, then the
// definitions endpoint. Upstream failures count as "does not exist" and are
// not cached.
func (w *Wordnik) WordExists(ctx context.Context, word string) bool {
	word = game.Normalize(word)
	if word == "" {
		return false
	}
	if _, ok := w.common[word]; ok {
		return true
	}
	if valid, ok := w.cache.Get(ctx, word); ok {
		return valid
	}

	q := url.Values{}
	q.Set("sourceDictionaries", strings.Join(definitionSources, ","))
	q.Set("limit", "1")
	var defs []json.RawMessage
	err := w.getJSON(ctx, "/word.json/"+url.PathEscape(word)+"/definitions", q, &defs)
	if err != nil {
		var se *ErrStatus
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			w.cache.Set(ctx, word, false)
			return false
		}
		util.Logger(ctx).Warn().Err(err).Str("word", word).Msg("word lookup failed")
		return false
	}
	valid := len(defs) > 0
	w.cache.Set(ctx, word, valid)
	return valid
}

func (w *Wordnik) getJSON(ctx context.Context, endpoint string, q url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	target := w.baseURL + endpoint
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api_key", w.apiKey)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyInBytes))
		return &ErrStatus{Code: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

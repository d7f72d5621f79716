package wordsource

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"unicode/utf8"

	"github.com/samber/lo"

	game "github.com/CodeAndHammer/rootword/internal/game"
	util "github.com/CodeAndHammer/rootword/internal/util"
)

var ErrEmptyWordList = errors.New("word list has no usable target words")

var (
	_ game.WordSource = (*ListSource)(nil)
	_ game.Hinter     = (*ListSource)(nil)
)

type WordEntry struct {
	Word string `json:"word"`
	Hint string `json:"hint"`
}

type WordList struct {
	Words []WordEntry `json:"words"`
}

// ListSource serves target words from a static list. A word exists when it
// is either a target word or in the accepted set.
type ListSource struct {
	targets []WordEntry
	known   map[string]struct{}
	hintMap map[string]string
}

// NewListSource keeps entries with at least minLen letters as targets. All
// entries, whatever their length, count as known words.
func NewListSource(entries []WordEntry, accepted map[string]struct{}, minLen int) (*ListSource, error) {
	normalized := lo.FilterMap(entries, func(e WordEntry, _ int) (WordEntry, bool) {
		e.Word = game.Normalize(e.Word)
		return e, e.Word != ""
	})

	targets := lo.Filter(normalized, func(e WordEntry, _ int) bool {
		if utf8.RuneCountInString(e.Word) < minLen {
			util.LogDebug("Skipping target %q: shorter than %d letters", e.Word, minLen)
			return false
		}
		return true
	})
	if len(targets) == 0 {
		return nil, ErrEmptyWordList
	}

	known := make(map[string]struct{}, len(normalized)+len(accepted))
	lo.ForEach(normalized, func(e WordEntry, _ int) {
		known[e.Word] = struct{}{}
	})
	for w := range accepted {
		known[game.Normalize(w)] = struct{}{}
	}

	return &ListSource{
		targets: targets,
		known:   known,
		hintMap: lo.Associate(normalized, func(e WordEntry) (string, string) {
			return e.Word, e.Hint
		}),
	}, nil
}

// LoadListSource reads the words file and, when acceptedPath is not empty,
// the accepted-words file.
func LoadListSource(wordsPath, acceptedPath string, minLen int) (*ListSource, error) {
	util.LogInfo("Loading words from %s", wordsPath)
	data, err := os.ReadFile(wordsPath)
	if err != nil {
		return nil, fmt.Errorf("read words: %w", err)
	}
	var wl WordList
	if err := json.Unmarshal(data, &wl); err != nil {
		return nil, fmt.Errorf("decode words %s: %w", wordsPath, err)
	}

	accepted := map[string]struct{}{}
	if acceptedPath != "" {
		util.LogInfo("Loading accepted words from %s", acceptedPath)
		accepted, err = LoadWordSet(acceptedPath)
		if err != nil {
			return nil, fmt.Errorf("read accepted words: %w", err)
		}
	}

	src, err := NewListSource(wl.Words, accepted, minLen)
	if err != nil {
		return nil, err
	}
	util.LogInfo("Loaded %d target words and %d known words", len(src.targets), len(src.known))
	return src, nil
}

func (s *ListSource) RandomWord(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		util.Logger(ctx).Warn().Err(err).Msg("random word cancelled")
		return "", err
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(s.targets))))
	if err != nil {
		util.Logger(ctx).Warn().Err(err).Msg("error generating random number, using fallback")
		return s.targets[0].Word, nil
	}
	return s.targets[n.Int64()].Word, nil
}

func (s *ListSource) WordExists(_ context.Context, word string) bool {
	_, ok := s.known[game.Normalize(word)]
	return ok
}

// Hint returns the hint recorded for word, or "".
func (s *ListSource) Hint(word string) string {
	return s.hintMap[game.Normalize(word)]
}

func (s *ListSource) Len() int { return len(s.targets) }

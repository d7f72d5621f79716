package game

import "context"

// WordSource supplies target words and answers dictionary lookups.
// Implementations must bound their own latency; a session holds its lock
// while calling WordExists.
type WordSource interface {
	// RandomWord returns a fresh target word. An empty word or a non-nil
	// error both mean no word is available right now.
	RandomWord(ctx context.Context) (string, error)
	WordExists(ctx context.Context, word string) bool
}

// Hinter is implemented by word sources that carry a clue for their target
// words.
type Hinter interface {
	Hint(word string) string
}

package wordsource

import (
	"bufio"
	"fmt"
	"os"

	game "github.com/CodeAndHammer/rootword/internal/game"
)

// LoadWordSet reads one word per line. Blank lines and lines starting with
// '#' are skipped; words are case-folded.
func LoadWordSet(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	set := make(map[string]struct{})
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := game.Normalize(sc.Text())
		if w == "" || w[0] == '#' {
			continue
		}
		set[w] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return set, nil
}

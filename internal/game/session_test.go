package game

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type fakeWords struct {
	mu       sync.Mutex
	queue    []string
	dict     map[string]bool
	err      error
	onExists func()
}

func newFakeWords(queue []string, dict ...string) *fakeWords {
	f := &fakeWords{queue: queue, dict: make(map[string]bool)}
	for _, w := range dict {
		f.dict[w] = true
	}
	return f
}

func (f *fakeWords) RandomWord(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if len(f.queue) == 0 {
		return "", nil
	}
	w := f.queue[0]
	f.queue = f.queue[1:]
	return w, nil
}

func (f *fakeWords) WordExists(_ context.Context, word string) bool {
	if f.onExists != nil {
		f.onExists()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dict[word]
}

func newTestSession(t *testing.T, words *fakeWords) (*Session, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	s, err := New(context.Background(), "sess-1", "Player 1", words, WithClock(clock))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, clock
}

func TestNewIssuesFirstWordAndStartsTimer(t *testing.T) {
	s, _ := newTestSession(t, newFakeWords([]string{"Potato"}))

	if s.CurrentWord() != "potato" {
		t.Fatalf("expected folded first word potato, got %q", s.CurrentWord())
	}
	want := Letters{'p': 1, 'o': 2, 't': 2, 'a': 1}
	if !reflect.DeepEqual(s.Letters(), want) {
		t.Fatalf("letters = %v, want %v", s.Letters(), want)
	}
	if s.RemainingTime() != DefaultRoundDuration {
		t.Fatalf("remaining = %s, want %s", s.RemainingTime(), DefaultRoundDuration)
	}
	if s.Status() != "Timer started for 60 seconds" {
		t.Fatalf("unexpected status %q", s.Status())
	}
}

func TestNewRejectsNilWordSource(t *testing.T) {
	if _, err := New(context.Background(), "id", "p", nil); !errors.Is(err, ErrNilWordSource) {
		t.Fatalf("expected ErrNilWordSource, got %v", err)
	}
}

func TestNewFailsWhenNoWordAvailable(t *testing.T) {
	words := newFakeWords(nil)
	words.err = errors.New("upstream down")
	if _, err := New(context.Background(), "id", "p", words); !errors.Is(err, ErrWordUnavailable) {
		t.Fatalf("expected ErrWordUnavailable, got %v", err)
	}
}

func TestSubmitConsumesLetters(t *testing.T) {
	s, _ := newTestSession(t, newFakeWords([]string{"potato"}, "pot"))

	if !s.Submit(context.Background(), "pot") {
		t.Fatalf("expected pot to be accepted, status %q", s.Status())
	}
	if s.Score() != 150 {
		t.Fatalf("score = %d, want 150", s.Score())
	}
	want := Letters{'p': 0, 'o': 1, 't': 1, 'a': 1}
	if !reflect.DeepEqual(s.Letters(), want) {
		t.Fatalf("letters = %v, want %v", s.Letters(), want)
	}

	if s.Submit(context.Background(), "pot") {
		t.Fatal("expected second pot to be rejected once p is exhausted")
	}
	if s.Score() != 150 || !reflect.DeepEqual(s.Letters(), want) {
		t.Fatal("rejected submission must not change score or letters")
	}
	if !reflect.DeepEqual(s.SubmittedWords(), []string{"pot"}) {
		t.Fatalf("submitted = %v", s.SubmittedWords())
	}
}

func TestSubmitIsCaseInsensitive(t *testing.T) {
	s, _ := newTestSession(t, newFakeWords([]string{"potato"}, "pot"))
	if !s.Submit(context.Background(), "  POT ") {
		t.Fatalf("expected POT to be accepted, status %q", s.Status())
	}
	if s.SubmittedWords()[0] != "pot" {
		t.Fatalf("expected folded submission, got %q", s.SubmittedWords()[0])
	}
}

func TestSubmitRejections(t *testing.T) {
	cases := []struct {
		name   string
		word   string
		status string
	}{
		{"empty", "", "Submitted word cannot be empty"},
		{"blank", "   ", "Submitted word cannot be empty"},
		{"current target", "POTATO", "Submitted word cannot equal current game word"},
		{"missing letters", "pots", "Submitted word: pots uses letters that are not available"},
		{"unknown word", "tap", "Submitted word: tap is not a recognized word"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newTestSession(t, newFakeWords([]string{"potato"}, "pot", "potato", "pots"))
			before := s.Letters()
			if s.Submit(context.Background(), tc.word) {
				t.Fatalf("expected %q to be rejected", tc.word)
			}
			if s.Status() != tc.status {
				t.Fatalf("status = %q, want %q", s.Status(), tc.status)
			}
			if s.Score() != 0 || !reflect.DeepEqual(s.Letters(), before) || len(s.SubmittedWords()) != 0 {
				t.Fatal("rejected submission mutated the session")
			}
		})
	}
}

func TestFullLengthMatchAwardsBonusAndIssuesWord(t *testing.T) {
	s, _ := newTestSession(t, newFakeWords([]string{"listen", "garden"}, "silent"))

	if !s.Submit(context.Background(), "silent") {
		t.Fatalf("expected silent to be accepted, status %q", s.Status())
	}
	if s.Score() != 6*PointsPerLetter+FullMatchBonus {
		t.Fatalf("score = %d, want %d", s.Score(), 6*PointsPerLetter+FullMatchBonus)
	}
	if !reflect.DeepEqual(s.GivenWords(), []string{"listen", "garden"}) {
		t.Fatalf("given = %v", s.GivenWords())
	}
	if !reflect.DeepEqual(s.Letters(), CountLetters("garden")) {
		t.Fatalf("letters should be reset to the new word, got %v", s.Letters())
	}
}

func TestBonusMeasuresAgainstFirstWord(t *testing.T) {
	s, _ := newTestSession(t, newFakeWords([]string{"listen", "painters", "pantries"}, "silent", "pantries", "pertains"))

	if !s.Submit(context.Background(), "silent") {
		t.Fatalf("silent rejected: %q", s.Status())
	}
	// The second target has 8 letters but the bonus length stays 6.
	if !s.Submit(context.Background(), "pertains") {
		t.Fatalf("pertains rejected: %q", s.Status())
	}
	if s.Score() != 800+8*PointsPerLetter {
		t.Fatalf("score = %d, want %d", s.Score(), 800+8*PointsPerLetter)
	}
	if s.WordsIssued() != 2 {
		t.Fatalf("expected no extra word without a bonus, got %d issued", s.WordsIssued())
	}
}

func TestBonusSkipsNewWordWhenRoundEndsDuringValidation(t *testing.T) {
	words := newFakeWords([]string{"listen", "garden"}, "silent")
	s, clock := newTestSession(t, words)
	words.onExists = func() { clock.Advance(DefaultRoundDuration) }

	if !s.Submit(context.Background(), "silent") {
		t.Fatalf("expected silent to be accepted, status %q", s.Status())
	}
	if s.Score() != 800 {
		t.Fatalf("score = %d, want 800", s.Score())
	}
	if s.WordsIssued() != 1 {
		t.Fatalf("expected no new word after expiry, got %v", s.GivenWords())
	}
}

func TestSubmitAfterExpiryIsRejected(t *testing.T) {
	s, clock := newTestSession(t, newFakeWords([]string{"potato"}, "pot", "top"))

	clock.Advance(DefaultRoundDuration + time.Second)
	if s.Submit(context.Background(), "pot") {
		t.Fatal("expected submission after expiry to be rejected")
	}
	if s.Status() != "Round expired for session: sess-1" {
		t.Fatalf("unexpected status %q", s.Status())
	}
	for i := 0; i < 3; i++ {
		if !s.IsExpired() {
			t.Fatal("IsExpired must stay true once the round is over")
		}
		if s.Submit(context.Background(), "top") {
			t.Fatal("expected every later submission to be rejected")
		}
	}
	if s.Score() != 0 || !reflect.DeepEqual(s.Letters(), CountLetters("potato")) {
		t.Fatal("expired session was mutated")
	}
	if s.RemainingTime() != 0 {
		t.Fatalf("remaining = %s, want 0", s.RemainingTime())
	}
}

func TestIsExpiredAtExactDeadline(t *testing.T) {
	s, clock := newTestSession(t, newFakeWords([]string{"potato"}))
	clock.Advance(DefaultRoundDuration - time.Millisecond)
	if s.IsExpired() {
		t.Fatal("round should still be live just before the deadline")
	}
	clock.Advance(time.Millisecond)
	if !s.IsExpired() {
		t.Fatal("round should expire exactly at the deadline")
	}
}

func TestStartRoundReplacesTimer(t *testing.T) {
	s, clock := newTestSession(t, newFakeWords([]string{"potato"}))
	clock.Advance(DefaultRoundDuration)
	if !s.IsExpired() {
		t.Fatal("expected expiry")
	}
	s.StartRound(30 * time.Second)
	if s.IsExpired() {
		t.Fatal("a new round should be live")
	}
	if s.RemainingTime() != 30*time.Second {
		t.Fatalf("remaining = %s, want 30s", s.RemainingTime())
	}
}

func TestIssueNewWordFailureLeavesStateUnchanged(t *testing.T) {
	words := newFakeWords([]string{"potato"})
	s, _ := newTestSession(t, words)
	before := s.Snapshot()

	err := s.IssueNewWord(context.Background())
	if !errors.Is(err, ErrWordUnavailable) {
		t.Fatalf("expected ErrWordUnavailable, got %v", err)
	}
	if s.Status() != "Could not fetch a new word, please try again" {
		t.Fatalf("unexpected status %q", s.Status())
	}
	after := s.Snapshot()
	if !reflect.DeepEqual(before.Letters, after.Letters) || !reflect.DeepEqual(before.GivenWords, after.GivenWords) {
		t.Fatal("failed issuance must not change letters or given words")
	}

	words.queue = []string{"garden"}
	if err := s.IssueNewWord(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if s.CurrentWord() != "garden" {
		t.Fatalf("current = %q, want garden", s.CurrentWord())
	}
}

func TestReadsAreIdempotent(t *testing.T) {
	s, clock := newTestSession(t, newFakeWords([]string{"potato"}, "pot"))
	s.Submit(context.Background(), "pot")
	clock.Advance(10 * time.Second)

	first := s.EndRound()
	snap := s.Snapshot()
	for i := 0; i < 3; i++ {
		_ = s.RemainingTime()
		if got := s.EndRound(); !reflect.DeepEqual(got, first) {
			t.Fatalf("EndRound changed: %+v vs %+v", got, first)
		}
		if got := s.Snapshot(); !reflect.DeepEqual(got, snap) {
			t.Fatalf("Snapshot changed: %+v vs %+v", got, snap)
		}
	}
	if first.Score != 150 || first.PlayerName != "Player 1" {
		t.Fatalf("unexpected summary %+v", first)
	}
}

func TestSummaryIsACopy(t *testing.T) {
	s, _ := newTestSession(t, newFakeWords([]string{"potato"}, "pot"))
	s.Submit(context.Background(), "pot")
	sum := s.EndRound()
	sum.SubmittedWords[0] = "changed"
	sum.GivenWords[0] = "changed"
	if s.SubmittedWords()[0] != "pot" || s.CurrentWord() != "potato" {
		t.Fatal("summary slices must not alias session state")
	}
}

type hintedWords struct {
	*fakeWords
	hints map[string]string
}

func (h hintedWords) Hint(word string) string { return h.hints[word] }

func TestSnapshotCarriesHintForCurrentWord(t *testing.T) {
	words := hintedWords{
		fakeWords: newFakeWords([]string{"listen", "garden"}, "silent"),
		hints:     map[string]string{"listen": "pay attention", "garden": "plants grow here"},
	}
	s, err := New(context.Background(), "sess-1", "Player 1", words, WithClock(clockwork.NewFakeClock()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := s.Snapshot().Hint; got != "pay attention" {
		t.Fatalf("hint = %q, want pay attention", got)
	}
	s.Submit(context.Background(), "silent")
	if got := s.Snapshot().Hint; got != "plants grow here" {
		t.Fatalf("hint after new word = %q, want plants grow here", got)
	}
}

func TestSnapshotWithoutHinterHasNoHint(t *testing.T) {
	s, _ := newTestSession(t, newFakeWords([]string{"potato"}))
	if s.Snapshot().Hint != "" {
		t.Fatal("expected empty hint from a source without hints")
	}
}

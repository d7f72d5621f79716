package game

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	util "github.com/CodeAndHammer/rootword/internal/util"
)

const (
	PointsPerLetter      = 50
	FullMatchBonus       = 500
	DefaultRoundDuration = 60 * time.Second
)

var (
	ErrNilWordSource   = errors.New("word source cannot be nil")
	ErrWordUnavailable = errors.New("no word available from word source")
)

type roundTimer struct {
	start    time.Time
	duration time.Duration
	active   bool
}

// Session is one player's play-through. It is not safe for concurrent use;
// callers serialize access (see session.Registry).
type Session struct {
	id         string
	playerName string
	score      int
	status     string

	letters        Letters
	givenWords     []string
	submittedWords []string
	timer          roundTimer

	words         WordSource
	clock         clockwork.Clock
	roundDuration time.Duration
}

type Option func(*Session)

func WithClock(clock clockwork.Clock) Option {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithRoundDuration(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.roundDuration = d
		}
	}
}

// New builds a session, issues its first word and starts the round timer.
func New(ctx context.Context, id, playerName string, words WordSource, opts ...Option) (*Session, error) {
	if words == nil {
		return nil, ErrNilWordSource
	}
	s := &Session{
		id:             id,
		playerName:     playerName,
		status:         "Let the game begin!",
		letters:        Letters{},
		givenWords:     []string{},
		submittedWords: []string{},
		words:          words,
		clock:          clockwork.NewRealClock(),
		roundDuration:  DefaultRoundDuration,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.IssueNewWord(ctx); err != nil {
		return nil, fmt.Errorf("initialize session %s: %w", id, err)
	}
	util.Logger(ctx).Info().
		Str("session_id", id).
		Str("word", s.CurrentWord()).
		Msg("session initialized")
	s.StartRound(s.roundDuration)
	return s, nil
}

func (s *Session) ID() string         { return s.id }
func (s *Session) PlayerName() string { return s.playerName }
func (s *Session) Score() int         { return s.score }
func (s *Session) Status() string     { return s.status }

func (s *Session) Letters() Letters { return s.letters.Clone() }

func (s *Session) GivenWords() []string     { return slices.Clone(s.givenWords) }
func (s *Session) SubmittedWords() []string { return slices.Clone(s.submittedWords) }

// WordsIssued is the number of target words handed out so far.
func (s *Session) WordsIssued() int { return len(s.givenWords) }

// CurrentWord is the most recently issued target word.
func (s *Session) CurrentWord() string {
	if len(s.givenWords) == 0 {
		return ""
	}
	return s.givenWords[len(s.givenWords)-1]
}

// StartRound replaces any previous timer.
func (s *Session) StartRound(d time.Duration) {
	s.timer = roundTimer{start: s.clock.Now(), duration: d, active: true}
	s.status = fmt.Sprintf("Timer started for %d seconds", int(d.Seconds()))
	log.Debug().Str("session_id", s.id).Time("start", s.timer.start).Msg("round timer started")
}

func (s *Session) RemainingTime() time.Duration {
	if !s.timer.active {
		return 0
	}
	remaining := s.timer.duration - s.clock.Since(s.timer.start)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsExpired reports whether the round is over. The first call that observes
// the deadline flips the timer inactive; from then on it keeps returning true.
func (s *Session) IsExpired() bool {
	if !s.timer.active {
		return !s.timer.start.IsZero()
	}
	if s.clock.Since(s.timer.start) < s.timer.duration {
		return false
	}
	s.timer.active = false
	s.status = "Time's up!"
	log.Info().Str("session_id", s.id).Int("score", s.score).Msg("round timer expired")
	return true
}

// IssueNewWord pulls a word from the word source. On failure the letters and
// word history are left untouched and the status records the failure.
func (s *Session) IssueNewWord(ctx context.Context) error {
	word, err := s.words.RandomWord(ctx)
	word = Normalize(word)
	if err != nil || word == "" {
		s.status = "Could not fetch a new word, please try again"
		if err == nil {
			err = ErrWordUnavailable
		} else {
			err = fmt.Errorf("%w: %w", ErrWordUnavailable, err)
		}
		util.Logger(ctx).Warn().Err(err).Str("session_id", s.id).Msg("failed to issue new word")
		return err
	}

	s.letters = CountLetters(word)
	s.givenWords = append(s.givenWords, word)
	util.Logger(ctx).Debug().Str("session_id", s.id).Str("word", word).Msg("issued new word")
	return nil
}

// Submit plays word against the current letters. Ordinary bad input is
// reported as false with an explanatory status, never as an error.
func (s *Session) Submit(ctx context.Context, word string) bool {
	logger := util.Logger(ctx).With().Str("session_id", s.id).Logger()

	if s.IsExpired() {
		s.status = "Round expired for session: " + s.id
		logger.Info().Int("score", s.score).Msg("submission received after timer expired")
		return false
	}

	word = Normalize(word)
	if word == "" {
		s.status = "Submitted word cannot be empty"
		return false
	}
	if word == s.CurrentWord() {
		s.status = "Submitted word cannot equal current game word"
		return false
	}

	remaining, ok := s.letters.Consume(word)
	if !ok {
		s.status = fmt.Sprintf("Submitted word: %s uses letters that are not available", word)
		logger.Debug().Str("word", word).Msg("rejected: insufficient letters")
		return false
	}
	if !s.words.WordExists(ctx, word) {
		s.status = fmt.Sprintf("Submitted word: %s is not a recognized word", word)
		logger.Debug().Str("word", word).Msg("rejected: unknown word")
		return false
	}

	s.letters = remaining
	s.submittedWords = append(s.submittedWords, word)
	points := utf8.RuneCountInString(word) * PointsPerLetter
	s.score += points
	s.status = fmt.Sprintf("Submitted word: %s is valid. Awarding %d points", word, points)
	logger.Info().Str("word", word).Int("points", points).Int("score", s.score).Msg("word accepted")

	s.applyBonus(ctx, word)
	return true
}

func (s *Session) applyBonus(ctx context.Context, word string) {
	if len(s.givenWords) == 0 || utf8.RuneCountInString(word) != utf8.RuneCountInString(s.givenWords[0]) {
		return
	}
	s.score += FullMatchBonus
	s.status = fmt.Sprintf("Submitted word: %s is valid and the length of the current word. Awarding bonus points", word)
	util.Logger(ctx).Info().Str("session_id", s.id).Str("word", word).Int("score", s.score).Msg("full-length bonus")

	if !s.IsExpired() {
		_ = s.IssueNewWord(ctx)
	}
}

// EndRound returns the round summary without changing any state.
func (s *Session) EndRound() Summary {
	return Summary{
		Score:          s.score,
		PlayerName:     s.playerName,
		GivenWords:     s.GivenWords(),
		SubmittedWords: s.SubmittedWords(),
	}
}

// Snapshot is a read-only view for display; it never flips the timer.
func (s *Session) Snapshot() Snapshot {
	remaining := s.RemainingTime()
	var hint string
	if h, ok := s.words.(Hinter); ok && s.CurrentWord() != "" {
		hint = h.Hint(s.CurrentWord())
	}
	return Snapshot{
		ID:               s.id,
		PlayerName:       s.playerName,
		Score:            s.score,
		Status:           s.status,
		CurrentWord:      s.CurrentWord(),
		Hint:             hint,
		Letters:          s.letters.Strings(),
		RemainingSeconds: int(remaining.Round(time.Second).Seconds()),
		Active:           s.timer.active && remaining > 0,
		GivenWords:       s.GivenWords(),
		SubmittedWords:   s.SubmittedWords(),
	}
}

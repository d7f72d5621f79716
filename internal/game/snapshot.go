package game

// Snapshot is the display state of a session at one instant.
type Snapshot struct {
	ID               string         `json:"id"`
	PlayerName       string         `json:"playerName"`
	Score            int            `json:"score"`
	Status           string         `json:"status"`
	CurrentWord      string         `json:"currentWord"`
	Hint             string         `json:"hint,omitempty"`
	Letters          map[string]int `json:"letters"`
	RemainingSeconds int            `json:"remainingSeconds"`
	Active           bool           `json:"active"`
	GivenWords       []string       `json:"givenWords"`
	SubmittedWords   []string       `json:"submittedWords"`
}

// Summary is the end-of-round report.
type Summary struct {
	Score          int      `json:"score"`
	PlayerName     string   `json:"playerName"`
	GivenWords     []string `json:"givenWords"`
	SubmittedWords []string `json:"submittedWords"`
}

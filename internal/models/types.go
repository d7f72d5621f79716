package models

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/CodeAndHammer/rootword/internal/config"
	"github.com/CodeAndHammer/rootword/internal/ratelimit"
	"github.com/CodeAndHammer/rootword/internal/session"
)

// App holds the long-lived services shared by every handler.
type App struct {
	Config       config.Config
	Registry     *session.Registry
	Limiter      *ratelimit.Limiter
	Stats        *ratelimit.MemoryStats
	StatsStore   ratelimit.StatsStore
	Clock        clockwork.Clock
	IsProduction bool
	StartTime    time.Time
}

type StartRequest struct {
	PlayerName string `json:"playerName" form:"playerName"`
}

type SubmitRequest struct {
	Word string `json:"word" form:"word"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

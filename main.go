package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	config "github.com/CodeAndHammer/rootword/internal/config"
	"github.com/CodeAndHammer/rootword/internal/events"
	game "github.com/CodeAndHammer/rootword/internal/game"
	models "github.com/CodeAndHammer/rootword/internal/models"
	"github.com/CodeAndHammer/rootword/internal/ratelimit"
	session "github.com/CodeAndHammer/rootword/internal/session"
	util "github.com/CodeAndHammer/rootword/internal/util"
	"github.com/CodeAndHammer/rootword/internal/wordsource"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		util.SetupLogger("info", "console")
		util.LogFatal("Invalid configuration: %v", err)
	}
	util.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	util.LogInfo("Starting Rootword in %s mode", cfg.EnvName())

	ctx := context.Background()
	clock := clockwork.NewRealClock()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			util.LogWarn("Redis at %s is unreachable, continuing: %v", cfg.RedisAddr, err)
		} else {
			util.LogInfo("Connected to Redis at %s", cfg.RedisAddr)
		}
		cancel()
	}

	words, err := buildWordSource(ctx, cfg, rdb, clock)
	if err != nil {
		util.LogFatal("Failed to set up word source: %v", err)
	}

	var nc *nats.Conn
	if cfg.NATSURL != "" {
		nc, err = events.ConnectNATS(cfg.NATSURL, "rootword")
		if err != nil {
			util.LogWarn("Event feed disabled: %v", err)
		} else {
			defer nc.Drain()
			util.LogInfo("Publishing session events to %s on %s.*", cfg.NATSURL, cfg.NATSSubject)
		}
	}
	publisher := events.Multi{events.NewLogPublisher(log.Logger)}
	if nc != nil {
		publisher = append(publisher, events.NewNATSPublisher(nc, cfg.NATSSubject))
	}

	registry, err := session.NewRegistry(words, session.Options{
		Clock:           clock,
		RoundDuration:   cfg.RoundDuration,
		AdvanceOnAccept: cfg.AdvanceOnAccept,
		Publisher:       publisher,
	})
	if err != nil {
		util.LogFatal("Failed to create session registry: %v", err)
	}

	memStats := ratelimit.NewMemoryStats()
	var statsStore ratelimit.StatsStore = memStats
	if rdb != nil {
		statsStore = ratelimit.Tee{memStats, ratelimit.NewRedisStats(rdb, ratelimit.WithStatsPrefix(cfg.RateStatsPrefix))}
	}

	app := &models.App{
		Config:       cfg,
		Registry:     registry,
		Limiter:      ratelimit.New(ratelimit.WithClock(clock)),
		Stats:        memStats,
		StatsStore:   statsStore,
		Clock:        clock,
		IsProduction: cfg.IsProduction(),
		StartTime:    clock.Now(),
	}

	router := newRouter(app)

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	startCleanupRoutines(cleanupCtx, app)

	startServer(app, router)
}

func buildWordSource(ctx context.Context, cfg config.Config, rdb *redis.Client, clock clockwork.Clock) (game.WordSource, error) {
	switch cfg.WordSource {
	case config.WordSourceWordnik:
		var cache wordsource.ValidationCache = wordsource.NewMemoryCache(cfg.CacheSize, cfg.CacheTTL, clock)
		if rdb != nil {
			cache = wordsource.NewRedisCache(rdb, "rootword:validation", cfg.CacheTTL)
		}
		common := map[string]struct{}{}
		if cfg.CommonWordsPath != "" {
			set, err := wordsource.LoadWordSet(cfg.CommonWordsPath)
			if err != nil {
				util.LogWarn("Common words list not loaded: %v", err)
			} else {
				common = set
				util.LogInfo("Loaded %d common words", len(common))
			}
		}
		w, err := wordsource.NewWordnik(cfg.WordnikAPIKey,
			wordsource.WithBaseURL(cfg.WordnikBaseURL),
			wordsource.WithTimeout(cfg.WordnikTimeout),
			wordsource.WithRateLimit(cfg.WordnikRPS, cfg.WordnikBurst),
			wordsource.WithMinLength(cfg.MinWordLength),
			wordsource.WithCache(cache),
			wordsource.WithCommonWords(common),
		)
		if err != nil {
			return nil, err
		}
		if err := w.Validate(ctx); err != nil {
			return nil, err
		}
		return w, nil
	case config.WordSourceList:
		if dir := filepath.Dir(cfg.WordsPath); !util.DirExists(dir) {
			return nil, fmt.Errorf("word list directory %s does not exist", dir)
		}
		return wordsource.LoadListSource(cfg.WordsPath, cfg.AcceptedWordsPath, cfg.MinWordLength)
	default:
		return nil, fmt.Errorf("unknown word source %q", cfg.WordSource)
	}
}

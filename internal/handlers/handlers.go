package handlers

import (
	"errors"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	constants "github.com/CodeAndHammer/rootword/internal/constants"
	game "github.com/CodeAndHammer/rootword/internal/game"
	models "github.com/CodeAndHammer/rootword/internal/models"
	session "github.com/CodeAndHammer/rootword/internal/session"
	util "github.com/CodeAndHammer/rootword/internal/util"
)

func StartHandler(app *models.App, c *gin.Context) {
	ctx := c.Request.Context()

	var req models.StartRequest
	if !bindOptional(c, &req) {
		return
	}
	name := strings.TrimSpace(req.PlayerName)
	if name == "" {
		name = constants.DefaultPlayerName
	}

	id, err := app.Registry.Create(ctx, name)
	if err != nil {
		if errors.Is(err, game.ErrWordUnavailable) {
			util.Logger(ctx).Warn().Err(err).Msg("could not start game")
			abortError(c, http.StatusServiceUnavailable, constants.ErrorCodeWordUnavailable, "Could not fetch a word, please try again.")
			return
		}
		util.Logger(ctx).Error().Err(err).Msg("failed to create session")
		abortError(c, http.StatusInternalServerError, constants.ErrorCodeInternal, "Failed to start game.")
		return
	}

	snap, err := app.Registry.Snapshot(id)
	if err != nil {
		handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sessionId": id, "game": snap})
}

func GameStateHandler(app *models.App, c *gin.Context) {
	snap, err := app.Registry.Snapshot(c.Param("id"))
	if err != nil {
		handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func SubmitHandler(app *models.App, c *gin.Context) {
	var req models.SubmitRequest
	if err := c.ShouldBind(&req); err != nil {
		abortError(c, http.StatusBadRequest, constants.ErrorCodeInvalidRequest, "Request body must include a word.")
		return
	}

	accepted, snap, err := app.Registry.Submit(c.Request.Context(), c.Param("id"), req.Word)
	if err != nil {
		handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accepted": accepted, "game": snap})
}

func NewWordHandler(app *models.App, c *gin.Context) {
	snap, err := app.Registry.IssueWord(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, game.ErrWordUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": snap.Status,
				"code":  constants.ErrorCodeWordUnavailable,
				"game":  snap,
			})
			return
		}
		handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func SummaryHandler(app *models.App, c *gin.Context) {
	sum, err := app.Registry.Summary(c.Param("id"))
	if err != nil {
		handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func DeleteHandler(app *models.App, c *gin.Context) {
	app.Registry.Remove(c.Request.Context(), c.Param("id"))
	c.Status(http.StatusNoContent)
}

func HealthzHandler(app *models.App, c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := app.Clock.Since(app.StartTime)

	body := gin.H{
		"status":          "ok",
		"env":             app.Config.EnvName(),
		"word_source":     app.Config.WordSource,
		"active_sessions": app.Registry.Len(),
		"active_limiters": app.Limiter.Len(),
		"memory_alloc_mb": m.Alloc / 1024 / 1024,
		"memory_sys_mb":   m.Sys / 1024 / 1024,
		"memory_gc_count": m.NumGC,
		"uptime":          util.FormatUptime(uptime),
		"timestamp":       app.Clock.Now().UTC().Format(time.RFC3339),
	}
	if app.Stats != nil {
		body["rate_limit"] = app.Stats.Total()
	}
	c.JSON(http.StatusOK, body)
}

// bindOptional binds the request body when there is one.
func bindOptional(c *gin.Context, obj any) bool {
	if c.Request.ContentLength == 0 && len(c.Request.URL.RawQuery) == 0 {
		return true
	}
	if err := c.ShouldBind(obj); err != nil {
		abortError(c, http.StatusBadRequest, constants.ErrorCodeInvalidRequest, "Malformed request body.")
		return false
	}
	return true
}

func handleSessionError(c *gin.Context, err error) {
	if errors.Is(err, session.ErrSessionNotFound) {
		abortError(c, http.StatusNotFound, constants.ErrorCodeSessionNotFound, "Game session not found.")
		return
	}
	util.Logger(c.Request.Context()).Error().Err(err).Msg("session operation failed")
	abortError(c, http.StatusInternalServerError, constants.ErrorCodeInternal, "Internal error.")
}

func abortError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: msg, Code: code})
}

package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	models "github.com/CodeAndHammer/rootword/internal/models"
	util "github.com/CodeAndHammer/rootword/internal/util"
)

const (
	streamInterval     = time.Second
	streamWriteTimeout = 5 * time.Second
	streamReadLimit    = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// StreamHandler pushes the session snapshot once per second until the
// round is over, the session disappears, or the client goes away.
func StreamHandler(app *models.App, c *gin.Context) {
	id := c.Param("id")
	snap, err := app.Registry.Snapshot(id)
	if err != nil {
		handleSessionError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		util.Logger(c.Request.Context()).Warn().Err(err).Str("session_id", id).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	logger := util.Logger(c.Request.Context()).With().Str("session_id", id).Logger()
	logger.Debug().Msg("round stream opened")

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(streamReadLimit)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Debug().Err(err).Msg("unexpected websocket close")
				}
				return
			}
		}
	}()

	ticker := app.Clock.NewTicker(streamInterval)
	defer ticker.Stop()

	for {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := conn.WriteJSON(snap); err != nil {
			logger.Debug().Err(err).Msg("failed to write snapshot")
			return
		}
		if !snap.Active {
			break
		}

		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case <-ticker.Chan():
		}

		if snap, err = app.Registry.Snapshot(id); err != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session removed"),
				time.Now().Add(streamWriteTimeout))
			return
		}
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "round over"),
		time.Now().Add(streamWriteTimeout))
	logger.Debug().Msg("round stream closed")
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yeremiapane/shopfloor-app/hub"
	"github.com/yeremiapane/shopfloor-app/services"
	"github.com/yeremiapane/shopfloor-app/utils"
)

// SocketController upgrades floor displays onto the event hub.
type SocketController struct {
	Hub      *hub.Hub
	upgrader websocket.Upgrader
}

// NewSocketController accepts any origin when allowedOrigin is empty or "*".
func NewSocketController(floorHub *hub.Hub, allowedOrigin string) *SocketController {
	return &SocketController{
		Hub: floorHub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" || allowedOrigin == "*" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
	}
}

// TerminalSocket streams the events of one scanner to its display.
func (sc *SocketController) TerminalSocket(c *gin.Context) {
	scannerID := strings.TrimSpace(c.Param("scanner_id"))
	if scannerID == "" {
		scannerID = services.UnknownScanner
	}
	if scannerID == hub.AdminChannel {
		utils.RespondError(c, http.StatusBadRequest, &services.ValidationError{Field: "scanner_id", Message: "is reserved"})
		return
	}
	sc.serve(c, scannerID)
}

// AdminSocket streams every floor event.
func (sc *SocketController) AdminSocket(c *gin.Context) {
	sc.serve(c, hub.AdminChannel)
}

func (sc *SocketController) serve(c *gin.Context, channel string) {
	ws, err := sc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	sc.Hub.Register(ws, channel)

	// Displays never send anything; reading only detects the disconnect.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	sc.Hub.Unregister(ws)
}

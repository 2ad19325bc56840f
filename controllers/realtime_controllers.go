package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/tably/tably-server/realtime"
	"github.com/tably/tably-server/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browsers hit this from the customer menu page and the dashboard,
		// both served from other origins in development.
		return true
	},
}

type RealtimeController struct {
	RT *realtime.Server
}

func NewRealtimeController(rt *realtime.Server) *RealtimeController {
	return &RealtimeController{RT: rt}
}

// Handle -> websocket endpoint. The connection authenticates itself after the
// upgrade with a subscribe message; there is no HTTP-level auth here.
func (rc *RealtimeController) Handle(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("websocket upgrade failed: %v", err)
		return
	}

	rc.RT.HandleConn(ws)
}

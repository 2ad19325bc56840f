package controllers

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tably/tably-server/models"
	"github.com/tably/tably-server/store"
	"github.com/tably/tably-server/utils"
)

const defaultSessionTTL = 2 * time.Hour

type SessionController struct {
	Store *store.Store
}

func NewSessionController(st *store.Store) *SessionController {
	return &SessionController{Store: st}
}

// sessionTTL reads SESSION_TTL_MINUTES, falling back to two hours.
func sessionTTL() time.Duration {
	if v := os.Getenv("SESSION_TTL_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil && minutes > 0 {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultSessionTTL
}

// JoinTable -> what the QR code on the table points at. The first customer at
// a table opens a session; everyone after joins the existing one and bumps
// the participant count. The returned session key is the capability for the
// websocket channel.
func (sc *SessionController) JoinTable(c *gin.Context) {
	tableID, _ := strconv.Atoi(c.Param("table_id"))

	var table models.Table
	if err := sc.Store.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	sess, err := sc.Store.GetActiveSessionByTable(uint(tableID))
	switch {
	case err == nil:
		sess, err = sc.Store.AddParticipant(sess.SessionKey)
		if err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		utils.InfoLogger.Printf("Customer joined session %s at table %d (participants=%d)",
			sess.SessionKey, tableID, sess.Participants)
	case errors.Is(err, store.ErrNotFound):
		sess, err = sc.Store.CreateSession(uint(tableID), sessionTTL())
		if err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		utils.InfoLogger.Printf("New session %s opened at table %d", sess.SessionKey, tableID)
	default:
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Joined table session", gin.H{
		"session":    sess,
		"cart_items": sess.Cart(),
	})
}

// GetSession -> reload the shared cart state by key (page refresh)
func (sc *SessionController) GetSession(c *gin.Context) {
	key := c.Param("session_key")

	sess, err := sc.Store.GetSessionByKey(key)
	if err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if !sess.Active(time.Now()) {
		utils.RespondError(c, http.StatusGone, errors.New("session has expired"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Session detail", gin.H{
		"session":    sess,
		"cart_items": sess.Cart(),
	})
}

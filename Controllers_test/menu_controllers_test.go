package Controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenuCRUDAndOwnership(t *testing.T) {
	r, db := setupApp(t)
	fx := seedOwner(t, db, "owner@example.com")
	rival := seedOwner(t, db, "rival@example.com")
	menuURL := fmt.Sprintf("/admin/restaurants/%d/menu", fx.Restaurant.ID)

	// Owner can add an item.
	w := doJSON(t, r, "POST", menuURL, fx.Token, map[string]interface{}{
		"name":  "Sate Ayam",
		"price": 6.00,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	itemID := int(decodeData(t, w)["id"].(float64))

	// Someone else's owner token cannot.
	w = doJSON(t, r, "POST", menuURL, rival.Token, map[string]interface{}{
		"name":  "Intruder Special",
		"price": 1.00,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Marking an item unavailable hides it from the public menu.
	w = doJSON(t, r, "PATCH", fmt.Sprintf("%s/%d", menuURL, itemID), fx.Token, map[string]interface{}{
		"available": false,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, "GET", fmt.Sprintf("/restaurants/%d/menu", fx.Restaurant.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	for _, raw := range resp["data"].([]interface{}) {
		item := raw.(map[string]interface{})
		assert.NotEqual(t, float64(itemID), item["id"], "unavailable item leaked into public menu")
	}
}

func TestCreateTableRequiresOwnership(t *testing.T) {
	r, db := setupApp(t)
	fx := seedOwner(t, db, "owner@example.com")
	rival := seedOwner(t, db, "rival@example.com")
	tablesURL := fmt.Sprintf("/admin/restaurants/%d/tables", fx.Restaurant.ID)

	w := doJSON(t, r, "POST", tablesURL, fx.Token, map[string]string{"table_number": "B2"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, "POST", tablesURL, rival.Token, map[string]string{"table_number": "Z9"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

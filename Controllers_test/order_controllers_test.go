package Controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tably/tably-server/models"
)

func TestCreateOrderPricesFromMenu(t *testing.T) {
	r, db := setupApp(t)
	fx := seedOwner(t, db, "owner@example.com")

	second := models.MenuItem{RestaurantID: fx.Restaurant.ID, Name: "Es Teh", Price: 1.25, Available: true}
	require.NoError(t, db.Create(&second).Error)

	w := doJSON(t, r, "POST", fmt.Sprintf("/restaurants/%d/orders", fx.Restaurant.ID), "", map[string]interface{}{
		"table_id": fx.Table.ID,
		"items": []map[string]interface{}{
			// Client price fields must be ignored in favor of the menu.
			{"menu_item_id": fx.MenuItem.ID, "quantity": 2, "unit_price": 0.01},
			{"menu_item_id": second.ID, "quantity": 1},
		},
		"special_instructions": "no peanuts",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	data := decodeData(t, w)
	assert.Equal(t, "received", data["status"])
	assert.Equal(t, 2*4.50+1.25, data["total_amount"])

	items := data["items"].([]interface{})
	require.Len(t, items, 2)
	first := items[0].(map[string]interface{})
	assert.Equal(t, 4.50, first["unit_price"])
	assert.Equal(t, 9.00, first["line_total"])
	assert.Equal(t, "Nasi Goreng", first["name"])
}

func TestCreateOrderUnknownMenuItem(t *testing.T) {
	r, db := setupApp(t)
	fx := seedOwner(t, db, "owner@example.com")

	w := doJSON(t, r, "POST", fmt.Sprintf("/restaurants/%d/orders", fx.Restaurant.ID), "", map[string]interface{}{
		"table_id": fx.Table.ID,
		"items":    []map[string]interface{}{{"menu_item_id": 999, "quantity": 1}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCreateOrderThroughSession(t *testing.T) {
	r, db := setupApp(t)
	fx := seedOwner(t, db, "owner@example.com")

	w := doJSON(t, r, "POST", fmt.Sprintf("/tables/%d/join", fx.Table.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	key := decodeData(t, w)["session"].(map[string]interface{})["session_key"].(string)

	w = doJSON(t, r, "POST", fmt.Sprintf("/restaurants/%d/orders", fx.Restaurant.ID), "", map[string]interface{}{
		"session_key": key,
		"items":       []map[string]interface{}{{"menu_item_id": fx.MenuItem.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	data := decodeData(t, w)
	assert.NotNil(t, data["session_id"])
	assert.Equal(t, float64(fx.Table.ID), data["table_id"])
}

func TestCreateOrderRequiresTableOrSession(t *testing.T) {
	r, db := setupApp(t)
	fx := seedOwner(t, db, "owner@example.com")

	w := doJSON(t, r, "POST", fmt.Sprintf("/restaurants/%d/orders", fx.Restaurant.ID), "", map[string]interface{}{
		"items": []map[string]interface{}{{"menu_item_id": fx.MenuItem.ID, "quantity": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateOrderStatusFlow(t *testing.T) {
	r, db := setupApp(t)
	fx := seedOwner(t, db, "owner@example.com")

	w := doJSON(t, r, "POST", fmt.Sprintf("/restaurants/%d/orders", fx.Restaurant.ID), "", map[string]interface{}{
		"table_id": fx.Table.ID,
		"items":    []map[string]interface{}{{"menu_item_id": fx.MenuItem.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := int(decodeData(t, w)["id"].(float64))
	statusURL := fmt.Sprintf("/admin/orders/%d/status", orderID)

	w = doJSON(t, r, "PATCH", statusURL, fx.Token, map[string]string{"status": "preparing"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "preparing", decodeData(t, w)["status"])

	// Backward transitions are refused.
	w = doJSON(t, r, "PATCH", statusURL, fx.Token, map[string]string{"status": "received"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, r, "PATCH", statusURL, fx.Token, map[string]string{"status": "ready"})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, "PATCH", statusURL, fx.Token, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateOrderStatusRequiresOwnership(t *testing.T) {
	r, db := setupApp(t)
	fx := seedOwner(t, db, "owner@example.com")
	rival := seedOwner(t, db, "rival@example.com")

	w := doJSON(t, r, "POST", fmt.Sprintf("/restaurants/%d/orders", fx.Restaurant.ID), "", map[string]interface{}{
		"table_id": fx.Table.ID,
		"items":    []map[string]interface{}{{"menu_item_id": fx.MenuItem.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := int(decodeData(t, w)["id"].(float64))

	w = doJSON(t, r, "PATCH", fmt.Sprintf("/admin/orders/%d/status", orderID), rival.Token,
		map[string]string{"status": "preparing"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// No token at all.
	w = doJSON(t, r, "PATCH", fmt.Sprintf("/admin/orders/%d/status", orderID), "",
		map[string]string{"status": "preparing"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetOrdersListsRestaurantOrders(t *testing.T) {
	r, db := setupApp(t)
	fx := seedOwner(t, db, "owner@example.com")

	for i := 0; i < 2; i++ {
		w := doJSON(t, r, "POST", fmt.Sprintf("/restaurants/%d/orders", fx.Restaurant.ID), "", map[string]interface{}{
			"table_id": fx.Table.ID,
			"items":    []map[string]interface{}{{"menu_item_id": fx.MenuItem.ID, "quantity": 1}},
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, r, "GET", fmt.Sprintf("/admin/restaurants/%d/orders", fx.Restaurant.ID), fx.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp["data"].([]interface{}), 2)
}

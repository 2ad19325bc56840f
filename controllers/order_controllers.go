package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tably/tably-server/models"
	"github.com/tably/tably-server/realtime"
	"github.com/tably/tably-server/store"
	"github.com/tably/tably-server/utils"
)

type OrderController struct {
	Store *store.Store
	Hub   *realtime.Hub
}

func NewOrderController(st *store.Store, hub *realtime.Hub) *OrderController {
	return &OrderController{Store: st, Hub: hub}
}

// CreateOrder -> place an order for a table. Prices and the total are always
// computed from the menu on the server; anything price-like in the request is
// ignored. After the order is persisted the restaurant channel gets a
// new_order event.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	restaurantID, _ := strconv.Atoi(c.Param("restaurant_id"))

	type itemReq struct {
		MenuItemID uint `json:"menu_item_id" binding:"required"`
		Quantity   int  `json:"quantity" binding:"required,gt=0"`
	}
	type reqBody struct {
		SessionKey          string    `json:"session_key"`
		TableID             uint      `json:"table_id"`
		Items               []itemReq `json:"items" binding:"required,min=1,dive"`
		SpecialInstructions string    `json:"special_instructions"`
	}

	var body reqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order := models.Order{
		RestaurantID: uint(restaurantID),
		Status:       models.OrderStatusReceived,
	}
	order.SpecialInstructions = body.SpecialInstructions

	// Orders placed through a table session inherit its table; the session
	// must still be alive.
	if body.SessionKey != "" {
		sess, err := oc.Store.GetSessionByKey(body.SessionKey)
		if err != nil {
			utils.RespondError(c, http.StatusNotFound, errors.New("unknown session"))
			return
		}
		if !sess.Active(time.Now()) {
			utils.RespondError(c, http.StatusGone, errors.New("session has expired"))
			return
		}
		if sess.Table.RestaurantID != uint(restaurantID) {
			utils.RespondError(c, http.StatusBadRequest, errors.New("session does not belong to this restaurant"))
			return
		}
		order.SessionID = &sess.ID
		order.TableID = sess.TableID
	} else {
		if body.TableID == 0 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("table_id or session_key is required"))
			return
		}
		order.TableID = body.TableID
	}

	ids := make([]uint, 0, len(body.Items))
	for _, item := range body.Items {
		ids = append(ids, item.MenuItemID)
	}
	menu, err := oc.Store.GetMenuItemsByIDs(uint(restaurantID), ids)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var total float64
	for _, item := range body.Items {
		menuItem, ok := menu[item.MenuItemID]
		if !ok || !menuItem.Available {
			utils.RespondError(c, http.StatusUnprocessableEntity,
				fmt.Errorf("menu item %d is not available", item.MenuItemID))
			return
		}
		lineTotal := menuItem.Price * float64(item.Quantity)
		total += lineTotal
		order.Items = append(order.Items, models.OrderItem{
			MenuItemID: menuItem.ID,
			Name:       menuItem.Name,
			UnitPrice:  menuItem.Price,
			Quantity:   item.Quantity,
			LineTotal:  lineTotal,
		})
	}
	order.TotalAmount = total

	if err := oc.Store.CreateOrder(&order); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Order %d placed at restaurant %d (total=%.2f)", order.ID, order.RestaurantID, order.TotalAmount)

	oc.Hub.BroadcastNewOrder(&order)

	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetOrderByID -> order detail, customer-facing status page
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("order_id"))

	order, err := oc.Store.GetOrderByID(uint(id))
	if err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// GetOrders -> staff dashboard listing for one restaurant
func (oc *OrderController) GetOrders(c *gin.Context) {
	restaurantID, _ := strconv.Atoi(c.Param("restaurant_id"))
	if !requireOwnership(c, oc.Store.DB, uint(restaurantID)) {
		return
	}

	var orders []models.Order
	if err := oc.Store.DB.Preload("Items").
		Where("restaurant_id = ?", restaurantID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// UpdateOrderStatus -> staff moves an order through the kitchen flow. On
// success the restaurant channel and, for session orders, the table-session
// channel each get an order_status_update event.
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("order_id"))

	type reqBody struct {
		Status string `json:"status" binding:"required"`
	}
	var body reqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	current, err := oc.Store.GetOrderByID(uint(id))
	if err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if !requireOwnership(c, oc.Store.DB, current.RestaurantID) {
		return
	}

	order, err := oc.Store.UpdateOrderStatus(uint(id), body.Status)
	switch {
	case errors.Is(err, store.ErrInvalidTransition):
		utils.RespondError(c, http.StatusUnprocessableEntity, err)
		return
	case errors.Is(err, store.ErrNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
		return
	case err != nil:
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	sessionKey := ""
	if order.SessionID != nil {
		if sess, err := oc.Store.GetSessionByID(*order.SessionID); err == nil {
			sessionKey = sess.SessionKey
		}
	}

	utils.InfoLogger.Printf("Order %d moved to %s", order.ID, order.Status)

	oc.Hub.BroadcastOrderStatus(order, sessionKey)

	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

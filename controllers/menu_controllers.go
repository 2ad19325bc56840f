package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tably/tably-server/models"
	"github.com/tably/tably-server/utils"
)

type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

// GetMenu -> public menu listing for a restaurant (customer menu page)
func (mc *MenuController) GetMenu(c *gin.Context) {
	restaurantID, _ := strconv.Atoi(c.Param("restaurant_id"))

	var items []models.MenuItem
	if err := mc.DB.Where("restaurant_id = ? AND available = ?", restaurantID, true).Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of menu items", items)
}

// CreateMenuItem -> add a menu item (owner only)
func (mc *MenuController) CreateMenuItem(c *gin.Context) {
	restaurantID, _ := strconv.Atoi(c.Param("restaurant_id"))
	if !requireOwnership(c, mc.DB, uint(restaurantID)) {
		return
	}

	type request struct {
		Name        string  `json:"name" binding:"required"`
		Description string  `json:"description"`
		Price       float64 `json:"price" binding:"required,gt=0"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	item := models.MenuItem{
		RestaurantID: uint(restaurantID),
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Available:    true,
	}
	if err := mc.DB.Create(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Menu item created", item)
}

// UpdateMenuItem -> change price/availability/details (owner only)
func (mc *MenuController) UpdateMenuItem(c *gin.Context) {
	restaurantID, _ := strconv.Atoi(c.Param("restaurant_id"))
	if !requireOwnership(c, mc.DB, uint(restaurantID)) {
		return
	}

	itemID, _ := strconv.Atoi(c.Param("item_id"))

	var item models.MenuItem
	if err := mc.DB.Where("restaurant_id = ?", restaurantID).First(&item, itemID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	type request struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Price       *float64 `json:"price"`
		Available   *bool    `json:"available"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Available != nil {
		item.Available = *req.Available
	}

	if err := mc.DB.Save(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Menu item updated", item)
}

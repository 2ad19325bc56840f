package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tably/tably-server/models"
	"github.com/tably/tably-server/utils"
)

type TableController struct {
	DB *gorm.DB
}

func NewTableController(db *gorm.DB) *TableController {
	return &TableController{DB: db}
}

// CreateTable -> add a physical table to a restaurant
func (tc *TableController) CreateTable(c *gin.Context) {
	restaurantID, _ := strconv.Atoi(c.Param("restaurant_id"))
	if !requireOwnership(c, tc.DB, uint(restaurantID)) {
		return
	}

	type request struct {
		TableNumber string `json:"table_number" binding:"required"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table := models.Table{
		RestaurantID: uint(restaurantID),
		TableNumber:  req.TableNumber,
	}
	if err := tc.DB.Create(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Table created", table)
}

// GetTables -> list a restaurant's tables
func (tc *TableController) GetTables(c *gin.Context) {
	restaurantID, _ := strconv.Atoi(c.Param("restaurant_id"))
	if !requireOwnership(c, tc.DB, uint(restaurantID)) {
		return
	}

	var tables []models.Table
	if err := tc.DB.Where("restaurant_id = ?", restaurantID).Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tably/tably-server/models"
	"github.com/tably/tably-server/utils"
)

var ErrNotRestaurantOwner = errors.New("you do not own this restaurant")

type RestaurantController struct {
	DB *gorm.DB
}

func NewRestaurantController(db *gorm.DB) *RestaurantController {
	return &RestaurantController{DB: db}
}

// CreateRestaurant -> register a restaurant under the logged-in owner
func (rc *RestaurantController) CreateRestaurant(c *gin.Context) {
	type request struct {
		Name    string `json:"name" binding:"required"`
		Address string `json:"address"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ownerID := c.GetUint("userID")
	restaurant := models.Restaurant{
		OwnerID: ownerID,
		Name:    req.Name,
		Address: req.Address,
	}

	if err := rc.DB.Create(&restaurant).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Restaurant %q created (ID=%d) by user %d", restaurant.Name, restaurant.ID, ownerID)

	utils.RespondJSON(c, http.StatusCreated, "Restaurant created", restaurant)
}

// GetMyRestaurants -> list restaurants owned by the logged-in user
func (rc *RestaurantController) GetMyRestaurants(c *gin.Context) {
	ownerID := c.GetUint("userID")

	var restaurants []models.Restaurant
	if err := rc.DB.Where("owner_id = ?", ownerID).Find(&restaurants).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of restaurants", restaurants)
}

// GetRestaurantByID -> public restaurant detail (menu page header etc.)
func (rc *RestaurantController) GetRestaurantByID(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("restaurant_id"))

	var restaurant models.Restaurant
	if err := rc.DB.First(&restaurant, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Restaurant detail", restaurant)
}

// requireOwnership aborts with 403 unless the logged-in user owns the
// restaurant. Shared by the staff-side controllers.
func requireOwnership(c *gin.Context, db *gorm.DB, restaurantID uint) bool {
	var restaurant models.Restaurant
	if err := db.Select("id", "owner_id").First(&restaurant, restaurantID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return false
	}
	if restaurant.OwnerID != c.GetUint("userID") {
		utils.RespondError(c, http.StatusForbidden, ErrNotRestaurantOwner)
		return false
	}
	return true
}

package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tably/tably-server/models"
	"github.com/tably/tably-server/router"
	"github.com/tably/tably-server/utils"
)

func setupApp(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	utils.InitLogger()
	gin.SetMode(gin.TestMode)

	// Named shared-cache memory DB so every pooled connection sees the same
	// data, without bleeding state across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Restaurant{},
		&models.Table{},
		&models.TableSession{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
	))

	return router.SetupRouter(db), db
}

// seedOwner creates an owner with a restaurant, a table and one menu item,
// and returns everything a test needs to act as that owner.
type fixture struct {
	Owner      models.User
	Token      string
	Restaurant models.Restaurant
	Table      models.Table
	MenuItem   models.MenuItem
}

func seedOwner(t *testing.T, db *gorm.DB, email string) fixture {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	owner := models.User{Name: "Owner", Email: email, Password: string(hashed), Role: "owner"}
	require.NoError(t, db.Create(&owner).Error)

	restaurant := models.Restaurant{OwnerID: owner.ID, Name: "Warung Tably"}
	require.NoError(t, db.Create(&restaurant).Error)

	table := models.Table{RestaurantID: restaurant.ID, TableNumber: "A1"}
	require.NoError(t, db.Create(&table).Error)

	item := models.MenuItem{RestaurantID: restaurant.ID, Name: "Nasi Goreng", Price: 4.50, Available: true}
	require.NoError(t, db.Create(&item).Error)

	token, err := utils.GenerateToken(owner.ID, owner.Role)
	require.NoError(t, err)

	return fixture{Owner: owner, Token: token, Restaurant: restaurant, Table: table, MenuItem: item}
}

func doJSON(t *testing.T, r *gin.Engine, method, url, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := resp["data"].(map[string]interface{})
	return data
}

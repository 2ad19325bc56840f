package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tably/tably-server/controllers"
	"github.com/tably/tably-server/middlewares"
	"github.com/tably/tably-server/realtime"
	"github.com/tably/tably-server/store"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	st := store.New(db)
	rt := realtime.NewServer(st)

	userCtrl := controllers.NewUserController(db)
	restaurantCtrl := controllers.NewRestaurantController(db)
	tableCtrl := controllers.NewTableController(db)
	menuCtrl := controllers.NewMenuController(db)
	sessionCtrl := controllers.NewSessionController(st)
	orderCtrl := controllers.NewOrderController(st, rt.Hub)
	realtimeCtrl := controllers.NewRealtimeController(rt)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// Customer surface: no login, the table session key is the credential
	r.GET("/restaurants/:restaurant_id", restaurantCtrl.GetRestaurantByID)
	r.GET("/restaurants/:restaurant_id/menu", menuCtrl.GetMenu)
	r.POST("/restaurants/:restaurant_id/orders", orderCtrl.CreateOrder)
	r.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	r.POST("/tables/:table_id/join", sessionCtrl.JoinTable)
	r.GET("/sessions/:session_key", sessionCtrl.GetSession)

	// Websocket endpoint; subscription auth happens in-protocol
	r.GET("/ws", realtimeCtrl.Handle)

	// ----------------------------------------------------------------
	//                      OWNER / STAFF ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/admin")
	auth.Use(middlewares.AuthMiddleware())

	auth.POST("/restaurants", restaurantCtrl.CreateRestaurant)
	auth.GET("/restaurants", restaurantCtrl.GetMyRestaurants)

	auth.POST("/restaurants/:restaurant_id/tables", tableCtrl.CreateTable)
	auth.GET("/restaurants/:restaurant_id/tables", tableCtrl.GetTables)

	auth.POST("/restaurants/:restaurant_id/menu", menuCtrl.CreateMenuItem)
	auth.PATCH("/restaurants/:restaurant_id/menu/:item_id", menuCtrl.UpdateMenuItem)

	auth.GET("/restaurants/:restaurant_id/orders", orderCtrl.GetOrders)
	auth.PATCH("/orders/:order_id/status", orderCtrl.UpdateOrderStatus)

	return r
}

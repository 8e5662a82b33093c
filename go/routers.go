package adminserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions groups the handlers of every resource.
type ApiHandleFunctions struct {
	OrderAPI OrderAPI
	ImageAPI ImageAPI
}

// NewRouter returns a new router with recovery and request ids installed.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID())
	return NewRouterWithGinEngine(router, handleFunctions)
}

// NewRouterWithGinEngine adds the admin routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		router.Handle(route.Method, route.Pattern, route.HandlerFunc)
	}
	return router
}

// DefaultHandleFunc answers routes without a handler.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

// Healthz reports liveness.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{"Healthz", http.MethodGet, "/healthz", Healthz},
		{"ListOrders", http.MethodGet, "/admin/v1/orders", handleFunctions.OrderAPI.ListOrders},
		{"CreateOrder", http.MethodPost, "/admin/v1/orders", handleFunctions.OrderAPI.CreateOrder},
		{"GetOrder", http.MethodGet, "/admin/v1/orders/:orderId", handleFunctions.OrderAPI.GetOrder},
		{"UpdateOrder", http.MethodPut, "/admin/v1/orders/:orderId", handleFunctions.OrderAPI.UpdateOrder},
		{"DeleteOrder", http.MethodDelete, "/admin/v1/orders/:orderId", handleFunctions.OrderAPI.DeleteOrder},
		{"ListImages", http.MethodGet, "/admin/v1/images", handleFunctions.ImageAPI.ListImages},
		{"RegisterImage", http.MethodPost, "/admin/v1/images", handleFunctions.ImageAPI.RegisterImage},
		{"GetImage", http.MethodGet, "/admin/v1/images/:imageId", handleFunctions.ImageAPI.GetImage},
		{"RenameImage", http.MethodPut, "/admin/v1/images/:imageId", handleFunctions.ImageAPI.RenameImage},
		{"DeleteImage", http.MethodDelete, "/admin/v1/images/:imageId", handleFunctions.ImageAPI.DeleteImage},
	}
}

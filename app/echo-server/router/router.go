package router

import (
	"net/http"

	"abayaStore/internal/authz"
	"abayaStore/internal/middleware"
	"abayaStore/internal/rest"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Guards bundles the middleware the route groups share.
type Guards struct {
	Auth      echo.MiddlewareFunc
	Optional  echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc
	Enforcer  middleware.PolicyEnforcer
	Activity  middleware.ActivityRecorder
}

func (g Guards) can(resource, action string) echo.MiddlewareFunc {
	return middleware.Authorize(g.Enforcer, resource, action)
}

func (g Guards) audit(action, entity string) echo.MiddlewareFunc {
	return middleware.Activity(g.Activity, action, entity)
}

func SetupSystemRoutes(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}

func SetupUserRoutes(api *echo.Group, handler *rest.UserHandler, account *rest.AccountHandler, g Guards) {
	users := api.Group("/users")

	users.GET("/email-verification/:code", handler.VerifyEmail)
	users.POST("/register", handler.Register, g.RateLimit)
	users.POST("/login", handler.Login, g.RateLimit)
	users.POST("/refresh", handler.RefreshToken, g.RateLimit)
	users.POST("/logout", handler.Logout, g.Auth)

	me := users.Group("/me", g.Auth)
	me.GET("/addresses", account.ListAddresses)
	me.POST("/addresses", account.CreateAddress)
	me.GET("/addresses/:id", account.GetAddress)
	me.PUT("/addresses/:id", account.UpdateAddress)
	me.DELETE("/addresses/:id", account.DeleteAddress)
	me.PUT("/addresses/:id/default", account.SetDefaultAddress)
	me.GET("/payment-methods", account.ListPaymentMethods)
	me.POST("/payment-methods", account.AddPaymentMethod)
	me.DELETE("/payment-methods/:id", account.DeletePaymentMethod)
	me.PUT("/payment-methods/:id/default", account.SetDefaultPaymentMethod)

	users.GET("", handler.GetAllUsers, g.Auth, middleware.AdminOnly())
	users.GET("/:id", handler.GetUserByID, g.Auth, middleware.SelfOrAdmin())
	users.PUT("/:id", handler.UpdateUser, g.Auth, middleware.SelfOrAdmin(), g.audit("user.update", "user"))
	users.DELETE("/:id", handler.DeleteUser, g.Auth, middleware.SelfOrAdmin(), g.audit("user.delete", "user"))
}

func SetupCatalogRoutes(api *echo.Group, categories *rest.CategoryHandler, products *rest.ProductHandler, g Guards) {
	api.GET("/categories", categories.GetAllCategories, g.Optional)
	api.GET("/categories/:slug", categories.GetCategoryBySlug)
	api.GET("/products", products.ListProducts, g.Optional)
	api.GET("/products/:slug", products.GetProduct, g.Optional)
	api.GET("/attributes", products.ListAttributes)
	api.GET("/attributes/fabrics/:id/colors/:colorId", products.ColorAvailability)

	read := g.can("products", authz.ActionRead)
	write := g.can("products", authz.ActionWrite)
	admin := api.Group("/dashboard", g.Auth)

	admin.GET("/categories/:id", categories.GetCategoryByID, read)
	admin.POST("/categories", categories.CreateCategory, write, g.audit("category.create", "category"))
	admin.PUT("/categories/:id", categories.UpdateCategory, write, g.audit("category.update", "category"))
	admin.DELETE("/categories/:id", categories.DeleteCategory, write, g.audit("category.delete", "category"))

	admin.POST("/products", products.CreateProduct, write, g.audit("product.create", "product"))
	admin.PUT("/products/:id", products.UpdateProduct, write, g.audit("product.update", "product"))
	admin.DELETE("/products/:id", products.DeleteProduct, write, g.audit("product.delete", "product"))
	admin.PUT("/products/:id/stock", products.AdjustStock, write, g.audit("product.stock", "product"))

	admin.POST("/attributes/sizes", products.CreateSize, write)
	admin.POST("/attributes/colors", products.CreateColor, write)
	admin.POST("/attributes/fabrics", products.CreateFabric, write)
	admin.DELETE("/attributes/:kind/:id", products.DeleteAttribute, write, g.audit("attribute.delete", "attribute"))
	admin.POST("/attributes/fabrics/:id/colors/:colorId", products.AddFabricColor, write)
	admin.DELETE("/attributes/fabrics/:id/colors/:colorId", products.RemoveFabricColor, write)
}

func SetupReviewRoutes(api *echo.Group, handler *rest.ReviewHandler, g Guards) {
	api.GET("/products/:slug/reviews", handler.ListReviews)
	api.POST("/products/:slug/reviews", handler.AddReview, g.Auth)
	api.GET("/products/:slug/media", handler.ListMedia)

	admin := api.Group("/dashboard", g.Auth)
	media := g.can("products", authz.ActionWrite)
	admin.POST("/products/:id/media", handler.AddMedia, media, g.audit("product.media.add", "product"))
	admin.PUT("/products/:id/media/:mediaId/default", handler.SetDefaultMedia, media, g.audit("product.media.default", "product"))
	admin.DELETE("/products/:id/media/:mediaId", handler.DeleteMedia, media, g.audit("product.media.delete", "product"))

	moderate := g.can("reviews", authz.ActionWrite)
	admin.PUT("/reviews/:id/publish", handler.SetReviewPublished, moderate, g.audit("review.publish", "review"))
	admin.DELETE("/reviews/:id", handler.DeleteReview, moderate, g.audit("review.delete", "review"))
}

func SetupCurrencyRoutes(api *echo.Group, handler *rest.CurrencyHandler, g Guards) {
	currencies := api.Group("/currencies")
	currencies.GET("", handler.ListCurrencies, g.Optional)
	currencies.GET("/default", handler.GetDefault)
	currencies.GET("/convert", handler.Convert)

	write := g.can("currencies", authz.ActionWrite)
	currencies.POST("", handler.CreateCurrency, g.Auth, write, g.audit("currency.create", "currency"))
	currencies.PUT("/:code", handler.UpdateCurrency, g.Auth, write, g.audit("currency.update", "currency"))
	currencies.PUT("/:code/default", handler.SetDefault, g.Auth, write, g.audit("currency.default", "currency"))
}

func SetupCartRoutes(api *echo.Group, handler *rest.CartHandler, g Guards) {
	cart := api.Group("/cart", g.Optional, middleware.GuestSession())
	cart.GET("", handler.GetCart)
	cart.GET("/summary", handler.Summary)
	cart.POST("/items", handler.AddItem)
	cart.PUT("/items/:id", handler.UpdateItem)
	cart.DELETE("/items/:id", handler.RemoveItem)
	cart.DELETE("", handler.ClearCart)
	api.POST("/cart/merge", handler.Merge, g.Auth)

	wishlist := api.Group("/wishlist", g.Auth)
	wishlist.GET("", handler.ListWishlist)
	wishlist.POST("", handler.AddToWishlist)
	wishlist.DELETE("/:productId", handler.RemoveFromWishlist)
	wishlist.POST("/:productId/move-to-cart", handler.MoveToCart)
}

func SetupCouponRoutes(api *echo.Group, handler *rest.CouponHandler, g Guards) {
	api.POST("/coupons/validate", handler.ValidateCoupon)

	read := g.can("coupons", authz.ActionRead)
	write := g.can("coupons", authz.ActionWrite)
	coupons := api.Group("/dashboard/coupons", g.Auth)
	coupons.GET("", handler.ListCoupons, read)
	coupons.GET("/:id", handler.GetCoupon, read)
	coupons.POST("", handler.CreateCoupon, write, g.audit("coupon.create", "coupon"))
	coupons.PUT("/:id", handler.UpdateCoupon, write, g.audit("coupon.update", "coupon"))
	coupons.DELETE("/:id", handler.DeleteCoupon, write, g.audit("coupon.delete", "coupon"))
}

func SetOrdersRoutes(api *echo.Group, ordersHandler *rest.OrdersHandler, returnsHandler *rest.ReturnsHandler, g Guards) {
	orders := api.Group("/orders", g.Auth)
	orders.POST("/checkout", ordersHandler.Checkout)
	orders.GET("", ordersHandler.GetAllOrders)
	orders.GET("/:id", ordersHandler.GetOrder)
	orders.POST("/:id/cancel", ordersHandler.CancelOrder)
	orders.GET("/:id/tracking", ordersHandler.TrackOrder)

	returns := api.Group("/returns", g.Auth)
	returns.POST("", returnsHandler.RequestReturn)
	returns.GET("", returnsHandler.ListReturns)
	returns.GET("/:id", returnsHandler.GetReturn)
	returns.POST("/:id/cancel", returnsHandler.CancelReturn)
}

func SetPaymentsRoutes(api *echo.Group, paymentsHandler *rest.PaymentsHandler, g Guards) {
	payments := api.Group("/payments", g.Auth)
	payments.POST("/initiate", paymentsHandler.InitiatePayment)
	payments.POST("/razorpay/verify", paymentsHandler.VerifyRazorpay)
	payments.GET("", paymentsHandler.GetAllPayments)
	payments.GET("/transactions/:id", paymentsHandler.GetTransaction)
	api.GET("/paid", paymentsHandler.PaidResponse)
}

func SetWebhookHandler(api *echo.Group, webhookHandler *rest.WebhookController, g Guards) {
	webhooks := api.Group("/webhooks", g.RateLimit)
	webhooks.POST("/:gateway", webhookHandler.HandleWebhook)
}

func SetupDashboardRoutes(api *echo.Group, h *rest.DashboardHandler, g Guards) {
	dash := api.Group("/dashboard", g.Auth)

	dash.GET("/overview", h.Overview, g.can("dashboard", authz.ActionRead))
	dash.GET("/reports/sales", h.SalesReport, g.can("dashboard", authz.ActionRead))
	dash.GET("/reports/products", h.ProductReport, g.can("dashboard", authz.ActionRead))

	dash.GET("/orders", h.ListOrders, g.can("orders", authz.ActionRead))
	dash.GET("/orders/:id", h.GetOrder, g.can("orders", authz.ActionRead))
	dash.PUT("/orders/:id/status", h.UpdateOrderStatus, g.can("orders", authz.ActionWrite), g.audit("order.status", "order"))
	dash.PUT("/orders/:id/shipment", h.UpdateShipment, g.can("shipments", authz.ActionWrite), g.audit("order.shipment", "order"))
	dash.POST("/orders/:id/refund", h.RefundOrder, g.can("refunds", authz.ActionWrite), g.audit("order.refund", "order"))

	dash.GET("/returns", h.ListReturns, g.can("returns", authz.ActionRead))
	dash.GET("/returns/:id", h.GetReturn, g.can("returns", authz.ActionRead))
	dash.PUT("/returns/:id/status", h.UpdateReturnStatus, g.can("returns", authz.ActionWrite), g.audit("return.status", "return"))

	dash.GET("/transactions", h.ListTransactions, g.can("transactions", authz.ActionRead))
	dash.GET("/transactions/:id", h.GetTransaction, g.can("transactions", authz.ActionRead))

	dash.GET("/exports/orders.csv", h.ExportOrders, g.can("exports", authz.ActionRead))
	dash.GET("/exports/sales.csv", h.ExportSales, g.can("exports", authz.ActionRead))
	dash.GET("/exports/products.xlsx", h.ExportProducts, g.can("exports", authz.ActionRead))

	dash.GET("/activity", h.ListActivity, g.can("activity", authz.ActionRead))

	api.GET("/dashboard/live", h.Live, middleware.QueryToken(), g.Auth, g.can("live", authz.ActionRead))
}

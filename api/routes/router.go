package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/producehub/producehub-backend/api/controllers"
	"github.com/producehub/producehub-backend/api/middleware"
	"github.com/producehub/producehub-backend/internal/auth"
	"github.com/producehub/producehub-backend/internal/cheques"
	"github.com/producehub/producehub-backend/internal/drivers"
	"github.com/producehub/producehub-backend/internal/legaldocs"
	"github.com/producehub/producehub-backend/internal/members"
	"github.com/producehub/producehub-backend/internal/notifications"
	"github.com/producehub/producehub-backend/internal/orders"
	"github.com/producehub/producehub-backend/internal/preorders"
	"github.com/producehub/producehub-backend/internal/products"
	"github.com/producehub/producehub-backend/internal/routeplanner"
	"github.com/producehub/producehub-backend/internal/stores"
	"github.com/producehub/producehub-backend/internal/trips"
	"github.com/producehub/producehub-backend/internal/workorders"
	"github.com/producehub/producehub-backend/pkg/auth/session"
	"github.com/producehub/producehub-backend/pkg/config"
	"github.com/producehub/producehub-backend/pkg/db"
	"github.com/producehub/producehub-backend/pkg/enums"
	"github.com/producehub/producehub-backend/pkg/logger"
	"github.com/producehub/producehub-backend/pkg/metrics"
	"github.com/producehub/producehub-backend/pkg/redis"
)

// Dependencies is everything the HTTP surface needs. Nil services answer
// 500 "service unavailable" from their handlers; a nil Redis disables rate
// limiting and idempotency.
type Dependencies struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	Sessions       session.Checker
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler

	Auth          auth.Service
	Register      auth.RegisterService
	Stores        stores.Service
	Products      products.Service
	Locations     products.LocationService
	Orders        orders.Service
	PreOrders     preorders.Service
	Drivers       drivers.Service
	Trips         trips.Service
	RoutePlanner  routeplanner.Service
	Cheques       cheques.Service
	Members       members.Service
	Notifications notifications.Service
	LegalDocs     legaldocs.Service
	WorkOrders    workorders.Service
	Dashboard     controllers.DashboardService
}

func NewRouter(d Dependencies) http.Handler {
	cfg, logg := d.Config, d.Logger

	var (
		limiter     redis.RateLimiter
		idempotency redis.IdempotencyStore
		redisPinger redis.Pinger
	)
	if d.Redis != nil {
		limiter, idempotency, redisPinger = d.Redis, d.Redis, d.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, redisPinger))
	})
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(d.Auth, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, limiter, logg),
			middleware.Idempotency(idempotency, logg),
		).Post("/register", controllers.AuthRegister(d.Register, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, d.Sessions, logg)).Post("/logout", controllers.AuthLogout(d.Auth, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AdminAuthLogin(d.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.RateLimit(limiter, logg))
		r.Use(middleware.Idempotency(idempotency, logg))

		// reachable by pending and rejected stores so the client can route
		// them to the right landing page
		r.Get("/session", controllers.Session(d.Auth, logg))
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(d.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(d.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(d.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(d.Notifications, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireApprovedStore(logg))

			r.Get("/store", controllers.StoreProfile(d.Stores, logg))
			r.Patch("/store", controllers.StoreProfileUpdate(d.Stores, logg))
			r.Get("/store/statement", controllers.StoreStatement(d.Cheques, logg))
			r.Get("/store/legal-documents/summary", controllers.StoreLegalDocumentSummary(d.LegalDocs, logg))

			r.Get("/products", controllers.ProductCatalog(d.Products, logg))
			r.Get("/products/{productId}", controllers.ProductGet(d.Products, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(d.Orders, logg))
				r.Post("/", controllers.OrderCreate(d.Orders, logg))
				r.Get("/{orderId}", controllers.OrderGet(d.Orders, logg))
				r.Post("/{orderId}/cancel", controllers.OrderCancel(d.Orders, logg))
			})

			r.Route("/legal-documents", func(r chi.Router) {
				r.Get("/", controllers.LegalDocumentList(d.LegalDocs, logg))
				r.Post("/", controllers.LegalDocumentSubmit(d.LegalDocs, logg))
				r.Get("/{documentId}", controllers.LegalDocumentGet(d.LegalDocs, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.RequireRole(enums.RoleAdmin, logg))
		r.Use(middleware.RateLimit(limiter, logg))
		r.Use(middleware.Idempotency(idempotency, logg))

		r.Get("/session", controllers.Session(d.Auth, logg))
		r.Get("/dashboard", controllers.AdminDashboard(d.Dashboard, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(d.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(d.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(d.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(d.Notifications, logg))
		})

		r.Route("/stores", func(r chi.Router) {
			r.Get("/", controllers.AdminStoreList(d.Stores, logg))
			r.Get("/pending", controllers.AdminStorePending(d.Stores, logg))
			r.Get("/analytics", controllers.AdminStoreAnalytics(d.Stores, logg))
			r.Get("/export", controllers.AdminStoreExport(d.Stores, logg))
			r.Get("/{storeId}", controllers.AdminStoreGet(d.Stores, logg))
			r.Patch("/{storeId}", controllers.AdminStoreUpdate(d.Stores, logg))
			r.Put("/{storeId}/permissions", controllers.AdminStorePermissions(d.Stores, logg))
			r.Post("/{storeId}/approve", controllers.AdminStoreApprove(d.Stores, logg))
			r.Post("/{storeId}/reject", controllers.AdminStoreReject(d.Stores, logg))
			r.Get("/{storeId}/legal-documents/summary", controllers.AdminLegalDocumentSummary(d.LegalDocs, logg))
			r.With(financeRoles(logg)).Get("/{storeId}/statement", controllers.AdminStoreStatement(d.Cheques, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminProductList(d.Products, logg))
			r.Post("/", controllers.AdminProductCreate(d.Products, logg))
			r.Get("/{productId}", controllers.ProductGet(d.Products, logg))
			r.Patch("/{productId}", controllers.AdminProductUpdate(d.Products, logg))
			r.Delete("/{productId}", controllers.AdminProductDelete(d.Products, logg))
		})
		mountLocations(r, "/warehouses", controllers.NewLocationHandlers(d.Locations, products.KindWarehouse, logg))
		mountLocations(r, "/vendors", controllers.NewLocationHandlers(d.Locations, products.KindVendor, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(d.Orders, logg))
			r.Post("/", controllers.OrderCreate(d.Orders, logg))
			r.Get("/export", controllers.AdminOrderExport(d.Orders, logg))
			r.Get("/{orderId}", controllers.OrderGet(d.Orders, logg))
			r.Post("/{orderId}/status", controllers.AdminOrderStatus(d.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(d.Orders, logg))
		})

		r.Route("/pre-orders", func(r chi.Router) {
			r.Get("/", controllers.AdminPreOrderList(d.PreOrders, logg))
			r.Post("/", controllers.AdminPreOrderCreate(d.PreOrders, logg))
			r.Get("/{preOrderId}", controllers.AdminPreOrderGet(d.PreOrders, logg))
			r.Put("/{preOrderId}/items", controllers.AdminPreOrderUpdateItems(d.PreOrders, logg))
			r.Post("/{preOrderId}/confirm", controllers.AdminPreOrderConfirm(d.PreOrders, logg))
			r.Post("/{preOrderId}/convert", controllers.AdminPreOrderConvert(d.PreOrders, logg))
		})

		r.Route("/work-orders/{week}", func(r chi.Router) {
			r.Get("/", controllers.AdminWorkOrderGet(d.WorkOrders, logg))
			r.Post("/picks", controllers.AdminWorkOrderTogglePick(d.WorkOrders, logg))
			r.Put("/availability", controllers.AdminWorkOrderAvailability(d.WorkOrders, logg))
			r.Get("/export", controllers.AdminWorkOrderExport(d.WorkOrders, logg))
		})

		r.Route("/drivers", func(r chi.Router) {
			r.Get("/", controllers.AdminDriverList(d.Drivers, logg))
			r.Post("/", controllers.AdminDriverCreate(d.Drivers, logg))
			r.Get("/{driverId}", controllers.AdminDriverGet(d.Drivers, logg))
			r.Put("/{driverId}", controllers.AdminDriverUpdate(d.Drivers, logg))
			r.Delete("/{driverId}", controllers.AdminDriverDelete(d.Drivers, logg))
			r.Get("/{driverId}/trucks/active", controllers.AdminActiveTrucks(d.Drivers, logg))
			r.Post("/{driverId}/trucks", controllers.AdminTruckAdd(d.Drivers, logg))
			r.Put("/{driverId}/trucks/{truckId}", controllers.AdminTruckUpdate(d.Drivers, logg))
			r.Delete("/{driverId}/trucks/{truckId}", controllers.AdminTruckRemove(d.Drivers, logg))
		})

		r.Route("/trips", func(r chi.Router) {
			r.Get("/", controllers.AdminTripList(d.Trips, logg))
			r.Post("/", controllers.AdminTripCreate(d.Trips, logg))
			r.Get("/wizard/drivers/{driverId}", controllers.AdminTripWizardOptions(d.Trips, logg))
			r.Get("/{tripId}", controllers.AdminTripGet(d.Trips, logg))
			r.Post("/{tripId}/status", controllers.AdminTripStatus(d.Trips, logg))
		})

		r.Route("/route-plans", func(r chi.Router) {
			r.Get("/", controllers.AdminRoutePlanList(d.RoutePlanner, logg))
			r.Post("/", controllers.AdminRoutePlanCreate(d.RoutePlanner, logg))
			r.Get("/{planId}", controllers.AdminRoutePlanGet(d.RoutePlanner, logg))
			r.Delete("/{planId}", controllers.AdminRoutePlanDelete(d.RoutePlanner, logg))
			r.Get("/{planId}/candidates", controllers.AdminRoutePlanCandidates(d.RoutePlanner, logg))
			r.Post("/{planId}/stops", controllers.AdminRoutePlanAddStop(d.RoutePlanner, logg))
			r.Post("/{planId}/stops/move", controllers.AdminRoutePlanMoveStop(d.RoutePlanner, logg))
			r.Delete("/{planId}/stops/{stopType}/{refId}", controllers.AdminRoutePlanRemoveStop(d.RoutePlanner, logg))
			r.Post("/{planId}/calculate", controllers.AdminRoutePlanCalculate(d.RoutePlanner, logg))
			r.Post("/{planId}/optimize", controllers.AdminRoutePlanOptimize(d.RoutePlanner, logg))
			r.Post("/{planId}/save", controllers.AdminRoutePlanSave(d.RoutePlanner, logg))
		})

		r.Route("/legal-documents", func(r chi.Router) {
			r.Get("/", controllers.LegalDocumentList(d.LegalDocs, logg))
			r.Post("/", controllers.LegalDocumentSubmit(d.LegalDocs, logg))
			r.Get("/{documentId}", controllers.LegalDocumentGet(d.LegalDocs, logg))
			r.Post("/{documentId}/verify", controllers.AdminLegalDocumentVerify(d.LegalDocs, logg))
			r.Post("/{documentId}/reject", controllers.AdminLegalDocumentReject(d.LegalDocs, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(financeRoles(logg))
			r.Route("/cheques", func(r chi.Router) {
				r.Get("/", controllers.AdminChequeList(d.Cheques, logg))
				r.Post("/", controllers.AdminChequeCreate(d.Cheques, logg))
				r.Get("/{chequeId}", controllers.AdminChequeGet(d.Cheques, logg))
				r.Post("/{chequeId}/status", controllers.AdminChequeStatus(d.Cheques, logg))
			})
			r.Route("/payments", func(r chi.Router) {
				r.Get("/", controllers.AdminPaymentList(d.Cheques, logg))
				r.Post("/", controllers.AdminPaymentRecord(d.Cheques, logg))
			})
		})

		r.Route("/members", func(r chi.Router) {
			r.Use(middleware.RequireMemberRoles(logg, enums.MemberRoleAdmin, enums.MemberRoleManager))
			r.Get("/", controllers.AdminMemberList(d.Members, logg))
			r.Post("/", controllers.AdminMemberCreate(d.Members, logg))
			r.Get("/{memberId}", controllers.AdminMemberGet(d.Members, logg))
			r.Patch("/{memberId}", controllers.AdminMemberUpdate(d.Members, logg))
			r.Put("/{memberId}/status", controllers.AdminMemberStatus(d.Members, logg))
			r.Put("/{memberId}/capabilities", controllers.AdminMemberCapabilities(d.Members, logg))
			r.Get("/{memberId}/activity", controllers.AdminMemberActivity(d.Members, logg))
			r.Delete("/{memberId}", controllers.AdminMemberDelete(d.Members, logg))
		})
	})

	return r
}

func financeRoles(logg *logger.Logger) func(http.Handler) http.Handler {
	return middleware.RequireMemberRoles(logg, enums.MemberRoleAdmin, enums.MemberRoleManager, enums.MemberRoleAccountant)
}

func mountLocations(r chi.Router, path string, h controllers.LocationHandlers) {
	r.Route(path, func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Put("/{locationId}", h.Update)
		r.Delete("/{locationId}", h.Delete)
	})
}

package main

import (
	"context"
	"fmt"

	"github.com/producehub/producehub-backend/api/routes"
	"github.com/producehub/producehub-backend/internal/auth"
	"github.com/producehub/producehub-backend/internal/cheques"
	"github.com/producehub/producehub-backend/internal/dashboard"
	"github.com/producehub/producehub-backend/internal/drivers"
	"github.com/producehub/producehub-backend/internal/ledger"
	"github.com/producehub/producehub-backend/internal/legaldocs"
	"github.com/producehub/producehub-backend/internal/members"
	"github.com/producehub/producehub-backend/internal/notifications"
	"github.com/producehub/producehub-backend/internal/orders"
	"github.com/producehub/producehub-backend/internal/preorders"
	"github.com/producehub/producehub-backend/internal/products"
	"github.com/producehub/producehub-backend/internal/routeplanner"
	"github.com/producehub/producehub-backend/internal/stores"
	"github.com/producehub/producehub-backend/internal/trips"
	"github.com/producehub/producehub-backend/internal/users"
	"github.com/producehub/producehub-backend/internal/workorders"
	"github.com/producehub/producehub-backend/pkg/auth/session"
	"github.com/producehub/producehub-backend/pkg/config"
	"github.com/producehub/producehub-backend/pkg/db"
	"github.com/producehub/producehub-backend/pkg/logger"
	"github.com/producehub/producehub-backend/pkg/maps"
	"github.com/producehub/producehub-backend/pkg/outbox"
	"github.com/producehub/producehub-backend/pkg/security"
)

// wire builds every repository and service the HTTP surface routes to.
func wire(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sessionManager *session.Manager) (routes.Dependencies, error) {
	gdb := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(gdb), logg)
	hasher := security.NewHasher(cfg.Password)

	userRepo := users.NewRepository(gdb)
	storeRepo := stores.NewRepository(gdb)
	productRepo := products.NewRepository(gdb)
	orderRepo := orders.NewRepository(gdb)
	driverRepo := drivers.NewRepository(gdb)
	tripRepo := trips.NewRepository(gdb)
	chequeRepo := cheques.NewRepository(gdb)
	memberRepo := members.NewRepository(gdb)

	pricer, err := orders.NewPricer(cfg.Orders.TaxRate)
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("orders pricer: %w", err)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Users:          userRepo,
		Members:        memberRepo,
		Stores:         storeRepo,
		Passwords:      hasher,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("auth service: %w", err)
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		Tx:     dbClient,
		Users:  userRepo,
		Stores: storeRepo,
		Hasher: hasher,
		Outbox: emitter,
	})
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("register service: %w", err)
	}

	storeService, err := stores.NewService(stores.ServiceParams{
		Repo:             storeRepo,
		Tx:               dbClient,
		Outbox:           emitter,
		PaymentTermsDays: cfg.Orders.PaymentTermsDays,
		MaxExportRows:    cfg.Export.MaxRows,
	})
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("store service: %w", err)
	}

	productService, err := products.NewService(productRepo)
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("product service: %w", err)
	}
	locationService, err := products.NewLocationService(productRepo)
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("location service: %w", err)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:             orderRepo,
		Catalog:          productRepo,
		Stores:           storeRepo,
		Tx:               dbClient,
		Outbox:           emitter,
		Pricer:           pricer,
		ShippingFeeCents: cfg.Orders.ShippingFeeCents,
		MaxExportRows:    cfg.Export.MaxRows,
	})
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("order service: %w", err)
	}

	preOrderService, err := preorders.NewService(preorders.ServiceParams{
		Repo:             preorders.NewRepository(gdb),
		Orders:           orderRepo,
		Catalog:          productRepo,
		Stores:           storeRepo,
		Tx:               dbClient,
		Outbox:           emitter,
		Pricer:           pricer,
		ShippingFeeCents: cfg.Orders.ShippingFeeCents,
	})
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("pre-order service: %w", err)
	}

	driverService, err := drivers.NewService(driverRepo, dbClient, nil)
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("driver service: %w", err)
	}

	tripService, err := trips.NewService(trips.ServiceParams{
		Repo:    tripRepo,
		Drivers: driverRepo,
		Trucks:  driverService,
		Orders:  orderRepo,
		Tx:      dbClient,
		Outbox:  emitter,
	})
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("trip service: %w", err)
	}

	// A nil maps client answers every call with maps.ErrUnavailable, so plan
	// editing keeps working without a key and only routing calls fail.
	var mapsClient *maps.Client
	if cfg.GoogleMaps.Enabled() {
		mapsClient, err = maps.NewClient(cfg.GoogleMaps)
		if err != nil {
			return routes.Dependencies{}, fmt.Errorf("maps client: %w", err)
		}
	} else {
		logg.Warn(context.Background(), "google maps key missing; routing calls disabled")
	}
	planner, err := routeplanner.NewService(routeplanner.ServiceParams{
		Repo:      routeplanner.NewRepository(gdb),
		Locations: productRepo,
		Stores:    storeRepo,
		Router:    mapsClient,
		Trips:     tripService,
	})
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("route planner: %w", err)
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(gdb), nil)
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("ledger service: %w", err)
	}
	chequeService, err := cheques.NewService(cheques.ServiceParams{
		Repo:   chequeRepo,
		Stores: storeRepo,
		Ledger: ledgerService,
		Tx:     dbClient,
		Outbox: emitter,
	})
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("cheque service: %w", err)
	}

	memberService, err := members.NewService(memberRepo, dbClient, hasher)
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("member service: %w", err)
	}

	notificationService, err := notifications.NewService(notifications.NewRepository(gdb), nil)
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("notification service: %w", err)
	}

	legalDocService, err := legaldocs.NewService(legaldocs.ServiceParams{
		Repo:   legaldocs.NewRepository(gdb),
		Stores: storeRepo,
		Tx:     dbClient,
	})
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("legal document service: %w", err)
	}

	workOrderService, err := workorders.NewService(workorders.NewRepository(gdb), productRepo, nil)
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("work order service: %w", err)
	}

	dashboardService, err := dashboard.NewService(dashboard.ServiceParams{
		Stores:        storeRepo,
		Orders:        orderRepo,
		Trips:         tripRepo,
		Cheques:       chequeRepo,
		Notifications: notificationService,
	})
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("dashboard service: %w", err)
	}

	return routes.Dependencies{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		Sessions:      sessionManager,
		Auth:          authService,
		Register:      registerService,
		Stores:        storeService,
		Products:      productService,
		Locations:     locationService,
		Orders:        orderService,
		PreOrders:     preOrderService,
		Drivers:       driverService,
		Trips:         tripService,
		RoutePlanner:  planner,
		Cheques:       chequeService,
		Members:       memberService,
		Notifications: notificationService,
		LegalDocs:     legalDocService,
		WorkOrders:    workOrderService,
		Dashboard:     dashboardService,
	}, nil
}

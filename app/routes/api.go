// Package routes wires the repositories, services and controllers into the
// HTTP route table.
package routes

import (
	"net/http"
	"time"

	"github.com/poppys-produce/backend/app/controllers"
	"github.com/poppys-produce/backend/app/gql"
	"github.com/poppys-produce/backend/app/jobs"
	"github.com/poppys-produce/backend/app/repositories"
	"github.com/poppys-produce/backend/app/services"
	"github.com/poppys-produce/backend/pkg/genai"
	gqlhttp "github.com/poppys-produce/backend/pkg/graphql"
	"github.com/poppys-produce/backend/pkg/metrics"
	"github.com/poppys-produce/backend/pkg/middleware"
	"github.com/poppys-produce/backend/pkg/rbac"
	"github.com/poppys-produce/backend/pkg/reqid"
	"github.com/poppys-produce/backend/pkg/response"
	"github.com/poppys-produce/backend/pkg/router"
	"github.com/poppys-produce/backend/pkg/ws"
)

// Build constructs the full router. hub feeds the admin order-events
// websocket; pass nil to disable broadcasting (CLI tools, tests).
func Build(hub *ws.Hub) (*router.Router, error) {
	users := repositories.NewUserRepository()
	orders := repositories.NewOrderRepository()
	subs := repositories.NewSubAccountRepository()
	products := repositories.NewProductRepository()
	settings := repositories.NewSettingsRepository()

	authSvc := services.NewAuthService(users)
	accountSvc := services.NewAccountService(users, subs)
	catalogSvc := services.NewCatalogService(products, subs, settings)
	orderSvc := services.NewOrderService(orders, users, subs, settings).
		WithEvents(hub).
		WithInvoiceEnqueue(jobs.Dispatch)
	truckSvc := services.NewTruckService(orders, subs)
	adminSvc := services.NewAdminService(users, orders, settings)
	assistantSvc := services.NewAssistantService(orders, genai.NewClient())

	authCtl := controllers.NewAuthController(authSvc)
	profileCtl := controllers.NewProfileController(accountSvc)
	catalogCtl := controllers.NewCatalogController(catalogSvc)
	orderCtl := controllers.NewOrderController(orderSvc)
	truckCtl := controllers.NewTruckController(truckSvc)
	subCtl := controllers.NewSubAccountController(accountSvc)
	assistantCtl := controllers.NewAssistantController(assistantSvc)
	adminCtl := controllers.NewAdminController(adminSvc)

	schema, err := gqlhttp.NewSchema(gql.NewRootQuery(products, orders))
	if err != nil {
		return nil, err
	}

	r := router.New()
	r.Use(
		metrics.Middleware(),
		middleware.Recovery,
		reqid.Middleware(),
		middleware.Logger,
		middleware.CORS(middleware.DefaultCORSOptions()),
		middleware.RateLimit(300, time.Minute),
	)

	r.Get("/healthz", "healthz", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	api := r.Group("/api")

	api.Post("/auth/register", "auth.register", authCtl.Register)
	api.Post("/auth/login", "auth.login", authCtl.Login)

	authed := api.Group("", middleware.Authenticate)

	authed.Get("/profile", "profile.show", profileCtl.Show)
	authed.Put("/profile/username", "profile.username", profileCtl.UpdateUsername)
	authed.Post("/profile/push-tokens", "profile.push-tokens", profileCtl.RegisterPushToken)

	authed.Get("/catalog/products", "catalog.products", catalogCtl.Products)
	authed.Get("/catalog/home", "catalog.home", catalogCtl.Home)

	authed.Post("/orders", "orders.create", orderCtl.Create)
	authed.Get("/orders", "orders.list", orderCtl.List)
	authed.Put("/orders/{id}", "orders.update", orderCtl.Update)
	authed.Delete("/orders/{id}", "orders.delete", orderCtl.Delete)
	authed.Post("/orders/batch-submit", "orders.batch-submit", orderCtl.BatchSubmit, rbac.RequireSuperUser)
	authed.Post("/orders/{id}/email", "orders.email", orderCtl.EmailToUser)

	superuser := authed.Group("", rbac.RequireSuperUser)
	superuser.Get("/trucks", "trucks.list", truckCtl.List)
	superuser.Get("/trucks/{truck}/picklist", "trucks.picklist", truckCtl.PickList)
	superuser.Get("/sub-accounts", "sub-accounts.list", subCtl.List)
	superuser.Post("/sub-accounts", "sub-accounts.create", subCtl.Create)
	superuser.Put("/sub-accounts/{id}", "sub-accounts.update", subCtl.Update)

	authed.Post("/assistant/ask", "assistant.ask", assistantCtl.Ask)

	admin := authed.Group("/admin", rbac.RequireAdmin)
	admin.Get("/users", "admin.users", adminCtl.ListUsers)
	admin.Put("/users/{id}/truck-number", "admin.truck-number", adminCtl.SetTruckNumber)
	admin.Post("/users/roles", "admin.roles", adminCtl.SetRole)
	admin.Post("/orders/batch-delete", "admin.batch-delete", adminCtl.BatchDeleteOrders)
	admin.Post("/orders/{id}/resend-email", "admin.resend-email", adminCtl.ResendOrderEmail)
	admin.Get("/settings", "admin.settings.show", adminCtl.GetSettings)
	admin.Put("/settings", "admin.settings.update", adminCtl.UpdateSettings)

	authed.Post("/graphql", "graphql", gqlhttp.Handler(schema))

	if hub != nil {
		r.Handle("/ws/orders", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ws.Upgrade(w, r, hub)
		}), middleware.Authenticate, rbac.RequireAdmin)
	}

	return r, nil
}

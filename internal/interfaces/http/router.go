package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/acopio-api/internal/application/auth"
	"github.com/jhoicas/acopio-api/internal/application/collection"
	"github.com/jhoicas/acopio-api/internal/application/report"
	"github.com/jhoicas/acopio-api/internal/application/settlement"
	"github.com/jhoicas/acopio-api/internal/application/usecase"
	"github.com/jhoicas/acopio-api/internal/domain/entity"
	"github.com/jhoicas/acopio-api/internal/domain/record"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Store      record.Store
	AuthUC     *auth.AuthUseCase
	RoleUC     *usecase.RoleUseCase
	ProducerUC *usecase.ProducerUseCase
	PickupUC   *collection.UseCase
	ReportUC   *report.UseCase
	Watcher    *report.Watcher
	Engine     *settlement.Engine
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Sesión y guard de vistas (cualquier rol, incluso sin_asignar)
	sessionHandler := NewSessionHandler(deps.Store)
	sessionGroup := protected.Group("/session")
	sessionGroup.Get("/route", sessionHandler.Route)
	sessionGroup.Get("/home", sessionHandler.Home)

	// Usuarios y roles (solo admin)
	users := protected.Group("/users", RequireRole(entity.RoleAdmin))
	userHandler := NewUserHandler(deps.AuthUC, deps.RoleUC)
	users.Get("/", userHandler.List)
	users.Post("/", userHandler.Create)
	users.Put("/:id/role", userHandler.ChangeRole)

	// Productores (alta y asignación solo admin; lectura también empleador)
	producerHandler := NewProducerHandler(deps.ProducerUC)
	producers := protected.Group("/producers")
	producers.Get("/", RequireRole(entity.RoleAdmin, entity.RoleEmpleador), producerHandler.List)
	producers.Post("/", RequireRole(entity.RoleAdmin), producerHandler.Create)
	producers.Put("/:id/worker", RequireRole(entity.RoleAdmin), producerHandler.AssignWorker)

	// Recogidas (registro solo recolector; corrección de pago admin/empleador)
	pickupHandler := NewPickupHandler(deps.PickupUC, deps.Engine)
	pickups := protected.Group("/pickups")
	pickups.Post("/", RequireRole(entity.RoleRecolector), pickupHandler.Create)
	pickups.Get("/producers", RequireRole(entity.RoleRecolector), pickupHandler.AssignedProducers)
	pickups.Put("/:id/paid", RequireRole(entity.RoleAdmin, entity.RoleEmpleador), pickupHandler.SetPaid)

	// Precio global por litro (lectura autenticada; escritura admin/empleador)
	price := protected.Group("/price")
	price.Get("/", pickupHandler.GetPrice)
	price.Put("/", RequireRole(entity.RoleAdmin, entity.RoleEmpleador), pickupHandler.SetPrice)

	// Reportes (admin/empleador) y panel del productor
	reportHandler := NewReportHandler(deps.ReportUC, deps.Watcher)
	reports := protected.Group("/reports", RequireRole(entity.RoleAdmin, entity.RoleEmpleador))
	reports.Get("/rollups", reportHandler.Rollups)
	reports.Get("/rows", reportHandler.Rows)
	protected.Get("/me/summary", RequireRole(entity.RoleProductor), reportHandler.OwnSummary)

	// Liquidaciones (admin/empleador)
	settlementHandler := NewSettlementHandler(deps.Engine)
	settlements := protected.Group("/settlements", RequireRole(entity.RoleAdmin, entity.RoleEmpleador))
	settlements.Post("/", settlementHandler.Select)
	settlements.Get("/:producerID", settlementHandler.Status)
	settlements.Post("/:producerID/confirm", settlementHandler.Confirm)
	settlements.Post("/:producerID/commit", settlementHandler.Commit)
	settlements.Post("/:producerID/abort", settlementHandler.Abort)
}

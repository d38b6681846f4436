package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civicchain/civic-service/internal/api/http/handlers"
	"github.com/civicchain/civic-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Issues         *handlers.IssuesHandler
	Votes          *handlers.VotesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	app.Get("/users/me", cfg.AuthMiddleware.Handle, cfg.Users.Profile)

	issues := app.Group("/issues")
	issues.Get("/leaderboard", cfg.Issues.Leaderboard)
	issues.Get("/", cfg.Issues.ListIssues)
	issues.Get("/:id", cfg.Issues.GetIssue)

	issues.Post("/", cfg.AuthMiddleware.Handle, cfg.Issues.CreateIssue)
	issues.Patch("/:id/status", cfg.AuthMiddleware.Handle, cfg.Issues.UpdateStatus)
	issues.Post("/:id/votes", cfg.AuthMiddleware.Handle, cfg.Votes.CastVote)
	issues.Post("/:id/verifications", cfg.AuthMiddleware.Handle, cfg.Votes.VerifyIssue)
}

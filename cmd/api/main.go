// cmd/api/main.go
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"

	"librarylounge/internal/auth"
	"librarylounge/internal/books"
	"librarylounge/internal/config"
	"librarylounge/internal/issues"
	"librarylounge/internal/logger"
	"librarylounge/internal/mailer"
	"librarylounge/internal/reports"
	"librarylounge/internal/telemetry"
	"librarylounge/internal/users"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	log := logger.Get()

	ctx := context.Background()
	if cfg.Telemetry.Endpoint != "" {
		shutdown, err := telemetry.Setup(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
		if err != nil {
			log.Error("failed to set up telemetry", "error", err)
			os.Exit(1)
		}
		defer shutdown(context.Background())
	}

	db, err := sql.Open("postgres", cfg.Database.URL())
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	mail := mailer.NewSMTP(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)

	userSvc := users.NewService(db, tokens, mail)
	bookSvc := books.NewService(db)
	store := issues.NewStore(db)
	issueSvc := issues.NewService(store, bookSvc, userSvc, mail)
	reportSvc := reports.NewService(db, store)

	userHandler := users.NewHandler(userSvc)
	bookHandler := books.NewHandler(bookSvc)
	issueHandler := issues.NewHandler(issueSvc)
	reportHandler := reports.NewHandler(reportSvc)

	librarian := auth.RequireRole(auth.RoleLibrarian)
	member := auth.RequireRole(auth.RoleMember)
	superAdmin := auth.RequireRole(auth.RoleSuperAdmin)
	staff := auth.RequireRole(auth.RoleLibrarian, auth.RoleSuperAdmin)
	anyRole := auth.RequireRole(auth.RoleMember, auth.RoleLibrarian, auth.RoleSuperAdmin)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", userHandler.HandleLogin)
		r.Post("/users", userHandler.HandleRegister)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.With(superAdmin).Get("/users", userHandler.HandleListUsers)
			r.With(staff).Get("/users/{id}", userHandler.HandleGetUser)
			r.With(superAdmin).Put("/users/{id}", userHandler.HandleUpdateUser)
			r.With(superAdmin).Delete("/users/{id}", userHandler.HandleRemoveUser)

			r.Get("/book", bookHandler.HandleListBooks)
			r.Get("/book/{id}", bookHandler.HandleGetBook)
			r.With(librarian).Post("/book", bookHandler.HandleAddBook)
			r.With(librarian).Put("/book/{id}", bookHandler.HandleUpdateBook)
			r.With(librarian).Delete("/book/{id}", bookHandler.HandleRemoveBook)

			r.Route("/book-issues", func(r chi.Router) {
				r.With(member).Post("/request", issueHandler.HandleRequestBook)
				r.With(member).Post("/request-return/{id}", issueHandler.HandleRequestReturn)
				r.With(member).Get("/user", issueHandler.HandleListByUser)
				r.With(librarian).Get("/", issueHandler.HandleListAll)
				r.With(librarian).Post("/return/{id}", issueHandler.HandleConfirmReturn)
				r.With(staff).Get("/daily", issueHandler.HandleListDaily)
				r.With(staff).Get("/count", issueHandler.HandleCount)
				r.With(staff).Post("/notify-overdue/{id}", issueHandler.HandleNotifyOverdue)
				r.With(anyRole).Get("/returning-request", issueHandler.HandleListReturning)
				r.With(librarian).Post("/{id}", issueHandler.HandleDecide)
			})

			r.Route("/librarian-dashboard", func(r chi.Router) {
				r.Use(staff)
				r.Get("/book-count", reportHandler.HandleBookCount)
				r.Get("/issued-book-count", reportHandler.HandleIssuedBookCount)
				r.Get("/overdue-book-count", reportHandler.HandleOverdueBookCount)
				r.Get("/returned-book-count", reportHandler.HandleReturnedBookCount)
				r.Get("/issued-books", reportHandler.HandleIssuedBooks)
				r.Get("/returned-books", reportHandler.HandleReturnedBooks)
				r.Get("/overdue-books", reportHandler.HandleOverdueBooks)
				r.Get("/requested-books", reportHandler.HandleRequestedBooks)
			})

			r.With(superAdmin).Get("/admin-dashboard/stats", reportHandler.HandleAdminStats)
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting API server", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

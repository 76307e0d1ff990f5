package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/kevinaaaquil/novel-tracker/backend/config"
	"github.com/kevinaaaquil/novel-tracker/backend/handlers"
	"github.com/kevinaaaquil/novel-tracker/backend/logger"
	"github.com/kevinaaaquil/novel-tracker/backend/middleware"
	"github.com/kevinaaaquil/novel-tracker/backend/service"
	"github.com/kevinaaaquil/novel-tracker/backend/store"
	"github.com/kevinaaaquil/novel-tracker/backend/token"
)

func main() {
	_ = godotenv.Load()
	config.ValidateEnv()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("config")
	}

	ctx := context.Background()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		logger.Log.WithError(err).Fatal("mongodb")
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			logger.Log.WithError(err).Warn("mongodb disconnect")
		}
	}()

	var s3Service *service.S3Service
	if cfg.S3Bucket != "" {
		s3Service, err = service.NewS3Service(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey)
		if err != nil {
			logger.Log.WithError(err).Fatal("s3")
		}
	} else {
		logger.Log.Warn("AWS_S3_BUCKET not set; image uploads will fail")
	}

	mailer := service.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)

	var quotes *service.QuoteService
	if cfg.QuoteAPIKey != "" {
		quotes = service.NewQuoteService(cfg.QuoteAPIURL, cfg.QuoteAPIKey, cfg.QuoteModel)
	} else {
		logger.Log.Warn("QUOTE_API_KEY not set; welcome quotes disabled")
	}

	tokens := token.NewManager(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.ResetTokenSecret)
	maxBytes := cfg.MaxUploadMB * 1024 * 1024

	authHandler := &handlers.AuthHandler{
		DB:          db,
		Tokens:      tokens,
		S3:          s3Service,
		Mailer:      mailer,
		FrontendURL: cfg.FrontendURL,
		MaxBytes:    maxBytes,
	}
	usersHandler := &handlers.UsersHandler{DB: db, S3: s3Service, MaxBytes: maxBytes}
	booksHandler := &handlers.BooksHandler{DB: db, S3: s3Service, MaxBytes: maxBytes}
	statsHandler := &handlers.StatsHandler{DB: db}
	quoteHandler := &handlers.QuoteHandler{Quotes: quotes}

	authed := middleware.Auth(tokens, db)

	r := chi.NewRouter()
	r.Use(middleware.AllowAll())
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password/{token}", authHandler.ResetPassword)
			r.Group(func(r chi.Router) {
				r.Use(authed)
				r.Post("/logout", authHandler.Logout)
				r.Put("/update-account", usersHandler.UpdateAccount)
				r.Delete("/delete-account", usersHandler.DeleteAccount)
			})
		})
		r.Post("/auth/token/refresh", authHandler.Refresh)
		// Public so cover images work as plain img src URLs.
		r.Get("/books/cover/{bookId}", booksHandler.Cover)

		r.Group(func(r chi.Router) {
			r.Use(authed)
			r.Route("/books", func(r chi.Router) {
				r.Get("/all", booksHandler.List)
				r.Get("/get-book/{bookId}", booksHandler.Get)
				r.Post("/add", booksHandler.Add)
				r.Put("/update/{bookId}", booksHandler.Update)
				r.Delete("/delete/{bookId}", booksHandler.Delete)
				r.Get("/download/{bookId}", booksHandler.Download)
			})
			r.Route("/stats", func(r chi.Router) {
				r.Get("/all", statsHandler.Get)
				r.Put("/update", statsHandler.UpdateProgress)
				r.Put("/reset", statsHandler.ResetReread)
			})
			r.Get("/quote/get", quoteHandler.Get)
		})
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Log.Infof("server listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Warn("shutdown")
	}
}

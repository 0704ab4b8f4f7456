package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "modernc.org/sqlite"

	cfg "github.com/example/bucketlist/internal/config"
)

type App struct {
	DB          DB
	rateLimiter *RateLimiter
	currentUser *CurrentUser
	views       *ViewTracker
	mailer      Mailer
	fetchSocial func(socialProviderSpec, string) (map[string]interface{}, error)
}

func NewApp(db DB, c *cfg.Config) *App {
	return &App{
		DB:          db,
		rateLimiter: NewRateLimiter(c.AuthRateLimitPerMinute),
		currentUser: &CurrentUser{db: db},
		views:       NewViewTracker(c.ViewTTL),
		mailer:      LogMailer{},
		fetchSocial: fetchSocialAttributes,
	}
}

func newRouter(app *App) *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(SecurityHeaders)
	r.Use(app.Logging)
	r.Use(app.CORS)

	// Health check endpoints (no auth required)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(200)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if p, ok := app.DB.(interface{ ping() bool }); ok {
			if !p.ping() {
				w.WriteHeader(503)
				w.Write([]byte(`{"ready":false}`))
				return
			}
		}
		w.WriteHeader(200)
		w.Write([]byte(`{"ready":true}`))
	}).Methods("GET")

	// Every API route passes the bearer gate; requests without a token
	// proceed unauthenticated and are rejected by the handlers that need
	// an identity.
	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.Use(app.BearerAuth)

	// Authentication endpoints (public, rate limited)
	auth := v1.PathPrefix("/auth").Subrouter()
	auth.Use(app.AuthRateLimit)
	auth.HandleFunc("/login", app.HandleLogin).Methods("POST")
	auth.HandleFunc("/register", app.HandleRegister).Methods("POST")
	auth.HandleFunc("/social/login", app.HandleSocialLogin).Methods("POST")
	auth.HandleFunc("/forgot-password", app.HandleForgotPassword).Methods("POST")
	auth.HandleFunc("/reset-password/validate", app.HandleValidateResetToken).Methods("GET")
	auth.HandleFunc("/reset-password", app.HandleResetPassword).Methods("POST")

	// Profile endpoints
	v1.HandleFunc("/users/me", app.HandleGetProfile).Methods("GET")
	v1.HandleFunc("/users/me", app.HandleUpdateProfile).Methods("PUT")

	// Blog endpoints
	v1.HandleFunc("/blogs", app.HandleCreateBlogPost).Methods("POST")
	v1.HandleFunc("/blogs", app.HandleListBlogPosts).Methods("GET")
	v1.HandleFunc("/blogs/{id:[0-9]+}", app.HandleGetBlogPost).Methods("GET")
	v1.HandleFunc("/blogs/{id:[0-9]+}", app.HandleUpdateBlogPost).Methods("PUT")
	v1.HandleFunc("/blogs/{id:[0-9]+}", app.HandleDeleteBlogPost).Methods("DELETE")

	// Bucket list endpoints
	v1.HandleFunc("/bucket-lists", app.HandleCreateBucketList).Methods("POST")
	v1.HandleFunc("/bucket-lists", app.HandleListBucketLists).Methods("GET")
	v1.HandleFunc("/bucket-lists/{id:[0-9]+}", app.HandleGetBucketList).Methods("GET")
	v1.HandleFunc("/bucket-lists/{id:[0-9]+}", app.HandleUpdateBucketList).Methods("PUT")
	v1.HandleFunc("/bucket-lists/{id:[0-9]+}", app.HandleDeleteBucketList).Methods("DELETE")

	return r
}

func main() {
	c, err := cfg.New()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	jwtSecret = []byte(c.JwtSecret)
	jwtExpiration = c.JwtExpiration

	var db DB
	switch c.DBAdapter {
	case "sqlite":
		s, err := NewSQLiteDB(c.SQLiteFile)
		if err != nil {
			log.Fatalf("sqlite init: %v", err)
		}
		db = s
	case "postgres":
		dsn, err := c.BuildPostgresDSN()
		if err != nil {
			log.Fatalf("postgres config error: %v", err)
		}

		// Apply migrations before connecting
		log.Println("Applying database migrations...")
		if err := ApplyMigrations("./migrations", dsn); err != nil {
			log.Printf("migrations warning: %v", err)
		} else {
			log.Println("Migrations applied successfully")
		}

		p, err := NewPostgresDB(dsn)
		if err != nil {
			log.Fatalf("postgres init: %v", err)
		}
		db = p
		log.Println("Connected to PostgreSQL database")
	case "memory":
		log.Println("Using in-memory database (not recommended for production)")
		db = NewMemoryDB()
	default:
		log.Fatalf("unsupported DB_ADAPTER: %s (supported: postgres, sqlite, memory)", c.DBAdapter)
	}

	app := NewApp(db, c)
	r := newRouter(app)

	srv := &http.Server{Handler: r, Addr: ":" + c.Port, ReadTimeout: 5 * time.Second, WriteTimeout: 10 * time.Second}

	go func() {
		log.Println("Starting server on", c.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if closer, ok := app.DB.(interface{ close() error }); ok {
		_ = closer.close()
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown failed:%+v", err)
	}
	log.Println("Server exited properly")
}

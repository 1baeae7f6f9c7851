package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/oklog/ulid/v2"
	"github.com/rs/cors"

	"github.com/yenulab/yenu/internal/assets"
	"github.com/yenulab/yenu/internal/config"
	"github.com/yenulab/yenu/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// NewServer creates and configures the HTTP server for the Yenu API and
// web UI.
func NewServer(st *store.Store, as *assets.Assets, cfg *config.Config, version, bind string, port int) *http.Server {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		log.Fatalf("failed to create template sub-FS: %v", err)
	}
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatalf("failed to create static sub-FS: %v", err)
	}

	h := &Handlers{
		store:    st,
		assets:   as,
		cfg:      cfg,
		renderer: NewRenderer(templateSub, version),
	}

	router := httprouter.New()

	// HTML pages
	router.GET("/", h.HandleHome)
	router.GET("/recipes", h.HandleListPage)
	router.GET("/recipes/:slug", h.HandleDetailPage)

	// JSON API
	router.GET("/api/recipes", h.HandleSearch)
	router.POST("/api/recipes", h.HandleCreate)
	router.GET("/api/recipes/:slug", h.HandleGet)
	router.PUT("/api/recipes/:slug", h.HandleUpdate)
	router.DELETE("/api/recipes", h.HandleBulkDelete)
	router.DELETE("/api/recipes/:slug", h.HandleDelete)
	router.POST("/api/recipes/:slug/images", h.HandleUploadImage)
	router.GET("/api/export", h.HandleExport)
	router.POST("/api/import", h.HandleImport)
	router.GET("/api/backup.zip", h.HandleBackup)
	router.GET("/healthz", h.HandleHealth)

	// Stored images and embedded static files
	router.GET("/assets/uploads/*filepath", h.HandleAsset)
	router.ServeFiles("/static/*filepath", http.FS(staticSub))

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.renderer.renderError(w, r, notFoundRoute(r.URL.Path))
	})

	handler := cors.Default().Handler(router)
	handler = securityHeaders(handler)
	handler = requestID(handler)

	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", bind, port),
		Handler: handler,
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'; img-src 'self' data:")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// requestID tags every response with a ULID for log correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", ulid.Make().String())
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Printf("Yenu running at http://%s", srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Printf("WARNING: Server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

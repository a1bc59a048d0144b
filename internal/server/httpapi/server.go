// Package httpapi exposes the file catalog, device presence tracker and
// account service over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/synchub/backend/internal/logging"
	"github.com/synchub/backend/internal/server/catalog"
	"github.com/synchub/backend/internal/server/models"
	"github.com/synchub/backend/internal/server/users"
)

// Catalog is the file-catalog surface the handlers need.
type Catalog interface {
	Upload(ctx context.Context, userID string, req *catalog.UploadRequest) (*models.FileRecord, error)
	List(ctx context.Context, userID string) ([]*models.FileRecord, error)
	ListByFolder(ctx context.Context, userID, folder string) ([]*models.FileRecord, error)
	GetDetails(ctx context.Context, id, userID string) (*models.FileRecord, error)
	Download(ctx context.Context, id, userID string) (*catalog.DownloadResult, error)
	Move(ctx context.Context, id, userID, newFolder string) (*models.FileRecord, error)
	Delete(ctx context.Context, id, userID string) error
}

// Accounts is the account-service surface the handlers need.
type Accounts interface {
	Register(ctx context.Context, email, name, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Presence is the device-registry surface the handlers need.
type Presence interface {
	RecordActivity(name, deviceType, address, userEmail string)
	Snapshot() []models.DeviceStatus
}

var _ Catalog = (*catalog.Service)(nil)
var _ Accounts = (*users.Service)(nil)

// Server is the HTTP front of the sync backend.
type Server struct {
	address   string
	logger    logging.Logger
	jwtSecret []byte
	catalog   Catalog
	accounts  Accounts
	presence  Presence
}

// NewServer wires the services into an HTTP server bound to address.
func NewServer(address string, l logging.Logger, c Catalog, a Accounts, p Presence, secretKey string) *Server {
	return &Server{
		address:   address,
		logger:    l.With("module", "http_server"),
		jwtSecret: []byte(secretKey),
		catalog:   c,
		accounts:  a,
		presence:  p,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(requestLogger(s.logger))
	r.Use(metricsMiddleware(func(req *http.Request) string {
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			return rctx.RoutePattern()
		}
		return req.URL.Path
	}))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/auth/me", s.handleCurrentUser)
	})

	r.Route("/files", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/", s.handleListFiles)
		r.Get("/by-folder/{folder}", s.handleListByFolder)
		r.Post("/upload", s.handleUpload)
		r.Post("/move/{id}", s.handleMove)
		r.Delete("/delete/{id}", s.handleDelete)
		r.Get("/stream/{id}", s.handleStream)
		r.Get("/{id}", s.handleFileDetails)
		r.Get("/{id}/download", s.handleDownload)
	})

	r.Route("/devices", func(r chi.Router) {
		r.Get("/", s.handleListDevices)
		r.Post("/register", s.handleRegisterDevice)
		r.Post("/heartbeat", s.handleHeartbeat)
	})

	return r
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.address,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Package router is the HTTP surface of the letter archive: a chi mux with
// the JSON API under /api, the attachment download mount and the
// operational endpoints.
package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/patric-chuzhbe/arsipsurat/internal/filestore"
	"github.com/patric-chuzhbe/arsipsurat/internal/gzippedhttp"
	"github.com/patric-chuzhbe/arsipsurat/internal/logger"
	"github.com/patric-chuzhbe/arsipsurat/internal/models"
	"github.com/patric-chuzhbe/arsipsurat/internal/service"
)

type authService interface {
	Login(ctx context.Context, username, password string) (string, *models.User, error)

	Register(ctx context.Context, credentials service.Credentials) (int64, error)
}

type unitService interface {
	ListUnits(ctx context.Context) ([]models.Unit, error)

	CreateUnit(ctx context.Context, unit models.Unit) (int64, error)

	UpdateUnit(ctx context.Context, unit models.Unit) error

	DeleteUnit(ctx context.Context, unitID int64) error
}

type letterService interface {
	CreateLetter(ctx context.Context, in models.LetterInput, upload *models.Upload) (int64, error)

	UpdateLetter(ctx context.Context, letterID int64, in models.LetterInput, upload *models.Upload) error

	DeleteLetter(ctx context.Context, letterID int64) error

	GetLetter(ctx context.Context, letterID int64) (*models.Letter, error)

	ListLetters(ctx context.Context, filter models.LetterFilter) (*models.LetterPage, error)

	OpenAttachment(ctx context.Context, name string) (*filestore.Object, error)
}

type dashboardService interface {
	Stats(ctx context.Context) (*models.DashboardStats, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type archiveService interface {
	authService
	unitService
	letterService
	dashboardService
	pinger
}

type authenticator interface {
	AuthenticateUser(h http.Handler) http.Handler
}

type subnetGuard interface {
	Guard(h http.Handler) http.Handler
}

type metricsCollector interface {
	Middleware(h http.Handler) http.Handler

	Handler() http.Handler
}

// bannerMessage is served at GET /.
const bannerMessage = "API Sistem Arsip Surat BPN Palembang"

// multipartOverhead is the body allowance on top of the attachment size
// limit for the text fields and part headers of a letter form.
const multipartOverhead = 1 << 20

// multipartMemory is how much of a multipart body is kept in memory before
// parts spill to temporary files.
const multipartMemory = 8 << 20

// Router holds the handlers of the archive API.
type Router struct {
	service       archiveService
	maxUploadSize int64
}

// InitOption customizes New.
type InitOption func(*initOptions)

type initOptions struct {
	corsOrigins   []string
	maxUploadSize int64
}

// WithCORSOrigins sets the origins allowed by CORS. The default allows any.
func WithCORSOrigins(origins []string) InitOption {
	return func(options *initOptions) {
		options.corsOrigins = origins
	}
}

// WithMaxUploadSize sets the attachment size limit the request body limit is
// derived from.
func WithMaxUploadSize(size int64) InitOption {
	return func(options *initOptions) {
		options.maxUploadSize = size
	}
}

// New builds the mux.
func New(
	svc archiveService,
	authMiddleware authenticator,
	registrationGuard subnetGuard,
	metrics metricsCollector,
	optionsProto ...InitOption,
) *chi.Mux {
	options := &initOptions{
		corsOrigins:   []string{"*"},
		maxUploadSize: 5 << 20,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	theRouter := &Router{
		service:       svc,
		maxUploadSize: options.maxUploadSize,
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(logger.WithLoggingHTTPMiddleware)
	router.Use(metrics.Middleware)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: options.corsOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Content-Encoding"},
		MaxAge:         300,
	}))

	router.Method(http.MethodGet, `/metrics`, metrics.Handler())
	router.Get(`/uploads/{name}`, theRouter.GetUploads)

	router.Group(func(jsonRoutes chi.Router) {
		jsonRoutes.Use(gzippedhttp.GzipResponse)
		jsonRoutes.Use(gzippedhttp.UngzipRequest)

		jsonRoutes.Get(`/`, theRouter.GetRoot)
		jsonRoutes.Get(`/ping`, theRouter.GetPing)

		jsonRoutes.Route(`/api`, func(api chi.Router) {
			api.Post(`/auth/login`, theRouter.PostApiauthlogin)
			api.With(registrationGuard.Guard).Post(`/auth/register`, theRouter.PostApiauthregister)

			api.Group(func(protected chi.Router) {
				protected.Use(authMiddleware.AuthenticateUser)

				protected.Get(`/auth/me`, theRouter.GetApiauthme)

				protected.Get(`/surat`, theRouter.GetApisurat)
				protected.Post(`/surat`, theRouter.PostApisurat)
				protected.Get(`/surat/{id}`, theRouter.GetApisuratid)
				protected.Put(`/surat/{id}`, theRouter.PutApisuratid)
				protected.Delete(`/surat/{id}`, theRouter.DeleteApisuratid)

				protected.Get(`/unit`, theRouter.GetApiunit)
				protected.Post(`/unit`, theRouter.PostApiunit)
				protected.Put(`/unit/{id}`, theRouter.PutApiunitid)
				protected.Delete(`/unit/{id}`, theRouter.DeleteApiunitid)

				protected.Get(`/dashboard/stats`, theRouter.GetApidashboardstats)
			})
		})
	})

	return router
}

// GetRoot answers with the API banner.
func (router *Router) GetRoot(response http.ResponseWriter, request *http.Request) {
	writeMessage(response, http.StatusOK, bannerMessage)
}

// GetPing checks the storage connection.
func (router *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := router.service.Ping(request.Context()); err != nil {
		writeError(response, request, err)
		return
	}

	writeMessage(response, http.StatusOK, "OK")
}

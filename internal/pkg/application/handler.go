package application

import (
	"compress/flate"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/application/inventory"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/application/telemetry"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/auth"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/config"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/logging"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/repositories/database"

	"github.com/rs/cors"
)

//RequestRouter wraps the concrete router implementation
type RequestRouter struct {
	impl chi.Router
}

//Get accepts a pattern that should be routed to the handlerFn on a GET request
func (router *RequestRouter) Get(pattern string, handlerFn http.HandlerFunc) {
	router.impl.Get(pattern, handlerFn)
}

//Patch accepts a pattern that should be routed to the handlerFn on a PATCH request
func (router *RequestRouter) Patch(pattern string, handlerFn http.HandlerFunc) {
	router.impl.Patch(pattern, handlerFn)
}

//Post accepts a pattern that should be routed to the handlerFn on a POST request
func (router *RequestRouter) Post(pattern string, handlerFn http.HandlerFunc) {
	router.impl.Post(pattern, handlerFn)
}

//Put accepts a pattern that should be routed to the handlerFn on a PUT request
func (router *RequestRouter) Put(pattern string, handlerFn http.HandlerFunc) {
	router.impl.Put(pattern, handlerFn)
}

//Delete accepts a pattern that should be routed to the handlerFn on a DELETE request
func (router *RequestRouter) Delete(pattern string, handlerFn http.HandlerFunc) {
	router.impl.Delete(pattern, handlerFn)
}

func (router *RequestRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	router.impl.ServeHTTP(w, r)
}

func newRequestRouter(log logging.Logger, allowedOrigins []string) *RequestRouter {
	router := &RequestRouter{impl: chi.NewRouter()}

	router.impl.Use(cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		Debug:            false,
	}).Handler)

	router.impl.Use(middleware.RequestID)
	router.impl.Use(middleware.Recoverer)

	// Enable gzip compression for json responses
	compressor := middleware.NewCompressor(flate.DefaultCompression, "application/json")
	router.impl.Use(compressor.Handler)
	router.impl.Use(requestLogger(log))

	return router
}

func (router *RequestRouter) addTelemetryHandlers(h *handlers) {
	router.Post("/data", h.ingestDataPoint)
	router.Get("/data", h.queryDataPoints)
	router.Get("/data/current", h.currentDataPoints)
	router.Get("/tagdata/{tag}", h.queryDataPoints)
	router.Post("/tagupdate", h.ingestDataPoint)
	router.Get("/tagcurrent/{tag}", h.currentDataPoints)
}

func (router *RequestRouter) addInventoryHandlers(h *handlers) {
	router.Get("/device", h.listDevices)
	router.Post("/device", h.createDevice)
	router.Get("/device/{id}", h.getDevice)
	router.Put("/device/{id}", h.updateDevice(false))
	router.Patch("/device/{id}", h.updateDevice(true))
	router.Delete("/device/{id}", h.deleteDevice)

	router.Get("/devicetag", h.listDeviceTags)
	router.Get("/devicetag/{id}", h.getDeviceTags)

	router.Get("/tag", h.listTags)
	router.Post("/tag", h.createTag)
	router.Get("/tag/{id}", h.getTag)
	router.Put("/tag/{id}", h.updateTag(false))
	router.Patch("/tag/{id}", h.updateTag(true))
	router.Delete("/tag/{id}", h.deleteTag)

	router.Get("/valuetype", h.listValueTypes)
	router.Post("/valuetype", h.createValueType)
	router.Get("/valuetype/{id}", h.getValueType)
	router.Put("/valuetype/{id}", h.updateValueType(false))
	router.Patch("/valuetype/{id}", h.updateValueType(true))
	router.Delete("/valuetype/{id}", h.deleteValueType)
}

func createRequestRouter(log logging.Logger, cfg *config.Config, db database.Datastore) *RequestRouter {
	router := newRequestRouter(log, cfg.CORS.AllowedOrigins)

	h := &handlers{
		telemetry: telemetry.NewService(db, log),
		inventory: inventory.NewService(db, log),
		log:       log,
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.impl.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth.Secret, h.unauthorised))

		api := &RequestRouter{impl: r}
		api.addTelemetryHandlers(h)
		api.addInventoryHandlers(h)
	})

	return router
}

//CreateRouterAndStartServing sets up the router and starts serving incoming requests
func CreateRouterAndStartServing(log logging.Logger, cfg *config.Config, db database.Datastore) {
	router := createRequestRouter(log, cfg, db)

	port := strconv.Itoa(cfg.Service.Port)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Infof("Starting iot-tagdata on port %s.", port)
	log.Fatal(server.ListenAndServe())
}

func requestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.WithFields(map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Infof("%s %s", r.Method, r.URL.Path)
		})
	}
}

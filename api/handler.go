package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"connectrpc.com/grpchealth"
	"github.com/jmgilman/go/errors"

	"github.com/krisalay/image-cache/transform"
)

const (
	statusPath  = "/private/status"
	metricsPath = "/metrics"

	// ServiceName is reported healthy on the gRPC health endpoint.
	ServiceName = "imagecache.v1.ImageService"

	cacheControl = "max-age=31536000"
)

type Options struct {
	Resolver Resolver
	Logger   *slog.Logger

	// Metrics records requests. Optional.
	Metrics RequestMetrics

	// MetricsHandler serves /metrics. When nil the route is not mounted.
	MetricsHandler http.Handler
}

type handler struct {
	resolver Resolver
	log      *slog.Logger
}

// NewHandler returns the full HTTP surface of the service.
func NewHandler(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = noopRequestMetrics{}
	}
	h := &handler{resolver: opts.Resolver, log: opts.Logger}

	mux := http.NewServeMux()
	mux.Handle(grpchealth.NewHandler(grpchealth.NewStaticChecker(ServiceName)))
	mux.HandleFunc(statusPath, getOnly(h.status))
	if opts.MetricsHandler != nil {
		mux.Handle(metricsPath, getOnly(opts.MetricsHandler.ServeHTTP))
	}
	mux.HandleFunc("/", getOnly(h.image))

	return accessLog(opts.Logger, opts.Metrics, mux)
}

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			notFound(w)
			return
		}
		next(w, r)
	}
}

func notFound(w http.ResponseWriter) {
	http.Error(w, "Endpoint not found", http.StatusNotFound)
}

func (h *handler) status(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

func (h *handler) image(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path
	if key == "/" {
		notFound(w)
		return
	}
	log := loggerFrom(r.Context(), h.log)

	start := time.Now()
	img, err := h.resolver.Resolve(r.Context(), key)
	if err != nil {
		h.fail(w, r, key, err)
		return
	}
	timing := ServerTiming{{Name: "fetch", Description: string(img.Tier), Duration: time.Since(start)}}

	payload, format := img.Payload, img.Format
	if dim, ok := transform.ParseDimension(r.URL.RawQuery); ok {
		res, err := transform.Resize(img.Payload, img.Format, dim)
		if err != nil {
			h.fail(w, r, key, err)
			return
		}
		payload, format = res.Payload, res.Format
		timing = append(timing,
			Timing{Name: "dec", Description: "decode", Duration: res.Decode},
			Timing{Name: "res", Description: "resize", Duration: res.Resize},
			Timing{Name: "enc", Description: "encode", Duration: res.Encode},
		)
	}

	hdr := w.Header()
	hdr.Set("Content-Type", "image/"+format.Extension())
	hdr.Set("Cache-Control", cacheControl)
	hdr.Set("Content-Length", strconv.Itoa(len(payload)))
	hdr.Set("Server-Timing", timing.String())
	hdr.Set("X-Cache", string(img.Tier))
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(payload); err != nil {
		log.Debug("client went away", slog.String("key", key), slog.Any("error", err))
	}
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, key string, err error) {
	log := loggerFrom(r.Context(), h.log)
	status, msg := statusFor(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	log.Log(r.Context(), level, "request failed",
		slog.String("key", key),
		slog.Int("status", status),
		slog.Any("error", errors.ToJSON(err)),
	)
	http.Error(w, msg+key, status)
}

// statusFor maps an error code to the response status and message prefix.
func statusFor(err error) (int, string) {
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		return http.StatusNotFound, "Image not found for: "
	case errors.CodeUnavailable, errors.CodeNetwork, errors.CodeTimeout:
		return http.StatusBadGateway, "Image origin unavailable for: "
	case errors.CodeInvalidInput:
		return http.StatusBadRequest, "Invalid request for: "
	case errors.CodeExecutionFailed:
		return http.StatusInternalServerError, "Image could not be decoded for: "
	default:
		return http.StatusInternalServerError, "Image could not be served for: "
	}
}

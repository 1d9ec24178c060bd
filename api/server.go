package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jmgilman/go/errors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

type ServerOptions struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// NewServer wraps h so it speaks HTTP/1.1 and cleartext HTTP/2.
func NewServer(opts ServerOptions, h http.Handler) *http.Server {
	h2s := &http2.Server{IdleTimeout: opts.IdleTimeout}
	return &http.Server{
		Addr:         opts.Addr,
		Handler:      h2c.NewHandler(h, h2s),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  opts.IdleTimeout,
	}
}

/*
Serve runs srv on ln until ctx is done, then shuts it down giving
in-flight requests up to shutdownTimeout to finish.
*/
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration, log *slog.Logger) error {
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", ln.Addr().String()))
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, errors.CodeInternal, "server stopped")
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return errors.Wrap(err, errors.CodeTimeout, "graceful shutdown did not finish")
	}
	return nil
}

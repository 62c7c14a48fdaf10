// Package web gin server
package web

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-newsroom/library/auth"
	"github.com/Laisky/laisky-newsroom/library/log"
)

// RouteRegister mounts a group of handlers on the API router
type RouteRegister func(r gin.IRouter)

// Options configures NewServer
type Options struct {
	// CORSDomains lists the domains (and their subdomains) allowed as browser origins
	CORSDomains []string
	// Tokens parses bearer tokens into the request actor
	Tokens auth.TokenParser
	// Actors resolves the current role of a token owner
	Actors auth.ActorResolver
	Logger logSDK.Logger
}

// NewServer builds the gin engine with the shared middlewares and every route group.
func NewServer(opt Options, routes ...RouteRegister) *gin.Engine {
	if opt.Logger == nil {
		opt.Logger = log.Logger.Named("gin")
	}

	server := gin.New()
	server.Use(
		gin.Recovery(),
		gmw.NewLoggerMiddleware(
			gmw.WithLogger(opt.Logger),
		),
		newCORSMiddleware(opt.CORSDomains),
	)

	status := newStatusHandler()
	server.GET("/health", status)
	server.HEAD("/health", status)
	server.OPTIONS("/health", status)

	api := server.Group("/", auth.Middleware(opt.Tokens, opt.Actors))
	for _, register := range routes {
		register(api)
	}

	return server
}

// RunServer serves engine on addr until ctx is done.
func RunServer(ctx context.Context, addr string, engine http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Logger.Info("listening on http", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "http server exit")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	log.Logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown http server")
	}

	return nil
}

func newStatusHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Header("Allow", "GET, HEAD, OPTIONS")
		if ctx.Request.Method != http.MethodGet {
			ctx.Status(http.StatusOK)
			return
		}

		ctx.String(http.StatusOK, "ok")
	}
}

// newCORSMiddleware only echoes origins whose host is one of domains or a subdomain of one.
func newCORSMiddleware(domains []string) gin.HandlerFunc {
	allowed := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.Trim(strings.ToLower(strings.TrimSpace(d)), ".")
		if d != "" {
			allowed = append(allowed, d)
		}
	}

	return func(ctx *gin.Context) {
		origin := strings.TrimSpace(ctx.Request.Header.Get("Origin"))
		allowedOrigin := ""
		if origin != "" && originAllowed(origin, allowed) {
			allowedOrigin = origin
		}

		if allowedOrigin != "" {
			ctx.Header("Access-Control-Allow-Origin", allowedOrigin)
			ctx.Header("Access-Control-Allow-Credentials", "true")
			ctx.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS, HEAD")
			ctx.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, Origin, X-Requested-With")
			ctx.Header("Access-Control-Max-Age", "86400") // 24 hours
			ctx.Header("Vary", "Origin")

			if ctx.Request.Method == http.MethodOptions {
				ctx.AbortWithStatus(http.StatusNoContent)
				return
			}
		} else if origin != "" && ctx.Request.Method == http.MethodOptions {
			// preflight from a disallowed origin
			ctx.AbortWithStatus(http.StatusForbidden)
			return
		}

		ctx.Next()
	}
}

func originAllowed(origin string, domains []string) bool {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}

	host := strings.ToLower(parsed.Hostname())
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}

	return false
}

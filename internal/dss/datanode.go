// Package dss serves the strategic coordination discovery API over HTTP.
//
// A DataNode wraps an http.Server whose handler is a MiddlewareMux. The
// middleware functions registered on the mux execute before pattern-based
// multiplexing, so they apply to every request. Middleware specific to a
// route group, such as access token enforcement, runs after multiplexing
// through per-route Middleware chains.
package dss

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"strings"
	"sync/atomic"

	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/interuss/datanode/internal/api"
	"github.com/interuss/datanode/internal/auth"
	"github.com/interuss/datanode/internal/geo"
	"github.com/interuss/datanode/internal/store"
)

// MuxPattern forms a URL pattern suitable for passing to an http.ServeMux.
// Literal path segments are lowercased, wildcard segments pass through
// since their names are lowercase already.
func MuxPattern(method string, segments ...string) string {
	return fmt.Sprintf("%s /%s", method, strings.ToLower(path.Join(segments...)))
}

type DataNode struct {
	logger   *slog.Logger
	listener net.Listener
	server   http.Server
	store    store.Store
	verifier *auth.Verifier
	geoCfg   geo.Config
	validate *validator.Validate
	ready    atomic.Value
	done     chan struct{}
	metrics  Emitter
}

func NewDataNode(logger *slog.Logger, listener net.Listener, emitter Emitter, st store.Store, verifier *auth.Verifier, geoCfg geo.Config) *DataNode {
	d := &DataNode{
		logger:   logger,
		listener: listener,
		metrics:  emitter,
		server: http.Server{
			ErrorLog: slog.NewLogLogger(logger.Handler(), slog.LevelError),
			BaseContext: func(net.Listener) context.Context {
				return ContextWithLogger(context.Background(), logger)
			},
		},
		store:    st,
		verifier: verifier,
		geoCfg:   geoCfg,
		validate: api.NewValidator(),
		done:     make(chan struct{}),
	}

	d.server.Handler = d.routes()

	return d
}

func (d *DataNode) routes() *MiddlewareMux {
	metricsMiddleware := MetricsMiddleware{Emitter: d.metrics}

	// Middleware common to all routes.
	mux := NewMiddlewareMux(
		MiddlewarePanic,
		MiddlewareLogging,
		metricsMiddleware.Metrics(),
		MiddlewareTracing,
		MiddlewareBody,
	)

	// Unauthenticated routes
	mux.HandleFunc("/", d.NotFound)
	mux.HandleFunc(MuxPattern(http.MethodGet, "status"), d.Status)
	mux.HandleFunc(MuxPattern(http.MethodGet, "healthz", "ready"), d.HealthzReady)
	mux.Handle(MuxPattern(http.MethodGet, "metrics"), promhttp.Handler())
	mux.HandleFunc(MuxPattern(http.MethodGet, "dss", "v1", "status"), d.DssStatus)

	// Authenticated routes. Subscription endpoints serve both the strategic
	// coordination and constraint consumption roles, operation reference
	// endpoints serve strategic coordination only.
	subscriptionMiddleware := NewMiddleware(
		MiddlewareLoggingPostMux,
		MiddlewareAuthorize(d.verifier,
			auth.ScopeStrategicCoordination,
			auth.ScopeConstraintConsumption))
	operationMiddleware := NewMiddleware(
		MiddlewareLoggingPostMux,
		MiddlewareAuthorize(d.verifier,
			auth.ScopeStrategicCoordination))

	mux.Handle(
		MuxPattern(http.MethodPost, "dss", "v1", "subscriptions", "query"),
		subscriptionMiddleware.HandlerFunc(d.QuerySubscriptions))
	mux.Handle(
		MuxPattern(http.MethodGet, "dss", "v1", "subscriptions", "{"+PathSegmentEntityID+"}"),
		subscriptionMiddleware.HandlerFunc(d.GetSubscription))
	mux.Handle(
		MuxPattern(http.MethodPut, "dss", "v1", "subscriptions", "{"+PathSegmentEntityID+"}"),
		subscriptionMiddleware.HandlerFunc(d.PutSubscription))
	mux.Handle(
		MuxPattern(http.MethodDelete, "dss", "v1", "subscriptions", "{"+PathSegmentEntityID+"}"),
		subscriptionMiddleware.HandlerFunc(d.DeleteSubscription))

	mux.Handle(
		MuxPattern(http.MethodPost, "dss", "v1", "operations", "query"),
		operationMiddleware.HandlerFunc(d.QueryOperations))
	mux.Handle(
		MuxPattern(http.MethodGet, "dss", "v1", "operations", "{"+PathSegmentEntityID+"}"),
		operationMiddleware.HandlerFunc(d.GetOperation))
	mux.Handle(
		MuxPattern(http.MethodPut, "dss", "v1", "operations", "{"+PathSegmentEntityID+"}"),
		operationMiddleware.HandlerFunc(d.PutOperation))
	mux.Handle(
		MuxPattern(http.MethodDelete, "dss", "v1", "operations", "{"+PathSegmentEntityID+"}"),
		operationMiddleware.HandlerFunc(d.DeleteOperation))

	return mux
}

func (d *DataNode) Run(ctx context.Context, stop <-chan struct{}) {
	if stop != nil {
		go func() {
			<-stop
			d.ready.Store(false)
			_ = d.server.Shutdown(ctx)
		}()
	}

	d.logger.Info(fmt.Sprintf("listening on %s", d.listener.Addr().String()))
	d.ready.Store(true)

	if err := d.server.Serve(d.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		d.logger.Error(err.Error())
		os.Exit(1)
	}

	close(d.done)
}

func (d *DataNode) Join() {
	<-d.done
}

// CheckReady reports whether the node accepts requests and can reach its
// entity store.
func (d *DataNode) CheckReady(ctx context.Context) bool {
	if err := d.store.ConnectionTest(ctx); err != nil {
		d.logger.Error(fmt.Sprintf("store connection test failed: %v", err))
		return false
	}
	ready, ok := d.ready.Load().(bool)
	return ok && ready
}

func (d *DataNode) NotFound(writer http.ResponseWriter, request *http.Request) {
	api.WriteError(
		writer, http.StatusNotFound,
		api.ErrorCodeNotFound,
		"The requested path could not be found.")
}

// Status reports liveness as plain text.
func (d *DataNode) Status(writer http.ResponseWriter, request *http.Request) {
	_, _ = writer.Write([]byte("Ok"))
}

func (d *DataNode) HealthzReady(writer http.ResponseWriter, request *http.Request) {
	var healthStatus float64

	if d.CheckReady(request.Context()) {
		writer.WriteHeader(http.StatusOK)
		healthStatus = 1.0
	} else {
		api.WriteInternalServerError(writer)
		healthStatus = 0.0
	}

	d.metrics.EmitGauge("datanode_health", healthStatus, map[string]string{
		"endpoint": "/healthz/ready",
	})
}

// DssStatus reports the API version implemented by this node.
func (d *DataNode) DssStatus(writer http.ResponseWriter, request *http.Request) {
	_, _ = api.WriteJSONResponse(writer, http.StatusOK, api.StatusResponse{
		Status:  "success",
		Message: "OK",
		Version: Version,
	})
}

// writeError maps an error returned by the core packages to its wire
// response. Errors without an api.Error in their chain are logged and
// reported as internal server errors.
func writeError(ctx context.Context, writer http.ResponseWriter, err error) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		api.WriteAPIError(writer, apiErr)
		return
	}

	LoggerFromContext(ctx).Error(err.Error())
	api.WriteInternalServerError(writer)
}

/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/alexliesenfeld/health"
	"github.com/cenkalti/backoff/v4"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"github.com/trustbloc/logutil-go/pkg/log"
	"go.opentelemetry.io/otel"

	"github.com/credstatus/csl-service/cmd/common"
	"github.com/credstatus/csl-service/pkg/encryption"
	"github.com/credstatus/csl-service/pkg/encryption/dkg"
	"github.com/credstatus/csl-service/pkg/event/spi"
	"github.com/credstatus/csl-service/pkg/feereconciler"
	"github.com/credstatus/csl-service/pkg/feereconciler/txclient"
	"github.com/credstatus/csl-service/pkg/observability/health/healthutil"
	metricsapi "github.com/credstatus/csl-service/pkg/observability/metrics"
	"github.com/credstatus/csl-service/pkg/observability/metrics/noop"
	"github.com/credstatus/csl-service/pkg/observability/metrics/prometheus"
	"github.com/credstatus/csl-service/pkg/observability/tracing"
	statuslisttracing "github.com/credstatus/csl-service/pkg/observability/tracing/wrappers/statuslist"
	"github.com/credstatus/csl-service/pkg/resource/httpgateway"
	"github.com/credstatus/csl-service/pkg/restapi/resterr"
	statuslistcontroller "github.com/credstatus/csl-service/pkg/restapi/v1/statuslist"
	statuslistsvc "github.com/credstatus/csl-service/pkg/service/statuslist"
	"github.com/credstatus/csl-service/pkg/statuslist/versionchain"
	"github.com/credstatus/csl-service/pkg/storage/mongodb"
	"github.com/credstatus/csl-service/pkg/storage/mongodb/feepaymentstore"
	"github.com/credstatus/csl-service/pkg/storage/redis"
	"github.com/credstatus/csl-service/pkg/storage/redis/headcache"
)

var logger = log.New("csl-rest-start")

const (
	healthCheckEndpoint = "/healthcheck"

	healthCheckCacheDuration = 2 * time.Second
	healthCheckTimeout       = 5 * time.Second
)

type server interface {
	ListenAndServe(host string, router http.Handler) error
}

// HTTPServer is the default server implementation.
type HTTPServer struct{}

// ListenAndServe starts the server using the standard Go HTTP server implementation.
func (s *HTTPServer) ListenAndServe(host string, router http.Handler) error {
	return http.ListenAndServe(host, router) //nolint:gosec
}

type startOpts struct {
	server  server
	version string
}

// StartOpt configures the start command.
type StartOpt func(opts *startOpts)

// WithHTTPServer sets the server implementation, used in tests.
func WithHTTPServer(srv server) StartOpt {
	return func(opts *startOpts) {
		opts.server = srv
	}
}

// WithVersion sets the build version reported on startup.
func WithVersion(version string) StartOpt {
	return func(opts *startOpts) {
		opts.version = version
	}
}

// GetStartCmd returns the Cobra start command.
func GetStartCmd(opts ...StartOpt) *cobra.Command {
	startCmd := createStartCmd(opts...)

	createFlags(startCmd)

	return startCmd
}

func createStartCmd(opts ...StartOpt) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start csl-rest",
		Long:  "Start the status list REST service",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := getStartupParameters(cmd)
			if err != nil {
				return err
			}

			return startService(params, opts...)
		},
	}
}

// nolint: funlen
func startService(params *startupParameters, opts ...StartOpt) error {
	o := &startOpts{server: &HTTPServer{}}

	for _, opt := range opts {
		opt(o)
	}

	common.SetDefaultLogLevel(logger, params.logLevel)

	tracerShutdown, tracer, err := tracing.Initialize(params.tracingExporter, params.tracingServiceName)
	if err != nil {
		return err
	}

	defer tracerShutdown()

	serviceMetrics, metricsProvider := createMetrics(params)

	if metricsProvider != nil {
		go func() {
			if createErr := metricsProvider.Create(); createErr != nil &&
				!errors.Is(createErr, http.ErrServerClosed) {
				logger.Error("metrics server failed", log.WithError(createErr))
			}
		}()

		defer func() {
			if destroyErr := metricsProvider.Destroy(); destroyErr != nil {
				logger.Warn("metrics server shutdown failed", log.WithError(destroyErr))
			}
		}()
	}

	mongoClient, redisClient, err := connectDatasources(params)
	if err != nil {
		return err
	}

	gateway := httpgateway.New(&httpgateway.Config{
		ResolverURL:  params.didResolverURL,
		RegistrarURL: params.didRegistrarURL,
	})

	svcConfig := &statuslistsvc.Config{
		Chain:          versionchain.New(gateway),
		ResourceReader: gateway,
		FeeReconciler: feereconciler.New(&feereconciler.Config{
			Timestamps: txclient.New(&txclient.Config{Endpoints: params.ledgerEndpoints}),
		}),
		EventPublisher: spi.NewBus(),
		Metrics:        serviceMetrics,
	}

	encryptionConfig := &encryption.Config{}

	if params.dkgServiceURL != "" {
		encryptionConfig.DKG = dkg.New(&dkg.Config{BaseURL: params.dkgServiceURL})
	}

	if mongoClient != nil {
		store := feepaymentstore.NewStore(mongoClient)
		svcConfig.FeePaymentStore = store
		encryptionConfig.Payments = store
	}

	svcConfig.Encryption = encryption.New(encryptionConfig)

	if redisClient != nil {
		svcConfig.HeadCache = headcache.New(redisClient)
	}

	var serviceAPI statuslistsvc.ServiceInterface = statuslistsvc.New(svcConfig)

	if params.tracingExporter != tracing.None {
		serviceAPI = statuslisttracing.Wrap(serviceAPI, tracer)
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = resterr.HTTPErrorHandler

	statuslistcontroller.NewController(&statuslistcontroller.Config{
		Service: serviceAPI,
	}).Register(e)

	registerHealthCheck(e, params, mongoClient, redisClient)

	ready := newReadinessController(e)
	ready.Ready(true)

	logger.Info("Starting csl-rest server", log.WithURL(params.hostURL),
		log.WithID(o.version))

	return o.server.ListenAndServe(params.hostURL, e)
}

func createMetrics(params *startupParameters) (metricsapi.Metrics, metricsapi.Provider) {
	if params.promHTTPURL == "" {
		return noop.GetMetrics(), nil
	}

	handler := prometheus.NewHandler()

	mux := http.NewServeMux()
	mux.Handle(handler.Path(), handler.Handler())

	provider := prometheus.NewPrometheusProvider(&http.Server{
		Addr:              params.promHTTPURL,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second, //nolint:mnd
	})

	return provider.Metrics(), provider
}

func connectDatasources(params *startupParameters) (*mongodb.Client, *redis.Client, error) {
	var mongoClient *mongodb.Client

	if params.mongoDBURL != "" {
		var mongoOpts []mongodb.ClientOpt

		if params.tracingExporter != tracing.None {
			mongoOpts = append(mongoOpts, mongodb.WithTraceProvider(otel.GetTracerProvider()))
		}

		if err := retry(func() error {
			var connectErr error
			mongoClient, connectErr = mongodb.New(params.mongoDBURL, params.databaseName, mongoOpts...)

			return connectErr
		}, params.databaseTimeout); err != nil {
			return nil, nil, err
		}
	}

	var redisClient *redis.Client

	if len(params.redisURLs) > 0 {
		var redisOpts []redis.ClientOpt

		if params.redisPassword != "" {
			redisOpts = append(redisOpts, redis.WithPassword(params.redisPassword))
		}

		if params.tracingExporter != tracing.None {
			redisOpts = append(redisOpts, redis.WithTraceProvider(otel.GetTracerProvider()))
		}

		if err := retry(func() error {
			var connectErr error
			redisClient, connectErr = redis.New(params.redisURLs, redisOpts...)

			return connectErr
		}, params.databaseTimeout); err != nil {
			return nil, nil, err
		}
	}

	return mongoClient, redisClient, nil
}

func retry(task func() error, numRetries uint64) error {
	const sleep = 1 * time.Second

	return backoff.RetryNotify(
		task,
		backoff.WithMaxRetries(backoff.NewConstantBackOff(sleep), numRetries),
		func(retryErr error, _ time.Duration) {
			logger.Warn("Failed to connect to datasource, will sleep before trying again.",
				log.WithError(retryErr))
		},
	)
}

func registerHealthCheck(e *echo.Echo, params *startupParameters,
	mongoClient *mongodb.Client, redisClient *redis.Client) {
	responseTimes := map[string]healthutil.ResponseTimeState{}

	checkerOpts := []health.CheckerOption{
		health.WithCacheDuration(healthCheckCacheDuration),
		health.WithTimeout(healthCheckTimeout),
		health.WithInterceptors(healthutil.ResponseTimeInterceptor(responseTimes)),
		health.WithCheck(health.Check{
			Name: "did-resolver",
			Check: func(ctx context.Context) error {
				return pingURL(ctx, params.didResolverURL)
			},
		}),
	}

	if mongoClient != nil {
		checkerOpts = append(checkerOpts, health.WithCheck(health.Check{
			Name: "mongodb",
			Check: func(ctx context.Context) error {
				return mongoClient.Database().Client().Ping(ctx, nil)
			},
		}))
	}

	if redisClient != nil {
		checkerOpts = append(checkerOpts, health.WithCheck(health.Check{
			Name: "redis",
			Check: func(ctx context.Context) error {
				return redisClient.API().Ping(ctx).Err()
			},
		}))
	}

	e.GET(healthCheckEndpoint, echo.WrapHandler(health.NewHandler(
		health.NewChecker(checkerOpts...),
		health.WithResultWriter(healthutil.NewJSONResultWriter(responseTimes)),
	)))
}

func pingURL(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}

	return resp.Body.Close()
}

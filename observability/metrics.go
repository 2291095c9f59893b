package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"speedbet/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

// MetricsProvider manages OpenTelemetry metrics for the arena client
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	graphqlRequestsCounter       metric.Int64Counter
	graphqlRequestDurationHist   metric.Float64Histogram
	transportSelectionCounter    metric.Int64Counter
	pollCyclesCounter            metric.Int64Counter
	notificationsReceivedCounter metric.Int64Counter
	sessionTransitionsCounter    metric.Int64Counter
	toastsShownCounter           metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// serviceResource describes this process. The attributes carry no schema URL
// so they merge with the SDK defaults whatever schema those use.
func serviceResource(cfg *config.Config) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(cfg.OTelServiceName),
			attribute.String("environment", cfg.Environment),
		),
	)
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := serviceResource(mp.config)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
			),
		),
	)

	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("speedbet")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.graphqlRequestsCounter, err = mp.meter.Int64Counter(
		GraphQLRequestsTotal,
		metric.WithDescription("Total number of GraphQL requests sent to the chain service"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create graphql requests counter: %w", err)
	}

	mp.graphqlRequestDurationHist, err = mp.meter.Float64Histogram(
		GraphQLRequestDuration,
		metric.WithDescription("Duration of GraphQL requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create graphql request duration histogram: %w", err)
	}

	mp.transportSelectionCounter, err = mp.meter.Int64Counter(
		TransportSelectionTotal,
		metric.WithDescription("Number of transport selections by mode"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create transport selection counter: %w", err)
	}

	mp.pollCyclesCounter, err = mp.meter.Int64Counter(
		PollCyclesTotal,
		metric.WithDescription("Total number of notification poll cycles"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create poll cycles counter: %w", err)
	}

	mp.notificationsReceivedCounter, err = mp.meter.Int64Counter(
		NotificationsReceivedTotal,
		metric.WithDescription("Total number of notifications delivered to the session"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create notifications received counter: %w", err)
	}

	mp.sessionTransitionsCounter, err = mp.meter.Int64Counter(
		SessionTransitionsTotal,
		metric.WithDescription("Total number of session phase transitions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create session transitions counter: %w", err)
	}

	mp.toastsShownCounter, err = mp.meter.Int64Counter(
		ToastsShownTotal,
		metric.WithDescription("Total number of toasts shown"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create toasts shown counter: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	if mp == nil {
		return nil
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordGraphQLRequest records a request to the chain service with its duration
func (mp *MetricsProvider) RecordGraphQLRequest(kind, mode, outcome string, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(LabelKind, kind),
		attribute.String(LabelMode, mode),
		attribute.String(LabelOutcome, outcome),
	)

	mp.graphqlRequestsCounter.Add(context.Background(), 1, attrs)
	mp.graphqlRequestDurationHist.Record(context.Background(), duration.Seconds(), attrs)
}

// MeasureGraphQLRequest returns a function that records the request when called with its outcome
// Usage:
//
//	done := mp.MeasureGraphQLRequest(KindQuery, "real")
//	defer func() { done(outcome) }()
func (mp *MetricsProvider) MeasureGraphQLRequest(kind, mode string) func(outcome string) {
	start := time.Now()
	return func(outcome string) {
		mp.RecordGraphQLRequest(kind, mode, outcome, time.Since(start))
	}
}

// RecordTransportSelection records which transport mode a session ended up with
func (mp *MetricsProvider) RecordTransportSelection(mode string) {
	if !mp.isEnabled() {
		return
	}

	mp.transportSelectionCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelMode, mode),
		),
	)
}

// RecordPollCycle records one notification poll cycle
func (mp *MetricsProvider) RecordPollCycle(outcome string) {
	if !mp.isEnabled() {
		return
	}

	mp.pollCyclesCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelOutcome, outcome),
		),
	)
}

// RecordNotificationReceived records a notification handed to a subscriber
func (mp *MetricsProvider) RecordNotificationReceived(source string) {
	if !mp.isEnabled() {
		return
	}

	mp.notificationsReceivedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelSource, source),
		),
	)
}

// RecordSessionTransition records the session entering a phase
func (mp *MetricsProvider) RecordSessionTransition(phase string) {
	if !mp.isEnabled() {
		return
	}

	mp.sessionTransitionsCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelPhase, phase),
		),
	)
}

// RecordToastShown records a toast being shown
func (mp *MetricsProvider) RecordToastShown(toastType string) {
	if !mp.isEnabled() {
		return
	}

	mp.toastsShownCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelType, toastType),
		),
	)
}

// isEnabled checks if metrics are enabled and initialized.
// A nil provider is valid and records nothing.
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.meter != nil && mp.config.OTelEnabled
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider, nil before initialization
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}

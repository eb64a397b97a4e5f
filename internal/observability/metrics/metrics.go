package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level OTel instruments pushed over OTLP.
type Metrics struct {
	customersCreated metric.Int64Counter
	churnEvents      metric.Int64Counter
	assessments      metric.Int64Counter
	scoringPasses    metric.Int64Counter
	passCustomers    metric.Int64Histogram
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "churnwatch"
	}
	meter := provider.Meter(name)

	customersCreated, err := meter.Int64Counter("churnwatch_customers_created_total")
	if err != nil {
		return nil, err
	}
	churnEvents, err := meter.Int64Counter("churnwatch_churn_events_total")
	if err != nil {
		return nil, err
	}
	assessments, err := meter.Int64Counter("churnwatch_risk_assessments_total")
	if err != nil {
		return nil, err
	}
	scoringPasses, err := meter.Int64Counter("churnwatch_scoring_passes_total")
	if err != nil {
		return nil, err
	}
	passCustomers, err := meter.Int64Histogram("churnwatch_scoring_pass_customers")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		customersCreated: customersCreated,
		churnEvents:      churnEvents,
		assessments:      assessments,
		scoringPasses:    scoringPasses,
		passCustomers:    passCustomers,
	}, nil
}

func (m *Metrics) RecordCustomerCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.customersCreated.Add(ctx, 1)
}

func (m *Metrics) RecordChurn(ctx context.Context) {
	if m == nil {
		return
	}
	m.churnEvents.Add(ctx, 1)
}

// RecordAssessments counts assessments per risk tier.
func (m *Metrics) RecordAssessments(ctx context.Context, tier string, count int) {
	if m == nil || count <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("tier", strings.TrimSpace(tier)))
	m.assessments.Add(ctx, int64(count), metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordScoringPass(ctx context.Context, customers int) {
	if m == nil {
		return
	}
	m.scoringPasses.Add(ctx, 1)
	m.passCustomers.Record(ctx, int64(customers))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"tier":   {},
	"status": {},
	"job":    {},
	"reason": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

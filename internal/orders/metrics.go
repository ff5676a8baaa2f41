package orders

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/joao-fontenele/mercado-api/internal/domain"
)

var meter = otel.Meter("mercado-api/orders")

type orderMetrics struct {
	created metric.Int64Counter
	failed  metric.Int64Counter
	amount  metric.Float64Histogram
}

func newOrderMetrics() (*orderMetrics, error) {
	created, err := meter.Int64Counter("pedidos.creados",
		metric.WithDescription("Orders committed"))
	if err != nil {
		return nil, err
	}

	failed, err := meter.Int64Counter("pedidos.fallidos",
		metric.WithDescription("Orders rolled back"))
	if err != nil {
		return nil, err
	}

	amount, err := meter.Float64Histogram("pedidos.monto_total",
		metric.WithDescription("Total amount of committed orders"))
	if err != nil {
		return nil, err
	}

	return &orderMetrics{created: created, failed: failed, amount: amount}, nil
}

func (m *orderMetrics) recordCreated(ctx context.Context, order *domain.Order) {
	m.created.Add(ctx, 1)
	total, _ := order.Total.Float64()
	m.amount.Record(ctx, total)
}

func (m *orderMetrics) recordFailed(ctx context.Context) {
	m.failed.Add(ctx, 1)
}

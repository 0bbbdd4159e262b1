// Package observability provides OpenTelemetry tracing and metrics setup and
// the instruments recorded by stream runs.
//
// Tracing:
//
//	cfg := observability.DefaultTracerConfig("streamkit")
//	tp, err := observability.InitTracer(ctx, &cfg)
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	cfg := observability.DefaultMeterConfig("streamkit")
//	mp, err := observability.InitMeter(ctx, &cfg)
//	defer mp.Shutdown(ctx)
//
//	m, err := observability.NewStreamMetrics(observability.Meter("streamkit"))
//	p := stream.FromSlice(items, stream.WithMetrics(m))
package observability

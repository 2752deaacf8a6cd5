// Package telemetry provides the logging, tracing and metrics used by ucm.
//
// Logging is structured with zerolog. Every lifecycle command gets a child
// logger carrying use_case_id, stack_id and operation fields:
//
//	log := tel.Logger.NewComponentLogger("lifecycle").
//		WithUseCaseID(uc.ID).
//		WithOperation("create")
//	log.Info("provisioning stack")
//
// Tracing uses OpenTelemetry with stdout or OTLP gRPC exporters; one span is
// opened per command and per provisioning engine call. Metrics are exported
// in Prometheus format, optionally on an HTTP listener.
package telemetry

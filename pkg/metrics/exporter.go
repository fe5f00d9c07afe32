package metrics

import (
	"net/http"

	"contrib.go.opencensus.io/exporter/prometheus"
	promclient "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/xerrors"
)

// NewExporter returns an http.Handler serving every registered opencensus
// view, plus go runtime and process collectors, in the prometheus text format.
func NewExporter(namespace string) (http.Handler, error) {
	registry := promclient.NewRegistry()
	if err := registry.Register(promclient.NewGoCollector()); err != nil {
		return nil, xerrors.Errorf("failed to register go collector: %w", err)
	}
	if err := registry.Register(promclient.NewProcessCollector(promclient.ProcessCollectorOpts{Namespace: namespace})); err != nil {
		return nil, xerrors.Errorf("failed to register process collector: %w", err)
	}

	exporter, err := prometheus.NewExporter(prometheus.Options{
		Namespace: namespace,
		Registry:  registry,
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to create prometheus exporter: %w", err)
	}
	return exporter, nil
}

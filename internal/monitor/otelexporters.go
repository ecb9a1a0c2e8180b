// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package monitor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	cloudmetric "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/metric"
	"github.com/googlecloudplatform/gcsstream/cfg"
	"github.com/googlecloudplatform/gcsstream/common"
	"github.com/googlecloudplatform/gcsstream/internal/logger"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/detectors/gcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const serviceName = "gcsstream"

// SetupOTelMetricExporters installs the global meter provider with the
// readers enabled in c and returns the function that flushes and stops them.
func SetupOTelMetricExporters(ctx context.Context, c *cfg.Config) (shutdownFn common.ShutdownFn) {
	shutdownFns := make([]common.ShutdownFn, 0)
	options := make([]metric.Option, 0)

	opts, shutdownFn := setupPrometheus(c.Metrics.PrometheusPort)
	options = append(options, opts...)
	shutdownFns = append(shutdownFns, shutdownFn)

	opts, shutdownFn = setupCloudMonitoring(c.Metrics.CloudMetricsExportIntervalSecs)
	options = append(options, opts...)
	shutdownFns = append(shutdownFns, shutdownFn)

	res, err := getResource(ctx)
	if err != nil {
		logger.Errorf("Error while fetching resource: %v", err)
	} else {
		options = append(options, metric.WithResource(res))
	}

	meterProvider := metric.NewMeterProvider(options...)
	shutdownFns = append(shutdownFns, meterProvider.Shutdown)

	otel.SetMeterProvider(meterProvider)

	return common.JoinShutdownFunc(shutdownFns...)
}

// permissionAwareExporter stops exporting after the first PermissionDenied
// response so that a missing monitoring role does not log on every interval.
type permissionAwareExporter struct {
	metric.Exporter
	disabled atomic.Bool
}

func (p *permissionAwareExporter) Export(ctx context.Context, rm *metricdata.ResourceMetrics) error {
	if p.disabled.Load() {
		return nil
	}
	err := p.Exporter.Export(ctx, rm)
	if status.Code(err) == codes.PermissionDenied {
		logger.Errorf("Disabling Cloud Monitoring export: %v", err)
		p.disabled.Store(true)
	}
	return err
}

func setupCloudMonitoring(secs int64) ([]metric.Option, common.ShutdownFn) {
	if secs <= 0 {
		return nil, nil
	}
	options := []cloudmetric.Option{
		cloudmetric.WithMetricDescriptorTypeFormatter(metricFormatter),
		cloudmetric.WithFilteredResourceAttributes(func(kv attribute.KeyValue) bool {
			// Ensure that PID is available as a metric label on metrics explorer.
			return cloudmetric.DefaultResourceAttributesFilter(kv) ||
				kv.Key == semconv.ProcessPIDKey
		}),
	}
	exporter, err := cloudmetric.New(options...)
	if err != nil {
		logger.Errorf("Error while creating Google Cloud exporter:%v", err)
		return nil, nil
	}

	r := metric.NewPeriodicReader(&permissionAwareExporter{Exporter: exporter}, metric.WithInterval(time.Duration(secs)*time.Second))
	return []metric.Option{metric.WithReader(r)}, r.Shutdown
}

func metricFormatter(m metricdata.Metrics) string {
	return "custom.googleapis.com/gcsstream/" + strings.ReplaceAll(m.Name, ".", "/")
}

// setupPrometheus registers a reader exposing the metrics at :port/metrics.
// The listener is bound before returning so that a busy port is reported
// right away.
func setupPrometheus(port int64) ([]metric.Option, common.ShutdownFn) {
	if port <= 0 {
		return nil, nil
	}
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(
		prometheus.WithRegisterer(registry),
		prometheus.WithoutUnits(),
		prometheus.WithoutCounterSuffixes(),
		prometheus.WithoutScopeInfo(),
		prometheus.WithoutTargetInfo(),
	)
	if err != nil {
		logger.Errorf("Error while creating prometheus exporter: %v", err)
		return nil, nil
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		logger.Errorf("Prometheus metrics are not served: %v", err)
		return nil, nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Handler:        mux,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	go func() {
		if err := server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Prometheus server stopped: %v", err)
		}
	}()
	logger.Infof("Serving metrics at %s/metrics", lis.Addr())

	return []metric.Option{metric.WithReader(exporter)}, server.Shutdown
}

func getResource(ctx context.Context) (*resource.Resource, error) {
	return resource.New(ctx,
		// Use the GCP resource detector to detect information about the GCP platform
		resource.WithDetectors(gcp.NewDetector()),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(common.GetVersion()),
		),
	)
}

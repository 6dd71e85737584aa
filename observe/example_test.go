package observe_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hyperforge-ai/forgekit/observe"
	"github.com/hyperforge-ai/forgekit/upstream"
)

func ExampleNewObserver() {
	cfg := observe.Config{
		ServiceName: "example-service",
		Version:     "1.0.0",
		Tracing:     observe.TracingConfig{Enabled: true, Exporter: "none"},
		Metrics:     observe.MetricsConfig{Enabled: false},
		Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
	}

	ctx := context.Background()
	obs, err := observe.NewObserver(ctx, cfg)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer func() {
		_ = obs.Shutdown(ctx)
	}()

	fmt.Println("Observer created successfully")
	// Output:
	// Observer created successfully
}

func ExampleNewObserver_validation() {
	// Missing service name triggers validation error
	cfg := observe.Config{
		ServiceName: "", // Empty - will fail validation
	}

	ctx := context.Background()
	_, err := observe.NewObserver(ctx, cfg)
	if errors.Is(err, observe.ErrMissingServiceName) {
		fmt.Println("Caught: missing service name")
	}
	// Output:
	// Caught: missing service name
}

func ExampleConfig_Validate() {
	// Valid configuration
	cfg := observe.Config{
		ServiceName: "my-service",
		Version:     "1.0.0",
		Tracing: observe.TracingConfig{
			Enabled:   true,
			Exporter:  "stdout",
			SamplePct: 0.5, // 50% sampling
		},
		Metrics: observe.MetricsConfig{
			Enabled:  true,
			Exporter: "prometheus",
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
	}

	if err := cfg.Validate(); err != nil {
		fmt.Println("Invalid:", err)
	} else {
		fmt.Println("Configuration is valid")
	}
	// Output:
	// Configuration is valid
}

func ExampleCallMeta_SpanName() {
	// With operation
	meta := observe.CallMeta{
		Upstream:  "meshy",
		Operation: "text-to-3d",
	}
	fmt.Println(meta.SpanName())

	// Without operation
	meta2 := observe.CallMeta{
		Upstream: "stability",
	}
	fmt.Println(meta2.SpanName())
	// Output:
	// upstream.fetch.meshy.text-to-3d
	// upstream.fetch.stability
}

func ExampleNewLoggerWithWriter() {
	var buf bytes.Buffer
	logger := observe.NewLoggerWithWriter("info", &buf)

	ctx := context.Background()
	logger.Info(ctx, "application started", observe.Field{Key: "version", Value: "1.0.0"})

	// Output contains JSON with timestamp, level, msg, and version field
	fmt.Println("Logged message contains 'application started':", bytes.Contains(buf.Bytes(), []byte("application started")))
	// Output:
	// Logged message contains 'application started': true
}

func ExampleLogger_WithUpstream() {
	var buf bytes.Buffer
	logger := observe.NewLoggerWithWriter("info", &buf)

	meta := observe.CallMeta{
		Upstream:  "meshy",
		Operation: "text-to-3d",
		Method:    "POST",
	}

	// Create call-scoped logger
	callLogger := logger.WithUpstream(meta)

	ctx := context.Background()
	callLogger.Info(ctx, "fetch started")

	// Output contains call context
	output := buf.String()
	fmt.Println("Contains upstream.name:", bytes.Contains([]byte(output), []byte("upstream.name")))
	fmt.Println("Contains upstream.operation:", bytes.Contains([]byte(output), []byte("upstream.operation")))
	// Output:
	// Contains upstream.name: true
	// Contains upstream.operation: true
}

type exampleDoer struct{}

func (exampleDoer) Do(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(`{"status":"ok"}`)),
	}, nil
}

func ExampleInstrumentor_Fetch() {
	ctx := context.Background()

	// Create observer with disabled exporters for example
	cfg := observe.Config{
		ServiceName: "example",
		Tracing:     observe.TracingConfig{Enabled: true, Exporter: "none"},
		Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "none"},
		Logging:     observe.LoggingConfig{Enabled: false},
	}
	obs, _ := observe.NewObserver(ctx, cfg)
	defer func() {
		_ = obs.Shutdown(ctx)
	}()

	inst, _ := observe.InstrumentorFromObserver(obs)

	// Hooks feed retries, breaker transitions and fetch results into
	// metrics and logs.
	client, _ := upstream.NewClient("meshy", upstream.DefaultConfig(),
		upstream.WithDoer(exampleDoer{}),
		upstream.WithHooks(inst.Hooks()),
	)

	// Fetch - automatically traced, metered, and logged
	resp, err := inst.Fetch(ctx, client, observe.CallMeta{Operation: "text-to-3d"},
		"https://api.meshy.ai/v2/text-to-3d", nil)

	if err != nil {
		fmt.Println("Error:", err)
	} else {
		fmt.Printf("Status: %d Body: %s\n", resp.StatusCode, resp.Body)
	}
	// Output:
	// Status: 200 Body: {"status":"ok"}
}

func ExampleParseLogLevel() {
	levels := []string{"debug", "info", "warn", "error", "unknown"}
	for _, s := range levels {
		level := observe.ParseLogLevel(s)
		fmt.Printf("%s -> %s\n", s, level)
	}
	// Output:
	// debug -> debug
	// info -> info
	// warn -> warn
	// error -> error
	// unknown -> info
}

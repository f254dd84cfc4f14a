package main

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"

	"github.com/vango-dev/morph/internal/config"
	merrors "github.com/vango-dev/morph/internal/errors"
	"github.com/vango-dev/morph/pkg/archive"
	"github.com/vango-dev/morph/pkg/component"
)

// loadConfig reads the project configuration found from the working
// directory upwards. Without one the defaults apply.
func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.LoadFromWorkingDir()
		if merrors.Code(err) == "E121" {
			cfg, err = config.New(), nil
		}
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runtimeOptions maps cfg onto component runtime options.
func runtimeOptions(cfg *config.Config, logger *slog.Logger) ([]component.Option, error) {
	timeout, err := cfg.HookTimeout()
	if err != nil {
		return nil, err
	}
	opts := []component.Option{
		component.WithLogger(logger),
		component.WithMarkers(component.Markers{
			Key:        cfg.Markers.Key,
			Boundary:   cfg.Markers.Boundary,
			Ref:        cfg.Markers.Ref,
			Definition: cfg.Markers.Definition,
		}),
		component.WithLimits(component.Limits{
			MaxSingletons: cfg.Limits.MaxSingletons,
			MaxChildren:   cfg.Limits.MaxChildren,
		}),
		component.WithHookTimeout(timeout),
	}
	if cfg.Tracing.TracerName != "" {
		opts = append(opts, component.WithTracer(otel.Tracer(cfg.Tracing.TracerName)))
	}
	return opts, nil
}

// archiveStore builds the S3 store described by cfg.Archive.
func archiveStore(ctx context.Context, cfg *config.Config) (*archive.Store, error) {
	if cfg.Archive.Bucket == "" {
		return nil, merrors.New("E131")
	}
	client, err := archive.NewClient(ctx, archive.Options{
		Region:    cfg.Archive.Region,
		Endpoint:  cfg.Archive.Endpoint,
		PathStyle: cfg.Archive.PathStyle,
	})
	if err != nil {
		return nil, err
	}
	return archive.NewStore(client, cfg.Archive.Bucket, cfg.Archive.Prefix)
}

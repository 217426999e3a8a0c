package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/vango-dev/docsave/internal/config"
	"github.com/vango-dev/docsave/internal/errors"
	"github.com/vango-dev/docsave/pkg/dom"
	"github.com/vango-dev/docsave/pkg/publish"
	"github.com/vango-dev/docsave/pkg/pubsub"
	"github.com/vango-dev/docsave/pkg/render"
	"github.com/vango-dev/docsave/pkg/snapshot"
)

// app is the wiring shared by the commands: configuration, the event hub
// and the exporter publishing on it.
type app struct {
	cfg      *config.Config
	hub      *pubsub.Hub
	exporter *snapshot.Exporter
	logger   *slog.Logger
}

// loadConfig reads --config, or docsave.json found from the working
// directory. A missing file means defaults.
func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.LoadFromWorkingDir()
		if errors.HasCode(err, "E041") {
			cfg, err = config.New(), nil
		}
	}
	if err != nil {
		return nil, err
	}
	cfg.DefaultGeneratorTo(generatorName())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp loads the configuration and builds an exporter whose warnings
// are logged to stderr. recorder may be nil.
func newApp(cmd *cobra.Command, flags *globalFlags, recorder render.Recorder) (*app, error) {
	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	hub := pubsub.NewHub()
	pubsub.LogWarnings(hub, logger.With("component", "save"))

	ser, err := render.NewSerializer(render.Config{
		Sanitize: cfg.SanitizeConfig(),
		Format:   cfg.FormatOptions(),
		Bus:      hub,
		Recorder: recorder,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		hub:      hub,
		exporter: snapshot.New(ser, hub, cfg.SnapshotOptions()),
		logger:   logger,
	}, nil
}

// readDocument parses the file named by args[0], or stdin when no file is
// given or the name is "-".
func readDocument(cmd *cobra.Command, args []string) (*html.Node, error) {
	var r io.Reader = cmd.InOrStdin()
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, errors.New("E001").WithSubject(args[0]).Wrap(err)
		}
		defer f.Close()
		r = f
	}

	doc, err := dom.Parse(r)
	if err != nil {
		return nil, errors.New("E001").Wrap(err)
	}
	return doc, nil
}

// writeOutput writes s to path, or to the command's stdout when path is
// empty.
func writeOutput(cmd *cobra.Command, path, s string) error {
	if path == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), s)
		return err
	}
	if err := os.WriteFile(path, []byte(s), 0644); err != nil {
		return errors.New("E050").WithSubject(path).Wrap(err)
	}
	return nil
}

// openStore returns the S3 store when a bucket is configured, otherwise a
// directory store at dir (or the configured output directory).
func openStore(ctx context.Context, cfg *config.Config, dir string) (publish.Store, error) {
	if cfg.UsesS3() {
		client, err := newS3Client(ctx, cfg.Publish.S3)
		if err != nil {
			return nil, err
		}
		return publish.NewS3Store(client, cfg.Publish.S3.Bucket, cfg.Publish.S3.Prefix).
			WithGenerator(cfg.Generator), nil
	}
	if dir == "" {
		dir = cfg.OutputPath()
	}
	return publish.NewDirStore(dir)
}

// newS3Client resolves credentials and region through the default AWS
// chain (environment, shared config and credentials files, SSO, instance
// roles). A configured endpoint switches to path-style addressing for
// S3-compatible servers.
func newS3Client(ctx context.Context, s3cfg config.S3Config) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if s3cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(s3cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.New("E050").WithSubject("s3://" + s3cfg.Bucket).Wrap(err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s3cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

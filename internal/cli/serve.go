package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkessel/flowscribe/internal/server"
	"github.com/mkessel/flowscribe/pkg/cache"
	"github.com/mkessel/flowscribe/pkg/export"
	"github.com/mkessel/flowscribe/pkg/source"
	mongosource "github.com/mkessel/flowscribe/pkg/source/mongo"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr      string // listen address
	sourceDir string // directory flow source
	mongoURI  string // MongoDB connection string
	mongoDB   string // MongoDB database name
	mongoColl string // MongoDB collection name
	redisURL  string // Redis cache URL
	noCache   bool   // disable caching
}

// serveCommand creates the serve command for running the HTTP export API.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP export API",
		Long: `Serve runs the export API used by the authoring application.

Flows can be posted inline to /api/v1/export, or fetched by ID from a
configured flow source (a directory of documents or the authoring
MongoDB). With --redis-url, artifacts are cached in Redis so multiple
instances share one cache; otherwise the local file cache is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.sourceDir, "source-dir", "", "serve flows from this directory")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo-uri", "", "serve flows from this MongoDB")
	cmd.Flags().StringVar(&opts.mongoDB, "mongo-db", "flowscribe", "MongoDB database name")
	cmd.Flags().StringVar(&opts.mongoColl, "mongo-collection", mongosource.DefaultCollection, "MongoDB collection name")
	cmd.Flags().StringVar(&opts.redisURL, "redis-url", "", "cache artifacts in this Redis instance")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching entirely")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	if opts.sourceDir != "" && opts.mongoURI != "" {
		return fmt.Errorf("--source-dir and --mongo-uri are mutually exclusive")
	}

	store, err := c.serveCache(ctx, opts)
	if err != nil {
		return err
	}

	src, err := c.serveSource(ctx, opts)
	if err != nil {
		return err
	}
	if src != nil {
		defer src.Close()
	}

	runner := export.NewRunner(store, nil, c.Logger)
	defer runner.Close()

	srv := server.New(server.Config{
		Addr:   opts.addr,
		Runner: runner,
		Source: src,
		Logger: c.Logger,
	})

	printInfo("Export API on %s", opts.addr)
	return srv.ListenAndServe(ctx)
}

// serveCache picks the cache backend: Redis when configured, otherwise the
// local file cache.
func (c *CLI) serveCache(ctx context.Context, opts *serveOpts) (cache.Cache, error) {
	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	if opts.redisURL != "" {
		store, err := cache.NewRedisCache(ctx, opts.redisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		c.Logger.Info("using redis cache")
		return store, nil
	}
	return newCache(false)
}

// serveSource picks the flow source, or nil when serving inline exports
// only.
func (c *CLI) serveSource(ctx context.Context, opts *serveOpts) (source.FlowSource, error) {
	switch {
	case opts.mongoURI != "":
		src, err := mongosource.New(ctx, opts.mongoURI, opts.mongoDB, opts.mongoColl)
		if err != nil {
			return nil, fmt.Errorf("connect flow source: %w", err)
		}
		c.Logger.Info("serving flows from mongodb", "db", opts.mongoDB)
		return src, nil
	case opts.sourceDir != "":
		src, err := source.NewDirSource(opts.sourceDir)
		if err != nil {
			return nil, err
		}
		c.Logger.Info("serving flows from directory", "dir", opts.sourceDir)
		return src, nil
	}
	return nil, nil
}

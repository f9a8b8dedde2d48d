// Package cli implements the probecarto command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hupe1980/probecarto"
	"github.com/hupe1980/probecarto/blobstore"
	"github.com/hupe1980/probecarto/blueprint"
	"github.com/hupe1980/probecarto/cluster"
	"github.com/hupe1980/probecarto/internal/config"
	"github.com/hupe1980/probecarto/toolkit"
	"github.com/spf13/cobra"
)

// errNoGrid is returned by commands that need a grid when neither
// --geometry nor --dummy is given.
var errNoGrid = errors.New("no grid: pass --geometry or --dummy")

type app struct {
	cfg     *config.Config
	logger  *probecarto.Logger
	metrics *probecarto.PrometheusCollector
	store   blobstore.Store
	eng     *probecarto.Engine

	// persistent flags
	geometry   string
	dummy      string
	conn       string
	strategy   string
	channelmap string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "probecarto",
		Short: "Spatial blueprint engine for electrode grids",
		Long: `Edit, inspect and store category blueprints over shank-structured
electrode grids.

Blob names are resolved in the store selected by PROBECARTO_STORE_KIND
(local, memory, s3 or minio). Run "probecarto env" for all variables.

Examples:
  probecarto --dummy 4,192,2 info bp.npy
  probecarto -g np24.yaml extend bp.npy out.npy --category 1 --rows 2
  probecarto -g np24.yaml edges out.npy --category 1
  probecarto push local.npy blueprints/shank0.npy`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.teardown()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.geometry, "geometry", "g", "", "probe geometry file (.yaml, .yml or .toml)")
	flags.StringVar(&a.dummy, "dummy", "", "dense grid as shanks,rows,columns")
	flags.StringVar(&a.conn, "conn", "", "group adjacency: 4 or 8")
	flags.StringVar(&a.strategy, "strategy", "", "extend/reduce strategy: mask or index")
	flags.StringVar(&a.channelmap, "channelmap", "", "channel-map key attached to loaded blueprints")

	root.AddCommand(
		a.infoCmd(),
		a.clusterCmd(),
		a.edgesCmd(),
		a.fillCmd(),
		a.extendCmd(),
		a.reduceCmd(),
		a.moveCmd(),
		a.interpolateCmd(),
		a.convertCmd(),
		a.pushCmd(),
		a.pullCmd(),
		a.lsCmd(),
		a.rmCmd(),
		a.geometryCmd(),
		a.envCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.logger, err = newLogger(cfg.Log); err != nil {
		return err
	}
	if cfg.Metrics.File != "" {
		a.metrics = probecarto.NewPrometheusCollector()
	}
	a.store, err = openStore(ctx, cfg.Store)
	return err
}

func (a *app) teardown() error {
	if a.metrics == nil {
		return nil
	}
	return a.metrics.WriteToTextfile(a.cfg.Metrics.File)
}

func newLogger(cfg config.LogConfig) (*probecarto.Logger, error) {
	level, err := probecarto.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("config: log level: %w", err)
	}
	if strings.EqualFold(cfg.Format, "json") {
		return probecarto.NewJSONLogger(level), nil
	}
	return probecarto.NewTextLogger(level), nil
}

func (a *app) grid() (*blueprint.Grid, error) {
	switch {
	case a.geometry != "":
		return config.LoadGeometry(a.geometry)
	case a.dummy != "":
		parts := strings.Split(a.dummy, ",")
		if len(parts) != 3 {
			return nil, fmt.Errorf("--dummy wants shanks,rows,columns, got %q", a.dummy)
		}
		var dims [3]int
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("--dummy: bad dimension %q", p)
			}
			dims[i] = n
		}
		return blueprint.Dummy(dims[0], dims[1], dims[2]), nil
	}
	return nil, errNoGrid
}

// engine builds the engine on first use; only grid-aware commands need it.
func (a *app) engine() (*probecarto.Engine, error) {
	if a.eng != nil {
		return a.eng, nil
	}
	grid, err := a.grid()
	if err != nil {
		return nil, err
	}

	strategyName := a.strategy
	if strategyName == "" {
		strategyName = a.cfg.Toolkit.Strategy
	}
	strategy, ok := toolkit.ParseStrategy(strategyName)
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", strategyName)
	}
	connName := a.conn
	if connName == "" {
		connName = strconv.Itoa(a.cfg.Toolkit.Connectivity)
	}
	conn, ok := cluster.ParseConnectivity(connName)
	if !ok {
		return nil, fmt.Errorf("unknown connectivity %q", connName)
	}

	res := a.cfg.Resources
	opts := []probecarto.Option{
		probecarto.WithLogger(a.logger),
		probecarto.WithWorkers(int(res.Workers)),
		probecarto.WithMemoryLimit(res.MemoryLimitBytes),
		probecarto.WithIOLimit(res.IOLimitBytesPerSec),
		probecarto.WithStrategy(strategy),
		probecarto.WithConnectivity(conn),
		probecarto.WithChannelmap(a.channelmap),
	}
	if a.metrics != nil {
		opts = append(opts, probecarto.WithMetricsCollector(a.metrics))
	}
	a.eng, err = probecarto.New(a.store, grid, opts...)
	return a.eng, err
}

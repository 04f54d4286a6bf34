package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	dbm "github.com/tendermint/tm-db"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/cosmos/lightcore/internal/coredebug"
	"github.com/cosmos/lightcore/internal/coremetrics"
	"github.com/cosmos/lightcore/model"
)

// replayCmd replays conformance fixtures against simulated chains.
func replayCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "replay [fixture...]",
		Aliases: []string{"rp"},
		Short:   "Replays conformance fixtures against simulated chains",
		Long: strings.TrimSpace(`Replays conformance fixtures against simulated chains.

Each fixture runs on its own chains, concurrently with the other fixtures.
Without fixture arguments, every fixture in the fixture directory is replayed.
The command fails if any fixture fails.`),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s replay model/testdata/ICS02UpdateOKTest.json
$ %s replay --url https://example.com/fixtures/ICS03MissingClientTest.json
$ %s rp --db-backend goleveldb --enable-metrics-server`,
			appName, appName, appName,
		)),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawURL, err := cmd.Flags().GetString(flagURL)
			if err != nil {
				return err
			}
			if rawURL != "" && len(args) > 0 {
				return errFilesAndURL
			}

			backend, err := a.dbBackend(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			paths := args
			switch {
			case rawURL != "":
				attempts, err := a.fetchAttempts(cmd)
				if err != nil {
					return err
				}
				path, cleanup, err := fetchToTemp(ctx, a.Log, rawURL, attempts)
				if err != nil {
					return err
				}
				defer cleanup()
				paths = []string{path}
			case len(paths) == 0:
				paths, err = model.FixtureFiles(a.Config.Global.FixtureDir)
				if err != nil {
					return err
				}
			}

			factory, err := a.dbFactory(backend)
			if err != nil {
				return err
			}
			opts := []model.Option{model.WithDBFactory(factory)}

			enableMetrics, err := cmd.Flags().GetBool(flagEnableMetricsServer)
			if err != nil {
				return err
			}
			if enableMetrics {
				addr, err := a.metricsListenAddr(cmd)
				if err != nil {
					return err
				}
				metrics, err := startMetricsServer(ctx, a.Log, addr)
				if err != nil {
					return err
				}
				opts = append(opts, model.WithMetrics(metrics))
			} else {
				a.Log.Debug("Metrics server is disabled; enable it with --" + flagEnableMetricsServer)
			}

			debugAddr, err := cmd.Flags().GetString(flagDebugAddr)
			if err != nil {
				return err
			}
			if debugAddr != "" {
				ln, err := net.Listen("tcp", debugAddr)
				if err != nil {
					return fmt.Errorf("failed to listen on debug address %q: %w", debugAddr, err)
				}
				log := a.Log.With(zap.String("sys", "debughttp"))
				log.Info("Debug server listening", zap.String("addr", ln.Addr().String()))
				coredebug.StartDebugServer(ctx, log, ln)
			}

			if err := model.RunFiles(ctx, a.Log, paths, opts...); err != nil {
				errs := multierr.Errors(err)
				for _, err := range errs {
					a.Log.Error("Fixture failed", zap.Error(err))
				}
				return fmt.Errorf("%d of %d fixtures failed: %w", len(errs), len(paths), err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d fixtures passed\n", len(paths))
			return nil
		},
	}

	return debugServerFlags(a.Viper, metricsServerFlags(a.Viper, dbBackendFlag(a.Viper, fetchAttemptsFlag(a.Viper, urlFlag(a.Viper, cmd)))))
}

// dbFactory returns how chain databases are opened for backend. Persistent
// databases of one replay are kept in a fresh directory under the home data
// directory.
func (a *appState) dbFactory(backend string) (model.DBFactory, error) {
	if dbm.BackendType(backend) == dbm.MemDBBackend {
		return model.MemDBFactory, nil
	}

	if err := os.MkdirAll(a.dataDir(), os.ModePerm); err != nil {
		return nil, err
	}
	dir, err := os.MkdirTemp(a.dataDir(), "replay-")
	if err != nil {
		return nil, err
	}
	a.Log.Info("Storing chain databases", zap.String("dir", dir), zap.String("backend", backend))

	return func(fixture, chainID string) (dbm.DB, error) {
		return dbm.NewDB(fixture+"-"+chainID, dbm.BackendType(backend), dir)
	}, nil
}

func fetchToTemp(ctx context.Context, log *zap.Logger, rawURL string, attempts uint) (string, func(), error) {
	bz, err := fetchFixture(ctx, log, rawURL, attempts)
	if err != nil {
		return "", nil, err
	}

	name, err := fixtureName(rawURL)
	if err != nil {
		return "", nil, err
	}

	dir, err := os.MkdirTemp("", appName+"-fixture-")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, bz, 0600); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

func startMetricsServer(ctx context.Context, log *zap.Logger, addr string) (*coremetrics.Metrics, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Error(
			"Failed to start metrics server you can change the address and port using metrics-listen-addr config setting or --metrics-listen-addr flag",
			zap.String("addr", addr),
		)
		return nil, fmt.Errorf("failed to listen on metrics address %q: %w", addr, err)
	}

	log = log.With(zap.String("sys", "metricshttp"))
	log.Info("Metrics server listening", zap.String("addr", ln.Addr().String()))

	metrics := coremetrics.NewMetrics()
	coremetrics.StartMetricsServer(ctx, log, ln, metrics.Registry)
	return metrics, nil
}

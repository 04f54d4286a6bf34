package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagHome                = "home"
	flagDebug               = "debug"
	flagLogFormat           = "log-format"
	flagJSON                = "json"
	flagYAML                = "yaml"
	flagURL                 = "url"
	flagOutput              = "output"
	flagDBBackend           = "db-backend"
	flagFetchAttempts       = "fetch-attempts"
	flagEnableMetricsServer = "enable-metrics-server"
	flagMetricsListenAddr   = "metrics-listen-addr"
	flagDebugAddr           = "debug-addr"
)

func yamlFlag(v *viper.Viper, cmd *cobra.Command) *cobra.Command {
	cmd.Flags().BoolP(flagYAML, "y", false, "output using yaml")
	if err := v.BindPFlag(flagYAML, cmd.Flags().Lookup(flagYAML)); err != nil {
		panic(err)
	}
	return cmd
}

func jsonFlag(v *viper.Viper, cmd *cobra.Command) *cobra.Command {
	cmd.Flags().BoolP(flagJSON, "j", false, "returns the response in json format")
	if err := v.BindPFlag(flagJSON, cmd.Flags().Lookup(flagJSON)); err != nil {
		panic(err)
	}
	return cmd
}

func urlFlag(v *viper.Viper, cmd *cobra.Command) *cobra.Command {
	cmd.Flags().StringP(flagURL, "u", "", "url to fetch a fixture from")
	if err := v.BindPFlag(flagURL, cmd.Flags().Lookup(flagURL)); err != nil {
		panic(err)
	}
	return cmd
}

func outputFlag(v *viper.Viper, cmd *cobra.Command) *cobra.Command {
	cmd.Flags().StringP(flagOutput, "o", "", "file to write the fetched fixture to (defaults to the fixture directory)")
	if err := v.BindPFlag(flagOutput, cmd.Flags().Lookup(flagOutput)); err != nil {
		panic(err)
	}
	return cmd
}

func dbBackendFlag(v *viper.Viper, cmd *cobra.Command) *cobra.Command {
	cmd.Flags().String(
		flagDBBackend,
		"",
		"database backend of the simulated chains (memdb or goleveldb). By default, "+
			"will be the db-backend parameter in the global config.",
	)
	if err := v.BindPFlag(flagDBBackend, cmd.Flags().Lookup(flagDBBackend)); err != nil {
		panic(err)
	}
	return cmd
}

func fetchAttemptsFlag(v *viper.Viper, cmd *cobra.Command) *cobra.Command {
	cmd.Flags().Uint(
		flagFetchAttempts,
		0,
		"number of attempts to download a fixture. By default, "+
			"will be the fetch-attempts parameter in the global config.",
	)
	if err := v.BindPFlag(flagFetchAttempts, cmd.Flags().Lookup(flagFetchAttempts)); err != nil {
		panic(err)
	}
	return cmd
}

func metricsServerFlags(v *viper.Viper, cmd *cobra.Command) *cobra.Command {
	cmd.Flags().Bool(
		flagEnableMetricsServer,
		false,
		"enables the metrics server while fixtures replay",
	)
	if err := v.BindPFlag(flagEnableMetricsServer, cmd.Flags().Lookup(flagEnableMetricsServer)); err != nil {
		panic(err)
	}

	cmd.Flags().String(
		flagMetricsListenAddr,
		"",
		"address to use for metrics server. By default, "+
			"will be the metrics-listen-addr parameter in the global config.",
	)
	if err := v.BindPFlag(flagMetricsListenAddr, cmd.Flags().Lookup(flagMetricsListenAddr)); err != nil {
		panic(err)
	}
	return cmd
}

func debugServerFlags(v *viper.Viper, cmd *cobra.Command) *cobra.Command {
	cmd.Flags().String(
		flagDebugAddr,
		"",
		"address to serve profiling endpoints on while fixtures replay; disabled when empty",
	)
	if err := v.BindPFlag(flagDebugAddr, cmd.Flags().Lookup(flagDebugAddr)); err != nil {
		panic(err)
	}
	return cmd
}

// dbBackend returns the --db-backend flag if it was set, and the configured backend otherwise.
func (a *appState) dbBackend(cmd *cobra.Command) (string, error) {
	if !cmd.Flags().Changed(flagDBBackend) {
		return a.Config.Global.DBBackend, nil
	}
	backend, err := cmd.Flags().GetString(flagDBBackend)
	if err != nil {
		return "", err
	}
	return backend, validateDBBackend(backend)
}

// fetchAttempts returns the --fetch-attempts flag if it was set, and the configured attempts otherwise.
func (a *appState) fetchAttempts(cmd *cobra.Command) (uint, error) {
	if !cmd.Flags().Changed(flagFetchAttempts) {
		return a.Config.Global.FetchAttempts, nil
	}
	attempts, err := cmd.Flags().GetUint(flagFetchAttempts)
	if err != nil {
		return 0, err
	}
	if attempts == 0 {
		return 0, fmt.Errorf("--%s must be at least 1", flagFetchAttempts)
	}
	return attempts, nil
}

// metricsListenAddr returns the --metrics-listen-addr flag if it was set, and the configured address otherwise.
func (a *appState) metricsListenAddr(cmd *cobra.Command) (string, error) {
	if !cmd.Flags().Changed(flagMetricsListenAddr) {
		return a.Config.Global.MetricsListenAddr, nil
	}
	return cmd.Flags().GetString(flagMetricsListenAddr)
}

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	dbm "github.com/tendermint/tm-db"
	"gopkg.in/yaml.v3"
)

func configCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Manage configuration file",
	}

	cmd.AddCommand(
		configShowCmd(a),
		configInitCmd(a),
		configSetCmd(a),
	)
	return cmd
}

// Command for printing current configuration
func configShowCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show",
		Aliases: []string{"s", "list", "l"},
		Short:   "Prints current configuration",
		Args:    withUsage(cobra.NoArgs),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s config show --home %s
$ %s cfg list`, appName, defaultHome, appName)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := homeConfigPath(a.HomePath)
			if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
				if _, err := os.Stat(a.HomePath); os.IsNotExist(err) {
					return fmt.Errorf("home path does not exist: %s", a.HomePath)
				}
				return errConfigNotFound(cfgPath)
			}

			jsn, err := cmd.Flags().GetBool(flagJSON)
			if err != nil {
				return err
			}
			yml, err := cmd.Flags().GetBool(flagYAML)
			if err != nil {
				return err
			}
			switch {
			case yml && jsn:
				return errBothJSONAndYAML
			case jsn:
				out, err := json.Marshal(a.Config)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			default:
				out, err := yaml.Marshal(a.Config)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
		},
	}

	return yamlFlag(a.Viper, jsonFlag(a.Viper, cmd))
}

// Command for initializing an empty config at the --home location
func configInitCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "init",
		Aliases: []string{"i"},
		Short:   "Creates a default home directory at path defined by --home",
		Args:    withUsage(cobra.NoArgs),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s config init --home %s
$ %s cfg i`, appName, defaultHome, appName)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := path.Join(a.HomePath, "config")
			cfgPath := homeConfigPath(a.HomePath)

			if _, err := os.Stat(cfgPath); !os.IsNotExist(err) {
				return fmt.Errorf("config already exists: %s", cfgPath)
			}

			if err := os.MkdirAll(cfgDir, os.ModePerm); err != nil {
				return err
			}

			cfg := defaultConfig(a.HomePath)
			out, err := yaml.Marshal(&cfg)
			if err != nil {
				return err
			}
			if err := os.WriteFile(cfgPath, out, 0600); err != nil {
				return err
			}

			a.Config = &cfg
			return nil
		},
	}
	return cmd
}

func configSetCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set key value",
		Short: "Sets a global setting in the configuration file",
		Long: strings.TrimSpace(`Sets a global setting in the configuration file.
Valid keys are db-backend, metrics-listen-addr, fixture-dir, and fetch-attempts.`),
		Args: withUsage(cobra.ExactArgs(2)),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s config set db-backend goleveldb
$ %s cfg set fetch-attempts 5`, appName, appName)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.Config
			if err := cfg.Global.set(args[0], args[1]); err != nil {
				return err
			}
			return a.OverwriteConfig(&cfg)
		},
	}
	return cmd
}

// Config represents the config file for lightcore.
type Config struct {
	Global GlobalConfig `yaml:"global" json:"global"`
}

// GlobalConfig describes the settings shared by every command.
type GlobalConfig struct {
	DBBackend         string `yaml:"db-backend" json:"db-backend"`
	MetricsListenAddr string `yaml:"metrics-listen-addr" json:"metrics-listen-addr"`
	FixtureDir        string `yaml:"fixture-dir" json:"fixture-dir"`
	FetchAttempts     uint   `yaml:"fetch-attempts" json:"fetch-attempts"`
}

const (
	keyDBBackend         = "db-backend"
	keyMetricsListenAddr = "metrics-listen-addr"
	keyFixtureDir        = "fixture-dir"
	keyFetchAttempts     = "fetch-attempts"

	defaultMetricsListenAddr = "127.0.0.1:5184"
	defaultFetchAttempts     = 3
)

func defaultConfig(home string) Config {
	return Config{
		Global: GlobalConfig{
			DBBackend:         string(dbm.MemDBBackend),
			MetricsListenAddr: defaultMetricsListenAddr,
			FixtureDir:        path.Join(home, "fixtures"),
			FetchAttempts:     defaultFetchAttempts,
		},
	}
}

func (g *GlobalConfig) set(key, value string) error {
	switch key {
	case keyDBBackend:
		g.DBBackend = value
	case keyMetricsListenAddr:
		g.MetricsListenAddr = value
	case keyFixtureDir:
		g.FixtureDir = value
	case keyFetchAttempts:
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", keyFetchAttempts, value, err)
		}
		g.FetchAttempts = uint(n)
	default:
		return errUnknownConfigKey(key)
	}
	return nil
}

func (c *Config) validate() error {
	if err := validateDBBackend(c.Global.DBBackend); err != nil {
		return err
	}
	if c.Global.FetchAttempts == 0 {
		return errors.New("fetch-attempts must be at least 1")
	}
	return nil
}

func validateDBBackend(backend string) error {
	switch dbm.BackendType(backend) {
	case dbm.MemDBBackend, dbm.GoLevelDBBackend:
		return nil
	default:
		return errUnsupportedDBBackend(backend)
	}
}

// initConfig reads the config file in the home directory into a.Config.
// Without a config file, a.Config holds the defaults.
func initConfig(a *appState) error {
	cfg := defaultConfig(a.HomePath)

	cfgPath := homeConfigPath(a.HomePath)
	if _, err := os.Stat(cfgPath); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to check existence of config file at %s: %w", cfgPath, err)
		}
		a.Config = &cfg
		return nil
	}

	a.Viper.SetConfigFile(cfgPath)
	if err := a.Viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file at %s: %w", cfgPath, err)
	}

	file, err := os.ReadFile(a.Viper.ConfigFileUsed())
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}

	a.Config = &cfg
	return nil
}

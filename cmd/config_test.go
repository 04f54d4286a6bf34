package cmd_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cosmos/lightcore/cmd"
	"github.com/cosmos/lightcore/internal/coretest"
)

func TestConfigInit(t *testing.T) {
	t.Parallel()

	home := coretest.NewHome(t)
	_ = home.MustExec(t, "config", "init")

	require.Equal(t, cmd.Config{
		Global: cmd.GlobalConfig{
			DBBackend:         "memdb",
			MetricsListenAddr: "127.0.0.1:5184",
			FixtureDir:        home.FixtureDir(),
			FetchAttempts:     3,
		},
	}, home.Config(t))

	res := home.Exec(zaptest.NewLogger(t), "config", "init")
	require.Error(t, res.Err)
	require.Contains(t, res.Err.Error(), "config already exists")
}

func TestConfigShow(t *testing.T) {
	t.Parallel()

	home := coretest.NewHome(t)

	res := home.Exec(zaptest.NewLogger(t), "config", "show")
	require.Error(t, res.Err)
	require.Contains(t, res.Err.Error(), "config does not exist")

	_ = home.MustExec(t, "config", "init")

	res = home.MustExec(t, "config", "show")
	require.Contains(t, res.Stdout.String(), "db-backend: memdb")
	require.Contains(t, res.Stdout.String(), "metrics-listen-addr: 127.0.0.1:5184")

	res = home.MustExec(t, "config", "show", "--json")
	var config cmd.Config
	require.NoError(t, json.Unmarshal(res.Stdout.Bytes(), &config))
	require.Equal(t, home.Config(t), config)

	res = home.Exec(zaptest.NewLogger(t), "config", "show", "--json", "--yaml")
	require.Error(t, res.Err)
}

func TestConfigSet(t *testing.T) {
	t.Parallel()

	home := coretest.NewHome(t)
	_ = home.MustExec(t, "config", "init")

	_ = home.MustExec(t, "config", "set", "db-backend", "goleveldb")
	_ = home.MustExec(t, "config", "set", "fetch-attempts", "5")
	_ = home.MustExec(t, "cfg", "set", "metrics-listen-addr", "127.0.0.1:9100")

	config := home.Config(t)
	require.Equal(t, "goleveldb", config.Global.DBBackend)
	require.Equal(t, uint(5), config.Global.FetchAttempts)
	require.Equal(t, "127.0.0.1:9100", config.Global.MetricsListenAddr)

	for _, tc := range []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown key", []string{"timeout", "10s"}, "unknown config key"},
		{"unsupported backend", []string{"db-backend", "rocksdb"}, "unsupported db backend"},
		{"zero attempts", []string{"fetch-attempts", "0"}, "at least 1"},
		{"malformed attempts", []string{"fetch-attempts", "many"}, "invalid fetch-attempts"},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			res := home.Exec(zaptest.NewLogger(t), append([]string{"config", "set"}, tc.args...)...)
			require.Error(t, res.Err)
			require.Contains(t, res.Err.Error(), tc.wantErr)
		})
	}

	// Rejected settings leave the file untouched.
	require.Equal(t, config, home.Config(t))
}

func TestConfigSetWithoutConfig(t *testing.T) {
	t.Parallel()

	home := coretest.NewHome(t)
	res := home.Exec(zaptest.NewLogger(t), "config", "set", "db-backend", "goleveldb")
	require.Error(t, res.Err)
}

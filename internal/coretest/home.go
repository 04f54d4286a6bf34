// Package coretest drives the lightcore command line from Go tests. Commands
// run in-process against a home directory owned by the test, and replays are
// reported per fixture from the structured log of the run.
package coretest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"

	"github.com/cosmos/lightcore/cmd"
)

// Home is a lightcore home directory in a temp dir of a test.
// It keeps no reference to the test, so subtests may share one Home.
type Home struct {
	Dir string
}

func NewHome(t *testing.T) *Home {
	t.Helper()
	return &Home{Dir: t.TempDir()}
}

// Result is the output of one command.
type Result struct {
	Stdout, Stderr bytes.Buffer
	Err            error
}

// Exec runs the root command with args against the home directory.
func (h *Home) Exec(log *zap.Logger, args ...string) Result {
	return h.ExecC(context.Background(), log, args...)
}

// ExecC is Exec with a context, which replay and fetch honour.
func (h *Home) ExecC(ctx context.Context, log *zap.Logger, args ...string) Result {
	root := cmd.NewRootCmd(log)
	root.SilenceUsage = true
	root.SetIn(bytes.NewReader(nil))

	var res Result
	root.SetOut(&res.Stdout)
	root.SetErr(&res.Stderr)
	root.SetArgs(append([]string{"--home", h.Dir}, args...))

	res.Err = root.ExecuteContext(ctx)
	return res
}

// MustExec is Exec that fails t when the command fails.
func (h *Home) MustExec(t *testing.T, args ...string) Result {
	t.Helper()

	res := h.Exec(zaptest.NewLogger(t), args...)
	require.NoErrorf(t, res.Err, "lightcore %v\nstdout: %s\nstderr: %s", args, res.Stdout.String(), res.Stderr.String())
	return res
}

// Replay is the outcome of one replay command.
type Replay struct {
	Result

	// Passed and Failed hold the fixture paths, sorted, as the run logged them.
	Passed []string
	Failed []string
}

// Replay runs "replay" with args, recording which fixtures passed and which failed.
func (h *Home) Replay(t *testing.T, args ...string) Replay {
	t.Helper()

	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(zapcore.NewTee(zaptest.NewLogger(t).Core(), core))

	rep := Replay{Result: h.Exec(log, append([]string{"replay"}, args...)...)}
	for _, entry := range logs.FilterMessage("Fixture passed").All() {
		rep.Passed = append(rep.Passed, entry.ContextMap()["path"].(string))
	}
	for _, entry := range logs.FilterMessage("Fixture failed").All() {
		rep.Failed = append(rep.Failed, entry.ContextMap()["error"].(string))
	}
	sort.Strings(rep.Passed)
	sort.Strings(rep.Failed)
	return rep
}

// MustReplay is Replay that fails t unless every fixture passed.
func (h *Home) MustReplay(t *testing.T, args ...string) Replay {
	t.Helper()

	rep := h.Replay(t, args...)
	require.NoErrorf(t, rep.Err, "failed fixtures: %v", rep.Failed)
	require.Empty(t, rep.Failed)
	return rep
}

// Config reads the config file of the home directory.
func (h *Home) Config(t *testing.T) (config cmd.Config) {
	t.Helper()

	bz, err := os.ReadFile(filepath.Join(h.Dir, "config", "config.yaml"))
	require.NoError(t, err, "failed to read config file")
	require.NoError(t, yaml.Unmarshal(bz, &config), "failed to unmarshal config file")
	return config
}

// FixtureDir is the fixture directory of the default config.
func (h *Home) FixtureDir() string {
	return filepath.Join(h.Dir, "fixtures")
}

// StoreFixture copies the fixture at src into the fixture directory and
// returns its new path.
func (h *Home) StoreFixture(t *testing.T, src string) string {
	t.Helper()

	bz, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(h.FixtureDir(), 0o700))

	dst := filepath.Join(h.FixtureDir(), filepath.Base(src))
	require.NoError(t, os.WriteFile(dst, bz, 0o600))
	return dst
}

// ReplayDirs lists the directories goleveldb replays stored chain databases in.
func (h *Home) ReplayDirs(t *testing.T) []string {
	t.Helper()

	dirs, err := filepath.Glob(filepath.Join(h.Dir, "data", "replay-*"))
	require.NoError(t, err)
	return dirs
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cosmos/lightcore/model"
)

var (
	fetchDelay   = 200 * time.Millisecond
	fetchTimeout = 30 * time.Second
)

// fetchCmd downloads a fixture into the fixture directory.
func fetchCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fetch url",
		Aliases: []string{"fch"},
		Short:   "Downloads a conformance fixture",
		Long: strings.TrimSpace(`Downloads a conformance fixture and stores it in the fixture directory,
where replay picks it up when no fixture files are named.`),
		Args: withUsage(cobra.ExactArgs(1)),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s fetch https://example.com/fixtures/ICS02UpdateOKTest.json
$ %s fch https://example.com/fixtures/ICS02UpdateOKTest.json --output ./update.json`,
			appName, appName,
		)),
		RunE: func(cmd *cobra.Command, args []string) error {
			attempts, err := a.fetchAttempts(cmd)
			if err != nil {
				return err
			}
			bz, err := fetchFixture(cmd.Context(), a.Log, args[0], attempts)
			if err != nil {
				return err
			}

			out, err := cmd.Flags().GetString(flagOutput)
			if err != nil {
				return err
			}
			if out == "" {
				name, err := fixtureName(args[0])
				if err != nil {
					return err
				}
				out = filepath.Join(a.Config.Global.FixtureDir, name)
			}

			if err := os.MkdirAll(filepath.Dir(out), os.ModePerm); err != nil {
				return err
			}
			if err := os.WriteFile(out, bz, 0600); err != nil {
				return fmt.Errorf("failed to write fixture to %s: %w", out, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	return outputFlag(a.Viper, fetchAttemptsFlag(a.Viper, cmd))
}

// fetchFixture downloads the fixture at rawURL, retrying transient failures.
// The payload must decode as a fixture.
func fetchFixture(ctx context.Context, log *zap.Logger, rawURL string, attempts uint) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid fixture URL %q", rawURL)
	}

	client := &http.Client{Timeout: fetchTimeout}

	var bz []byte
	if err := retry.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return retry.Unrecoverable(err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("unexpected status %s", resp.Status)
		default:
			return retry.Unrecoverable(fmt.Errorf("unexpected status %s", resp.Status))
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if _, err := model.ParseSteps(body); err != nil {
			return retry.Unrecoverable(err)
		}

		bz = body
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(fetchDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Info(
				"Failed to fetch fixture",
				zap.String("url", rawURL),
				zap.Uint("attempt", n+1),
				zap.Uint("max_attempts", attempts),
				zap.Error(err),
			)
		}),
	); err != nil {
		return nil, fmt.Errorf("%w from %s: %v", errFixtureNotFetched, rawURL, err)
	}

	return bz, nil
}

// fixtureName returns the file name a fixture downloaded from rawURL is stored under.
func fixtureName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("cannot derive a fixture name from %q", rawURL)
	}
	if filepath.Ext(name) != ".json" {
		name += ".json"
	}
	return name, nil
}

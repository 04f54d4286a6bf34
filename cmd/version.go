package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cosmos/lightcore/internal/coredebug"
)

var (
	// Version defines the application version (defined at compile time)
	Version = ""
	Commit  = ""
	Dirty   = ""
)

type versionInfo struct {
	Version    string `json:"version" yaml:"version"`
	Commit     string `json:"commit" yaml:"commit"`
	IBCGo      string `json:"ibc-go" yaml:"ibc-go"`
	Tendermint string `json:"tendermint" yaml:"tendermint"`
	Go         string `json:"go" yaml:"go"`
}

func getVersionCmd(a *appState) *cobra.Command {
	versionCmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print the lightcore version info",
		Args:    withUsage(cobra.NoArgs),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s version --json
$ %s v`,
			appName, appName,
		)),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsn, err := cmd.Flags().GetBool(flagJSON)
			if err != nil {
				return err
			}

			build := coredebug.ReadBuild()

			// Values stamped through -ldflags win over the VCS settings.
			commit := Commit
			switch {
			case commit == "":
				commit = build.Commit()
			case Dirty != "" && Dirty != "0":
				commit += " (dirty)"
			}

			verInfo := versionInfo{
				Version:    Version,
				Commit:     commit,
				IBCGo:      build.DepVersion("github.com/cosmos/ibc-go/v3"),
				Tendermint: build.DepVersion("github.com/tendermint/tendermint"),
				Go:         fmt.Sprintf("%s %s/%s", build.GoVersion, runtime.GOOS, runtime.GOARCH),
			}

			var bz []byte
			if jsn {
				bz, err = json.Marshal(verInfo)
			} else {
				bz, err = yaml.Marshal(&verInfo)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(bz))
			return err
		},
	}

	return jsonFlag(a.Viper, versionCmd)
}

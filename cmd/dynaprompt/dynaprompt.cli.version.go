package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// versionOutput represents JSON output for version
type versionOutput struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
}

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   CmdNameVersion,
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := getVersionInfo()
			if c.jsonOutput() {
				return c.writeJSON(info)
			}
			fmt.Fprintf(c.stdout, FmtVersionText, CLIName, info.Version, info.Commit, info.GoVersion)
			return nil
		},
	}
}

func getVersionInfo() versionOutput {
	info := versionOutput{
		Version:   version,
		Commit:    VersionUnknown,
		GoVersion: runtime.Version(),
	}

	build, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range build.Settings {
		if s.Key == BuildSettingVCSHash && s.Value != "" {
			info.Commit = s.Value
		}
	}
	return info
}

package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is set via -ldflags "-X github.com/abhisek/audiotrainer/cmd.version=v1.2.3".
var version = ""

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version, commit and Go toolchain",
	Run: func(cmd *cobra.Command, args []string) {
		info := readBuildInfo()
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Fprintln(cmd.OutOrStdout(), info.Version)
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), info)
	},
}

func init() {
	versionCmd.Flags().Bool("short", false, "Print only the version")
}

// buildInfo is what the binary knows about its own build.
type buildInfo struct {
	Version   string
	Revision  string
	Modified  bool
	GoVersion string
}

func (b buildInfo) String() string {
	s := "audiotrainer " + b.Version
	if b.Revision != "" {
		s += " (" + b.Revision
		if b.Modified {
			s += ", dirty"
		}
		s += ")"
	}
	if b.GoVersion != "" {
		s += " " + b.GoVersion
	}
	return s
}

func readBuildInfo() buildInfo {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return versionInfo(nil)
	}
	return versionInfo(bi)
}

// versionInfo prefers the linker-set version, then the module version,
// and adds the VCS stamp when the binary was built from a checkout.
func versionInfo(bi *debug.BuildInfo) buildInfo {
	info := buildInfo{Version: version}
	if bi == nil {
		if info.Version == "" {
			info.Version = "(devel)"
		}
		return info
	}
	info.GoVersion = bi.GoVersion
	if info.Version == "" {
		info.Version = bi.Main.Version
	}
	if info.Version == "" {
		info.Version = "(devel)"
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
			if len(info.Revision) > 12 {
				info.Revision = info.Revision[:12]
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

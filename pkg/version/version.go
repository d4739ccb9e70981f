// Package version exposes build metadata stamped in by the linker.
package version

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/pkg/errors"
)

// Set with -ldflags "-X github.com/jingkaihe/pluginkit/pkg/version.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Info represents version information
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

// Get returns the version information of the running binary
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

func (i Info) String() string {
	return fmt.Sprintf("pluginkit %s (commit %s, built %s, %s)", i.Version, i.GitCommit, i.BuildTime, i.GoVersion)
}

// JSON returns the indented JSON representation of version info
func (i Info) JSON() (string, error) {
	bytes, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal version info")
	}
	return string(bytes), nil
}

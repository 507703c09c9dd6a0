// Package version carries build-time version metadata.
package version

import (
	"encoding/json"
	"fmt"
)

var (
	// Version is set at build time via ldflags.
	Version = "dev"

	// GitCommit is the git commit SHA that was built.
	GitCommit = "unknown"
)

// Info represents version information.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
}

// Get returns the version information.
func Get() Info {
	return Info{Version: Version, GitCommit: GitCommit}
}

func (i Info) String() string {
	return fmt.Sprintf("skillet %s (%s)", i.Version, i.GitCommit)
}

// JSON returns the JSON representation of the version info.
func (i Info) JSON() (string, error) {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

/*
Package version contains the build information of the application, injected at link time.
*/
package version

import (
	"fmt"
	"runtime"

	"github.com/anchore/modcompat/internal"
)

const valueNotProvided = "[not provided]"

// all variables here are provided as build-time arguments, with clear default values
var version = valueNotProvided
var gitCommit = valueNotProvided
var gitDescription = valueNotProvided
var buildDate = valueNotProvided
var platform = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)

// Version defines the application version details (generally from build information)
type Version struct {
	Version        string `json:"version"`
	GitCommit      string `json:"gitCommit"`
	GitDescription string `json:"gitDescription"`
	BuildDate      string `json:"buildDate"`
	GoVersion      string `json:"goVersion"`
	Compiler       string `json:"compiler"`
	Platform       string `json:"platform"`
}

func (v Version) IsProvided() bool {
	return v.Version != valueNotProvided
}

// UserAgent is sent with every request made to the compatibility table endpoint.
func (v Version) UserAgent() string {
	if !v.IsProvided() {
		return fmt.Sprintf("%s (%s)", internal.ApplicationName, v.Platform)
	}
	return fmt.Sprintf("%s/%s (%s)", internal.ApplicationName, v.Version, v.Platform)
}

// FromBuild provides all version details
func FromBuild() Version {
	return Version{
		Version:        version,
		GitCommit:      gitCommit,
		GitDescription: gitDescription,
		BuildDate:      buildDate,
		GoVersion:      runtime.Version(),
		Compiler:       runtime.Compiler,
		Platform:       platform,
	}
}

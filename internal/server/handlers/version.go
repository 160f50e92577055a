package handlers

import (
	"net/http"
	"runtime"
	"sync"

	"github.com/fulmenhq/gofulmen/crucible"
)

var (
	versionMu    sync.RWMutex
	appName      = "providerkit"
	appVersion   = "dev"
	appCommit    = "unknown"
	appBuildDate = "unknown"
)

// SetVersionInfo sets the build metadata reported by VersionHandler.
func SetVersionInfo(version, commit, buildDate string) {
	versionMu.Lock()
	defer versionMu.Unlock()
	appVersion = version
	appCommit = commit
	appBuildDate = buildDate
}

// SetAppName overrides the binary name reported by VersionHandler.
func SetAppName(name string) {
	if name == "" {
		return
	}
	versionMu.Lock()
	defer versionMu.Unlock()
	appName = name
}

// VersionResponse represents the version information response
type VersionResponse struct {
	App          AppInfo     `json:"app"`
	Dependencies DepInfo     `json:"dependencies"`
	Runtime      RuntimeInfo `json:"runtime"`
}

// AppInfo contains application version details
type AppInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}

// DepInfo contains dependency version information
type DepInfo struct {
	Gofulmen string `json:"gofulmen"`
	Crucible string `json:"crucible"`
}

// RuntimeInfo contains runtime environment information
type RuntimeInfo struct {
	Platform      string `json:"platform"`
	NumCPU        int    `json:"num_cpu"`
	NumGoroutines int    `json:"num_goroutines"`
}

// VersionHandler handles version information requests
func VersionHandler(w http.ResponseWriter, r *http.Request) {
	deps := crucible.GetVersion()

	versionMu.RLock()
	app := AppInfo{
		Name:      appName,
		Version:   appVersion,
		Commit:    appCommit,
		BuildDate: appBuildDate,
		GoVersion: runtime.Version(),
	}
	versionMu.RUnlock()

	writeJSON(w, http.StatusOK, VersionResponse{
		App: app,
		Dependencies: DepInfo{
			Gofulmen: deps.Gofulmen,
			Crucible: deps.Crucible,
		},
		Runtime: RuntimeInfo{
			Platform:      runtime.GOOS + "/" + runtime.GOARCH,
			NumCPU:        runtime.NumCPU(),
			NumGoroutines: runtime.NumGoroutine(),
		},
	})
}

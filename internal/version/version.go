// Package version reports the build version of the client.
package version

import (
	"runtime/debug"
	"strings"
	"time"
)

const (
	defaultModule = "pkt.systems/mcdrpanel"
	product       = "mcdrpanel"
	unknown       = "v0.0.0-unknown"
)

// buildVersion is set via -ldflags "-X pkt.systems/mcdrpanel/internal/version.buildVersion=...".
var buildVersion = ""

// Current returns the build version. VCS builds without a tag report a
// pseudo version with a +dirty suffix for modified trees.
func Current() string {
	if v := strings.TrimSpace(buildVersion); v != "" {
		return v
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return unknown
	}
	return fromBuildInfo(info)
}

// Module returns the main module path.
func Module() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if p := strings.TrimSpace(info.Main.Path); p != "" {
			return p
		}
	}
	return defaultModule
}

// UserAgent identifies the client to the panel backend.
func UserAgent() string {
	return product + "/" + Current()
}

func fromBuildInfo(info *debug.BuildInfo) string {
	if info == nil {
		return unknown
	}
	if v := strings.TrimSpace(info.Main.Version); v != "" && v != "(devel)" {
		return v
	}
	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	revision := settings["vcs.revision"]
	committed, err := time.Parse(time.RFC3339, settings["vcs.time"])
	if revision == "" || err != nil {
		return unknown
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	v := "v0.0.0-" + committed.UTC().Format("20060102150405") + "-" + revision
	if settings["vcs.modified"] == "true" {
		v += "+dirty"
	}
	return v
}

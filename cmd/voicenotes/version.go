package main

import "runtime/debug"

var version = buildVersion(debug.ReadBuildInfo())

// buildVersion prefers a tagged module version, then the short VCS
// revision, then "dev".
func buildVersion(info *debug.BuildInfo, ok bool) string {
	if !ok || info == nil {
		return "dev"
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}

	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}

	revision := settings["vcs.revision"]
	if revision == "" {
		return "dev"
	}
	revision = revision[:min(len(revision), 7)]

	if settings["vcs.modified"] == "true" {
		revision += "-dirty"
	}
	return revision
}

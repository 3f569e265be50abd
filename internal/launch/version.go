package launch

import (
	"strings"

	"github.com/handiism/mixlauncher/internal/layout"
	"github.com/handiism/mixlauncher/internal/model"
)

// ResolveVersionID picks the installed version to launch for a loader and
// game version. Among several matches the last in name order wins. Without
// a match the plain game version is returned.
func ResolveVersionID(l *layout.Layout, loader model.LoaderKind, gameVersion string) string {
	if loader == model.LoaderVanilla || loader == "" {
		return gameVersion
	}

	installed, err := l.InstalledVersions()
	if err != nil {
		return gameVersion
	}

	match := gameVersion
	for _, id := range installed {
		if matchesLoader(id, loader, gameVersion) {
			match = id
		}
	}
	return match
}

func matchesLoader(id string, loader model.LoaderKind, gameVersion string) bool {
	switch loader {
	case model.LoaderFabric:
		return strings.HasPrefix(id, "fabric-loader-") && strings.HasSuffix(id, "-"+gameVersion)
	case model.LoaderQuilt:
		return strings.HasPrefix(id, "quilt-loader-") && strings.HasSuffix(id, "-"+gameVersion)
	case model.LoaderForge:
		return strings.HasPrefix(id, gameVersion+"-forge-")
	default:
		return false
	}
}

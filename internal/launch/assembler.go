package launch

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	ioutils "github.com/handiism/mixlauncher/internal/io"
	"github.com/handiism/mixlauncher/internal/layout"
	"github.com/handiism/mixlauncher/internal/manifest"
	"github.com/handiism/mixlauncher/internal/session"
)

const (
	// DefaultMainClass is used when no descriptor names an entry point.
	DefaultMainClass = "net.minecraft.client.main.Main"
	// DefaultAssetIndex is used when no descriptor names an asset index.
	DefaultAssetIndex = "legacy"
	// DefaultMinMemoryMB is the initial heap when none is requested.
	DefaultMinMemoryMB = 512
)

// Command is a fully assembled process invocation.
type Command struct {
	// Path is the Java executable.
	Path string
	// Args excludes Path.
	Args []string
	// Dir is the working directory, the game directory.
	Dir string

	// VersionID is the launched version.
	VersionID string
	// Classpath lists the classpath entries in order.
	Classpath []string
	MainClass string
}

// Request describes what to launch.
type Request struct {
	VersionID   string
	MemoryMB    int
	MinMemoryMB int
	Identity    session.Identity

	// GameDir overrides the game directory. Profiles set it to the parent of
	// their mods directory.
	GameDir string
}

// Assembler builds launch commands from installed descriptors.
type Assembler struct {
	Layout   *layout.Layout
	Platform string
	JavaPath string
}

// NewAssembler creates an Assembler.
func NewAssembler(l *layout.Layout, platform, javaPath string) *Assembler {
	if javaPath == "" {
		javaPath = "java"
	}
	return &Assembler{Layout: l, Platform: platform, JavaPath: javaPath}
}

// Assemble builds the command line for req.VersionID.
//
// Inherited versions put the parent's libraries first, then their own, then
// the parent's engine jar; asset index and natives directory also come from
// the parent when it provides them.
func (a *Assembler) Assemble(req Request) (*Command, error) {
	if err := req.Identity.Validate(); err != nil {
		return nil, err
	}
	if req.MemoryMB <= 0 {
		return nil, fmt.Errorf("invalid memory limit %d MB", req.MemoryMB)
	}

	child, err := a.readDescriptor(req.VersionID)
	if err != nil {
		return nil, err
	}

	var parent *manifest.Descriptor
	if child.InheritsFrom != "" {
		parent, err = a.readDescriptor(child.InheritsFrom)
		if err != nil {
			return nil, fmt.Errorf("parent of %s: %w", req.VersionID, err)
		}
	}

	var classpath []string
	if parent != nil {
		for _, lib := range parent.Libraries {
			if !manifest.Allowed(lib.Rules, a.Platform) {
				continue
			}
			if art, ok := lib.DirectArtifact(); ok {
				classpath = append(classpath, a.Layout.LibraryPath(art.Path))
			}
		}
	}
	for _, lib := range child.Libraries {
		if !manifest.Allowed(lib.Rules, a.Platform) {
			continue
		}
		if art, ok := lib.DirectArtifact(); ok {
			classpath = append(classpath, a.Layout.LibraryPath(art.Path))
		} else if rel := manifest.CoordinatePath(lib.Name); rel != "" {
			classpath = append(classpath, a.Layout.LibraryPath(rel))
		}
	}

	engineID := child.ID
	if parent != nil {
		engineID = parent.ID
	}
	classpath = append(classpath, a.Layout.ClientJarPath(engineID))

	mainClass := child.MainClass
	if mainClass == "" && parent != nil {
		mainClass = parent.MainClass
	}
	if mainClass == "" {
		mainClass = DefaultMainClass
	}

	assetIndex := ""
	if parent != nil {
		assetIndex = parent.AssetIndexID()
	}
	if assetIndex == "" {
		assetIndex = child.AssetIndexID()
	}
	if assetIndex == "" {
		assetIndex = DefaultAssetIndex
	}

	nativesDir := a.Layout.NativesDir(child.ID)
	if parent != nil && ioutils.DirExists(a.Layout.NativesDir(parent.ID)) {
		nativesDir = a.Layout.NativesDir(parent.ID)
	}

	gameDir := req.GameDir
	if gameDir == "" {
		gameDir = a.Layout.Root
	}
	minMemory := req.MinMemoryMB
	if minMemory <= 0 {
		minMemory = DefaultMinMemoryMB
	}

	args := []string{
		"-Xmx" + strconv.Itoa(req.MemoryMB) + "M",
		"-Xms" + strconv.Itoa(minMemory) + "M",
		"-Djava.library.path=" + nativesDir,
	}
	args = append(args, req.Identity.AgentFlags...)
	args = append(args,
		"-cp", strings.Join(classpath, string(os.PathListSeparator)),
		mainClass,
		"--username", req.Identity.Username,
		"--uuid", req.Identity.UUID,
		"--accessToken", req.Identity.Token(),
		"--version", req.VersionID,
		"--gameDir", gameDir,
		"--assetsDir", a.Layout.AssetsDir(),
		"--assetIndex", assetIndex,
	)

	return &Command{
		Path:      a.JavaPath,
		Args:      args,
		Dir:       gameDir,
		VersionID: req.VersionID,
		Classpath: classpath,
		MainClass: mainClass,
	}, nil
}

func (a *Assembler) readDescriptor(id string) (*manifest.Descriptor, error) {
	data, err := os.ReadFile(a.Layout.DescriptorPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s is not installed", manifest.ErrVersionNotFound, id)
		}
		return nil, err
	}
	return manifest.ParseDescriptor(data)
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/handiism/mixlauncher/internal/config"
	"github.com/handiism/mixlauncher/internal/ctxlog"
	"github.com/handiism/mixlauncher/internal/launcher"
	"github.com/handiism/mixlauncher/internal/model"
	"github.com/handiism/mixlauncher/internal/modrinth"
	"github.com/handiism/mixlauncher/internal/session"
)

func usage() {
	fmt.Println("MixLauncher - install and launch game versions, loaders and mods")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  mixlaunch [-config file] [-verbose] <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  versions [-all]                          list catalog versions")
	fmt.Println("  install <version>                        download a version")
	fmt.Println("  installed                                list installed versions")
	fmt.Println("  loader <fabric|quilt|forge> <version>    install a mod loader")
	fmt.Println("  search <query> [options]                 search the mod registry")
	fmt.Println("  mod <project> [-profile name]            install a mod and its dependencies")
	fmt.Println("  profile create|list|delete               manage content profiles")
	fmt.Println("  launch [version] [options]               start the game")
	fmt.Println()
	fmt.Println("For the interactive installer, use: mixlaunch-tui")
	fmt.Println()
	flag.PrintDefaults()
}

func main() {
	var (
		configFlag  = flag.String("config", "", "Path to config file (JSON or YAML)")
		verboseFlag = flag.Bool("verbose", false, "Show debug logging")
	)
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(1)
	}

	// Load config
	settings := config.DefaultSettings()
	if *configFlag != "" {
		var err error
		settings, err = config.Load(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	level := settings.LogLevel
	if *verboseFlag {
		level = "debug"
	}
	logger := ctxlog.New(level, settings.LogFormat, os.Stderr)

	// Handle interrupts
	ctx, cancel := context.WithCancel(ctxlog.WithLogger(context.Background(), logger))
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, cancelling...")
		cancel()
	}()

	core, err := launcher.New(ctx, settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cli := &cli{ctx: ctx, core: core, settings: settings}
	err = cli.dispatch(flag.Arg(0), flag.Args()[1:])
	core.Close()

	if err != nil {
		if ctx.Err() != nil {
			fmt.Println("Cancelled.")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type cli struct {
	ctx      context.Context
	core     *launcher.Core
	settings *config.Settings
}

func (c *cli) dispatch(cmd string, args []string) error {
	switch cmd {
	case "versions":
		return c.versions(args)
	case "install":
		return c.install(args)
	case "installed":
		return c.installed()
	case "loader":
		return c.loader(args)
	case "search":
		return c.search(args)
	case "mod":
		return c.mod(args)
	case "profile":
		return c.profile(args)
	case "launch":
		return c.launch(args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// await prints events until op finishes, then drains what is left.
func (c *cli) await(op *launcher.Operation, handle func(launcher.Event)) error {
	stop := context.AfterFunc(c.ctx, op.Cancel)
	defer stop()

	events := c.core.Events()
	for {
		select {
		case ev := <-events:
			handle(ev)
		case <-op.Done():
			for {
				select {
				case ev := <-events:
					handle(ev)
				default:
					return op.Wait()
				}
			}
		}
	}
}

func printProgress(ev launcher.Event) {
	switch ev := ev.(type) {
	case launcher.Progress:
		if ev.Total > 0 {
			fmt.Printf("\r   %d/%d files  %.2f MB  %-40.40s", ev.Done, ev.Total, float64(ev.Bytes)/1024/1024, ev.File)
		}
	case launcher.InstallFinished:
		fmt.Println()
		if ev.OK {
			fmt.Printf("✓ %s: %s\n", ev.VersionID, ev.Message)
		} else {
			fmt.Printf("✗ %s: %s\n", ev.VersionID, ev.Message)
		}
	case launcher.OperationFailed:
		fmt.Printf("✗ %s failed: %v\n", ev.Op, ev.Err)
	}
}

func (c *cli) versions(args []string) error {
	fs := flag.NewFlagSet("versions", flag.ExitOnError)
	all := fs.Bool("all", false, "Include snapshots and old versions")
	fs.Parse(args)

	return c.await(c.core.FetchCatalog(), func(ev launcher.Event) {
		ready, ok := ev.(launcher.CatalogReady)
		if !ok {
			return
		}
		for _, v := range ready.Versions {
			if !*all && v.Kind != model.KindRelease {
				continue
			}
			fmt.Printf("%-24s %s\n", v.ID, v.Kind)
		}
	})
}

func (c *cli) install(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: install <version>")
	}
	fmt.Printf("📥 Installing %s\n", args[0])
	return c.await(c.core.Install(args[0]), printProgress)
}

func (c *cli) installed() error {
	ids, err := c.core.InstalledVersions()
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func (c *cli) loader(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: loader <fabric|quilt|forge> <version>")
	}
	kind, ok := model.ParseLoaderKind(args[0])
	if !ok || kind == model.LoaderVanilla {
		return fmt.Errorf("unknown loader %q", args[0])
	}

	return c.await(c.core.InstallLoader(kind, args[1]), func(ev launcher.Event) {
		if ev, ok := ev.(launcher.LoaderInstalled); ok && ev.OK {
			fmt.Printf("✓ %s installed as %s\n", ev.Loader, ev.VersionID)
		}
	})
}

func (c *cli) search(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	loaderFlag := fs.String("loader", "", "Loader category: fabric, quilt or forge")
	versionFlag := fs.String("version", "", "Game version")
	typeFlag := fs.String("type", "mod", "Project type")
	iconsFlag := fs.Bool("icons", false, "Cache project icons")
	fs.Parse(args)

	kind, ok := model.ParseLoaderKind(*loaderFlag)
	if !ok {
		return fmt.Errorf("unknown loader %q", *loaderFlag)
	}
	q := modrinth.Query{
		Text:        strings.Join(fs.Args(), " "),
		GameVersion: *versionFlag,
		Loader:      kind,
		ProjectType: *typeFlag,
	}

	var hits []model.ModSearchResult
	err := c.await(c.core.SearchMods(q), func(ev launcher.Event) {
		if res, ok := ev.(launcher.SearchResults); ok {
			hits = res.Results
		}
	})
	if err != nil {
		return err
	}

	for _, h := range hits {
		fmt.Printf("%-12s %-32.32s %s\n", h.ProjectID, h.Title, h.Author)
		if *iconsFlag {
			if path, err := c.core.Icon(c.ctx, h); err == nil {
				fmt.Printf("             icon: %s\n", path)
			}
		}
	}
	return nil
}

func (c *cli) mod(args []string) error {
	fs := flag.NewFlagSet("mod", flag.ExitOnError)
	profileFlag := fs.String("profile", "", "Target profile")
	loaderFlag := fs.String("loader", "", "Loader, when no profile is given")
	versionFlag := fs.String("version", "", "Game version, when no profile is given")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: mod [-profile name] <project>")
	}
	var kind model.LoaderKind
	if *loaderFlag != "" {
		var ok bool
		if kind, ok = model.ParseLoaderKind(*loaderFlag); !ok {
			return fmt.Errorf("unknown loader %q", *loaderFlag)
		}
	}

	req := launcher.ModRequest{ProjectID: fs.Arg(0), Profile: *profileFlag, Loader: kind, GameVersion: *versionFlag}
	return c.await(c.core.InstallMod(req), func(ev launcher.Event) {
		switch ev := ev.(type) {
		case launcher.DependenciesFound:
			if len(ev.Deps) > 0 {
				fmt.Printf("   %s requires %d dependencies\n", ev.Parent, len(ev.Deps))
			}
		case launcher.ModInstalled:
			mark := "✓"
			if !ev.OK {
				mark = "✗"
			}
			fmt.Printf("%s %s\n", mark, ev.Name)
		}
	})
}

func (c *cli) profile(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: profile create|list|delete")
	}

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("profile create", flag.ExitOnError)
		loaderFlag := fs.String("loader", "vanilla", "Loader")
		fs.Parse(args[1:])
		if fs.NArg() != 2 {
			return errors.New("usage: profile create [-loader kind] <name> <version>")
		}
		kind, ok := model.ParseLoaderKind(*loaderFlag)
		if !ok {
			return fmt.Errorf("unknown loader %q", *loaderFlag)
		}
		p, err := c.core.CreateProfile(fs.Arg(0), fs.Arg(1), kind)
		if err != nil {
			return err
		}
		fmt.Printf("✓ created %s (%s %s) at %s\n", p.Name, p.Loader, p.GameVersion, p.ModsPath)

	case "list":
		for _, p := range c.core.Profiles() {
			fmt.Printf("%-20s %-8s %-10s %s\n", p.Name, p.Loader, p.GameVersion, p.ModsPath)
		}

	case "delete":
		if len(args) != 2 {
			return errors.New("usage: profile delete <name>")
		}
		return c.core.DeleteProfile(args[1])

	default:
		return fmt.Errorf("unknown profile command %q", args[0])
	}
	return nil
}

func (c *cli) launch(args []string) error {
	fs := flag.NewFlagSet("launch", flag.ExitOnError)
	memoryFlag := fs.Int("memory", c.settings.MemoryMB, "Maximum heap in MB")
	profileFlag := fs.String("profile", "", "Profile to launch")
	userFlag := fs.String("user", "Player", "Player name")
	uuidFlag := fs.String("uuid", "", "Player UUID for online play")
	tokenFlag := fs.String("token", "", "Access token for online play")
	agentFlag := fs.String("authlib", "", "Path to authlib-injector jar")
	serverFlag := fs.String("authlib-server", "", "Authentication server for authlib-injector")
	fs.Parse(args)

	if fs.NArg() == 0 && *profileFlag == "" {
		return errors.New("usage: launch [-profile name] [version]")
	}

	identity := session.Offline(*userFlag)
	if *uuidFlag != "" {
		identity = session.Online(*userFlag, *uuidFlag, *tokenFlag)
	}
	identity = identity.WithAuthlibInjector(*agentFlag, *serverFlag)

	req := launcher.LaunchRequest{
		VersionID: fs.Arg(0),
		MemoryMB:  *memoryFlag,
		Profile:   *profileFlag,
		Identity:  identity,
	}
	return c.await(c.core.Launch(req), func(ev launcher.Event) {
		switch ev := ev.(type) {
		case launcher.LaunchStarted:
			fmt.Printf("🚀 Launching %s\n", ev.VersionID)
		case launcher.LaunchExited:
			fmt.Printf("Game exited with code %d\n", ev.Code)
		}
	})
}

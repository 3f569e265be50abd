// Package modrinth talks to the Modrinth registry and installs packages
// with their required dependencies.
//
// # Searching
//
//	client := modrinth.NewClient("https://api.modrinth.com/v2", httpClient)
//	hits, err := client.Search(ctx, modrinth.Query{
//	    Text:        "sodium",
//	    GameVersion: "1.20.1",
//	    Loader:      model.LoaderFabric,
//	})
//
// # Installing
//
// The Installer picks the first compatible release, installs its required
// dependencies depth-first, then downloads the release's primary file into
// the mods directory. Files that already exist are not downloaded again.
//
//	installer := modrinth.NewInstaller(client, filesClient, modrinth.Hooks{
//	    OnInstalled: func(name string, ok bool) { fmt.Println(name, ok) },
//	})
//	report := installer.Install(ctx, modrinth.Request{
//	    ProjectID:   "AANobbMI",
//	    Loader:      model.LoaderFabric,
//	    GameVersion: "1.20.1",
//	    ModsDir:     modsDir,
//	})
//
// Every project is visited once per Install call.
//
// # Icons
//
// IconCache keeps 64×64 PNG thumbnails of project icons.
package modrinth

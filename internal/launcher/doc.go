// Package launcher is the facade the binaries talk to.
//
// A Core owns one download pool, one manifest resolver, the loader
// installers and the registry client. Each outward operation runs in the
// background on a bounded executor and returns an *Operation handle that can
// be waited on or cancelled. Results and progress are published as typed
// values on Core.Events:
//
//	core, err := launcher.New(ctx, settings)
//	op := core.Install("1.20.1")
//	for ev := range core.Events() {
//		switch ev := ev.(type) {
//		case launcher.Progress:
//			fmt.Printf("%d/%d %s\n", ev.Done, ev.Total, ev.File)
//		case launcher.InstallFinished:
//			...
//		}
//	}
package launcher

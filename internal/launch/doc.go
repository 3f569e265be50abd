// Package launch assembles and runs the game command line.
//
// The Assembler reads installed descriptors from the local layout and
// produces a Command:
//
//	java -Xmx<mem>M -Xms512M -Djava.library.path=<natives> [agent flags]
//	     -cp <classpath> <mainClass>
//	     --username <name> --uuid <uuid> --accessToken <token|0>
//	     --version <id> --gameDir <dir> --assetsDir <dir> --assetIndex <id>
//
// The classpath uses the platform list separator. A player identity is
// required; launching without one fails with session.ErrNoIdentity.
//
// Loader-installed versions are found on disk with ResolveVersionID.
package launch

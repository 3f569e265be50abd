// Package manifest resolves game versions into download plans.
//
// It understands three remote document kinds, all decoded into typed
// structs:
//
//   - the version catalog (version_manifest_v2.json)
//   - per-version descriptors, including loader profiles that inherit from
//     a base version
//   - asset indexes mapping logical asset names to content hashes
//
// A required field that is missing yields a *ParseError, which matches
// ErrParse.
//
// # Platform Rules
//
// Libraries may carry allow/disallow rules. Allowed evaluates them in order,
// the last matching rule wins, and a library with no matching rule is
// allowed.
//
// # Coordinates
//
// Symbolic library names translate to repository paths:
//
//	manifest.CoordinatePath("net.fabricmc:fabric-loader:0.15.0")
//	// net/fabricmc/fabric-loader/0.15.0/fabric-loader-0.15.0.jar
//
// # Resolving
//
//	resolver := manifest.NewResolver(opts, client, layout.New(root))
//	versions, err := resolver.FetchCatalog(ctx)
//	plan, err := resolver.Resolve(ctx, "1.20.1")
//	// plan.Tasks: client jar, libraries, asset index, asset objects
package manifest

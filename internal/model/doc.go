// Package model defines the data structures shared across the launcher.
//
// # Core Types
//
//   - Task: one artifact to download, with optional digest and size
//   - VersionEntry: one row of the remote version catalog
//   - ModProfile: a named content profile with its own mods directory
//   - PackageDependency: a dependency declared by a registry release
//   - ModSearchResult: one registry search hit
//
// # Loaders
//
// LoaderKind enumerates the supported mod loaders:
//
//	kind, ok := model.ParseLoaderKind("Fabric") // LoaderFabric, true
//
// # Version Kinds
//
// Catalog entries are classified with ParseVersionKind; anything that is not
// a release or snapshot (old_beta, old_alpha) is KindOther.
package model

// Package loader installs mod loaders on top of an installed game version.
//
// Fabric and Quilt publish launch profiles through a metadata service; the
// profile is stored as an inheriting version descriptor and its libraries
// are fetched from maven. Forge is installed by running its installer jar
// in a subprocess.
package loader

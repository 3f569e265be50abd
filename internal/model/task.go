package model

// Task is one artifact to fetch into the local layout.
//
// A Task is immutable once created; the download orchestrator treats it as a
// value. SHA1 and Size are optional: an empty digest disables verification
// and a zero size disables the length check.
//
// Example:
//
//	task := model.Task{
//	    URL:  "https://piston-data.mojang.com/v1/objects/84194a.../client.jar",
//	    Dest: "/home/me/.minecraftmix/versions/1.20.1/1.20.1.jar",
//	    SHA1: "84194a2f286ef7c14ed7ce0090dba59902951553",
//	    Size: 23028150,
//	}
type Task struct {
	// URL is the remote location of the artifact.
	URL string

	// Dest is the absolute local path the artifact is written to.
	Dest string

	// SHA1 is the expected lowercase hex digest. Empty means unverified.
	SHA1 string

	// Size is the expected length in bytes. Zero means unknown.
	Size int64

	// Retries is how many extra attempts a network failure is allowed.
	// Zero disables retrying.
	Retries int
}

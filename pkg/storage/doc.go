// Package storage manages the output directory tree.
//
// The storage package handles:
//   - Creating the per-gallery directory hierarchy under the output root
//   - Existence checks that make reruns skip already-downloaded images
//   - Writing JSON and HTML sidecar files atomically
//
// Sidecars are committed through a temporary file and rename so a
// partially written file is never left at the destination path. Image
// payloads are committed the same way by the download client; the
// manager only answers where files belong and whether they are already
// present.
//
// Usage:
//
//	manager, err := storage.NewManager(cfg.Output.RootDirectory, cfg.Output.Overwrite, log)
//	if err != nil {
//	    return err
//	}
//
//	dir, err := manager.EnsureDir("bob (7)", "Beach Day (42)")
//	if err != nil {
//	    return err
//	}
//	dest := filepath.Join(dir, "111.jpg")
//	if !manager.ShouldSkip(dest) {
//	    // hand dest to the download client
//	}
package storage

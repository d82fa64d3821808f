// Package scraper walks download targets and saves every image they
// lead to.
//
// The Scraper is the orchestration layer: it classifies each start URL,
// recursively resolves folders to galleries and galleries to full-size
// images, and hands the downloads to the site client's paced queues.
//
// Traversal:
//
// Targets are processed sequentially. A folder is collected page by
// page before its galleries run; a gallery is assembled in two phases
// (listing pages for the photo links and metadata, image-nav partials
// for the full-size sources) and then downloaded with one concurrent
// fan-out per gallery.
//
// Failure handling:
//
// A failing gallery is logged and counted, and its siblings continue.
// A folder whose first page cannot be fetched fails the whole target;
// later pages are forgiven and the partial folder is kept. Only fatal
// errors, such as an anti-automation challenge, unwind the entire run.
//
// Usage:
//
//	cfg := config.DefaultConfig()
//	cfg.Output.RootDirectory = "./downloads"
//
//	s, err := scraper.New(cfg, log)
//	if err != nil {
//	    log.Fatal(err.Error())
//	}
//
//	stats, err := s.Run(ctx, []string{
//	    "https://www.imagefap.com/gallery/424242/Beach-Day",
//	})
//
// Layout:
//
// Images land under the output root in up to four nested directories,
// in fixed order: uploader or owner, a "Favorites" label, the enclosing
// folder, and the gallery, each of which can be switched off. Files
// already present are skipped, so an interrupted run can simply be
// started again.
package scraper

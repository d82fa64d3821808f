// Package imagefap provides the site layer: target URL classification,
// typed page models, a rate-limited HTTP client, and pure HTML
// extractors for every page kind the downloader visits.
//
// This package includes:
//   - ClassifyTarget, mapping a start URL to its page kind
//   - A client that serializes page fetches and bounds image downloads
//     behind two paced queues, with session bootstrap and challenge
//     detection
//   - Extractors turning fetched markup into folder, gallery, and
//     image records
//
// Example usage:
//
//	client, err := imagefap.NewClient(&cfg.Request, log)
//	if err != nil {
//	    return err
//	}
//	client.Start(ctx)
//	defer client.Close()
//
//	target, err := imagefap.ClassifyTarget("https://www.imagefap.com/gallery/42")
//	if err != nil {
//	    return err // not a recognized page URL
//	}
//
//	body, finalURL, err := client.FetchPage(ctx, target.URL)
//	if err != nil {
//	    return err
//	}
//	page, err := imagefap.ExtractGalleryPage(body, finalURL)
package imagefap

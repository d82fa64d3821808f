package scraper

import (
	"context"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	errs "github.com/patrickkfkan/imagefap-dl/pkg/errors"
	"github.com/patrickkfkan/imagefap-dl/pkg/imagefap"
)

// collectImages resolves photo links to full-size images by walking the
// image-nav partial pages. Each request returns a batch of entries; the
// walk advances idx by the full batch size, re-anchors the referrer on
// the last parsed image, and stops on an empty batch or once every link
// is accounted for. An entry that cannot be parsed is counted and left
// out, never halting the walk.
func (s *Scraper) collectImages(ctx context.Context, links []imagefap.ImageLink, galleryID string, stats *Stats) ([]*imagefap.Image, error) {
	if len(links) == 0 {
		return nil, nil
	}

	var images []*imagefap.Image
	seen := make(map[string]bool)
	referrer := links[0].ID
	idx := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		navURL := imagefap.ImageNavURL(referrer, galleryID, idx)
		body, finalURL, err := s.client.FetchPage(ctx, navURL)
		if err != nil {
			return nil, err
		}
		batch, err := imagefap.ExtractImageNavPage(body, finalURL)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		for _, img := range batch {
			if img == nil {
				stats.Errors.Add(1)
				s.logger.WarnWithFields("nav entry could not be parsed", map[string]interface{}{
					"url": navURL,
				})
				continue
			}
			if seen[img.ID] {
				continue
			}
			seen[img.ID] = true
			images = append(images, img)
			referrer = img.ID
		}

		idx += len(batch)
		if len(images) >= len(links) {
			break
		}
	}

	return images, nil
}

// fetchFullTitles visits each photo page to pick up the untruncated
// image title. A page that fails to load or parse costs that one link
// its full title, nothing more.
func (s *Scraper) fetchFullTitles(ctx context.Context, links []imagefap.ImageLink, stats *Stats) error {
	for i := range links {
		if err := ctx.Err(); err != nil {
			return err
		}

		body, _, err := s.client.FetchPage(ctx, links[i].URL)
		if err != nil {
			if errs.IsFatal(err) {
				return err
			}
			stats.Errors.Add(1)
			s.logger.WarnWithFields("failed to fetch photo page for full title", map[string]interface{}{
				"url":   links[i].URL,
				"error": err.Error(),
			})
			continue
		}

		title, err := imagefap.ExtractFullImageTitle(body)
		if err != nil {
			stats.Errors.Add(1)
			s.logger.WarnWithFields("failed to extract full title", map[string]interface{}{
				"url":   links[i].URL,
				"error": err.Error(),
			})
			continue
		}
		links[i].FullTitle = title
	}
	return nil
}

// mergeTitles prefers the titles collected from the listing pages (or
// the full titles from the photo pages) over the truncated ones on the
// nav partials.
func mergeTitles(images []*imagefap.Image, links []imagefap.ImageLink) {
	titles := make(map[string]string, len(links))
	for _, link := range links {
		title := link.Title
		if link.FullTitle != "" {
			title = link.FullTitle
		}
		if title != "" {
			titles[link.ID] = title
		}
	}

	for _, img := range images {
		if title, ok := titles[img.ID]; ok {
			img.Title = title
		}
	}
}

// downloadImages fans one gallery's downloads out onto the image queue
// and waits for all of them. Existing files are skipped before anything
// is queued. An individual download failure is counted and logged
// without failing the gallery; a fatal error cancels the rest.
func (s *Scraper) downloadImages(ctx context.Context, dir string, images []*imagefap.Image, stats *Stats) error {
	g, gctx := errgroup.WithContext(ctx)

	for i, img := range images {
		img := img
		dest := filepath.Join(dir, imageFilename(img, i, s.config.Output.SeqFilenames))
		if s.storage.ShouldSkip(dest) {
			stats.SkippedExistingImages.Add(1)
			s.logger.DebugWithFields("image already downloaded, skipping", map[string]interface{}{
				"path": dest,
			})
			continue
		}

		g.Go(func() error {
			err := s.client.DownloadImage(gctx, img.Src, dest)
			if err == nil {
				stats.DownloadedImages.Add(1)
				return nil
			}
			if errs.IsFatal(err) {
				return err
			}
			stats.Errors.Add(1)
			s.logger.ErrorWithFields("image download failed", map[string]interface{}{
				"src":   img.Src,
				"error": err.Error(),
			})
			return nil
		})
	}

	return g.Wait()
}

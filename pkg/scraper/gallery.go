package scraper

import (
	"context"
	"path/filepath"

	errs "github.com/patrickkfkan/imagefap-dl/pkg/errors"
	"github.com/patrickkfkan/imagefap-dl/pkg/imagefap"
)

// processGallery assembles one gallery and downloads its images. Phase
// one walks the listing pages, collecting the photo links and the
// gallery metadata; phase two resolves each link to its full-size
// source through the image-nav partials.
func (s *Scraper) processGallery(ctx context.Context, galleryURL string, dctx DownloadContext, stats *Stats) error {
	gallery, rawHTML, err := s.fetchGallery(ctx, galleryURL, stats)
	if err != nil {
		return err
	}
	return s.downloadGallery(ctx, gallery, rawHTML, dctx, stats)
}

// fetchGallery runs both phases and returns the assembled gallery along
// with the raw HTML of its first listing page. Continuation pages get
// the same forgiving treatment as folder listings: once the first page
// is in, a failing page keeps the links collected so far.
func (s *Scraper) fetchGallery(ctx context.Context, galleryURL string, stats *Stats) (*imagefap.Gallery, string, error) {
	var (
		gallery   *imagefap.Gallery
		firstHTML string
		links     []imagefap.ImageLink
	)
	seen := make(map[string]bool)

	pageURL := galleryURL
	for pageURL != "" {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		body, finalURL, err := s.client.FetchPage(ctx, pageURL)
		var page *imagefap.GalleryPage
		if err == nil {
			page, err = imagefap.ExtractGalleryPage(body, finalURL)
		}
		if err != nil {
			if errs.IsFatal(err) || gallery == nil {
				return nil, "", err
			}
			stats.Errors.Add(1)
			s.logger.WarnWithFields("gallery page failed, keeping what was collected", map[string]interface{}{
				"url":   pageURL,
				"error": err.Error(),
			})
			break
		}

		if gallery == nil {
			firstHTML = body
			gallery = &imagefap.Gallery{
				URL:         galleryURL,
				ID:          page.ID,
				Title:       page.Title,
				Description: page.Description,
				Uploader:    page.Uploader,
			}
		}

		for _, link := range page.ImageLinks {
			if seen[link.ID] {
				continue
			}
			seen[link.ID] = true
			links = append(links, link)
		}

		pageURL = page.NextURL
	}

	s.logger.InfoWithFields("gallery collected", map[string]interface{}{
		"gallery": gallerySegment(gallery.Title, gallery.ID),
		"images":  len(links),
	})

	if s.config.Output.FullFilenames {
		if err := s.fetchFullTitles(ctx, links, stats); err != nil {
			return nil, "", err
		}
	}

	images, err := s.collectImages(ctx, links, gallery.ID, stats)
	if err != nil {
		return nil, "", err
	}
	mergeTitles(images, links)
	gallery.Images = images

	return gallery, firstHTML, nil
}

// downloadGallery writes the sidecar files and fans out the downloads.
// Sidecar write failures are counted but do not fail the gallery; the
// gallery counts as processed once its downloads have settled.
func (s *Scraper) downloadGallery(ctx context.Context, gallery *imagefap.Gallery, rawHTML string, dctx DownloadContext, stats *Stats) error {
	dir, err := s.storage.EnsureDir(galleryDirSegments(gallery, dctx, s.pathOptions())...)
	if err != nil {
		return err
	}

	if s.config.Output.WriteJSON {
		if err := s.storage.WriteJSON(filepath.Join(dir, "gallery.json"), gallery); err != nil {
			stats.Errors.Add(1)
			s.logger.WarnWithFields("failed to write gallery.json", map[string]interface{}{
				"dir":   dir,
				"error": err.Error(),
			})
		}
	}
	if s.config.Output.WriteHTML && rawHTML != "" {
		if err := s.storage.WriteFile(filepath.Join(dir, "gallery.html"), []byte(rawHTML)); err != nil {
			stats.Errors.Add(1)
			s.logger.WarnWithFields("failed to write gallery.html", map[string]interface{}{
				"dir":   dir,
				"error": err.Error(),
			})
		}
	}

	if err := s.downloadImages(ctx, dir, gallery.Images, stats); err != nil {
		return err
	}

	stats.ProcessedGalleries.Add(1)
	s.logger.InfoWithFields("gallery processed", map[string]interface{}{
		"gallery": gallerySegment(gallery.Title, gallery.ID),
		"dir":     dir,
		"images":  len(gallery.Images),
	})
	return nil
}

package scraper

import (
	"context"
	"path/filepath"

	errs "github.com/patrickkfkan/imagefap-dl/pkg/errors"
	"github.com/patrickkfkan/imagefap-dl/pkg/imagefap"
)

// processOverview fetches a galleries or favorites overview page and
// walks every folder linked from it, sequentially. The overview has no
// per-folder recovery of its own: a folder failure propagates to the
// target boundary.
func (s *Scraper) processOverview(ctx context.Context, pageURL string, favorites bool, stats *Stats) error {
	body, finalURL, err := s.client.FetchPage(ctx, pageURL)
	if err != nil {
		return err
	}

	links, err := imagefap.ExtractFolderLinks(body, finalURL)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		s.logger.WarnWithFields("no folders found", map[string]interface{}{
			"url": pageURL,
		})
		return nil
	}

	s.logger.InfoWithFields("found folders", map[string]interface{}{
		"url":     pageURL,
		"folders": len(links),
	})

	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.processFolder(ctx, link.URL, DownloadContext{InFavorites: favorites}, stats); err != nil {
			return err
		}
	}
	return nil
}

// processFolder walks one folder: every listing page is fetched first
// and the contents accumulated, then the galleries (or, for a favorites
// folder holding loose images, the images themselves) are processed.
//
// Only the first listing page is load-bearing. Once a partial folder
// exists, a failing continuation page is logged and counted and the
// contents collected so far are kept.
func (s *Scraper) processFolder(ctx context.Context, folderURL string, dctx DownloadContext, stats *Stats) error {
	var folder *imagefap.Folder
	seenGalleries := make(map[string]bool)
	seenImages := make(map[string]bool)

	pageURL := folderURL
	for pageURL != "" {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := s.fetchFolderPage(ctx, pageURL)
		if err != nil {
			if errs.IsFatal(err) || folder == nil {
				return err
			}
			stats.Errors.Add(1)
			s.logger.WarnWithFields("folder page failed, keeping what was collected", map[string]interface{}{
				"url":   pageURL,
				"error": err.Error(),
			})
			break
		}

		if folder == nil {
			if page.PasswordProtected {
				name := folderSegment(page.Title, page.ID)
				stats.AddPasswordProtectedFolder(name)
				s.logger.WarnWithFields("folder is password protected, skipping", map[string]interface{}{
					"url":    folderURL,
					"folder": name,
				})
				return nil
			}
			folder = &imagefap.Folder{
				URL:   folderURL,
				ID:    page.ID,
				Title: page.Title,
				Owner: page.Owner,
			}
		}

		for _, link := range page.Galleries {
			if seenGalleries[link.URL] {
				continue
			}
			seenGalleries[link.URL] = true
			folder.Galleries = append(folder.Galleries, link)
		}
		for _, link := range page.ImageLinks {
			if seenImages[link.ID] {
				continue
			}
			seenImages[link.ID] = true
			folder.ImageLinks = append(folder.ImageLinks, link)
		}

		pageURL = page.NextURL
	}

	dctx.Folder = folder
	s.logger.InfoWithFields("folder collected", map[string]interface{}{
		"folder":    folderSegment(folder.Title, folder.ID),
		"galleries": len(folder.Galleries),
		"images":    len(folder.ImageLinks),
	})

	if len(folder.ImageLinks) > 0 {
		if err := s.processFolderImages(ctx, folder, dctx, stats); err != nil {
			return err
		}
	}

	for _, link := range folder.Galleries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.processGallery(ctx, link.URL, dctx, stats); err != nil {
			if errs.IsFatal(err) {
				return err
			}
			stats.Errors.Add(1)
			s.logger.ErrorWithFields("gallery failed, moving on", map[string]interface{}{
				"url":   link.URL,
				"error": err.Error(),
			})
		}
	}
	return nil
}

func (s *Scraper) fetchFolderPage(ctx context.Context, pageURL string) (*imagefap.FolderPage, error) {
	body, finalURL, err := s.client.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return imagefap.ExtractFolderPage(body, finalURL)
}

// processFolderImages downloads images that sit directly inside a
// favorites folder, outside any gallery. The image pipeline is the same
// one galleries use, keyed by the folder id, and the folder metadata is
// written as favorites.json next to the images.
func (s *Scraper) processFolderImages(ctx context.Context, folder *imagefap.Folder, dctx DownloadContext, stats *Stats) error {
	links := folder.ImageLinks
	if s.config.Output.FullFilenames {
		if err := s.fetchFullTitles(ctx, links, stats); err != nil {
			return err
		}
	}

	images, err := s.collectImages(ctx, links, folder.ID, stats)
	if err != nil {
		return err
	}
	mergeTitles(images, links)

	dir, err := s.storage.EnsureDir(folderDirSegments(folder, dctx.InFavorites, s.pathOptions())...)
	if err != nil {
		return err
	}

	if s.config.Output.WriteJSON {
		if err := s.storage.WriteJSON(filepath.Join(dir, "favorites.json"), folder); err != nil {
			stats.Errors.Add(1)
			s.logger.WarnWithFields("failed to write favorites.json", map[string]interface{}{
				"dir":   dir,
				"error": err.Error(),
			})
		}
	}

	if err := s.downloadImages(ctx, dir, images, stats); err != nil {
		return err
	}

	stats.ProcessedGalleries.Add(1)
	s.logger.InfoWithFields("folder images processed", map[string]interface{}{
		"folder": folderSegment(folder.Title, folder.ID),
		"images": len(images),
	})
	return nil
}

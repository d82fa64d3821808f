package scraper

import (
	"context"
	"fmt"

	"github.com/patrickkfkan/imagefap-dl/pkg/config"
	errs "github.com/patrickkfkan/imagefap-dl/pkg/errors"
	"github.com/patrickkfkan/imagefap-dl/pkg/imagefap"
	"github.com/patrickkfkan/imagefap-dl/pkg/logger"
	"github.com/patrickkfkan/imagefap-dl/pkg/storage"
)

// Scraper walks download targets and saves every image they lead to.
// One Scraper handles a whole run; targets are processed sequentially
// while image downloads inside a gallery fan out concurrently.
type Scraper struct {
	client  *imagefap.Client
	storage *storage.Manager
	config  *config.Config
	logger  logger.Logger
}

// New creates a Scraper from the configuration, wiring up the site
// client and the storage layer.
func New(cfg *config.Config, log logger.Logger) (*Scraper, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	client, err := imagefap.NewClient(&cfg.Request, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	store, err := storage.NewManager(cfg.Output.RootDirectory, cfg.Output.Overwrite, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	return &Scraper{
		client:  client,
		storage: store,
		config:  cfg,
		logger:  log,
	}, nil
}

// Client returns the underlying site client, mainly so tests can point
// it at a stub server.
func (s *Scraper) Client() *imagefap.Client {
	return s.client
}

// Run processes each target URL in order and returns the combined
// stats. A failing target is logged and counted, and its siblings still
// run; only a fatal error (or cancellation) aborts the loop early. The
// returned stats are valid either way.
func (s *Scraper) Run(ctx context.Context, rawURLs []string) (*Stats, error) {
	total := NewStats()
	if len(rawURLs) == 0 {
		return total, errs.New(errs.KindInvalidURL, "no target URLs given")
	}

	s.client.Start(ctx)
	defer s.client.Close()

	for _, raw := range rawURLs {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		stats := NewStats()
		err := s.processTarget(ctx, raw, stats)
		total.Merge(stats)
		if err == nil {
			continue
		}
		if errs.IsFatal(err) {
			s.logger.ErrorWithFields("aborting run", map[string]interface{}{
				"url":   raw,
				"error": err.Error(),
			})
			return total, err
		}

		total.Errors.Add(1)
		s.logger.ErrorWithFields("target failed", map[string]interface{}{
			"url":   raw,
			"error": err.Error(),
		})
	}

	return total, nil
}

// processTarget classifies one URL and hands it to the matching walk.
func (s *Scraper) processTarget(ctx context.Context, rawURL string, stats *Stats) error {
	target, err := imagefap.ClassifyTarget(rawURL)
	if err != nil {
		return err
	}

	s.logger.InfoWithFields("processing target", map[string]interface{}{
		"url":  target.URL,
		"kind": string(target.Kind),
	})

	switch target.Kind {
	case imagefap.TargetUserGalleries:
		return s.processOverview(ctx, target.URL, false, stats)
	case imagefap.TargetFavorites:
		return s.processOverview(ctx, target.URL, true, stats)
	case imagefap.TargetGalleryFolder:
		return s.processFolder(ctx, target.URL, DownloadContext{}, stats)
	case imagefap.TargetFavoritesFolder:
		return s.processFolder(ctx, target.URL, DownloadContext{InFavorites: true}, stats)
	case imagefap.TargetGallery:
		return s.processGallery(ctx, target.URL, DownloadContext{}, stats)
	case imagefap.TargetPhoto:
		return s.processPhoto(ctx, target.URL, stats)
	default:
		return errs.InvalidURL(rawURL)
	}
}

// processPhoto resolves a single photo page to its parent gallery and
// processes that gallery in full.
func (s *Scraper) processPhoto(ctx context.Context, photoURL string, stats *Stats) error {
	body, finalURL, err := s.client.FetchPage(ctx, photoURL)
	if err != nil {
		return err
	}

	galleryURL, err := imagefap.ExtractPhotoGalleryURL(body, finalURL)
	if err != nil {
		return err
	}

	s.logger.DebugWithFields("resolved photo to gallery", map[string]interface{}{
		"photo_url":   photoURL,
		"gallery_url": galleryURL,
	})
	return s.processGallery(ctx, galleryURL, DownloadContext{}, stats)
}

func (s *Scraper) pathOptions() pathOptions {
	out := s.config.Output
	return pathOptions{
		uploaderDir:  out.UploaderDir,
		favoritesDir: out.FavoritesDir,
		folderDir:    out.FolderDir,
		galleryDir:   out.GalleryDir,
	}
}

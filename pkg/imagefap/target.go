package imagefap

import (
	"net/url"
	"regexp"
	"strings"

	errs "github.com/patrickkfkan/imagefap-dl/pkg/errors"
)

var (
	reProfileGalleries = regexp.MustCompile(`^/profile/[^/]+/galleries/?$`)
	reOrganizer        = regexp.MustCompile(`^/organizer/\d+(?:/|$)`)
	reGalleryPath      = regexp.MustCompile(`^/gallery/\d+(?:/|$)`)
	// Anonymous galleries use a hash instead of a numeric id here.
	rePicturesPath = regexp.MustCompile(`^/pictures/[^/]+(?:/|$)`)
	rePhotoPath    = regexp.MustCompile(`^/photo/\d+(?:/|$)`)
)

// ClassifyTarget decides what kind of page rawURL points at. Patterns
// are checked in a fixed order because some are prefixes of others: a
// galleries overview with a folderid parameter is that one folder, not
// the whole overview, and likewise for favorites.
func ClassifyTarget(rawURL string) (*Target, error) {
	raw := strings.TrimSpace(rawURL)
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errs.InvalidURL(rawURL)
	}
	if u.Host == "" && u.Scheme == "" {
		// Bare "www.imagefap.com/..." input.
		u, err = url.Parse("https://" + raw)
		if err != nil {
			return nil, errs.InvalidURL(rawURL)
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errs.InvalidURL(rawURL)
	}
	if !IsSiteHost(u.Host) {
		return nil, errs.InvalidURL(rawURL)
	}
	path := u.Path
	if path == "" || path == "/" {
		return nil, errs.InvalidURL(rawURL)
	}

	q := u.Query()
	hasFolderID := q.Get("folderid") != ""
	userGalleries := reProfileGalleries.MatchString(path) || path == "/usergallery.php"

	var kind TargetKind
	switch {
	case userGalleries && hasFolderID:
		kind = TargetGalleryFolder
	case userGalleries:
		kind = TargetUserGalleries
	case reOrganizer.MatchString(path):
		kind = TargetGalleryFolder
	case reGalleryPath.MatchString(path),
		path == "/gallery.php" && q.Get("gid") != "",
		rePicturesPath.MatchString(path):
		kind = TargetGallery
	case rePhotoPath.MatchString(path):
		kind = TargetPhoto
	case path == "/showfavorites.php" && hasFolderID:
		kind = TargetFavoritesFolder
	case path == "/showfavorites.php":
		kind = TargetFavorites
	default:
		return nil, errs.InvalidURL(rawURL)
	}

	return &Target{URL: u.String(), Kind: kind}, nil
}

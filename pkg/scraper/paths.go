package scraper

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/flytam/filenamify"

	"github.com/patrickkfkan/imagefap-dl/pkg/imagefap"
)

// DownloadContext carries traversal state from the folder level down to
// the galleries inside it. A zero DownloadContext means the gallery was
// reached directly, outside any folder.
type DownloadContext struct {
	Folder      *imagefap.Folder
	InFavorites bool
}

// pathOptions mirrors the output layout flags. Each segment of the save
// path can be switched off independently.
type pathOptions struct {
	uploaderDir  bool
	favoritesDir bool
	folderDir    bool
	galleryDir   bool
}

// galleryDirSegments composes the directory segments for a gallery, in
// fixed order: owner, "Favorites" label, enclosing folder, gallery.
// Disabled or inapplicable segments are dropped without reordering the
// rest.
func galleryDirSegments(g *imagefap.Gallery, dctx DownloadContext, opts pathOptions) []string {
	var segments []string

	if opts.uploaderDir {
		if owner := ownerFor(g, dctx); owner != nil {
			segments = append(segments, userSegment(owner))
		}
	}
	if opts.favoritesDir && dctx.InFavorites {
		segments = append(segments, "Favorites")
	}
	if opts.folderDir && dctx.Folder != nil {
		segments = append(segments, folderSegment(dctx.Folder.Title, dctx.Folder.ID))
	}
	if opts.galleryDir {
		segments = append(segments, gallerySegment(g.Title, g.ID))
	}

	return sanitizeSegments(segments)
}

// folderDirSegments composes the directory segments for images that sit
// directly inside a folder, with no gallery level below it.
func folderDirSegments(folder *imagefap.Folder, inFavorites bool, opts pathOptions) []string {
	var segments []string

	if opts.uploaderDir && folder.Owner != nil {
		segments = append(segments, userSegment(folder.Owner))
	}
	if opts.favoritesDir && inFavorites {
		segments = append(segments, "Favorites")
	}
	if opts.folderDir {
		segments = append(segments, folderSegment(folder.Title, folder.ID))
	}

	return sanitizeSegments(segments)
}

// ownerFor picks the user whose name heads the save path: the folder
// owner when the gallery was reached through a folder, otherwise the
// gallery uploader.
func ownerFor(g *imagefap.Gallery, dctx DownloadContext) *imagefap.User {
	if dctx.Folder != nil && dctx.Folder.Owner != nil {
		return dctx.Folder.Owner
	}
	return g.Uploader
}

// userSegment renders a user as "username (id)", or the username alone
// when the numeric id is unknown.
func userSegment(u *imagefap.User) string {
	if u.ID == "" {
		return u.Username
	}
	return fmt.Sprintf("%s (%s)", u.Username, u.ID)
}

// folderSegment renders a folder as "title (id)", falling back to the
// bare id when the title is empty. Folders always have a numeric id.
func folderSegment(title, id string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return id
	}
	return fmt.Sprintf("%s (%s)", title, id)
}

// gallerySegment renders a gallery as "title (id)". Anonymous galleries
// have no numeric id and use the title alone.
func gallerySegment(title, id string) string {
	title = strings.TrimSpace(title)
	switch {
	case id == "":
		return title
	case title == "":
		return id
	default:
		return fmt.Sprintf("%s (%s)", title, id)
	}
}

// imageFilename composes the filename for a downloaded image:
// "title (id).ext", with the id standing in for a missing title and the
// extension taken from the source URL. With seq enabled the position in
// the gallery is prefixed so filenames sort in gallery order.
func imageFilename(img *imagefap.Image, index int, seq bool) string {
	base := strings.TrimSpace(img.Title)
	if base == "" {
		base = img.ID
	}

	name := fmt.Sprintf("%s (%s)%s", base, img.ID, srcExt(img.Src))
	if seq {
		name = fmt.Sprintf("%d - %s", index, name)
	}
	return sanitizeSegment(name)
}

// srcExt returns the filename extension of the source URL's path.
func srcExt(src string) string {
	u, err := url.Parse(src)
	if err != nil {
		return ""
	}
	return path.Ext(u.Path)
}

// sanitizeSegment makes a single path segment safe for the local
// filesystem. Empty results are possible and dropped by the caller.
func sanitizeSegment(segment string) string {
	clean, err := filenamify.Filenamify(segment, filenamify.Options{
		Replacement: "_",
		MaxLength:   200,
	})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(clean)
}

func sanitizeSegments(segments []string) []string {
	out := segments[:0]
	for _, segment := range segments {
		if clean := sanitizeSegment(segment); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

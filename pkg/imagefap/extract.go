package imagefap

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	errs "github.com/patrickkfkan/imagefap-dl/pkg/errors"
)

// The extractors below are pure functions from fetched markup to typed
// records. They never touch the network; all URLs in their results are
// resolved to absolute form against the page they came from.

var (
	reGalleryHrefID   = regexp.MustCompile(`/gallery/(\d+)(?:/|$)`)
	rePicturesHrefID  = regexp.MustCompile(`/pictures/(\d+)(?:/|$)`)
	reOrganizerHrefID = regexp.MustCompile(`/organizer/(\d+)(?:/|$)`)
	rePicturesHref    = regexp.MustCompile(`/pictures/[^/?#]+`)
	reDigits          = regexp.MustCompile(`^\d+$`)
)

func parseDoc(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errs.Wrap(errs.KindParse, err, "failed to parse page HTML")
	}
	return doc, nil
}

// resolveHref makes href absolute against pageURL. Returns "" for
// hrefs that cannot be resolved.
func resolveHref(pageURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// folderIDFromURL pulls the folder id out of a folder URL, either the
// folderid query parameter or the organizer path segment.
func folderIDFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if id := u.Query().Get("folderid"); reDigits.MatchString(id) {
		return id
	}
	if m := reOrganizerHrefID.FindStringSubmatch(u.Path); m != nil {
		return m[1]
	}
	return ""
}

// galleryIDFromURL pulls the numeric gallery id out of a gallery URL.
// Anonymous galleries yield "".
func galleryIDFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if id := u.Query().Get("gid"); reDigits.MatchString(id) {
		return id
	}
	if m := reGalleryHrefID.FindStringSubmatch(u.Path); m != nil {
		return m[1]
	}
	if m := rePicturesHrefID.FindStringSubmatch(u.Path); m != nil {
		return m[1]
	}
	return ""
}

func isGalleryHref(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if reGalleryHrefID.MatchString(u.Path) || rePicturesHref.MatchString(u.Path) {
		return true
	}
	return strings.HasSuffix(u.Path, "/gallery.php") && reDigits.MatchString(u.Query().Get("gid"))
}

// ExtractFolderLinks parses a galleries or favorites overview page into
// its list of folder links, in page order. The folder the page is
// currently showing is rendered in bold and reported as Selected. An
// overview with no folders is a valid, empty result.
func ExtractFolderLinks(html, pageURL string) ([]FolderLink, error) {
	doc, err := parseDoc(html)
	if err != nil {
		return nil, err
	}

	var links []FolderLink
	seen := make(map[string]bool)
	doc.Find("a.blk_galleries[href], a.blk_favorites[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs := resolveHref(pageURL, href)
		if abs == "" {
			return
		}
		id := folderIDFromURL(abs)
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		links = append(links, FolderLink{
			ID:       id,
			URL:      abs,
			Title:    strings.TrimSpace(s.Text()),
			Selected: s.Closest("b").Length() > 0,
		})
	})

	return links, nil
}

// ExtractFolderPage parses a single page of a gallery or favorites
// folder: folder metadata, the items on this page (gallery links, or
// image links for a favorites folder of individual images), and the
// continuation URL if there is one.
func ExtractFolderPage(html, pageURL string) (*FolderPage, error) {
	doc, err := parseDoc(html)
	if err != nil {
		return nil, err
	}

	page := &FolderPage{
		ID:    folderIDFromURL(pageURL),
		Title: strings.TrimSpace(doc.Find("#folder_title").First().Text()),
		Owner: extractPageOwner(doc, pageURL),
	}

	if pageIsPasswordProtected(doc) {
		page.PasswordProtected = true
		return page, nil
	}

	seen := make(map[string]bool)
	doc.Find("a.blk_galleries[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs := resolveHref(pageURL, href)
		if abs == "" || !isGalleryHref(abs) || seen[abs] {
			return
		}
		seen[abs] = true
		page.Galleries = append(page.Galleries, GalleryLink{
			ID:    galleryIDFromURL(abs),
			URL:   abs,
			Title: strings.TrimSpace(s.Text()),
		})
	})

	page.ImageLinks = extractImageLinks(doc, pageURL)
	page.NextURL = extractNextURL(doc, pageURL)
	return page, nil
}

// ExtractGalleryPage parses one gallery listing page. The gallery id
// comes from the page URL; anonymous galleries have none. Uploader and
// description only appear on the first page and are zero elsewhere.
func ExtractGalleryPage(html, pageURL string) (*GalleryPage, error) {
	doc, err := parseDoc(html)
	if err != nil {
		return nil, err
	}

	title := doc.Find("#gallery_title").First()
	if title.Length() == 0 {
		return nil, errs.StructureChanged("gallery page has no title node")
	}

	page := &GalleryPage{
		ID:          galleryIDFromURL(pageURL),
		Title:       strings.TrimSpace(title.Text()),
		Description: strings.TrimSpace(doc.Find("#gallery_description").First().Text()),
		Uploader:    extractPageOwner(doc, pageURL),
		ImageLinks:  extractImageLinks(doc, pageURL),
		NextURL:     extractNextURL(doc, pageURL),
	}
	return page, nil
}

// ExtractImageNavPage parses the image-navigation partial into one
// entry per cell, in page order. A cell missing its id or full-size
// link yields a nil placeholder instead of halting the batch.
func ExtractImageNavPage(html, pageURL string) ([]*Image, error) {
	doc, err := parseDoc(html)
	if err != nil {
		return nil, err
	}

	var images []*Image
	doc.Find("table.mbox").Each(func(_ int, cell *goquery.Selection) {
		images = append(images, parseNavCell(cell, pageURL))
	})
	return images, nil
}

func parseNavCell(cell *goquery.Selection, pageURL string) *Image {
	id, ok := cell.Find("a[name]").First().Attr("name")
	if !ok || !reDigits.MatchString(id) {
		return nil
	}
	href, ok := cell.Find("td.mbox-full a[href]").First().Attr("href")
	if !ok {
		return nil
	}
	src := resolveHref(pageURL, href)
	if src == "" {
		return nil
	}

	img := &Image{
		ID:    id,
		Src:   src,
		Title: strings.TrimSpace(cell.Find("td.mbox-title").First().Text()),
	}

	// The metadata row packs "WxH | N views | R stars | date".
	meta := strings.TrimSpace(cell.Find("td.mbox-meta").First().Text())
	if meta != "" {
		parts := strings.Split(meta, "|")
		for i, part := range parts {
			part = strings.TrimSpace(part)
			switch i {
			case 0:
				img.Dimension = part
			case 1:
				img.Views = strings.TrimSuffix(part, " views")
			case 2:
				img.Rating = strings.TrimSuffix(part, " stars")
			case 3:
				img.DateAdded = part
			}
		}
	}
	return img
}

// ExtractFullImageTitle parses a photo page for the image's full,
// untruncated title.
func ExtractFullImageTitle(html string) (string, error) {
	doc, err := parseDoc(html)
	if err != nil {
		return "", err
	}
	node := doc.Find("#img_title").First()
	if node.Length() == 0 {
		return "", errs.StructureChanged("photo page has no title node")
	}
	return strings.TrimSpace(node.Text()), nil
}

// ExtractPhotoGalleryURL parses a photo page for the URL of the gallery
// the photo belongs to.
func ExtractPhotoGalleryURL(html, pageURL string) (string, error) {
	doc, err := parseDoc(html)
	if err != nil {
		return "", err
	}
	href, ok := doc.Find("a#gallery_link[href]").First().Attr("href")
	if !ok {
		return "", errs.StructureChanged("photo page has no containing-gallery link")
	}
	abs := resolveHref(pageURL, href)
	if abs == "" {
		return "", errs.StructureChanged(fmt.Sprintf("photo page gallery link is unresolvable: %q", href))
	}
	return abs, nil
}

// extractImageLinks collects thumbnail anchors: an <a> carrying the
// numeric image id in its name attribute, pointing at the photo page,
// with the (possibly truncated) title on the thumbnail's alt text.
func extractImageLinks(doc *goquery.Document, pageURL string) []ImageLink {
	var links []ImageLink
	seen := make(map[string]bool)
	doc.Find(`a[name][href*="/photo/"]`).Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("name")
		if !reDigits.MatchString(id) || seen[id] {
			return
		}
		href, _ := s.Attr("href")
		abs := resolveHref(pageURL, href)
		if abs == "" {
			return
		}
		seen[id] = true
		alt, _ := s.Find("img").First().Attr("alt")
		links = append(links, ImageLink{
			ID:    id,
			URL:   abs,
			Title: strings.TrimSpace(alt),
		})
	})
	return links
}

// extractPageOwner pulls the profile link of the page's owner or
// uploader. The numeric id rides on a separate usergallery link and is
// absent on some layouts.
func extractPageOwner(doc *goquery.Document, pageURL string) *User {
	profile := doc.Find(`a.blk_header[href*="/profile/"]`).First()
	if profile.Length() == 0 {
		return nil
	}
	href, _ := profile.Attr("href")
	user := &User{
		Username:   strings.TrimSpace(profile.Text()),
		ProfileURL: resolveHref(pageURL, href),
	}
	if user.Username == "" {
		return nil
	}

	doc.Find(`a[href*="userid="]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		abs := resolveHref(pageURL, href)
		if abs == "" {
			return true
		}
		u, err := url.Parse(abs)
		if err != nil {
			return true
		}
		if id := u.Query().Get("userid"); reDigits.MatchString(id) {
			user.ID = id
			return false
		}
		return true
	})
	return user
}

// extractNextURL finds the ":: next ::" pagination anchor.
func extractNextURL(doc *goquery.Document, pageURL string) string {
	var next string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) != ":: next ::" {
			return true
		}
		href, _ := s.Attr("href")
		next = resolveHref(pageURL, href)
		return false
	})
	return next
}

func pageIsPasswordProtected(doc *goquery.Document) bool {
	if doc.Find(`input[name="password"]`).Length() > 0 {
		return true
	}
	return strings.Contains(strings.ToLower(doc.Text()), "password protected")
}

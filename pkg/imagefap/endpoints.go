package imagefap

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the canonical base URL for the site.
	BaseURL = "https://www.imagefap.com"

	// siteHost is the bare registered domain targets must belong to.
	siteHost = "imagefap.com"

	// NavPartialParam marks a photo-page request as the partial used
	// for walking a gallery's image navigation strip.
	NavPartialParam = "partial=true"
)

// IsSiteHost reports whether host belongs to the site, with or without
// a subdomain prefix.
func IsSiteHost(host string) bool {
	host = strings.ToLower(host)
	if h, _, found := strings.Cut(host, ":"); found {
		host = h
	}
	return host == siteHost || strings.HasSuffix(host, "."+siteHost)
}

// PhotoPageURL constructs the page URL for a single photo.
func PhotoPageURL(photoID string) string {
	return fmt.Sprintf("%s/photo/%s/", BaseURL, photoID)
}

// ImageNavURL constructs the URL of the image-navigation partial opened
// from the photo referrerID, scoped to gallery (or favorites folder)
// galleryID and starting at image index idx. The partial returns a
// batch of fully detailed image cells.
func ImageNavURL(referrerID, galleryID string, idx int) string {
	params := url.Values{}
	params.Set("gid", galleryID)
	params.Set("idx", fmt.Sprintf("%d", idx))
	params.Set("partial", "true")
	return fmt.Sprintf("%s/photo/%s/?%s", BaseURL, referrerID, params.Encode())
}

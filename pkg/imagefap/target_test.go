package imagefap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/patrickkfkan/imagefap-dl/pkg/errors"
)

func TestClassifyTarget(t *testing.T) {
	tests := []struct {
		name string
		url  string
		kind TargetKind
	}{
		{
			name: "profile galleries overview",
			url:  "https://www.imagefap.com/profile/somebody/galleries",
			kind: TargetUserGalleries,
		},
		{
			name: "profile galleries with folderid",
			url:  "https://www.imagefap.com/profile/somebody/galleries?folderid=901",
			kind: TargetGalleryFolder,
		},
		{
			name: "usergallery.php without folderid",
			url:  "https://www.imagefap.com/usergallery.php?userid=123",
			kind: TargetUserGalleries,
		},
		{
			name: "usergallery.php with folderid",
			url:  "https://www.imagefap.com/usergallery.php?userid=123&folderid=901",
			kind: TargetGalleryFolder,
		},
		{
			name: "organizer folder",
			url:  "https://www.imagefap.com/organizer/901/Some-Folder",
			kind: TargetGalleryFolder,
		},
		{
			name: "gallery path",
			url:  "https://www.imagefap.com/gallery/424242",
			kind: TargetGallery,
		},
		{
			name: "gallery.php with gid",
			url:  "https://www.imagefap.com/gallery.php?gid=424242",
			kind: TargetGallery,
		},
		{
			name: "pictures path with slug",
			url:  "https://www.imagefap.com/pictures/424242/Some-Gallery",
			kind: TargetGallery,
		},
		{
			name: "anonymous gallery hash",
			url:  "https://www.imagefap.com/pictures/a1b2c3d4e5/",
			kind: TargetGallery,
		},
		{
			name: "photo page",
			url:  "https://www.imagefap.com/photo/1357924680/",
			kind: TargetPhoto,
		},
		{
			name: "favorites overview",
			url:  "https://www.imagefap.com/showfavorites.php?userid=123",
			kind: TargetFavorites,
		},
		{
			name: "favorites folder",
			url:  "https://www.imagefap.com/showfavorites.php?userid=123&folderid=77",
			kind: TargetFavoritesFolder,
		},
		{
			name: "bare host without scheme",
			url:  "www.imagefap.com/gallery/424242",
			kind: TargetGallery,
		},
		{
			name: "host without www",
			url:  "https://imagefap.com/gallery/424242",
			kind: TargetGallery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := ClassifyTarget(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, target.Kind)
			assert.NotEmpty(t, target.URL)
		})
	}
}

func TestClassifyTargetPrecedence(t *testing.T) {
	// A folderid parameter must win over the plain overview match for
	// both the galleries and the favorites form.
	target, err := ClassifyTarget("https://www.imagefap.com/profile/somebody/galleries?folderid=1")
	require.NoError(t, err)
	assert.Equal(t, TargetGalleryFolder, target.Kind)

	target, err = ClassifyTarget("https://www.imagefap.com/showfavorites.php?userid=9&folderid=1")
	require.NoError(t, err)
	assert.Equal(t, TargetFavoritesFolder, target.Kind)
}

func TestClassifyTargetInvalid(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "wrong host", url: "https://example.com/gallery/424242"},
		{name: "lookalike host", url: "https://notimagefap.com/gallery/424242"},
		{name: "empty path", url: "https://www.imagefap.com"},
		{name: "root path", url: "https://www.imagefap.com/"},
		{name: "unknown path", url: "https://www.imagefap.com/video/42"},
		{name: "gallery.php without gid", url: "https://www.imagefap.com/gallery.php"},
		{name: "non-numeric gallery id", url: "https://www.imagefap.com/gallery/not-a-number"},
		{name: "unsupported scheme", url: "ftp://www.imagefap.com/gallery/42"},
		{name: "empty string", url: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := ClassifyTarget(tt.url)
			require.Error(t, err)
			assert.Nil(t, target)
			assert.Equal(t, errs.KindInvalidURL, errs.KindOf(err))
		})
	}
}

package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/patrickkfkan/imagefap-dl/pkg/imagefap"
)

func allSegments() pathOptions {
	return pathOptions{
		uploaderDir:  true,
		favoritesDir: true,
		folderDir:    true,
		galleryDir:   true,
	}
}

func TestGalleryDirSegments(t *testing.T) {
	gallery := &imagefap.Gallery{
		ID:       "424242",
		Title:    "Beach Day",
		Uploader: &imagefap.User{ID: "123", Username: "bob"},
	}

	tests := []struct {
		name string
		dctx DownloadContext
		opts pathOptions
		want []string
	}{
		{
			name: "gallery outside any folder",
			opts: allSegments(),
			want: []string{"bob (123)", "Beach Day (424242)"},
		},
		{
			name: "gallery inside a folder",
			dctx: DownloadContext{
				Folder: &imagefap.Folder{
					ID:    "42",
					Title: "Foo",
					Owner: &imagefap.User{ID: "7", Username: "bob"},
				},
			},
			opts: allSegments(),
			want: []string{"bob (7)", "Foo (42)", "Beach Day (424242)"},
		},
		{
			name: "favorites branch gets the label",
			dctx: DownloadContext{
				InFavorites: true,
				Folder: &imagefap.Folder{
					ID:    "77",
					Title: "Sunsets",
					Owner: &imagefap.User{ID: "123", Username: "alice"},
				},
			},
			opts: allSegments(),
			want: []string{"alice (123)", "Favorites", "Sunsets (77)", "Beach Day (424242)"},
		},
		{
			name: "disabled segments drop without reordering",
			dctx: DownloadContext{
				InFavorites: true,
				Folder:      &imagefap.Folder{ID: "77", Title: "Sunsets"},
			},
			opts: pathOptions{galleryDir: true},
			want: []string{"Beach Day (424242)"},
		},
		{
			name: "everything disabled",
			opts: pathOptions{},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := galleryDirSegments(gallery, tt.dctx, tt.opts)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGalleryDirSegmentsFallbacks(t *testing.T) {
	// Uploader without a numeric id.
	g := &imagefap.Gallery{ID: "1", Title: "T", Uploader: &imagefap.User{Username: "bob"}}
	assert.Equal(t, []string{"bob", "T (1)"}, galleryDirSegments(g, DownloadContext{}, allSegments()))

	// Anonymous gallery: no id, title alone.
	g = &imagefap.Gallery{Title: "Mystery"}
	assert.Equal(t, []string{"Mystery"}, galleryDirSegments(g, DownloadContext{}, allSegments()))

	// No uploader at all.
	g = &imagefap.Gallery{ID: "1", Title: "T"}
	assert.Equal(t, []string{"T (1)"}, galleryDirSegments(g, DownloadContext{}, allSegments()))

	// Untitled folder falls back to the bare id.
	dctx := DownloadContext{Folder: &imagefap.Folder{ID: "42"}}
	g = &imagefap.Gallery{ID: "1", Title: "T"}
	assert.Equal(t, []string{"42", "T (1)"}, galleryDirSegments(g, dctx, allSegments()))
}

func TestFolderDirSegments(t *testing.T) {
	folder := &imagefap.Folder{
		ID:    "78",
		Title: "Singles",
		Owner: &imagefap.User{ID: "123", Username: "bob"},
	}

	got := folderDirSegments(folder, true, allSegments())
	assert.Equal(t, []string{"bob (123)", "Favorites", "Singles (78)"}, got)

	got = folderDirSegments(folder, false, allSegments())
	assert.Equal(t, []string{"bob (123)", "Singles (78)"}, got)
}

func TestSegmentsSanitized(t *testing.T) {
	g := &imagefap.Gallery{
		ID:       "1",
		Title:    "a/b",
		Uploader: &imagefap.User{ID: "2", Username: "x"},
	}
	got := galleryDirSegments(g, DownloadContext{}, allSegments())
	assert.Equal(t, []string{"x (2)", "a_b (1)"}, got)
}

func TestImageFilename(t *testing.T) {
	img := &imagefap.Image{
		ID:    "111",
		Src:   "https://cdn.imagefap.com/images/full/42/111.jpg?w=1920",
		Title: "Sunrise",
	}

	assert.Equal(t, "Sunrise (111).jpg", imageFilename(img, 0, false))
	assert.Equal(t, "0 - Sunrise (111).jpg", imageFilename(img, 0, true))
	assert.Equal(t, "7 - Sunrise (111).jpg", imageFilename(img, 7, true))

	// The id stands in for a missing title.
	img = &imagefap.Image{ID: "222", Src: "https://cdn.imagefap.com/images/full/42/222.png"}
	assert.Equal(t, "222 (222).png", imageFilename(img, 0, false))

	// No extension on the source path.
	img = &imagefap.Image{ID: "333", Src: "https://cdn.imagefap.com/images/full/42/333", Title: "Plain"}
	assert.Equal(t, "Plain (333)", imageFilename(img, 0, false))

	// Path separators in the title never leak into the filename.
	img = &imagefap.Image{ID: "444", Src: "https://cdn.imagefap.com/x/444.jpg", Title: "day/night"}
	assert.Equal(t, "day_night (444).jpg", imageFilename(img, 0, false))
}

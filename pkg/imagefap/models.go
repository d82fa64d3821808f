package imagefap

// TargetKind identifies what kind of page a start URL points at.
type TargetKind string

const (
	TargetUserGalleries   TargetKind = "user_galleries"
	TargetGalleryFolder   TargetKind = "gallery_folder"
	TargetGallery         TargetKind = "gallery"
	TargetPhoto           TargetKind = "photo"
	TargetFavorites       TargetKind = "favorites"
	TargetFavoritesFolder TargetKind = "favorites_folder"
)

// Target is a start URL together with its classified kind.
type Target struct {
	URL  string
	Kind TargetKind
}

// User identifies a gallery uploader or folder owner.
type User struct {
	ID         string `json:"id,omitempty"`
	Username   string `json:"username"`
	ProfileURL string `json:"url,omitempty"`
}

// FolderLink is one folder entry on a galleries or favorites overview page.
// Selected marks the folder the page is currently showing.
type FolderLink struct {
	ID       string
	URL      string
	Title    string
	Selected bool
}

// GalleryLink is one gallery entry inside a folder page.
type GalleryLink struct {
	ID    string
	URL   string
	Title string
}

// ImageLink is one thumbnail entry on a gallery listing or favorites
// folder page. FullTitle is only populated in full-filenames mode, from
// the image's own photo page.
type ImageLink struct {
	ID        string
	URL       string
	Title     string
	FullTitle string
}

// Image is the complete record for one image, assembled from the
// navigation sub-pages. Metadata fields are kept as displayed.
type Image struct {
	ID        string `json:"id"`
	Src       string `json:"src"`
	Title     string `json:"title,omitempty"`
	Views     string `json:"views,omitempty"`
	Dimension string `json:"dimension,omitempty"`
	DateAdded string `json:"dateAdded,omitempty"`
	Rating    string `json:"rating,omitempty"`
}

// Gallery is the fully assembled record for one gallery. An empty ID
// marks an anonymous gallery reachable only through its URL.
type Gallery struct {
	URL         string   `json:"url"`
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Uploader    *User    `json:"uploader,omitempty"`
	Images      []*Image `json:"images"`
}

// Folder is the accumulated record for a gallery or favorites folder.
// Exactly one of Galleries and ImageLinks is normally populated: a
// folder holds either galleries or individually saved images. The item
// lists are excluded from the JSON sidecar.
type Folder struct {
	URL        string        `json:"url"`
	ID         string        `json:"id"`
	Title      string        `json:"title,omitempty"`
	Owner      *User         `json:"owner,omitempty"`
	Galleries  []GalleryLink `json:"-"`
	ImageLinks []ImageLink   `json:"-"`
}

// FolderPage is the parsed form of a single gallery-folder or
// favorites-folder page.
type FolderPage struct {
	ID                string
	Title             string
	Owner             *User
	Galleries         []GalleryLink
	ImageLinks        []ImageLink
	NextURL           string
	PasswordProtected bool
}

// GalleryPage is the parsed form of a single gallery listing page.
type GalleryPage struct {
	ID          string
	Title       string
	Description string
	Uploader    *User
	ImageLinks  []ImageLink
	NextURL     string
}

package scraper

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// siteImage is one image served by the mock site.
type siteImage struct {
	ID           string
	Title        string
	FullTitle    string
	BrokenNav    bool // nav entry rendered without its anchors
	FailDownload bool // the image bytes endpoint returns 503
}

type siteGallery struct {
	ID          string
	Title       string
	Description string
	PerPage     int // photo links per listing page; 0 puts everything on one page
	NavBatch    int // entries per nav partial; 0 means 3
	Images      []siteImage
}

type siteFolder struct {
	ID        string
	Title     string
	Password  bool
	PerPage   int // links per listing page; 0 puts everything on one page
	Galleries []string
	Images    []siteImage // loose favorites images
}

// mockSite serves just enough of the site's page shapes to drive the
// scraper end to end: overview pages, folder and gallery listings with
// ":: next ::" pagination, image-nav partials, photo pages and the
// image bytes themselves.
type mockSite struct {
	owner     string
	ownerID   string
	folders   map[string]*siteFolder
	galleries map[string]*siteGallery
	overview  []string // folder ids listed on the galleries overview
	favorites []string // folder ids listed on the favorites overview

	mu         sync.Mutex
	hits       map[string]int
	failures   map[string]int // URI prefix -> remaining 503 responses
	challenges map[string]int // URI prefix -> remaining challenge pages

	server *httptest.Server
}

func newMockSite(t *testing.T) *mockSite {
	t.Helper()
	m := &mockSite{
		owner:      "bob",
		ownerID:    "123",
		folders:    make(map[string]*siteFolder),
		galleries:  make(map[string]*siteGallery),
		hits:       make(map[string]int),
		failures:   make(map[string]int),
		challenges: make(map[string]int),
	}
	m.server = httptest.NewServer(m)
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockSite) addGallery(g *siteGallery) *siteGallery {
	m.galleries[g.ID] = g
	return g
}

func (m *mockSite) addFolder(f *siteFolder) *siteFolder {
	m.folders[f.ID] = f
	return f
}

// failNext makes the next n requests whose URI starts with prefix
// return 503.
func (m *mockSite) failNext(prefix string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[prefix] = n
}

// challengeNext makes the next n requests whose URI starts with prefix
// return an anti-automation interstitial.
func (m *mockSite) challengeNext(prefix string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challenges[prefix] = n
}

// hitsFor counts requests whose URI starts with prefix.
func (m *mockSite) hitsFor(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for uri, n := range m.hits {
		if strings.HasPrefix(uri, prefix) {
			total += n
		}
	}
	return total
}

func (m *mockSite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.RequestURI()

	m.mu.Lock()
	m.hits[uri]++
	for prefix, left := range m.challenges {
		if left > 0 && strings.HasPrefix(uri, prefix) {
			m.challenges[prefix] = left - 1
			m.mu.Unlock()
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, "<html><body>Checking your browser before accessing the site.</body></html>")
			return
		}
	}
	for prefix, left := range m.failures {
		if left > 0 && strings.HasPrefix(uri, prefix) {
			m.failures[prefix] = left - 1
			m.mu.Unlock()
			http.Error(w, "upstream error", http.StatusServiceUnavailable)
			return
		}
	}
	m.mu.Unlock()

	q := r.URL.Query()
	switch {
	case r.URL.Path == "/":
		fmt.Fprint(w, "<html><body>welcome</body></html>")
	case strings.HasPrefix(r.URL.Path, "/profile/") && strings.HasSuffix(r.URL.Path, "/galleries"):
		m.writeOverview(w, m.overview, false)
	case r.URL.Path == "/showfavorites.php" && q.Get("folderid") != "":
		m.writeFolder(w, q.Get("folderid"), pageNum(q), true)
	case r.URL.Path == "/showfavorites.php":
		m.writeOverview(w, m.favorites, true)
	case strings.HasPrefix(r.URL.Path, "/organizer/"):
		m.writeFolder(w, pathSegment(r.URL.Path, 1), pageNum(q), false)
	case strings.HasPrefix(r.URL.Path, "/gallery/"):
		m.writeGallery(w, r, pathSegment(r.URL.Path, 1), pageNum(q))
	case strings.HasPrefix(r.URL.Path, "/photo/") && q.Get("partial") == "true":
		m.writeNavPartial(w, q.Get("gid"), atoiOrZero(q.Get("idx")))
	case strings.HasPrefix(r.URL.Path, "/photo/"):
		m.writePhotoPage(w, r, pathSegment(r.URL.Path, 1))
	case strings.HasPrefix(r.URL.Path, "/images/full/"):
		m.writeImage(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (m *mockSite) writeOverview(w http.ResponseWriter, ids []string, favorites bool) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, id := range ids {
		f := m.folders[id]
		if favorites {
			fmt.Fprintf(&b, `<a class="blk_favorites" href="/showfavorites.php?userid=%s&folderid=%s">%s</a>`,
				m.ownerID, id, f.Title)
		} else {
			fmt.Fprintf(&b, `<a class="blk_galleries" href="/organizer/%s/f">%s</a>`, id, f.Title)
		}
	}
	b.WriteString("</body></html>")
	fmt.Fprint(w, b.String())
}

func (m *mockSite) writeFolder(w http.ResponseWriter, id string, page int, favorites bool) {
	f, ok := m.folders[id]
	if !ok {
		http.Error(w, "no such folder", http.StatusNotFound)
		return
	}

	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, `<div id="folder_title">%s</div>`, f.Title)

	if f.Password {
		b.WriteString(`<form method="post"><input type="password" name="password"></form>`)
		b.WriteString("</body></html>")
		fmt.Fprint(w, b.String())
		return
	}

	fmt.Fprintf(&b, `<a class="blk_header" href="/profile/%s">%s</a>`, m.owner, m.owner)
	fmt.Fprintf(&b, `<a class="blk_header" href="/usergallery.php?userid=%s">View all galleries</a>`, m.ownerID)

	gals, moreGals := pageSlice(f.Galleries, page, f.PerPage)
	for _, gid := range gals {
		title := "gallery " + gid
		if g, ok := m.galleries[gid]; ok {
			title = g.Title
		}
		fmt.Fprintf(&b, `<a class="blk_galleries" href="/gallery/%s/g">%s</a>`, gid, title)
	}
	imgs, moreImgs := pageSlice(f.Images, page, f.PerPage)
	for _, img := range imgs {
		fmt.Fprintf(&b, `<a name="%s" href="/photo/%s/"><img alt="%s" src="/t/%s.jpg"></a>`,
			img.ID, img.ID, img.Title, img.ID)
	}

	if moreGals || moreImgs {
		if favorites {
			fmt.Fprintf(&b, `<a href="/showfavorites.php?userid=%s&folderid=%s&page=%d">:: next ::</a>`,
				m.ownerID, f.ID, page+1)
		} else {
			fmt.Fprintf(&b, `<a href="/organizer/%s/?page=%d">:: next ::</a>`, f.ID, page+1)
		}
	}
	b.WriteString("</body></html>")
	fmt.Fprint(w, b.String())
}

func (m *mockSite) writeGallery(w http.ResponseWriter, r *http.Request, id string, page int) {
	g, ok := m.galleries[id]
	if !ok {
		http.NotFound(w, r)
		return
	}

	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, `<div id="gallery_title">%s</div>`, g.Title)
	if g.Description != "" {
		fmt.Fprintf(&b, `<div id="gallery_description">%s</div>`, g.Description)
	}
	fmt.Fprintf(&b, `<a class="blk_header" href="/profile/%s">%s</a>`, m.owner, m.owner)
	fmt.Fprintf(&b, `<a href="/usergallery.php?userid=%s">galleries</a>`, m.ownerID)

	imgs, more := pageSlice(g.Images, page, g.PerPage)
	for _, img := range imgs {
		fmt.Fprintf(&b, `<a name="%s" href="/photo/%s/"><img alt="%s" src="/t/%s.jpg"></a>`,
			img.ID, img.ID, img.Title, img.ID)
	}
	if more {
		fmt.Fprintf(&b, `<a href="/gallery/%s/?page=%d">:: next ::</a>`, g.ID, page+1)
	}
	b.WriteString("</body></html>")
	fmt.Fprint(w, b.String())
}

func (m *mockSite) writeNavPartial(w http.ResponseWriter, gid string, idx int) {
	images, batch := m.navImages(gid)
	if images == nil {
		http.Error(w, "no such gallery", http.StatusNotFound)
		return
	}

	var b strings.Builder
	b.WriteString("<html><body>")
	end := idx + batch
	if end > len(images) {
		end = len(images)
	}
	for i := idx; i < end; i++ {
		img := images[i]
		if img.BrokenNav {
			b.WriteString(`<table class="mbox"><tr><td class="mbox-title">unavailable</td></tr></table>`)
			continue
		}
		b.WriteString(`<table class="mbox">`)
		fmt.Fprintf(&b, `<tr><td><a name="%s" href="/photo/%s/"><img src="/t/%s.jpg"></a></td></tr>`,
			img.ID, img.ID, img.ID)
		if img.Title != "" {
			fmt.Fprintf(&b, `<tr><td class="mbox-title">%s</td></tr>`, img.Title)
		}
		fmt.Fprintf(&b, `<tr><td class="mbox-full"><a href="/images/full/%s/%s.jpg">Full Size</a></td></tr>`,
			gid, img.ID)
		b.WriteString(`<tr><td class="mbox-meta">800x600 | 12 views | 4.0 stars | 2024-01-01</td></tr>`)
		b.WriteString(`</table>`)
	}
	b.WriteString("</body></html>")
	fmt.Fprint(w, b.String())
}

// navImages resolves the image list behind a nav gid: galleries first,
// then folders holding loose favorites images.
func (m *mockSite) navImages(gid string) ([]siteImage, int) {
	if g, ok := m.galleries[gid]; ok {
		batch := g.NavBatch
		if batch <= 0 {
			batch = 3
		}
		return g.Images, batch
	}
	if f, ok := m.folders[gid]; ok {
		return f.Images, 3
	}
	return nil, 0
}

func (m *mockSite) writePhotoPage(w http.ResponseWriter, r *http.Request, photoID string) {
	for gid, g := range m.galleries {
		for _, img := range g.Images {
			if img.ID != photoID {
				continue
			}
			fmt.Fprintf(w, `<html><body><div id="img_title">%s</div><a id="gallery_link" href="/gallery/%s/g">Back to gallery</a></body></html>`,
				photoTitle(img), gid)
			return
		}
	}
	for _, f := range m.folders {
		for _, img := range f.Images {
			if img.ID != photoID {
				continue
			}
			fmt.Fprintf(w, `<html><body><div id="img_title">%s</div></body></html>`, photoTitle(img))
			return
		}
	}
	http.NotFound(w, r)
}

func (m *mockSite) writeImage(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(path.Base(r.URL.Path), path.Ext(r.URL.Path))
	img, ok := m.findImage(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if img.FailDownload {
		http.Error(w, "upstream error", http.StatusServiceUnavailable)
		return
	}
	fmt.Fprintf(w, "bytes-of-%s", id)
}

func (m *mockSite) findImage(id string) (siteImage, bool) {
	for _, g := range m.galleries {
		for _, img := range g.Images {
			if img.ID == id {
				return img, true
			}
		}
	}
	for _, f := range m.folders {
		for _, img := range f.Images {
			if img.ID == id {
				return img, true
			}
		}
	}
	return siteImage{}, false
}

func photoTitle(img siteImage) string {
	switch {
	case img.FullTitle != "":
		return img.FullTitle
	case img.Title != "":
		return img.Title
	default:
		return img.ID
	}
}

func pageSlice[T any](items []T, page, per int) ([]T, bool) {
	if per <= 0 {
		if page > 0 {
			return nil, false
		}
		return items, false
	}
	start := page * per
	if start >= len(items) {
		return nil, false
	}
	end := start + per
	if end >= len(items) {
		return items[start:], false
	}
	return items[start:end], true
}

func pageNum(q url.Values) int {
	return atoiOrZero(q.Get("page"))
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func pathSegment(p string, i int) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if i >= len(parts) {
		return ""
	}
	return parts[i]
}

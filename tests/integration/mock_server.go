package integration

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// navBatchSize is how many image cells a navigation partial returns.
const navBatchSize = 3

type mockImage struct {
	id    string
	title string
}

type mockGallery struct {
	id     string
	title  string
	desc   string
	images []mockImage
}

// The built-in site: user alice owns one gallery folder with two
// galleries, and one favorites folder of individually saved images.
var (
	daysGallery = mockGallery{
		id:    "9001",
		title: "Days",
		desc:  "Daylight set",
		images: []mockImage{
			{id: "101", title: "Sunrise"},
			{id: "102", title: "Morning"},
			{id: "103", title: "Noon"},
			{id: "104", title: "Dusk"},
		},
	}
	nightsGallery = mockGallery{
		id:    "9002",
		title: "Nights",
		desc:  "",
		images: []mockImage{
			{id: "201", title: "Moon"},
			{id: "202", title: "Stars"},
		},
	}
	keepersImages = []mockImage{
		{id: "301", title: "Cliff"},
		{id: "302", title: "Shore"},
	}
)

const (
	mockOwner    = "alice"
	mockOwnerID  = "500"
	folderID     = "3001"
	folderTitle  = "Road Trips"
	favFolderID  = "4001"
	favFolder    = "Keepers"
	challengeTag = "Checking your browser before accessing the site."
)

type failureWindow struct {
	remaining int
	code      int
}

// MockImagefapServer serves a small fixed slice of the site over
// httptest, with per-prefix error injection, challenge injection,
// delays and request counting.
type MockImagefapServer struct {
	server       *httptest.Server
	requestCount int32

	mu             sync.Mutex
	hits           map[string]int
	errorResponses map[string]int // sticky status per URL prefix
	failures       map[string]*failureWindow
	challenges     map[string]int
	delays         map[string]time.Duration
}

// NewMockImagefapServer starts the mock site.
func NewMockImagefapServer() *MockImagefapServer {
	m := &MockImagefapServer{
		hits:           make(map[string]int),
		errorResponses: make(map[string]int),
		failures:       make(map[string]*failureWindow),
		challenges:     make(map[string]int),
		delays:         make(map[string]time.Duration),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handler))
	return m
}

// URL returns the base URL of the mock server.
func (m *MockImagefapServer) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockImagefapServer) Close() {
	m.server.Close()
}

// SetErrorResponse makes every request whose path starts with prefix
// fail with code until cleared.
func (m *MockImagefapServer) SetErrorResponse(prefix string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorResponses[prefix] = code
}

// ClearErrorResponse removes a sticky error configuration.
func (m *MockImagefapServer) ClearErrorResponse(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.errorResponses, prefix)
}

// FailRequests makes the next n requests under prefix fail with code,
// then lets them through again.
func (m *MockImagefapServer) FailRequests(prefix string, n, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[prefix] = &failureWindow{remaining: n, code: code}
}

// ChallengeRequests makes the next n requests under prefix answer with
// an anti-automation challenge page.
func (m *MockImagefapServer) ChallengeRequests(prefix string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challenges[prefix] = n
}

// SetDelay delays every response under prefix.
func (m *MockImagefapServer) SetDelay(prefix string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[prefix] = d
}

// GetRequestCount returns the total number of requests served.
func (m *MockImagefapServer) GetRequestCount() int {
	return int(atomic.LoadInt32(&m.requestCount))
}

// CountRequests returns how many requests had a request URI starting
// with prefix.
func (m *MockImagefapServer) CountRequests(prefix string) int {
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

func (m *MockImagefapServer) handler(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)

	m.mu.Lock()
	m.hits[r.RequestURI]++
	var delay time.Duration
	for prefix, d := range m.delays {
		if strings.HasPrefix(r.URL.Path, prefix) {
			delay = d
		}
	}
	challenged := false
	for prefix, n := range m.challenges {
		if strings.HasPrefix(r.URL.Path, prefix) && n > 0 {
			m.challenges[prefix] = n - 1
			challenged = true
			break
		}
	}
	failCode := 0
	if !challenged {
		for prefix, win := range m.failures {
			if strings.HasPrefix(r.URL.Path, prefix) && win.remaining > 0 {
				win.remaining--
				failCode = win.code
				break
			}
		}
		if failCode == 0 {
			for prefix, code := range m.errorResponses {
				if strings.HasPrefix(r.URL.Path, prefix) {
					failCode = code
					break
				}
			}
		}
	}
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if challenged {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprintf(w, "<html><body>%s</body></html>", challengeTag)
		return
	}
	if failCode != 0 {
		http.Error(w, "temporarily unavailable", failCode)
		return
	}

	switch {
	case r.URL.Path == "/":
		fmt.Fprint(w, "<html><head><title>Home</title></head><body>welcome</body></html>")
	case r.URL.Path == "/profile/"+mockOwner+"/galleries":
		m.writeGalleriesOverview(w)
	case r.URL.Path == "/showfavorites.php" && r.URL.Query().Get("folderid") != "":
		m.writeFavoritesFolder(w)
	case r.URL.Path == "/showfavorites.php":
		m.writeFavoritesOverview(w)
	case strings.HasPrefix(r.URL.Path, "/organizer/"+folderID):
		m.writeGalleryFolder(w)
	case strings.HasPrefix(r.URL.Path, "/gallery/"):
		m.writeGallery(w, r)
	case strings.HasPrefix(r.URL.Path, "/photo/") && r.URL.Query().Get("partial") == "true":
		m.writeNavPartial(w, r)
	case strings.HasPrefix(r.URL.Path, "/photo/"):
		m.writePhotoPage(w, r)
	case strings.HasPrefix(r.URL.Path, "/images/full/"):
		m.writeImage(w, r)
	default:
		http.NotFound(w, r)
	}
}

func ownerHeader() string {
	return fmt.Sprintf(
		`<a class="blk_header" href="/profile/%s/galleries">%s</a>
<a href="/usergallery.php?userid=%s">uploads</a>`,
		mockOwner, mockOwner, mockOwnerID)
}

func (m *MockImagefapServer) writeGalleriesOverview(w http.ResponseWriter) {
	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString(ownerHeader())
	fmt.Fprintf(&b, `<b><a class="blk_galleries" href="/organizer/%s/">%s</a></b>`, folderID, folderTitle)
	b.WriteString("</body></html>")
	fmt.Fprint(w, b.String())
}

func (m *MockImagefapServer) writeFavoritesOverview(w http.ResponseWriter) {
	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString(ownerHeader())
	fmt.Fprintf(&b, `<b><a class="blk_favorites" href="/showfavorites.php?userid=%s&amp;folderid=%s">%s</a></b>`,
		mockOwnerID, favFolderID, favFolder)
	b.WriteString("</body></html>")
	fmt.Fprint(w, b.String())
}

func (m *MockImagefapServer) writeGalleryFolder(w http.ResponseWriter) {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, `<div id="folder_title">%s</div>`, folderTitle)
	b.WriteString(ownerHeader())
	for _, g := range []mockGallery{daysGallery, nightsGallery} {
		fmt.Fprintf(&b, `<a class="blk_galleries" href="/gallery/%s/">%s</a>`, g.id, g.title)
	}
	b.WriteString("</body></html>")
	fmt.Fprint(w, b.String())
}

func (m *MockImagefapServer) writeFavoritesFolder(w http.ResponseWriter) {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, `<div id="folder_title">%s</div>`, favFolder)
	b.WriteString(ownerHeader())
	for _, img := range keepersImages {
		fmt.Fprintf(&b, `<a name="%s" href="/photo/%s/"><img alt="%s" src="/thumbs/%s.jpg"></a>`,
			img.id, img.id, img.title, img.id)
	}
	b.WriteString("</body></html>")
	fmt.Fprint(w, b.String())
}

func (m *MockImagefapServer) writeGallery(w http.ResponseWriter, r *http.Request) {
	g, ok := galleryByID(pathSegmentAfter(r.URL.Path, "/gallery/"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString(ownerHeader())
	fmt.Fprintf(&b, `<div id="gallery_title">%s</div>`, g.title)
	if g.desc != "" {
		fmt.Fprintf(&b, `<div id="gallery_description">%s</div>`, g.desc)
	}
	for _, img := range g.images {
		fmt.Fprintf(&b, `<a name="%s" href="/photo/%s/"><img alt="%s" src="/thumbs/%s.jpg"></a>`,
			img.id, img.id, img.title, img.id)
	}
	b.WriteString("</body></html>")
	fmt.Fprint(w, b.String())
}

func (m *MockImagefapServer) writeNavPartial(w http.ResponseWriter, r *http.Request) {
	gid := r.URL.Query().Get("gid")
	idx, _ := strconv.Atoi(r.URL.Query().Get("idx"))

	images := navImagesFor(gid)
	var b strings.Builder
	for i := idx; i < len(images) && i < idx+navBatchSize; i++ {
		img := images[i]
		b.WriteString(`<table class="mbox"><tr>`)
		fmt.Fprintf(&b, `<td><a name="%s"></a></td>`, img.id)
		fmt.Fprintf(&b, `<td class="mbox-title">%s</td>`, img.title)
		fmt.Fprintf(&b, `<td class="mbox-full"><a href="/images/full/%s/%s.jpg">full size</a></td>`, gid, img.id)
		b.WriteString(`<td class="mbox-meta">1200x800 | 34 views | 4.5 stars | 2024-03-01</td>`)
		b.WriteString(`</tr></table>`)
	}
	fmt.Fprint(w, b.String())
}

func (m *MockImagefapServer) writePhotoPage(w http.ResponseWriter, r *http.Request) {
	id := pathSegmentAfter(r.URL.Path, "/photo/")

	for _, g := range []mockGallery{daysGallery, nightsGallery} {
		for _, img := range g.images {
			if img.id == id {
				fmt.Fprintf(w,
					`<html><body><div id="img_title">%s</div><a id="gallery_link" href="/gallery/%s/">containing gallery</a></body></html>`,
					img.title, g.id)
				return
			}
		}
	}
	for _, img := range keepersImages {
		if img.id == id {
			fmt.Fprintf(w, `<html><body><div id="img_title">%s</div></body></html>`, img.title)
			return
		}
	}
	http.NotFound(w, r)
}

func (m *MockImagefapServer) writeImage(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(path.Base(r.URL.Path), ".jpg")
	w.Header().Set("Content-Type", "image/jpeg")
	fmt.Fprintf(w, "img-%s", id)
}

func galleryByID(id string) (mockGallery, bool) {
	switch id {
	case daysGallery.id:
		return daysGallery, true
	case nightsGallery.id:
		return nightsGallery, true
	}
	return mockGallery{}, false
}

func navImagesFor(gid string) []mockImage {
	if gid == favFolderID {
		return keepersImages
	}
	if g, ok := galleryByID(gid); ok {
		return g.images
	}
	return nil
}

func pathSegmentAfter(p, prefix string) string {
	rest := strings.TrimPrefix(p, prefix)
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

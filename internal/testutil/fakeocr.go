package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
)

// Canned response bodies.
const (
	ReceiverOK = `{"flag":"True","output":[{"page num":"page_1.png","text":["Invoice 42","Total: 10.00"]},{"text":["second page"]}]}`
	SearchOK   = `{"flag":"True","output":[{"pdf":"a.pdf","text":["x","y"]}]}`
	FlagFalse  = `{"flag":"False"}`
)

// Upload is one multipart submission seen by FakeOCR.
type Upload struct {
	Filename    string
	ContentType string
	Body        []byte
}

type reply struct {
	status int
	body   string
}

// FakeOCR is an in-process stand-in for the OCR service: POST /receiver and
// GET /search_pdf with configurable replies and a record of every request.
type FakeOCR struct {
	server *httptest.Server

	mu       sync.Mutex
	receiver reply
	search   reply
	uploads  []Upload
	queries  []string
	hold     chan struct{}
}

// NewFakeOCR starts the fake service; it is closed when the test ends.
func NewFakeOCR(t testing.TB) *FakeOCR {
	t.Helper()
	f := &FakeOCR{
		receiver: reply{http.StatusOK, ReceiverOK},
		search:   reply{http.StatusOK, SearchOK},
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.POST("/receiver", f.handleReceiver)
	e.GET("/search_pdf", f.handleSearch)

	f.server = httptest.NewServer(e)
	t.Cleanup(func() {
		f.Release()
		f.server.Close()
	})
	return f
}

// URL is the base URL of the fake service.
func (f *FakeOCR) URL() string { return f.server.URL }

// SetReceiver sets the reply to POST /receiver.
func (f *FakeOCR) SetReceiver(status int, body string) {
	f.mu.Lock()
	f.receiver = reply{status, body}
	f.mu.Unlock()
}

// SetSearch sets the reply to GET /search_pdf.
func (f *FakeOCR) SetSearch(status int, body string) {
	f.mu.Lock()
	f.search = reply{status, body}
	f.mu.Unlock()
}

// Hold makes every following request block until Release is called or the
// client gives up.
func (f *FakeOCR) Hold() {
	f.mu.Lock()
	if f.hold == nil {
		f.hold = make(chan struct{})
	}
	f.mu.Unlock()
}

// Release unblocks held requests.
func (f *FakeOCR) Release() {
	f.mu.Lock()
	if f.hold != nil {
		close(f.hold)
		f.hold = nil
	}
	f.mu.Unlock()
}

// Uploads returns the submissions received so far.
func (f *FakeOCR) Uploads() []Upload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Upload(nil), f.uploads...)
}

// Queries returns the filename parameters of the searches received so far.
func (f *FakeOCR) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func (f *FakeOCR) wait(c echo.Context) error {
	f.mu.Lock()
	hold := f.hold
	f.mu.Unlock()
	if hold == nil {
		return nil
	}
	select {
	case <-hold:
		return nil
	case <-c.Request().Context().Done():
		return c.Request().Context().Err()
	}
}

func (f *FakeOCR) handleReceiver(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.String(http.StatusBadRequest, "missing file field")
	}
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	body, err := io.ReadAll(src)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.uploads = append(f.uploads, Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Body:        body,
	})
	r := f.receiver
	f.mu.Unlock()

	if err := f.wait(c); err != nil {
		return err
	}
	return c.Blob(r.status, echo.MIMEApplicationJSON, []byte(r.body))
}

func (f *FakeOCR) handleSearch(c echo.Context) error {
	f.mu.Lock()
	f.queries = append(f.queries, c.QueryParam("filename"))
	r := f.search
	f.mu.Unlock()

	if err := f.wait(c); err != nil {
		return err
	}
	return c.Blob(r.status, echo.MIMEApplicationJSON, []byte(r.body))
}

package wayback

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/deadpage-hunter/internal/entity"
	"github.com/user/deadpage-hunter/internal/repository"
)

func TestClosest_Found(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wayback/available", r.URL.Path)
		assert.Equal(t, "https://example.com/missing?id=1", r.URL.Query().Get("url"))
		_, _ = w.Write([]byte(`{"url":"example.com/missing","archived_snapshots":{"closest":{"status":"200","available":true,"url":"http://web.archive.org/web/20190504102030/https://example.com/missing","timestamp":"20190504102030"}}}`))
	}))
	defer srv.Close()

	snap, err := NewClient(srv.URL+"/").Closest(context.Background(), "https://example.com/missing?id=1")
	require.NoError(t, err)
	assert.Equal(t, "20190504102030", snap.Timestamp)
	assert.Contains(t, snap.URL, "web.archive.org/web/20190504102030")
}

func TestClosest_NoSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"url":"nowhere.example","archived_snapshots":{}}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Closest(context.Background(), "https://nowhere.example")
	assert.ErrorIs(t, err, repository.ErrNoSnapshot)
}

func TestClosest_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Closest(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrNoSnapshot)
}

func TestFetchText_StripsBoilerplate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Old article</title><style>p{}</style></head>
<body>
  <header>Site header</header>
  <nav><a href="/">Home</a></nav>
  <article><h1>Berita lama</h1><p>Paragraf   pertama.</p><p>Second paragraph.</p></article>
  <iframe src="/ads"></iframe>
  <script>track()</script>
  <footer>Copyright</footer>
</body></html>`))
	}))
	defer srv.Close()

	text, err := NewClient(srv.URL).FetchText(context.Background(), &entity.Snapshot{URL: srv.URL + "/web/1/x"})
	require.NoError(t, err)
	assert.Equal(t, "Berita lama Paragraf pertama. Second paragraph.", text)
}

func TestFetchText_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FetchText(context.Background(), &entity.Snapshot{URL: srv.URL})
	assert.ErrorContains(t, err, "404")
}

func TestCleanText_NoBody(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("plain   words\nonly"))
	require.NoError(t, err)
	assert.Equal(t, "plain words only", CleanText(doc))
}

package refimage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/eidosai/eidos/utils/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

func TestExtractURLs(t *testing.T) {
	markdown := `Please tweak this screen:

![current login](https://user-images.githubusercontent.com/1/login.png)

<img width="400" alt="dash" src="https://github.com/user-attachments/assets/abc-123">

Inline <img src='https://example.com/inline.jpg'> and a repeat ![again](https://user-images.githubusercontent.com/1/login.png).

Not images: [a link](https://example.com/page), ![local](./relative.png), ![data](data:image/png;base64,AAAA)

` + "```\n![in code](https://example.com/code.png)\n```"

	assert.Equal(t, []string{
		"https://user-images.githubusercontent.com/1/login.png",
		"https://github.com/user-attachments/assets/abc-123",
		"https://example.com/inline.jpg",
	}, ExtractURLs(markdown))

	assert.Empty(t, ExtractURLs("@eidosai modify make the button red"))
}

func TestScaledSize(t *testing.T) {
	tests := []struct {
		w, h, maxDim int
		wantW, wantH int
	}{
		{100, 50, 256, 100, 50},
		{2000, 1000, 1024, 1024, 512},
		{1000, 2000, 1024, 512, 1024},
		{4000, 1, 1024, 1024, 1},
		{1024, 1024, 1024, 1024, 1024},
	}
	for _, tt := range tests {
		w, h := scaledSize(tt.w, tt.h, tt.maxDim)
		assert.Equal(t, tt.wantW, w)
		assert.Equal(t, tt.wantH, h)
	}
}

func TestNormalize(t *testing.T) {
	small := encodePNG(t, 32, 16)
	out, err := Normalize(prompt.ImageData{MIMEType: "application/octet-stream", Data: small}, 64)
	require.NoError(t, err)
	assert.Equal(t, "image/png", out.MIMEType)
	assert.Equal(t, small, out.Data, "small PNGs pass through")

	jpg := encodeJPEG(t, 300, 150)
	out, err = Normalize(prompt.ImageData{Data: jpg}, 100)
	require.NoError(t, err)
	assert.Equal(t, "image/png", out.MIMEType)
	decoded, err := png.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 100, decoded.Bounds().Dx())
	assert.Equal(t, 50, decoded.Bounds().Dy())

	out, err = Normalize(prompt.ImageData{Data: jpg}, 0)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", out.MIMEType)

	_, err = Normalize(prompt.ImageData{Data: []byte("<svg/>")}, 100)
	assert.Error(t, err)
}

func TestFetch(t *testing.T) {
	pngData := encodePNG(t, 16, 16)
	bigJPEG := encodeJPEG(t, 2048, 1024)

	mux := http.NewServeMux()
	mux.HandleFunc("/a.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngData)
	})
	mux.HandleFunc("/untyped", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(bigJPEG)
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>not an image</body></html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := NewFetcher("")
	images, err := fetcher.Fetch(context.Background(), []string{
		server.URL + "/a.png",
		server.URL + "/page",
		server.URL + "/missing.png",
		server.URL + "/untyped",
	})
	require.NoError(t, err)
	require.Len(t, images, 2)

	assert.Equal(t, prompt.ImageData{MIMEType: "image/png", Data: pngData}, images[0])

	assert.Equal(t, "image/png", images[1].MIMEType)
	decoded, err := png.Decode(bytes.NewReader(images[1].Data))
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxDimension, decoded.Bounds().Dx())
}

func TestFetchRespectsLimitsAndDomains(t *testing.T) {
	pngData := encodePNG(t, 8, 8)
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		assert.Empty(t, r.Header.Get("Authorization"), "token is only sent to GitHub hosts")
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngData)
	}))
	defer server.Close()

	fetcher := NewFetcher("ghs_token")
	fetcher.Limit = 1
	images, err := fetcher.Fetch(context.Background(), []string{server.URL + "/1.png", server.URL + "/2.png"})
	require.NoError(t, err)
	assert.Len(t, images, 1)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))

	fetcher.AllowedDomains = []string{"githubusercontent.com"}
	images, err = fetcher.Fetch(context.Background(), []string{server.URL + "/1.png"})
	require.NoError(t, err)
	assert.Empty(t, images)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewFetcher("").Fetch(ctx, []string{server.URL + "/1.png"})
	assert.Error(t, err)
}

func TestCollect(t *testing.T) {
	pngData := encodePNG(t, 8, 8)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngData)
	}))
	defer server.Close()

	provided := []prompt.ImageData{{MIMEType: "image/png", Data: []byte{1}}}
	images, err := NewFetcher("").Collect(context.Background(), prompt.IssueContext{ReferenceImages: provided})
	require.NoError(t, err)
	assert.Equal(t, provided, images)

	images, err = NewFetcher("").Collect(context.Background(), prompt.IssueContext{
		IssueBody:     "![screen](" + server.URL + "/issue.png)",
		CommentBody:   "@eidosai modify darker ![same](" + server.URL + "/issue.png)",
		IsFromComment: true,
	})
	require.NoError(t, err)
	assert.Len(t, images, 1, "duplicate URLs are fetched once")
}

func TestHostMatches(t *testing.T) {
	assert.True(t, hostMatches("github.com", githubHosts))
	assert.True(t, hostMatches("user-images.githubusercontent.com", githubHosts))
	assert.False(t, hostMatches("evilgithub.com", githubHosts))
}

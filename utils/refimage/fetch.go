package refimage

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/eidosai/eidos/utils/config"
	"github.com/eidosai/eidos/utils/fileutil"
	"github.com/eidosai/eidos/utils/prompt"
	"github.com/gocolly/colly/v2"
)

const userAgent = "Mozilla/5.0 (compatible; eidos/1.0; +https://github.com/eidosai/eidos)"

// githubHosts serve issue attachments that need the token for private repositories
var githubHosts = []string{"github.com", "githubusercontent.com"}

// Fetcher downloads reference images
type Fetcher struct {
	// Token is sent as a bearer token to GitHub attachment hosts when set
	Token string
	// AllowedDomains restricts downloads to these hosts and their subdomains; empty allows all
	AllowedDomains []string
	// MaxDimension bounds the longest side of each image after download
	MaxDimension int
	// Limit caps how many images are fetched; zero means no cap
	Limit int
}

// NewFetcher creates a fetcher with default limits
func NewFetcher(token string) *Fetcher {
	return &Fetcher{Token: token, MaxDimension: DefaultMaxDimension, Limit: 4}
}

func hostMatches(host string, domains []string) bool {
	host = strings.ToLower(host)
	for _, domain := range domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func (f *Fetcher) newCollector(ctx context.Context) *colly.Collector {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.UserAgent(userAgent),
		colly.MaxBodySize(fileutil.MaxImageSize),
		colly.StdlibContext(ctx),
	)

	c.OnRequest(func(r *colly.Request) {
		if len(f.AllowedDomains) > 0 && !hostMatches(r.URL.Hostname(), f.AllowedDomains) {
			config.VerboseLog("Skipping reference image from disallowed domain: %s", r.URL.Host)
			r.Abort()
			return
		}
		if f.Token != "" && hostMatches(r.URL.Hostname(), githubHosts) {
			r.Headers.Set("Authorization", "Bearer "+f.Token)
		}
		r.Headers.Set("Accept", "image/*")
	})
	return c
}

// Fetch downloads the images at urls in order, skipping anything that is not a decodable image.
// Only a cancelled context is an error; individual failures are logged.
func (f *Fetcher) Fetch(ctx context.Context, urls []string) ([]prompt.ImageData, error) {
	var images []prompt.ImageData
	if len(urls) == 0 {
		return images, nil
	}

	c := f.newCollector(ctx)

	var current *prompt.ImageData
	c.OnResponse(func(r *colly.Response) {
		mimeType := strings.TrimSpace(strings.Split(r.Headers.Get("Content-Type"), ";")[0])
		if !strings.HasPrefix(mimeType, "image/") {
			mimeType = http.DetectContentType(r.Body)
		}
		if !strings.HasPrefix(mimeType, "image/") {
			config.VerboseLog("Skipping %s: not an image (%s)", r.Request.URL, mimeType)
			return
		}
		current = &prompt.ImageData{MIMEType: mimeType, Data: r.Body}
	})

	for _, u := range urls {
		if f.Limit > 0 && len(images) >= f.Limit {
			config.VerboseLog("Reference image limit of %d reached, ignoring the rest", f.Limit)
			break
		}
		if err := ctx.Err(); err != nil {
			return images, err
		}

		current = nil
		if err := c.Visit(u); err != nil {
			if ctx.Err() != nil {
				return images, ctx.Err()
			}
			config.VerboseLog("Failed to fetch reference image %s: %v", u, err)
			continue
		}
		if current == nil {
			continue
		}

		normalized, err := Normalize(*current, f.MaxDimension)
		if err != nil {
			config.VerboseLog("Skipping reference image %s: %v", u, err)
			continue
		}
		config.DebugLog("Fetched reference image %s (%s, %d bytes)", u, normalized.MIMEType, len(normalized.Data))
		images = append(images, normalized)
	}
	return images, nil
}

// Collect returns the reference images for an issue: those already attached to the context,
// otherwise the images linked from the comment and then the issue body.
func (f *Fetcher) Collect(ctx context.Context, issue prompt.IssueContext) ([]prompt.ImageData, error) {
	if issue.HasReferenceImages() {
		return issue.ReferenceImages, nil
	}
	urls := ExtractURLs(issue.CommentBody)
	if issue.IsFromComment {
		urls = append(urls, ExtractURLs(issue.IssueBody)...)
	}
	images, err := f.Fetch(ctx, dedupe(urls))
	if err != nil {
		return nil, fmt.Errorf("error fetching reference images: %w", err)
	}
	return images, nil
}

func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := urls[:0]
	for _, u := range urls {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

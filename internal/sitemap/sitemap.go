// Package sitemap renders sitemap.xml and robots.txt for the public site.
package sitemap

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

const xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

// StaticRoutes are the brochure pages that always exist.
var StaticRoutes = []string{
	"/",
	"/about",
	"/services",
	"/blogs",
	"/gallery",
	"/testimonials",
	"/faqs",
	"/contact",
}

// Exclude lists path patterns that never appear in the sitemap. A trailing
// "/*" matches everything below the prefix.
var Exclude = []string{"/api/*", "/admin", "/admin/*"}

// SlugSource provides the dynamic pages.
type SlugSource interface {
	BlogSlugs(ctx context.Context) ([]string, error)
	AlbumSlugs(ctx context.Context) ([]string, error)
}

// Options control the generated files.
type Options struct {
	SiteURL    string
	ChangeFreq string
	Priority   float64
	LastMod    time.Time // zero omits <lastmod>
}

// DefaultOptions mirrors the site's published sitemap settings.
func DefaultOptions(siteURL string) Options {
	return Options{SiteURL: siteURL, ChangeFreq: "weekly", Priority: 0.7}
}

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []entry  `xml:"url"`
}

type entry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// Routes returns every public path: the static pages followed by
// /blog/{slug} and /gallery/{slug}, sorted within each group, with
// excluded and duplicate paths removed.
func Routes(ctx context.Context, src SlugSource) ([]string, error) {
	routes := append([]string(nil), StaticRoutes...)
	if src == nil {
		return filter(routes), nil
	}

	blogs, err := src.BlogSlugs(ctx)
	if err != nil {
		return nil, fmt.Errorf("blog slugs: %w", err)
	}
	albums, err := src.AlbumSlugs(ctx)
	if err != nil {
		return nil, fmt.Errorf("album slugs: %w", err)
	}

	routes = append(routes, slugRoutes("/blog", blogs)...)
	routes = append(routes, slugRoutes("/gallery", albums)...)
	return filter(routes), nil
}

func slugRoutes(prefix string, slugs []string) []string {
	out := make([]string, 0, len(slugs))
	for _, s := range slugs {
		s = strings.Trim(strings.TrimSpace(s), "/")
		if s == "" || s == "." || s == ".." {
			continue
		}
		out = append(out, prefix+"/"+url.PathEscape(s))
	}
	sort.Strings(out)
	return out
}

func filter(routes []string) []string {
	seen := make(map[string]bool, len(routes))
	out := routes[:0]
	for _, r := range routes {
		if seen[r] || excluded(r) {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

func excluded(route string) bool {
	for _, pattern := range Exclude {
		if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
			if strings.HasPrefix(route, prefix+"/") {
				return true
			}
			continue
		}
		if route == pattern {
			return true
		}
	}
	return false
}

// XML renders the sitemap for routes.
func XML(routes []string, opts Options) ([]byte, error) {
	base := strings.TrimRight(opts.SiteURL, "/")
	set := urlset{Xmlns: xmlns, URLs: make([]entry, 0, len(routes))}

	var lastMod, priority string
	if !opts.LastMod.IsZero() {
		lastMod = opts.LastMod.UTC().Format(time.RFC3339)
	}
	if opts.Priority > 0 {
		priority = fmt.Sprintf("%.1f", opts.Priority)
	}
	for _, r := range routes {
		loc := base + r
		if r == "/" {
			loc = base
		}
		set.URLs = append(set.URLs, entry{
			Loc:        loc,
			LastMod:    lastMod,
			ChangeFreq: opts.ChangeFreq,
			Priority:   priority,
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Robots renders robots.txt: everything allowed except the API and the
// admin area, plus a pointer to the sitemap.
func Robots(siteURL string) []byte {
	base := strings.TrimRight(siteURL, "/")
	var b strings.Builder
	b.WriteString("# *\nUser-agent: *\nAllow: /\n\n")
	b.WriteString("# *\nUser-agent: *\nDisallow: /api\nDisallow: /admin\nDisallow: /admin/*\n\n")
	b.WriteString("# Host\nHost: " + base + "\n\n")
	b.WriteString("# Sitemaps\nSitemap: " + base + "/sitemap.xml\n")
	return []byte(b.String())
}

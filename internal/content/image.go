package content

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ImageOptions are the transformations appended to an image URL.
type ImageOptions struct {
	Width      int
	Height     int
	Fit        string // clip, crop, fill, fillmax, max, scale, min
	Quality    int
	AutoFormat bool
}

var validFits = map[string]bool{
	"clip": true, "crop": true, "fill": true, "fillmax": true,
	"max": true, "scale": true, "min": true,
}

// ImageURL turns an image asset reference of the form
// image-<id>-<width>x<height>-<ext> into a CDN URL.
func (c *Client) ImageURL(ref string, opts ImageOptions) (string, error) {
	rest, ok := strings.CutPrefix(ref, "image-")
	if !ok {
		return "", fmt.Errorf("not an image reference: %q", ref)
	}
	extAt := strings.LastIndexByte(rest, '-')
	if extAt <= 0 {
		return "", fmt.Errorf("malformed image reference: %q", ref)
	}
	ext := rest[extAt+1:]
	rest = rest[:extAt]

	dimAt := strings.LastIndexByte(rest, '-')
	if dimAt <= 0 {
		return "", fmt.Errorf("malformed image reference: %q", ref)
	}
	id, dims := rest[:dimAt], rest[dimAt+1:]
	w, h, ok := strings.Cut(dims, "x")
	if !ok || !isDigits(w) || !isDigits(h) || ext == "" {
		return "", fmt.Errorf("malformed image reference: %q", ref)
	}

	u := fmt.Sprintf("%s/images/%s/%s/%s-%s.%s", c.cdnBase, c.cfg.ProjectID, c.cfg.Dataset, id, dims, ext)

	q := url.Values{}
	if opts.Width > 0 {
		q.Set("w", strconv.Itoa(opts.Width))
	}
	if opts.Height > 0 {
		q.Set("h", strconv.Itoa(opts.Height))
	}
	if opts.Fit != "" {
		if !validFits[opts.Fit] {
			return "", fmt.Errorf("invalid fit %q", opts.Fit)
		}
		q.Set("fit", opts.Fit)
	}
	if opts.Quality > 0 {
		q.Set("q", strconv.Itoa(min(opts.Quality, 100)))
	}
	if opts.AutoFormat {
		q.Set("auto", "format")
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u, nil
}

// FileURL turns a file asset reference (file-<id>-<ext>), used for album
// videos, into a CDN URL.
func (c *Client) FileURL(ref string) (string, error) {
	rest, ok := strings.CutPrefix(ref, "file-")
	if !ok {
		return "", fmt.Errorf("not a file reference: %q", ref)
	}
	extAt := strings.LastIndexByte(rest, '-')
	if extAt <= 0 || extAt == len(rest)-1 {
		return "", fmt.Errorf("malformed file reference: %q", ref)
	}
	return fmt.Sprintf("%s/files/%s/%s/%s.%s", c.cdnBase, c.cfg.ProjectID, c.cfg.Dataset, rest[:extAt], rest[extAt+1:]), nil
}

// AssetURL dispatches on the reference kind.
func (c *Client) AssetURL(ref string) (string, error) {
	if strings.HasPrefix(ref, "file-") {
		return c.FileURL(ref)
	}
	return c.ImageURL(ref, ImageOptions{AutoFormat: true})
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

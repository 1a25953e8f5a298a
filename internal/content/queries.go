package content

import (
	"context"
	"errors"

	"github.com/clinicsite/clinicsite/internal/model"
)

// ErrNotFound is returned when a document addressed by slug does not exist.
var ErrNotFound = errors.New("content not found")

const (
	defaultFAQTitle     = "Frequently Asked Questions"
	defaultGalleryTitle = "Gallery"
	homeFAQLimit        = 5
	relatedBlogLimit    = 3
)

const (
	queryHome            = `*[_type == "home"][0]`
	queryFAQPage         = `*[_type == "faqsPage"][0]{pageTitle, faqs}`
	queryTestimonials    = `*[_type == "testimonial" && approved == true] | order(_createdAt desc){_id, name, content, date}`
	queryAllTestimonials = `*[_type == "testimonial"] | order(_createdAt desc){_id, name, content, date, approved}`
	queryServices        = `*[_type == "services"][0].servicesList`
	queryAbout           = `*[_type == "about"][0]`
	queryBlogs           = `*[_type == "blog"] | order(publishedAt desc){title, slug, publishedAt, excerpt, coverImage}`
	queryBlogSlugs       = `*[_type == "blog" && defined(slug.current)].slug.current`
	queryBlogBySlug      = `*[_type == "blog" && slug.current == $slug][0]`
	queryRelatedBlogs    = `*[_type == "blog" && slug.current != $slug] | order(publishedAt desc)[0...$limit]{title, slug, excerpt, coverImage}`
	queryGallery         = `*[_type == "gallery"][0]{title, description, images[]{image, title, description}}`
	queryAlbumSlugs      = `*[_type == "gallery"][0].albums[].slug.current`
	queryAlbumBySlug     = `*[_type == "gallery"][0].albums[slug.current == $slug][0]`
)

// Pages fetches the typed documents behind each brochure page, going
// through the cache when one is configured. Asset URLs are resolved on
// every document it returns.
type Pages struct {
	client *Client
	cache  *Cache
}

// NewPages wires a client to an optional cache.
func NewPages(client *Client, cache *Cache) *Pages {
	return &Pages{client: client, cache: cache}
}

// Client returns the underlying query client.
func (p *Pages) Client() *Client { return p.client }

// Home assembles the home page: the home document, the first five FAQs and
// the approved testimonials.
func (p *Pages) Home(ctx context.Context) (*model.HomePage, error) {
	return cached(ctx, p.cache, "home", DefaultTTL, func(ctx context.Context) (*model.HomePage, error) {
		home := &model.HomePage{}
		if err := p.client.Query(ctx, queryHome, nil, home); err != nil {
			return nil, err
		}
		faqs, err := p.FAQs(ctx)
		if err != nil {
			return nil, err
		}
		testimonials, err := p.Testimonials(ctx)
		if err != nil {
			return nil, err
		}

		home.FAQContent = faqs.FAQs[:min(len(faqs.FAQs), homeFAQLimit)]
		home.Testimonials = testimonials
		if home.ScrollingBanner == nil {
			home.ScrollingBanner = []model.Banner{}
		}
		if home.Services == nil {
			home.Services = []model.HomeService{}
		}
		if home.MedicalServicesList == nil {
			home.MedicalServicesList = []model.MedicalService{}
		}

		p.resolveAsset(home.HeroImage)
		for i := range home.ScrollingBanner {
			p.resolveAsset(home.ScrollingBanner[i].BannerImage)
		}
		for i := range home.Services {
			p.resolveAsset(home.Services[i].ServiceImage)
		}
		for i := range home.MedicalServicesList {
			p.resolveAsset(home.MedicalServicesList[i].ServiceImage)
		}
		return home, nil
	})
}

// FAQs returns the FAQ page, defaulting its title.
func (p *Pages) FAQs(ctx context.Context) (*model.FAQPage, error) {
	return cached(ctx, p.cache, "faqs", DefaultTTL, func(ctx context.Context) (*model.FAQPage, error) {
		page := &model.FAQPage{}
		if err := p.client.Query(ctx, queryFAQPage, nil, page); err != nil {
			return nil, err
		}
		if page.PageTitle == "" {
			page.PageTitle = defaultFAQTitle
		}
		if page.FAQs == nil {
			page.FAQs = []model.FAQ{}
		}
		return page, nil
	})
}

// Testimonials returns approved testimonials, newest first.
func (p *Pages) Testimonials(ctx context.Context) ([]model.Testimonial, error) {
	return cached(ctx, p.cache, "testimonials", TestimonialsTTL, func(ctx context.Context) ([]model.Testimonial, error) {
		return p.testimonials(ctx, queryTestimonials)
	})
}

// AllTestimonials includes testimonials still awaiting approval. It is
// never cached and only used by operator tooling.
func (p *Pages) AllTestimonials(ctx context.Context) ([]model.Testimonial, error) {
	return p.testimonials(ctx, queryAllTestimonials)
}

func (p *Pages) testimonials(ctx context.Context, query string) ([]model.Testimonial, error) {
	out := []model.Testimonial{}
	if err := p.client.Query(ctx, query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Services returns the services page list.
func (p *Pages) Services(ctx context.Context) ([]model.ServiceItem, error) {
	return cached(ctx, p.cache, "services", DefaultTTL, func(ctx context.Context) ([]model.ServiceItem, error) {
		out := []model.ServiceItem{}
		if err := p.client.Query(ctx, queryServices, nil, &out); err != nil {
			return nil, err
		}
		for i := range out {
			p.resolveAsset(out[i].Image)
		}
		return out, nil
	})
}

// About returns the about page.
func (p *Pages) About(ctx context.Context) (*model.AboutPage, error) {
	return cached(ctx, p.cache, "about", DefaultTTL, func(ctx context.Context) (*model.AboutPage, error) {
		about := &model.AboutPage{}
		if err := p.client.Query(ctx, queryAbout, nil, about); err != nil {
			return nil, err
		}
		if about.HighlightedFacts == nil {
			about.HighlightedFacts = []model.Fact{}
		}
		if about.Awards == nil {
			about.Awards = []model.Award{}
		}
		if about.EducationAndTraining == nil {
			about.EducationAndTraining = []byte("[]")
		}
		if about.Expertise == nil {
			about.Expertise = []string{}
		}
		if about.Experience == nil {
			about.Experience = []string{}
		}
		if about.Memberships == nil {
			about.Memberships = []string{}
		}
		if about.PersonalInterests == nil {
			about.PersonalInterests = []model.Hobby{}
		}

		p.resolveAsset(about.Section1BannerImage)
		p.resolveAsset(about.WhyImage)
		for i := range about.HighlightedFacts {
			p.resolveAsset(about.HighlightedFacts[i].Image)
		}
		for i := range about.Awards {
			p.resolveAsset(about.Awards[i].AwardImage)
		}
		for i := range about.PersonalInterests {
			p.resolveAsset(about.PersonalInterests[i].Image)
		}
		return about, nil
	})
}

// Blogs lists blog posts, newest first, without bodies.
func (p *Pages) Blogs(ctx context.Context) ([]model.BlogPost, error) {
	return cached(ctx, p.cache, "blogs", DefaultTTL, func(ctx context.Context) ([]model.BlogPost, error) {
		out := []model.BlogPost{}
		if err := p.client.Query(ctx, queryBlogs, nil, &out); err != nil {
			return nil, err
		}
		p.resolvePosts(out)
		return out, nil
	})
}

// BlogSlugs lists the slug of every blog post.
func (p *Pages) BlogSlugs(ctx context.Context) ([]string, error) {
	return cached(ctx, p.cache, "blog-slugs", DefaultTTL, func(ctx context.Context) ([]string, error) {
		out := []string{}
		if err := p.client.Query(ctx, queryBlogSlugs, nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// BlogBySlug returns the post with the given slug and up to three other
// posts, newest first. ErrNotFound when no post has that slug.
func (p *Pages) BlogBySlug(ctx context.Context, slug string) (*model.BlogDetail, error) {
	return cached(ctx, p.cache, "blog:"+slug, DefaultTTL, func(ctx context.Context) (*model.BlogDetail, error) {
		var post *model.BlogPost
		if err := p.client.Query(ctx, queryBlogBySlug, map[string]any{"slug": slug}, &post); err != nil {
			return nil, err
		}
		if post == nil {
			return nil, ErrNotFound
		}
		related, err := p.RelatedBlogs(ctx, slug, relatedBlogLimit)
		if err != nil {
			return nil, err
		}
		p.resolveAsset(post.CoverImage)
		return &model.BlogDetail{Post: *post, Related: related}, nil
	})
}

// RelatedBlogs returns up to limit posts other than slug, newest first.
func (p *Pages) RelatedBlogs(ctx context.Context, slug string, limit int) ([]model.BlogPost, error) {
	if limit <= 0 {
		return []model.BlogPost{}, nil
	}
	out := []model.BlogPost{}
	params := map[string]any{"slug": slug, "limit": limit}
	if err := p.client.Query(ctx, queryRelatedBlogs, params, &out); err != nil {
		return nil, err
	}
	p.resolvePosts(out)
	return out, nil
}

// Gallery returns the gallery landing page, defaulting its title.
func (p *Pages) Gallery(ctx context.Context) (*model.Gallery, error) {
	return cached(ctx, p.cache, "gallery", DefaultTTL, func(ctx context.Context) (*model.Gallery, error) {
		g := &model.Gallery{}
		if err := p.client.Query(ctx, queryGallery, nil, g); err != nil {
			return nil, err
		}
		if g.Title == "" {
			g.Title = defaultGalleryTitle
		}
		if g.Images == nil {
			g.Images = []model.GalleryImage{}
		}
		for i := range g.Images {
			p.resolveAsset(g.Images[i].Image)
		}
		return g, nil
	})
}

// AlbumSlugs lists the slug of every album.
func (p *Pages) AlbumSlugs(ctx context.Context) ([]string, error) {
	return cached(ctx, p.cache, "album-slugs", DefaultTTL, func(ctx context.Context) ([]string, error) {
		out := []string{}
		if err := p.client.Query(ctx, queryAlbumSlugs, nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// AlbumBySlug returns one album. ErrNotFound when no album has that slug.
func (p *Pages) AlbumBySlug(ctx context.Context, slug string) (*model.Album, error) {
	return cached(ctx, p.cache, "album:"+slug, DefaultTTL, func(ctx context.Context) (*model.Album, error) {
		var album *model.Album
		if err := p.client.Query(ctx, queryAlbumBySlug, map[string]any{"slug": slug}, &album); err != nil {
			return nil, err
		}
		if album == nil {
			return nil, ErrNotFound
		}
		if album.Photos == nil {
			album.Photos = []model.Asset{}
		}
		for i := range album.Photos {
			p.resolveAsset(&album.Photos[i])
		}
		return album, nil
	})
}

func (p *Pages) resolvePosts(posts []model.BlogPost) {
	for i := range posts {
		p.resolveAsset(posts[i].CoverImage)
	}
}

// resolveAsset fills a.URL. Unparseable references are left without a URL
// rather than failing the whole page.
func (p *Pages) resolveAsset(a *model.Asset) {
	if a == nil || a.Asset.Ref == "" {
		return
	}
	if u, err := p.client.AssetURL(a.Asset.Ref); err == nil {
		a.URL = u
	}
}

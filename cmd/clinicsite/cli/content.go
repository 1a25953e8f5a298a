package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clinicsite/clinicsite/internal/content"
)

func newContentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Query the site's content project",
		Long:  "Fetch brochure page documents and resolve asset URLs using the configured content project.",
	}

	cmd.AddCommand(newContentGetCmd())
	cmd.AddCommand(newContentImageURLCmd())

	return cmd
}

// contentPageNames are the documents `content get` can fetch.
var contentPageNames = []string{"home", "about", "services", "faqs", "testimonials", "blogs", "blog", "gallery", "album"}

func newContentGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <page> [slug]",
		Short: "Print a page document as JSON",
		Long:  "Print a page document as JSON. Pages: " + strings.Join(contentPageNames, ", ") + ". blog and album take a slug.",
		Example: `  clinicsite content get faqs
  clinicsite content get blog pcos-diet-tips`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pages, err := requirePages(cfg, newLogger(cfg))
			if err != nil {
				return err
			}
			slug := ""
			if len(args) == 2 {
				slug = args[1]
			}
			doc, err := fetchPage(cmd.Context(), pages, strings.ToLower(args[0]), slug)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), doc)
		},
	}
	return cmd
}

func fetchPage(ctx context.Context, pages *content.Pages, name, slug string) (any, error) {
	needSlug := name == "blog" || name == "album"
	if needSlug && slug == "" {
		return nil, fmt.Errorf("%s requires a slug", name)
	}
	switch name {
	case "home":
		return pages.Home(ctx)
	case "about":
		return pages.About(ctx)
	case "services":
		return pages.Services(ctx)
	case "faqs":
		return pages.FAQs(ctx)
	case "testimonials":
		return pages.AllTestimonials(ctx)
	case "blogs":
		return pages.Blogs(ctx)
	case "blog":
		return pages.BlogBySlug(ctx, slug)
	case "gallery":
		return pages.Gallery(ctx)
	case "album":
		return pages.AlbumBySlug(ctx, slug)
	default:
		return nil, fmt.Errorf("unknown page %q; want one of %s", name, strings.Join(contentPageNames, ", "))
	}
}

func newContentImageURLCmd() *cobra.Command {
	var opts content.ImageOptions

	cmd := &cobra.Command{
		Use:     "image-url <asset-ref>",
		Short:   "Resolve an image or file asset reference to its CDN URL",
		Example: `  clinicsite content image-url image-abc123-800x600-jpg --width 400 --fit crop`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pages, err := requirePages(cfg, newLogger(cfg))
			if err != nil {
				return err
			}
			ref := args[0]
			var u string
			if strings.HasPrefix(ref, "file-") {
				u, err = pages.Client().FileURL(ref)
			} else {
				u, err = pages.Client().ImageURL(ref, opts)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Width, "width", 0, "Resize to this width")
	cmd.Flags().IntVar(&opts.Height, "height", 0, "Resize to this height")
	cmd.Flags().StringVar(&opts.Fit, "fit", "", "Fit mode: clip, crop, fill, fillmax, max, scale, min")
	cmd.Flags().IntVar(&opts.Quality, "quality", 0, "JPEG/WebP quality 1-100")
	cmd.Flags().BoolVar(&opts.AutoFormat, "auto-format", true, "Let the CDN pick the best format")

	return cmd
}

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/clinicsite/clinicsite/internal/sitemap"
)

func newSitemapCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "sitemap",
		Short: "Write sitemap.xml and robots.txt",
		Long: `Generate sitemap.xml and robots.txt for the public site. Blog posts and
gallery albums are included when a content project is configured.`,
		Example: `  clinicsite sitemap --out ./public`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Server.SiteURL == "" {
				return fmt.Errorf("server.site_url is required")
			}
			pages, err := openPages(cfg, newLogger(cfg))
			if err != nil {
				return err
			}

			var src sitemap.SlugSource
			if pages != nil {
				src = pages
			}
			routes, err := sitemap.Routes(context.Background(), src)
			if err != nil {
				return fmt.Errorf("collect routes: %w", err)
			}

			opts := sitemap.DefaultOptions(cfg.Server.SiteURL)
			opts.LastMod = time.Now()
			xml, err := sitemap.XML(routes, opts)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			files := map[string][]byte{
				"sitemap.xml": xml,
				"robots.txt":  sitemap.Robots(cfg.Server.SiteURL),
			}
			for name, data := range files {
				p := filepath.Join(outDir, name)
				if err := os.WriteFile(p, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", p, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", p)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d URLs\n", len(routes))
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", ".", "Directory to write the files to")

	return cmd
}

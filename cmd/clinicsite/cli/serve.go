package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clinicsite/clinicsite/internal/server"
	"github.com/clinicsite/clinicsite/internal/service"
	"github.com/clinicsite/clinicsite/internal/store"
)

func newServeCmd() *cobra.Command {
	var dev bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long:  "Start the HTTP server for the contact form, the admin session and submissions API, and the content routes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), dev)
		},
	}

	cmd.Flags().IntP("port", "p", 8080, "HTTP listen port")
	cmd.Flags().String("host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().String("site-url", "", "public site URL used in the sitemap")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (debug logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	viper.BindPFlag("server.site_url", cmd.Flags().Lookup("site-url"))

	return cmd
}

func runServe(ctx context.Context, dev bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dev {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	logger := newLogger(cfg)

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Info("database ready", "driver", st.Driver(), "dsn", store.RedactDSN(st.Driver(), cfg.Database.DSN))

	authSvc, closeAuth, err := newAuthService(ctx, cfg, st)
	if err != nil {
		return err
	}
	defer closeAuth()

	if cfg.Captcha.Disabled {
		logger.Warn("captcha verification is disabled; contact submissions are not checked")
	}
	contactSvc := service.NewContactService(st, newVerifier(cfg))

	pages, err := openPages(cfg, logger)
	if err != nil {
		return err
	}
	if pages == nil {
		logger.Warn("content.project_id is not set; content routes are disabled")
	}

	admins, err := st.ListAdmins(ctx)
	if err != nil {
		logger.Warn("failed to check for admin", "error", err)
	} else if len(admins) == 0 {
		logger.Warn("no admin account found - run: clinicsite admin create --email you@example.com")
	}

	srv := server.New(server.Config{
		Host:             cfg.Server.Host,
		Port:             cfg.Server.Port,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
		CORSOrigins:      cfg.Server.CORSOrigins,
		MaxBodySize:      cfg.Server.MaxBodySize,
		SiteURL:          cfg.Server.SiteURL,
		Production:       cfg.Server.Production,
		CookieDomain:     cfg.Server.CookieDomain,
		ContactRateLimit: cfg.Server.ContactRateLimit,
		LoginRateLimit:   cfg.Server.LoginRateLimit,
		Version:          appVersion,
	}, server.Deps{
		Store:   st,
		Auth:    authSvc,
		Contact: contactSvc,
		Pages:   pages,
	}, logger)

	fmt.Printf("→ clinicsite %s\n", appVersion)
	fmt.Printf("→ Listening on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ OpenAPI:    http://%s:%d/openapi.json\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Health:     http://%s:%d/healthz\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()

	return srv.ListenAndServe()
}

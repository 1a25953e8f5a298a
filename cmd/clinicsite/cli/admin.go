package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clinicsite/clinicsite/internal/config"
	"github.com/clinicsite/clinicsite/internal/model"
	"github.com/clinicsite/clinicsite/internal/service"
	"github.com/clinicsite/clinicsite/internal/store"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin users",
		Long:  "Create, list, enable, disable and reset the password of the accounts that can read contact submissions.",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminListCmd())
	cmd.AddCommand(newAdminSetActiveCmd("disable", "Disable an admin user", false))
	cmd.AddCommand(newAdminSetActiveCmd("enable", "Re-enable a disabled admin user", true))
	cmd.AddCommand(newAdminPasswdCmd())
	cmd.AddCommand(newAdminTokenCmd())

	return cmd
}

// ---------- admin create ----------

func newAdminCreateCmd() *cobra.Command {
	var (
		email    string
		password string
		inactive bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new admin user",
		Example: `  clinicsite admin create --email doctor@example.com --password secret123
  clinicsite admin create --email doctor@example.com  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkEmail(email); err != nil {
				return err
			}
			if password == "" {
				pw, err := promptPassword()
				if err != nil {
					return err
				}
				password = pw
			}
			hash, err := service.HashPassword(password)
			if err != nil {
				return err
			}

			return withStore(func(ctx context.Context, st *store.Store) error {
				admin := &model.Admin{Email: email, PasswordHash: hash, IsActive: !inactive}
				if err := st.CreateAdmin(ctx, admin); err != nil {
					if errors.Is(err, store.ErrDuplicate) {
						return fmt.Errorf("admin %q already exists", store.NormalizeEmail(email))
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created admin user %q (id %s)\n", admin.Email, admin.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "Create the account disabled")
	cmd.MarkFlagRequired("email")

	return cmd
}

// ---------- admin list ----------

func newAdminListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all admin users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, st *store.Store) error {
				admins, err := st.ListAdmins(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput {
					return printJSON(out, admins)
				}
				if len(admins) == 0 {
					fmt.Fprintln(out, "No admin users configured. Use 'clinicsite admin create' to create one.")
					return nil
				}
				fmt.Fprintf(out, "%-36s %-30s %-8s %s\n", "ID", "EMAIL", "ACTIVE", "CREATED")
				for _, a := range admins {
					fmt.Fprintf(out, "%-36s %-30s %-8s %s\n", a.ID, a.Email, yesNo(a.IsActive), a.CreatedAt.Format("2006-01-02"))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// ---------- admin enable / disable ----------

func newAdminSetActiveCmd(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <email>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, st *store.Store) error {
				if err := st.SetAdminActive(ctx, args[0], active); err != nil {
					if errors.Is(err, store.ErrNotFound) {
						return fmt.Errorf("admin %q not found", store.NormalizeEmail(args[0]))
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Admin %q active: %s\n", store.NormalizeEmail(args[0]), yesNo(active))
				return nil
			})
		},
	}
}

// ---------- admin passwd ----------

func newAdminPasswdCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "passwd <email>",
		Short: "Set an admin user's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				pw, err := promptPassword()
				if err != nil {
					return err
				}
				password = pw
			}
			hash, err := service.HashPassword(password)
			if err != nil {
				return err
			}
			return withStore(func(ctx context.Context, st *store.Store) error {
				if err := st.SetAdminPassword(ctx, args[0], hash); err != nil {
					if errors.Is(err, store.ErrNotFound) {
						return fmt.Errorf("admin %q not found", store.NormalizeEmail(args[0]))
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %q\n", store.NormalizeEmail(args[0]))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "New password (prompted if omitted)")

	return cmd
}

// ---------- admin token ----------

func newAdminTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <email>",
		Short: "Issue a session token for MCP HTTP clients",
		Long: `Issue a session token for an active admin, printed on stdout. Present it
to 'clinicsite mcp --transport http' as "Authorization: Bearer <token>". The
token expires after auth.session_ttl like a browser session.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateAuth(); err != nil {
				return err
			}
			return withStore(func(ctx context.Context, st *store.Store) error {
				token, claims, err := issueAdminToken(ctx, cfg, st, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				fmt.Fprintf(cmd.ErrOrStderr(), "Token for %q expires %s\n", claims.Email, claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
				return nil
			})
		},
	}
}

func issueAdminToken(ctx context.Context, cfg *config.Config, st *store.Store, email string) (string, *service.SessionClaims, error) {
	admin, err := st.GetAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, fmt.Errorf("admin %q not found", store.NormalizeEmail(email))
		}
		return "", nil, err
	}
	if !admin.IsActive {
		return "", nil, fmt.Errorf("admin %q is disabled", admin.Email)
	}

	authSvc, closeAuth, err := newAuthService(ctx, cfg, st)
	if err != nil {
		return "", nil, err
	}
	defer closeAuth()
	return authSvc.IssueSession(ctx, admin)
}

// withStore opens the configured database for the duration of fn.
func withStore(fn func(ctx context.Context, st *store.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(ctx, st)
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/Strob0t/PropertyHub/internal/authz"
	"github.com/Strob0t/PropertyHub/internal/config"
	"github.com/Strob0t/PropertyHub/internal/domain/tenant"
	"github.com/Strob0t/PropertyHub/internal/domain/user"
	"github.com/Strob0t/PropertyHub/internal/service"
	"github.com/Strob0t/PropertyHub/internal/tenancy"
)

// cliIdentity is the principal admin commands act as.
var cliIdentity = tenancy.Identity{
	UserID: "cli",
	Roles:  user.Roles{user.RolePlatformAdmin},
	Source: tenancy.SourceInternal,
}

// runAdmin dispatches admin subcommands.
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "create-tenant":
		return runAdminCreateTenant(args[1:])
	case "list-tenants":
		return runAdminListTenants(args[1:])
	case "create-platform-admin":
		return runAdminCreatePlatformAdmin(args[1:])
	case "create-user":
		return runAdminCreateUser(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: propertyhub admin <command> [options]

Commands:
  create-tenant           Create a tenant
  list-tenants            List all tenants
  create-platform-admin   Create a platform administrator
  create-user             Create a user inside a tenant
  help                    Show this help message

Examples:
  propertyhub admin create-tenant --key acme --name "Acme Towers"
  propertyhub admin create-platform-admin --email root@example.com --name Root
  propertyhub admin create-user --tenant acme --email ada@acme.example --name Ada --roles tenant_admin
`)
}

type adminDeps struct {
	auth    *service.AuthService
	tenants *service.TenantService
	cleanup func()
}

func loadAdminDeps(ctx context.Context) (*adminDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Storage.Driver != "postgres" {
		return nil, errors.New("admin commands require the postgres storage driver")
	}

	st, err := openStores(ctx, cfg, false)
	if err != nil {
		return nil, err
	}

	gate := authz.NewGate(nil)
	return &adminDeps{
		auth:    service.NewAuthService(st.users, service.NewTokenIssuer(cfg.Auth), gate, cfg.Auth),
		tenants: service.NewTenantService(st.tenants, gate, nil, nil, nil),
		cleanup: st.close,
	}, nil
}

func runAdminCreateTenant(args []string) error {
	fs := flag.NewFlagSet("create-tenant", flag.ContinueOnError)
	key := fs.String("key", "", "public tenant key (required)")
	name := fs.String("name", "", "display name (required)")
	desc := fs.String("description", "", "description")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := tenancy.WithIdentity(context.Background(), cliIdentity)
	deps, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer deps.cleanup()

	t, err := deps.tenants.Create(ctx, tenant.CreateRequest{Key: *key, Name: *name, Description: *desc})
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Tenant created: %s (id=%d)\n", t.Key, t.ID)
	return nil
}

func runAdminListTenants(args []string) error {
	fs := flag.NewFlagSet("list-tenants", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := tenancy.WithIdentity(context.Background(), cliIdentity)
	deps, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer deps.cleanup()

	tenants, err := deps.tenants.List(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}
	if len(tenants) == 0 {
		fmt.Println("No tenants found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tKEY\tNAME\tACTIVE")
	for i := range tenants {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%t\n", tenants[i].ID, tenants[i].Key, tenants[i].Name, tenants[i].Active)
	}
	return w.Flush()
}

func runAdminCreatePlatformAdmin(args []string) error {
	fs := flag.NewFlagSet("create-platform-admin", flag.ContinueOnError)
	email := fs.String("email", "", "email address (required)")
	name := fs.String("name", "", "display name (required)")
	password := fs.String("password", "", "password (prompted if not provided)") //nolint:gosec // CLI flag
	if err := fs.Parse(args); err != nil {
		return err
	}

	pass, err := passwordOrPrompt(*password)
	if err != nil {
		return err
	}

	ctx := tenancy.WithIdentity(context.Background(), cliIdentity)
	deps, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer deps.cleanup()

	u, err := deps.auth.CreatePlatformAdmin(ctx, user.CreateRequest{Email: *email, Name: *name, Password: pass})
	if err != nil {
		return fmt.Errorf("create platform admin: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Platform admin created: %s (id=%s)\n", u.Email, u.ID)
	return nil
}

func runAdminCreateUser(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	tenantKey := fs.String("tenant", "", "tenant key (required)")
	email := fs.String("email", "", "email address (required)")
	name := fs.String("name", "", "display name (required)")
	roles := fs.String("roles", string(user.RoleResident), "comma-separated roles")
	password := fs.String("password", "", "password (prompted if not provided)") //nolint:gosec // CLI flag
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *tenantKey == "" {
		return errors.New("--tenant is required")
	}

	pass, err := passwordOrPrompt(*password)
	if err != nil {
		return err
	}

	root := tenancy.WithIdentity(context.Background(), cliIdentity)
	deps, err := loadAdminDeps(root)
	if err != nil {
		return err
	}
	defer deps.cleanup()

	t, err := findTenant(root, deps.tenants, *tenantKey)
	if err != nil {
		return err
	}

	// Act inside the target tenant.
	id := cliIdentity
	id.TenantID = t.ID
	ctx := tenancy.WithIdentity(context.Background(), id)

	u, err := deps.auth.RegisterUser(ctx, user.CreateRequest{
		Email:    *email,
		Name:     *name,
		Password: pass,
		Roles:    parseRoles(*roles),
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	fmt.Fprintf(os.Stderr, "User created: %s in %s (id=%s, roles=%s)\n", u.Email, t.Key, u.ID, strings.Join(u.Roles.Strings(), ","))
	return nil
}

func findTenant(ctx context.Context, svc *service.TenantService, key string) (*tenant.Tenant, error) {
	tenants, err := svc.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	for i := range tenants {
		if tenants[i].Key == key {
			return &tenants[i], nil
		}
	}
	return nil, fmt.Errorf("tenant %q not found", key)
}

func parseRoles(s string) user.Roles {
	var out user.Roles
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, user.Role(part))
		}
	}
	return out
}

func passwordOrPrompt(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	pass, err := promptPassword("Password: ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if pass != confirm {
		return "", errors.New("passwords do not match")
	}
	return pass, nil
}

// promptPassword reads a password from the terminal without echoing.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)                         // newline after password input
	if err != nil {
		return "", err
	}
	return string(b), nil
}

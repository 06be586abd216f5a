package cli

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"securereport/config"
	"securereport/core/auth"
	"securereport/core/rbac"
	"securereport/core/reports"
	"securereport/core/store"
	"securereport/core/utils"
)

// Run executes an operator subcommand. It returns false when args do not
// name one, so main can fall through to serving.
func Run(args []string) bool {
	if len(args) < 1 {
		return false
	}
	switch args[0] {
	case "create-user":
		exitOnErr(runCreateUser(args[1:], os.Stdout))
	case "import-csv":
		exitOnErr(runImportCSV(args[1:], os.Stdout))
	case "help", "-h", "--help":
		fmt.Println("commands: create-user, import-csv")
	default:
		return false
	}
	return true
}

func exitOnErr(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func open() (*config.AppConfig, *sql.DB, *utils.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("config: %w", err)
	}
	logger := utils.NewLoggerWithConfig(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("db: %w", err)
	}
	if err := store.ApplyMigrations(context.Background(), db, logger); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return cfg, db, logger, nil
}

type createUserOptions struct {
	Email    string
	Password string
	Role     string
	FullName string
}

func runCreateUser(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	var opts createUserOptions
	fs.StringVar(&opts.Email, "e", "", "email")
	fs.StringVar(&opts.Password, "p", "", "password")
	fs.StringVar(&opts.Role, "r", rbac.RoleEmployee, "role: Admin, Employee or Viewer")
	fs.StringVar(&opts.FullName, "n", "", "full name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, db, _, err := open()
	if err != nil {
		return err
	}
	defer db.Close()
	id, err := createUser(context.Background(), store.NewUsersStore(db), cfg.Pepper, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "user %d created\n", id)
	return nil
}

func createUser(ctx context.Context, users store.UsersStore, pepper string, opts createUserOptions) (int64, error) {
	email := utils.NormalizeEmail(opts.Email)
	if err := utils.ValidateEmail(email); err != nil {
		return 0, err
	}
	if err := utils.ValidatePassword(opts.Password); err != nil {
		return 0, err
	}
	role := strings.TrimSpace(opts.Role)
	if !rbac.IsBuiltInRole(role) {
		return 0, fmt.Errorf("unknown role %q", role)
	}
	existing, err := users.FindByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, errors.New("a user with this email already exists")
	}
	ph, err := auth.HashPassword(opts.Password, pepper)
	if err != nil {
		return 0, err
	}
	return users.Create(ctx, &store.User{
		Email:        email,
		FullName:     strings.TrimSpace(opts.FullName),
		Role:         role,
		Status:       store.UserStatusActive,
		PasswordHash: ph.Hash,
		Salt:         ph.Salt,
	})
}

func runImportCSV(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("import-csv", flag.ContinueOnError)
	path := fs.String("f", "", "csv file with a header row")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*path) == "" {
		return errors.New("-f is required")
	}
	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()
	cfg, db, logger, err := open()
	if err != nil {
		return err
	}
	defer db.Close()
	files := reports.NewFileStorage(cfg.Attachments.StorageDir, cfg.Attachments.MaxUploadBytes)
	svc := reports.NewService(store.NewReportsStore(db), files, nil, logger)
	res, err := importCSV(context.Background(), f, svc, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "imported %d reports, skipped %d rows\n", res.Imported, res.Skipped)
	return nil
}

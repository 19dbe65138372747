// Command migrate applies and authors the versioned PostgreSQL schema.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
)

var errUsage = errors.New("usage")

// invocation carries everything a command handler may need.
type invocation struct {
	log    *zap.Logger
	dir    string
	args   []string
	out    io.Writer
	schema *migration.Migrator
}

type command struct {
	synopsis string
	summary  string
	// offline commands never open a database connection
	offline bool
	run     func(inv *invocation) error
}

var commands = map[string]command{
	"up": {
		synopsis: "up",
		summary:  "Apply every pending migration",
		run:      func(inv *invocation) error { return inv.schema.Up() },
	},
	"down": {
		synopsis: "down",
		summary:  "Revert every applied migration",
		run:      func(inv *invocation) error { return inv.schema.Down() },
	},
	"step": {
		synopsis: "step <n>",
		summary:  "Move n versions (negative n reverts)",
		run: func(inv *invocation) error {
			n, err := intArg(inv.args, "step count")
			if err != nil {
				return err
			}
			return inv.schema.Steps(n)
		},
	},
	"goto": {
		synopsis: "goto <version>",
		summary:  "Migrate up or down to an exact version",
		run: func(inv *invocation) error {
			v, err := intArg(inv.args, "version")
			if err != nil {
				return err
			}
			if v < 0 {
				return fmt.Errorf("%w: version must not be negative", errUsage)
			}
			return inv.schema.GoTo(uint(v))
		},
	},
	"version": {
		synopsis: "version",
		summary:  "Print the applied version and dirty flag",
		run: func(inv *invocation) error {
			v, dirty, err := inv.schema.Version()
			if err != nil {
				return err
			}
			if v == 0 {
				fmt.Fprintln(inv.out, "no migrations applied")
				return nil
			}
			fmt.Fprintf(inv.out, "version %d (dirty=%t)\n", v, dirty)
			return nil
		},
	},
	"force": {
		synopsis: "force <version>",
		summary:  "Record a version without running it, clearing a dirty state",
		run: func(inv *invocation) error {
			v, err := intArg(inv.args, "version")
			if err != nil {
				return err
			}
			return inv.schema.Force(v)
		},
	},
	"create": {
		synopsis: "create <name> [description]",
		summary:  "Write an empty up/down pair into -path",
		offline:  true,
		run:      createMigration,
	},
	"list": {
		synopsis: "list",
		summary:  "List migrations in -path or in the embedded schema",
		offline:  true,
		run:      listMigrations,
	},
}

func main() {
	dir := flag.String("path", "", "migrations directory; empty uses the schema embedded in the binary")
	level := flag.String("log-level", "info", "log level: debug, info, warn or error")
	flag.Usage = func() { usage(flag.CommandLine.Output()) }
	flag.Parse()

	if err := run(flag.Args(), *dir, *level); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			usage(os.Stderr)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(args []string, dir, level string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command given", errUsage)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}

	log, err := logger.New(&logger.Config{
		Level:      level,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "15:04:05",
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	inv := &invocation{log: log, dir: dir, args: args[1:], out: os.Stdout}
	if cmd.offline {
		return cmd.run(inv)
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	inv.schema, err = migration.New(db, dir, log)
	if err != nil {
		return fmt.Errorf("init migrator: %w", err)
	}
	defer inv.schema.Close()

	log.Debug("running migration command", zap.String("command", args[0]))
	return cmd.run(inv)
}

func openDatabase() (*sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.Driver != config.DatabaseDriverPostgres {
		return nil, fmt.Errorf("driver %q is schema-managed by auto-migrate; versioned migrations need postgres", cfg.Database.Driver)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func createMigration(inv *invocation) error {
	if inv.dir == "" {
		return fmt.Errorf("%w: create needs -path", errUsage)
	}
	if len(inv.args) == 0 {
		return fmt.Errorf("%w: create needs a migration name", errUsage)
	}
	var description string
	if len(inv.args) > 1 {
		description = inv.args[1]
	}
	mf, err := migration.CreateMigration(inv.dir, inv.args[0], description)
	if err != nil {
		return err
	}
	inv.log.Info("migration files written",
		zap.Uint("version", mf.Version),
		zap.String("up", mf.UpPath),
		zap.String("down", mf.DownPath),
	)
	return nil
}

func listMigrations(inv *invocation) error {
	var src fs.FS = migration.Schema()
	if inv.dir != "" {
		src = os.DirFS(inv.dir)
	}
	entries, err := migration.ListMigrations(src)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(inv.out, "no migrations found")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(inv.out, "%06d  %s\n", e.Version, e.Name)
	}
	return nil
}

func intArg(args []string, what string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: missing %s", errUsage, what)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", errUsage, what, args[0])
	}
	return n, nil
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "usage: migrate [-path dir] [-log-level level] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(w, "  %-30s %s\n", c.synopsis, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The database is read from STOREFRONT_DATABASE_* (HOST, PORT, USER, PASSWORD, DBNAME, SSLMODE).")
}

// Package cli implements catalogctl, a console front end for a catalog kept in a local
// snapshot file or SQLite database.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"bookcatalog/internal/catalog"
	"bookcatalog/internal/render"
	"bookcatalog/internal/storage"
	"bookcatalog/internal/storage/file"
	"bookcatalog/internal/storage/sqlite"
)

// session is the catalog opened for one command invocation
type session struct {
	db    storage.Storage
	store *catalog.Store
	dirty bool
}

type options struct {
	file    string
	sqlite  string
	name    string
	width   int
	verbose bool

	logger  *zap.Logger
	session *session
}

// NewRootCommand builds the catalogctl command tree
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Manage a personal book catalog from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.verbose {
				l, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				opts.logger = l
			} else {
				opts.logger = zap.NewNop()
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.file, "file", envOr("CATALOG_FILE", "library.json"), "JSON snapshot file")
	flags.StringVar(&opts.sqlite, "sqlite", os.Getenv("CATALOG_SQLITE"), "SQLite database, used instead of --file when set")
	flags.StringVar(&opts.name, "name", envOr("CATALOG_NAME", catalog.DefaultName), "catalog name used when no snapshot exists yet")
	flags.IntVar(&opts.width, "width", 0, "output width, detected from the terminal when 0")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log storage activity")

	root.AddCommand(
		newListCommand(opts),
		newAddCommand(opts),
		newShowCommand(opts),
		newUpdateCommand(opts),
		newDeleteCommand(opts),
		newBorrowCommand(opts),
		newReturnCommand(opts),
		newSearchCommand(opts),
		newRecentCommand(opts),
		newBorrowedCommand(opts),
		newStatsCommand(opts),
		newRemoveCommand(opts),
		newSeedCommand(opts),
		newDemoCommand(opts),
	)
	return root
}

// Execute runs catalogctl with os.Args
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// withCatalog opens storage, runs fn and saves the catalog if fn changed it, even when fn fails
func (o *options) withCatalog(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := o.openStorage()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := db.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}

	s := &session{db: db, store: catalog.NewStore(o.name, catalog.WithLogger(o.logger))}
	snap, err := db.Load(ctx)
	switch {
	case err == nil:
		if err := s.store.Restore(ctx, snap); err != nil {
			return err
		}
	case !errors.Is(err, storage.ErrNoSnapshot):
		return err
	}

	runErr := fn(ctx, s)
	if s.dirty {
		if err := db.Save(ctx, s.store.Snapshot(ctx)); err != nil {
			return errors.Join(runErr, fmt.Errorf("save catalog: %w", err))
		}
	}
	return runErr
}

func (o *options) openStorage() (storage.Storage, error) {
	if o.sqlite != "" {
		return sqlite.NewSQLiteDB(o.sqlite, o.logger)
	}
	return file.NewFileDB(o.file, o.logger), nil
}

// outputWidth prefers --width, then the terminal size of w
func (o *options) outputWidth(w io.Writer) int {
	if o.width > 0 {
		return o.width
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return render.DefaultWidth
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

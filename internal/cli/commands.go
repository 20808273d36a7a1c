package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bookcatalog/internal/catalog"
	"bookcatalog/internal/models"
	"bookcatalog/internal/render"
	"bookcatalog/internal/seed"
)

// bookFlags holds the editable book fields shared by add and update
type bookFlags struct {
	title       string
	author      string
	genre       string
	year        int
	isbn        string
	description string
}

func (f *bookFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "book title")
	cmd.Flags().StringVar(&f.author, "author", "", "book author")
	cmd.Flags().StringVar(&f.genre, "genre", "", "book genre")
	cmd.Flags().IntVar(&f.year, "year", 0, "publication year")
	cmd.Flags().StringVar(&f.isbn, "isbn", "", "ISBN")
	cmd.Flags().StringVar(&f.description, "description", "", "free-text description")
}

func newListCommand(o *options) *cobra.Command {
	var genre string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all books, optionally filtered by genre",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withCatalog(cmd, func(ctx context.Context, s *session) error {
				heading := s.store.Name()
				var books []models.Book
				var err error
				if genre != "" {
					heading = fmt.Sprintf("%s: %s", heading, genre)
					books, err = s.store.ListByGenre(ctx, genre)
				} else {
					books, err = s.store.ListAll(ctx)
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render.Books(out, heading, books, o.outputWidth(out))
			})
		},
	}
	cmd.Flags().StringVar(&genre, "genre", "", "only books of this genre")
	return cmd
}

func newAddCommand(o *options) *cobra.Command {
	var f bookFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			nb := models.NewBook{
				Title:       f.title,
				Author:      f.author,
				Genre:       f.genre,
				ISBN:        f.isbn,
				Description: f.description,
			}
			if cmd.Flags().Changed("year") {
				nb.PublicationYear = &f.year
			}
			return o.withCatalog(cmd, func(ctx context.Context, s *session) error {
				b, err := s.store.Add(ctx, nb)
				if err != nil {
					return err
				}
				s.dirty = true
				fmt.Fprintf(cmd.OutOrStdout(), "Added #%s %q by %s\n", b.ID, b.Title, b.Author)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newShowCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show every field of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withCatalog(cmd, func(ctx context.Context, s *session) error {
				b, err := s.store.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return render.Book(cmd.OutOrStdout(), b)
			})
		},
	}
}

func newUpdateCommand(o *options) *cobra.Command {
	var f bookFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change the fields given as flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := f.patch(cmd)
			if patch.IsEmpty() {
				return fmt.Errorf("%w: nothing to update", catalog.ErrValidation)
			}
			return o.withCatalog(cmd, func(ctx context.Context, s *session) error {
				b, err := s.store.Update(ctx, args[0], patch)
				if err != nil {
					return err
				}
				s.dirty = true
				fmt.Fprintf(cmd.OutOrStdout(), "Updated #%s %q\n", b.ID, b.Title)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

// patch builds a BookPatch from the flags that were set explicitly
func (f *bookFlags) patch(cmd *cobra.Command) models.BookPatch {
	var p models.BookPatch
	changed := cmd.Flags().Changed
	if changed("title") {
		p.Title = &f.title
	}
	if changed("author") {
		p.Author = &f.author
	}
	if changed("genre") {
		p.Genre = &f.genre
	}
	if changed("year") {
		p.PublicationYear = &f.year
	}
	if changed("isbn") {
		p.ISBN = &f.isbn
	}
	if changed("description") {
		p.Description = &f.description
	}
	return p
}

func newDeleteCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withCatalog(cmd, func(ctx context.Context, s *session) error {
				if err := s.store.Delete(ctx, args[0]); err != nil {
					return err
				}
				s.dirty = true
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted #%s\n", args[0])
				return nil
			})
		},
	}
}

func newBorrowCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "borrow ID BORROWER",
		Short: "Lend a book",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			borrower := strings.Join(args[1:], " ")
			return o.withCatalog(cmd, func(ctx context.Context, s *session) error {
				b, err := s.store.Borrow(ctx, args[0], borrower)
				if err != nil {
					return err
				}
				s.dirty = true
				fmt.Fprintf(cmd.OutOrStdout(), "%q borrowed by %s\n", b.Title, b.Borrower)
				return nil
			})
		},
	}
}

func newReturnCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "return ID",
		Short: "Mark a borrowed book as returned",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withCatalog(cmd, func(ctx context.Context, s *session) error {
				b, err := s.store.Return(ctx, args[0])
				if err != nil {
					return err
				}
				s.dirty = true
				fmt.Fprintf(cmd.OutOrStdout(), "%q returned\n", b.Title)
				return nil
			})
		},
	}
}

func newSearchCommand(o *options) *cobra.Command {
	var field string
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Find books by a case-insensitive substring",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := catalog.ParseSearchField(field)
			if err != nil {
				return err
			}
			var query string
			if len(args) == 1 {
				query = args[0]
			}
			return o.withCatalog(cmd, func(ctx context.Context, s *session) error {
				books, err := s.store.Search(ctx, query, sf)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render.Books(out, fmt.Sprintf("Results for %q in %s", query, sf), books, o.outputWidth(out))
			})
		},
	}
	cmd.Flags().StringVar(&field, "field", string(models.SearchAll), "title, author, genre or all")
	return cmd
}

func newRecentCommand(o *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recently added books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withCatalog(cmd, func(ctx context.Context, s *session) error {
				books, err := s.store.RecentlyAdded(ctx, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render.Books(out, "Recently added", books, o.outputWidth(out))
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", catalog.DefaultRecentLimit, "number of books")
	return cmd
}

func newBorrowedCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "borrowed",
		Short: "List books currently on loan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withCatalog(cmd, func(ctx context.Context, s *session) error {
				books, err := s.store.ListBorrowed(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render.Books(out, "Borrowed", books, o.outputWidth(out))
			})
		},
	}
}

func newStatsCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withCatalog(cmd, func(ctx context.Context, s *session) error {
				st, err := s.store.Stats(ctx)
				if err != nil {
					return err
				}
				return render.Stats(cmd.OutOrStdout(), s.store.Name(), st)
			})
		},
	}
}

func newRemoveCommand(o *options) *cobra.Command {
	var title, isbn string
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove every book matching an ISBN or a title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withCatalog(cmd, func(ctx context.Context, s *session) error {
				n, err := s.store.RemoveByTitleOrISBN(ctx, title, isbn)
				if err != nil {
					return err
				}
				s.dirty = true
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d book(s)\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "exact title, ignoring case")
	cmd.Flags().StringVar(&isbn, "isbn", "", "exact ISBN, takes precedence over --title")
	return cmd
}

func newSeedCommand(o *options) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Add the sample books, or the books of a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data := seed.Sample()
			if path != "" {
				var err error
				if data, err = seed.Load(path); err != nil {
					return err
				}
			}
			return o.withCatalog(cmd, func(ctx context.Context, s *session) error {
				n, err := seed.Apply(ctx, s.store, data)
				// Books added before a bad entry are kept.
				s.dirty = n > 0
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d book(s)\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&path, "from", "", "YAML file with a books list")
	return cmd
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"bookcatalog/internal/catalog"
	"bookcatalog/internal/models"
	"bookcatalog/internal/render"
)

func newDemoCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Walk through the catalog features on a throwaway in-memory catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out := cmd.OutOrStdout()
			return runDemo(ctx, out, catalog.NewStore("My Reading Collection", catalog.WithLogger(o.logger)), o.outputWidth(out))
		},
	}
}

func runDemo(ctx context.Context, w io.Writer, s *catalog.Store, width int) error {
	year := func(y int) *int { return &y }
	input := []models.NewBook{
		{Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: "Fantasy", PublicationYear: year(1937)},
		{Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", PublicationYear: year(1965)},
		{Title: "Pride and Prejudice", Author: "Jane Austen", Genre: "Romance", PublicationYear: year(1813)},
		{Title: "The Shining", Author: "Stephen King", Genre: "Horror", PublicationYear: year(1977)},
		{Title: "The Alchemist", Author: "Paulo Coelho", Genre: "Fiction", PublicationYear: year(1988)},
	}
	ids := make(map[string]string, len(input))
	for _, nb := range input {
		b, err := s.Add(ctx, nb)
		if err != nil {
			return err
		}
		ids[b.Title] = b.ID
	}

	list := func(heading string, books []models.Book, err error) error {
		if err != nil {
			return err
		}
		fmt.Fprintln(w)
		return render.Books(w, heading, books, width)
	}

	all, err := s.ListAll(ctx)
	if err := list("All books in "+s.Name(), all, err); err != nil {
		return err
	}

	found, err := s.Search(ctx, "the", models.SearchTitle)
	if err := list(`Titles containing "the"`, found, err); err != nil {
		return err
	}

	fmt.Fprintln(w)
	for _, loan := range []struct{ title, borrower string }{
		{"Dune", "Alice"},
		{"The Hobbit", "Bob"},
		{"Dune", "Charlie"},
	} {
		_, err := s.Borrow(ctx, ids[loan.title], loan.borrower)
		switch {
		case err == nil:
			fmt.Fprintf(w, "%s borrowed %q\n", loan.borrower, loan.title)
		case errors.Is(err, catalog.ErrInvalidStateOrNotFound):
			fmt.Fprintf(w, "%s could not borrow %q: already on loan\n", loan.borrower, loan.title)
		default:
			return err
		}
	}

	all, err = s.ListAll(ctx)
	if err := list("After borrowing", all, err); err != nil {
		return err
	}

	if _, err := s.Return(ctx, ids["Dune"]); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%q returned\n\n", "Dune")

	st, err := s.Stats(ctx)
	if err != nil {
		return err
	}
	if err := render.Stats(w, s.Name(), st); err != nil {
		return err
	}

	n, err := s.RemoveByTitleOrISBN(ctx, "The Alchemist", "")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nRemoved %d book(s) titled %q\n", n, "The Alchemist")

	all, err = s.ListAll(ctx)
	return list("Final catalog", all, err)
}

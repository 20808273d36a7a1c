// Package render formats catalog data as plain text for terminals and chat messages.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"bookcatalog/internal/models"
)

// DefaultWidth is used when the output width is unknown
const DefaultWidth = 100

const (
	minTitleWidth  = 12
	minAuthorWidth = 10
	dateLayout     = "2006-01-02"
)

// Books writes a table of books under a heading. Title and author are shortened so that
// a row fits in width columns.
func Books(w io.Writer, heading string, books []models.Book, width int) error {
	if width <= 0 {
		width = DefaultWidth
	}

	if _, err := fmt.Fprintf(w, "%s (%d)\n", heading, len(books)); err != nil {
		return err
	}
	if len(books) == 0 {
		_, err := fmt.Fprintln(w, "No books found.")
		return err
	}

	titleW, authorW := columnWidths(books, width)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tGENRE\tYEAR\tSTATUS")
	for _, b := range books {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			b.ID,
			Truncate(b.Title, titleW),
			Truncate(b.Author, authorW),
			b.Genre,
			year(b.PublicationYear),
			status(b),
		)
	}
	return tw.Flush()
}

// columnWidths splits what is left after the fixed columns between title and author, 3:2
func columnWidths(books []models.Book, width int) (int, int) {
	fixed := len("ID") + len("YEAR") + len("Borrowed by ") + 5*2
	for _, b := range books {
		fixed = max(fixed, len(b.ID)+utf8.RuneCountInString(b.Genre)+4+len("Borrowed by ")+utf8.RuneCountInString(b.Borrower)+5*2)
	}
	rest := width - fixed
	titleW := max(minTitleWidth, rest*3/5)
	authorW := max(minAuthorWidth, rest-titleW)
	return titleW, authorW
}

// Book writes every field of a single book
func Book(w io.Writer, b models.Book) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", b.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", b.Title)
	fmt.Fprintf(tw, "Author:\t%s\n", b.Author)
	fmt.Fprintf(tw, "Genre:\t%s\n", b.Genre)
	if b.PublicationYear != nil {
		fmt.Fprintf(tw, "Year:\t%d\n", *b.PublicationYear)
	}
	if b.ISBN != "" {
		fmt.Fprintf(tw, "ISBN:\t%s\n", b.ISBN)
	}
	fmt.Fprintf(tw, "Added:\t%s\n", b.DateAdded.Format(dateLayout))
	fmt.Fprintf(tw, "Status:\t%s\n", status(b))
	if b.IsBorrowed && b.BorrowedDate != nil {
		fmt.Fprintf(tw, "Since:\t%s\n", b.BorrowedDate.Format(dateLayout))
	}
	if !b.IsBorrowed && b.ReturnDate != nil {
		fmt.Fprintf(tw, "Returned:\t%s (last borrower: %s)\n", b.ReturnDate.Format(dateLayout), b.Borrower)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if b.Description != "" {
		_, err := fmt.Fprintf(w, "\n%s\n", b.Description)
		return err
	}
	return nil
}

// Stats writes the catalog summary
func Stats(w io.Writer, name string, s models.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "%s\n", name)
	fmt.Fprintf(tw, "Total books:\t%d\n", s.TotalBooks)
	fmt.Fprintf(tw, "Borrowed:\t%d\n", s.BorrowedBooks)
	fmt.Fprintf(tw, "Available:\t%d\n", s.AvailableBooks)
	fmt.Fprintf(tw, "Genres:\t%d\n", s.UniqueGenres)
	fmt.Fprintf(tw, "Authors:\t%d\n", s.UniqueAuthors)
	if err := tw.Flush(); err != nil {
		return err
	}

	if err := ranking(w, "Top genres", s.TopGenres); err != nil {
		return err
	}
	return ranking(w, "Top authors", s.TopAuthors)
}

func ranking(w io.Writer, heading string, entries []models.CountEntry) error {
	if len(entries) == 0 {
		return nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s:\n", heading)
	for i, e := range entries {
		fmt.Fprintf(&sb, "  %d. %s (%d)\n", i+1, e.Name, e.Count)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

func year(y *int) string {
	if y == nil {
		return "-"
	}
	return strconv.Itoa(*y)
}

func status(b models.Book) string {
	if b.IsBorrowed {
		return "Borrowed by " + b.Borrower
	}
	return b.Status()
}

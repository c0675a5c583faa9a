package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"shelf-go/internal/app"
	"shelf-go/internal/model"
	"shelf-go/internal/shelf"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// add command
var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a book to the to-read shelf",
	Long: `Add a book to the to-read shelf.

With --isbn the catalog is searched first and the result fills in the book;
any other flag given overrides the looked-up value.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		flags := cmd.Flags()
		isbn, _ := flags.GetString("isbn")
		coverFile, _ := flags.GetString("cover-file")

		a, err := newApp(cmd, "add", isbn)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := a.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()

		flow := a.NewAddBookFlow()
		if isbn != "" {
			if err := flow.Lookup(cmd.Context(), isbn); err != nil {
				cmd.PrintErrln(flow.Message)
			}
		}

		overrides := map[string]*string{
			"title":     &flow.Draft.Title,
			"subtitle":  &flow.Draft.Subtitle,
			"author":    &flow.Draft.Author,
			"pages":     &flow.Draft.PageCountText,
			"cover-url": &flow.Draft.CoverURL,
		}
		for name, field := range overrides {
			if flags.Changed(name) {
				*field, _ = flags.GetString(name)
			}
		}
		if flow.Draft.ISBN == "" {
			flow.Draft.ISBN = strings.TrimSpace(isbn)
		}
		if coverFile != "" {
			data, err := app.ReadCoverFile(coverFile)
			if err != nil {
				return err
			}
			flow.Draft.CoverImage = data
		}

		if !flow.CanSave() {
			return fmt.Errorf("a title is required (pass --title)")
		}
		b, err := flow.Save()
		if err != nil {
			return fmt.Errorf("adding book: %w", err)
		}

		fmt.Printf("Added %s\n", b.Title)
		fmt.Printf("ID: %s\n", b.ID)
		return nil
	},
}

// lookup command
var lookupCmd = &cobra.Command{
	Use:   "lookup ISBN",
	Short: "Search the catalog without adding anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "lookup")
		if err != nil {
			return err
		}
		defer a.Close()

		meta, err := a.FetchMetadata(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("%s", shelf.LookupMessage(err))
		}

		printField("Title", meta.Title)
		printField("Subtitle", meta.Subtitle)
		printField("Author", meta.Authors)
		printField("Published", meta.PublishedDate)
		if meta.PageCount > 0 {
			printField("Pages", strconv.Itoa(meta.PageCount))
		}
		printField("Cover", meta.ThumbnailURL)
		return nil
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list [STATUS]",
	Short: "List books, optionally only one shelf (to-read, reading, finished)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "list")
		if err != nil {
			return err
		}
		defer a.Close()

		sh, err := a.Shelves()
		if err != nil {
			return err
		}

		statuses := model.Statuses
		if len(args) > 0 {
			s, err := model.ParseStatus(args[0])
			if err != nil {
				return err
			}
			statuses = []model.Status{s}
		}

		for i, s := range statuses {
			if i > 0 {
				fmt.Println()
			}
			books := sh.For(s)
			fmt.Printf("%s (%d)\n", s, len(books))
			for _, b := range books {
				fmt.Println(listLine(b))
			}
		}
		return nil
	},
}

// listLine formats one book for `shelf list`. A missing start or finish
// date falls back to when the book was added.
func listLine(b *model.Book) string {
	title := b.Title
	if b.Author != "" {
		title += " by " + b.Author
	}

	when := "added " + humanize.Time(b.CreatedAt)
	switch {
	case b.Status == model.StatusReading && b.StartDate != nil:
		when = "started " + humanize.Time(*b.StartDate)
	case b.Status == model.StatusFinished && b.FinishDate != nil:
		when = "finished " + humanize.Time(*b.FinishDate)
	}
	return fmt.Sprintf("  %s  %s  (%s)", b.ID, title, when)
}

// show command
var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "show")
		if err != nil {
			return err
		}
		defer a.Close()

		b, err := a.Book(args[0])
		if err != nil {
			return err
		}
		printBook(b)
		return nil
	},
}

func printField(label, value string) {
	if value != "" {
		fmt.Printf("%-10s %s\n", label+":", value)
	}
}

func printDate(label string, t *time.Time) {
	if t != nil {
		printField(label, t.Local().Format("2006-01-02 15:04")+" ("+humanize.Time(*t)+")")
	}
}

func printBook(b *model.Book) {
	printField("ID", b.ID)
	printField("Title", b.Title)
	printField("Subtitle", b.Subtitle)
	printField("Author", b.Author)
	printField("ISBN", b.ISBN)
	printField("Published", b.PublishedDate)
	if b.PageCount != nil {
		printField("Pages", strconv.Itoa(*b.PageCount))
	}
	printField("Status", b.Status.String())
	printDate("Added", &b.CreatedAt)
	printDate("Started", b.StartDate)
	printDate("Finished", b.FinishDate)
	if days, ok := b.ReadingDuration(); ok {
		printField("Read in", model.FormatDays(days))
	}
	switch src, u := b.Cover(); src {
	case model.CoverFromImage:
		printField("Cover", "image, "+humanize.Bytes(uint64(len(b.CoverImage))))
	case model.CoverFromURL:
		printField("Cover", u.String())
	}
	if b.Notes != "" {
		fmt.Printf("\nNotes:\n%s\n", b.Notes)
	}
	if b.Summary != "" {
		fmt.Printf("\nSummary:\n%s\n", b.Summary)
	}
}

// start command
var startCmd = &cobra.Command{
	Use:   "start ID",
	Short: "Start reading a to-read book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutateBook(cmd, "start", args[0], func(a *app.ShelfApp) (*model.Book, error) {
			return a.StartReading(args[0])
		}, "Started reading %s\n")
	},
}

// finish command
var finishCmd = &cobra.Command{
	Use:   "finish ID",
	Short: "Mark a book you are reading as finished",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutateBook(cmd, "finish", args[0], func(a *app.ShelfApp) (*model.Book, error) {
			return a.MarkFinished(args[0])
		}, "Finished %s\n")
	},
}

// notes command
var notesCmd = &cobra.Command{
	Use:   "notes ID TEXT",
	Short: "Replace a book's notes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutateBook(cmd, "notes", args[0], func(a *app.ShelfApp) (*model.Book, error) {
			return a.UpdateNotes(args[0], args[1])
		}, "Updated notes for %s\n")
	},
}

// summary command
var summaryCmd = &cobra.Command{
	Use:   "summary ID TEXT",
	Short: "Replace a book's summary",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutateBook(cmd, "summary", args[0], func(a *app.ShelfApp) (*model.Book, error) {
			return a.UpdateSummary(args[0], args[1])
		}, "Updated summary for %s\n")
	},
}

// cover command
var coverCmd = &cobra.Command{
	Use:   "cover ID",
	Short: "Set a book's cover from a URL or an image file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rawURL, _ := cmd.Flags().GetString("url")
		file, _ := cmd.Flags().GetString("file")

		return mutateBook(cmd, "cover", args[0], func(a *app.ShelfApp) (*model.Book, error) {
			if file != "" {
				return a.SetCoverImageFile(args[0], file)
			}
			return a.SetCoverURL(args[0], rawURL)
		}, "Updated cover for %s\n")
	},
}

// mutateBook runs one change against a book and reports it.
// A failed snapshot upload on Close is reported as well.
func mutateBook(cmd *cobra.Command, operation, id string, fn func(*app.ShelfApp) (*model.Book, error), format string) (err error) {
	a, err := newApp(cmd, operation, id)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	b, err := fn(a)
	if err != nil {
		return err
	}
	fmt.Printf(format, b.Title)
	return nil
}

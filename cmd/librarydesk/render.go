package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/librarydesk/librarydesk/internal/domain"
	"github.com/librarydesk/librarydesk/internal/notify"
)

var (
	colorAccent = lipgloss.Color("12")
	colorGreen  = lipgloss.Color("10")
	colorRed    = lipgloss.Color("9")
	colorYellow = lipgloss.Color("11")
	colorGray   = lipgloss.Color("8")

	styleHeader  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	styleCell    = lipgloss.NewStyle().Padding(0, 1)
	styleTitle   = lipgloss.NewStyle().Bold(true)
	styleMuted   = lipgloss.NewStyle().Foreground(colorGray)
	styleError   = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleInfo    = lipgloss.NewStyle().Foreground(colorYellow)
)

// renderTable writes rows under headers. An empty table prints a short note
// instead of bare borders.
func renderTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, styleMuted.Render("(no records)"))
		return
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleMuted).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return styleCell
		}).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}

func renderBooks(w io.Writer, books []domain.Book) {
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		rows = append(rows, []string{
			b.ID.String(), b.Title, b.Author, b.Category,
			strconv.Itoa(b.Available) + "/" + strconv.Itoa(b.Quantity),
		})
	}
	renderTable(w, []string{"ID", "Title", "Author", "Category", "Available"}, rows)
}

func renderReaders(w io.Writer, readers []domain.Reader) {
	rows := make([][]string, 0, len(readers))
	for _, r := range readers {
		rows = append(rows, []string{
			r.ID.String(), r.Name, r.Email, r.Phone, strconv.Itoa(len(r.BorrowedBooks)),
		})
	}
	renderTable(w, []string{"ID", "Name", "Email", "Phone", "Loans"}, rows)
}

func renderPosts(w io.Writer, posts []domain.Post) {
	rows := make([][]string, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, []string{
			p.ID.String(), p.Title, p.Author, p.Status, formatTimestamp(p.CreatedAt),
		})
	}
	renderTable(w, []string{"ID", "Title", "Author", "Status", "Created"}, rows)
}

func renderBorrows(w io.Writer, borrows []domain.Borrow) {
	rows := make([][]string, 0, len(borrows))
	for _, b := range borrows {
		rows = append(rows, []string{
			b.ID.String(), b.BookTitle, b.BorrowerName,
			formatTimestamp(b.BorrowDate), b.DueDate.String(), statusLabel(b.Status),
		})
	}
	renderTable(w, []string{"ID", "Book", "Borrower", "Borrowed", "Due", "Status"}, rows)
}

func renderLoans(w io.Writer, loans []domain.BorrowedBook) {
	rows := make([][]string, 0, len(loans))
	for _, l := range loans {
		rows = append(rows, []string{
			l.Title, formatTimestamp(l.BorrowDate), l.DueDate.String(), statusLabel(l.Status),
		})
	}
	renderTable(w, []string{"Title", "Borrowed", "Due", "Status"}, rows)
}

func statusLabel(s domain.BorrowStatus) string {
	switch s {
	case domain.BorrowActive:
		return styleSuccess.Render(string(s))
	case domain.BorrowOverdue:
		return styleError.Render(string(s))
	default:
		return styleMuted.Render(string(s))
	}
}

func formatTimestamp(ts domain.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format("2006-01-02 15:04")
}

// renderFields writes label/value pairs, skipping empty values.
func renderFields(w io.Writer, title string, pairs ...string) {
	fmt.Fprintln(w, styleTitle.Render(title))
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		fmt.Fprintf(w, "  %s %s\n", styleMuted.Render(pairs[i]+":"), pairs[i+1])
	}
}

// renderHTML converts post content to markdown and renders it for the terminal.
func renderHTML(w io.Writer, html string, width int) error {
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return fmt.Errorf("convert post content: %w", err)
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render post content: %w", err)
	}
	fmt.Fprint(w, out)
	return nil
}

// drainNotices prints every notification already delivered to sub.
func drainNotices(w io.Writer, sub *notify.Subscriber) {
	for {
		select {
		case n, ok := <-sub.C:
			if !ok {
				return
			}
			fmt.Fprintln(w, formatNotice(n))
		default:
			return
		}
	}
}

func formatNotice(n notify.Notification) string {
	var b strings.Builder
	switch n.Level {
	case notify.LevelSuccess:
		b.WriteString(styleSuccess.Render("✓ " + n.Message))
	case notify.LevelError:
		b.WriteString(styleError.Render("✗ " + n.Message))
	default:
		b.WriteString(styleInfo.Render("! " + n.Message))
	}
	if n.Detail != "" {
		b.WriteString(styleMuted.Render(" (" + n.Detail + ")"))
	}
	return b.String()
}

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/starford/folio/internal/models"
)

var postHeaders = []string{"Date", "Slug", "Title", "Topic", "Kind", "Draft"}

func postRow(p models.Post) []string {
	draft := ""
	if p.Frontmatter.Draft {
		draft = "yes"
	}
	return []string{
		p.Frontmatter.Published.Format("2006-01-02"),
		p.Slug,
		p.Frontmatter.Title,
		p.Frontmatter.Topic,
		string(p.Kind),
		draft,
	}
}

// writePosts prints posts as a rounded table on a terminal and as
// tab-separated lines otherwise.
func writePosts(w io.Writer, posts []models.Post, pretty bool) error {
	rows := make([][]string, len(posts))
	for i, p := range posts {
		rows[i] = postRow(p)
	}

	if !pretty {
		var b strings.Builder
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
		_, err := io.WriteString(w, b.String())
		return err
	}

	_, err := fmt.Fprintln(w, renderTable(postHeaders, rows))
	return err
}

func renderTable(headers []string, rows [][]string) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)
	tw.SetCaption("%d post(s)", len(rows))

	return tw.Render()
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

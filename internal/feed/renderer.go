// Package feed renders fetched stories for non-interactive output.
package feed

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/storyapp/internal/api"
)

// TimeLayout is how story timestamps are printed.
const TimeLayout = "2006-01-02 15:04"

// Renderer serializes stories to bytes.
type Renderer interface {
	Render(stories []api.Story) ([]byte, error)
	RenderStory(st api.Story) ([]byte, error)
}

// ForFormat returns the renderer for "plain", "markdown" or "json".
func ForFormat(format string, styled bool) (Renderer, error) {
	switch format {
	case "", "plain":
		return &PlainRenderer{Styled: styled}, nil
	case "markdown", "md":
		return &MarkdownRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown format %q (want plain, markdown or json)", format)
}

// Find returns the story with the given id.
func Find(stories []api.Story, id string) (api.Story, bool) {
	for _, st := range stories {
		if st.ID == id {
			return st, true
		}
	}
	return api.Story{}, false
}

// Location formats a story's coordinates, or "" when it has none.
func Location(st api.Story) string {
	if st.Lat == nil || st.Lon == nil {
		return ""
	}
	return fmt.Sprintf("%.4f, %.4f", *st.Lat, *st.Lon)
}

// Stamp formats a story timestamp in local time.
func Stamp(t time.Time) string {
	if t.IsZero() {
		return "unknown date"
	}
	return t.Local().Format(TimeLayout)
}

// JSONRenderer renders stories as indented JSON in the server's field names.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(stories []api.Story) ([]byte, error) {
	if stories == nil {
		stories = []api.Story{}
	}
	return json.MarshalIndent(stories, "", "  ")
}

func (r *JSONRenderer) RenderStory(st api.Story) ([]byte, error) {
	return json.MarshalIndent(st, "", "  ")
}

// MarkdownRenderer renders stories as a Markdown document with one section
// per story.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(stories []api.Story) ([]byte, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Stories (%d)\n\n", len(stories))
	if len(stories) == 0 {
		sb.WriteString("_No stories yet._\n")
		return []byte(sb.String()), nil
	}
	for _, st := range stories {
		writeMarkdownStory(&sb, st, "##")
	}
	return []byte(sb.String()), nil
}

func (r *MarkdownRenderer) RenderStory(st api.Story) ([]byte, error) {
	var sb strings.Builder
	writeMarkdownStory(&sb, st, "#")
	return []byte(sb.String()), nil
}

func writeMarkdownStory(sb *strings.Builder, st api.Story, level string) {
	fmt.Fprintf(sb, "%s %s\n\n", level, st.Name)
	fmt.Fprintf(sb, "![%s](%s)\n\n", st.ID, st.PhotoURL)
	if st.Description != "" {
		sb.WriteString(st.Description)
		sb.WriteString("\n\n")
	}
	fmt.Fprintf(sb, "- ID: `%s`\n", st.ID)
	fmt.Fprintf(sb, "- Posted: %s\n", Stamp(st.CreatedAt))
	if loc := Location(st); loc != "" {
		fmt.Fprintf(sb, "- Location: %s\n", loc)
	}
	sb.WriteString("\n")
}

var (
	nameStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	timeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// PlainRenderer renders a compact terminal listing. Styled adds colour.
type PlainRenderer struct {
	Styled bool
}

func (r *PlainRenderer) style(s lipgloss.Style, text string) string {
	if !r.Styled {
		return text
	}
	return s.Render(text)
}

func (r *PlainRenderer) Render(stories []api.Story) ([]byte, error) {
	if len(stories) == 0 {
		return []byte("no stories yet\n"), nil
	}
	var sb strings.Builder
	for i, st := range stories {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s  %s  %s\n",
			r.style(nameStyle, st.Name),
			r.style(timeStyle, Stamp(st.CreatedAt)),
			r.style(dimStyle, st.ID),
		)
		if st.Description != "" {
			fmt.Fprintf(&sb, "  %s\n", FirstLine(st.Description))
		}
	}
	return []byte(sb.String()), nil
}

func (r *PlainRenderer) RenderStory(st api.Story) ([]byte, error) {
	var sb strings.Builder
	row := func(label, value string) {
		fmt.Fprintf(&sb, "%s %s\n", r.style(dimStyle, fmt.Sprintf("%-10s", label)), value)
	}
	sb.WriteString(r.style(nameStyle, st.Name) + "\n\n")
	if st.Description != "" {
		sb.WriteString(st.Description + "\n\n")
	}
	row("ID:", st.ID)
	row("Posted:", r.style(timeStyle, Stamp(st.CreatedAt)))
	row("Photo:", st.PhotoURL)
	if loc := Location(st); loc != "" {
		row("Location:", loc)
	}
	return []byte(sb.String()), nil
}

// FirstLine shortens a multi-line description to its first line.
func FirstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}

package reports

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	mdparser "github.com/gomarkdown/markdown/parser"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"tsdash/internal/charts"
	"tsdash/internal/config"
	"tsdash/internal/dashboard"
	"tsdash/internal/engine"
	"tsdash/internal/logger"
	"tsdash/internal/models"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{3}([0-9a-fA-F]{3})?$`)

// PageBuilder renders the dashboard HTML page
type PageBuilder struct {
	goldmark goldmark.Markdown
	tmpl     *template.Template
	charts   *charts.ChartGenerator
	log      *logger.Logger
}

// PageData is the data of the dashboard template
type PageData struct {
	Title       string
	Notes       template.HTML
	GeneratedAt string
	Version     string
	Widgets     []WidgetView
	Events      []EventView
}

// EventView is one annotation listed under the charts
type EventView struct {
	Time        string
	Title       string
	Link        string
	Description template.HTML
}

// WidgetView is one widget section of the page
type WidgetView struct {
	ID       string
	Title    string
	Notes    template.HTML
	FrameURL string
	Width    int
	Height   int
	Snippet  template.HTML
	Legend   []engine.LegendEntry
}

// NewPageBuilder creates a page builder. cg supplies the interactive chart
// snippets; a nil generator leaves them out.
func NewPageBuilder(cg *charts.ChartGenerator) (*PageBuilder, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)

	tmpl, err := template.New("dashboard.html").Funcs(template.FuncMap{
		"css": cssColor,
	}).ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	return &PageBuilder{goldmark: md, tmpl: tmpl, charts: cg, log: logger.WithComponent("reports")}, nil
}

// ConvertMarkdownToHTML converts markdown to HTML using goldmark
func (b *PageBuilder) ConvertMarkdownToHTML(markdownContent string) (template.HTML, error) {
	if strings.TrimSpace(markdownContent) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := b.goldmark.Convert([]byte(markdownContent), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// PageData collects the page content of a dashboard. It reads chart state,
// so it must run on the dashboard event loop. frameURL maps a widget id to
// its image URL; nil omits the images.
func (b *PageBuilder) PageData(d *dashboard.Dashboard, frameURL func(id string) string) (*PageData, error) {
	notes, err := b.ConvertMarkdownToHTML(d.Notes)
	if err != nil {
		return nil, err
	}
	title := d.Title
	if title == "" {
		title = "Dashboard"
	}

	page := &PageData{
		Title:       title,
		Notes:       notes,
		GeneratedAt: time.Now().UTC().Format("2006-01-02 15:04:05 UTC"),
		Version:     config.GetVersion(),
	}

	for _, w := range d.Widgets() {
		view := WidgetView{
			ID:     w.ID(),
			Title:  WidgetTitle(w.ID(), w.Title()),
			Width:  int(w.Spec.Width),
			Height: int(w.Spec.Height),
			Legend: w.Engine().Legend(),
		}
		if view.Notes, err = b.ConvertMarkdownToHTML(w.Spec.Notes); err != nil {
			return nil, fmt.Errorf("widget %s: %w", w.ID(), err)
		}
		if frameURL != nil {
			view.FrameURL = frameURL(w.ID())
		}
		if b.charts != nil {
			if snip, err := b.charts.Snippet(w); err == nil {
				view.Snippet = template.HTML(snip.Div + snip.Script)
			} else {
				b.log.Warn("Chart snippet unavailable", logger.Fields{"widget": w.ID(), "error": err.Error()})
			}
		}
		page.Widgets = append(page.Widgets, view)
	}
	page.Events = eventViews(d)
	return page, nil
}

// eventViews lists the annotations of the first time chart, newest first.
// Every axis widget carries the same feed.
func eventViews(d *dashboard.Dashboard) []EventView {
	var anns []models.Annotation
	for _, w := range d.Widgets() {
		if w.Engine().Kind().Axes() && len(w.Chart().Annotations) > 0 {
			anns = w.Chart().Annotations
			break
		}
	}

	out := make([]EventView, 0, len(anns))
	for i := len(anns) - 1; i >= 0; i-- {
		a := anns[i]
		out = append(out, EventView{
			Time:        models.DomainToTime(a.Time).Format("2006-01-02 15:04 UTC"),
			Title:       a.Title,
			Link:        a.Link,
			Description: feedMarkdownToHTML(a.Description),
		})
	}
	return out
}

// feedMarkdownToHTML renders an annotation description from an external
// feed. Raw HTML is dropped, only http, https, mailto and relative links stay
// clickable, and links open in a new tab.
func feedMarkdownToHTML(text string) template.HTML {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	p := mdparser.NewWithExtensions(mdparser.CommonExtensions | mdparser.AutoHeadingIDs)
	doc := p.Parse([]byte(text))

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank | mdhtml.SkipHTML |
			mdhtml.Safelink | mdhtml.NofollowLinks | mdhtml.NoreferrerLinks,
	})
	return template.HTML(markdown.Render(doc, renderer))
}

// Render executes the page template
func (b *PageBuilder) Render(w io.Writer, page *PageData) error {
	if err := b.tmpl.Execute(w, page); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}

// WidgetTitle is the display title of a widget: its own title unless that is
// just the id, in which case the id is split on underscores, dashes and
// spaces and each word capitalized ("cpu_usage" becomes "Cpu Usage")
func WidgetTitle(id, title string) string {
	if title != "" && title != id {
		return title
	}
	words := strings.FieldsFunc(id, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func cssColor(token string) template.CSS {
	if hexColor.MatchString(token) {
		return template.CSS(token)
	}
	return template.CSS("#999999")
}

package engine

import (
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	readability "github.com/go-shiori/go-readability"
)

// minContentLength is the minimum readability TextContent length (in
// characters) for the extraction to be considered valid. Below it we assume
// the algorithm missed the main content and fall back to the full page.
const minContentLength = 50

// mdConverter is goroutine-safe and reused for every render.
//
//   - base plugin: strips script, style, iframe, noscript, head, meta, link,
//     input, textarea, HTML comments — all noise for the model stage.
//   - commonmark plugin: standard Markdown rendering.
//   - table plugin: preserves table structure (product pages carry specs in
//     tables) with minimal cell padding to save prompt tokens.
var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(
			table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
		),
	),
)

// RenderText turns fetched page HTML into the Markdown document handed to
// the model stage: readability isolates the main content, the converter
// renders it, and the page title (readability's, else fallbackTitle) is
// prepended as a heading. Rendering never fails outright — each step falls
// back to a cruder form of the input.
func RenderText(rawHTML, pageURL, fallbackTitle string) string {
	content, title := extractContent(rawHTML, pageURL)
	if title == "" {
		title = fallbackTitle
	}

	domain := ""
	if u, err := nurl.Parse(pageURL); err == nil {
		domain = u.Scheme + "://" + u.Host
	}

	md, err := mdConverter.ConvertString(content, converter.WithDomain(domain))
	if err != nil {
		slog.Warn("markdown conversion failed, using plain text",
			"url", pageURL, "error", err,
		)
		md = content
	}
	md = strings.TrimSpace(md)

	if title != "" {
		return "# " + title + "\n\n" + md
	}
	return md
}

// extractContent runs the Mozilla Readability algorithm on rawHTML and
// returns the main-content HTML plus the page title. On any failure — bad
// URL, extraction error, or too little text — the raw HTML is returned so
// downstream always has something to work with.
func extractContent(rawHTML, sourceURL string) (content, title string) {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		slog.Warn("readability: invalid source URL, falling back to raw HTML",
			"url", sourceURL, "error", err,
		)
		return rawHTML, ""
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Warn("readability: extraction failed, falling back to raw HTML",
			"url", sourceURL, "error", err,
		)
		return rawHTML, ""
	}

	if len(strings.TrimSpace(article.TextContent)) < minContentLength {
		slog.Debug("readability: extracted content too short, falling back to raw HTML",
			"url", sourceURL, "length", len(article.TextContent),
		)
		return rawHTML, article.Title
	}

	return article.Content, article.Title
}

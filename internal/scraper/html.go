package scraper

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// blockElements start and end a line of text, mirroring how a browser lays out body text
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "section": true, "table": true, "tbody": true,
	"td": true, "th": true, "thead": true, "tr": true, "ul": true,
	"button": true, "option": true,
}

// hiddenElements never contribute visible text
const hiddenElements = "script, style, noscript, template, head, iframe, svg"

// TextFromHTML flattens an HTML page into body text with one line per block element.
// Whitespace inside a line is collapsed and empty lines are dropped. Image elements
// contribute their file name, as a rendered page's alt fallback does.
func TextFromHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	doc.Find(hiddenElements).Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	w := &lineWriter{}
	for _, n := range root.Nodes {
		w.walk(n)
	}
	w.flush()

	return strings.Join(w.lines, "\n"), nil
}

type lineWriter struct {
	lines   []string
	current strings.Builder
}

func (w *lineWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.current.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "br":
			w.flush()
			return
		case "img":
			if name := imageName(n); name != "" {
				w.flush()
				w.current.WriteString(name)
				w.flush()
			}
			return
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		w.flush()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
	if block {
		w.flush()
	}
}

func (w *lineWriter) flush() {
	line := strings.Join(strings.Fields(w.current.String()), " ")
	w.current.Reset()
	if line != "" {
		w.lines = append(w.lines, line)
	}
}

// imageName returns the file name of an image that has no alt text
func imageName(n *html.Node) string {
	var src string
	for _, a := range n.Attr {
		switch a.Key {
		case "alt":
			if strings.TrimSpace(a.Val) != "" {
				return strings.TrimSpace(a.Val)
			}
		case "src":
			src = a.Val
		}
	}
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	if i := strings.LastIndex(src, "/"); i >= 0 {
		src = src[i+1:]
	}
	return src
}

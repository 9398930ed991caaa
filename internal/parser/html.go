package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/longform/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML notes. Heading tags become headings; block
// text elements become paragraphs, list and pre elements keep their kind.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Parsed, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	parsed := &doctree.Parsed{
		Title:       titleFromFilename(filename),
		Frontmatter: map[string]string{},
	}
	if title := findTitle(doc); title != "" {
		parsed.Title = title
		parsed.Frontmatter["title"] = title
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				if t := textContent(n); t != "" {
					parsed.Body = append(parsed.Body, &doctree.Heading{
						Level: level,
						Title: []doctree.Node{&doctree.Text{Content: t}},
						Label: attr(n, "id"),
					})
				}
				return
			}

			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "p", "td":
				if t := textContent(n); t != "" {
					parsed.Body = append(parsed.Body, textParagraph(t))
				}
				return
			case "blockquote":
				if t := textContent(n); t != "" {
					parsed.Body = append(parsed.Body, &doctree.Quote{Content: t})
				}
				return
			case "pre":
				parsed.Body = append(parsed.Body, &doctree.CodeBlock{Code: strings.Trim(rawText(n), "\n")})
				return
			case "ul", "ol":
				parsed.Body = append(parsed.Body, htmlList(n))
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return parsed, nil
}

func htmlList(n *html.Node) doctree.Node {
	var items [][]doctree.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "li" {
			items = append(items, []doctree.Node{textParagraph(textContent(c))})
		}
	}
	if n.Data == "ol" {
		return &doctree.OrderedList{Start: 1, Items: items}
	}
	return &doctree.UnorderedList{Items: items}
}

func textParagraph(s string) *doctree.Paragraph {
	return &doctree.Paragraph{Children: []doctree.Node{&doctree.Text{Content: s}}}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

// textContent collapses whitespace in the text below n.
func textContent(n *html.Node) string {
	return strings.Join(strings.Fields(rawText(n)), " ")
}

func rawText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

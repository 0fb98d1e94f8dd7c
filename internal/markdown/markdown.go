// Package markdown analyzes and renders generated article bodies.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

type LinkKind string

const (
	LinkKindInline LinkKind = "inline"
	LinkKindAuto   LinkKind = "auto"
)

type Link struct {
	Kind        LinkKind
	Destination string
	Text        string
}

type Image struct {
	Destination string
	Alt         string
}

// Heading is an ATX or setext heading. Start and End delimit the heading text
// in the source; both are zero when the heading spans no source lines.
type Heading struct {
	Level int
	Text  string
	Start int
	End   int
}

// Document is the structural summary of a Markdown body.
type Document struct {
	Headings       []Heading
	Links          []Link
	Images         []Image
	FirstParagraph string
	WordCount      int
}

// H1 returns the first level-one heading.
func (d Document) H1() (Heading, bool) {
	for _, h := range d.Headings {
		if h.Level == 1 {
			return h, true
		}
	}
	return Heading{}, false
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.GFM))
}

// Analyze parses body and collects headings, links, images and word counts.
//
// Fenced and indented code is excluded from the word count.
func Analyze(body []byte) Document {
	root := newMarkdown().Parser().Parse(text.NewReader(body))

	var doc Document
	var words strings.Builder
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.Heading:
			h := Heading{Level: node.Level, Text: plainText(node, body)}
			if lines := node.Lines(); lines.Len() > 0 {
				seg := lines.At(0)
				h.Start, h.End = seg.Start, seg.Stop
			}
			doc.Headings = append(doc.Headings, h)
		case *gmast.Paragraph:
			if doc.FirstParagraph == "" {
				doc.FirstParagraph = plainText(node, body)
			}
		case *gmast.AutoLink:
			doc.Links = append(doc.Links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body)), Text: string(node.Label(body))})
		case *gmast.Link:
			doc.Links = append(doc.Links, Link{Kind: LinkKindInline, Destination: string(node.Destination), Text: plainText(node, body)})
		case *gmast.Image:
			doc.Images = append(doc.Images, Image{Destination: string(node.Destination), Alt: plainText(node, body)})
		case *gmast.Text:
			words.Write(node.Segment.Value(body))
			words.WriteByte(' ')
		case *gmast.String:
			words.Write(node.Value)
			words.WriteByte(' ')
		}
		return gmast.WalkContinue, nil
	})

	doc.WordCount = len(strings.Fields(words.String()))
	return doc
}

// CountWords returns the number of prose words in body.
func CountWords(body string) int {
	return Analyze([]byte(body)).WordCount
}

// Render converts body to HTML using GitHub flavored Markdown.
func Render(body []byte) (string, error) {
	var buf bytes.Buffer
	if err := newMarkdown().Convert(body, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func plainText(n gmast.Node, source []byte) string {
	var b strings.Builder
	var collect func(gmast.Node)
	collect = func(n gmast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *gmast.Text:
				b.Write(t.Segment.Value(source))
				if t.SoftLineBreak() || t.HardLineBreak() {
					b.WriteByte(' ')
				}
			case *gmast.String:
				b.Write(t.Value)
			default:
				collect(c)
			}
		}
	}
	collect(n)
	return strings.TrimSpace(b.String())
}

package markup

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// BlockKind classifies a block in document order.
type BlockKind int

const (
	BlockText BlockKind = iota + 1
	BlockHeading
	BlockSeparator
)

// Block is one content unit of a document walk.
type Block struct {
	Kind    BlockKind
	Tag     string
	Level   int
	Class   string
	Text    string
	Anchors []string
}

var textBlockTags = map[string]bool{
	"p": true, "li": true, "pre": true, "blockquote": true, "dd": true, "dt": true,
	"td": true, "th": true, "caption": true, "address": true, "figcaption": true,
}

var inlineTags = map[string]bool{
	"a": true, "abbr": true, "b": true, "bdi": true, "bdo": true, "cite": true, "code": true,
	"em": true, "font": true, "i": true, "kbd": true, "mark": true, "q": true, "s": true,
	"small": true, "span": true, "strong": true, "sub": true, "sup": true, "time": true,
	"u": true, "var": true, "br": true, "wbr": true,
}

// Blocks walks sel in document order and returns its headings, text blocks
// and separators. Loose inline content inside containers becomes its own
// text block.
func Blocks(sel *goquery.Selection) []Block {
	var out []Block
	for _, n := range sel.Nodes {
		out = walkContainer(n, out)
	}
	return out
}

func walkContainer(n *html.Node, out []Block) []Block {
	var inline []*html.Node
	flush := func() {
		if len(inline) == 0 {
			return
		}
		text := renderNodes(inline)
		if text != "" {
			out = append(out, Block{Kind: BlockText, Text: text, Anchors: anchorsOf(inline)})
		}
		inline = nil
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			inline = append(inline, c)
			continue
		case html.ElementNode:
		default:
			continue
		}

		tag := c.Data
		if inlineTags[tag] {
			inline = append(inline, c)
			continue
		}
		flush()

		switch {
		case HeadingLevel(tag) > 0:
			text := renderNodes([]*html.Node{c})
			if text != "" {
				out = append(out, Block{
					Kind: BlockHeading, Tag: tag, Level: HeadingLevel(tag),
					Class: NormalizeClass(attr(c, "class")), Text: text, Anchors: anchorsOf([]*html.Node{c}),
				})
			}
		case tag == "hr":
			out = append(out, Block{Kind: BlockSeparator, Tag: tag})
		case textBlockTags[tag]:
			text := renderNodes([]*html.Node{c})
			if text == "" {
				if tag == "p" {
					out = append(out, Block{Kind: BlockSeparator, Tag: tag})
				}
				continue
			}
			out = append(out, Block{
				Kind: BlockText, Tag: tag, Class: NormalizeClass(attr(c, "class")),
				Text: text, Anchors: anchorsOf([]*html.Node{c}),
			})
		default:
			out = walkContainer(c, out)
		}
	}
	flush()
	return out
}

// Text renders the visible text of sel with one line per block.
func Text(sel *goquery.Selection) string {
	return renderNodes(sel.Nodes)
}

// JoinBlocks joins block texts with newlines.
func JoinBlocks(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func renderNodes(nodes []*html.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		render(n, &sb)
	}
	lines := strings.Split(sb.String(), "\n")
	kept := lines[:0]
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

func render(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		case "br":
			sb.WriteByte('\n')
			return
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}
	block := n.Type == html.ElementNode && !inlineTags[n.Data]
	if block {
		sb.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		render(c, sb)
	}
	if block {
		sb.WriteByte('\n')
	}
}

func anchorsOf(nodes []*html.Node) []string {
	var out []string
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := attr(n, "href"); strings.HasPrefix(href, "#") && len(href) > 1 {
				out = append(out, href[1:])
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	for _, n := range nodes {
		visit(n)
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

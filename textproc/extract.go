/*
	Package textproc holds the canonical text pipeline shared by the indexer
	and the ranker: HTML-to-text extraction and tokenization. Both sides
	must agree on this pipeline, otherwise query terms stop matching index
	terms.
*/
package textproc

import (
	"bytes"
	stdhtml "html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var repeatedSpaceRegex = regexp.MustCompile(`\s+`)

// policyPool recycles sanitizer policies across extractions; building a
// bluemonday policy is not free and extraction runs per document.
var policyPool = sync.Pool{
	New: func() interface{} {
		return bluemonday.StrictPolicy()
	},
}

// ExtractText parses an HTML document and returns its visible text together
// with the page title. The text is produced by a depth-first walk that skips
// script and style subtrees and joins sibling text with single spaces.
// Parsing is forgiving: malformed markup yields whatever text the parser can
// recover, never an error for the caller to handle per-document.
func ExtractText(doc []byte) (text, title string) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		// html.Parse only fails on reader errors; a bytes.Reader has none.
		return "", ""
	}

	var segments []string
	collectText(root, &segments)

	if titleNode := findTitle(root); titleNode != nil {
		title = cleanTitle(textContent(titleNode))
	}

	return strings.Join(segments, " "), title
}

// collectText appends the trimmed contents of every visible text node to
// segments in document order.
func collectText(n *html.Node, segments *[]string) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*segments = append(*segments, repeatedSpaceRegex.ReplaceAllString(t, " "))
		}

		return
	}

	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, segments)
	}
}

// findTitle returns the first <title> element in document order, if any.
func findTitle(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "title" {
		return n
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findTitle(child); found != nil {
			return found
		}
	}

	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			b.WriteString(child.Data)
		}
	}

	return b.String()
}

// cleanTitle strips any markup that leaked into the title text and collapses
// runs of whitespace.
func cleanTitle(raw string) string {
	policy := policyPool.Get().(*bluemonday.Policy)
	defer policyPool.Put(policy)

	clean := repeatedSpaceRegex.ReplaceAllString(policy.Sanitize(raw), " ")

	return strings.TrimSpace(stdhtml.UnescapeString(clean))
}

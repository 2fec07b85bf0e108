// internal/discovery/outline.go
package discovery

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Candidate describes one DOM element worth offering to the model as a
// potential screenshot block.
type Candidate struct {
	Tag      string
	ID       string
	Classes  []string
	Selector string
}

// chartHintRegex matches id/class tokens that suggest a data visualization.
var chartHintRegex = regexp.MustCompile(`(?i)chart|graph|dash|widget|visual|metric|panel|plot|gauge|kpi`)

// containerTags are the element types inspected for chart-like ids/classes.
// canvas and svg are always candidates regardless of naming.
var containerTags = map[string]bool{
	"div":     true,
	"section": true,
	"figure":  true,
	"article": true,
	"main":    true,
	"aside":   true,
}

// BuildOutline parses the page HTML and extracts up to limit candidate
// elements: every canvas/svg, plus containers whose id or class names hint at
// charts or dashboards. The outline keeps prompts small on pages with
// thousands of nodes.
func BuildOutline(pageHTML string, limit int) ([]Candidate, error) {
	doc, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}
	if limit <= 0 {
		limit = 40
	}

	var candidates []Candidate
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if len(candidates) >= limit {
			return
		}
		if n.Type == html.ElementNode {
			if c, ok := candidateFromNode(n); ok {
				candidates = append(candidates, c)
				if n.Data == "svg" {
					// Nested svg internals are never useful candidates.
					return
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return candidates, nil
}

func candidateFromNode(n *html.Node) (Candidate, bool) {
	tag := strings.ToLower(n.Data)

	var id string
	var classes []string
	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "id":
			id = strings.TrimSpace(attr.Val)
		case "class":
			classes = strings.Fields(attr.Val)
		}
	}

	isVisual := tag == "canvas" || tag == "svg"
	if !isVisual {
		if !containerTags[tag] {
			return Candidate{}, false
		}
		if !chartHintRegex.MatchString(id) && !chartHintRegex.MatchString(strings.Join(classes, " ")) {
			return Candidate{}, false
		}
	}

	return Candidate{
		Tag:      tag,
		ID:       id,
		Classes:  classes,
		Selector: deriveSelector(tag, id, classes),
	}, true
}

// deriveSelector builds a CSS selector suggestion, preferring IDs for
// stability and falling back to tag plus classes.
func deriveSelector(tag, id string, classes []string) string {
	if id != "" {
		return "#" + id
	}
	if len(classes) > 0 {
		// Two classes are usually enough to disambiguate without overfitting
		// to generated utility classes.
		n := len(classes)
		if n > 2 {
			n = 2
		}
		return tag + "." + strings.Join(classes[:n], ".")
	}
	return tag
}

// formatOutline renders candidates as compact prompt lines.
func formatOutline(candidates []Candidate) string {
	var sb strings.Builder
	for _, c := range candidates {
		sb.WriteString("- <")
		sb.WriteString(c.Tag)
		if c.ID != "" {
			fmt.Fprintf(&sb, " id=%q", c.ID)
		}
		if len(c.Classes) > 0 {
			fmt.Fprintf(&sb, " class=%q", strings.Join(c.Classes, " "))
		}
		fmt.Fprintf(&sb, "> selector: %s\n", c.Selector)
	}
	return sb.String()
}

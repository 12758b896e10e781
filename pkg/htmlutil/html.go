// Package htmlutil sanitizes and strips the rich-text HTML that course
// descriptions, lesson content, and FAQ answers are authored in.
package htmlutil

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// allowedTags are the formatting tags kept by Sanitize. Everything else,
// scripts and event handlers included, is dropped.
var allowedTags = map[string]bool{
	"p": true, "br": true, "strong": true, "b": true, "em": true, "i": true,
	"u": true, "s": true, "ul": true, "ol": true, "li": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"a": true, "code": true, "pre": true,
}

// allowedAttrs maps tag name to the attributes kept on it.
var allowedAttrs = map[string]map[string]bool{
	"a": {"href": true, "title": true},
}

var multipleSpacesPattern = regexp.MustCompile(`\s{2,}`)

// Sanitize parses untrusted HTML and re-renders only whitelisted tags and
// attributes. href values with a javascript: scheme are removed.
func Sanitize(input string) string {
	if input == "" {
		return ""
	}

	nodes, err := html.ParseFragment(strings.NewReader(input), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		// Unparseable input is treated as plain text.
		return html.EscapeString(input)
	}

	var sb strings.Builder
	for _, n := range nodes {
		renderSanitized(&sb, n)
	}
	return sb.String()
}

func renderSanitized(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(html.EscapeString(n.Data))
		return
	case html.ElementNode:
		if allowedTags[n.Data] {
			sb.WriteString("<")
			sb.WriteString(n.Data)
			for _, attr := range n.Attr {
				if !allowedAttrs[n.Data][attr.Key] {
					continue
				}
				if attr.Key == "href" && strings.HasPrefix(strings.TrimSpace(strings.ToLower(attr.Val)), "javascript:") {
					continue
				}
				sb.WriteString(` ` + attr.Key + `="` + html.EscapeString(attr.Val) + `"`)
			}
			sb.WriteString(">")
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				renderSanitized(sb, c)
			}
			if n.Data != "br" {
				sb.WriteString("</" + n.Data + ">")
			}
			return
		}
		if n.Data == "script" || n.Data == "style" {
			// Drop contents along with the tag.
			return
		}
	}

	// Disallowed wrapper: keep children, drop the tag itself.
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderSanitized(sb, c)
	}
}

// blockTags get converted to newlines by StripTags to preserve paragraph
// structure.
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// StripTags removes all HTML from a string, returning plain text with
// normalized whitespace. Used to derive course summaries and search text.
func StripTags(input string) string {
	if input == "" {
		return ""
	}

	tokenizer := html.NewTokenizer(strings.NewReader(input))
	var sb strings.Builder
	skipDepth := 0
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return normalizeWhitespace(sb.String())
		case html.TextToken:
			if skipDepth == 0 {
				sb.Write(tokenizer.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				if tt == html.StartTagToken {
					skipDepth++
				} else if tt == html.EndTagToken && skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if blockTags[tag] && tt != html.StartTagToken {
				sb.WriteString("\n")
			}
		}
	}
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	nonEmpty := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(multipleSpacesPattern.ReplaceAllString(line, " "))
		if line != "" {
			nonEmpty = append(nonEmpty, line)
		}
	}
	return strings.Join(nonEmpty, "\n")
}

// Summarize strips tags and truncates to at most max runes on a word
// boundary, appending an ellipsis when truncated.
func Summarize(input string, max int) string {
	text := strings.ReplaceAll(StripTags(input), "\n", " ")
	if max <= 0 || len([]rune(text)) <= max {
		return text
	}

	runes := []rune(text)
	cut := max
	for cut > 0 && runes[cut-1] != ' ' {
		cut--
	}
	if cut == 0 {
		cut = max
	}
	return strings.TrimSpace(string(runes[:cut])) + "…"
}

package fetch

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// FetchError describes a download that did not return 200 OK.
type FetchError struct {
	Name       string
	URL        string
	StatusCode int    // 0 when the request never got a response
	Title      string // <title> of an HTML error page, if any
	Err        error
}

func (e *FetchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "fetch %s from %s", e.Name, e.URL)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Title != "" {
		fmt.Fprintf(&b, " (%s)", e.Title)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

const maxTitle = 120

// pageTitle returns the trimmed <title> text of an HTML document, or ""
// when body is not HTML or has no title.
func pageTitle(body []byte) string {
	if !bytes.Contains(bytes.ToLower(body), []byte("<title")) {
		return ""
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var title string
	var find func(*html.Node) bool
	find = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" {
			var buf strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					buf.WriteString(c.Data)
				}
			}
			title = strings.Join(strings.Fields(buf.String()), " ")
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if find(c) {
				return true
			}
		}
		return false
	}
	find(doc)

	if r := []rune(title); len(r) > maxTitle {
		title = string(r[:maxTitle]) + "..."
	}
	return title
}

package relay

import (
	"strings"

	"golang.org/x/net/html"
)

// ParseSelectedNetwork returns the option selected in the network drop-down
// of the account page. ok is false when the page has no such drop-down,
// which is how the relay answers unknown credentials.
func ParseSelectedNetwork(page string) (network string, ok bool) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", false
	}
	sel := find(doc, func(n *html.Node) bool {
		return n.Data == "select" && attr(n, "name") == "network"
	})
	if sel == nil {
		return "", false
	}
	opt := find(sel, func(n *html.Node) bool {
		_, selected := lookupAttr(n, "selected")
		return n.Data == "option" && selected
	})
	if opt == nil {
		return "", true
	}
	return strings.TrimSpace(text(opt)), true
}

// ParseNotice returns the text of the notice paragraph shown after an
// account change.
func ParseNotice(page string) (string, bool) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", false
	}
	p := find(doc, func(n *html.Node) bool {
		return n.Data == "p" && attr(n, "class") == "notice"
	})
	if p == nil {
		return "", false
	}
	return strings.TrimSpace(text(p)), true
}

// NoticeNetwork extracts the network name from a notice such as
// "Your network has been changed to IVAO.".
func NoticeNetwork(notice string) string {
	fields := strings.Fields(notice)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimSuffix(fields[len(fields)-1], ".")
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// Package assets holds the web-side bridge client and injects it, together
// with the system info constant, into served pages.
package assets

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
)

//go:embed bridge.js
var bridgeJS string

// BridgeScript returns the bridge client script
func BridgeScript() string {
	return bridgeJS
}

// Inject inserts the prelude scripts (system info first, then the bridge
// client) as the first children of <head>, ahead of any page script. The
// result is always UTF-8.
func Inject(page []byte, prelude ...string) ([]byte, error) {
	page, err := Decode(page, "")
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var tags strings.Builder
	for _, script := range prelude {
		tags.WriteString("<script>")
		tags.WriteString(script)
		tags.WriteString("</script>")
	}

	head := doc.Find("head").First()
	head.PrependHtml(tags.String())

	out, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return []byte(out), nil
}

// Script is one <script> element of a page, in document order. Exactly one
// of Src and Code is set.
type Script struct {
	Src  string
	Code string
}

// Scripts lists the page's classic scripts. Module scripts and non-JS
// types are skipped.
func Scripts(page []byte) ([]Script, error) {
	page, err := Decode(page, "")
	if err != nil {
		return nil, err
	}
	doc, err := htmlquery.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	nodes, err := htmlquery.QueryAll(doc, "//script")
	if err != nil {
		return nil, err
	}

	var scripts []Script
	for _, n := range nodes {
		if htmlquery.ExistsAttr(n, "type") && !isClassic(htmlquery.SelectAttr(n, "type")) {
			continue
		}
		if src := strings.TrimSpace(htmlquery.SelectAttr(n, "src")); src != "" {
			scripts = append(scripts, Script{Src: src})
			continue
		}
		scripts = append(scripts, Script{Code: htmlquery.InnerText(n)})
	}
	return scripts, nil
}

func isClassic(typ string) bool {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "", "text/javascript", "application/javascript":
		return true
	}
	return false
}

package render

import (
	"strings"

	"golang.org/x/net/html"
)

// renderTextRun renders one inline run with its style flags. Flags compose
// by nesting in a fixed order regardless of key order in the source: code
// innermost, then italic, bold, underline, strike, highlight outermost. A
// bold+italic run therefore always renders <strong><em>…</em></strong>.
func renderTextRun(run map[string]any) *html.Node {
	text := asString(run["text"])
	node := textNode(text)

	var wrapped *html.Node = node
	if asBool(run["code"]) {
		wrapped = wrap("code", wrapped)
	}
	if asBool(run["italic"]) {
		wrapped = wrap("em", wrapped)
	}
	if asBool(run["bold"]) {
		wrapped = wrap("strong", wrapped)
	}
	if asBool(run["underline"]) {
		wrapped = wrap("u", wrapped)
	}
	if asBool(run["strike"]) {
		wrapped = wrap("s", wrapped)
	}
	if highlight := asMap(run["highlight"]); highlight != nil {
		wrapped = wrapHighlight(highlight, wrapped)
	}
	return wrapped
}

func wrap(tag string, child *html.Node) *html.Node {
	node := element(tag)
	node.AppendChild(child)
	return node
}

func wrapHighlight(highlight map[string]any, child *html.Node) *html.Node {
	var styles []string
	if color := asString(highlight["color"]); color != "" {
		styles = append(styles, "color: "+color)
	}
	if bg := asString(highlight["backgroundColor"]); bg != "" {
		styles = append(styles, "background-color: "+bg)
	}
	mark := element("mark")
	if len(styles) > 0 {
		mark.Attr = append(mark.Attr, attr("style", strings.Join(styles, "; ")))
	}
	mark.AppendChild(child)
	return mark
}

// flattenText concatenates the literal text of all runs beneath children,
// recursing through nested elements and dropping every style flag.
func flattenText(children []any) string {
	var sb strings.Builder
	for _, raw := range children {
		child, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if text, isRun := child["text"]; isRun {
			sb.WriteString(asString(text))
			continue
		}
		sb.WriteString(flattenText(asSlice(child["children"])))
	}
	return sb.String()
}

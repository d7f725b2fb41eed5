// Package render converts persisted block documents into semantic HTML.
//
// A document is stored as a JSON object keyed by block id. Each block carries
// an ordering index, an indentation depth, an optional alignment, a type tag,
// and a value: an ordered list of elements whose children are either inline
// text runs or nested elements. The renderer walks that tree and produces an
// html.Node tree (golang.org/x/net/html) suitable for server-side rendering.
//
// Rendering is a pure, single-pass transformation. Each call allocates its
// own heading-anchor tracker, so concurrent renders never interfere and
// repeated renders of the same input are identical.
package render

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// ContentToNode renders a block document to an HTML node tree. The returned
// node is a container <div> whose children are the blocks in ascending order
// of their ordering index. A nil or non-object document yields a container
// with no children, never an error.
func ContentToNode(content any) *html.Node {
	root := element("div", attr("class", "content"))

	blocks, ok := content.(map[string]any)
	if !ok {
		return root
	}

	r := &renderer{headingIDs: make(map[string]bool)}
	for _, block := range sortedBlocks(blocks) {
		for _, node := range r.renderBlock(block) {
			root.AppendChild(node)
		}
	}
	return root
}

// ContentToHTML renders a block document to a serialized HTML fragment.
// The container element itself is not emitted, only the rendered blocks.
func ContentToHTML(content any) string {
	root := ContentToNode(content)
	var sb strings.Builder
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		_ = html.Render(&sb, child)
	}
	return sb.String()
}

// Heading describes one heading emitted during a render, in document order.
// Callers use it to build outlines without re-walking the node tree.
type Heading struct {
	Level  int    `json:"level"`
	Text   string `json:"text"`
	Anchor string `json:"anchor"`
}

// ContentOutline renders a document and returns both the serialized HTML and
// the headings claimed during that same pass.
func ContentOutline(content any) (string, []Heading) {
	blocks, ok := content.(map[string]any)
	if !ok {
		return "", nil
	}

	r := &renderer{headingIDs: make(map[string]bool)}
	root := element("div", attr("class", "content"))
	for _, block := range sortedBlocks(blocks) {
		for _, node := range r.renderBlock(block) {
			root.AppendChild(node)
		}
	}

	var sb strings.Builder
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		_ = html.Render(&sb, child)
	}
	return sb.String(), r.headings
}

// renderer carries the per-render state: anchor ids already claimed and the
// headings emitted so far. One renderer serves exactly one render pass.
type renderer struct {
	headingIDs map[string]bool
	headings   []Heading
}

type orderedBlock struct {
	id    string
	block map[string]any
	order float64
}

// sortedBlocks flattens the id→block mapping into a slice sorted by each
// block's ordering index. The input mapping has no guaranteed iteration
// order; ties are broken by block id so the result is deterministic.
func sortedBlocks(blocks map[string]any) []map[string]any {
	ordered := make([]orderedBlock, 0, len(blocks))
	for id, raw := range blocks {
		block, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		meta := asMap(block["meta"])
		ordered = append(ordered, orderedBlock{id: id, block: block, order: asFloat(meta["order"])})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].order != ordered[j].order {
			return ordered[i].order < ordered[j].order
		}
		return ordered[i].id < ordered[j].id
	})

	result := make([]map[string]any, len(ordered))
	for i, ob := range ordered {
		result[i] = ob.block
	}
	return result
}

// renderBlock renders one block's value elements and applies the block's
// layout metadata (depth indent, alignment) to the top-level element nodes.
func (r *renderer) renderBlock(block map[string]any) []*html.Node {
	meta := asMap(block["meta"])
	depth := int(asFloat(meta["depth"]))
	align := asString(meta["align"])

	var nodes []*html.Node
	for _, raw := range asSlice(block["value"]) {
		elem, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		for _, node := range r.renderElement(elem) {
			if node.Type == html.ElementNode {
				applyLayout(node, depth, align)
			}
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// renderElement dispatches on the element's type tag. Unrecognized types
// degrade to rendering their children unwrapped; this is a deliberate
// best-effort policy, logged as a non-fatal diagnostic.
func (r *renderer) renderElement(elem map[string]any) []*html.Node {
	typ := asString(elem["type"])
	props := asMap(elem["props"])
	children := asSlice(elem["children"])

	switch typ {
	case "paragraph":
		return []*html.Node{wrapChildren("p", nil, r.renderChildren(children))}
	case "heading-one":
		return []*html.Node{r.renderHeading(1, children)}
	case "heading-two":
		return []*html.Node{r.renderHeading(2, children)}
	case "heading-three":
		return []*html.Node{r.renderHeading(3, children)}
	case "blockquote":
		return []*html.Node{wrapChildren("blockquote", nil, r.renderChildren(children))}
	case "callout":
		theme := asString(props["theme"])
		if theme == "" {
			theme = "default"
		}
		class := "callout callout-" + theme
		return []*html.Node{wrapChildren("div", []html.Attribute{attr("class", class)}, r.renderChildren(children))}
	case "bulleted-list":
		return []*html.Node{r.renderList("ul", children)}
	case "numbered-list":
		return []*html.Node{r.renderList("ol", children)}
	case "list-item":
		return []*html.Node{wrapChildren("li", nil, r.renderChildren(children))}
	case "todo-list":
		return []*html.Node{r.renderTodo(props, children)}
	case "code":
		return []*html.Node{renderCode(props, children)}
	case "table":
		return []*html.Node{wrapChildren("table", nil, r.renderChildren(children))}
	case "table-row":
		return []*html.Node{wrapChildren("tr", nil, r.renderChildren(children))}
	case "table-data-cell":
		return []*html.Node{r.renderTableCell(props, children)}
	case "image":
		return renderImage(props)
	case "video":
		return renderVideo(props)
	case "file":
		return renderFile(props, children)
	case "divider":
		return []*html.Node{element("hr")}
	case "link":
		return []*html.Node{r.renderLink(props, children)}
	case "embed":
		return []*html.Node{renderEmbed(props)}
	default:
		if typ != "" {
			log.Printf("render: unrecognized element type %q, rendering children", typ)
		}
		return r.renderChildren(children)
	}
}

// renderChildren renders a mixed sequence of text runs and nested elements.
// A child with a "text" key is an inline run; a child with a "type" key is a
// nested element. Anything else is skipped.
func (r *renderer) renderChildren(children []any) []*html.Node {
	var nodes []*html.Node
	for _, raw := range children {
		child, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if _, isRun := child["text"]; isRun {
			if node := renderTextRun(child); node != nil {
				nodes = append(nodes, node)
			}
			continue
		}
		if _, isElem := child["type"]; isElem {
			nodes = append(nodes, r.renderElement(child)...)
		}
	}
	return nodes
}

func (r *renderer) renderHeading(level int, children []any) *html.Node {
	text := flattenText(children)
	anchor := r.claimAnchor(slugify(text))
	r.headings = append(r.headings, Heading{Level: level, Text: text, Anchor: anchor})
	tag := fmt.Sprintf("h%d", level)
	return wrapChildren(tag, []html.Attribute{attr("id", anchor)}, r.renderChildren(children))
}

// claimAnchor returns base if it is unused in this render, otherwise the
// first unused base-1, base-2, … suffix, and marks the result as claimed.
func (r *renderer) claimAnchor(base string) string {
	if !r.headingIDs[base] {
		r.headingIDs[base] = true
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !r.headingIDs[candidate] {
			r.headingIDs[candidate] = true
			return candidate
		}
	}
}

// slugify lowercases the text and replaces runs of non-alphanumeric
// characters with single hyphens, trimming hyphens at the edges.
func slugify(text string) string {
	var sb strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				sb.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.TrimRight(sb.String(), "-")
	if slug == "" {
		return "heading"
	}
	return slug
}

// renderList wraps item children in a ul/ol. Children that are nested
// elements (list items) render as-is; a run of inline text children is
// wrapped in a single <li> so flat list values still produce valid markup.
func (r *renderer) renderList(tag string, children []any) *html.Node {
	list := element(tag)
	var pendingRuns []*html.Node
	flushRuns := func() {
		if len(pendingRuns) == 0 {
			return
		}
		list.AppendChild(wrapChildren("li", nil, pendingRuns))
		pendingRuns = nil
	}

	for _, raw := range children {
		child, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if _, isRun := child["text"]; isRun {
			if node := renderTextRun(child); node != nil {
				pendingRuns = append(pendingRuns, node)
			}
			continue
		}
		flushRuns()
		rendered := r.renderElement(child)
		if asString(child["type"]) == "list-item" {
			for _, node := range rendered {
				list.AppendChild(node)
			}
			continue
		}
		if len(rendered) > 0 {
			list.AppendChild(wrapChildren("li", nil, rendered))
		}
	}
	flushRuns()
	return list
}

// renderTodo renders a checklist item: a checkbox indicator driven by the
// checked property, with checked item text struck through.
func (r *renderer) renderTodo(props map[string]any, children []any) *html.Node {
	checked := asBool(props["checked"])

	box := element("input", attr("type", "checkbox"), attr("disabled", ""))
	if checked {
		box.Attr = append(box.Attr, attr("checked", ""))
	}

	item := element("div", attr("class", "todo-item"))
	item.AppendChild(box)

	content := r.renderChildren(children)
	if checked {
		item.AppendChild(wrapChildren("s", nil, content))
	} else {
		for _, node := range content {
			item.AppendChild(node)
		}
	}
	return item
}

func (r *renderer) renderTableCell(props map[string]any, children []any) *html.Node {
	tag := "td"
	if asBool(props["asHeader"]) {
		tag = "th"
	}
	var attrs []html.Attribute
	if align := asString(props["align"]); align != "" {
		attrs = append(attrs, attr("style", "text-align: "+align))
	}
	return wrapChildren(tag, attrs, r.renderChildren(children))
}

func (r *renderer) renderLink(props map[string]any, children []any) *html.Node {
	attrs := []html.Attribute{attr("href", asString(props["url"]))}
	if target := asString(props["target"]); target != "" {
		attrs = append(attrs, attr("target", target))
	}
	if rel := asString(props["rel"]); rel != "" {
		attrs = append(attrs, attr("rel", rel))
	}
	return wrapChildren("a", attrs, r.renderChildren(children))
}

// renderCode flattens all child runs into a single preformatted block.
// Styling flags on code text are ignored; the language tag is preserved for
// downstream syntax highlighting.
func renderCode(props map[string]any, children []any) *html.Node {
	language := asString(props["language"])

	code := element("code")
	if language != "" {
		code.Attr = append(code.Attr, attr("class", "language-"+language))
	}
	code.AppendChild(textNode(flattenText(children)))

	pre := element("pre")
	if language != "" {
		pre.Attr = append(pre.Attr, attr("data-language", language))
	}
	pre.AppendChild(code)
	return pre
}

func renderImage(props map[string]any) []*html.Node {
	src := asString(props["src"])
	if src == "" {
		return nil
	}
	img := element("img", attr("src", src))
	if alt := asString(props["alt"]); alt != "" {
		img.Attr = append(img.Attr, attr("alt", alt))
	}
	if sizes := asMap(props["sizes"]); sizes != nil {
		if w := asFloat(sizes["width"]); w > 0 {
			img.Attr = append(img.Attr, attr("width", fmt.Sprintf("%d", int(w))))
		}
		if h := asFloat(sizes["height"]); h > 0 {
			img.Attr = append(img.Attr, attr("height", fmt.Sprintf("%d", int(h))))
		}
	}
	return []*html.Node{img}
}

func renderVideo(props map[string]any) []*html.Node {
	src := asString(props["src"])
	if src == "" {
		return nil
	}
	video := element("video", attr("src", src), attr("controls", ""))
	if poster := asString(props["poster"]); poster != "" {
		video.Attr = append(video.Attr, attr("poster", poster))
	}
	return []*html.Node{video}
}

func renderFile(props map[string]any, children []any) []*html.Node {
	src := asString(props["src"])
	if src == "" {
		return nil
	}
	name := asString(props["name"])
	if name == "" {
		name = flattenText(children)
	}
	if name == "" {
		name = src
	}
	link := element("a", attr("href", src), attr("download", ""))
	link.AppendChild(textNode(name))
	return []*html.Node{link}
}

// applyLayout appends indentation and alignment styles from the block's
// layout metadata onto a top-level element node.
func applyLayout(node *html.Node, depth int, align string) {
	var styles []string
	if depth > 0 {
		styles = append(styles, fmt.Sprintf("margin-left: %dpx", depth*24))
	}
	if align != "" && align != "left" {
		styles = append(styles, "text-align: "+align)
	}
	if len(styles) == 0 {
		return
	}
	style := strings.Join(styles, "; ")
	for i, a := range node.Attr {
		if a.Key == "style" {
			node.Attr[i].Val = a.Val + "; " + style
			return
		}
	}
	node.Attr = append(node.Attr, attr("style", style))
}

// Node construction helpers.

func element(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag, Attr: attrs}
}

func textNode(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

func wrapChildren(tag string, attrs []html.Attribute, children []*html.Node) *html.Node {
	node := element(tag, attrs...)
	for _, child := range children {
		node.AppendChild(child)
	}
	return node
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

// JSON accessor helpers. Content arrives as decoded JSON, so values are
// map[string]any, []any, string, float64, or bool.

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

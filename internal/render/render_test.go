package render

import (
	"fmt"
	"strings"
	"testing"
)

// block builds a block record with the given order and value elements.
func block(order int, value ...map[string]any) map[string]any {
	items := make([]any, len(value))
	for i, v := range value {
		items[i] = v
	}
	return map[string]any{
		"meta":  map[string]any{"order": float64(order), "depth": float64(0)},
		"value": items,
	}
}

func elem(typ string, children ...any) map[string]any {
	return map[string]any{"type": typ, "children": children}
}

func elemWithProps(typ string, props map[string]any, children ...any) map[string]any {
	return map[string]any{"type": typ, "props": props, "children": children}
}

func run(text string) map[string]any {
	return map[string]any{"text": text}
}

func TestContentToHTML_NilAndMalformedInput(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"nil input", nil},
		{"string input", "not a document"},
		{"number input", 42.0},
		{"slice input", []any{"a", "b"}},
		{"empty mapping", map[string]any{}},
		{"non-object block values", map[string]any{"b1": "junk", "b2": 7.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContentToHTML(tt.input); got != "" {
				t.Errorf("expected empty render, got %q", got)
			}
		})
	}
}

func TestContentToHTML_BlockTypes(t *testing.T) {
	tests := []struct {
		name     string
		element  map[string]any
		expected string
	}{
		{
			name:     "paragraph",
			element:  elem("paragraph", run("Hello world")),
			expected: "<p>Hello world</p>",
		},
		{
			name:     "blockquote",
			element:  elem("blockquote", run("quoted")),
			expected: "<blockquote>quoted</blockquote>",
		},
		{
			name:     "callout with theme",
			element:  elemWithProps("callout", map[string]any{"theme": "warning"}, run("careful")),
			expected: `<div class="callout callout-warning">careful</div>`,
		},
		{
			name:     "divider",
			element:  elem("divider"),
			expected: "<hr",
		},
		{
			name:     "heading gets anchor id",
			element:  elem("heading-two", run("Getting Started")),
			expected: `<h2 id="getting-started">Getting Started</h2>`,
		},
		{
			name: "code block flattens runs and keeps language",
			element: elemWithProps("code", map[string]any{"language": "go"},
				map[string]any{"text": "func main() ", "bold": true},
				run("{}"),
			),
			expected: `<pre data-language="go"><code class="language-go">func main() {}</code></pre>`,
		},
		{
			name: "bulleted list",
			element: elem("bulleted-list",
				elem("list-item", run("first")),
				elem("list-item", run("second")),
			),
			expected: "<ul><li>first</li><li>second</li></ul>",
		},
		{
			name:     "numbered list with flat runs",
			element:  elem("numbered-list", run("only item")),
			expected: "<ol><li>only item</li></ol>",
		},
		{
			name:     "link element",
			element:  elemWithProps("link", map[string]any{"url": "https://example.com", "target": "_blank"}, run("visit")),
			expected: `<a href="https://example.com" target="_blank">visit</a>`,
		},
		{
			name:     "image",
			element:  elemWithProps("image", map[string]any{"src": "/img/cat.png", "alt": "a cat", "sizes": map[string]any{"width": 640.0, "height": 480.0}}),
			expected: `<img src="/img/cat.png" alt="a cat" width="640" height="480"`,
		},
		{
			name: "table cell header with alignment",
			element: elem("table",
				elem("table-row",
					elemWithProps("table-data-cell", map[string]any{"asHeader": true, "align": "center"}, run("Name")),
					elem("table-data-cell", run("inkwell")),
				),
			),
			expected: `<table><tr><th style="text-align: center">Name</th><td>inkwell</td></tr></table>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ContentToHTML(map[string]any{"b1": block(0, tt.element)})
			if !strings.Contains(got, tt.expected) {
				t.Errorf("ContentToHTML() = %q, want substring %q", got, tt.expected)
			}
		})
	}
}

func TestContentToHTML_OrderingInvariant(t *testing.T) {
	// Keys deliberately sort opposite to the ordering index.
	content := map[string]any{
		"zzz": block(0, elem("paragraph", run("first"))),
		"mmm": block(1, elem("paragraph", run("second"))),
		"aaa": block(2, elem("paragraph", run("third"))),
	}

	want := "<p>first</p><p>second</p><p>third</p>"
	for i := 0; i < 20; i++ {
		if got := ContentToHTML(content); got != want {
			t.Fatalf("render %d: got %q, want %q", i, got, want)
		}
	}
}

func TestContentToHTML_OrderTieBrokenByBlockID(t *testing.T) {
	content := map[string]any{
		"b": block(5, elem("paragraph", run("two"))),
		"a": block(5, elem("paragraph", run("one"))),
	}
	want := "<p>one</p><p>two</p>"
	if got := ContentToHTML(content); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestContentToHTML_Idempotence(t *testing.T) {
	content := map[string]any{
		"b1": block(0, elem("heading-one", run("Overview"))),
		"b2": block(1, elem("heading-two", run("Overview"))),
		"b3": block(2, elem("paragraph", run("body text"))),
		"b4": block(3, elem("heading-two", run("Overview"))),
	}

	first := ContentToHTML(content)
	second := ContentToHTML(content)
	if first != second {
		t.Errorf("renders differ:\nfirst:  %q\nsecond: %q", first, second)
	}
}

func TestHeadingAnchors_UniqueWithSuffixesInDocumentOrder(t *testing.T) {
	content := map[string]any{}
	for i := 0; i < 4; i++ {
		content[fmt.Sprintf("b%d", i)] = block(i, elem("heading-three", run("Common Pitfalls")))
	}

	_, headings := ContentOutline(content)
	if len(headings) != 4 {
		t.Fatalf("expected 4 headings, got %d", len(headings))
	}

	want := []string{"common-pitfalls", "common-pitfalls-1", "common-pitfalls-2", "common-pitfalls-3"}
	seen := map[string]bool{}
	for i, h := range headings {
		if h.Anchor != want[i] {
			t.Errorf("heading %d: anchor = %q, want %q", i, h.Anchor, want[i])
		}
		if seen[h.Anchor] {
			t.Errorf("duplicate anchor %q", h.Anchor)
		}
		seen[h.Anchor] = true
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Getting Started", "getting-started"},
		{"Hello, World!", "hello-world"},
		{"  spaced   out  ", "spaced-out"},
		{"C++ & Go (2024)", "c-go-2024"},
		{"---", "heading"},
		{"", "heading"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := slugify(tt.input); got != tt.expected {
				t.Errorf("slugify(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTextRun_StyleCompositionOrder(t *testing.T) {
	content := map[string]any{
		"b1": block(0, elem("paragraph", map[string]any{
			// Key order here must not matter: italic nests inside bold.
			"italic": true,
			"text":   "styled",
			"bold":   true,
		})),
	}

	got := ContentToHTML(content)
	want := "<p><strong><em>styled</em></strong></p>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTextRun_AllFlagsNestFixedOrder(t *testing.T) {
	content := map[string]any{
		"b1": block(0, elem("paragraph", map[string]any{
			"text":      "x",
			"strike":    true,
			"underline": true,
			"code":      true,
			"bold":      true,
			"italic":    true,
			"highlight": map[string]any{"color": "#fff", "backgroundColor": "#f90"},
		})),
	}

	got := ContentToHTML(content)
	want := `<p><mark style="color: #fff; background-color: #f90"><s><u><strong><em><code>x</code></em></strong></u></s></mark></p>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestUnknownElementType_RendersChildrenUnwrapped(t *testing.T) {
	content := map[string]any{
		"b1": block(0, elem("holographic-widget", run("still here"))),
	}

	got := ContentToHTML(content)
	if got != "still here" {
		t.Errorf("expected bare text %q, got %q", "still here", got)
	}
}

func TestUnknownElementType_NoChildrenRendersNothing(t *testing.T) {
	content := map[string]any{
		"b1": block(0, elem("mystery-block")),
	}

	if got := ContentToHTML(content); got != "" {
		t.Errorf("expected empty render, got %q", got)
	}
}

func TestTodoList_CheckedStrikesText(t *testing.T) {
	content := map[string]any{
		"b1": block(0, elemWithProps("todo-list", map[string]any{"checked": true}, run("done thing"))),
		"b2": block(1, elemWithProps("todo-list", map[string]any{"checked": false}, run("open thing"))),
	}

	got := ContentToHTML(content)
	if !strings.Contains(got, `checked=""`) {
		t.Errorf("expected checked indicator, got %q", got)
	}
	if !strings.Contains(got, "<s>done thing</s>") {
		t.Errorf("expected struck checked text, got %q", got)
	}
	if strings.Contains(got, "<s>open thing</s>") {
		t.Errorf("unchecked text must not be struck, got %q", got)
	}
}

func TestBlockLayout_DepthAndAlignment(t *testing.T) {
	content := map[string]any{
		"b1": map[string]any{
			"meta":  map[string]any{"order": 0.0, "depth": 2.0, "align": "center"},
			"value": []any{elem("paragraph", run("indented"))},
		},
	}

	got := ContentToHTML(content)
	if !strings.Contains(got, "margin-left: 48px") {
		t.Errorf("expected depth indent, got %q", got)
	}
	if !strings.Contains(got, "text-align: center") {
		t.Errorf("expected alignment style, got %q", got)
	}
}

func TestContentToHTML_EscapesText(t *testing.T) {
	content := map[string]any{
		"b1": block(0, elem("paragraph", run(`<script>alert("x")</script>`))),
	}

	got := ContentToHTML(content)
	if strings.Contains(got, "<script>") {
		t.Errorf("text was not escaped: %q", got)
	}
	if !strings.Contains(got, "&lt;script&gt;") {
		t.Errorf("expected escaped markup, got %q", got)
	}
}

func TestContentOutline_HeadingsInDocumentOrder(t *testing.T) {
	content := map[string]any{
		"b1": block(0, elem("heading-one", run("Intro"))),
		"b2": block(1, elem("paragraph", run("text"))),
		"b3": block(2, elem("heading-two", run("Details"))),
	}

	htmlOut, headings := ContentOutline(content)
	if htmlOut == "" {
		t.Fatal("expected non-empty html")
	}
	if len(headings) != 2 {
		t.Fatalf("expected 2 headings, got %d", len(headings))
	}
	if headings[0].Level != 1 || headings[0].Text != "Intro" || headings[0].Anchor != "intro" {
		t.Errorf("unexpected first heading: %+v", headings[0])
	}
	if headings[1].Level != 2 || headings[1].Anchor != "details" {
		t.Errorf("unexpected second heading: %+v", headings[1])
	}
}

func TestNestedElements_ListItemContainingParagraph(t *testing.T) {
	content := map[string]any{
		"b1": block(0, elem("bulleted-list",
			elem("list-item", elem("paragraph", run("nested para"))),
		)),
	}

	got := ContentToHTML(content)
	want := "<ul><li><p>nested para</p></li></ul>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

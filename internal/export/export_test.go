package export

import (
	"html/template"
	"strings"
	"testing"
	"time"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "Hello-World"},
		{"My Article v1.2", "My-Article-v12"},
		{"Special!@#$%Chars", "SpecialChars"},
		{"", "article"},
		{"Very Long Title That Exceeds Fifty Characters Limit", "Very-Long-Title-That-Exceeds-Fifty-Characters-Limi"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := sanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello world", "hello%20world"},       // Spaces encoded as %20, not +
		{"test+sign", "test%2Bsign"},           // + signs are encoded
		{"special<>", "special%3C%3E"},         // Special chars encoded
		{"normal-text.txt", "normal-text.txt"}, // Unreserved chars pass through
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := percentEncodeForDataURL(tt.input)
			if result != tt.expected {
				t.Errorf("percentEncodeForDataURL(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRenderArticleHTML(t *testing.T) {
	data := TemplateData{
		Title:       "Test Article",
		Description: "A test description",
		ContentHTML: template.HTML("<p>This is the content.</p>"),
		TopicTitle:  "Engineering",
		UpdatedAt:   time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC),
		Comments: []TemplateComment{
			{
				Author:    "Reader",
				Body:      "Great post",
				CreatedAt: time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC),
			},
		},
	}

	html, err := RenderArticleHTML(data)
	if err != nil {
		t.Fatalf("RenderArticleHTML() error = %v", err)
	}

	if !strings.Contains(html, "Test Article") {
		t.Error("HTML missing title")
	}
	if !strings.Contains(html, "A test description") {
		t.Error("HTML missing description")
	}
	if !strings.Contains(html, "Engineering") {
		t.Error("HTML missing topic")
	}
	if !strings.Contains(html, "Comments") {
		t.Error("HTML missing comments section")
	}
	if !strings.Contains(html, "Great post") {
		t.Error("HTML missing comment body")
	}

	// Rendered article HTML must not be escaped.
	if strings.Contains(html, "&lt;p&gt;") {
		t.Error("HTML content was escaped - should be rendered as raw HTML")
	}
	if !strings.Contains(html, "<p>This is the content.</p>") {
		t.Error("HTML content should contain unescaped <p> tags")
	}
}

func TestRenderArticleHTMLEscapesComments(t *testing.T) {
	data := TemplateData{
		Title:       "Post",
		ContentHTML: template.HTML("<p>ok</p>"),
		UpdatedAt:   time.Now(),
		Comments: []TemplateComment{
			{Author: "evil", Body: "<script>alert(1)</script>", CreatedAt: time.Now()},
		},
	}

	html, err := RenderArticleHTML(data)
	if err != nil {
		t.Fatalf("RenderArticleHTML() error = %v", err)
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("comment body should be escaped")
	}
}

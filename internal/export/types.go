// Package export provides article export functionality for PDF and DOCX formats.
package export

import (
	"errors"
	"time"
)

// Format represents the export output format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// Request contains parameters for an export operation
type Request struct {
	Slug            string
	Version         string // "latest" or commit hash
	Format          Format
	IncludeComments bool
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// ArticleInfo holds the article metadata needed for export
type ArticleInfo struct {
	ID          string
	Slug        string
	Title       string
	Description string
	TopicID     string
	UpdatedAt   time.Time
}

// CommentInfo holds comment data included in an export
type CommentInfo struct {
	Author    string
	Body      string
	CreatedAt time.Time
}

var (
	// ErrContentUnavailable indicates article content could not be loaded for export.
	ErrContentUnavailable = errors.New("export content unavailable")
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrDOCXDependencyMissing indicates DOCX export runtime dependencies are unavailable.
	ErrDOCXDependencyMissing = errors.New("export docx dependency missing")
)

package export

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"

	"inkwell/api/internal/render"
)

// DataSource defines the data access the export service needs
type DataSource interface {
	GetArticle(ctx context.Context, slug string) (ArticleInfo, error)
	GetTopicTitle(ctx context.Context, topicID string) (string, error)
	ListComments(ctx context.Context, articleID string) ([]CommentInfo, error)
	// GetArticleContent returns the block document for the requested
	// version: "latest" (or empty) for the current state, otherwise a
	// revision hash.
	GetArticleContent(ctx context.Context, articleID, version string) (json.RawMessage, error)
}

// Service provides article export functionality
type Service struct {
	source DataSource
}

// NewService creates a new export service
func NewService(source DataSource) *Service {
	return &Service{source: source}
}

// Export generates an export in the requested format
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	article, err := s.source.GetArticle(ctx, req.Slug)
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}

	topicTitle, err := s.source.GetTopicTitle(ctx, article.TopicID)
	if err != nil {
		return nil, fmt.Errorf("get topic: %w", err)
	}

	raw, err := s.source.GetArticleContent(ctx, article.ID, req.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentUnavailable, err)
	}

	var content any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &content); err != nil {
			return nil, fmt.Errorf("%w: decode content: %v", ErrContentUnavailable, err)
		}
	}

	data := TemplateData{
		Title:       article.Title,
		Description: article.Description,
		ContentHTML: template.HTML(render.ContentToHTML(content)),
		TopicTitle:  topicTitle,
		UpdatedAt:   article.UpdatedAt,
		Comments:    []TemplateComment{},
	}

	if req.IncludeComments {
		comments, err := s.source.ListComments(ctx, article.ID)
		if err != nil {
			return nil, fmt.Errorf("list comments: %w", err)
		}
		for _, c := range comments {
			data.Comments = append(data.Comments, TemplateComment{
				Author:    c.Author,
				Body:      c.Body,
				CreatedAt: c.CreatedAt,
			})
		}
	}

	html, err := RenderArticleHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch req.Format {
	case FormatPDF:
		return exportPDF(html, article.Title)
	case FormatDOCX:
		return exportDOCX(html, article.Title)
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}

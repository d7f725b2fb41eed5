// Package app wires the content store, renderer, and supporting services
// behind the public HTTP API.
package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"inkwell/api/internal/config"
	"inkwell/api/internal/export"
	"inkwell/api/internal/media"
	"inkwell/api/internal/render"
	"inkwell/api/internal/revision"
	"inkwell/api/internal/search"
	"inkwell/api/internal/stats"
	"inkwell/api/internal/store"
	"inkwell/api/internal/util"
)

const (
	maxCommentAuthorLen = 80
	maxCommentBodyLen   = 4000
	maxSlugLen          = 120
)

type dataStore interface {
	Ping(ctx context.Context) error

	ListTopics(ctx context.Context, includeUnpublished bool) ([]store.Topic, error)
	GetTopicBySlug(ctx context.Context, slug string) (store.Topic, error)
	GetTopicByID(ctx context.Context, id string) (store.Topic, error)
	CreateTopic(ctx context.Context, t store.Topic) (store.Topic, error)
	UpdateTopic(ctx context.Context, t store.Topic) (store.Topic, error)
	DeleteTopic(ctx context.Context, id string) error

	ListSubtopics(ctx context.Context, topicID string, includeUnpublished bool) ([]store.Subtopic, error)
	CreateSubtopic(ctx context.Context, st store.Subtopic) (store.Subtopic, error)
	UpdateSubtopic(ctx context.Context, st store.Subtopic) (store.Subtopic, error)
	DeleteSubtopic(ctx context.Context, id string) error

	ListArticles(ctx context.Context, filter store.ArticleFilter) ([]store.Article, error)
	GetArticleBySlug(ctx context.Context, slug string) (store.Article, error)
	GetArticleByID(ctx context.Context, id string) (store.Article, error)
	CreateArticle(ctx context.Context, a store.Article) (store.Article, error)
	UpdateArticle(ctx context.Context, a store.Article) (store.Article, error)
	DeleteArticle(ctx context.Context, id string) error

	ListNotes(ctx context.Context, includeUnpublished bool) ([]store.Note, error)
	GetNoteBySlug(ctx context.Context, slug string) (store.Note, error)
	CreateNote(ctx context.Context, n store.Note) (store.Note, error)
	UpdateNote(ctx context.Context, n store.Note) (store.Note, error)
	DeleteNote(ctx context.Context, id string) error

	ListProjects(ctx context.Context, includeUnpublished bool) ([]store.Project, error)
	GetProjectBySlug(ctx context.Context, slug string) (store.Project, error)
	CreateProject(ctx context.Context, p store.Project) (store.Project, error)
	UpdateProject(ctx context.Context, p store.Project) (store.Project, error)
	DeleteProject(ctx context.Context, id string) error

	ListComments(ctx context.Context, articleID string) ([]store.Comment, error)
	CreateComment(ctx context.Context, c store.Comment) (store.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

type revisionLog interface {
	EnsureArticleRepo(articleID string, initial revision.Snapshot, author string) error
	CommitSnapshot(articleID string, snapshot revision.Snapshot, author, message string) (revision.CommitInfo, error)
	History(articleID string, limit int) ([]revision.CommitInfo, error)
	SnapshotAt(articleID, hash string) (revision.Snapshot, error)
	Remove(articleID string) error
}

type searchIndex interface {
	Search(q search.Query) search.Response
	IndexArticle(a search.ArticleRecord)
	IndexNote(n search.NoteRecord)
	IndexProject(p search.ProjectRecord)
	DeleteArticle(id string)
	DeleteNote(id string)
	DeleteProject(id string)
}

type Service struct {
	cfg       config.Config
	store     dataStore
	revisions revisionLog
	search    searchIndex   // nil when search is not configured
	counter   stats.Counter // nil only in tests
	media     *media.Service
}

func New(cfg config.Config, dataStore *store.PostgresStore, revisions *revision.Service) *Service {
	return &Service{
		cfg:       cfg,
		store:     dataStore,
		revisions: revisions,
	}
}

func (s *Service) WithSearch(index *search.Service) *Service {
	s.search = index
	return s
}

func (s *Service) WithCounter(counter stats.Counter) *Service {
	s.counter = counter
	return s
}

func (s *Service) WithMedia(mediaSvc *media.Service) *Service {
	s.media = mediaSvc
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) AdminToken() string {
	return s.cfg.AdminToken
}

// ── Topics ──

type TopicInput struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	SortOrder   int    `json:"sortOrder"`
	Published   bool   `json:"published"`
}

func (s *Service) ListTopics(ctx context.Context, includeUnpublished bool) ([]map[string]any, error) {
	topics, err := s.store.ListTopics(ctx, includeUnpublished)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(topics))
	for _, t := range topics {
		items = append(items, topicPayload(t))
	}
	return items, nil
}

func (s *Service) GetTopic(ctx context.Context, slug string, includeUnpublished bool) (map[string]any, error) {
	topic, err := s.store.GetTopicBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !topic.Published && !includeUnpublished {
		return nil, sql.ErrNoRows
	}

	subtopics, err := s.store.ListSubtopics(ctx, topic.ID, includeUnpublished)
	if err != nil {
		return nil, err
	}

	payload := topicPayload(topic)
	subs := make([]map[string]any, 0, len(subtopics))
	for _, st := range subtopics {
		subs = append(subs, subtopicPayload(st))
	}
	payload["subtopics"] = subs
	return payload, nil
}

func (s *Service) CreateTopic(ctx context.Context, input TopicInput) (map[string]any, error) {
	slug, err := resolveSlug(input.Slug, input.Title)
	if err != nil {
		return nil, err
	}

	topic, err := s.store.CreateTopic(ctx, store.Topic{
		ID:          util.NewID("top"),
		Slug:        slug,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		SortOrder:   input.SortOrder,
		Published:   input.Published,
	})
	if err != nil {
		return nil, err
	}
	return topicPayload(topic), nil
}

func (s *Service) UpdateTopic(ctx context.Context, slug string, input TopicInput) (map[string]any, error) {
	topic, err := s.store.GetTopicBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}

	topic.Title = strings.TrimSpace(input.Title)
	topic.Description = strings.TrimSpace(input.Description)
	topic.SortOrder = input.SortOrder
	topic.Published = input.Published

	updated, err := s.store.UpdateTopic(ctx, topic)
	if err != nil {
		return nil, err
	}
	return topicPayload(updated), nil
}

func (s *Service) DeleteTopic(ctx context.Context, slug string) error {
	topic, err := s.store.GetTopicBySlug(ctx, slug)
	if err != nil {
		return err
	}
	return s.store.DeleteTopic(ctx, topic.ID)
}

// ── Subtopics ──

func (s *Service) ListSubtopics(ctx context.Context, topicSlug string, includeUnpublished bool) ([]map[string]any, error) {
	topic, err := s.store.GetTopicBySlug(ctx, topicSlug)
	if err != nil {
		return nil, err
	}
	subtopics, err := s.store.ListSubtopics(ctx, topic.ID, includeUnpublished)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(subtopics))
	for _, st := range subtopics {
		items = append(items, subtopicPayload(st))
	}
	return items, nil
}

func (s *Service) CreateSubtopic(ctx context.Context, topicSlug string, input TopicInput) (map[string]any, error) {
	topic, err := s.store.GetTopicBySlug(ctx, topicSlug)
	if err != nil {
		return nil, err
	}
	slug, err := resolveSlug(input.Slug, input.Title)
	if err != nil {
		return nil, err
	}

	subtopic, err := s.store.CreateSubtopic(ctx, store.Subtopic{
		ID:          util.NewID("sub"),
		TopicID:     topic.ID,
		Slug:        slug,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		SortOrder:   input.SortOrder,
		Published:   input.Published,
	})
	if err != nil {
		return nil, err
	}
	return subtopicPayload(subtopic), nil
}

func (s *Service) UpdateSubtopic(ctx context.Context, topicSlug, subtopicSlug string, input TopicInput) (map[string]any, error) {
	subtopic, err := s.findSubtopic(ctx, topicSlug, subtopicSlug)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}

	subtopic.Title = strings.TrimSpace(input.Title)
	subtopic.Description = strings.TrimSpace(input.Description)
	subtopic.SortOrder = input.SortOrder
	subtopic.Published = input.Published

	updated, err := s.store.UpdateSubtopic(ctx, subtopic)
	if err != nil {
		return nil, err
	}
	return subtopicPayload(updated), nil
}

func (s *Service) DeleteSubtopic(ctx context.Context, topicSlug, subtopicSlug string) error {
	subtopic, err := s.findSubtopic(ctx, topicSlug, subtopicSlug)
	if err != nil {
		return err
	}
	return s.store.DeleteSubtopic(ctx, subtopic.ID)
}

func (s *Service) findSubtopic(ctx context.Context, topicSlug, subtopicSlug string) (store.Subtopic, error) {
	topic, err := s.store.GetTopicBySlug(ctx, topicSlug)
	if err != nil {
		return store.Subtopic{}, err
	}
	subtopics, err := s.store.ListSubtopics(ctx, topic.ID, true)
	if err != nil {
		return store.Subtopic{}, err
	}
	for _, st := range subtopics {
		if st.Slug == subtopicSlug {
			return st, nil
		}
	}
	return store.Subtopic{}, sql.ErrNoRows
}

// ── Articles ──

type ArticleInput struct {
	Slug         string          `json:"slug"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	TopicSlug    string          `json:"topic"`
	SubtopicSlug string          `json:"subtopic"`
	CoverImage   string          `json:"coverImage"`
	Content      json.RawMessage `json:"content"`
	Published    bool            `json:"published"`
	Featured     bool            `json:"featured"`
	SortOrder    int             `json:"sortOrder"`
	Author       string          `json:"author"`
}

type ArticleListFilter struct {
	TopicSlug     string
	SubtopicSlug  string
	FeaturedOnly  bool
	PublishedOnly bool
	Limit         int
	Offset        int
}

func (s *Service) ListArticles(ctx context.Context, filter ArticleListFilter) ([]map[string]any, error) {
	articles, err := s.store.ListArticles(ctx, store.ArticleFilter{
		TopicSlug:     filter.TopicSlug,
		SubtopicSlug:  filter.SubtopicSlug,
		PublishedOnly: filter.PublishedOnly,
		FeaturedOnly:  filter.FeaturedOnly,
		Limit:         filter.Limit,
		Offset:        filter.Offset,
	})
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(articles))
	for _, a := range articles {
		items = append(items, articleSummary(a))
	}
	return items, nil
}

// GetArticlePage returns an article with its content rendered to HTML, the
// heading outline, and current view/like counters.
func (s *Service) GetArticlePage(ctx context.Context, slug string, includeUnpublished bool) (map[string]any, error) {
	article, err := s.store.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !article.Published && !includeUnpublished {
		return nil, sql.ErrNoRows
	}

	html, outline := renderContent(article.Content)

	payload := articleSummary(article)
	payload["html"] = html
	payload["outline"] = outline

	views, likes := int64(0), int64(0)
	if s.counter != nil {
		articleStats, err := s.counter.Get(ctx, article.ID)
		if err == nil {
			views, likes = articleStats.Views, articleStats.Likes
		}
	}
	payload["views"] = views
	payload["likes"] = likes
	return payload, nil
}

// GetArticleSource returns the raw block document for editing.
func (s *Service) GetArticleSource(ctx context.Context, slug string) (map[string]any, error) {
	article, err := s.store.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	payload := articleSummary(article)
	payload["content"] = rawOrNull(article.Content)
	return payload, nil
}

func (s *Service) CreateArticle(ctx context.Context, input ArticleInput) (map[string]any, error) {
	topic, err := s.store.GetTopicBySlug(ctx, strings.TrimSpace(input.TopicSlug))
	if err != nil {
		return nil, err
	}
	slug, err := resolveSlug(input.Slug, input.Title)
	if err != nil {
		return nil, err
	}

	var subtopicID *string
	if sub := strings.TrimSpace(input.SubtopicSlug); sub != "" {
		subtopic, err := s.findSubtopic(ctx, topic.Slug, sub)
		if err != nil {
			return nil, err
		}
		subtopicID = &subtopic.ID
	}

	article, err := s.store.CreateArticle(ctx, store.Article{
		ID:          util.NewID("art"),
		TopicID:     topic.ID,
		SubtopicID:  subtopicID,
		Slug:        slug,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		CoverImage:  strings.TrimSpace(input.CoverImage),
		Content:     input.Content,
		Published:   input.Published,
		Featured:    input.Featured,
		SortOrder:   input.SortOrder,
	})
	if err != nil {
		return nil, err
	}

	author := firstNonBlank(strings.TrimSpace(input.Author), "admin")
	if err := s.revisions.EnsureArticleRepo(article.ID, snapshotOf(article), author); err != nil {
		return nil, fmt.Errorf("init revision history: %w", err)
	}
	s.indexArticle(article)

	return articleSummary(article), nil
}

func (s *Service) UpdateArticle(ctx context.Context, slug string, input ArticleInput) (map[string]any, error) {
	article, err := s.store.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}

	if sub := strings.TrimSpace(input.SubtopicSlug); sub != "" {
		topic, err := s.store.GetTopicByID(ctx, article.TopicID)
		if err != nil {
			return nil, err
		}
		subtopic, err := s.findSubtopic(ctx, topic.Slug, sub)
		if err != nil {
			return nil, err
		}
		article.SubtopicID = &subtopic.ID
	} else {
		article.SubtopicID = nil
	}

	article.Title = strings.TrimSpace(input.Title)
	article.Description = strings.TrimSpace(input.Description)
	article.CoverImage = strings.TrimSpace(input.CoverImage)
	article.Content = input.Content
	article.Published = input.Published
	article.Featured = input.Featured
	article.SortOrder = input.SortOrder

	updated, err := s.store.UpdateArticle(ctx, article)
	if err != nil {
		return nil, err
	}

	author := firstNonBlank(strings.TrimSpace(input.Author), "admin")
	if _, err := s.revisions.CommitSnapshot(updated.ID, snapshotOf(updated), author, "Update "+updated.Slug); err != nil {
		return nil, fmt.Errorf("record revision: %w", err)
	}
	s.indexArticle(updated)

	return articleSummary(updated), nil
}

func (s *Service) DeleteArticle(ctx context.Context, slug string) error {
	article, err := s.store.GetArticleBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if err := s.store.DeleteArticle(ctx, article.ID); err != nil {
		return err
	}
	if err := s.revisions.Remove(article.ID); err != nil {
		return fmt.Errorf("remove revision history: %w", err)
	}
	if s.search != nil {
		s.search.DeleteArticle(article.ID)
	}
	return nil
}

// RecordArticleView bumps the view counter for a published article.
func (s *Service) RecordArticleView(ctx context.Context, slug, clientKey string) (map[string]any, error) {
	article, err := s.store.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !article.Published {
		return nil, sql.ErrNoRows
	}
	views := int64(0)
	if s.counter != nil {
		views, err = s.counter.RecordView(ctx, article.ID, clientKey)
		if err != nil {
			return nil, err
		}
	}
	return map[string]any{"views": views}, nil
}

func (s *Service) LikeArticle(ctx context.Context, slug string) (map[string]any, error) {
	return s.changeLikes(ctx, slug, true)
}

func (s *Service) UnlikeArticle(ctx context.Context, slug string) (map[string]any, error) {
	return s.changeLikes(ctx, slug, false)
}

func (s *Service) changeLikes(ctx context.Context, slug string, add bool) (map[string]any, error) {
	article, err := s.store.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !article.Published {
		return nil, sql.ErrNoRows
	}
	likes := int64(0)
	if s.counter != nil {
		if add {
			likes, err = s.counter.AddLike(ctx, article.ID)
		} else {
			likes, err = s.counter.RemoveLike(ctx, article.ID)
		}
		if err != nil {
			return nil, err
		}
	}
	return map[string]any{"likes": likes}, nil
}

// ── Comments ──

func (s *Service) ListArticleComments(ctx context.Context, slug string) ([]map[string]any, error) {
	article, err := s.store.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(comments))
	for _, c := range comments {
		items = append(items, commentPayload(c))
	}
	return items, nil
}

func (s *Service) AddComment(ctx context.Context, slug, author, body string) (map[string]any, error) {
	author = strings.TrimSpace(author)
	body = strings.TrimSpace(body)
	if author == "" || body == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "author and body are required", nil)
	}
	if len(author) > maxCommentAuthorLen || len(body) > maxCommentBodyLen {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "comment too long", nil)
	}

	article, err := s.store.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !article.Published {
		return nil, sql.ErrNoRows
	}

	comment, err := s.store.CreateComment(ctx, store.Comment{
		ID:        util.NewID("cmt"),
		ArticleID: article.ID,
		Author:    author,
		Body:      body,
	})
	if err != nil {
		return nil, err
	}
	return commentPayload(comment), nil
}

func (s *Service) DeleteComment(ctx context.Context, id string) error {
	return s.store.DeleteComment(ctx, id)
}

// ── Revisions ──

func (s *Service) ArticleHistory(ctx context.Context, slug string, limit int) ([]map[string]any, error) {
	article, err := s.store.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	commits, err := s.revisions.History(article.ID, limit)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(commits))
	for _, c := range commits {
		items = append(items, map[string]any{
			"hash":      c.Hash,
			"message":   strings.TrimSpace(c.Message),
			"author":    c.Author,
			"createdAt": c.CreatedAt,
		})
	}
	return items, nil
}

// ArticleAt returns a past revision rendered to HTML.
func (s *Service) ArticleAt(ctx context.Context, slug, hash string) (map[string]any, error) {
	article, err := s.store.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.revisions.SnapshotAt(article.ID, hash)
	if err != nil {
		return nil, domainError(http.StatusNotFound, "REVISION_NOT_FOUND", "Revision not found", nil)
	}

	html, outline := renderContent(snapshot.Content)
	return map[string]any{
		"slug":        article.Slug,
		"hash":        hash,
		"title":       snapshot.Title,
		"description": snapshot.Description,
		"html":        html,
		"outline":     outline,
	}, nil
}

// ── Export ──

func (s *Service) ExportArticle(ctx context.Context, slug, version, format string, includeComments, includeUnpublished bool) (*export.Result, error) {
	if format == "" {
		format = string(export.FormatPDF)
	}
	article, err := s.store.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !article.Published && !includeUnpublished {
		return nil, sql.ErrNoRows
	}
	exporter := export.NewService(exportSource{s})
	return exporter.Export(ctx, export.Request{
		Slug:            slug,
		Version:         version,
		Format:          export.Format(format),
		IncludeComments: includeComments,
	})
}

// exportSource adapts the app service to the export data interface.
type exportSource struct {
	s *Service
}

func (e exportSource) GetArticle(ctx context.Context, slug string) (export.ArticleInfo, error) {
	article, err := e.s.store.GetArticleBySlug(ctx, slug)
	if err != nil {
		return export.ArticleInfo{}, err
	}
	return export.ArticleInfo{
		ID:          article.ID,
		Slug:        article.Slug,
		Title:       article.Title,
		Description: article.Description,
		TopicID:     article.TopicID,
		UpdatedAt:   article.UpdatedAt,
	}, nil
}

func (e exportSource) GetTopicTitle(ctx context.Context, topicID string) (string, error) {
	topic, err := e.s.store.GetTopicByID(ctx, topicID)
	if err != nil {
		return "", err
	}
	return topic.Title, nil
}

func (e exportSource) ListComments(ctx context.Context, articleID string) ([]export.CommentInfo, error) {
	comments, err := e.s.store.ListComments(ctx, articleID)
	if err != nil {
		return nil, err
	}
	infos := make([]export.CommentInfo, 0, len(comments))
	for _, c := range comments {
		infos = append(infos, export.CommentInfo{
			Author:    c.Author,
			Body:      c.Body,
			CreatedAt: c.CreatedAt,
		})
	}
	return infos, nil
}

func (e exportSource) GetArticleContent(ctx context.Context, articleID, version string) (json.RawMessage, error) {
	if version == "" || version == "latest" {
		article, err := e.s.store.GetArticleByID(ctx, articleID)
		if err != nil {
			return nil, err
		}
		return article.Content, nil
	}
	snapshot, err := e.s.revisions.SnapshotAt(articleID, version)
	if err != nil {
		return nil, err
	}
	return snapshot.Content, nil
}

// ── Search ──

func (s *Service) Search(ctx context.Context, text, filterType string, limit, offset int, publishedOnly bool) (search.Response, error) {
	if s.search == nil {
		return search.Response{}, domainError(http.StatusServiceUnavailable, "SEARCH_UNAVAILABLE", "Search is not configured", nil)
	}
	switch search.ResultType(filterType) {
	case "", search.ResultArticle, search.ResultNote, search.ResultProject:
	default:
		return search.Response{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown result type", nil)
	}
	return s.search.Search(search.Query{
		Text:          strings.TrimSpace(text),
		FilterType:    search.ResultType(filterType),
		PublishedOnly: publishedOnly,
		Limit:         limit,
		Offset:        offset,
	}), nil
}

// ── Notes ──

type NoteInput struct {
	Slug      string          `json:"slug"`
	Title     string          `json:"title"`
	Content   json.RawMessage `json:"content"`
	Published bool            `json:"published"`
}

func (s *Service) ListNotes(ctx context.Context, includeUnpublished bool) ([]map[string]any, error) {
	notes, err := s.store.ListNotes(ctx, includeUnpublished)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(notes))
	for _, n := range notes {
		items = append(items, noteSummary(n))
	}
	return items, nil
}

func (s *Service) GetNotePage(ctx context.Context, slug string, includeUnpublished bool) (map[string]any, error) {
	note, err := s.store.GetNoteBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !note.Published && !includeUnpublished {
		return nil, sql.ErrNoRows
	}
	html, _ := renderContent(note.Content)
	payload := noteSummary(note)
	payload["html"] = html
	return payload, nil
}

func (s *Service) CreateNote(ctx context.Context, input NoteInput) (map[string]any, error) {
	slug, err := resolveSlug(input.Slug, input.Title)
	if err != nil {
		return nil, err
	}
	note, err := s.store.CreateNote(ctx, store.Note{
		ID:        util.NewID("note"),
		Slug:      slug,
		Title:     strings.TrimSpace(input.Title),
		Content:   input.Content,
		Published: input.Published,
	})
	if err != nil {
		return nil, err
	}
	if s.search != nil {
		s.search.IndexNote(search.NoteRecord{ID: note.ID, Slug: note.Slug, Title: note.Title, Published: note.Published})
	}
	return noteSummary(note), nil
}

func (s *Service) UpdateNote(ctx context.Context, slug string, input NoteInput) (map[string]any, error) {
	note, err := s.store.GetNoteBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	note.Title = strings.TrimSpace(input.Title)
	note.Content = input.Content
	note.Published = input.Published

	updated, err := s.store.UpdateNote(ctx, note)
	if err != nil {
		return nil, err
	}
	if s.search != nil {
		s.search.IndexNote(search.NoteRecord{ID: updated.ID, Slug: updated.Slug, Title: updated.Title, Published: updated.Published})
	}
	return noteSummary(updated), nil
}

func (s *Service) DeleteNote(ctx context.Context, slug string) error {
	note, err := s.store.GetNoteBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if err := s.store.DeleteNote(ctx, note.ID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteNote(note.ID)
	}
	return nil
}

// ── Projects ──

type ProjectInput struct {
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	RepoURL     string          `json:"repoUrl"`
	DemoURL     string          `json:"demoUrl"`
	CoverImage  string          `json:"coverImage"`
	Content     json.RawMessage `json:"content"`
	Published   bool            `json:"published"`
	Featured    bool            `json:"featured"`
	SortOrder   int             `json:"sortOrder"`
}

func (s *Service) ListProjects(ctx context.Context, includeUnpublished bool) ([]map[string]any, error) {
	projects, err := s.store.ListProjects(ctx, includeUnpublished)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(projects))
	for _, p := range projects {
		items = append(items, projectSummary(p))
	}
	return items, nil
}

func (s *Service) GetProjectPage(ctx context.Context, slug string, includeUnpublished bool) (map[string]any, error) {
	project, err := s.store.GetProjectBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !project.Published && !includeUnpublished {
		return nil, sql.ErrNoRows
	}
	html, _ := renderContent(project.Content)
	payload := projectSummary(project)
	payload["html"] = html
	return payload, nil
}

func (s *Service) CreateProject(ctx context.Context, input ProjectInput) (map[string]any, error) {
	slug, err := resolveSlug(input.Slug, input.Title)
	if err != nil {
		return nil, err
	}
	project, err := s.store.CreateProject(ctx, store.Project{
		ID:          util.NewID("proj"),
		Slug:        slug,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		RepoURL:     strings.TrimSpace(input.RepoURL),
		DemoURL:     strings.TrimSpace(input.DemoURL),
		CoverImage:  strings.TrimSpace(input.CoverImage),
		Content:     input.Content,
		Published:   input.Published,
		Featured:    input.Featured,
		SortOrder:   input.SortOrder,
	})
	if err != nil {
		return nil, err
	}
	s.indexProject(project)
	return projectSummary(project), nil
}

func (s *Service) UpdateProject(ctx context.Context, slug string, input ProjectInput) (map[string]any, error) {
	project, err := s.store.GetProjectBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	project.Title = strings.TrimSpace(input.Title)
	project.Description = strings.TrimSpace(input.Description)
	project.RepoURL = strings.TrimSpace(input.RepoURL)
	project.DemoURL = strings.TrimSpace(input.DemoURL)
	project.CoverImage = strings.TrimSpace(input.CoverImage)
	project.Content = input.Content
	project.Published = input.Published
	project.Featured = input.Featured
	project.SortOrder = input.SortOrder

	updated, err := s.store.UpdateProject(ctx, project)
	if err != nil {
		return nil, err
	}
	s.indexProject(updated)
	return projectSummary(updated), nil
}

func (s *Service) DeleteProject(ctx context.Context, slug string) error {
	project, err := s.store.GetProjectBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, project.ID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteProject(project.ID)
	}
	return nil
}

// ── Media ──

func (s *Service) UploadMedia(ctx context.Context, filename, contentType string, size int64, body io.Reader) (map[string]any, error) {
	if s.media == nil {
		return nil, domainError(http.StatusServiceUnavailable, "MEDIA_UNAVAILABLE", "Media storage is not configured", nil)
	}
	object, err := s.media.Upload(ctx, filename, contentType, size, body)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"key":         object.Key,
		"size":        object.Size,
		"contentType": object.ContentType,
	}, nil
}

func (s *Service) MediaURL(ctx context.Context, key string, expiry time.Duration) (map[string]any, error) {
	if s.media == nil {
		return nil, domainError(http.StatusServiceUnavailable, "MEDIA_UNAVAILABLE", "Media storage is not configured", nil)
	}
	url, err := s.media.PresignedURL(ctx, key, expiry)
	if err != nil {
		return nil, err
	}
	return map[string]any{"url": url}, nil
}

// ── helpers ──

func (s *Service) indexArticle(a store.Article) {
	if s.search == nil {
		return
	}
	s.search.IndexArticle(search.ArticleRecord{
		ID:          a.ID,
		Slug:        a.Slug,
		Title:       a.Title,
		Description: a.Description,
		Published:   a.Published,
	})
}

func (s *Service) indexProject(p store.Project) {
	if s.search == nil {
		return
	}
	s.search.IndexProject(search.ProjectRecord{
		ID:          p.ID,
		Slug:        p.Slug,
		Title:       p.Title,
		Description: p.Description,
		Published:   p.Published,
	})
}

func snapshotOf(a store.Article) revision.Snapshot {
	return revision.Snapshot{
		Title:       a.Title,
		Description: a.Description,
		Content:     a.Content,
	}
}

func renderContent(raw json.RawMessage) (string, []render.Heading) {
	if len(raw) == 0 {
		return "", []render.Heading{}
	}
	var content any
	if err := json.Unmarshal(raw, &content); err != nil {
		return "", []render.Heading{}
	}
	html, outline := render.ContentOutline(content)
	if outline == nil {
		outline = []render.Heading{}
	}
	return html, outline
}

func topicPayload(t store.Topic) map[string]any {
	return map[string]any{
		"slug":        t.Slug,
		"title":       t.Title,
		"description": t.Description,
		"sortOrder":   t.SortOrder,
		"published":   t.Published,
		"updatedAt":   t.UpdatedAt,
	}
}

func subtopicPayload(st store.Subtopic) map[string]any {
	return map[string]any{
		"slug":        st.Slug,
		"title":       st.Title,
		"description": st.Description,
		"sortOrder":   st.SortOrder,
		"published":   st.Published,
		"updatedAt":   st.UpdatedAt,
	}
}

func articleSummary(a store.Article) map[string]any {
	return map[string]any{
		"slug":        a.Slug,
		"title":       a.Title,
		"description": a.Description,
		"coverImage":  a.CoverImage,
		"published":   a.Published,
		"featured":    a.Featured,
		"sortOrder":   a.SortOrder,
		"publishedAt": a.PublishedAt,
		"updatedAt":   a.UpdatedAt,
	}
}

func noteSummary(n store.Note) map[string]any {
	return map[string]any{
		"slug":      n.Slug,
		"title":     n.Title,
		"published": n.Published,
		"createdAt": n.CreatedAt,
		"updatedAt": n.UpdatedAt,
	}
}

func projectSummary(p store.Project) map[string]any {
	return map[string]any{
		"slug":        p.Slug,
		"title":       p.Title,
		"description": p.Description,
		"repoUrl":     p.RepoURL,
		"demoUrl":     p.DemoURL,
		"coverImage":  p.CoverImage,
		"published":   p.Published,
		"featured":    p.Featured,
		"sortOrder":   p.SortOrder,
		"updatedAt":   p.UpdatedAt,
	}
}

func commentPayload(c store.Comment) map[string]any {
	return map[string]any{
		"id":        c.ID,
		"author":    c.Author,
		"body":      c.Body,
		"createdAt": c.CreatedAt,
	}
}

func rawOrNull(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

// resolveSlug validates an explicit slug or derives one from the title.
func resolveSlug(slug, title string) (string, error) {
	slug = strings.TrimSpace(slug)
	title = strings.TrimSpace(title)
	if title == "" {
		return "", domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	if slug == "" {
		slug = slugify(title)
	}
	if slug == "" || len(slug) > maxSlugLen || !validSlug(slug) {
		return "", domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "slug must contain only lowercase letters, digits, and hyphens", nil)
	}
	return slug, nil
}

func validSlug(slug string) bool {
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			continue
		}
		return false
	}
	return slug[0] != '-' && slug[len(slug)-1] != '-'
}

func slugify(text string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(text) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrSlugTaken is returned by the create operations when the requested slug
// already exists within its parent scope.
var ErrSlugTaken = errors.New("slug already taken")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ── Topics ──

func (s *PostgresStore) ListTopics(ctx context.Context, includeUnpublished bool) ([]Topic, error) {
	query := `
		SELECT id, slug, title, description, sort_order, published, created_at, updated_at
		FROM topics
	`
	if !includeUnpublished {
		query += ` WHERE published`
	}
	query += ` ORDER BY sort_order, slug`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var topics []Topic
	for rows.Next() {
		var t Topic
		if err := rows.Scan(&t.ID, &t.Slug, &t.Title, &t.Description, &t.SortOrder, &t.Published, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

func (s *PostgresStore) GetTopicBySlug(ctx context.Context, slug string) (Topic, error) {
	var t Topic
	err := s.db.QueryRowContext(ctx, `
		SELECT id, slug, title, description, sort_order, published, created_at, updated_at
		FROM topics WHERE slug=$1
	`, slug).Scan(&t.ID, &t.Slug, &t.Title, &t.Description, &t.SortOrder, &t.Published, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Topic{}, err
	}
	return t, nil
}

func (s *PostgresStore) GetTopicByID(ctx context.Context, id string) (Topic, error) {
	var t Topic
	err := s.db.QueryRowContext(ctx, `
		SELECT id, slug, title, description, sort_order, published, created_at, updated_at
		FROM topics WHERE id=$1
	`, id).Scan(&t.ID, &t.Slug, &t.Title, &t.Description, &t.SortOrder, &t.Published, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Topic{}, err
	}
	return t, nil
}

func (s *PostgresStore) CreateTopic(ctx context.Context, t Topic) (Topic, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM topics WHERE slug=$1)`, t.Slug).Scan(&exists); err != nil {
		return Topic{}, fmt.Errorf("check topic slug: %w", err)
	}
	if exists {
		return Topic{}, ErrSlugTaken
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO topics (id, slug, title, description, sort_order, published)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, t.ID, t.Slug, t.Title, t.Description, t.SortOrder, t.Published).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Topic{}, fmt.Errorf("insert topic: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) UpdateTopic(ctx context.Context, t Topic) (Topic, error) {
	err := s.db.QueryRowContext(ctx, `
		UPDATE topics
		SET title=$2, description=$3, sort_order=$4, published=$5, updated_at=NOW()
		WHERE id=$1
		RETURNING slug, created_at, updated_at
	`, t.ID, t.Title, t.Description, t.SortOrder, t.Published).Scan(&t.Slug, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Topic{}, err
	}
	return t, nil
}

// DeleteTopic removes a topic; subtopics, articles, and comments beneath it
// go with it via the schema's ON DELETE CASCADE chain.
func (s *PostgresStore) DeleteTopic(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM topics WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	return ensureAffected(result)
}

// ── Subtopics ──

func (s *PostgresStore) ListSubtopics(ctx context.Context, topicID string, includeUnpublished bool) ([]Subtopic, error) {
	query := `
		SELECT id, topic_id, slug, title, description, sort_order, published, created_at, updated_at
		FROM subtopics WHERE topic_id=$1
	`
	if !includeUnpublished {
		query += ` AND published`
	}
	query += ` ORDER BY sort_order, slug`

	rows, err := s.db.QueryContext(ctx, query, topicID)
	if err != nil {
		return nil, fmt.Errorf("list subtopics: %w", err)
	}
	defer rows.Close()

	var subtopics []Subtopic
	for rows.Next() {
		var st Subtopic
		if err := rows.Scan(&st.ID, &st.TopicID, &st.Slug, &st.Title, &st.Description, &st.SortOrder, &st.Published, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan subtopic: %w", err)
		}
		subtopics = append(subtopics, st)
	}
	return subtopics, rows.Err()
}

func (s *PostgresStore) CreateSubtopic(ctx context.Context, st Subtopic) (Subtopic, error) {
	// Subtopic slugs are unique within their topic, not globally.
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM subtopics WHERE topic_id=$1 AND slug=$2)`,
		st.TopicID, st.Slug).Scan(&exists); err != nil {
		return Subtopic{}, fmt.Errorf("check subtopic slug: %w", err)
	}
	if exists {
		return Subtopic{}, ErrSlugTaken
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO subtopics (id, topic_id, slug, title, description, sort_order, published)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, st.ID, st.TopicID, st.Slug, st.Title, st.Description, st.SortOrder, st.Published).Scan(&st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return Subtopic{}, fmt.Errorf("insert subtopic: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) UpdateSubtopic(ctx context.Context, st Subtopic) (Subtopic, error) {
	err := s.db.QueryRowContext(ctx, `
		UPDATE subtopics
		SET title=$2, description=$3, sort_order=$4, published=$5, updated_at=NOW()
		WHERE id=$1
		RETURNING topic_id, slug, created_at, updated_at
	`, st.ID, st.Title, st.Description, st.SortOrder, st.Published).Scan(&st.TopicID, &st.Slug, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return Subtopic{}, err
	}
	return st, nil
}

func (s *PostgresStore) DeleteSubtopic(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM subtopics WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete subtopic: %w", err)
	}
	return ensureAffected(result)
}

// ── Articles ──

type ArticleFilter struct {
	TopicSlug     string
	SubtopicSlug  string
	PublishedOnly bool
	FeaturedOnly  bool
	Limit         int
	Offset        int
}

const articleColumns = `
	a.id, a.topic_id, a.subtopic_id, a.slug, a.title, a.description, a.cover_image,
	a.content, a.published, a.featured, a.sort_order, a.published_at, a.created_at, a.updated_at
`

func (s *PostgresStore) ListArticles(ctx context.Context, filter ArticleFilter) ([]Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles a`
	var joins, where string
	var args []any
	argN := 1

	if filter.TopicSlug != "" {
		joins += ` JOIN topics t ON t.id = a.topic_id`
		where = appendCond(where, fmt.Sprintf("t.slug = $%d", argN))
		args = append(args, filter.TopicSlug)
		argN++
	}
	if filter.SubtopicSlug != "" {
		joins += ` JOIN subtopics st ON st.id = a.subtopic_id`
		where = appendCond(where, fmt.Sprintf("st.slug = $%d", argN))
		args = append(args, filter.SubtopicSlug)
		argN++
	}
	if filter.PublishedOnly {
		where = appendCond(where, "a.published")
	}
	if filter.FeaturedOnly {
		where = appendCond(where, "a.featured")
	}

	query += joins + where + ` ORDER BY a.sort_order, a.published_at DESC NULLS LAST, a.created_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (s *PostgresStore) GetArticleBySlug(ctx context.Context, slug string) (Article, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles a WHERE a.slug=$1`, slug)
	return scanArticle(row)
}

func (s *PostgresStore) GetArticleByID(ctx context.Context, id string) (Article, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles a WHERE a.id=$1`, id)
	return scanArticle(row)
}

func (s *PostgresStore) CreateArticle(ctx context.Context, a Article) (Article, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM articles WHERE slug=$1)`, a.Slug).Scan(&exists); err != nil {
		return Article{}, fmt.Errorf("check article slug: %w", err)
	}
	if exists {
		return Article{}, ErrSlugTaken
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO articles (id, topic_id, subtopic_id, slug, title, description, cover_image,
			content, published, featured, sort_order, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			CASE WHEN $9 THEN NOW() ELSE NULL END)
		RETURNING published_at, created_at, updated_at
	`, a.ID, a.TopicID, a.SubtopicID, a.Slug, a.Title, a.Description, a.CoverImage,
		nullableJSON(a.Content), a.Published, a.Featured, a.SortOrder).
		Scan(&a.PublishedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Article{}, fmt.Errorf("insert article: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) UpdateArticle(ctx context.Context, a Article) (Article, error) {
	err := s.db.QueryRowContext(ctx, `
		UPDATE articles
		SET title=$2, description=$3, cover_image=$4, content=$5, published=$6, featured=$7,
			sort_order=$8, subtopic_id=$9,
			published_at=CASE WHEN $6 AND published_at IS NULL THEN NOW() ELSE published_at END,
			updated_at=NOW()
		WHERE id=$1
		RETURNING topic_id, slug, published_at, created_at, updated_at
	`, a.ID, a.Title, a.Description, a.CoverImage, nullableJSON(a.Content), a.Published, a.Featured,
		a.SortOrder, a.SubtopicID).
		Scan(&a.TopicID, &a.Slug, &a.PublishedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Article{}, err
	}
	return a, nil
}

func (s *PostgresStore) DeleteArticle(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	return ensureAffected(result)
}

// ── Notes ──

func (s *PostgresStore) ListNotes(ctx context.Context, includeUnpublished bool) ([]Note, error) {
	query := `SELECT id, slug, title, content, published, created_at, updated_at FROM notes`
	if !includeUnpublished {
		query += ` WHERE published`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var n Note
		var content sql.NullString
		if err := rows.Scan(&n.ID, &n.Slug, &n.Title, &content, &n.Published, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		if content.Valid {
			n.Content = []byte(content.String)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *PostgresStore) GetNoteBySlug(ctx context.Context, slug string) (Note, error) {
	var n Note
	var content sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, slug, title, content, published, created_at, updated_at FROM notes WHERE slug=$1
	`, slug).Scan(&n.ID, &n.Slug, &n.Title, &content, &n.Published, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return Note{}, err
	}
	if content.Valid {
		n.Content = []byte(content.String)
	}
	return n, nil
}

func (s *PostgresStore) CreateNote(ctx context.Context, n Note) (Note, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM notes WHERE slug=$1)`, n.Slug).Scan(&exists); err != nil {
		return Note{}, fmt.Errorf("check note slug: %w", err)
	}
	if exists {
		return Note{}, ErrSlugTaken
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO notes (id, slug, title, content, published)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, n.ID, n.Slug, n.Title, nullableJSON(n.Content), n.Published).Scan(&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return Note{}, fmt.Errorf("insert note: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) UpdateNote(ctx context.Context, n Note) (Note, error) {
	err := s.db.QueryRowContext(ctx, `
		UPDATE notes SET title=$2, content=$3, published=$4, updated_at=NOW()
		WHERE id=$1
		RETURNING slug, created_at, updated_at
	`, n.ID, n.Title, nullableJSON(n.Content), n.Published).Scan(&n.Slug, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return Note{}, err
	}
	return n, nil
}

func (s *PostgresStore) DeleteNote(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return ensureAffected(result)
}

// ── Projects ──

func (s *PostgresStore) ListProjects(ctx context.Context, includeUnpublished bool) ([]Project, error) {
	query := `
		SELECT id, slug, title, description, repo_url, demo_url, cover_image, content,
			published, featured, sort_order, created_at, updated_at
		FROM projects
	`
	if !includeUnpublished {
		query += ` WHERE published`
	}
	query += ` ORDER BY sort_order, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		var content sql.NullString
		if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Description, &p.RepoURL, &p.DemoURL,
			&p.CoverImage, &content, &p.Published, &p.Featured, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		if content.Valid {
			p.Content = []byte(content.String)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *PostgresStore) GetProjectBySlug(ctx context.Context, slug string) (Project, error) {
	var p Project
	var content sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, slug, title, description, repo_url, demo_url, cover_image, content,
			published, featured, sort_order, created_at, updated_at
		FROM projects WHERE slug=$1
	`, slug).Scan(&p.ID, &p.Slug, &p.Title, &p.Description, &p.RepoURL, &p.DemoURL,
		&p.CoverImage, &content, &p.Published, &p.Featured, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Project{}, err
	}
	if content.Valid {
		p.Content = []byte(content.String)
	}
	return p, nil
}

func (s *PostgresStore) CreateProject(ctx context.Context, p Project) (Project, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE slug=$1)`, p.Slug).Scan(&exists); err != nil {
		return Project{}, fmt.Errorf("check project slug: %w", err)
	}
	if exists {
		return Project{}, ErrSlugTaken
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO projects (id, slug, title, description, repo_url, demo_url, cover_image,
			content, published, featured, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`, p.ID, p.Slug, p.Title, p.Description, p.RepoURL, p.DemoURL, p.CoverImage,
		nullableJSON(p.Content), p.Published, p.Featured, p.SortOrder).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) UpdateProject(ctx context.Context, p Project) (Project, error) {
	err := s.db.QueryRowContext(ctx, `
		UPDATE projects
		SET title=$2, description=$3, repo_url=$4, demo_url=$5, cover_image=$6, content=$7,
			published=$8, featured=$9, sort_order=$10, updated_at=NOW()
		WHERE id=$1
		RETURNING slug, created_at, updated_at
	`, p.ID, p.Title, p.Description, p.RepoURL, p.DemoURL, p.CoverImage, nullableJSON(p.Content),
		p.Published, p.Featured, p.SortOrder).Scan(&p.Slug, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Project{}, err
	}
	return p, nil
}

func (s *PostgresStore) DeleteProject(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return ensureAffected(result)
}

// ── Comments ──

func (s *PostgresStore) ListComments(ctx context.Context, articleID string) ([]Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, article_id, author, body, created_at
		FROM comments WHERE article_id=$1
		ORDER BY created_at
	`, articleID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.ArticleID, &c.Author, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *PostgresStore) CreateComment(ctx context.Context, c Comment) (Comment, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO comments (id, article_id, author, body)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, c.ID, c.ArticleID, c.Author, c.Body).Scan(&c.CreatedAt)
	if err != nil {
		return Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) DeleteComment(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return ensureAffected(result)
}

// ── Stats (Postgres fallback when Redis is not configured) ──

func (s *PostgresStore) IncrementArticleViews(ctx context.Context, articleID string) (int64, error) {
	var views int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO article_stats (article_id, views, likes)
		VALUES ($1, 1, 0)
		ON CONFLICT (article_id) DO UPDATE SET views = article_stats.views + 1
		RETURNING views
	`, articleID).Scan(&views)
	if err != nil {
		return 0, fmt.Errorf("increment views: %w", err)
	}
	return views, nil
}

func (s *PostgresStore) AddArticleLike(ctx context.Context, articleID string, delta int64) (int64, error) {
	var likes int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO article_stats (article_id, views, likes)
		VALUES ($1, 0, GREATEST($2, 0))
		ON CONFLICT (article_id) DO UPDATE SET likes = GREATEST(article_stats.likes + $2, 0)
		RETURNING likes
	`, articleID, delta).Scan(&likes)
	if err != nil {
		return 0, fmt.Errorf("update likes: %w", err)
	}
	return likes, nil
}

func (s *PostgresStore) GetArticleStats(ctx context.Context, articleID string) (ArticleStats, error) {
	stats := ArticleStats{ArticleID: articleID}
	err := s.db.QueryRowContext(ctx, `
		SELECT views, likes FROM article_stats WHERE article_id=$1
	`, articleID).Scan(&stats.Views, &stats.Likes)
	if errors.Is(err, sql.ErrNoRows) {
		return stats, nil
	}
	if err != nil {
		return ArticleStats{}, fmt.Errorf("get article stats: %w", err)
	}
	return stats, nil
}

// ── helpers ──

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (Article, error) {
	var a Article
	var content sql.NullString
	err := row.Scan(&a.ID, &a.TopicID, &a.SubtopicID, &a.Slug, &a.Title, &a.Description,
		&a.CoverImage, &content, &a.Published, &a.Featured, &a.SortOrder,
		&a.PublishedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Article{}, err
	}
	if content.Valid {
		a.Content = []byte(content.String)
	}
	return a, nil
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func appendCond(where, cond string) string {
	if where == "" {
		return " WHERE " + cond
	}
	return where + " AND " + cond
}

func ensureAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

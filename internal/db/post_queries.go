package db

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const postColumns = `
	p.post_id,
	p.post_uuid::text,
	p.title,
	p.summary,
	p.excerpt,
	p.source_name,
	p.source_url,
	p.section_slug,
	p.tags,
	p.content_hash,
	p.status,
	p.origin_type,
	p.image_url,
	p.scraped_content,
	p.article_slug,
	p.company_name,
	p.created_at,
	p.updated_at
`

func scanPost(rows *Rows) (Post, error) {
	var row Post
	var tags []byte
	err := rows.Scan(
		&row.PostID,
		&row.PostUUID,
		&row.Title,
		&row.Summary,
		&row.Excerpt,
		&row.SourceName,
		&row.SourceURL,
		&row.SectionSlug,
		&tags,
		&row.ContentHash,
		&row.Status,
		&row.OriginType,
		&row.ImageURL,
		&row.ScrapedContent,
		&row.ArticleSlug,
		&row.CompanyName,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if err != nil {
		return Post{}, err
	}
	row.Tags = tags
	return row, nil
}

func collectPosts(rows *Rows, capacity int) ([]Post, error) {
	if capacity <= 0 {
		capacity = 16
	}
	posts := make([]Post, 0, capacity)
	for rows.Next() {
		row, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post row: %w", err)
		}
		posts = append(posts, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate post rows: %w", err)
	}
	return posts, nil
}

// FingerprintExists reports whether a post with the given content hash is
// already stored. This is a read-only pre-check; the insert itself is still
// guarded by the unique constraint.
func (p *Pool) FingerprintExists(ctx context.Context, contentHash string) (bool, error) {
	const q = `
SELECT EXISTS (
	SELECT 1 FROM news.posts WHERE content_hash = $1
)
`
	var exists bool
	if err := p.QueryRow(ctx, q, contentHash).Scan(&exists); err != nil {
		return false, fmt.Errorf("check content hash: %w", err)
	}
	return exists, nil
}

// InsertPost inserts a post guarded by the content_hash unique constraint.
// A conflicting insert is reported as inserted=false, never as an error:
// two ingestion runs racing on the same fingerprint is a benign duplicate.
// It takes a Querier so ingestion can run it inside the same transaction as
// the delivery fan-out.
func InsertPost(ctx context.Context, q Querier, post *Post) (int64, bool, error) {
	if post == nil {
		return 0, false, fmt.Errorf("post is nil")
	}
	tags := post.Tags
	if len(tags) == 0 {
		tags = []byte("[]")
	}

	const stmt = `
INSERT INTO news.posts (
	title,
	summary,
	excerpt,
	source_name,
	source_url,
	section_slug,
	tags,
	content_hash,
	status,
	origin_type,
	image_url,
	scraped_content,
	article_slug,
	company_name,
	created_at,
	updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9, $10, $11, $12, $13, $14, $15, $15)
ON CONFLICT (content_hash) DO NOTHING
RETURNING post_id, post_uuid
`

	now := post.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var postID int64
	var postUUID string
	err := q.QueryRow(
		ctx,
		stmt,
		post.Title,
		post.Summary,
		post.Excerpt,
		post.SourceName,
		post.SourceURL,
		post.SectionSlug,
		string(tags),
		post.ContentHash,
		post.Status,
		post.OriginType,
		post.ImageURL,
		post.ScrapedContent,
		post.ArticleSlug,
		post.CompanyName,
		now,
	).Scan(&postID, &postUUID)
	if err != nil {
		if IsNoRows(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("insert post: %w", err)
	}

	post.PostID = postID
	post.PostUUID = postUUID
	return postID, true, nil
}

// ListPublishedPosts returns published posts ordered by recency.
func (p *Pool) ListPublishedPosts(ctx context.Context, limit int) ([]Post, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}

	q := `
SELECT ` + postColumns + `
FROM news.posts p
WHERE p.status = 'published'
ORDER BY p.created_at DESC, p.post_id DESC
LIMIT $1
`

	rows, err := p.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query published posts: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows, limit)
}

// ListSectionPosts returns published posts for one section ordered by recency.
func (p *Pool) ListSectionPosts(ctx context.Context, sectionSlug string, limit, offset int) ([]Post, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}
	if offset < 0 {
		offset = 0
	}

	q := `
SELECT ` + postColumns + `
FROM news.posts p
WHERE p.status = 'published'
  AND p.section_slug = $1
ORDER BY p.created_at DESC, p.post_id DESC
LIMIT $2 OFFSET $3
`

	rows, err := p.Query(ctx, q, strings.TrimSpace(strings.ToLower(sectionSlug)), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query section posts: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows, limit)
}

// ListPostsByTag returns published posts carrying the given tag.
func (p *Pool) ListPostsByTag(ctx context.Context, tag string, limit int) ([]Post, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}
	trimmed := strings.TrimSpace(strings.ToLower(tag))
	if trimmed == "" {
		return nil, fmt.Errorf("tag is required")
	}

	q := `
SELECT ` + postColumns + `
FROM news.posts p
WHERE p.status = 'published'
  AND p.tags ? $1
ORDER BY p.created_at DESC, p.post_id DESC
LIMIT $2
`

	rows, err := p.Query(ctx, q, trimmed, limit)
	if err != nil {
		return nil, fmt.Errorf("query posts by tag: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows, limit)
}

// likePatternEscaper neutralizes ILIKE metacharacters in user text so a
// query like "100%" matches the literal string instead of everything.
var likePatternEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLikePattern(s string) string {
	return likePatternEscaper.Replace(s)
}

// SearchPosts matches published posts by title or summary text and returns
// the total match count for pagination.
func (p *Pool) SearchPosts(ctx context.Context, query string, limit, offset int) ([]Post, int64, error) {
	if limit <= 0 {
		return nil, 0, fmt.Errorf("limit must be > 0")
	}
	if offset < 0 {
		offset = 0
	}
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, 0, fmt.Errorf("query is required")
	}
	pattern := "%" + escapeLikePattern(trimmed) + "%"

	const countQ = `
SELECT COUNT(*)
FROM news.posts p
WHERE p.status = 'published'
  AND (p.title ILIKE $1 OR p.summary ILIKE $1)
`
	var total int64
	if err := p.QueryRow(ctx, countQ, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count search matches: %w", err)
	}

	q := `
SELECT ` + postColumns + `
FROM news.posts p
WHERE p.status = 'published'
  AND (p.title ILIKE $1 OR p.summary ILIKE $1)
ORDER BY p.created_at DESC, p.post_id DESC
LIMIT $2 OFFSET $3
`

	rows, err := p.Query(ctx, q, pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query search matches: %w", err)
	}
	defer rows.Close()

	posts, err := collectPosts(rows, limit)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// GetPostByArticleSlug looks up a published full-article post by its URL-safe slug.
func (p *Pool) GetPostByArticleSlug(ctx context.Context, articleSlug string) (*Post, error) {
	trimmed := strings.TrimSpace(articleSlug)
	if trimmed == "" {
		return nil, fmt.Errorf("article slug is required")
	}

	q := `
SELECT ` + postColumns + `
FROM news.posts p
WHERE p.status = 'published'
  AND p.article_slug = $1
LIMIT 1
`

	rows, err := p.Query(ctx, q, trimmed)
	if err != nil {
		return nil, fmt.Errorf("query post by article slug: %w", err)
	}
	defer rows.Close()

	posts, err := collectPosts(rows, 1)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, ErrNoRows
	}
	return &posts[0], nil
}

// HasRecentCompanyCoverage reports whether any published post since the cutoff
// mentions the company in its title, summary, or company_name.
func (p *Pool) HasRecentCompanyCoverage(ctx context.Context, companyName string, since time.Time) (bool, error) {
	trimmed := strings.TrimSpace(companyName)
	if trimmed == "" {
		return false, nil
	}
	pattern := "%" + escapeLikePattern(trimmed) + "%"

	const q = `
SELECT EXISTS (
	SELECT 1
	FROM news.posts p
	WHERE p.status = 'published'
	  AND p.created_at >= $1
	  AND (p.title ILIKE $2 OR p.summary ILIKE $2 OR p.company_name ILIKE $2)
)
`
	var exists bool
	if err := p.QueryRow(ctx, q, since.UTC(), pattern).Scan(&exists); err != nil {
		return false, fmt.Errorf("check recent company coverage: %w", err)
	}
	return exists, nil
}

// SectionPostCount is used by the summary CLI command.
type SectionPostCount struct {
	SectionSlug string     `json:"section_slug"`
	PostCount   int64      `json:"post_count"`
	LatestAt    *time.Time `json:"latest_at,omitempty"`
}

// CountPublishedBySection returns published post counts per section.
func (p *Pool) CountPublishedBySection(ctx context.Context) ([]SectionPostCount, error) {
	const q = `
SELECT
	s.slug,
	COUNT(p.post_id)::BIGINT,
	MAX(p.created_at)
FROM news.sections s
LEFT JOIN news.posts p
	ON p.section_slug = s.slug
	AND p.status = 'published'
GROUP BY s.slug
ORDER BY s.slug
`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query section counts: %w", err)
	}
	defer rows.Close()

	counts := make([]SectionPostCount, 0, 8)
	for rows.Next() {
		var row SectionPostCount
		if err := rows.Scan(&row.SectionSlug, &row.PostCount, &row.LatestAt); err != nil {
			return nil, fmt.Errorf("scan section count row: %w", err)
		}
		counts = append(counts, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate section count rows: %w", err)
	}
	return counts, nil
}

// SetPostStatus flips a post between published and hidden. Hidden posts stay
// stored but drop out of every public listing.
func (p *Pool) SetPostStatus(ctx context.Context, postID int64, status string) error {
	if status != PostStatusPublished && status != PostStatusHidden {
		return fmt.Errorf("invalid post status %q", status)
	}

	const q = `
UPDATE news.posts
SET status = $2, updated_at = now()
WHERE post_id = $1
`
	tag, err := p.Exec(ctx, q, postID, status)
	if err != nil {
		return fmt.Errorf("update post status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("post %d not found", postID)
	}
	return nil
}

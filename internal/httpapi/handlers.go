package httpapi

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/usfinancemoves/finwire/internal/db"
	"github.com/usfinancemoves/finwire/internal/globaltime"
	"github.com/usfinancemoves/finwire/internal/selection"
)

type postView struct {
	PostUUID    string    `json:"post_uuid"`
	Title       string    `json:"title"`
	Summary     *string   `json:"summary,omitempty"`
	Excerpt     *string   `json:"excerpt,omitempty"`
	SourceName  string    `json:"source_name"`
	SourceURL   string    `json:"source_url"`
	Section     string    `json:"section"`
	Tags        []string  `json:"tags"`
	OriginType  string    `json:"origin_type"`
	ImageURL    *string   `json:"image_url,omitempty"`
	ArticleSlug *string   `json:"article_slug,omitempty"`
	HasLongForm bool      `json:"has_long_form"`
	CreatedAt   time.Time `json:"created_at"`
}

type postDetailView struct {
	postView
	ScrapedContent *string `json:"scraped_content,omitempty"`
	CompanyName    *string `json:"company_name,omitempty"`
}

func toPostView(p *db.Post) postView {
	tags := p.TagList()
	if tags == nil {
		tags = []string{}
	}
	return postView{
		PostUUID:    p.PostUUID,
		Title:       p.Title,
		Summary:     p.Summary,
		Excerpt:     p.Excerpt,
		SourceName:  p.SourceName,
		SourceURL:   p.SourceURL,
		Section:     p.SectionSlug,
		Tags:        tags,
		OriginType:  p.OriginType,
		ImageURL:    p.ImageURL,
		ArticleSlug: p.ArticleSlug,
		HasLongForm: p.HasLongForm(),
		CreatedAt:   p.CreatedAt,
	}
}

func toPostViews(posts []db.Post) []postView {
	views := make([]postView, 0, len(posts))
	for i := range posts {
		views = append(views, toPostView(&posts[i]))
	}
	return views
}

// layout returns the cached site layout for the current time bucket,
// computing it once per bucket.
func (s *Server) layout(ctx context.Context) (selection.Result, []db.Section, error) {
	sections, err := s.pool.ListSections(ctx)
	if err != nil {
		return selection.Result{}, nil, fmt.Errorf("list sections: %w", err)
	}

	slugs := make([]string, 0, len(sections))
	for _, section := range sections {
		slugs = append(slugs, section.Slug)
	}

	now := globaltime.Now()
	key := s.cache.Key(slugs, now)
	if cached, ok := s.cache.Get(key); ok {
		return cached, sections, nil
	}

	posts, err := s.pool.ListPublishedPosts(ctx, s.opts.SelectionFetchSize)
	if err != nil {
		return selection.Result{}, nil, fmt.Errorf("list published posts: %w", err)
	}

	result := selection.Select(posts, sections, s.policy, now)
	s.cache.Put(key, result)
	return result, sections, nil
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.pool.DB().PingContext(c.Request().Context()); err != nil {
		return internalError(c, "Database unreachable")
	}
	return success(c, map[string]any{
		"service":       "finwire",
		"time":          globaltime.UTC(),
		"cache_entries": s.cache.Len(),
	})
}

func (s *Server) handleFeed(c echo.Context) error {
	result, _, err := s.layout(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("compute feed failed")
		return internalError(c, "Failed to load feed")
	}
	return success(c, map[string]any{
		"posts": toPostViews(result.Homepage),
	})
}

func (s *Server) handleSections(c echo.Context) error {
	ctx := c.Request().Context()
	sections, err := s.pool.ListSections(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("list sections failed")
		return internalError(c, "Failed to load sections")
	}
	counts, err := s.pool.CountPublishedBySection(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("count sections failed")
		return internalError(c, "Failed to load sections")
	}
	countBySlug := make(map[string]int64, len(counts))
	for _, row := range counts {
		countBySlug[row.SectionSlug] = row.PostCount
	}

	type sectionView struct {
		Slug      string `json:"slug"`
		Name      string `json:"name"`
		PostCount int64  `json:"post_count"`
	}
	views := make([]sectionView, 0, len(sections))
	for _, section := range sections {
		views = append(views, sectionView{
			Slug:      section.Slug,
			Name:      section.Name,
			PostCount: countBySlug[section.Slug],
		})
	}
	return success(c, map[string]any{"sections": views})
}

func (s *Server) handleSection(c echo.Context) error {
	slug := c.Param("slug")
	result, sections, err := s.layout(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("compute section failed")
		return internalError(c, "Failed to load section")
	}
	for _, section := range sections {
		if section.Slug != slug {
			continue
		}
		return success(c, map[string]any{
			"section": map[string]string{"slug": section.Slug, "name": section.Name},
			"posts":   toPostViews(result.Sections[slug]),
		})
	}
	return failNotFound(c, "Section not found")
}

func (s *Server) handleSectionArchive(c echo.Context) error {
	slug := c.Param("slug")
	page, pageSize := pagination(c)

	posts, err := s.pool.ListSectionPosts(c.Request().Context(), slug, pageSize, (page-1)*pageSize)
	if err != nil {
		s.logger.Error().Err(err).Str("section", slug).Msg("list section archive failed")
		return internalError(c, "Failed to load archive")
	}
	return success(c, map[string]any{
		"section":   slug,
		"page":      page,
		"page_size": pageSize,
		"posts":     toPostViews(posts),
	})
}

func (s *Server) handleTag(c echo.Context) error {
	tag := strings.ToLower(strings.TrimSpace(c.Param("tag")))
	if tag == "" {
		return fail(c, http.StatusBadRequest, "Tag is required", nil)
	}
	_, pageSize := pagination(c)

	posts, err := s.pool.ListPostsByTag(c.Request().Context(), tag, pageSize)
	if err != nil {
		s.logger.Error().Err(err).Str("tag", tag).Msg("list posts by tag failed")
		return internalError(c, "Failed to load tag")
	}
	return success(c, map[string]any{
		"tag":   tag,
		"posts": toPostViews(posts),
	})
}

func (s *Server) handleSearch(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return fail(c, http.StatusBadRequest, "Query parameter q is required", nil)
	}
	page, pageSize := pagination(c)

	posts, total, err := s.pool.SearchPosts(c.Request().Context(), query, pageSize, (page-1)*pageSize)
	if err != nil {
		s.logger.Error().Err(err).Str("query", query).Msg("search failed")
		return internalError(c, "Search failed")
	}
	return success(c, map[string]any{
		"query":     query,
		"page":      page,
		"page_size": pageSize,
		"total":     total,
		"posts":     toPostViews(posts),
	})
}

func (s *Server) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	post, err := s.pool.GetPostByArticleSlug(c.Request().Context(), slug)
	if err != nil {
		if db.IsNoRows(err) {
			return failNotFound(c, "Post not found")
		}
		s.logger.Error().Err(err).Str("slug", slug).Msg("load post failed")
		return internalError(c, "Failed to load post")
	}
	return success(c, postDetailView{
		postView:       toPostView(post),
		ScrapedContent: post.ScrapedContent,
		CompanyName:    post.CompanyName,
	})
}

type invalidateRequest struct {
	Paths  []string `json:"paths"`
	Secret string   `json:"secret"`
}

// handleCacheInvalidate is the inbound side of the web delivery channel: the
// delivery worker (or the site build hook) posts the logical paths that
// changed and the in-process selection cache drops them.
func (s *Server) handleCacheInvalidate(c echo.Context) error {
	if s.opts.RevalidateSecret == "" {
		return fail(c, http.StatusForbidden, "Cache invalidation is disabled", nil)
	}

	var req invalidateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body", nil)
	}
	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(s.opts.RevalidateSecret)) != 1 {
		return fail(c, http.StatusUnauthorized, "Invalid secret", nil)
	}
	if len(req.Paths) == 0 {
		return fail(c, http.StatusBadRequest, "At least one path is required", nil)
	}

	revalidated := s.cache.Invalidate(req.Paths)
	s.logger.Info().Strs("paths", revalidated).Msg("selection cache invalidated")
	return success(c, map[string]any{"revalidated": revalidated})
}

func pagination(c echo.Context) (page, pageSize int) {
	page = 1
	if raw := c.QueryParam("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}
	pageSize = defaultPageSize
	if raw := c.QueryParam("page_size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			pageSize = parsed
		}
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

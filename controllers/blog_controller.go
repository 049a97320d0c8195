package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/capitalpay/capitalpay-api/middleware"
	"github.com/capitalpay/capitalpay-api/models"
	"github.com/capitalpay/capitalpay-api/utils"
)

const blogCachePrefix = "cache:blogs:"

// BlogController manages CRUD operations for blog posts.
type BlogController struct {
	db *gorm.DB
}

// NewBlogController creates a new BlogController instance.
func NewBlogController(db *gorm.DB) *BlogController {
	return &BlogController{db: db}
}

func authorPreload(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email", "avatar")
}

// ListBlogs returns paginated published posts with author information.
// Supports category, featured and search filters.
func (b *BlogController) ListBlogs(ctx *gin.Context) {
	page, limit := utils.ParsePageLimit(ctx.Query("page"), ctx.Query("limit"), 10)
	category := strings.TrimSpace(ctx.Query("category"))
	search := strings.TrimSpace(ctx.Query("search"))
	featured := ctx.Query("featured") == "true"

	// Cache only filter/page combinations without a search term to avoid key explosion
	cacheKey := fmt.Sprintf("%slist:cat=%s:feat=%t:page=%d:limit=%d", blogCachePrefix, category, featured, page, limit)
	if search == "" {
		if cached, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", cached)
			return
		}
	}

	query := b.db.Model(&models.BlogPost{}).Where("status = ?", models.PostStatusPublished)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if featured {
		query = query.Where("featured = ?", true)
	}
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("title LIKE ? OR content LIKE ? OR excerpt LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.InternalError(ctx, "failed to count blog posts", err)
		return
	}

	pagination := utils.NewPagination(page, limit, total)

	find := query.Preload("Author", authorPreload)
	if search != "" {
		// Rank title hits above excerpt hits above body hits, newest first within each band
		pattern := "%" + search + "%"
		find = find.Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN title LIKE ? THEN 0 WHEN excerpt LIKE ? THEN 1 ELSE 2 END, published_at DESC",
			Vars:               []interface{}{pattern, pattern},
			WithoutParentheses: true,
		}})
	} else {
		find = find.Order("published_at DESC")
	}

	var posts []models.BlogPost
	if err := find.Offset(pagination.Offset()).Limit(limit).Find(&posts).Error; err != nil {
		utils.InternalError(ctx, "failed to list blog posts", err)
		return
	}

	if search == "" {
		count := len(posts)
		utils.CacheSetJSON(cacheKey, utils.JSONResponse{Success: true, Count: &count, Pagination: &pagination, Data: posts}, time.Hour)
	}
	utils.List(ctx, posts, len(posts), pagination)
}

// FeaturedBlogs returns up to five featured published posts, newest first.
func (b *BlogController) FeaturedBlogs(ctx *gin.Context) {
	cacheKey := blogCachePrefix + "featured"
	if cached, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", cached)
		return
	}

	var posts []models.BlogPost
	if err := b.db.Where("status = ? AND featured = ?", models.PostStatusPublished, true).
		Preload("Author", authorPreload).
		Order("published_at DESC").
		Limit(5).
		Find(&posts).Error; err != nil {
		utils.InternalError(ctx, "failed to load featured posts", err)
		return
	}

	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Success: true, Data: posts}, time.Hour)
	utils.Success(ctx, posts)
}

// BlogCategories returns the distinct categories of published posts.
func (b *BlogController) BlogCategories(ctx *gin.Context) {
	var categories []string
	if err := b.db.Model(&models.BlogPost{}).
		Where("status = ?", models.PostStatusPublished).
		Distinct().
		Pluck("category", &categories).Error; err != nil {
		utils.InternalError(ctx, "failed to load categories", err)
		return
	}
	utils.Success(ctx, categories)
}

// GetBlog returns a single published post by slug or numeric ID and
// increments its view counter. Not cached so every public read counts.
func (b *BlogController) GetBlog(ctx *gin.Context) {
	post, err := b.findBySlugOrID(ctx.Param("slugOrId"), true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "Blog post not found")
			return
		}
		utils.InternalError(ctx, "failed to load blog post", err)
		return
	}

	if err := b.db.Model(post).UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("failed to increment views for post %d: %v", post.ID, err)
		}
	} else {
		post.Views++
	}

	utils.Success(ctx, post)
}

type blogPostRequest struct {
	Title          string   `json:"title" binding:"required,max=200"`
	Excerpt        string   `json:"excerpt" binding:"required,max=500"`
	Content        string   `json:"content" binding:"required"`
	FeaturedImage  string   `json:"featuredImage"`
	Category       string   `json:"category"`
	Tags           []string `json:"tags"`
	Status         string   `json:"status"`
	Featured       bool     `json:"featured"`
	SEOTitle       string   `json:"seoTitle" binding:"max=60"`
	SEODescription string   `json:"seoDescription" binding:"max=160"`
}

func (r *blogPostRequest) normalize() string {
	r.Title = utils.SanitizeStrict(strings.TrimSpace(r.Title))
	r.Excerpt = utils.SanitizeStrict(strings.TrimSpace(r.Excerpt))
	r.Content = utils.Sanitize(r.Content)
	if r.Title == "" {
		return "Blog title is required"
	}
	if r.Excerpt == "" {
		return "Blog excerpt is required"
	}
	if strings.TrimSpace(r.Content) == "" {
		return "Blog content is required"
	}
	if r.Category == "" {
		r.Category = models.CategoryFinance
	}
	if !models.ValidCategory(r.Category) {
		return "Category must be one of FINANCE, TECHNOLOGY, BUSINESS, NEWS, TUTORIAL"
	}
	if r.Status == "" {
		r.Status = models.PostStatusDraft
	}
	if !models.ValidPostStatus(r.Status) {
		return "Status must be one of draft, published, archived"
	}
	for i := range r.Tags {
		r.Tags[i] = strings.TrimSpace(r.Tags[i])
	}
	return ""
}

// CreateBlog creates a post authored by the principal. Admin/moderator only
// (enforced at the route).
func (b *BlogController) CreateBlog(ctx *gin.Context) {
	var req blogPostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if msg := req.normalize(); msg != "" {
		utils.Error(ctx, http.StatusBadRequest, msg)
		return
	}

	principal, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}

	slug := models.DeriveSlug(req.Title)
	var existing models.BlogPost
	if err := b.db.Where("slug = ?", slug).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusBadRequest, "A blog post with a similar title already exists")
		return
	}

	post := models.BlogPost{
		Title:          req.Title,
		Slug:           slug,
		Excerpt:        req.Excerpt,
		Content:        req.Content,
		FeaturedImage:  req.FeaturedImage,
		Category:       req.Category,
		Tags:           req.Tags,
		AuthorID:       principal.ID,
		Status:         req.Status,
		Featured:       req.Featured,
		ReadTime:       models.DeriveReadTime(req.Content),
		SEOTitle:       req.SEOTitle,
		SEODescription: req.SEODescription,
	}
	models.ApplyPublishTimestamp(&post, time.Now())

	if err := b.db.Create(&post).Error; err != nil {
		utils.InternalError(ctx, "failed to create blog post", err)
		return
	}

	if err := b.db.Preload("Author", authorPreload).First(&post, post.ID).Error; err != nil {
		utils.InternalError(ctx, "failed to load created blog post", err)
		return
	}

	utils.InvalidateByPrefix(blogCachePrefix)
	utils.Created(ctx, "Blog post created successfully", post)
}

// UpdateBlog rewrites a post. Admins, moderators and the author may update;
// derived fields are recomputed from the changed inputs.
func (b *BlogController) UpdateBlog(ctx *gin.Context) {
	post, err := b.findBySlugOrID(ctx.Param("slugOrId"), false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "Blog post not found")
			return
		}
		utils.InternalError(ctx, "failed to load blog post", err)
		return
	}

	principal, _ := middleware.CurrentUser(ctx)
	if !middleware.CanManagePost(principal, post) {
		utils.Error(ctx, http.StatusForbidden, "Not authorized to update this blog post")
		return
	}

	var req blogPostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if msg := req.normalize(); msg != "" {
		utils.Error(ctx, http.StatusBadRequest, msg)
		return
	}

	if req.Title != post.Title {
		slug := models.DeriveSlug(req.Title)
		var clash models.BlogPost
		if err := b.db.Where("slug = ? AND id <> ?", slug, post.ID).First(&clash).Error; err == nil {
			utils.Error(ctx, http.StatusBadRequest, "A blog post with a similar title already exists")
			return
		}
		post.Slug = slug
	}
	if req.Content != post.Content {
		post.ReadTime = models.DeriveReadTime(req.Content)
	}

	post.Title = req.Title
	post.Excerpt = req.Excerpt
	post.Content = req.Content
	post.FeaturedImage = req.FeaturedImage
	post.Category = req.Category
	post.Tags = req.Tags
	post.Status = req.Status
	post.Featured = req.Featured
	post.SEOTitle = req.SEOTitle
	post.SEODescription = req.SEODescription
	models.ApplyPublishTimestamp(post, time.Now())

	if err := b.db.Save(post).Error; err != nil {
		utils.InternalError(ctx, "failed to update blog post", err)
		return
	}

	if err := b.db.Preload("Author", authorPreload).First(post, post.ID).Error; err != nil {
		utils.InternalError(ctx, "failed to load updated blog post", err)
		return
	}

	utils.InvalidateByPrefix(blogCachePrefix)
	utils.SuccessMessage(ctx, "Blog post updated successfully", post)
}

// DeleteBlog removes a post. Admins, moderators and the author may delete.
func (b *BlogController) DeleteBlog(ctx *gin.Context) {
	post, err := b.findBySlugOrID(ctx.Param("slugOrId"), false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "Blog post not found")
			return
		}
		utils.InternalError(ctx, "failed to load blog post", err)
		return
	}

	principal, _ := middleware.CurrentUser(ctx)
	if !middleware.CanManagePost(principal, post) {
		utils.Error(ctx, http.StatusForbidden, "Not authorized to delete this blog post")
		return
	}

	if err := b.db.Delete(post).Error; err != nil {
		utils.InternalError(ctx, "failed to delete blog post", err)
		return
	}

	utils.InvalidateByPrefix(blogCachePrefix)
	utils.SuccessMessage(ctx, "Blog post deleted successfully", nil)
}

// AdminListBlogs returns posts in any state for the admin dashboard.
func (b *BlogController) AdminListBlogs(ctx *gin.Context) {
	page, limit := utils.ParsePageLimit(ctx.Query("page"), ctx.Query("limit"), 10)
	status := strings.TrimSpace(ctx.Query("status"))

	query := b.db.Model(&models.BlogPost{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.InternalError(ctx, "failed to count blog posts", err)
		return
	}

	pagination := utils.NewPagination(page, limit, total)

	var posts []models.BlogPost
	if err := query.Preload("Author", authorPreload).
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(limit).
		Find(&posts).Error; err != nil {
		utils.InternalError(ctx, "failed to list blog posts", err)
		return
	}

	utils.List(ctx, posts, len(posts), pagination)
}

// ToggleFeatured flips the featured flag of a post. Admin only.
func (b *BlogController) ToggleFeatured(ctx *gin.Context) {
	post, err := b.findBySlugOrID(ctx.Param("slugOrId"), false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "Blog post not found")
			return
		}
		utils.InternalError(ctx, "failed to load blog post", err)
		return
	}

	post.Featured = !post.Featured
	if err := b.db.Model(post).UpdateColumn("featured", post.Featured).Error; err != nil {
		utils.InternalError(ctx, "failed to update blog post", err)
		return
	}

	utils.InvalidateByPrefix(blogCachePrefix)
	verb := "unfeatured"
	if post.Featured {
		verb = "featured"
	}
	utils.SuccessMessage(ctx, "Blog post "+verb+" successfully", gin.H{"featured": post.Featured})
}

// findBySlugOrID resolves the merged route parameter: slug lookup first,
// numeric ID as a fallback. Public reads see published posts only.
func (b *BlogController) findBySlugOrID(param string, publishedOnly bool) (*models.BlogPost, error) {
	param = strings.TrimSpace(param)
	query := b.db.Preload("Author", authorPreload)
	if publishedOnly {
		query = query.Where("status = ?", models.PostStatusPublished)
	}

	var post models.BlogPost
	err := query.Where("slug = ?", param).First(&post).Error
	if err == nil {
		return &post, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	id, convErr := strconv.ParseUint(param, 10, 64)
	if convErr != nil {
		return nil, gorm.ErrRecordNotFound
	}
	query = b.db.Preload("Author", authorPreload)
	if publishedOnly {
		query = query.Where("status = ?", models.PostStatusPublished)
	}
	if err := query.First(&post, uint(id)).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

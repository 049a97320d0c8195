package models

import (
	"regexp"
	"strings"
	"time"
)

// Blog categories shown on the marketing site.
const (
	CategoryFinance    = "FINANCE"
	CategoryTechnology = "TECHNOLOGY"
	CategoryBusiness   = "BUSINESS"
	CategoryNews       = "NEWS"
	CategoryTutorial   = "TUTORIAL"
)

// Publication states of a blog post.
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
	PostStatusArchived  = "archived"
)

// BlogCategories lists every accepted category value.
var BlogCategories = []string{
	CategoryFinance,
	CategoryTechnology,
	CategoryBusiness,
	CategoryNews,
	CategoryTutorial,
}

// ValidCategory reports whether c is an accepted category.
func ValidCategory(c string) bool {
	for _, v := range BlogCategories {
		if c == v {
			return true
		}
	}
	return false
}

// ValidPostStatus reports whether s is an accepted publication state.
func ValidPostStatus(s string) bool {
	switch s {
	case PostStatusDraft, PostStatusPublished, PostStatusArchived:
		return true
	}
	return false
}

// BlogPost represents an article on the marketing site blog.
type BlogPost struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Title          string     `gorm:"size:200;not null" json:"title"`
	Slug           string     `gorm:"size:100;uniqueIndex" json:"slug"`
	Excerpt        string     `gorm:"size:500;not null" json:"excerpt"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	FeaturedImage  string     `gorm:"size:512" json:"featuredImage"`
	Category       string     `gorm:"size:16;default:'FINANCE';index" json:"category"`
	Tags           []string   `gorm:"serializer:json" json:"tags"`
	AuthorID       uint       `gorm:"index;not null" json:"authorId"`
	Author         User       `gorm:"foreignKey:AuthorID" json:"author"`
	Status         string     `gorm:"size:16;default:'draft';index" json:"status"`
	Featured       bool       `gorm:"default:false" json:"featured"`
	Views          int64      `gorm:"default:0" json:"views"`
	ReadTime       int        `gorm:"default:5" json:"readTime"`
	PublishedAt    *time.Time `gorm:"index" json:"publishedAt"`
	SEOTitle       string     `gorm:"size:60" json:"seoTitle"`
	SEODescription string     `gorm:"size:160" json:"seoDescription"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

var (
	slugStripPattern = regexp.MustCompile(`[^a-z0-9\s]+`)
	slugSpacePattern = regexp.MustCompile(`\s+`)
)

// DeriveSlug builds the URL slug from a post title: lowercase, everything
// outside [a-z0-9-] stripped, whitespace runs collapsed to single hyphens,
// truncated to 100 characters. Called whenever the title changes.
func DeriveSlug(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStripPattern.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = slugSpacePattern.ReplaceAllString(s, "-")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// DeriveReadTime estimates reading minutes at 200 words per minute,
// never below one minute. Called whenever the content changes.
func DeriveReadTime(content string) int {
	words := len(strings.Fields(content))
	minutes := (words + 199) / 200
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// ApplyPublishTimestamp stamps PublishedAt the first time a post reaches the
// published state. Later saves never overwrite it.
func ApplyPublishTimestamp(post *BlogPost, now time.Time) {
	if post.Status == PostStatusPublished && post.PublishedAt == nil {
		t := now
		post.PublishedAt = &t
	}
}

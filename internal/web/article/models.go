// Package article publishes and serves newsroom articles.
package article

import "time"

// Article published piece, Content is markdown and HTML its rendering
type Article struct {
	ID        int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string   `gorm:"size:500;not null" json:"title"`
	Content   string   `gorm:"type:text;not null" json:"content"`
	HTML      string   `gorm:"column:html;type:text;not null" json:"html"`
	Summary   string   `gorm:"type:text" json:"summary"`
	Category  string   `gorm:"size:255;not null;index" json:"category"`
	Images    []string `gorm:"serializer:json;type:text" json:"images"`
	Published bool     `gorm:"not null;index" json:"published"`
	AuthorID  int64    `gorm:"not null;index" json:"author_id"`
	// Views counts reads through Get
	Views     int64     `gorm:"not null;default:0" json:"views"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name
func (Article) TableName() string {
	return "articles"
}

// CreateInput payload of a new article, Published defaults to true
type CreateInput struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Summary   string   `json:"summary"`
	Category  string   `json:"category"`
	Images    []string `json:"images"`
	Published *bool    `json:"published"`
}

// UpdateInput partial update, nil fields are left untouched
type UpdateInput struct {
	Title     *string   `json:"title"`
	Content   *string   `json:"content"`
	Summary   *string   `json:"summary"`
	Category  *string   `json:"category"`
	Images    *[]string `json:"images"`
	Published *bool     `json:"published"`
}

// ListOptions filters of List
type ListOptions struct {
	Category string
	// Query matches title or content, case insensitive
	Query    string
	Page     int
	PageSize int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (o *ListOptions) normalize() {
	if o.Page <= 0 {
		o.Page = 1
	}
	if o.PageSize <= 0 {
		o.PageSize = defaultPageSize
	}
	if o.PageSize > maxPageSize {
		o.PageSize = maxPageSize
	}
}

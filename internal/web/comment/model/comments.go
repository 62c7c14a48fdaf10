// Package model contains the comment thread models.
package model

import (
	"time"

	gutils "github.com/Laisky/go-utils/v6"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment represents a comment on an article.
//
// ParentID and ArticleID never change after creation, rows are never
// physically removed, moderation only flips Visible.
type Comment struct {
	// ID is the unique identifier for the comment
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	// Content contains the actual text/body of the comment
	Content string `gorm:"type:text;not null" json:"content"`
	// ArticleID is the article this comment belongs to
	ArticleID int64 `gorm:"not null;index:idx_comments_article_parent,priority:1" json:"article_id"`
	// AuthorID is the user who wrote the comment
	AuthorID int64 `gorm:"not null;index" json:"author_id"`
	// ParentID references the parent comment's ID if this is a reply, null for top-level comments
	ParentID *uuid.UUID `gorm:"type:uuid;index:idx_comments_article_parent,priority:2" json:"parent_id,omitempty"`
	// Visible is false once the comment has been soft deleted
	Visible   bool      `gorm:"not null;default:true" json:"visible"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName returns the name of the comments table
func (Comment) TableName() string {
	return "comments"
}

// BeforeCreate hook ensures the primary key is populated for new records.
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = gutils.UUID7Bytes()
	}
	return nil
}

// IsRoot reports whether the comment starts a thread
func (c *Comment) IsRoot() bool {
	return c.ParentID == nil
}

// Visibility returns the tagged visibility state of the comment
func (c *Comment) Visibility() Visibility {
	if c.Visible {
		return Visible
	}
	return Hidden
}

// Visibility rendering state of a node
type Visibility int

const (
	// Visible the node is rendered in threads
	Visible Visibility = iota
	// Hidden the node was soft deleted, its replies stay in place
	Hidden
)

func (v Visibility) String() string {
	if v == Hidden {
		return "hidden"
	}
	return "visible"
}

// ThreadNode is one rendered comment with its visible replies.
//
// Not stored in database, populated at runtime when retrieving threads.
type ThreadNode struct {
	Comment
	Replies []*ThreadNode `json:"replies"`
}

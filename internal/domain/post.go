package domain

import (
	"math"
	"strings"
	"time"
)

// DefaultPageSize is used to derive the page count when a list page is empty.
const DefaultPageSize = 9

// ExcerptLength is the number of characters of a post shown on list cards.
const ExcerptLength = 120

// PostID identifies a blog post.
type PostID int64

// Post is a blog post as served by the backend.
type Post struct {
	ID              PostID    `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	Author          UserID    `json:"author"`
	AuthorUsername  string    `json:"author_username"`
	PublicationDate time.Time `json:"publication_date"`
}

// AuthorName returns the author's username, or "Unknown Author".
func (p Post) AuthorName() string {
	if p.AuthorUsername == "" {
		return "Unknown Author"
	}

	return p.AuthorUsername
}

// Excerpt returns the content cut to ExcerptLength characters.
func (p Post) Excerpt() string {
	runes := []rune(p.Content)
	if len(runes) <= ExcerptLength {
		return p.Content
	}

	return strings.TrimSpace(string(runes[:ExcerptLength])) + "..."
}

// PublishedOn formats the publication date for display.
func (p Post) PublishedOn() string {
	if p.PublicationDate.IsZero() {
		return ""
	}

	return p.PublicationDate.Format("January 2, 2006")
}

// IsAuthor reports whether user wrote post. This is a display hint that decides
// which affordances are offered, never an access control.
func IsAuthor(user *User, post Post) bool {
	if user == nil || user.ID.IsZero() || post.Author.IsZero() {
		return false
	}

	return NewUserID(user.ID.String()) == NewUserID(post.Author.String())
}

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Blank reports whether title or content is empty after trimming.
func (in PostInput) Blank() bool {
	return strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == ""
}

// PostPage is one page of the paginated post list.
type PostPage struct {
	Results  []Post  `json:"results"`
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// TotalPages derives the number of pages from the total count and the size
// of the returned batch. An empty batch falls back to fallbackSize.
func (p PostPage) TotalPages(fallbackSize int) int {
	size := len(p.Results)
	if size == 0 {
		size = fallbackSize
	}

	if size <= 0 || p.Count <= 0 {
		return 1
	}

	return int(math.Ceil(float64(p.Count) / float64(size)))
}

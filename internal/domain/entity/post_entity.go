package entity

import (
	"time"

	"github.com/oksasatya/go-graphql-blog/internal/domain/filter"
)

// Post is readable by anyone once published and always by its author.
// AuthorID is fixed at creation.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Published bool      `json:"published"`
	AuthorID  string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var PostFields = filter.Schema{
	"id":        filter.KindString,
	"title":     filter.KindString,
	"body":      filter.KindString,
	"published": filter.KindBool,
	"author":    filter.KindString,
	"createdAt": filter.KindTime,
	"updatedAt": filter.KindTime,
}

func (p *Post) Field(name string) (any, bool) {
	switch name {
	case "id":
		return p.ID, true
	case "title":
		return p.Title, true
	case "body":
		return p.Body, true
	case "published":
		return p.Published, true
	case "author":
		return p.AuthorID, true
	case "createdAt":
		return p.CreatedAt, true
	case "updatedAt":
		return p.UpdatedAt, true
	}
	return nil, false
}

func (p *Post) GetID() string { return p.ID }

func (p *Post) Clone() *Post {
	c := *p
	return &c
}

// VisibleTo reports whether viewerID may read the post. An empty viewer is anonymous.
func (p *Post) VisibleTo(viewerID string) bool {
	return p.Published || (viewerID != "" && p.AuthorID == viewerID)
}

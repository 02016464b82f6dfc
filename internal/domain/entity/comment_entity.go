package entity

import (
	"time"

	"github.com/oksasatya/go-graphql-blog/internal/domain/filter"
)

type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"author"`
	PostID    string    `json:"post"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var CommentFields = filter.Schema{
	"id":        filter.KindString,
	"text":      filter.KindString,
	"author":    filter.KindString,
	"post":      filter.KindString,
	"createdAt": filter.KindTime,
	"updatedAt": filter.KindTime,
}

func (c *Comment) Field(name string) (any, bool) {
	switch name {
	case "id":
		return c.ID, true
	case "text":
		return c.Text, true
	case "author":
		return c.AuthorID, true
	case "post":
		return c.PostID, true
	case "createdAt":
		return c.CreatedAt, true
	case "updatedAt":
		return c.UpdatedAt, true
	}
	return nil, false
}

func (c *Comment) GetID() string { return c.ID }

func (c *Comment) Clone() *Comment {
	cp := *c
	return &cp
}

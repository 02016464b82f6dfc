package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostVisibleTo(t *testing.T) {
	draft := &Post{ID: "p1", AuthorID: "u1"}
	assert.True(t, draft.VisibleTo("u1"))
	assert.False(t, draft.VisibleTo("u2"))
	assert.False(t, draft.VisibleTo(""))

	draft.Published = true
	assert.True(t, draft.VisibleTo(""))
}

func TestSchemasCoverRecordFields(t *testing.T) {
	age := 30
	u := &User{ID: "u1", Age: &age}
	for field := range UserFields {
		_, ok := u.Field(field)
		assert.True(t, ok, field)
	}
	p := &Post{}
	for field := range PostFields {
		_, ok := p.Field(field)
		assert.True(t, ok, field)
	}
	c := &Comment{}
	for field := range CommentFields {
		_, ok := c.Field(field)
		assert.True(t, ok, field)
	}
}

func TestUserCloneCopiesAge(t *testing.T) {
	age := 30
	u := &User{ID: "u1", Age: &age}
	c := u.Clone()
	*c.Age = 31
	assert.Equal(t, 30, *u.Age)
}

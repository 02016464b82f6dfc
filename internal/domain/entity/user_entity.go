package entity

import (
	"time"

	"github.com/oksasatya/go-graphql-blog/internal/domain/filter"
)

// User owns posts and comments.
// Password holds the bcrypt hash and is never exposed through the API.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Age       *int      `json:"age,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var UserFields = filter.Schema{
	"id":        filter.KindString,
	"name":      filter.KindString,
	"email":     filter.KindString,
	"age":       filter.KindInt,
	"createdAt": filter.KindTime,
	"updatedAt": filter.KindTime,
}

// UserOrderFields are the fields users may be sorted by. Email is private to
// its owner, so ordering by it would leak it through relative position.
var UserOrderFields = filter.Schema{
	"id":        filter.KindString,
	"name":      filter.KindString,
	"age":       filter.KindInt,
	"createdAt": filter.KindTime,
	"updatedAt": filter.KindTime,
}

func (u *User) Field(name string) (any, bool) {
	switch name {
	case "id":
		return u.ID, true
	case "name":
		return u.Name, true
	case "email":
		return u.Email, true
	case "age":
		if u.Age == nil {
			return nil, true
		}
		return *u.Age, true
	case "createdAt":
		return u.CreatedAt, true
	case "updatedAt":
		return u.UpdatedAt, true
	}
	return nil, false
}

func (u *User) GetID() string { return u.ID }

func (u *User) Clone() *User {
	c := *u
	if u.Age != nil {
		age := *u.Age
		c.Age = &age
	}
	return &c
}

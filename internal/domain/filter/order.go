package filter

import "strings"

// Order sorts a listing by one field. The zero value means store default
// (creation order).
type Order struct {
	Field string
	Desc  bool
}

func (o Order) IsZero() bool { return o.Field == "" }

// ParseOrder reads the "<field>_ASC" / "<field>_DESC" form used by the API.
func (s Schema) ParseOrder(v string) (Order, error) {
	if v == "" {
		return Order{}, nil
	}
	i := strings.LastIndex(v, "_")
	if i <= 0 {
		return Order{}, &Error{Field: v, Reason: "order must be <field>_ASC or <field>_DESC"}
	}
	field, dir := v[:i], v[i+1:]
	if _, ok := s[field]; !ok {
		return Order{}, &Error{Field: field, Reason: "unknown order field"}
	}
	switch dir {
	case "ASC":
		return Order{Field: field}, nil
	case "DESC":
		return Order{Field: field, Desc: true}, nil
	}
	return Order{}, &Error{Field: field, Reason: "order direction must be ASC or DESC"}
}

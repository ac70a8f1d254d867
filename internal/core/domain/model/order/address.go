package order

import "strings"

// Address is where the order is delivered. Clients send either the structured
// fields or a single free-form line in Raw.
type Address struct {
	Street    string
	District  string
	Reference string
	Raw       string
}

func (a Address) IsEmpty() bool {
	return strings.TrimSpace(a.Street+a.District+a.Reference+a.Raw) == ""
}

// String renders a single human-readable line.
func (a Address) String() string {
	if a.Raw != "" {
		return a.Raw
	}

	parts := make([]string, 0, 3)
	for _, p := range []string{a.Street, a.District, a.Reference} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

package entity

// Contact is one entry of a user's address book.
type Contact struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// Key is the document key: first and last name concatenated with no
// separator. Two contacts with the same concatenation share a key.
func (c Contact) Key() string {
	return c.FirstName + c.LastName
}

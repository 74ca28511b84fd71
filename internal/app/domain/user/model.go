// Package user holds the documents served by the API: users with their
// posts and comments embedded.
package user

// Geo is a free-form coordinate pair; the upstream feed sends strings.
type Geo struct {
	Lat string `json:"lat"`
	Lng string `json:"lng"`
}

// Address is a postal address.
type Address struct {
	Street  string `json:"street"`
	Suite   string `json:"suite"`
	City    string `json:"city"`
	Zipcode string `json:"zipcode"`
	Geo     Geo    `json:"geo"`
}

// Company describes a user's employer.
type Company struct {
	Name        string `json:"name"`
	CatchPhrase string `json:"catchPhrase"`
	BS          string `json:"bs"`
}

// Comment is a reply to a post. PostID zero means the owner is unknown.
type Comment struct {
	ID     int64  `json:"id"`
	PostID int64  `json:"postId,omitempty"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Body   string `json:"body"`
}

// Post is authored by a user. Comments is populated on enriched posts.
type Post struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"userId,omitempty"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Comments []Comment `json:"comments"`
}

// User is the stored document: a profile with its posts embedded.
type User struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Address  Address `json:"address"`
	Phone    string  `json:"phone"`
	Website  string  `json:"website"`
	Company  Company `json:"company"`
	Posts    []Post  `json:"posts"`
}

func (u User) DocumentID() int64    { return u.ID }
func (p Post) DocumentID() int64    { return p.ID }
func (c Comment) DocumentID() int64 { return c.ID }

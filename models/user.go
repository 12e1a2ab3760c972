package models

type Address struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
}

type Company struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

type User struct {
	ID        int     `json:"id"`
	Username  string  `json:"username"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Age       int     `json:"age"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Image     string  `json:"image"`
	Address   Address `json:"address"`
	Company   Company `json:"company"`
}

// UserSummary is the projection returned by the user list endpoint.
type UserSummary struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Image    string `json:"image"`
}

type UsersPage struct {
	Users []UserSummary `json:"users"`
	Total int           `json:"total"`
	Skip  int           `json:"skip"`
	Limit int           `json:"limit"`
}

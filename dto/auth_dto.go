package dto

type RegisterDTO struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type LoginDTO struct {
	// Identifier is a username or an email address.
	Identifier string `json:"identifier" form:"identifier"`
	Password   string `json:"password" form:"password"`
}

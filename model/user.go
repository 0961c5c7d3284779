package model //import "booklend/model"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	CreatedTs    int64  `json:"created_ts"`
}

type FindUser struct {
	ID       *int    `json:"id"`
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	Limit    *int    `json:"limit"`
}

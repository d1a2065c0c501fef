package user

// User is an account managed through the /users endpoints.
// PasswordHash never leaves the service layer.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Roles        []Role
	Active       bool
}

package domain

// User is the identity record kept next to the access token.
type User struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Session is the viewer's authentication state. It is passed explicitly to
// every controller that needs it.
type Session struct {
	Token string `json:"token,omitempty"`
	User  *User  `json:"user,omitempty"`
}

func (s Session) HasToken() bool {
	return s.Token != ""
}

// DisplayName is the name events record as their owner.
func (s Session) DisplayName() string {
	if s.User == nil {
		return ""
	}
	return s.User.FirstName
}

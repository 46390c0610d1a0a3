package domain

// Identity is the authentication state the cart engine reacts to. It is
// supplied by the session layer; the engine has no knowledge of tokens.
type Identity struct {
	IsAuthenticated bool
	UserID          string
}

func Anonymous() Identity {
	return Identity{}
}

func Authenticated(userID string) Identity {
	return Identity{IsAuthenticated: true, UserID: userID}
}

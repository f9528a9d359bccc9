package domain

// Principal is the identity a request acts as. The zero value is anonymous.
type Principal struct {
	UserID   int64
	Username string
}

func Anonymous() Principal {
	return Principal{}
}

func (p Principal) IsAuthenticated() bool {
	return p.UserID > 0
}

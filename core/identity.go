package core

// Identity is the caller identity yielded by the external identity provider
// after verifying a bearer credential. A zero Identity means "anonymous".
type Identity struct {
	ID    string
	Name  string
	Email string
}

func (id Identity) IsAnonymous() bool {
	return id.ID == ""
}

package domain

//Principal is the authenticated caller on whose behalf an operation runs
type Principal struct {
	Username  string
	Superuser bool
}

//IsAnonymous reports whether the principal carries no identity
func (p Principal) IsAnonymous() bool {
	return p.Username == ""
}

package domain

// RoleAdmin is the administrator role id in the external identity store.
const RoleAdmin = 1

// User is a read model of the external identity store. The registry only
// ever reads users; it never creates or mutates them.
type User struct {
	ID     string
	Email  string
	RoleID int
}

func (u User) IsAdmin() bool {
	return u.RoleID == RoleAdmin
}

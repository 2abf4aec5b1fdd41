package domain

// Member is the public view of a User: no room, no join order.
type Member struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func (u *User) Member() Member {
	return Member{ID: u.ID, Username: u.Username, Role: u.Role}
}

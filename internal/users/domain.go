package users

import "time"

// User represents a registered account.
type User struct {
	ID           int64
	Name         string
	Age          int
	Email        string
	PasswordHash string
	Phone        *string
	Street       *string
	City         *string
	State        *string
	Zip          *string
	Country      *string
	IsSubscribed bool
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// Role is the privilege an endpoint requires from the resolved user.
type Role int

const (
	// RoleUser admits any registered account.
	RoleUser Role = iota
	// RoleAdmin admits accounts flagged is_admin.
	RoleAdmin
)

// Permits reports whether u satisfies the role.
func (r Role) Permits(u *User) bool {
	if u == nil {
		return false
	}
	switch r {
	case RoleUser:
		return true
	case RoleAdmin:
		return u.IsAdmin
	default:
		return false
	}
}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Profile is the public JSON view of a User. The password hash is never part of it.
type Profile struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Age          int        `json:"age"`
	Email        string     `json:"email"`
	Phone        *string    `json:"phone"`
	Street       *string    `json:"street"`
	City         *string    `json:"city"`
	State        *string    `json:"state"`
	Zip          *string    `json:"zip"`
	Country      *string    `json:"country"`
	IsSubscribed bool       `json:"is_subscribed"`
	IsAdmin      bool       `json:"is_admin"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

// ProfileOf converts a User into its public view.
func ProfileOf(u User) Profile {
	return Profile{
		ID:           u.ID,
		Name:         u.Name,
		Age:          u.Age,
		Email:        u.Email,
		Phone:        u.Phone,
		Street:       u.Street,
		City:         u.City,
		State:        u.State,
		Zip:          u.Zip,
		Country:      u.Country,
		IsSubscribed: u.IsSubscribed,
		IsAdmin:      u.IsAdmin,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

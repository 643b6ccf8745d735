package models

// Role identifies which side of the booking a principal is on.
type Role string

const (
	RoleClient     Role = "client"
	RoleCounsellor Role = "counsellor"
)

func (r Role) Valid() bool {
	return r == RoleClient || r == RoleCounsellor
}

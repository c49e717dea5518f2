package domain

import "time"

// Role is the closed set of account roles.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	default:
		return false
	}
}

// SelfAssignable reports whether a user may pick r at registration.
func (r Role) SelfAssignable() bool {
	switch r {
	case RoleStudent, RoleInstructor:
		return true
	case RoleAdmin:
		return false
	default:
		return false
	}
}

// RegistrationRole returns the role granted for a requested role at sign-up.
// Anything that is not self-assignable, admin included, becomes student.
func RegistrationRole(requested string) Role {
	r := Role(requested)
	if r.SelfAssignable() {
		return r
	}
	return RoleStudent
}

// User models an account. PasswordHash and RefreshTokenHash never leave the
// server.
type User struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"`
	Role               Role       `json:"role"`
	EnrolledCourses    []string   `json:"enrolledCourses"`
	PreferredLanguages []string   `json:"preferredLanguages"`
	RefreshTokenHash   string     `json:"-"`
	IsActive           bool       `json:"isActive"`
	LastLogin          *time.Time `json:"lastLogin,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// IsEnrolled reports whether courseID is already in the user's enrollment set.
func (u *User) IsEnrolled(courseID string) bool {
	for _, id := range u.EnrolledCourses {
		if id == courseID {
			return true
		}
	}
	return false
}

// Identity is the authenticated actor attached to a request.
type Identity struct {
	UserID string
	Role   Role
}

// CanManage reports whether the identity may mutate a resource owned by ownerID.
func (i Identity) CanManage(ownerID string) bool {
	return i.Role == RoleAdmin || (ownerID != "" && i.UserID == ownerID)
}

// UserSummary is the public projection of a user embedded in other resources.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TokenPair is the credential pair handed to clients.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

package model

type UserID string

// User is the identity resolved from the external identity provider
type User struct {
	ID          UserID
	DisplayName string
	Email       string
}

// Initial returns the first letter of the display name, or "U"
func (u *User) Initial() string {
	for _, r := range u.DisplayName {
		return string(r)
	}
	return "U"
}

// Name returns the display name, or "User" when unset
func (u *User) Name() string {
	if u.DisplayName == "" {
		return "User"
	}
	return u.DisplayName
}

type AuthStatus int

const (
	AuthUnknown AuthStatus = iota
	AuthAnonymous
	AuthAuthenticated
)

func (s AuthStatus) String() string {
	switch s {
	case AuthAnonymous:
		return "anonymous"
	case AuthAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// AuthState is the current authentication state. A user is only present when Status is
// AuthAuthenticated; construct values with the helpers below.
type AuthState struct {
	status AuthStatus
	user   *User
}

func UnknownAuth() AuthState {
	return AuthState{status: AuthUnknown}
}

func AnonymousAuth() AuthState {
	return AuthState{status: AuthAnonymous}
}

// AuthenticatedAuth returns an authenticated state. A nil user yields AnonymousAuth.
func AuthenticatedAuth(user *User) AuthState {
	if user == nil {
		return AnonymousAuth()
	}
	u := *user
	return AuthState{status: AuthAuthenticated, user: &u}
}

func (s AuthState) Status() AuthStatus { return s.status }

// User returns the signed in user, or nil
func (s AuthState) User() *User { return s.user }

func (s AuthState) IsLoading() bool { return s.status == AuthUnknown }

func (s AuthState) IsAuthenticated() bool { return s.status == AuthAuthenticated }

// Equal reports whether both states carry the same status and user id
func (s AuthState) Equal(other AuthState) bool {
	if s.status != other.status {
		return false
	}
	if s.user == nil || other.user == nil {
		return s.user == other.user
	}
	return s.user.ID == other.user.ID
}

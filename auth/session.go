// Package auth implements token validation, the password gate, and the guest
// quota for gateway sessions.
package auth

// Kind distinguishes anonymous sessions from signed-in ones.
type Kind string

const (
	KindGuest Kind = "guest"
	KindFull  Kind = "full"
)

// Session is the authenticated identity of one connection. It is created at
// auth time, owned exclusively by the connection's loop, and discarded when
// the connection closes. Only the guest message counter mutates, and only
// through the QuotaEnforcer.
type Session struct {
	UserID            int64
	Kind              Kind
	Permissions       []string
	Token             string
	GuestMessageCount int
}

func (s *Session) IsGuest() bool {
	return s.Kind == KindGuest
}

// Mode is the value reported in the auth_success event.
func (s *Session) Mode() string {
	return string(s.Kind)
}

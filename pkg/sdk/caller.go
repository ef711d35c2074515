package marketplace

import "github.com/kailas-cloud/marketplace/internal/domain/access"

// Caller identifies who a Session acts for. A Caller without PersonID is an
// anonymous visitor and only sees public projects.
type Caller struct {
	PersonID string
	Name     string
	Projects map[string]Level // project id -> access level
}

// Visitor returns the anonymous caller.
func Visitor() Caller { return Caller{} }

func (c Caller) token() *access.Token {
	if c.PersonID == "" {
		return access.NewVisitorToken()
	}
	return access.NewToken(access.Subject{ID: c.PersonID, Name: c.Name}, c.Projects)
}

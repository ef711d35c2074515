package marketplace

import (
	"github.com/kailas-cloud/marketplace/internal/domain/access"
	"github.com/kailas-cloud/marketplace/internal/domain/project"
	"github.com/kailas-cloud/marketplace/internal/domain/search/predicate"
)

const (
	attrVisibility = "visibilityScope"
	attrID         = "id"
)

// effectiveVisibility drops the requested scope to PUBLIC for anonymous callers and visitors.
func effectiveVisibility(requested *project.Visibility, token *access.Token) *project.Visibility {
	if token == nil || token.IsVisitor() {
		v := project.Public
		return &v
	}
	return requested
}

// addAccessFragment adds the visibility overlay as one bracketed operand.
// It must be the first operand so every later filter is AND-ed inside its scope.
func addAccessFragment(b *predicate.Builder, requested *project.Visibility, token *access.Token) {
	visibility := effectiveVisibility(requested, token)

	switch {
	case visibility == nil:
		b.OpenBracket()
		addPrivateAccessible(b, token)
		b.Or().Equals(attrVisibility, string(project.Public))
		b.CloseBracket()
	case *visibility == project.Private:
		addPrivateAccessible(b, token)
	default:
		b.Equals(attrVisibility, string(project.Public))
	}
}

// addPrivateAccessible adds (visibility = PRIVATE AND id IN accessible). An empty
// accessible set compiles to false.
func addPrivateAccessible(b *predicate.Builder, token *access.Token) {
	var ids []string
	if token != nil {
		ids = token.AccessibleProjectIDs(access.Guest)
	}
	b.OpenBracket().
		Equals(attrVisibility, string(project.Private)).
		And().In(attrID, ids).
		CloseBracket()
}

// CanRead reports whether token may see p.
func CanRead(token *access.Token, p project.Project) bool {
	if p.Visibility() == project.Public {
		return true
	}
	return token != nil && !token.IsVisitor() && access.IsSufficientFor(token.Level(p.ID()), access.Guest)
}

// CanCurate reports whether token may change the tags of p: the owner or a DEVELOPER and above.
func CanCurate(token *access.Token, p project.Project) bool {
	if token == nil || token.IsVisitor() {
		return false
	}
	if p.OwnerID() != "" && p.OwnerID() == token.Subject().ID {
		return true
	}
	return access.IsSufficientFor(token.Level(p.ID()), access.Developer)
}

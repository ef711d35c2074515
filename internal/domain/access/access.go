// Package access models caller identity and per-project access levels.
package access

import (
	"fmt"
	"sort"
	"strings"
)

// Level is an ordered project access level. The zero value means no access.
type Level int

// Access levels, lowest first.
const (
	None       Level = 0
	Guest      Level = 10
	Reporter   Level = 20
	Developer  Level = 30
	Maintainer Level = 40
	Owner      Level = 50
)

var levelNames = map[Level]string{
	Guest:      "GUEST",
	Reporter:   "REPORTER",
	Developer:  "DEVELOPER",
	Maintainer: "MAINTAINER",
	Owner:      "OWNER",
}

// ParseLevel parses a level name (case-insensitive).
func ParseLevel(s string) (Level, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for l, name := range levelNames {
		if name == upper {
			return l, nil
		}
	}
	return None, fmt.Errorf("unknown access level %q", s)
}

// String returns the level name.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "NONE"
}

// IsSufficientFor reports whether level grants at least limit. A missing level never does.
func IsSufficientFor(level, limit Level) bool {
	return level != None && level >= limit
}

// Subject is an authenticated person.
type Subject struct {
	ID   string
	Name string
}

// Token is the caller identity: a person, a visitor flag and the projects the person can access.
type Token struct {
	subject  Subject
	visitor  bool
	projects map[string]Level
}

// NewToken creates a token for an authenticated person.
func NewToken(subject Subject, projects map[string]Level) *Token {
	c := make(map[string]Level, len(projects))
	for id, l := range projects {
		c[id] = l
	}
	return &Token{subject: subject, projects: c}
}

// NewVisitorToken creates a token for an anonymous visitor.
func NewVisitorToken() *Token {
	return &Token{visitor: true}
}

// Subject returns the person behind the token.
func (t *Token) Subject() Subject { return t.subject }

// IsVisitor reports whether the caller is an anonymous visitor.
func (t *Token) IsVisitor() bool { return t.visitor }

// Level returns the caller's level on the project, None when absent.
func (t *Token) Level(projectID string) Level { return t.projects[projectID] }

// Projects returns a copy of the project access map.
func (t *Token) Projects() map[string]Level {
	c := make(map[string]Level, len(t.projects))
	for id, l := range t.projects {
		c[id] = l
	}
	return c
}

// AccessibleProjectIDs returns the ids with level >= limit, sorted.
func (t *Token) AccessibleProjectIDs(limit Level) []string {
	return AccessibleIDs(t.projects, limit)
}

// AccessibleIDs filters an access map to ids with level >= limit, sorted.
func AccessibleIDs(projects map[string]Level, limit Level) []string {
	ids := make([]string, 0, len(projects))
	for id, l := range projects {
		if IsSufficientFor(l, limit) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

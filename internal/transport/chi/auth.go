package chi

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/marketplace/internal/config"
	"github.com/kailas-cloud/marketplace/internal/domain"
	"github.com/kailas-cloud/marketplace/internal/domain/access"
	"github.com/kailas-cloud/marketplace/internal/logger"
)

// exemptPaths are routes that bypass identity resolution (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// NewIdentities builds the bearer token table from configuration.
func NewIdentities(tokens []config.TokenConfig) (map[string]*access.Token, error) {
	out := make(map[string]*access.Token, len(tokens))
	for _, t := range tokens {
		if t.Visitor {
			out[t.Token] = access.NewVisitorToken()
			continue
		}
		projects := make(map[string]access.Level, len(t.Projects))
		for id, name := range t.Projects {
			level, err := access.ParseLevel(name)
			if err != nil {
				return nil, fmt.Errorf("token for %s: %w", t.PersonID, err)
			}
			projects[id] = level
		}
		out[t.Token] = access.NewToken(access.Subject{ID: t.PersonID, Name: t.PersonName}, projects)
	}
	return out, nil
}

// IdentityMiddleware resolves the Bearer token to the caller identity.
// Requests without an Authorization header proceed as visitors.
func IdentityMiddleware(identities map[string]*access.Token) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				ctx := access.ContextWithToken(r.Context(), access.NewVisitorToken())
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized,
					ErrorCodeUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			token, ok := identities[auth[len(bearerPrefix):]]
			if !ok {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "invalid token")
				return
			}

			ctx := access.ContextWithToken(r.Context(), token)
			if !token.IsVisitor() {
				l := logger.FromContext(ctx).With(zap.String("person_id", token.Subject().ID))
				ctx = logger.ContextWithLogger(ctx, l)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// caller returns the identity resolved for r, nil when the middleware did not run.
func caller(r *http.Request) *access.Token {
	return access.FromContext(r.Context())
}

// requirePerson returns the authenticated person behind r.
func requirePerson(r *http.Request) (access.Subject, error) {
	t := caller(r)
	if t == nil || t.IsVisitor() {
		return access.Subject{}, fmt.Errorf("sign in required: %w", domain.ErrUnauthorized)
	}
	return t.Subject(), nil
}

func accessMap(t *access.Token) map[string]access.Level {
	if t == nil {
		return nil
	}
	return t.Projects()
}

func logFor(r *http.Request, fallback *zap.Logger) *zap.Logger {
	return logger.FromContextOr(r.Context(), fallback)
}

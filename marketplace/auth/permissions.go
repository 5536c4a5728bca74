package auth

import (
	"fmt"
	"net/http"
	"slices"
	"talentmarket/marketplace/schema"
)

// RoleOnly gates an endpoint to users whose persisted role is in the allowed
// set. The user is resolved by the identity middleware, so the persisted role
// is checked, not a role claim baked into a token.
func RoleOnly(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			user, err := UserFromContext(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			if !slices.Contains(roles, user.Role) {
				http.Error(w, fmt.Sprintf("user %v does not have a required role for this endpoint", user.Id), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}

func AdminOnly() func(http.Handler) http.Handler {
	return RoleOnly(schema.RoleAdmin)
}

package admin

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/hlog"

	"github.com/s/trainingHub/internal/handlers"
	"github.com/s/trainingHub/internal/models"
	"github.com/s/trainingHub/internal/storage"
	"github.com/s/trainingHub/internal/validation"
)

type grantInput struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=admin viewer"`
}

// --- ROLES ---

// GET /api/admin/roles
func (s *Service) ListRolesAPI(w http.ResponseWriter, r *http.Request) {
	roles, err := storage.ListRoles(r.Context(), s.DB)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, roles)
}

// POST /api/admin/roles
// Resolves the email to a user first, then inserts the role row.
func (s *Service) GrantRoleAPI(w http.ResponseWriter, r *http.Request) {
	var input grantInput
	if err := handlers.DecodeJSON(r, &input); err != nil {
		handlers.BadJSON(w)
		return
	}
	input.Email = strings.TrimSpace(input.Email)
	if input.Role == "" {
		input.Role = models.RoleAdmin
	}
	if err := validation.Struct(input); err != nil {
		s.Fail(w, r, err)
		return
	}

	user, err := storage.LookupUserByEmail(r.Context(), s.DB, input.Email)
	if err != nil {
		s.Fail(w, r, err)
		return
	}

	role, err := storage.GrantRole(r.Context(), s.DB, user.ID, input.Role)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	s.Auth.InvalidateRoles(user.ID)

	hlog.FromRequest(r).Info().Str("target_user", user.ID).Str("role", role.Role).Msg("role granted")
	s.LogActivity(r, models.ActionGrantRole, map[string]interface{}{"user_id": user.ID, "role": role.Role})

	role.User = user
	handlers.RespondJSON(w, http.StatusCreated, role)
}

// DELETE /api/admin/roles/{id}
func (s *Service) RevokeRoleAPI(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	role, err := storage.RevokeRole(r.Context(), s.DB, id)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	s.Auth.InvalidateRoles(role.UserID)

	hlog.FromRequest(r).Info().Str("target_user", role.UserID).Str("role", role.Role).Msg("role revoked")
	s.LogActivity(r, models.ActionRevokeRole, map[string]interface{}{"user_id": role.UserID, "role": role.Role})
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"message": "Role removed"})
}

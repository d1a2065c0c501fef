package http

import (
	"fmt"
	"net/http"

	domuser "example.com/technotes/app/internal/domain/user"
	useruc "example.com/technotes/app/internal/usecase/user"
)

type createUserRequest struct {
	Username string   `json:"username" validate:"required"`
	Password string   `json:"password" validate:"required"`
	Roles    []string `json:"roles" validate:"required,min=1"`
}

type updateUserRequest struct {
	ID       string   `json:"id" validate:"required"`
	Username string   `json:"username" validate:"required"`
	Roles    []string `json:"roles" validate:"required,min=1"`
	Active   *bool    `json:"active" validate:"required"`
	Password *string  `json:"password"`
}

type deleteUserRequest struct {
	ID string `json:"id" validate:"required"`
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.userSvc.ListUsers(r.Context())
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}

	resp := make([]map[string]any, 0, len(users))
	for _, u := range users {
		resp = append(resp, mapUser(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, domuser.ErrMissingFields)
		return
	}

	u, err := a.userSvc.CreateUser(r.Context(), useruc.CreateUserInput{
		Username: req.Username,
		Password: req.Password,
		Roles:    req.Roles,
	})
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	respondMessage(w, http.StatusCreated, fmt.Sprintf("New user %s created", u.Username))
}

func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, domuser.ErrMissingFields)
		return
	}

	u, err := a.userSvc.UpdateUser(r.Context(), useruc.UpdateUserInput{
		ID:       req.ID,
		Username: req.Username,
		Roles:    req.Roles,
		Active:   req.Active,
		Password: req.Password,
	})
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, fmt.Sprintf("%s updated", u.Username))
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	var req deleteUserRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, domuser.ErrMissingID)
		return
	}

	u, err := a.userSvc.DeleteUser(r.Context(), req.ID)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, fmt.Sprintf("Username %s with ID %s deleted", u.Username, u.ID))
}

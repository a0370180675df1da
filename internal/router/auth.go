package router

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/patric-chuzhbe/arsipsurat/internal/auth"
	"github.com/patric-chuzhbe/arsipsurat/internal/models"
	"github.com/patric-chuzhbe/arsipsurat/internal/service"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
}

type registerResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id_user"`
}

func decodeJSON(request *http.Request, target any) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: %v", errBadRequestBody, err)
	}
	return nil
}

// PostApiauthlogin exchanges a username and password for a bearer token.
func (router *Router) PostApiauthlogin(response http.ResponseWriter, request *http.Request) {
	var credentials loginRequest
	if err := decodeJSON(request, &credentials); err != nil {
		writeError(response, request, err)
		return
	}

	token, usr, err := router.service.Login(request.Context(), credentials.Username, credentials.Password)
	if err != nil {
		writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusOK, loginResponse{
		Message: "Login berhasil",
		Token:   token,
		User:    usr,
	})
}

// PostApiauthregister creates a user account.
func (router *Router) PostApiauthregister(response http.ResponseWriter, request *http.Request) {
	var credentials service.Credentials
	if err := decodeJSON(request, &credentials); err != nil {
		writeError(response, request, err)
		return
	}

	userID, err := router.service.Register(request.Context(), credentials)
	if err != nil {
		writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusCreated, registerResponse{
		Message: "User berhasil dibuat",
		ID:      userID,
	})
}

// GetApiauthme returns the identity carried by the caller's token.
func (router *Router) GetApiauthme(response http.ResponseWriter, request *http.Request) {
	claims, ok := auth.ClaimsFromContext(request.Context())
	if !ok {
		writeMessage(response, http.StatusUnauthorized, "Token tidak valid")
		return
	}

	writeJSON(response, http.StatusOK, models.User{
		ID:       claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	})
}

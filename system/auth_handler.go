package system

import (
	"errors"
	"net/http"

	"taskboard/common"
	"taskboard/entity"
	"taskboard/storage"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const passwordCost = 10

type registerRequest struct {
	Username  string  `json:"username"`
	Password  string  `json:"password"`
	Email     *string `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		common.WriteError(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	ctx := r.Context()
	req.Email = emptyToNil(req.Email)

	existing, err := h.Store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		h.internalError(w, r, "Registration failed", err)
		return
	}
	if existing != nil {
		common.WriteError(w, http.StatusBadRequest, "Username already taken")
		return
	}
	if req.Email != nil {
		existing, err := h.Store.GetUserByEmail(ctx, *req.Email)
		if err != nil {
			h.internalError(w, r, "Registration failed", err)
			return
		}
		if existing != nil {
			common.WriteError(w, http.StatusBadRequest, "Email already in use")
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordCost)
	if err != nil {
		h.internalError(w, r, "Registration failed", err)
		return
	}

	user, err := h.Store.CreateUser(ctx, &entity.User{
		Username:  req.Username,
		Email:     req.Email,
		Password:  string(hash),
		FirstName: emptyToNil(req.FirstName),
		LastName:  emptyToNil(req.LastName),
	})
	if errors.Is(err, storage.ErrConflict) {
		common.WriteError(w, http.StatusBadRequest, "Username already taken")
		return
	}
	if err != nil {
		h.internalError(w, r, "Registration failed", err)
		return
	}

	if !h.startSession(w, r, user.ID, "Registration failed") {
		return
	}
	h.Logger.Info("user registered", zap.String("user_id", user.ID))
	common.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		common.WriteError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.Store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		h.internalError(w, r, "Login failed", err)
		return
	}
	if user == nil {
		common.WriteError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		common.WriteError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	if !h.startSession(w, r, user.ID, "Login failed") {
		return
	}
	common.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, userID, failure string) bool {
	token, expiresAt, err := h.Sessions.Issue(userID)
	if err != nil {
		h.internalError(w, r, failure, err)
		return false
	}
	h.Sessions.SetCookie(w, token, expiresAt)
	return true
}

// Logout clears the cookie and revokes the presented token when it is still
// valid. It succeeds without a session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := common.TokenFromRequest(r); token != "" {
		if claims, err := h.Sessions.Validate(r.Context(), token); err == nil {
			if err := h.Sessions.Revoke(r.Context(), claims); err != nil {
				h.internalError(w, r, "Logout failed", err)
				return
			}
		}
	}
	h.Sessions.ClearCookie(w)
	common.WriteSuccess(w)
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	user, err := h.Store.GetUser(r.Context(), userID)
	if err != nil {
		h.internalError(w, r, "Failed to fetch user", err)
		return
	}
	if user == nil {
		common.WriteError(w, http.StatusUnauthorized, "User not found")
		return
	}
	common.WriteJSON(w, http.StatusOK, user)
}

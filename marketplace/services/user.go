package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"talentmarket/marketplace/auth"
	"talentmarket/marketplace/schema"
	"talentmarket/utils"
	"talentmarket/utils/logging"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
}

func (s *UserService) AuthRoutes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		if s.userAuth.AllowDirectSignup() {
			r.Post("/signup", s.Signup)
		}

		r.Get("/login", s.LoginWithEmail)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Get("/user", s.CurrentUser)
	})

	return r
}

func (s *UserService) ProfileRoutes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.userAuth.AuthMiddleware()...)

	r.Patch("/", s.UpdateProfile)

	return r
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupResponse struct {
	UserId uuid.UUID `json:"user_id"`
}

func (s *UserService) Signup(w http.ResponseWriter, r *http.Request) {
	var params signupRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Username == "" || params.Email == "" || params.Password == "" {
		http.Error(w, "username, email, and password must be specified", http.StatusBadRequest)
		return
	}

	userId, err := s.userAuth.CreateUser(params.Username, params.Email, params.Password)
	if err != nil {
		responseCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrEmailAlreadyInUse):
			responseCode = http.StatusConflict
		case errors.Is(err, auth.ErrUsernameAlreadyInUse):
			responseCode = http.StatusConflict
		}
		http.Error(w, err.Error(), responseCode)
		return
	}

	slog.Info("user signed up", "user_id", userId, "username", params.Username, "code", logging.ACCOUNT_SIGNUP)

	res := signupResponse{UserId: userId}
	utils.WriteJsonResponse(w, res)
}

type loginResponse struct {
	UserId      uuid.UUID `json:"user_id"`
	AccessToken string    `json:"access_token"`
}

func (s *UserService) LoginWithEmail(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok {
		http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
		return
	}

	login, err := s.userAuth.LoginWithEmail(email, password)
	if err != nil {
		responseCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrUserNotFoundWithEmail):
			responseCode = http.StatusNotFound
		case errors.Is(err, auth.ErrInvalidCredentials):
			responseCode = http.StatusUnauthorized
		}
		http.Error(w, fmt.Sprintf("login failed: %v", err), responseCode)
		return
	}

	res := loginResponse{UserId: login.UserId, AccessToken: login.AccessToken}
	utils.WriteJsonResponse(w, res)
}

type UserInfo struct {
	Id           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	Skills       []string  `json:"skills"`
	Bio          string    `json:"bio"`
	Experience   string    `json:"experience"`
	PortfolioUrl string    `json:"portfolio_url"`
}

func convertToUserInfo(user *schema.User) UserInfo {
	skills := user.Skills
	if skills == nil {
		skills = []string{}
	}

	return UserInfo{
		Id:           user.Id,
		Username:     user.Username,
		Email:        user.Email,
		Role:         user.Role,
		Skills:       skills,
		Bio:          user.Bio,
		Experience:   user.Experience,
		PortfolioUrl: user.PortfolioUrl,
	}
}

func (s *UserService) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	info := convertToUserInfo(&user)
	utils.WriteJsonResponse(w, info)
}

type updateProfileRequest struct {
	Skills       *[]string `json:"skills"`
	Bio          *string   `json:"bio"`
	Experience   *string   `json:"experience"`
	PortfolioUrl *string   `json:"portfolio_url"`
}

func (s *UserService) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var params updateProfileRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		current, err := schema.GetUser(user.Id, txn)
		if err != nil {
			if errors.Is(err, schema.ErrUserNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		if params.Skills != nil {
			current.Skills = *params.Skills
		}
		if params.Bio != nil {
			current.Bio = *params.Bio
		}
		if params.Experience != nil {
			current.Experience = *params.Experience
		}
		if params.PortfolioUrl != nil {
			current.PortfolioUrl = *params.PortfolioUrl
		}

		result := txn.Save(&current)
		if result.Error != nil {
			slog.Error("sql error updating user profile", "user_id", user.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		user = current
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error updating profile: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("profile updated", "user_id", user.Id, "code", logging.ACCOUNT_PROFILE)

	info := convertToUserInfo(&user)
	utils.WriteJsonResponse(w, info)
}

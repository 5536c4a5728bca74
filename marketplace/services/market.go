package services

import (
	"log"
	"net/http"
	"os"
	"talentmarket/marketplace/auth"
	"talentmarket/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

type Market struct {
	user      UserService
	project   ProjectService
	candidate CandidateService
	company   CompanyService
	admin     AdminService

	db *gorm.DB
}

func NewMarket(db *gorm.DB, userAuth auth.IdentityProvider) Market {
	return Market{
		user:      UserService{db: db, userAuth: userAuth},
		project:   ProjectService{db: db, userAuth: userAuth},
		candidate: CandidateService{db: db, userAuth: userAuth},
		company:   CompanyService{db: db, userAuth: userAuth},
		admin:     AdminService{db: db, userAuth: userAuth},
		db:        db,
	}
}

func (m *Market) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger: log.New(os.Stderr, "", log.LstdFlags), NoColor: false,
	}))

	r.Mount("/auth", m.user.AuthRoutes())
	r.Mount("/profile", m.user.ProfileRoutes())
	r.Mount("/projects", m.project.Routes())
	r.Mount("/candidate", m.candidate.Routes())
	r.Mount("/company", m.company.Routes())
	r.Mount("/admin", m.admin.Routes())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteSuccess(w)
	})

	return r
}

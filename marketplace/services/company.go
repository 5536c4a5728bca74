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
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CompanyService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
}

func (s *CompanyService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.userAuth.AuthMiddleware()...)

	r.Get("/profile", s.Profile)
	r.Post("/profile", s.CreateCompany)

	r.Group(func(r chi.Router) {
		r.Use(auth.RoleOnly(schema.RoleCompany))

		r.Get("/projects", s.ListProjects)
		r.Post("/projects", s.CreateProject)

		r.Post("/submissions/{submission_id}/review", s.ReviewSubmission)

		r.Get("/stats", s.Stats)
	})

	return r
}

type CompanyInfo struct {
	Id       uuid.UUID `json:"id"`
	UserId   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	Industry string    `json:"industry"`
	Size     string    `json:"size"`
	Status   string    `json:"status"`
}

func convertToCompanyInfo(company *schema.Company) CompanyInfo {
	return CompanyInfo{
		Id:       company.Id,
		UserId:   company.UserId,
		Name:     company.Name,
		Industry: company.Industry,
		Size:     company.Size,
		Status:   company.Status,
	}
}

func (s *CompanyService) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	company, err := schema.GetCompanyByOwner(user.Id, s.db)
	if err != nil {
		if errors.Is(err, schema.ErrCompanyNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("error getting company profile: %v", err), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, convertToCompanyInfo(&company))
}

type createCompanyRequest struct {
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Size     string `json:"size"`
}

type createCompanyResponse struct {
	CompanyId uuid.UUID `json:"company_id"`
}

// CreateCompany inserts the company row and flips the owning user's role to
// company in one transaction. Both succeed or neither does, so a user can
// never end up with role=company and no company row, or the reverse.
func (s *CompanyService) CreateCompany(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var params createCompanyRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Name == "" {
		http.Error(w, "company name must be specified", http.StatusBadRequest)
		return
	}

	if user.Role == schema.RoleAdmin {
		http.Error(w, "admins cannot register a company", http.StatusForbidden)
		return
	}

	newCompany := schema.Company{
		Id:       uuid.New(),
		UserId:   user.Id,
		Name:     params.Name,
		Industry: params.Industry,
		Size:     params.Size,
		Status:   schema.CompanyPending,
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		var existing schema.Company
		result := txn.Limit(1).Find(&existing, "user_id = ?", user.Id)
		if result.Error != nil {
			slog.Error("sql error checking for existing company", "user_id", user.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result.RowsAffected != 0 {
			return CodedError(fmt.Errorf("user %v already owns a company", user.Id), http.StatusConflict)
		}

		result = txn.Create(&newCompany)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
				return CodedError(fmt.Errorf("user %v already owns a company", user.Id), http.StatusConflict)
			}
			slog.Error("sql error creating company", "user_id", user.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		result = txn.Model(&schema.User{}).Where("id = ?", user.Id).Update("role", schema.RoleCompany)
		if result.Error != nil {
			slog.Error("sql error updating user role to company", "user_id", user.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error creating company: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("company registered", "company_id", newCompany.Id, "user_id", user.Id, "code", logging.COMPANY_CREATE)

	utils.WriteJsonResponse(w, createCompanyResponse{CompanyId: newCompany.Id})
}

func (s *CompanyService) ListProjects(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	company, err := companyForUser(s.db, user.Id)
	if err != nil {
		http.Error(w, fmt.Sprintf("error listing projects: %v", err), GetResponseCode(err))
		return
	}

	var projects []schema.Project
	result := s.db.Where("company_id = ?", company.Id).Order("created_at DESC").Find(&projects)
	if result.Error != nil {
		slog.Error("sql error listing company projects", "company_id", company.Id, "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing projects: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]ProjectInfo, 0, len(projects))
	for _, project := range projects {
		infos = append(infos, convertToProjectInfo(&project))
	}
	utils.WriteJsonResponse(w, infos)
}

type createProjectRequest struct {
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Payment        decimal.Decimal `json:"payment"`
	Difficulty     string          `json:"difficulty"`
	Deadline       *time.Time      `json:"deadline"`
	MaxSubmissions int             `json:"max_submissions"`
}

type createProjectResponse struct {
	ProjectId uuid.UUID `json:"project_id"`
}

func (s *CompanyService) CreateProject(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { projectCreateMetric.Observe(time.Since(start).Seconds()) }()

	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var params createProjectRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Title == "" {
		http.Error(w, "project title must be specified", http.StatusBadRequest)
		return
	}
	if !params.Payment.IsPositive() {
		http.Error(w, "project payment must be a positive amount", http.StatusBadRequest)
		return
	}
	if params.MaxSubmissions == 0 {
		params.MaxSubmissions = 10
	}
	if params.MaxSubmissions < 1 {
		http.Error(w, "max submissions must be at least 1", http.StatusBadRequest)
		return
	}

	newProject := schema.Project{
		Id:             uuid.New(),
		Title:          params.Title,
		Description:    params.Description,
		Payment:        params.Payment,
		Difficulty:     params.Difficulty,
		Deadline:       params.Deadline,
		MaxSubmissions: params.MaxSubmissions,
		Status:         schema.ProjectPending,
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		company, err := companyForUser(txn, user.Id)
		if err != nil {
			return err
		}

		if company.Status != schema.CompanyApproved {
			return CodedError(fmt.Errorf("company %v is not approved to post projects", company.Id), http.StatusForbidden)
		}

		newProject.CompanyId = company.Id

		result := txn.Create(&newProject)
		if result.Error != nil {
			slog.Error("sql error creating project", "company_id", company.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error creating project: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("project created", "project_id", newProject.Id, "company_id", newProject.CompanyId, "code", logging.PROJECT_CREATE)

	utils.WriteJsonResponse(w, createProjectResponse{ProjectId: newProject.Id})
}

type reviewSubmissionRequest struct {
	Approved bool   `json:"approved"`
	Score    *int   `json:"score"`
	Feedback string `json:"feedback"`
}

// ReviewSubmission is the settlement operation: the status transition, the
// rating, and the payment are applied as one transaction. The conditional
// update on the submission status makes the review one shot, a second review
// of the same submission fails without touching the rating or payment
// ledger.
func (s *CompanyService) ReviewSubmission(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { submissionReviewMetric.Observe(time.Since(start).Seconds()) }()

	submissionId, err := utils.URLParamUUID(r, "submission_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var params reviewSubmissionRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Score != nil && (*params.Score < 1 || *params.Score > 5) {
		http.Error(w, fmt.Sprintf("invalid rating score %d, must be between 1 and 5", *params.Score), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		company, err := companyForUser(txn, user.Id)
		if err != nil {
			return err
		}

		submission, err := schema.GetSubmission(submissionId, txn, true)
		if err != nil {
			if errors.Is(err, schema.ErrSubmissionNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		if submission.Project == nil || submission.Project.CompanyId != company.Id {
			return CodedError(fmt.Errorf("company %v does not own the project for submission %v", company.Id, submissionId), http.StatusForbidden)
		}

		newStatus := schema.SubmissionRejected
		if params.Approved {
			newStatus = schema.SubmissionApproved
		}

		// Conditional update so that two concurrent reviews cannot both
		// pass: only one sees an unreviewed row.
		result := txn.Model(&schema.Submission{}).
			Where("id = ? AND status IN ?", submissionId, []string{schema.SubmissionPending, schema.SubmissionUnderReview}).
			Updates(map[string]interface{}{"status": newStatus, "feedback": params.Feedback})
		if result.Error != nil {
			slog.Error("sql error updating submission status", "submission_id", submissionId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result.RowsAffected == 0 {
			return CodedError(fmt.Errorf("submission %v has already been reviewed", submissionId), http.StatusUnprocessableEntity)
		}

		if !params.Approved {
			return nil
		}

		if params.Score != nil {
			rating := schema.Rating{
				Id:           uuid.New(),
				SubmissionId: submissionId,
				CandidateId:  submission.CandidateId,
				CompanyId:    company.Id,
				Score:        *params.Score,
				Review:       params.Feedback,
			}
			result = txn.Create(&rating)
			if result.Error != nil {
				slog.Error("sql error creating rating", "submission_id", submissionId, "error", result.Error)
				return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
			}
		}

		now := time.Now().UTC()
		payment := schema.Payment{
			Id:           uuid.New(),
			SubmissionId: submissionId,
			CandidateId:  submission.CandidateId,
			CompanyId:    company.Id,
			Amount:       submission.Project.Payment,
			Status:       schema.PaymentPaid,
			PaidAt:       &now,
		}
		result = txn.Create(&payment)
		if result.Error != nil {
			slog.Error("sql error creating payment", "submission_id", submissionId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error reviewing submission: %v", err), GetResponseCode(err))
		return
	}

	if params.Approved {
		paymentsSettledMetric.Inc()
	}

	slog.Info("submission reviewed", "submission_id", submissionId, "approved", params.Approved, "code", logging.SUBMISSION_REVIEW)

	utils.WriteSuccess(w)
}

type companyStatsResponse struct {
	TotalProjects    int64  `json:"total_projects"`
	ActiveProjects   int64  `json:"active_projects"`
	TotalSubmissions int64  `json:"total_submissions"`
	TotalSpent       string `json:"total_spent"`
}

func (s *CompanyService) Stats(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var res companyStatsResponse

	err = s.db.Transaction(func(txn *gorm.DB) error {
		company, err := companyForUser(txn, user.Id)
		if err != nil {
			return err
		}

		result := txn.Model(&schema.Project{}).Where("company_id = ?", company.Id).Count(&res.TotalProjects)
		if result.Error != nil {
			slog.Error("sql error counting company projects", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		result = txn.Model(&schema.Project{}).
			Where("company_id = ? AND status = ?", company.Id, schema.ProjectActive).
			Count(&res.ActiveProjects)
		if result.Error != nil {
			slog.Error("sql error counting active projects", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		result = txn.Model(&schema.Submission{}).
			Joins("JOIN projects ON projects.id = submissions.project_id").
			Where("projects.company_id = ?", company.Id).
			Count(&res.TotalSubmissions)
		if result.Error != nil {
			slog.Error("sql error counting company submissions", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		spent, err := sumPaidAmounts(txn, func(q *gorm.DB) *gorm.DB {
			return q.Where("company_id = ?", company.Id)
		})
		if err != nil {
			return err
		}
		res.TotalSpent = spent.StringFixed(2)

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error computing company stats: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, res)
}

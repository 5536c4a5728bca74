package services

import (
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
	"gorm.io/gorm"
)

type AdminService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
}

func (s *AdminService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.userAuth.AuthMiddleware()...)
	r.Use(auth.AdminOnly())

	r.Get("/stats", s.Stats)

	r.Get("/companies/pending", s.PendingCompanies)
	r.Post("/companies/{company_id}/review", s.ReviewCompany)

	r.Get("/projects/pending", s.PendingProjects)
	r.Post("/projects/{project_id}/review", s.ReviewProject)

	r.Get("/payments/recent", s.RecentPayments)

	return r
}

type adminStatsResponse struct {
	TotalUsers       int64  `json:"total_users"`
	TotalCompanies   int64  `json:"total_companies"`
	TotalProjects    int64  `json:"total_projects"`
	PendingCompanies int64  `json:"pending_companies"`
	PendingProjects  int64  `json:"pending_projects"`
	TotalPaidOut     string `json:"total_paid_out"`
}

func (s *AdminService) Stats(w http.ResponseWriter, r *http.Request) {
	var res adminStatsResponse

	err := s.db.Transaction(func(txn *gorm.DB) error {
		counts := []struct {
			query *gorm.DB
			dest  *int64
		}{
			{query: txn.Model(&schema.User{}), dest: &res.TotalUsers},
			{query: txn.Model(&schema.Company{}), dest: &res.TotalCompanies},
			{query: txn.Model(&schema.Project{}), dest: &res.TotalProjects},
			{query: txn.Model(&schema.Company{}).Where("status = ?", schema.CompanyPending), dest: &res.PendingCompanies},
			{query: txn.Model(&schema.Project{}).Where("status = ?", schema.ProjectPending), dest: &res.PendingProjects},
		}

		for _, count := range counts {
			result := count.query.Count(count.dest)
			if result.Error != nil {
				slog.Error("sql error computing admin stats", "error", result.Error)
				return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
			}
		}

		paid, err := sumPaidAmounts(txn, func(q *gorm.DB) *gorm.DB { return q })
		if err != nil {
			return err
		}
		res.TotalPaidOut = paid.StringFixed(2)

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error computing admin stats: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, res)
}

func (s *AdminService) PendingCompanies(w http.ResponseWriter, r *http.Request) {
	var companies []schema.Company
	result := s.db.Where("status = ?", schema.CompanyPending).Order("created_at ASC").Find(&companies)
	if result.Error != nil {
		slog.Error("sql error listing pending companies", "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing pending companies: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]CompanyInfo, 0, len(companies))
	for _, company := range companies {
		infos = append(infos, convertToCompanyInfo(&company))
	}
	utils.WriteJsonResponse(w, infos)
}

type adminReviewRequest struct {
	Approved bool `json:"approved"`
}

// ReviewCompany applies the one shot pending -> approved/rejected
// transition. The conditional update means an already reviewed company
// cannot be reviewed again, the terminal status is final.
func (s *AdminService) ReviewCompany(w http.ResponseWriter, r *http.Request) {
	companyId, err := utils.URLParamUUID(r, "company_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params adminReviewRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	newStatus := schema.CompanyRejected
	if params.Approved {
		newStatus = schema.CompanyApproved
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if err := checkCompanyExists(txn, companyId); err != nil {
			return err
		}

		result := txn.Model(&schema.Company{}).
			Where("id = ? AND status = ?", companyId, schema.CompanyPending).
			Update("status", newStatus)
		if result.Error != nil {
			slog.Error("sql error updating company status", "company_id", companyId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result.RowsAffected == 0 {
			return CodedError(fmt.Errorf("company %v has already been reviewed", companyId), http.StatusUnprocessableEntity)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error reviewing company: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("company reviewed", "company_id", companyId, "status", newStatus, "code", logging.COMPANY_REVIEW)

	utils.WriteSuccess(w)
}

func (s *AdminService) PendingProjects(w http.ResponseWriter, r *http.Request) {
	var projects []schema.Project
	result := s.db.Preload("Company").Where("status = ?", schema.ProjectPending).Order("created_at ASC").Find(&projects)
	if result.Error != nil {
		slog.Error("sql error listing pending projects", "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing pending projects: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]ProjectInfo, 0, len(projects))
	for _, project := range projects {
		infos = append(infos, convertToProjectInfo(&project))
	}
	utils.WriteJsonResponse(w, infos)
}

// ReviewProject moves a pending project to active or cancelled, one shot.
func (s *AdminService) ReviewProject(w http.ResponseWriter, r *http.Request) {
	projectId, err := utils.URLParamUUID(r, "project_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params adminReviewRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	newStatus := schema.ProjectCancelled
	if params.Approved {
		newStatus = schema.ProjectActive
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if err := checkProjectExists(txn, projectId); err != nil {
			return err
		}

		result := txn.Model(&schema.Project{}).
			Where("id = ? AND status = ?", projectId, schema.ProjectPending).
			Update("status", newStatus)
		if result.Error != nil {
			slog.Error("sql error updating project status", "project_id", projectId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result.RowsAffected == 0 {
			return CodedError(fmt.Errorf("project %v has already been reviewed", projectId), http.StatusUnprocessableEntity)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error reviewing project: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("project reviewed", "project_id", projectId, "status", newStatus, "code", logging.PROJECT_REVIEW)

	utils.WriteSuccess(w)
}

type PaymentInfo struct {
	Id           uuid.UUID  `json:"id"`
	SubmissionId uuid.UUID  `json:"submission_id"`
	CandidateId  uuid.UUID  `json:"candidate_id"`
	CompanyId    uuid.UUID  `json:"company_id"`
	Amount       string     `json:"amount"`
	Status       string     `json:"status"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
}

const recentPaymentCount = 20

func (s *AdminService) RecentPayments(w http.ResponseWriter, r *http.Request) {
	var payments []schema.Payment
	result := s.db.Order("created_at DESC").Limit(recentPaymentCount).Find(&payments)
	if result.Error != nil {
		slog.Error("sql error listing recent payments", "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing recent payments: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]PaymentInfo, 0, len(payments))
	for _, payment := range payments {
		infos = append(infos, PaymentInfo{
			Id:           payment.Id,
			SubmissionId: payment.SubmissionId,
			CandidateId:  payment.CandidateId,
			CompanyId:    payment.CompanyId,
			Amount:       payment.Amount.StringFixed(2),
			Status:       payment.Status,
			PaidAt:       payment.PaidAt,
		})
	}
	utils.WriteJsonResponse(w, infos)
}

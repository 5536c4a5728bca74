package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"talentmarket/marketplace/auth"
	"talentmarket/marketplace/schema"
	"talentmarket/utils"
	"talentmarket/utils/logging"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
}

func (s *ProjectService) Routes() chi.Router {
	r := chi.NewRouter()

	// Listing and viewing active projects is public, everything else
	// requires a resolved identity.
	r.Get("/", s.List)
	r.Get("/{project_id}", s.GetProject)

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Get("/featured", s.Featured)
		r.Get("/{project_id}/my-submission", s.MySubmission)
		r.Post("/{project_id}/submissions", s.CreateSubmission)
	})

	return r
}

type ProjectInfo struct {
	Id             uuid.UUID    `json:"id"`
	CompanyId      uuid.UUID    `json:"company_id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Payment        string       `json:"payment"`
	Difficulty     string       `json:"difficulty"`
	Deadline       *time.Time   `json:"deadline,omitempty"`
	MaxSubmissions int          `json:"max_submissions"`
	Status         string       `json:"status"`
	Company        *CompanyInfo `json:"company,omitempty"`
}

func convertToProjectInfo(project *schema.Project) ProjectInfo {
	info := ProjectInfo{
		Id:             project.Id,
		CompanyId:      project.CompanyId,
		Title:          project.Title,
		Description:    project.Description,
		Payment:        project.Payment.StringFixed(2),
		Difficulty:     project.Difficulty,
		Deadline:       project.Deadline,
		MaxSubmissions: project.MaxSubmissions,
		Status:         project.Status,
	}
	if project.Company != nil {
		companyInfo := convertToCompanyInfo(project.Company)
		info.Company = &companyInfo
	}
	return info
}

func (s *ProjectService) List(w http.ResponseWriter, r *http.Request) {
	var projects []schema.Project
	result := s.db.Preload("Company").
		Where("status = ?", schema.ProjectActive).
		Order("created_at DESC").
		Find(&projects)
	if result.Error != nil {
		slog.Error("sql error listing active projects", "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing projects: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]ProjectInfo, 0, len(projects))
	for _, project := range projects {
		infos = append(infos, convertToProjectInfo(&project))
	}
	utils.WriteJsonResponse(w, infos)
}

const featuredProjectCount = 6

func (s *ProjectService) Featured(w http.ResponseWriter, r *http.Request) {
	var projects []schema.Project
	result := s.db.Preload("Company").
		Where("status = ?", schema.ProjectActive).
		Order("payment DESC").
		Limit(featuredProjectCount).
		Find(&projects)
	if result.Error != nil {
		slog.Error("sql error listing featured projects", "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing featured projects: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]ProjectInfo, 0, len(projects))
	for _, project := range projects {
		infos = append(infos, convertToProjectInfo(&project))
	}
	utils.WriteJsonResponse(w, infos)
}

func (s *ProjectService) GetProject(w http.ResponseWriter, r *http.Request) {
	projectId, err := utils.URLParamUUID(r, "project_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	project, err := schema.GetProject(projectId, s.db, true)
	if err != nil {
		if errors.Is(err, schema.ErrProjectNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("error getting project: %v", err), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, convertToProjectInfo(&project))
}

func (s *ProjectService) MySubmission(w http.ResponseWriter, r *http.Request) {
	projectId, err := utils.URLParamUUID(r, "project_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var submission schema.Submission
	result := s.db.First(&submission, "project_id = ? AND candidate_id = ?", projectId, user.Id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			http.Error(w, fmt.Sprintf("no submission for project %v", projectId), http.StatusNotFound)
			return
		}
		slog.Error("sql error loading submission", "project_id", projectId, "candidate_id", user.Id, "error", result.Error)
		http.Error(w, fmt.Sprintf("error getting submission: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, convertToSubmissionInfo(&submission))
}

type createSubmissionRequest struct {
	Content       string `json:"content"`
	AttachmentUrl string `json:"attachment_url"`
}

type createSubmissionResponse struct {
	SubmissionId uuid.UUID `json:"submission_id"`
}

func (s *ProjectService) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { submissionCreateMetric.Observe(time.Since(start).Seconds()) }()

	projectId, err := utils.URLParamUUID(r, "project_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var params createSubmissionRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if strings.TrimSpace(params.Content) == "" {
		http.Error(w, "submission content must be specified", http.StatusBadRequest)
		return
	}

	newSubmission := schema.Submission{
		Id:            uuid.New(),
		ProjectId:     projectId,
		CandidateId:   user.Id,
		Content:       params.Content,
		AttachmentUrl: params.AttachmentUrl,
		Status:        schema.SubmissionPending,
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		project, err := schema.GetProject(projectId, txn, false)
		if err != nil {
			if errors.Is(err, schema.ErrProjectNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		if project.Status != schema.ProjectActive {
			return CodedError(fmt.Errorf("project %v is not open for submissions", projectId), http.StatusUnprocessableEntity)
		}

		var count int64
		result := txn.Model(&schema.Submission{}).Where("project_id = ?", projectId).Count(&count)
		if result.Error != nil {
			slog.Error("sql error counting project submissions", "project_id", projectId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if count >= int64(project.MaxSubmissions) {
			return CodedError(fmt.Errorf("project %v has reached its submission limit", projectId), http.StatusUnprocessableEntity)
		}

		var existing schema.Submission
		result = txn.Limit(1).Find(&existing, "project_id = ? AND candidate_id = ?", projectId, user.Id)
		if result.Error != nil {
			slog.Error("sql error checking for duplicate submission", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result.RowsAffected != 0 {
			return CodedError(fmt.Errorf("candidate %v has already submitted to project %v", user.Id, projectId), http.StatusConflict)
		}

		result = txn.Create(&newSubmission)
		if result.Error != nil {
			// The unique index on (project_id, candidate_id) closes the race
			// between the check above and this insert.
			if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
				return CodedError(fmt.Errorf("candidate %v has already submitted to project %v", user.Id, projectId), http.StatusConflict)
			}
			slog.Error("sql error creating submission", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error creating submission: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("submission created", "submission_id", newSubmission.Id, "project_id", projectId, "candidate_id", user.Id, "code", logging.SUBMISSION_CREATE)

	utils.WriteJsonResponse(w, createSubmissionResponse{SubmissionId: newSubmission.Id})
}

package services

import (
	"fmt"
	"log/slog"
	"net/http"
	"talentmarket/marketplace/auth"
	"talentmarket/marketplace/schema"
	"talentmarket/utils"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CandidateService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
}

func (s *CandidateService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.userAuth.AuthMiddleware()...)

	r.Get("/submissions", s.Submissions)
	r.Get("/completed", s.Completed)
	r.Get("/stats", s.Stats)

	return r
}

type SubmissionInfo struct {
	Id            uuid.UUID    `json:"id"`
	ProjectId     uuid.UUID    `json:"project_id"`
	CandidateId   uuid.UUID    `json:"candidate_id"`
	Content       string       `json:"content"`
	AttachmentUrl string       `json:"attachment_url"`
	Status        string       `json:"status"`
	Feedback      string       `json:"feedback"`
	SubmittedAt   time.Time    `json:"submitted_at"`
	Project       *ProjectInfo `json:"project,omitempty"`
}

func convertToSubmissionInfo(submission *schema.Submission) SubmissionInfo {
	info := SubmissionInfo{
		Id:            submission.Id,
		ProjectId:     submission.ProjectId,
		CandidateId:   submission.CandidateId,
		Content:       submission.Content,
		AttachmentUrl: submission.AttachmentUrl,
		Status:        submission.Status,
		Feedback:      submission.Feedback,
		SubmittedAt:   submission.CreatedAt,
	}
	if submission.Project != nil {
		projectInfo := convertToProjectInfo(submission.Project)
		info.Project = &projectInfo
	}
	return info
}

func (s *CandidateService) listSubmissions(w http.ResponseWriter, r *http.Request, statuses []string) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	query := s.db.Preload("Project").Preload("Project.Company").Where("candidate_id = ?", user.Id)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var submissions []schema.Submission
	result := query.Order("created_at DESC").Find(&submissions)
	if result.Error != nil {
		slog.Error("sql error listing candidate submissions", "candidate_id", user.Id, "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing submissions: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]SubmissionInfo, 0, len(submissions))
	for _, submission := range submissions {
		infos = append(infos, convertToSubmissionInfo(&submission))
	}
	utils.WriteJsonResponse(w, infos)
}

func (s *CandidateService) Submissions(w http.ResponseWriter, r *http.Request) {
	s.listSubmissions(w, r, nil)
}

func (s *CandidateService) Completed(w http.ResponseWriter, r *http.Request) {
	s.listSubmissions(w, r, []string{schema.SubmissionApproved})
}

type candidateStatsResponse struct {
	TotalSubmissions    int64   `json:"total_submissions"`
	ApprovedSubmissions int64   `json:"approved_submissions"`
	TotalEarnings       string  `json:"total_earnings"`
	AverageRating       float64 `json:"average_rating"`
}

func (s *CandidateService) Stats(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var res candidateStatsResponse

	err = s.db.Transaction(func(txn *gorm.DB) error {
		result := txn.Model(&schema.Submission{}).Where("candidate_id = ?", user.Id).Count(&res.TotalSubmissions)
		if result.Error != nil {
			slog.Error("sql error counting candidate submissions", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		result = txn.Model(&schema.Submission{}).
			Where("candidate_id = ? AND status = ?", user.Id, schema.SubmissionApproved).
			Count(&res.ApprovedSubmissions)
		if result.Error != nil {
			slog.Error("sql error counting approved submissions", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		earnings, err := sumPaidAmounts(txn, func(q *gorm.DB) *gorm.DB {
			return q.Where("candidate_id = ?", user.Id)
		})
		if err != nil {
			return err
		}
		res.TotalEarnings = earnings.StringFixed(2)

		var scores []int
		result = txn.Model(&schema.Rating{}).Where("candidate_id = ?", user.Id).Pluck("score", &scores)
		if result.Error != nil {
			slog.Error("sql error loading candidate ratings", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		// A candidate with no ratings has an average of 0, not an error.
		if len(scores) > 0 {
			total := 0
			for _, score := range scores {
				total += score
			}
			res.AverageRating = float64(total) / float64(len(scores))
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error computing candidate stats: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, res)
}

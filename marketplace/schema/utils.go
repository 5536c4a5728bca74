package schema

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrCompanyNotFound    = errors.New("company not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrDbAccessFailed     = errors.New("db access failed")
)

func GetUser(userId uuid.UUID, db *gorm.DB) (User, error) {
	var user User

	result := db.First(&user, "id = ?", userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		slog.Error("sql error in get user", "user_id", userId, "error", result.Error)
		return user, ErrDbAccessFailed
	}

	return user, nil
}

func GetCompany(companyId uuid.UUID, db *gorm.DB) (Company, error) {
	var company Company

	result := db.First(&company, "id = ?", companyId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return company, ErrCompanyNotFound
		}
		slog.Error("sql error in get company", "company_id", companyId, "error", result.Error)
		return company, ErrDbAccessFailed
	}

	return company, nil
}

func GetCompanyByOwner(userId uuid.UUID, db *gorm.DB) (Company, error) {
	var company Company

	result := db.First(&company, "user_id = ?", userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return company, ErrCompanyNotFound
		}
		slog.Error("sql error in get company by owner", "user_id", userId, "error", result.Error)
		return company, ErrDbAccessFailed
	}

	return company, nil
}

func GetProject(projectId uuid.UUID, db *gorm.DB, loadCompany bool) (Project, error) {
	var project Project

	var result *gorm.DB = db
	if loadCompany {
		result = result.Preload("Company")
	}
	result = result.First(&project, "id = ?", projectId)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return project, ErrProjectNotFound
		}
		slog.Error("sql error in get project", "project_id", projectId, "error", result.Error)
		return project, ErrDbAccessFailed
	}

	return project, nil
}

func GetSubmission(submissionId uuid.UUID, db *gorm.DB, loadProject bool) (Submission, error) {
	var submission Submission

	var result *gorm.DB = db
	if loadProject {
		result = result.Preload("Project")
	}
	result = result.First(&submission, "id = ?", submissionId)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return submission, ErrSubmissionNotFound
		}
		slog.Error("sql error in get submission", "submission_id", submissionId, "error", result.Error)
		return submission, ErrDbAccessFailed
	}

	return submission, nil
}

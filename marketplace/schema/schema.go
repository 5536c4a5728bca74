package schema

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RoleCandidate = "candidate"
	RoleCompany   = "company"
	RoleAdmin     = "admin"
)

const (
	CompanyPending  = "pending"
	CompanyApproved = "approved"
	CompanyRejected = "rejected"
)

const (
	ProjectPending   = "pending"
	ProjectApproved  = "approved"
	ProjectActive    = "active"
	ProjectCompleted = "completed"
	ProjectCancelled = "cancelled"
)

const (
	SubmissionPending     = "pending"
	SubmissionUnderReview = "under_review"
	SubmissionApproved    = "approved"
	SubmissionRejected    = "rejected"
)

const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

type User struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Username string `gorm:"unique;size:50;not null"`
	Email    string `gorm:"unique;size:254;not null"`
	Password []byte

	Role string `gorm:"size:20;not null;default:'candidate'"`

	Skills       []string `gorm:"serializer:json"`
	Bio          string
	Experience   string
	PortfolioUrl string `gorm:"size:500"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Company *Company `gorm:"foreignKey:UserId"`
}

type Company struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	// A user may own at most one company.
	UserId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE"`

	Name     string `gorm:"size:100;not null"`
	Industry string `gorm:"size:100"`
	Size     string `gorm:"size:50"`

	Status string `gorm:"size:20;not null;default:'pending'"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Projects []Project `gorm:"constraint:OnDelete:CASCADE"`
}

type Project struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	CompanyId uuid.UUID `gorm:"type:uuid;not null;index"`
	Company   *Company

	Title       string `gorm:"size:200;not null"`
	Description string

	Payment    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Difficulty string          `gorm:"size:50"`
	Deadline   *time.Time

	MaxSubmissions int `gorm:"not null;default:10"`

	Status string `gorm:"size:20;not null;default:'pending'"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Submissions []Submission `gorm:"constraint:OnDelete:CASCADE"`
}

type Submission struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	// The composite unique index enforces at most one submission per
	// candidate per project, even under concurrent creation attempts.
	ProjectId   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_submissions_project_candidate"`
	CandidateId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_submissions_project_candidate"`

	Project   *Project
	Candidate *User `gorm:"foreignKey:CandidateId"`

	Content       string
	AttachmentUrl string `gorm:"size:500"`

	Status   string `gorm:"size:20;not null;default:'pending'"`
	Feedback string

	CreatedAt time.Time
	UpdatedAt time.Time

	Rating  *Rating  `gorm:"foreignKey:SubmissionId"`
	Payment *Payment `gorm:"foreignKey:SubmissionId"`
}

// Ratings are append only, created when a submission is approved and never
// updated afterwards.
type Rating struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	SubmissionId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	CandidateId  uuid.UUID `gorm:"type:uuid;not null;index"`
	CompanyId    uuid.UUID `gorm:"type:uuid;not null;index"`

	Score  int `gorm:"not null;check:score >= 1 AND score <= 5"`
	Review string

	CreatedAt time.Time
}

// Payments are append only ledger rows. Amount mirrors the project payment
// at the time the submission was approved.
type Payment struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	SubmissionId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	CandidateId  uuid.UUID `gorm:"type:uuid;not null;index"`
	CompanyId    uuid.UUID `gorm:"type:uuid;not null;index"`

	Amount decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	Status string `gorm:"size:20;not null;default:'pending'"`
	PaidAt *time.Time

	CreatedAt time.Time
}

func AllModels() []interface{} {
	return []interface{}{
		&User{}, &Company{}, &Project{}, &Submission{}, &Rating{}, &Payment{},
	}
}

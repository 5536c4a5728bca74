package tests

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"talentmarket/marketplace/schema"

	"github.com/google/uuid"
)

func TestCreateSubmission(t *testing.T) {
	env := setupTestEnv(t)

	company, _, err := env.newCompany("founder", true)
	if err != nil {
		t.Fatal(err)
	}

	projectId, err := env.newActiveProject(company, "build a scraper", "250.00")
	if err != nil {
		t.Fatal(err)
	}

	candidate, err := env.newUser("candidate1")
	if err != nil {
		t.Fatal(err)
	}

	_, err = candidate.mySubmission(projectId)
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected not found before submitting, got %v", err)
	}

	submissionId, err := candidate.submit(projectId, "here is my solution")
	if err != nil {
		t.Fatal(err)
	}

	submission, err := candidate.mySubmission(projectId)
	if err != nil {
		t.Fatal(err)
	}
	if submission.Id.String() != submissionId || submission.Status != schema.SubmissionPending {
		t.Fatalf("invalid submission %v", submission)
	}
	if submission.Content != "here is my solution" {
		t.Fatalf("invalid submission content %v", submission.Content)
	}

	_, err = candidate.submit(projectId, "second attempt")
	if err == nil || !strings.Contains(err.Error(), "409") {
		t.Fatalf("duplicate submission should conflict, got %v", err)
	}

	// The conflict must not clobber the original submission.
	submission, err = candidate.mySubmission(projectId)
	if err != nil {
		t.Fatal(err)
	}
	if submission.Content != "here is my solution" {
		t.Fatalf("duplicate attempt overwrote submission: %v", submission.Content)
	}
}

func TestCreateSubmissionRequiresActiveProject(t *testing.T) {
	env := setupTestEnv(t)

	company, _, err := env.newCompany("founder", true)
	if err != nil {
		t.Fatal(err)
	}

	projectId, err := company.createProject("build a scraper", "scrape things", "250.00")
	if err != nil {
		t.Fatal(err)
	}

	candidate, err := env.newUser("candidate1")
	if err != nil {
		t.Fatal(err)
	}

	_, err = candidate.submit(projectId, "too early")
	if err == nil || !strings.Contains(err.Error(), "422") {
		t.Fatalf("submission to pending project should fail, got %v", err)
	}

	_, err = candidate.submit(uuid.NewString(), "no such project")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected not found, got %v", err)
	}

	_, err = candidate.submit(projectId, "  ")
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("blank content should be rejected, got %v", err)
	}
}

func TestSubmissionLimit(t *testing.T) {
	env := setupTestEnv(t)

	company, _, err := env.newCompany("founder", true)
	if err != nil {
		t.Fatal(err)
	}

	projectId, err := env.newActiveProject(company, "build a scraper", "250.00")
	if err != nil {
		t.Fatal(err)
	}

	env.db.Model(&schema.Project{}).Where("id = ?", projectId).Update("max_submissions", 2)

	for i := 0; i < 2; i++ {
		candidate, err := env.newUser(fmt.Sprintf("candidate%d", i))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := candidate.submit(projectId, "solution"); err != nil {
			t.Fatal(err)
		}
	}

	late, err := env.newUser("latecomer")
	if err != nil {
		t.Fatal(err)
	}
	_, err = late.submit(projectId, "solution")
	if err == nil || !strings.Contains(err.Error(), "422") {
		t.Fatalf("submission past the limit should fail, got %v", err)
	}
}

func TestReviewSubmissionApprove(t *testing.T) {
	env := setupTestEnv(t)

	company, companyId, err := env.newCompany("founder", true)
	if err != nil {
		t.Fatal(err)
	}

	projectId, err := env.newActiveProject(company, "build a scraper", "250.00")
	if err != nil {
		t.Fatal(err)
	}

	candidate, err := env.newUser("candidate1")
	if err != nil {
		t.Fatal(err)
	}

	submissionId, err := candidate.submit(projectId, "here is my solution")
	if err != nil {
		t.Fatal(err)
	}

	score := 5
	err = company.reviewSubmission(submissionId, true, &score, "great work")
	if err != nil {
		t.Fatal(err)
	}

	submission, err := candidate.mySubmission(projectId)
	if err != nil {
		t.Fatal(err)
	}
	if submission.Status != schema.SubmissionApproved || submission.Feedback != "great work" {
		t.Fatalf("invalid submission after review %v", submission)
	}

	// Approval settles exactly one payment for the project amount.
	var payments []schema.Payment
	if err := env.db.Find(&payments, "submission_id = ?", submissionId).Error; err != nil {
		t.Fatal(err)
	}
	if len(payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(payments))
	}
	payment := payments[0]
	if payment.Amount.StringFixed(2) != "250.00" || payment.Status != schema.PaymentPaid || payment.PaidAt == nil {
		t.Fatalf("invalid payment %v", payment)
	}
	if payment.CompanyId.String() != companyId || payment.CandidateId.String() != candidate.userId {
		t.Fatalf("payment attributed to wrong parties %v", payment)
	}

	var ratings []schema.Rating
	if err := env.db.Find(&ratings, "submission_id = ?", submissionId).Error; err != nil {
		t.Fatal(err)
	}
	if len(ratings) != 1 || ratings[0].Score != 5 {
		t.Fatalf("expected a single rating with score 5, got %v", ratings)
	}
}

func TestReviewSubmissionReject(t *testing.T) {
	env := setupTestEnv(t)

	company, _, err := env.newCompany("founder", true)
	if err != nil {
		t.Fatal(err)
	}

	projectId, err := env.newActiveProject(company, "build a scraper", "250.00")
	if err != nil {
		t.Fatal(err)
	}

	candidate, err := env.newUser("candidate1")
	if err != nil {
		t.Fatal(err)
	}

	submissionId, err := candidate.submit(projectId, "here is my solution")
	if err != nil {
		t.Fatal(err)
	}

	err = company.reviewSubmission(submissionId, false, nil, "not what we asked for")
	if err != nil {
		t.Fatal(err)
	}

	submission, err := candidate.mySubmission(projectId)
	if err != nil {
		t.Fatal(err)
	}
	if submission.Status != schema.SubmissionRejected {
		t.Fatalf("expected rejected submission, got %v", submission.Status)
	}

	// Rejection must not settle a payment or record a rating.
	var paymentCount, ratingCount int64
	env.db.Model(&schema.Payment{}).Count(&paymentCount)
	env.db.Model(&schema.Rating{}).Count(&ratingCount)
	if paymentCount != 0 || ratingCount != 0 {
		t.Fatalf("rejection created payments=%d ratings=%d", paymentCount, ratingCount)
	}
}

func TestReviewSubmissionOnlyOnce(t *testing.T) {
	env := setupTestEnv(t)

	company, _, err := env.newCompany("founder", true)
	if err != nil {
		t.Fatal(err)
	}

	projectId, err := env.newActiveProject(company, "build a scraper", "250.00")
	if err != nil {
		t.Fatal(err)
	}

	candidate, err := env.newUser("candidate1")
	if err != nil {
		t.Fatal(err)
	}

	submissionId, err := candidate.submit(projectId, "here is my solution")
	if err != nil {
		t.Fatal(err)
	}

	score := 4
	if err := company.reviewSubmission(submissionId, true, &score, "good"); err != nil {
		t.Fatal(err)
	}

	err = company.reviewSubmission(submissionId, false, nil, "changed our mind")
	if err == nil || !strings.Contains(err.Error(), "422") {
		t.Fatalf("second review should fail, got %v", err)
	}

	// The failed review must leave the settlement untouched.
	submission, err := candidate.mySubmission(projectId)
	if err != nil {
		t.Fatal(err)
	}
	if submission.Status != schema.SubmissionApproved || submission.Feedback != "good" {
		t.Fatalf("second review modified submission %v", submission)
	}

	var paymentCount int64
	env.db.Model(&schema.Payment{}).Count(&paymentCount)
	if paymentCount != 1 {
		t.Fatalf("expected exactly 1 payment, got %d", paymentCount)
	}
}

func TestReviewSubmissionValidation(t *testing.T) {
	env := setupTestEnv(t)

	company, _, err := env.newCompany("founder", true)
	if err != nil {
		t.Fatal(err)
	}

	projectId, err := env.newActiveProject(company, "build a scraper", "250.00")
	if err != nil {
		t.Fatal(err)
	}

	candidate, err := env.newUser("candidate1")
	if err != nil {
		t.Fatal(err)
	}

	submissionId, err := candidate.submit(projectId, "here is my solution")
	if err != nil {
		t.Fatal(err)
	}

	for _, score := range []int{0, 6, -1} {
		badScore := score
		err := company.reviewSubmission(submissionId, true, &badScore, "bad score")
		if err == nil || !strings.Contains(err.Error(), "400") {
			t.Fatalf("score %d should be rejected, got %v", score, err)
		}
	}

	err = company.reviewSubmission(uuid.NewString(), true, nil, "no such submission")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReviewSubmissionRequiresOwnership(t *testing.T) {
	env := setupTestEnv(t)

	owner, _, err := env.newCompany("owner", true)
	if err != nil {
		t.Fatal(err)
	}

	other, _, err := env.newCompany("other", true)
	if err != nil {
		t.Fatal(err)
	}

	projectId, err := env.newActiveProject(owner, "build a scraper", "250.00")
	if err != nil {
		t.Fatal(err)
	}

	candidate, err := env.newUser("candidate1")
	if err != nil {
		t.Fatal(err)
	}

	submissionId, err := candidate.submit(projectId, "here is my solution")
	if err != nil {
		t.Fatal(err)
	}

	err = other.reviewSubmission(submissionId, true, nil, "not ours")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("review by another company should be forbidden, got %v", err)
	}

	err = candidate.reviewSubmission(submissionId, true, nil, "self approval")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("review by a candidate should be forbidden, got %v", err)
	}

	submission, err := candidate.mySubmission(projectId)
	if err != nil {
		t.Fatal(err)
	}
	if submission.Status != schema.SubmissionPending {
		t.Fatalf("forbidden reviews modified submission %v", submission)
	}
}

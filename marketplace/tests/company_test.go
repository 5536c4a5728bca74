package tests

import (
	"errors"
	"strings"
	"testing"

	"talentmarket/marketplace/schema"
)

func TestCreateCompany(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("founder")
	if err != nil {
		t.Fatal(err)
	}

	companyId, err := user.createCompany("founder inc", "software", "1-10")
	if err != nil {
		t.Fatal(err)
	}
	if companyId == "" {
		t.Fatal("missing company id")
	}

	// Registering a company promotes the owner to the company role.
	info, err := user.userInfo()
	if err != nil {
		t.Fatal(err)
	}
	if info.Role != schema.RoleCompany {
		t.Fatalf("expected company role, got %v", info.Role)
	}

	profile, err := user.companyProfile()
	if err != nil {
		t.Fatal(err)
	}
	if profile.Name != "founder inc" || profile.Status != schema.CompanyPending {
		t.Fatalf("invalid company profile %v", profile)
	}

	_, err = user.createCompany("founder two", "software", "1-10")
	if err == nil || !strings.Contains(err.Error(), "409") {
		t.Fatalf("second company registration should conflict, got %v", err)
	}
}

func TestCreateCompanyRequiresName(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("founder")
	if err != nil {
		t.Fatal(err)
	}

	_, err = user.createCompany("", "software", "1-10")
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestAdminCannotCreateCompany(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	_, err = admin.createCompany("admin inc", "software", "1-10")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCompanyReview(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("founder")
	if err != nil {
		t.Fatal(err)
	}

	companyId, err := user.createCompany("founder inc", "software", "1-10")
	if err != nil {
		t.Fatal(err)
	}

	err = user.reviewCompany(companyId, true)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("non admin review should be forbidden, got %v", err)
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	pending, err := admin.pendingCompanies()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Id.String() != companyId {
		t.Fatalf("expected 1 pending company, got %v", pending)
	}

	err = admin.reviewCompany(companyId, true)
	if err != nil {
		t.Fatal(err)
	}

	profile, err := user.companyProfile()
	if err != nil {
		t.Fatal(err)
	}
	if profile.Status != schema.CompanyApproved {
		t.Fatalf("expected approved company, got %v", profile.Status)
	}

	// A company can only be reviewed once.
	err = admin.reviewCompany(companyId, false)
	if err == nil || !strings.Contains(err.Error(), "422") {
		t.Fatalf("second review should fail, got %v", err)
	}

	profile, err = user.companyProfile()
	if err != nil {
		t.Fatal(err)
	}
	if profile.Status != schema.CompanyApproved {
		t.Fatalf("failed review must not change status, got %v", profile.Status)
	}

	pending, err = admin.pendingCompanies()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending companies, got %v", pending)
	}
}

func TestRejectedCompanyCannotPostProjects(t *testing.T) {
	env := setupTestEnv(t)

	company, _, err := env.newCompany("founder", false)
	if err != nil {
		t.Fatal(err)
	}

	_, err = company.createProject("build a scraper", "scrape things", "100.00")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("rejected company should not create projects, got %v", err)
	}
}

func TestCompanyRoutesRequireCompanyRole(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("candidate1")
	if err != nil {
		t.Fatal(err)
	}

	_, err = user.createProject("build a scraper", "scrape things", "100.00")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("candidate should not create projects, got %v", err)
	}

	_, err = user.listCompanyProjects()
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("candidate should not list company projects, got %v", err)
	}

	_, err = user.companyStats()
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("candidate should not read company stats, got %v", err)
	}
}

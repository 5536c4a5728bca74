package tests

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"talentmarket/marketplace/schema"
)

func TestCreateProject(t *testing.T) {
	env := setupTestEnv(t)

	company, companyId, err := env.newCompany("founder", true)
	if err != nil {
		t.Fatal(err)
	}

	projectId, err := company.createProject("build a scraper", "scrape things", "250.00")
	if err != nil {
		t.Fatal(err)
	}

	projects, err := company.listCompanyProjects()
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects))
	}

	project := projects[0]
	if project.Id.String() != projectId || project.CompanyId.String() != companyId {
		t.Fatalf("invalid project %v", project)
	}
	if project.Status != schema.ProjectPending || project.Payment != "250.00" || project.MaxSubmissions != 10 {
		t.Fatalf("invalid project defaults %v", project)
	}
}

func TestCreateProjectRejectsBadPayment(t *testing.T) {
	env := setupTestEnv(t)

	company, _, err := env.newCompany("founder", true)
	if err != nil {
		t.Fatal(err)
	}

	for _, payment := range []string{"0", "-10.00"} {
		_, err := company.createProject("build a scraper", "scrape things", payment)
		if err == nil || !strings.Contains(err.Error(), "400") {
			t.Fatalf("payment %v should be rejected, got %v", payment, err)
		}
	}
}

func TestProjectReview(t *testing.T) {
	env := setupTestEnv(t)

	company, _, err := env.newCompany("founder", true)
	if err != nil {
		t.Fatal(err)
	}

	activated, err := company.createProject("build a scraper", "scrape things", "250.00")
	if err != nil {
		t.Fatal(err)
	}
	cancelled, err := company.createProject("build a parser", "parse things", "100.00")
	if err != nil {
		t.Fatal(err)
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	pending, err := admin.pendingProjects()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending projects, got %v", pending)
	}
	if pending[0].Company == nil || pending[0].Company.Name != "founder inc" {
		t.Fatalf("pending projects should include company info, got %v", pending[0])
	}

	if err := admin.reviewProject(activated, true); err != nil {
		t.Fatal(err)
	}
	if err := admin.reviewProject(cancelled, false); err != nil {
		t.Fatal(err)
	}

	err = admin.reviewProject(activated, false)
	if err == nil || !strings.Contains(err.Error(), "422") {
		t.Fatalf("second review should fail, got %v", err)
	}

	statuses := map[string]string{
		activated: schema.ProjectActive,
		cancelled: schema.ProjectCancelled,
	}
	for id, want := range statuses {
		project, err := company.getProject(id)
		if err != nil {
			t.Fatal(err)
		}
		if project.Status != want {
			t.Fatalf("project %v: expected status %v, got %v", id, want, project.Status)
		}
	}
}

func TestListProjectsShowsOnlyActive(t *testing.T) {
	env := setupTestEnv(t)

	company, _, err := env.newCompany("founder", true)
	if err != nil {
		t.Fatal(err)
	}

	activeId, err := env.newActiveProject(company, "build a scraper", "250.00")
	if err != nil {
		t.Fatal(err)
	}

	_, err = company.createProject("build a parser", "parse things", "100.00")
	if err != nil {
		t.Fatal(err)
	}

	// The public listing needs no auth token.
	anon := env.newClient()
	projects, err := anon.listProjects()
	if err != nil {
		t.Fatal(err)
	}

	if len(projects) != 1 || projects[0].Id.String() != activeId {
		t.Fatalf("expected only the active project, got %v", projects)
	}
	if projects[0].Company == nil || projects[0].Company.Name != "founder inc" {
		t.Fatalf("listing should include company info, got %v", projects[0])
	}

	project, err := anon.getProject(activeId)
	if err != nil {
		t.Fatal(err)
	}
	if project.Title != "build a scraper" {
		t.Fatalf("invalid project %v", project)
	}

	_, err = anon.getProject("7a4e8d1c-0000-0000-0000-000000000000")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFeaturedProjects(t *testing.T) {
	env := setupTestEnv(t)

	company, _, err := env.newCompany("founder", true)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 8; i++ {
		_, err := env.newActiveProject(company, fmt.Sprintf("project %d", i), fmt.Sprintf("%d.00", i*100))
		if err != nil {
			t.Fatal(err)
		}
	}

	user, err := env.newUser("candidate1")
	if err != nil {
		t.Fatal(err)
	}

	featured, err := user.featuredProjects()
	if err != nil {
		t.Fatal(err)
	}

	if len(featured) != 6 {
		t.Fatalf("expected 6 featured projects, got %d", len(featured))
	}
	if featured[0].Payment != "800.00" || featured[5].Payment != "300.00" {
		t.Fatalf("featured projects out of order: %v", featured)
	}

	anon := env.newClient()
	_, err = anon.featuredProjects()
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("featured listing should require auth, got %v", err)
	}
}

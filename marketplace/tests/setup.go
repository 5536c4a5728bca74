package tests

import (
	"bytes"
	"testing"
	"talentmarket/marketplace/auth"
	"talentmarket/marketplace/schema"
	"talentmarket/marketplace/services"

	"github.com/go-chi/chi/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	market services.Market
	api    chi.Router
	db     *gorm.DB
}

const (
	adminUsername = "admin123"
	adminEmail    = "admin123@mail.com"
	adminPassword = "admin_password123"
)

func setupTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatal(err)
	}

	err = db.AutoMigrate(schema.AllModels()...)
	if err != nil {
		t.Fatal(err)
	}

	secret := []byte("290zcv02ai249")

	userAuth, err := auth.NewBasicIdentityProvider(
		db,
		auth.NewAuditLogger(new(bytes.Buffer)),
		auth.BasicProviderArgs{
			Secret:        secret,
			AdminUsername: adminUsername,
			AdminEmail:    adminEmail,
			AdminPassword: adminPassword,
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	market := services.NewMarket(db, userAuth)

	return &testEnv{market: market, api: market.Routes(), db: db}
}

func (t *testEnv) newClient() client {
	return client{api: t.api}
}

func (t *testEnv) newUser(username string) (client, error) {
	c := t.newClient()
	login, err := c.signup(username, username+"@mail.com", username+"_password")
	if err != nil {
		return client{}, err
	}

	err = c.login(login)
	if err != nil {
		return client{}, err
	}

	return c, nil
}

func (t *testEnv) adminClient() (client, error) {
	c := t.newClient()
	err := c.login(loginInfo{Email: adminEmail, Password: adminPassword})
	return c, err
}

// newCompany registers a company for a fresh user and has the admin review
// it. Most company scoped tests start from an approved company.
func (t *testEnv) newCompany(username string, approve bool) (client, string, error) {
	c, err := t.newUser(username)
	if err != nil {
		return client{}, "", err
	}

	companyId, err := c.createCompany(username+" inc", "software", "1-10")
	if err != nil {
		return client{}, "", err
	}

	admin, err := t.adminClient()
	if err != nil {
		return client{}, "", err
	}

	err = admin.reviewCompany(companyId, approve)
	if err != nil {
		return client{}, "", err
	}

	return c, companyId, nil
}

// newActiveProject creates a project for the given company client and has
// the admin activate it.
func (t *testEnv) newActiveProject(company client, title, payment string) (string, error) {
	projectId, err := company.createProject(title, "a task", payment)
	if err != nil {
		return "", err
	}

	admin, err := t.adminClient()
	if err != nil {
		return "", err
	}

	err = admin.reviewProject(projectId, true)
	if err != nil {
		return "", err
	}

	return projectId, nil
}

package main

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"talentmarket/marketplace/schema"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type seedUser struct {
	Username     string   `yaml:"username"`
	Email        string   `yaml:"email"`
	Password     string   `yaml:"password"`
	Role         string   `yaml:"role"`
	Skills       []string `yaml:"skills"`
	Bio          string   `yaml:"bio"`
	Experience   string   `yaml:"experience"`
	PortfolioUrl string   `yaml:"portfolio_url"`
}

type seedCompany struct {
	Owner    string `yaml:"owner"`
	Name     string `yaml:"name"`
	Industry string `yaml:"industry"`
	Size     string `yaml:"size"`
	Status   string `yaml:"status"`
}

type seedProject struct {
	Company        string `yaml:"company"`
	Title          string `yaml:"title"`
	Description    string `yaml:"description"`
	Payment        string `yaml:"payment"`
	Difficulty     string `yaml:"difficulty"`
	Deadline       string `yaml:"deadline"`
	MaxSubmissions int    `yaml:"max_submissions"`
	Status         string `yaml:"status"`
}

type seedFixture struct {
	Users     []seedUser    `yaml:"users"`
	Companies []seedCompany `yaml:"companies"`
	Projects  []seedProject `yaml:"projects"`
}

func postgresDsn(uri string) string {
	if uri == "" {
		log.Fatalf("Missing --db_uri arg")
	}
	parts, err := url.Parse(uri)
	if err != nil {
		log.Fatalf("error parsing db uri: %v", err)
	}
	pwd, _ := parts.User.Password()
	dbname := strings.TrimPrefix(parts.Path, "/")
	return fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v", parts.Hostname(), parts.User.Username(), pwd, dbname, parts.Port())
}

func loadFixture(path string) (seedFixture, error) {
	var fixture seedFixture

	data, err := os.ReadFile(path)
	if err != nil {
		return fixture, fmt.Errorf("error reading fixture file '%v': %w", path, err)
	}

	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return fixture, fmt.Errorf("error parsing fixture file '%v': %w", path, err)
	}

	return fixture, nil
}

func seed(db *gorm.DB, fixture seedFixture) error {
	return db.Transaction(func(txn *gorm.DB) error {
		userIds := map[string]uuid.UUID{}
		companyIds := map[string]uuid.UUID{}

		for _, u := range fixture.Users {
			hashedPwd, err := bcrypt.GenerateFromPassword([]byte(u.Password), 10)
			if err != nil {
				return fmt.Errorf("error encrypting password for user '%v': %w", u.Username, err)
			}

			role := u.Role
			if role == "" {
				role = schema.RoleCandidate
			}

			user := schema.User{
				Id:           uuid.New(),
				Username:     u.Username,
				Email:        u.Email,
				Password:     hashedPwd,
				Role:         role,
				Skills:       u.Skills,
				Bio:          u.Bio,
				Experience:   u.Experience,
				PortfolioUrl: u.PortfolioUrl,
			}
			if err := txn.Create(&user).Error; err != nil {
				return fmt.Errorf("error creating user '%v': %w", u.Username, err)
			}
			userIds[u.Username] = user.Id
		}

		for _, c := range fixture.Companies {
			ownerId, ok := userIds[c.Owner]
			if !ok {
				return fmt.Errorf("company '%v' references unknown owner '%v'", c.Name, c.Owner)
			}

			status := c.Status
			if status == "" {
				status = schema.CompanyPending
			}

			company := schema.Company{
				Id:       uuid.New(),
				UserId:   ownerId,
				Name:     c.Name,
				Industry: c.Industry,
				Size:     c.Size,
				Status:   status,
			}
			if err := txn.Create(&company).Error; err != nil {
				return fmt.Errorf("error creating company '%v': %w", c.Name, err)
			}
			companyIds[c.Name] = company.Id

			if err := txn.Model(&schema.User{}).Where("id = ?", ownerId).Update("role", schema.RoleCompany).Error; err != nil {
				return fmt.Errorf("error updating role for owner of company '%v': %w", c.Name, err)
			}
		}

		for _, p := range fixture.Projects {
			companyId, ok := companyIds[p.Company]
			if !ok {
				return fmt.Errorf("project '%v' references unknown company '%v'", p.Title, p.Company)
			}

			payment, err := decimal.NewFromString(p.Payment)
			if err != nil {
				return fmt.Errorf("invalid payment '%v' for project '%v': %w", p.Payment, p.Title, err)
			}

			var deadline *time.Time
			if p.Deadline != "" {
				t, err := time.Parse(time.RFC3339, p.Deadline)
				if err != nil {
					return fmt.Errorf("invalid deadline '%v' for project '%v': %w", p.Deadline, p.Title, err)
				}
				deadline = &t
			}

			maxSubmissions := p.MaxSubmissions
			if maxSubmissions == 0 {
				maxSubmissions = 10
			}

			status := p.Status
			if status == "" {
				status = schema.ProjectPending
			}

			project := schema.Project{
				Id:             uuid.New(),
				CompanyId:      companyId,
				Title:          p.Title,
				Description:    p.Description,
				Payment:        payment,
				Difficulty:     p.Difficulty,
				Deadline:       deadline,
				MaxSubmissions: maxSubmissions,
				Status:         status,
			}
			if err := txn.Create(&project).Error; err != nil {
				return fmt.Errorf("error creating project '%v': %w", p.Title, err)
			}
		}

		return nil
	})
}

func main() {
	dbUri := flag.String("db_uri", "", "Database URI")
	fixturePath := flag.String("fixture", "seed.yaml", "Path to the YAML seed fixture")
	flag.Parse()

	db, err := gorm.Open(postgres.Open(postgresDsn(*dbUri)), &gorm.Config{})
	if err != nil {
		log.Fatalf("error opening database connection: %v", err)
	}

	if err := db.AutoMigrate(schema.AllModels()...); err != nil {
		log.Fatalf("error migrating db schema: %v", err)
	}

	fixture, err := loadFixture(*fixturePath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := seed(db, fixture); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}

	log.Printf("seeded %d users, %d companies, %d projects", len(fixture.Users), len(fixture.Companies), len(fixture.Projects))
}

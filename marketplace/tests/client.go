package tests

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"talentmarket/marketplace/services"

	"github.com/go-chi/chi/v5"
)

type httpTestRequest struct {
	api http.Handler

	method   string
	endpoint string
	headers  map[string]string
	json     interface{}
	body     io.Reader
	login    *loginInfo
}

func newHttpTestRequest(api http.Handler, method, endpoint string) *httpTestRequest {
	return &httpTestRequest{
		api:      api,
		method:   method,
		endpoint: endpoint,
		headers:  nil,
		json:     nil,
		body:     nil,
	}
}

func (r *httpTestRequest) Header(key, value string) *httpTestRequest {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

func (r *httpTestRequest) Login(email, password string) *httpTestRequest {
	r.login = &loginInfo{Email: email, Password: password}
	return r
}

func (r *httpTestRequest) Auth(token string) *httpTestRequest {
	return r.Header("Authorization", fmt.Sprintf("Bearer %v", token))
}

func (r *httpTestRequest) Json(data interface{}) *httpTestRequest {
	r.json = data
	return r
}

// response body will be parsed into result, passing nil indicates that no result is returned.
func (r *httpTestRequest) Do(result interface{}) error {
	if r.json != nil {
		body := new(bytes.Buffer)
		err := json.NewEncoder(body).Encode(r.json)
		if err != nil {
			return fmt.Errorf("error encoding json body for endpoint %v: %w", r.endpoint, err)
		}
		r.body = body
	}

	req := httptest.NewRequest(r.method, r.endpoint, r.body)
	if r.headers != nil {
		for k, v := range r.headers {
			req.Header.Add(k, v)
		}
	}

	if r.login != nil {
		req.SetBasicAuth(r.login.Email, r.login.Password)
	}

	w := httptest.NewRecorder()

	r.api.ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		if res.StatusCode == http.StatusUnauthorized {
			return ErrUnauthorized
		}
		if res.StatusCode == http.StatusForbidden {
			return ErrForbidden
		}
		return fmt.Errorf("%v request to endpoint %v returned status %d, content '%v'", r.method, r.endpoint, res.StatusCode, w.Body.String())
	}

	if result != nil {
		err := json.NewDecoder(res.Body).Decode(result)
		if err != nil {
			return fmt.Errorf("error parsing %v response from endpoint %v: %w", r.method, r.endpoint, err)
		}
	}

	return nil
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

type client struct {
	api       chi.Router
	authToken string
	userId    string
}

func (c *client) Get(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "GET", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) Post(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "POST", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) Patch(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "PATCH", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

type loginInfo struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *client) signup(username, email, password string) (loginInfo, error) {
	body := map[string]string{
		"email": email, "username": username, "password": password,
	}

	err := c.Post("/auth/signup").Json(body).Do(nil)
	if err != nil {
		return loginInfo{}, err
	}

	return loginInfo{Email: email, Password: password}, nil
}

func (c *client) login(login loginInfo) error {
	var res map[string]string
	err := c.Get("/auth/login").Login(login.Email, login.Password).Do(&res)
	if err != nil {
		return err
	}

	c.authToken = res["access_token"]
	c.userId = res["user_id"]

	return nil
}

func (c *client) userInfo() (services.UserInfo, error) {
	var res services.UserInfo
	err := c.Get("/auth/user").Do(&res)
	return res, err
}

func (c *client) updateProfile(fields map[string]interface{}) (services.UserInfo, error) {
	var res services.UserInfo
	err := c.Patch("/profile").Json(fields).Do(&res)
	return res, err
}

func (c *client) createCompany(name, industry, size string) (string, error) {
	body := map[string]string{"name": name, "industry": industry, "size": size}

	var res map[string]string
	err := c.Post("/company/profile").Json(body).Do(&res)
	return res["company_id"], err
}

func (c *client) companyProfile() (services.CompanyInfo, error) {
	var res services.CompanyInfo
	err := c.Get("/company/profile").Do(&res)
	return res, err
}

func (c *client) createProject(title, description, payment string) (string, error) {
	body := map[string]interface{}{
		"title": title, "description": description, "payment": payment,
	}

	var res map[string]string
	err := c.Post("/company/projects").Json(body).Do(&res)
	return res["project_id"], err
}

func (c *client) listCompanyProjects() ([]services.ProjectInfo, error) {
	var res []services.ProjectInfo
	err := c.Get("/company/projects").Do(&res)
	return res, err
}

func (c *client) listProjects() ([]services.ProjectInfo, error) {
	var res []services.ProjectInfo
	err := c.Get("/projects").Do(&res)
	return res, err
}

func (c *client) featuredProjects() ([]services.ProjectInfo, error) {
	var res []services.ProjectInfo
	err := c.Get("/projects/featured").Do(&res)
	return res, err
}

func (c *client) getProject(projectId string) (services.ProjectInfo, error) {
	var res services.ProjectInfo
	err := c.Get(fmt.Sprintf("/projects/%v", projectId)).Do(&res)
	return res, err
}

func (c *client) submit(projectId, content string) (string, error) {
	body := map[string]string{"content": content}

	var res map[string]string
	err := c.Post(fmt.Sprintf("/projects/%v/submissions", projectId)).Json(body).Do(&res)
	return res["submission_id"], err
}

func (c *client) mySubmission(projectId string) (services.SubmissionInfo, error) {
	var res services.SubmissionInfo
	err := c.Get(fmt.Sprintf("/projects/%v/my-submission", projectId)).Do(&res)
	return res, err
}

func (c *client) reviewSubmission(submissionId string, approved bool, score *int, feedback string) error {
	body := map[string]interface{}{"approved": approved, "feedback": feedback}
	if score != nil {
		body["score"] = *score
	}

	return c.Post(fmt.Sprintf("/company/submissions/%v/review", submissionId)).Json(body).Do(nil)
}

func (c *client) candidateSubmissions() ([]services.SubmissionInfo, error) {
	var res []services.SubmissionInfo
	err := c.Get("/candidate/submissions").Do(&res)
	return res, err
}

func (c *client) candidateCompleted() ([]services.SubmissionInfo, error) {
	var res []services.SubmissionInfo
	err := c.Get("/candidate/completed").Do(&res)
	return res, err
}

func (c *client) candidateStats() (map[string]interface{}, error) {
	var res map[string]interface{}
	err := c.Get("/candidate/stats").Do(&res)
	return res, err
}

func (c *client) companyStats() (map[string]interface{}, error) {
	var res map[string]interface{}
	err := c.Get("/company/stats").Do(&res)
	return res, err
}

func (c *client) adminStats() (map[string]interface{}, error) {
	var res map[string]interface{}
	err := c.Get("/admin/stats").Do(&res)
	return res, err
}

func (c *client) pendingCompanies() ([]services.CompanyInfo, error) {
	var res []services.CompanyInfo
	err := c.Get("/admin/companies/pending").Do(&res)
	return res, err
}

func (c *client) reviewCompany(companyId string, approved bool) error {
	body := map[string]bool{"approved": approved}
	return c.Post(fmt.Sprintf("/admin/companies/%v/review", companyId)).Json(body).Do(nil)
}

func (c *client) pendingProjects() ([]services.ProjectInfo, error) {
	var res []services.ProjectInfo
	err := c.Get("/admin/projects/pending").Do(&res)
	return res, err
}

func (c *client) reviewProject(projectId string, approved bool) error {
	body := map[string]bool{"approved": approved}
	return c.Post(fmt.Sprintf("/admin/projects/%v/review", projectId)).Json(body).Do(nil)
}

func (c *client) recentPayments() ([]services.PaymentInfo, error) {
	var res []services.PaymentInfo
	err := c.Get("/admin/payments/recent").Do(&res)
	return res, err
}

package tests

import (
	"errors"
	"fmt"
	"testing"
)

func TestSignupAndLogin(t *testing.T) {
	env := setupTestEnv(t)

	for i := 0; i < 5; i++ {
		username := fmt.Sprintf("user%d", i)
		email := fmt.Sprintf("user%d@mail.com", i)
		password := fmt.Sprintf("user%d_password", i)

		client := env.newClient()
		login, err := client.signup(username, email, password)
		if err != nil {
			t.Fatal(err)
		}

		_, err = client.signup(username, email, password)
		if err == nil {
			t.Fatal("duplicate signup should fail")
		}

		err = client.login(loginInfo{Email: "user@mail.com", Password: password})
		if err == nil {
			t.Fatal("login should fail with wrong email")
		}

		err = client.login(loginInfo{Email: email, Password: "password"})
		if err == nil {
			t.Fatal("login should fail with wrong password")
		}

		err = client.login(login)
		if err != nil {
			t.Fatal(err)
		}

		info, err := client.userInfo()
		if err != nil {
			t.Fatal(err)
		}

		if info.Username != username || info.Email != email || info.Id.String() != client.userId || info.Role != "candidate" {
			t.Fatalf("invalid info %v", info)
		}
	}
}

func TestCurrentUserRequiresAuth(t *testing.T) {
	env := setupTestEnv(t)

	client := env.newClient()
	_, err := client.signup("abc", "abc@mail.com", "abc")
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.userInfo()
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatal("expected unauthorized error")
	}
}

func TestUpdateProfile(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("abc")
	if err != nil {
		t.Fatal(err)
	}

	info, err := user.updateProfile(map[string]interface{}{
		"skills":        []string{"go", "sql"},
		"bio":           "backend developer",
		"portfolio_url": "https://example.com/abc",
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(info.Skills) != 2 || info.Skills[0] != "go" || info.Bio != "backend developer" || info.PortfolioUrl != "https://example.com/abc" {
		t.Fatalf("invalid profile after update: %v", info)
	}

	// A partial update must leave the other fields untouched.
	info, err = user.updateProfile(map[string]interface{}{"experience": "5 years"})
	if err != nil {
		t.Fatal(err)
	}

	if info.Experience != "5 years" || info.Bio != "backend developer" || len(info.Skills) != 2 {
		t.Fatalf("partial update clobbered profile: %v", info)
	}

	info, err = user.userInfo()
	if err != nil {
		t.Fatal(err)
	}
	if info.Bio != "backend developer" || info.Experience != "5 years" {
		t.Fatalf("profile not persisted: %v", info)
	}
}

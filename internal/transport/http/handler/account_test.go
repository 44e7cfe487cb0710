package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ErlanBelekov/uptask-api/internal/domain"
	"github.com/ErlanBelekov/uptask-api/internal/email"
	"github.com/ErlanBelekov/uptask-api/internal/usecase"
)

// userData returns data.user from a success envelope.
func userData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	env := decode(t, w)
	if !env.OK {
		t.Fatalf("body = %s", w.Body.String())
	}
	data, _ := env.Data.(map[string]any)
	user, ok := data["user"].(map[string]any)
	if !ok {
		t.Fatalf("data has no user object: %s", w.Body.String())
	}
	return user
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := decode(t, w)
	if env.OK || env.Error == nil {
		t.Fatalf("expected error envelope, got %s", w.Body.String())
	}
	return env.Error.Code
}

// ---- RequestCode ----

func TestRequestCode_RespondsThenMails(t *testing.T) {
	w := httptest.NewRecorder()
	mail := &recordingMailer{w: w}
	uc := &fakeAuthUsecase{
		requestCode: func(_ context.Context, addr string) (*email.Message, error) {
			return &email.Message{Kind: email.KindVerifyEmail, To: addr}, nil
		},
	}

	serveJSON(newAuthEngine(uc, mail), w, http.MethodPost, "/auth/request-code", `{"email":"a@x.io"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !decode(t, w).OK {
		t.Errorf("body = %s", w.Body.String())
	}
	if len(mail.sent) != 1 || mail.sent[0].To != "a@x.io" {
		t.Fatalf("sent = %+v", mail.sent)
	}
	if !mail.afterResponse[0] {
		t.Error("mail dispatched before the response was written")
	}
}

func TestRequestCode_Errors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unknown email", domain.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
		{"already confirmed", domain.ErrUserAlreadyConfirmed, http.StatusConflict, "USER_ALREADY_CONFIRMED"},
	}
	for _, tc := range cases {
		mail := &recordingMailer{}
		uc := &fakeAuthUsecase{
			requestCode: func(context.Context, string) (*email.Message, error) { return nil, tc.err },
		}

		w := postJSON(newAuthEngine(uc, mail), "/auth/request-code", `{"email":"a@x.io"}`)

		if w.Code != tc.status {
			t.Errorf("%s: status = %d, want %d", tc.name, w.Code, tc.status)
		}
		if code := errorCode(t, w); code != tc.code {
			t.Errorf("%s: code = %s", tc.name, code)
		}
		if len(mail.sent) != 0 {
			t.Errorf("%s: mail sent on failure", tc.name)
		}
	}
}

// ---- Confirm ----

func TestConfirm(t *testing.T) {
	var got string
	uc := &fakeAuthUsecase{
		confirm: func(_ context.Context, code string) error {
			got = code
			if code == "999999" {
				return domain.ErrTokenInvalid
			}
			return nil
		},
	}
	r := newAuthEngine(uc, &recordingMailer{})

	w := postJSON(r, "/auth/confirm", `{"token":"012345"}`)
	if w.Code != http.StatusOK || got != "012345" {
		t.Fatalf("status = %d, code = %q", w.Code, got)
	}

	w = postJSON(r, "/auth/confirm", `{"token":"999999"}`)
	if w.Code != http.StatusUnauthorized || errorCode(t, w) != "INVALID_TOKEN" {
		t.Errorf("expired code: status = %d body = %s", w.Code, w.Body.String())
	}

	for _, body := range []string{`{"token":"12345"}`, `{"token":"12a456"}`, `{}`} {
		w = postJSON(r, "/auth/confirm", body)
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: status = %d, want 422", body, w.Code)
		}
	}
}

// ---- ForgotPassword / ValidateToken ----

func TestForgotPassword_RespondsThenMails(t *testing.T) {
	w := httptest.NewRecorder()
	mail := &recordingMailer{w: w}
	uc := &fakeAuthUsecase{
		forgot: func(_ context.Context, addr string) (*email.Message, error) {
			return &email.Message{Kind: email.KindResetPassword, To: addr}, nil
		},
	}

	serveJSON(newAuthEngine(uc, mail), w, http.MethodPost, "/auth/forgot-password", `{"email":"a@x.io"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(mail.sent) != 1 || mail.sent[0].Kind != email.KindResetPassword {
		t.Fatalf("sent = %+v", mail.sent)
	}
	if !mail.afterResponse[0] {
		t.Error("mail dispatched before the response was written")
	}
}

func TestForgotPassword_Unconfirmed(t *testing.T) {
	mail := &recordingMailer{}
	uc := &fakeAuthUsecase{
		forgot: func(context.Context, string) (*email.Message, error) { return nil, domain.ErrUserNotConfirmed },
	}

	w := postJSON(newAuthEngine(uc, mail), "/auth/forgot-password", `{"email":"a@x.io"}`)

	if w.Code != http.StatusForbidden || errorCode(t, w) != "USER_NOT_CONFIRMED" {
		t.Errorf("status = %d body = %s", w.Code, w.Body.String())
	}
	if len(mail.sent) != 0 {
		t.Errorf("sent = %+v", mail.sent)
	}
}

func TestValidateToken(t *testing.T) {
	uc := &fakeAuthUsecase{
		validate: func(_ context.Context, code string) error {
			if code != "123456" {
				return domain.ErrTokenInvalid
			}
			return nil
		},
	}
	r := newAuthEngine(uc, &recordingMailer{})

	if w := postJSON(r, "/auth/validate-token", `{"token":"123456"}`); w.Code != http.StatusOK {
		t.Errorf("valid: status = %d", w.Code)
	}
	w := postJSON(r, "/auth/validate-token", `{"token":"654321"}`)
	if w.Code != http.StatusUnauthorized || errorCode(t, w) != "INVALID_TOKEN" {
		t.Errorf("invalid: status = %d body = %s", w.Code, w.Body.String())
	}
}

// ---- User ----

func TestUser_WrapsUser(t *testing.T) {
	uc := &fakeAuthUsecase{
		currentUser: func(_ context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Name: "alice", Email: "a@x.com", PasswordHash: "secret"}, nil
		},
	}

	w := serveJSON(newAuthEngine(uc, &recordingMailer{}), httptest.NewRecorder(), http.MethodGet, "/auth/user", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	user := userData(t, w)
	if user["id"] != testUserID || user["name"] != "alice" || user["email"] != "a@x.com" {
		t.Errorf("user = %v", user)
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Error("password hash in response")
	}
}

func TestUser_MissingAccountIsUnauthorized(t *testing.T) {
	uc := &fakeAuthUsecase{
		currentUser: func(context.Context, string) (*domain.User, error) { return nil, domain.ErrUserNotFound },
	}

	w := serveJSON(newAuthEngine(uc, &recordingMailer{}), httptest.NewRecorder(), http.MethodGet, "/auth/user", "")

	if w.Code != http.StatusUnauthorized || errorCode(t, w) != "UNAUTHORIZED" {
		t.Errorf("status = %d body = %s", w.Code, w.Body.String())
	}
}

// ---- UpdateProfile / ConfirmEmailChange ----

func TestUpdateProfile_RespondsThenMails(t *testing.T) {
	w := httptest.NewRecorder()
	mail := &recordingMailer{w: w}
	uc := &fakeAuthUsecase{
		updateProfile: func(_ context.Context, id string, in usecase.UpdateProfileInput) (*domain.User, *email.Message, error) {
			if id != testUserID || in.Name != "Alice" || in.Email != "new@x.com" {
				t.Errorf("id = %q input = %+v", id, in)
			}
			return &domain.User{ID: id, Name: in.Name, Email: "a@x.com"},
				&email.Message{Kind: email.KindChangeEmail, To: in.Email}, nil
		},
	}

	serveJSON(newAuthEngine(uc, mail), w, http.MethodPut, "/auth/profile", `{"name":"Alice","email":"new@x.com"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if user := userData(t, w); user["name"] != "Alice" || user["email"] != "a@x.com" {
		t.Errorf("user = %v", user)
	}
	if len(mail.sent) != 1 || mail.sent[0].To != "new@x.com" {
		t.Fatalf("sent = %+v", mail.sent)
	}
	if !mail.afterResponse[0] {
		t.Error("mail dispatched before the response was written")
	}
}

func TestUpdateProfile_SameEmailSendsNothing(t *testing.T) {
	mail := &recordingMailer{}
	uc := &fakeAuthUsecase{
		updateProfile: func(_ context.Context, id string, in usecase.UpdateProfileInput) (*domain.User, *email.Message, error) {
			return &domain.User{ID: id, Name: in.Name, Email: in.Email}, nil, nil
		},
	}

	w := serveJSON(newAuthEngine(uc, mail), httptest.NewRecorder(), http.MethodPut, "/auth/profile", `{"name":"alice","email":"a@x.com"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if len(mail.sent) != 0 {
		t.Errorf("sent = %+v", mail.sent)
	}
}

func TestUpdateProfile_EmailTaken(t *testing.T) {
	uc := &fakeAuthUsecase{
		updateProfile: func(context.Context, string, usecase.UpdateProfileInput) (*domain.User, *email.Message, error) {
			return nil, nil, domain.ErrUserAlreadyExists
		},
	}

	w := serveJSON(newAuthEngine(uc, &recordingMailer{}), httptest.NewRecorder(), http.MethodPut, "/auth/profile", `{"name":"alice","email":"b@x.com"}`)

	if w.Code != http.StatusConflict || errorCode(t, w) != "USER_ALREADY_EXISTS" {
		t.Errorf("status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestConfirmEmailChange_WrapsUser(t *testing.T) {
	uc := &fakeAuthUsecase{
		confirmChange: func(_ context.Context, id, code string) (*domain.User, error) {
			if id != testUserID || code != "654321" {
				t.Errorf("id = %q code = %q", id, code)
			}
			return &domain.User{ID: id, Name: "alice", Email: "new@x.com"}, nil
		},
	}

	w := postJSON(newAuthEngine(uc, &recordingMailer{}), "/auth/update-email/654321", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if user := userData(t, w); user["email"] != "new@x.com" {
		t.Errorf("user = %v", user)
	}
}

func TestConfirmEmailChange_Errors(t *testing.T) {
	uc := &fakeAuthUsecase{
		confirmChange: func(context.Context, string, string) (*domain.User, error) { return nil, domain.ErrTokenInvalid },
	}
	r := newAuthEngine(uc, &recordingMailer{})

	w := postJSON(r, "/auth/update-email/654321", "")
	if w.Code != http.StatusUnauthorized || errorCode(t, w) != "INVALID_TOKEN" {
		t.Errorf("status = %d body = %s", w.Code, w.Body.String())
	}
	if w := postJSON(r, "/auth/update-email/65432x", ""); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("malformed code: status = %d, want 422", w.Code)
	}
}

// ---- ChangePassword ----

func TestChangePassword(t *testing.T) {
	uc := &fakeAuthUsecase{
		changePass: func(_ context.Context, id, current, next string) error {
			if id != testUserID || next != "password2" {
				t.Errorf("id = %q next = %q", id, next)
			}
			if current != "password1" {
				return domain.ErrInvalidCurrentPassword
			}
			return nil
		},
	}
	r := newAuthEngine(uc, &recordingMailer{})
	put := func(body string) *httptest.ResponseRecorder {
		return serveJSON(r, httptest.NewRecorder(), http.MethodPut, "/auth/update-password", body)
	}

	if w := put(`{"currentPassword":"password1","password":"password2","confirmPassword":"password2"}`); w.Code != http.StatusOK {
		t.Errorf("success: status = %d body = %s", w.Code, w.Body.String())
	}

	w := put(`{"currentPassword":"wrong","password":"password2","confirmPassword":"password2"}`)
	if w.Code != http.StatusUnauthorized || errorCode(t, w) != "INVALID_CURRENT_PASSWORD" {
		t.Errorf("wrong current: status = %d body = %s", w.Code, w.Body.String())
	}

	if w := put(`{"currentPassword":"password1","password":"password2","confirmPassword":"password3"}`); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("mismatch: status = %d, want 422", w.Code)
	}
}

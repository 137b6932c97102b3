package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/dishdash-server/internal/apperror"
	"github.com/sakif/dishdash-server/internal/auth"
	"github.com/sakif/dishdash-server/internal/model"
	"github.com/sakif/dishdash-server/internal/repository"
)

// mockDocRepo stores schemaless documents verbatim, like the gallery
// collection.
type mockDocRepo struct {
	docs   []model.Document
	nextID int
}

func (m *mockDocRepo) Insert(_ context.Context, doc model.Document) (string, error) {
	m.nextID++
	m.docs = append(m.docs, doc)
	return fmt.Sprintf("mock-%d", m.nextID), nil
}

func (m *mockDocRepo) List(_ context.Context) ([]model.Document, error) {
	return append([]model.Document{}, m.docs...), nil
}

// mockUserRepo adds the email lookups on top.
type mockUserRepo struct {
	mockDocRepo
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (model.Document, error) {
	for _, doc := range m.docs {
		if doc["email"] == email {
			return doc, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockUserRepo) UpsertByEmail(_ context.Context, email string, doc model.Document) error {
	for i, existing := range m.docs {
		if existing["email"] == email {
			for k, v := range doc {
				m.docs[i][k] = v
			}
			return nil
		}
	}
	m.docs = append(m.docs, doc)
	return nil
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

func newTestAccountService(t *testing.T) (*AccountService, *mockUserRepo, *mockDocRepo) {
	t.Helper()
	users := &mockUserRepo{}
	gallery := &mockDocRepo{}
	svc := NewAccountService(users, gallery, auth.NewPasswordServiceForTest(bcrypt.MinCost), testLogger())
	return svc, users, gallery
}

func TestCreateUser_StoresDocumentVerbatim(t *testing.T) {
	svc, users, _ := newTestAccountService(t)

	doc := model.Document{"email": "a@example.com", "name": "Amina", "favoriteDish": "Kacchi"}
	id, err := svc.CreateUser(context.Background(), doc)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if id == "" {
		t.Error("CreateUser() returned empty id")
	}

	stored := users.docs[0]
	if stored["favoriteDish"] != "Kacchi" {
		t.Error("unknown fields must be stored as sent")
	}
}

func TestCreateUser_DuplicatesAreAllowed(t *testing.T) {
	svc, users, _ := newTestAccountService(t)

	doc := model.Document{"email": "a@example.com"}
	for i := 0; i < 2; i++ {
		if _, err := svc.CreateUser(context.Background(), doc); err != nil {
			t.Fatalf("CreateUser() error = %v", err)
		}
	}
	if len(users.docs) != 2 {
		t.Errorf("stored %d documents, want 2; this layer never deduplicates", len(users.docs))
	}
}

func TestGallery_ListReturnsWhatWasInserted(t *testing.T) {
	svc, _, gallery := newTestAccountService(t)

	if _, err := svc.CreateGalleryItem(context.Background(), model.Document{"url": "https://img/1.jpg"}); err != nil {
		t.Fatalf("CreateGalleryItem() error = %v", err)
	}

	docs, err := svc.ListGallery(context.Background())
	if err != nil {
		t.Fatalf("ListGallery() error = %v", err)
	}
	if len(docs) != 1 || docs[0]["url"] != "https://img/1.jpg" {
		t.Errorf("ListGallery() = %v", docs)
	}
	if len(gallery.docs) != 1 {
		t.Errorf("gallery holds %d docs, want 1", len(gallery.docs))
	}
}

func TestRegister_HashesThePassword(t *testing.T) {
	svc, users, _ := newTestAccountService(t)

	if err := svc.Register(context.Background(), "Amina", "a@example.com", "hunter2-secret"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	stored, ok := users.docs[0]["password"].(string)
	if !ok || stored == "" {
		t.Fatal("registered user should have a stored password hash")
	}
	if stored == "hunter2-secret" {
		t.Fatal("password must not be stored in plain text")
	}

	if err := svc.Login(context.Background(), "a@example.com", "hunter2-secret"); err != nil {
		t.Errorf("Login() after Register() error = %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, _ := newTestAccountService(t)

	if err := svc.Register(context.Background(), "Amina", "a@example.com", "hunter2-secret"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	err := svc.Login(context.Background(), "a@example.com", "wrong")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Login() error = %v, want unauthorized", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _, _ := newTestAccountService(t)

	err := svc.Login(context.Background(), "ghost@example.com", "whatever")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Login() error = %v, want unauthorized (never not-found)", err)
	}
}

func TestLogin_PasswordlessAccount(t *testing.T) {
	svc, _, _ := newTestAccountService(t)

	// A verbatim signup or an OAuth account has no password hash.
	if _, err := svc.CreateUser(context.Background(), model.Document{"email": "a@example.com"}); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	err := svc.Login(context.Background(), "a@example.com", "anything")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Login() error = %v, want unauthorized", err)
	}
}

func TestOAuthLogin_UpsertsSingleAccount(t *testing.T) {
	svc, users, _ := newTestAccountService(t)

	profile := &auth.GoogleUser{ID: "g-123", Email: "a@example.com", Name: "Amina", Picture: "https://img/p.jpg"}
	for i := 0; i < 2; i++ {
		if err := svc.OAuthLogin(context.Background(), profile); err != nil {
			t.Fatalf("OAuthLogin() error = %v", err)
		}
	}

	if len(users.docs) != 1 {
		t.Errorf("stored %d user documents, want 1; repeat logins reuse the account", len(users.docs))
	}
	if users.docs[0]["googleId"] != "g-123" {
		t.Errorf("stored googleId = %v, want g-123", users.docs[0]["googleId"])
	}
}

package crud

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"pressdesk.org/internal/cms"
	"pressdesk.org/internal/gateway"
)

var testLanguages = []string{"en", "es"}

func userDesc(t *testing.T) cms.Descriptor {
	t.Helper()
	desc, ok := cms.Lookup("user")
	if !ok {
		t.Fatalf("user descriptor missing")
	}
	return desc
}

func TestNewFormTranslationOrder(t *testing.T) {
	form := NewForm(categoryDesc(t), nil, nil, "", testLanguages)
	if len(form.Translations) != 2 {
		t.Fatalf("expected one slot per language, got %d", len(form.Translations))
	}
	if form.Translations[0].Language != "en" || form.Translations[1].Language != "es" {
		t.Fatalf("slot order must follow configuration: %+v", form.Translations)
	}
}

func TestValidateMissingTranslationShortCircuits(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	notes := &recorder{}
	form := NewForm(categoryDesc(t), gateway.New(srv.URL, srv.Client()), notes, "tok", testLanguages)
	form.SetTranslation(0, "Art", "")
	// es slot left empty

	err := form.Submit(context.Background())
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(vErr.Missing) != 1 || !strings.Contains(vErr.Missing[0], "es") {
		t.Fatalf("expected missing es title, got %v", vErr.Missing)
	}
	if calls.Load() != 0 {
		t.Fatalf("validation failure must not issue a network call")
	}
	if len(notes.warnings) != 1 {
		t.Fatalf("expected warning toast, got %+v", notes)
	}
}

func TestValidatePasswordPair(t *testing.T) {
	form := NewForm(userDesc(t), nil, nil, "", testLanguages)
	form.SetField("email", "op@example.com")

	err := form.Validate()
	var vErr *ValidationError
	if !errors.As(err, &vErr) || len(vErr.Missing) == 0 {
		t.Fatalf("expected missing password, got %v", err)
	}

	form.Password = "secret"
	form.PasswordConfirm = "different"
	err = form.Validate()
	if !errors.As(err, &vErr) || !vErr.Mismatch {
		t.Fatalf("expected mismatch, got %v", err)
	}

	form.PasswordConfirm = "secret"
	if err := form.Validate(); err != nil {
		t.Fatalf("expected valid form, got %v", err)
	}
}

func TestSubmitAddPostsTranslationsInOrder(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/categories" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"category":{"id":"9"}}`))
	}))
	defer srv.Close()

	notes := &recorder{}
	form := NewForm(categoryDesc(t), gateway.New(srv.URL, srv.Client()), notes, "tok", testLanguages)
	form.SetTranslation(0, "Art", "")
	form.SetTranslation(1, "Arte", "")

	if err := form.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	entries, ok := got["translations"].([]any)
	if !ok || len(entries) != 2 {
		t.Fatalf("unexpected translations payload: %v", got["translations"])
	}
	first := entries[0].(map[string]any)
	second := entries[1].(map[string]any)
	if first["language"] != "en" || first["title"] != "Art" {
		t.Fatalf("en slot wrong: %v", first)
	}
	if second["language"] != "es" || second["title"] != "Arte" {
		t.Fatalf("es slot wrong: %v", second)
	}
	if len(notes.successes) != 1 {
		t.Fatalf("expected success toast")
	}
}

func TestTranslationRoundTrip(t *testing.T) {
	// What an add submits, a subsequent edit load must reproduce with no
	// reordering and no lost language entry.
	var stored map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			_ = json.NewDecoder(r.Body).Decode(&stored)
			_, _ = w.Write([]byte(`{"category":{"id":"3"}}`))
		case http.MethodGet:
			stored["id"] = "3"
			_ = json.NewEncoder(w).Encode(map[string]any{"category": stored})
		}
	}))
	defer srv.Close()

	api := gateway.New(srv.URL, srv.Client())
	add := NewForm(categoryDesc(t), api, nil, "tok", testLanguages)
	add.SetTranslation(0, "Art", "")
	add.SetTranslation(1, "Arte", "")
	if err := add.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	edit := NewForm(categoryDesc(t), api, nil, "tok", testLanguages)
	if err := edit.Load(context.Background(), "3"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if edit.IsNew() {
		t.Fatalf("form should be bound after Load")
	}
	if edit.Translations[0].Language != "en" || edit.Translations[0].Title != "Art" {
		t.Fatalf("en entry lost: %+v", edit.Translations)
	}
	if edit.Translations[1].Language != "es" || edit.Translations[1].Title != "Arte" {
		t.Fatalf("es entry lost: %+v", edit.Translations)
	}
}

func TestSubmitFailurePreservesState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"msg":"slug taken"}]}`))
	}))
	defer srv.Close()

	notes := &recorder{}
	form := NewForm(categoryDesc(t), gateway.New(srv.URL, srv.Client()), notes, "tok", testLanguages)
	form.SetTranslation(0, "Art", "")
	form.SetTranslation(1, "Arte", "")

	if err := form.Submit(context.Background()); err == nil {
		t.Fatalf("expected submit failure")
	}
	if form.Translations[0].Title != "Art" || form.Translations[1].Title != "Arte" {
		t.Fatalf("form state lost on failure: %+v", form.Translations)
	}
	if len(notes.errors) != 1 || notes.errors[0] != "slug taken" {
		t.Fatalf("expected upstream message toast, got %+v", notes)
	}
}

func TestLoadResolvesRelatedMediaBestEffort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/users/7":
			_, _ = w.Write([]byte(`{"user":{"id":"7","email":"op@example.com","roles":["hr"],"avatar_media_id":"m1"}}`))
		case "/api/media/m1":
			_, _ = w.Write([]byte(`{"media":{"id":"m1","file_path":"/uploads/avatar.png"}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	form := NewForm(userDesc(t), gateway.New(srv.URL, srv.Client()), nil, "tok", testLanguages)
	if err := form.Load(context.Background(), "7"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if form.Fields["email"] != "op@example.com" {
		t.Fatalf("email not bound: %v", form.Fields)
	}
	if _, ok := form.Associations["roles"]["hr"]; !ok {
		t.Fatalf("roles not bound: %v", form.Associations)
	}
	if form.RelatedURL != "/uploads/avatar.png" {
		t.Fatalf("related media not resolved: %q", form.RelatedURL)
	}
}

func TestLoadRelatedFailureDoesNotBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/users/7":
			_, _ = w.Write([]byte(`{"user":{"id":"7","email":"op@example.com","avatar_media_id":"m1"}}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	form := NewForm(userDesc(t), gateway.New(srv.URL, srv.Client()), nil, "tok", testLanguages)
	if err := form.Load(context.Background(), "7"); err != nil {
		t.Fatalf("related failure must not fail Load: %v", err)
	}
	if form.RelatedURL != "" {
		t.Fatalf("unexpected related URL: %q", form.RelatedURL)
	}
}

func TestToggle(t *testing.T) {
	form := NewForm(userDesc(t), nil, nil, "", testLanguages)
	form.Toggle("roles", "admin")
	if _, ok := form.Associations["roles"]["admin"]; !ok {
		t.Fatalf("toggle on failed")
	}
	form.Toggle("roles", "admin")
	if _, ok := form.Associations["roles"]["admin"]; ok {
		t.Fatalf("toggle off failed")
	}
}

func TestSubmitUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart body: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file part missing: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		if header.Filename != "cover.png" {
			t.Errorf("unexpected filename %q", header.Filename)
		}
		if r.FormValue("title") != "Cover" {
			t.Errorf("title field missing: %q", r.FormValue("title"))
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"media":{"id":"m2"}}`))
	}))
	defer srv.Close()

	desc, _ := cms.Lookup("media")
	notes := &recorder{}
	form := NewForm(desc, gateway.New(srv.URL, srv.Client()), notes, "tok", testLanguages)
	form.SetField("title", "Cover")

	if err := form.SubmitUpload(context.Background(), "cover.png", strings.NewReader("png-bytes")); err != nil {
		t.Fatalf("SubmitUpload: %v", err)
	}
	if len(notes.successes) != 1 {
		t.Fatalf("expected success toast")
	}
}

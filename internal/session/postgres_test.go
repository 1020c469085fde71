package session

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGStoreGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select token, language from console_sessions").
		WithArgs("sid-1").
		WillReturnRows(sqlmock.NewRows([]string{"token", "language"}).AddRow("tok-abc", "es"))

	store := NewPGStore(db)
	rec, err := store.Get(context.Background(), "sid-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Token != "tok-abc" || rec.Language != "es" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreGetUnknownSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select token, language from console_sessions").
		WithArgs("sid-missing").
		WillReturnRows(sqlmock.NewRows([]string{"token", "language"}))

	store := NewPGStore(db)
	rec, err := store.Get(context.Background(), "sid-missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Token != "" || rec.Language != "" {
		t.Fatalf("expected zero record, got %+v", rec)
	}
}

func TestPGStoreMutations(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("insert into console_sessions").
		WithArgs("sid-1", "tok-abc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("update console_sessions set token = ''").
		WithArgs("sid-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into console_sessions").
		WithArgs("sid-1", "es").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPGStore(db)
	ctx := context.Background()
	if err := store.SetToken(ctx, "sid-1", "tok-abc"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if err := store.ClearToken(ctx, "sid-1"); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	if err := store.SetLanguage(ctx, "sid-1", "es"); err != nil {
		t.Fatalf("SetLanguage: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("create table if not exists console_sessions").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := NewPGStore(db).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

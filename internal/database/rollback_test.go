package database

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/TobiSchelling/CollectionsReport/internal/activity"
)

func expectStagingCleared(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	for _, table := range []string{"account_summaries", "contact_events", "accounts"} {
		mock.ExpectExec("DELETE FROM " + table).WillReturnResult(sqlmock.NewResult(0, 3))
	}
}

func TestReloadStagingRollsBackOnInsertError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer conn.Close()
	db := &DB{conn: conn}

	expectStagingCleared(mock)
	accounts := mock.ExpectPrepare("INSERT INTO accounts")
	accounts.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	prep := mock.ExpectPrepare("INSERT INTO contact_events")
	prep.ExpectExec().WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = db.ReloadStaging([]Account{{AccountID: "A1"}}, []activity.ContactEvent{
		{Seq: 1, AccountID: "A1", EventDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), Channel: "PHONE"},
	})
	if err == nil {
		t.Fatal("expected insert error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReloadStagingRollsBackOnDeleteError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer conn.Close()
	db := &DB{conn: conn}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM account_summaries").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM contact_events").WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	if err := db.ReloadStaging([]Account{{AccountID: "A1"}}, nil); err == nil {
		t.Fatal("expected delete error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetStatsPropagatesQueryError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer conn.Close()
	db := &DB{conn: conn}

	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(4))
	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("no such table"))

	if _, err := db.GetStats(); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/toyloft/backend-toyloft/internal/db"
)

type stubStore struct {
	inserted []db.InsertToyDeletionLogParams
	rows     []db.ToyDeletionLog
	lastList db.ListToyDeletionLogsParams
}

func (s *stubStore) InsertToyDeletionLog(_ context.Context, arg db.InsertToyDeletionLogParams) (db.ToyDeletionLog, error) {
	s.inserted = append(s.inserted, arg)
	return db.ToyDeletionLog{
		ID:           pgtype.UUID{Bytes: uuid.New(), Valid: true},
		ToyID:        arg.ToyID,
		ToyName:      arg.ToyName,
		AdminID:      arg.AdminID,
		Status:       arg.Status,
		ErrorMessage: arg.ErrorMessage,
	}, nil
}

func (s *stubStore) ListToyDeletionLogs(_ context.Context, arg db.ListToyDeletionLogsParams) ([]db.ToyDeletionLog, error) {
	s.lastList = arg
	return s.rows, nil
}

func TestRecordSuccessWritesSuccessRow(t *testing.T) {
	store := &stubStore{}
	rec := Recorder{Store: store}
	admin := uuid.New()
	toyID := pgtype.UUID{Bytes: uuid.New(), Valid: true}

	if err := rec.RecordSuccess(context.Background(), toyID, "Wooden Train", admin.String()); err != nil {
		t.Fatalf("record success: %v", err)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected one row, got %d", len(store.inserted))
	}
	row := store.inserted[0]
	if row.Status != StatusSuccess {
		t.Fatalf("status: got %q", row.Status)
	}
	if row.AdminID.Bytes != admin {
		t.Fatal("admin id not preserved")
	}
	if row.ErrorMessage.Valid {
		t.Fatal("success row should not carry an error message")
	}
}

func TestRecordFailureFallsBackToZeroAdmin(t *testing.T) {
	store := &stubStore{}
	rec := Recorder{Store: store}
	toyID := pgtype.UUID{Bytes: uuid.New(), Valid: true}

	if err := rec.RecordFailure(context.Background(), toyID, "Wooden Train", "not-a-uuid", "toy has active rentals"); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	row := store.inserted[0]
	if row.Status != StatusFailed {
		t.Fatalf("status: got %q", row.Status)
	}
	if row.AdminID != unattributedAdminID {
		t.Fatalf("expected zero-value admin id, got %v", row.AdminID)
	}
	if !row.ErrorMessage.Valid || row.ErrorMessage.String != "toy has active rentals" {
		t.Fatalf("error message not preserved: %+v", row.ErrorMessage)
	}
}

func TestHandlerListClampsPagination(t *testing.T) {
	store := &stubStore{rows: []db.ToyDeletionLog{{ToyName: "Wooden Train", Status: StatusSuccess}}}
	h := Handler{Recorder: Recorder{Store: store}}

	req := httptest.NewRequest(http.MethodGet, "/admin/deletion-logs?limit=999&offset=-5", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if store.lastList.Limit != 50 || store.lastList.Offset != 0 {
		t.Fatalf("unexpected pagination params: %d/%d", store.lastList.Limit, store.lastList.Offset)
	}
}

package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertToyDeletionLog = `
INSERT INTO toy_deletion_logs (toy_id, toy_name, admin_id, status, error_message)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, toy_id, toy_name, admin_id, status, error_message, deleted_at
`

type InsertToyDeletionLogParams struct {
	ToyID        pgtype.UUID
	ToyName      string
	AdminID      pgtype.UUID
	Status       string
	ErrorMessage pgtype.Text
}

func (q *Queries) InsertToyDeletionLog(ctx context.Context, arg InsertToyDeletionLogParams) (ToyDeletionLog, error) {
	row := q.db.QueryRow(ctx, insertToyDeletionLog,
		arg.ToyID, arg.ToyName, arg.AdminID, arg.Status, arg.ErrorMessage)
	var l ToyDeletionLog
	err := row.Scan(&l.ID, &l.ToyID, &l.ToyName, &l.AdminID, &l.Status, &l.ErrorMessage, &l.DeletedAt)
	return l, err
}

const listToyDeletionLogs = `
SELECT id, toy_id, toy_name, admin_id, status, error_message, deleted_at
FROM toy_deletion_logs
ORDER BY deleted_at DESC
LIMIT $1 OFFSET $2`

type ListToyDeletionLogsParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListToyDeletionLogs(ctx context.Context, arg ListToyDeletionLogsParams) ([]ToyDeletionLog, error) {
	rows, err := q.db.Query(ctx, listToyDeletionLogs, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ToyDeletionLog
	for rows.Next() {
		var l ToyDeletionLog
		if err := rows.Scan(&l.ID, &l.ToyID, &l.ToyName, &l.AdminID, &l.Status, &l.ErrorMessage, &l.DeletedAt); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

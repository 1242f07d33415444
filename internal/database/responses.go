package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ResponseKeys returns the invite id of every stored response in row order.
func (db *DB) ResponseKeys(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT invite_id FROM responses ORDER BY row_num`)
	if err != nil {
		return nil, fmt.Errorf("failed to get response keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan response key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read response keys: %w", err)
	}
	return keys, nil
}

// AppendResponse inserts a new response row. A second row for the same
// invite id is rejected by the primary key.
func (db *DB) AppendResponse(ctx context.Context, row []string) error {
	resp, err := responseFromRow(row)
	if err != nil {
		return err
	}
	attendance, err := resp.attendanceJSON()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, db.rebind(
		`INSERT INTO responses (invite_id, submitted_at, exact_name, attendance, party_size, guest_names, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		resp.InviteID, resp.SubmittedAt, resp.ExactName, attendance, resp.PartySize, resp.GuestNames, resp.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to create response: %w", err)
	}
	return nil
}

// UpdateResponse overwrites the response at index, counted in row order.
func (db *DB) UpdateResponse(ctx context.Context, index int, row []string) error {
	resp, err := responseFromRow(row)
	if err != nil {
		return err
	}
	attendance, err := resp.attendanceJSON()
	if err != nil {
		return err
	}

	var rowNum int64
	err = db.QueryRowContext(ctx, db.rebind(
		`SELECT row_num FROM responses ORDER BY row_num LIMIT 1 OFFSET ?`), index,
	).Scan(&rowNum)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("no response at row %d", index)
	}
	if err != nil {
		return fmt.Errorf("failed to locate response row: %w", err)
	}

	_, err = db.ExecContext(ctx, db.rebind(
		`UPDATE responses SET invite_id = ?, submitted_at = ?, exact_name = ?, attendance = ?,
		   party_size = ?, guest_names = ?, notes = ?
		 WHERE row_num = ?`),
		resp.InviteID, resp.SubmittedAt, resp.ExactName, attendance, resp.PartySize, resp.GuestNames, resp.Notes, rowNum,
	)
	if err != nil {
		return fmt.Errorf("failed to update response: %w", err)
	}
	return nil
}

// UpsertResponse creates or replaces the response for key in one statement.
// A replaced response keeps its row number.
func (db *DB) UpsertResponse(ctx context.Context, key string, row []string) error {
	resp, err := responseFromRow(row)
	if err != nil {
		return err
	}
	if resp.InviteID != key {
		return fmt.Errorf("response row is for %q, not %q", resp.InviteID, key)
	}
	attendance, err := resp.attendanceJSON()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, db.rebind(
		`INSERT INTO responses (invite_id, submitted_at, exact_name, attendance, party_size, guest_names, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (invite_id) DO UPDATE SET
		   submitted_at = excluded.submitted_at,
		   exact_name = excluded.exact_name,
		   attendance = excluded.attendance,
		   party_size = excluded.party_size,
		   guest_names = excluded.guest_names,
		   notes = excluded.notes`),
		resp.InviteID, resp.SubmittedAt, resp.ExactName, attendance, resp.PartySize, resp.GuestNames, resp.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to save response: %w", err)
	}
	return nil
}

// ResponseRows returns every stored response as a rendered row.
func (db *DB) ResponseRows(ctx context.Context) ([][]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT submitted_at, invite_id, exact_name, attendance, party_size, guest_names, notes
		 FROM responses ORDER BY row_num`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get responses: %w", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var resp Response
		var attendance string
		if err := rows.Scan(&resp.SubmittedAt, &resp.InviteID, &resp.ExactName, &attendance,
			&resp.PartySize, &resp.GuestNames, &resp.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		if resp.Attendance, err = decodeAttendance(attendance); err != nil {
			return nil, err
		}
		out = append(out, resp.row())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read responses: %w", err)
	}
	return out, nil
}

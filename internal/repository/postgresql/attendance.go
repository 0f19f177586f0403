package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

const recordColumns = `
	a.id, a.user_id, a.date,
	a.check_in_time, a.check_in_latitude, a.check_in_longitude, a.check_in_accuracy, a.check_in_address,
	a.check_out_time, a.check_out_latitude, a.check_out_longitude, a.check_out_accuracy, a.check_out_address,
	a.work_hours, a.overtime_hours, a.late_minutes, a.status,
	a.created_at, a.updated_at,
	u.full_name, u.department`

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.RecordRepository {
	return &attendanceRepository{db: db}
}

// FindByUserAndDate implements attendance.RecordRepository.
func (r *attendanceRepository) FindByUserAndDate(ctx context.Context, userID string, date time.Time) (*attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE a.user_id = $1
		  AND a.date = $2
		LIMIT 1
	`

	record, err := scanRecord(q.QueryRow(ctx, query, userID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance by user and date: %w", err)
	}

	return &record, nil
}

// Create implements attendance.RecordRepository.
func (r *attendanceRepository) Create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_records (
			user_id, date,
			check_in_time, check_in_latitude, check_in_longitude, check_in_accuracy, check_in_address,
			check_out_time, check_out_latitude, check_out_longitude, check_out_accuracy, check_out_address,
			work_hours, overtime_hours, late_minutes, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		record.UserID,
		record.Date,
		record.CheckInTime,
		record.CheckInLatitude,
		record.CheckInLongitude,
		record.CheckInAccuracy,
		record.CheckInAddress,
		record.CheckOutTime,
		record.CheckOutLatitude,
		record.CheckOutLongitude,
		record.CheckOutAccuracy,
		record.CheckOutAddress,
		record.WorkHours,
		record.OvertimeHours,
		record.LateMinutes,
		record.Status,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return attendance.Record{}, attendance.ErrDuplicateRecord
		}
		return attendance.Record{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return record, nil
}

// Update implements attendance.RecordRepository.
func (r *attendanceRepository) Update(ctx context.Context, changes attendance.Record, kind attendance.UpdateKind) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	set, args, err := updateColumns(kind, changes)
	if err != nil {
		return attendance.Record{}, err
	}
	args = append([]interface{}{changes.ID}, args...)

	query := `
		WITH a AS (
			UPDATE attendance_records SET ` + set + `, updated_at = NOW()
			WHERE id = $1 AND ` + updatePrecondition(kind) + `
			RETURNING *
		)
		SELECT ` + recordColumns + `
		FROM a
		LEFT JOIN users u ON u.id = a.user_id
	`

	record, err := scanRecord(q.QueryRow(ctx, query, args...))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, fmt.Errorf("failed to update attendance: %w", err)
		}
		// Either the id is unknown or the precondition no longer holds.
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM attendance_records WHERE id = $1)`, changes.ID).Scan(&exists); err != nil {
			return attendance.Record{}, fmt.Errorf("failed to check attendance existence: %w", err)
		}
		if exists {
			return attendance.Record{}, attendance.ErrStaleRecord
		}
		return attendance.Record{}, attendance.ErrRecordNotFound
	}

	return record, nil
}

// FindMany implements attendance.RecordRepository.
func (r *attendanceRepository) FindMany(ctx context.Context, filter attendance.RecordFilter) ([]attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	where := "WHERE a.date >= $1 AND a.date <= $2"
	args := []interface{}{filter.Start, filter.End}
	argIdx := 3

	if filter.UserID != nil && *filter.UserID != "" {
		where += fmt.Sprintf(" AND a.user_id = $%d", argIdx)
		args = append(args, *filter.UserID)
		argIdx++
	}
	if filter.Department != nil && *filter.Department != "" {
		where += fmt.Sprintf(" AND u.department = $%d", argIdx)
		args = append(args, *filter.Department)
		argIdx++
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM attendance_records a
		LEFT JOIN users u ON u.id = a.user_id
		%s
		ORDER BY a.date DESC, a.check_in_time DESC NULLS LAST
	`, recordColumns, where)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	records := make([]attendance.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendance rows: %w", err)
	}

	return records, nil
}

// updateColumns returns the SET list owned by kind. Placeholders start at $2.
func updateColumns(kind attendance.UpdateKind, c attendance.Record) (string, []interface{}, error) {
	var cols []string
	var args []interface{}
	add := func(col string, v interface{}) {
		args = append(args, v)
		cols = append(cols, fmt.Sprintf("%s = $%d", col, len(args)+1))
	}

	switch kind {
	case attendance.UpdateCheckIn:
		add("check_in_time", c.CheckInTime)
		add("check_in_latitude", c.CheckInLatitude)
		add("check_in_longitude", c.CheckInLongitude)
		add("check_in_accuracy", c.CheckInAccuracy)
		add("check_in_address", c.CheckInAddress)
		add("late_minutes", c.LateMinutes)
		add("status", c.Status)
	case attendance.UpdateCheckOut:
		add("check_out_time", c.CheckOutTime)
		add("check_out_latitude", c.CheckOutLatitude)
		add("check_out_longitude", c.CheckOutLongitude)
		add("check_out_accuracy", c.CheckOutAccuracy)
		add("check_out_address", c.CheckOutAddress)
		add("work_hours", c.WorkHours)
		add("overtime_hours", c.OvertimeHours)
		add("status", c.Status)
	case attendance.UpdateCheckInPin:
		add("check_in_latitude", c.CheckInLatitude)
		add("check_in_longitude", c.CheckInLongitude)
		add("check_in_accuracy", c.CheckInAccuracy)
		add("check_in_address", c.CheckInAddress)
	case attendance.UpdateCheckOutPin:
		add("check_out_latitude", c.CheckOutLatitude)
		add("check_out_longitude", c.CheckOutLongitude)
		add("check_out_accuracy", c.CheckOutAccuracy)
		add("check_out_address", c.CheckOutAddress)
	default:
		return "", nil, fmt.Errorf("unknown attendance update kind %d", kind)
	}

	return strings.Join(cols, ", "), args, nil
}

// updatePrecondition mirrors attendance.UpdateKind.Allows in SQL.
func updatePrecondition(kind attendance.UpdateKind) string {
	switch kind {
	case attendance.UpdateCheckIn:
		return "check_in_time IS NULL"
	case attendance.UpdateCheckOut:
		return "check_in_time IS NOT NULL AND check_out_time IS NULL"
	case attendance.UpdateCheckInPin:
		return "check_in_time IS NOT NULL"
	case attendance.UpdateCheckOutPin:
		return "check_out_time IS NOT NULL"
	default:
		return "FALSE"
	}
}

func scanRecord(row pgx.Row) (attendance.Record, error) {
	var rec attendance.Record
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.Date,
		&rec.CheckInTime, &rec.CheckInLatitude, &rec.CheckInLongitude, &rec.CheckInAccuracy, &rec.CheckInAddress,
		&rec.CheckOutTime, &rec.CheckOutLatitude, &rec.CheckOutLongitude, &rec.CheckOutAccuracy, &rec.CheckOutAddress,
		&rec.WorkHours, &rec.OvertimeHours, &rec.LateMinutes, &rec.Status,
		&rec.CreatedAt, &rec.UpdatedAt,
		&rec.UserName, &rec.Department,
	)
	return rec, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"martyrgrave-service/internal/models"
	"martyrgrave-service/pkg/response"
)

// Schema:
//   slots(slot_id, slot_name, description, start_time, end_time)
//   tasks(task_id, account_id, fullname, order_id, detail_id, start_date,
//         end_date, description, status, image_path1..3, reason,
//         service_name, service_description, category_name, martyr_code,
//         grave_location)
//   schedule_details(schedule_detail_id, account_id, slot_id, task_id,
//         date, description, staff_name,
//         UNIQUE(account_id, date, slot_id))
//   attendances(attendance_id, schedule_detail_id, account_id, staff_name,
//         date, status, image_path1..3)

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Storage) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// #### slots ####

func (s *Storage) ListSlots(ctx context.Context) ([]*models.Slot, error) {
	const op = "storage.postgres.ListSlots"

	rows, err := s.db.QueryContext(ctx,
		`SELECT slot_id, slot_name, description, start_time, end_time
		FROM slots
		ORDER BY start_time`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var slots []*models.Slot

	for rows.Next() {
		var slot models.Slot

		err := rows.Scan(&slot.SlotID, &slot.SlotName, &slot.Description, &slot.StartTime, &slot.EndTime)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		slots = append(slots, &slot)
	}

	return slots, nil
}

func (s *Storage) GetSlot(ctx context.Context, slotID int64) (*models.Slot, error) {
	const op = "storage.postgres.GetSlot"

	var slot models.Slot

	err := s.db.QueryRowContext(ctx,
		`SELECT slot_id, slot_name, description, start_time, end_time
		FROM slots WHERE slot_id=$1`, slotID).
		Scan(&slot.SlotID, &slot.SlotName, &slot.Description, &slot.StartTime, &slot.EndTime)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &slot, nil
}

// #### schedule details ####

const scheduleDetailColumns = `
	sd.schedule_detail_id, sd.account_id, sd.slot_id, sd.task_id,
	sd.date, sd.description, sd.staff_name,
	sl.start_time, sl.end_time,
	t.martyr_code, t.service_name`

func scanScheduleDetail(row interface{ Scan(...any) error }) (*models.ScheduleDetail, error) {
	var d models.ScheduleDetail

	err := row.Scan(
		&d.ScheduleDetailID, &d.AccountID, &d.SlotID, &d.TaskID,
		&d.Date, &d.Description, &d.StaffName,
		&d.StartTime, &d.EndTime,
		&d.MartyrCode, &d.ServiceName,
	)
	if err != nil {
		return nil, err
	}

	return &d, nil
}

func (s *Storage) ListSchedulesForStaff(ctx context.Context, accountID int64, from, to time.Time, slotID *int64) ([]*models.ScheduleDetail, error) {
	const op = "storage.postgres.ListSchedulesForStaff"

	query := `SELECT ` + scheduleDetailColumns + `
		FROM schedule_details sd
		JOIN slots sl ON sl.slot_id = sd.slot_id
		JOIN tasks t ON t.task_id = sd.task_id
		WHERE sd.account_id=$1 AND sd.date >= $2 AND sd.date <= $3`
	args := []any{accountID, from, to}

	if slotID != nil {
		query += ` AND sd.slot_id=$4`
		args = append(args, *slotID)
	}

	query += ` ORDER BY sd.date, sl.start_time`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var details []*models.ScheduleDetail

	for rows.Next() {
		detail, err := scanScheduleDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		details = append(details, detail)
	}

	return details, nil
}

func (s *Storage) GetScheduleDetail(ctx context.Context, accountID, scheduleDetailID int64) (*models.ScheduleDetail, error) {
	const op = "storage.postgres.GetScheduleDetail"

	row := s.db.QueryRowContext(ctx, `SELECT `+scheduleDetailColumns+`
		FROM schedule_details sd
		JOIN slots sl ON sl.slot_id = sd.slot_id
		JOIN tasks t ON t.task_id = sd.task_id
		WHERE sd.schedule_detail_id=$1 AND sd.account_id=$2`,
		scheduleDetailID, accountID)

	detail, err := scanScheduleDetail(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return detail, nil
}

func (s *Storage) CreateScheduleDetailTx(ctx context.Context, tx *sql.Tx, detail *models.ScheduleDetail) (int64, error) {
	const op = "storage.postgres.CreateScheduleDetailTx"

	var id int64

	err := tx.QueryRowContext(ctx,
		`INSERT INTO schedule_details
		(account_id, slot_id, task_id, date, description, staff_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING schedule_detail_id`,
		detail.AccountID,
		detail.SlotID,
		detail.TaskID,
		detail.Date,
		detail.Description,
		detail.StaffName,
	).Scan(&id)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23505" {
			return 0, fmt.Errorf("%s: %w", op, response.ErrSlotTaken)
		}
		if ok && sqlErr.Code == "23503" {
			return 0, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) DeleteScheduleDetailTx(ctx context.Context, tx *sql.Tx, scheduleDetailID, accountID int64) error {
	const op = "storage.postgres.DeleteScheduleDetailTx"

	_, err := tx.ExecContext(ctx,
		`DELETE FROM attendances WHERE schedule_detail_id=$1 AND account_id=$2`,
		scheduleDetailID, accountID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM schedule_details WHERE schedule_detail_id=$1 AND account_id=$2`,
		scheduleDetailID, accountID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### tasks ####

const taskColumns = `
	task_id, account_id, fullname, order_id, detail_id, start_date,
	end_date, description, status, image_path1, image_path2, image_path3,
	reason, service_name, service_description, category_name, martyr_code,
	grave_location`

func scanTask(row interface{ Scan(...any) error }) (*models.Task, error) {
	var t models.Task

	err := row.Scan(
		&t.TaskID, &t.AccountID, &t.Fullname, &t.OrderID, &t.DetailID,
		&t.StartDate, &t.EndDate, &t.Description, &t.Status,
		&t.ImagePath1, &t.ImagePath2, &t.ImagePath3,
		&t.Reason, &t.ServiceName, &t.ServiceDescription, &t.CategoryName,
		&t.MartyrCode, &t.GraveLocation,
	)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (s *Storage) GetTask(ctx context.Context, taskID, accountID int64) (*models.Task, error) {
	const op = "storage.postgres.GetTask"

	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE task_id=$1 AND account_id=$2`,
		taskID, accountID)

	task, err := scanTask(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return task, nil
}

// ListTasksByAccount returns the account's pending tasks whose work window
// covers date (when given), page by page, plus the unpaged total.
func (s *Storage) ListTasksByAccount(ctx context.Context, accountID int64, date *time.Time, limit, offset int) ([]*models.Task, int, error) {
	const op = "storage.postgres.ListTasksByAccount"

	where := `WHERE account_id=$1 AND status=$2`
	args := []any{accountID, models.TaskPending}

	if date != nil {
		where += ` AND start_date <= $3 AND end_date >= $3`
		args = append(args, *date)
	}

	var total int

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	query := fmt.Sprintf(`SELECT %s FROM tasks %s ORDER BY end_date, task_id LIMIT $%d OFFSET $%d`,
		taskColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var tasks []*models.Task

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}

		tasks = append(tasks, task)
	}

	return tasks, total, nil
}

func (s *Storage) SetTaskStatus(ctx context.Context, taskID int64, status models.TaskStatus) error {
	const op = "storage.postgres.SetTaskStatus"

	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET status=$1 WHERE task_id=$2`, status, taskID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### attendance ####

func (s *Storage) CreateAttendanceTx(ctx context.Context, tx *sql.Tx, att *models.Attendance) (int64, error) {
	const op = "storage.postgres.CreateAttendanceTx"

	var id int64

	err := tx.QueryRowContext(ctx,
		`INSERT INTO attendances
		(schedule_detail_id, account_id, staff_name, date, status,
		 image_path1, image_path2, image_path3)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING attendance_id`,
		att.ScheduleDetailID,
		att.AccountID,
		att.StaffName,
		att.Date,
		att.Status,
		att.ImagePath1,
		att.ImagePath2,
		att.ImagePath3,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

const attendanceColumns = `
	a.attendance_id, a.schedule_detail_id, a.account_id, a.staff_name,
	a.date, sl.start_time, sl.end_time, a.status,
	a.image_path1, a.image_path2, a.image_path3`

func scanAttendance(row interface{ Scan(...any) error }) (*models.Attendance, error) {
	var a models.Attendance

	err := row.Scan(
		&a.AttendanceID, &a.ScheduleDetailID, &a.AccountID, &a.StaffName,
		&a.Date, &a.StartTime, &a.EndTime, &a.Status,
		&a.ImagePath1, &a.ImagePath2, &a.ImagePath3,
	)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

func (s *Storage) GetAttendance(ctx context.Context, attendanceID, accountID int64) (*models.Attendance, error) {
	const op = "storage.postgres.GetAttendance"

	row := s.db.QueryRowContext(ctx, `SELECT `+attendanceColumns+`
		FROM attendances a
		JOIN schedule_details sd ON sd.schedule_detail_id = a.schedule_detail_id
		JOIN slots sl ON sl.slot_id = sd.slot_id
		WHERE a.attendance_id=$1 AND a.account_id=$2`,
		attendanceID, accountID)

	att, err := scanAttendance(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return att, nil
}

func (s *Storage) ListAttendanceForDetail(ctx context.Context, scheduleDetailID int64) ([]*models.Attendance, error) {
	const op = "storage.postgres.ListAttendanceForDetail"

	rows, err := s.db.QueryContext(ctx, `SELECT `+attendanceColumns+`
		FROM attendances a
		JOIN schedule_details sd ON sd.schedule_detail_id = a.schedule_detail_id
		JOIN slots sl ON sl.slot_id = sd.slot_id
		WHERE a.schedule_detail_id=$1
		ORDER BY a.attendance_id`,
		scheduleDetailID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var atts []*models.Attendance

	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		atts = append(atts, att)
	}

	return atts, nil
}

func (s *Storage) CheckAttendance(ctx context.Context, attendanceID int64, img1, img2, img3 string) error {
	const op = "storage.postgres.CheckAttendance"

	res, err := s.db.ExecContext(ctx,
		`UPDATE attendances
		SET status=$1, image_path1=$2, image_path2=$3, image_path3=$4
		WHERE attendance_id=$5`,
		models.AttendanceCheckedIn, img1, img2, img3, attendanceID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"martyrgrave-service/api"
	"martyrgrave-service/internal/lock"
	"martyrgrave-service/internal/models"
	"martyrgrave-service/pkg/response"
)

const dateLayout = "2006-01-02"

const (
	DefaultPageIndex = 1
	DefaultPageSize  = 5
)

type Service struct {
	store  Store
	locker lock.Locker
	now    func() time.Time
}

func NewService(store Store, locker lock.Locker) *Service {
	return &Service{store: store, locker: locker, now: time.Now}
}

type Store interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)

	// Slots
	ListSlots(ctx context.Context) ([]*models.Slot, error)
	GetSlot(ctx context.Context, slotID int64) (*models.Slot, error)

	// Schedule details
	ListSchedulesForStaff(ctx context.Context, accountID int64, from, to time.Time, slotID *int64) ([]*models.ScheduleDetail, error)
	GetScheduleDetail(ctx context.Context, accountID, scheduleDetailID int64) (*models.ScheduleDetail, error)
	CreateScheduleDetailTx(ctx context.Context, tx *sql.Tx, detail *models.ScheduleDetail) (int64, error)
	DeleteScheduleDetailTx(ctx context.Context, tx *sql.Tx, scheduleDetailID, accountID int64) error

	// Tasks
	GetTask(ctx context.Context, taskID, accountID int64) (*models.Task, error)
	ListTasksByAccount(ctx context.Context, accountID int64, date *time.Time, limit, offset int) ([]*models.Task, int, error)
	SetTaskStatus(ctx context.Context, taskID int64, status models.TaskStatus) error

	// Attendance
	CreateAttendanceTx(ctx context.Context, tx *sql.Tx, att *models.Attendance) (int64, error)
	GetAttendance(ctx context.Context, attendanceID, accountID int64) (*models.Attendance, error)
	ListAttendanceForDetail(ctx context.Context, scheduleDetailID int64) ([]*models.Attendance, error)
	CheckAttendance(ctx context.Context, attendanceID int64, img1, img2, img3 string) error
}

// Slots

func (s *Service) ListSlots(ctx context.Context) ([]*api.Slot, error) {
	const op = "service.ListSlots"

	slots, err := s.store.ListSlots(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.Slot, 0, len(slots))
	for _, slot := range slots {
		result = append(result, &api.Slot{
			SlotID:      slot.SlotID,
			SlotName:    slot.SlotName,
			Description: slot.Description,
			StartTime:   slot.StartTime,
			EndTime:     slot.EndTime,
		})
	}

	return result, nil
}

// Schedule details

func (s *Service) SchedulesForStaff(ctx context.Context, accountID int64, fromDate, toDate string, slotID *int64) ([]*api.ScheduleDetail, error) {
	const op = "service.SchedulesForStaff"

	from, err := time.Parse(dateLayout, fromDate)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid FromDate: %w", op, response.ErrBadRequest)
	}

	to, err := time.Parse(dateLayout, toDate)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid ToDate: %w", op, response.ErrBadRequest)
	}

	if to.Before(from) {
		return nil, fmt.Errorf("%s: ToDate is before FromDate: %w", op, response.ErrBadRequest)
	}

	details, err := s.store.ListSchedulesForStaff(ctx, accountID, from, to, slotID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.ScheduleDetail, 0, len(details))
	for _, detail := range details {
		d := toAPIScheduleDetail(detail)
		result = append(result, &d)
	}

	return result, nil
}

func (s *Service) ScheduleDetailByID(ctx context.Context, accountID, scheduleDetailID int64) (*api.ScheduleDetailInfo, error) {
	const op = "service.ScheduleDetailByID"

	detail, err := s.store.GetScheduleDetail(ctx, accountID, scheduleDetailID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	atts, err := s.store.ListAttendanceForDetail(ctx, scheduleDetailID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	info := &api.ScheduleDetailInfo{
		ScheduleDetail:   toAPIScheduleDetail(detail),
		AttendanceStaffs: make([]api.AttendanceStaff, 0, len(atts)),
	}

	for _, att := range atts {
		info.AttendanceStaffs = append(info.AttendanceStaffs, toAPIAttendance(att))
	}

	return info, nil
}

// CreateScheduleDetailForStaff registers a task into a slot on a date.
// The redis lock serializes racing registrations on the same triple; the
// unique constraint on (account_id, date, slot_id) is the final arbiter.
func (s *Service) CreateScheduleDetailForStaff(ctx context.Context, accountID int64, req *api.ScheduleDetailRequest) (*api.ScheduleDetail, error) {
	const op = "service.CreateScheduleDetailForStaff"

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid date: %w", op, response.ErrBadRequest)
	}

	lockKey := fmt.Sprintf("schedule:%d:%s:%d", accountID, req.Date, req.SlotID)

	locked, err := s.locker.Lock(ctx, lockKey, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	task, err := s.store.GetTask(ctx, req.TaskID, accountID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if task.Status != models.TaskPending {
		return nil, fmt.Errorf("%s: task not pending: %w", op, response.ErrConflict)
	}

	if _, err := s.store.GetSlot(ctx, req.SlotID); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	detail := &models.ScheduleDetail{
		AccountID:   accountID,
		SlotID:      req.SlotID,
		TaskID:      req.TaskID,
		Date:        date,
		Description: req.Description,
		StaffName:   task.Fullname,
	}

	detailID, err := s.store.CreateScheduleDetailTx(ctx, tx, detail)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, response.ErrSlotTaken) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrSlotTaken)
		}
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: create schedule detail: %w", op, err)
	}

	attendance := &models.Attendance{
		ScheduleDetailID: detailID,
		AccountID:        accountID,
		StaffName:        task.Fullname,
		Date:             date,
		Status:           models.AttendanceNotCheckedIn,
	}

	if _, err := s.store.CreateAttendanceTx(ctx, tx, attendance); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: create attendance: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	created, err := s.store.GetScheduleDetail(ctx, accountID, detailID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := toAPIScheduleDetail(created)

	return &result, nil
}

// DeleteScheduleDetail cancels a registration. The cutoff is enforced
// against the work date, exclusive: the detail is only cancellable while
// its date is strictly after the current date.
func (s *Service) DeleteScheduleDetail(ctx context.Context, scheduleDetailID, accountID int64) error {
	const op = "service.DeleteScheduleDetail"

	detail, err := s.store.GetScheduleDetail(ctx, accountID, scheduleDetailID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	today := truncateToDate(s.now(), s.now().Location())
	workDate := truncateToDate(detail.Date, s.now().Location())

	if !workDate.After(today) {
		return fmt.Errorf("%s: %w", op, response.ErrCancelCutoff)
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}

	if err := s.store.DeleteScheduleDetailTx(ctx, tx, scheduleDetailID, accountID); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, response.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

// Tasks

func (s *Service) TasksByAccount(ctx context.Context, accountID int64, dateStr string, pageIndex, pageSize int) (*api.TaskPage, error) {
	const op = "service.TasksByAccount"

	if pageIndex < 1 {
		pageIndex = DefaultPageIndex
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	var date *time.Time
	if dateStr != "" {
		parsed, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid date: %w", op, response.ErrBadRequest)
		}
		date = &parsed
	}

	tasks, total, err := s.store.ListTasksByAccount(ctx, accountID, date, pageSize, (pageIndex-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	page := &api.TaskPage{
		Items:      make([]api.Task, 0, len(tasks)),
		TotalCount: total,
		PageIndex:  pageIndex,
		PageSize:   pageSize,
	}

	for _, task := range tasks {
		page.Items = append(page.Items, toAPITask(task))
	}

	return page, nil
}

// Attendance

func (s *Service) CheckAttendanceForStaff(ctx context.Context, staffID int64, req *api.AttendanceCheckRequest) (*api.AttendanceStaff, error) {
	const op = "service.CheckAttendanceForStaff"

	att, err := s.store.GetAttendance(ctx, req.AttendanceID, staffID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if att.Status == models.AttendanceCheckedIn {
		return nil, fmt.Errorf("%s: %w", op, response.ErrAlreadyChecked)
	}

	if err := s.store.CheckAttendance(ctx, req.AttendanceID, req.ImagePath1, req.ImagePath2, req.ImagePath3); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	detail, err := s.store.GetScheduleDetail(ctx, staffID, att.ScheduleDetailID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.store.SetTaskStatus(ctx, detail.TaskID, models.TaskCheckedIn); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.store.GetAttendance(ctx, req.AttendanceID, staffID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := toAPIAttendance(updated)

	return &result, nil
}

// mapping

func toAPIScheduleDetail(d *models.ScheduleDetail) api.ScheduleDetail {
	return api.ScheduleDetail{
		ScheduleDetailID: d.ScheduleDetailID,
		SlotID:           d.SlotID,
		StaffName:        d.StaffName,
		Date:             d.Date.Format(dateLayout),
		StartTime:        d.StartTime,
		EndTime:          d.EndTime,
		Description:      d.Description,
		TaskID:           d.TaskID,
		MartyrCode:       d.MartyrCode,
		ServiceName:      d.ServiceName,
	}
}

func toAPIAttendance(a *models.Attendance) api.AttendanceStaff {
	return api.AttendanceStaff{
		AttendanceID: a.AttendanceID,
		AccountID:    a.AccountID,
		StaffName:    a.StaffName,
		Date:         a.Date.Format(dateLayout),
		StartTime:    a.StartTime,
		EndTime:      a.EndTime,
		Status:       int(a.Status),
	}
}

func toAPITask(t *models.Task) api.Task {
	return api.Task{
		TaskID:             t.TaskID,
		AccountID:          t.AccountID,
		Fullname:           t.Fullname,
		OrderID:            t.OrderID,
		DetailID:           t.DetailID,
		StartDate:          t.StartDate.Format(dateLayout),
		EndDate:            t.EndDate.Format(dateLayout),
		Description:        t.Description,
		Status:             int(t.Status),
		ImagePath1:         t.ImagePath1,
		ImagePath2:         t.ImagePath2,
		ImagePath3:         t.ImagePath3,
		Reason:             t.Reason,
		ServiceName:        t.ServiceName,
		ServiceDescription: t.ServiceDescription,
		CategoryName:       t.CategoryName,
		MartyrCode:         t.MartyrCode,
		GraveLocation:      t.GraveLocation,
	}
}

// truncateToDate returns the date at midnight in the given location.
func truncateToDate(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

package weekly

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"martyrgrave-service/api"
	"martyrgrave-service/pkg/sl"
)

// SlotState is the per-slot, per-day registration state. Transitions are
// driven by re-fetching the schedule after each mutation; the controller
// never applies an optimistic local transition.
type SlotState int

const (
	SlotEmpty SlotState = iota
	SlotRegistering
	SlotAssigned
	SlotCheckedIn
)

func (s SlotState) String() string {
	switch s {
	case SlotEmpty:
		return "empty"
	case SlotRegistering:
		return "registering"
	case SlotAssigned:
		return "assigned"
	case SlotCheckedIn:
		return "checked_in"
	default:
		return "unknown"
	}
}

// Action tells the presentation layer where a slot press leads.
type Action int

const (
	ActionNone Action = iota
	ActionOpenRegistration
	ActionNavigateCheckIn
	ActionNavigateDetail
)

type Entry struct {
	Slot   api.Slot
	State  SlotState
	Detail *api.ScheduleDetail
}

var (
	ErrNoTasks          = errors.New("no tasks assigned for this date")
	ErrNoPhoto          = errors.New("at least one photo is required for check-in")
	ErrNotAssigned      = errors.New("slot has no assignment")
	ErrSlotOccupied     = errors.New("slot already has an assignment")
	ErrAlreadyCheckedIn = errors.New("slot is already checked in")
	ErrUnknownSlot      = errors.New("unknown slot")
)

// API is the slice of the scheduling client the controller drives.
type API interface {
	Slots(ctx context.Context) ([]api.Slot, error)
	SchedulesForStaffFilterDate(ctx context.Context, accountID int64, fromDate, toDate string) ([]api.ScheduleDetail, error)
	ScheduleDetailByID(ctx context.Context, accountID, scheduleDetailID int64) (*api.ScheduleDetailInfo, error)
	TasksByAccount(ctx context.Context, accountID int64, date string, pageIndex, pageSize int) (*api.TaskPage, error)
	CreateScheduleDetailForStaff(ctx context.Context, accountID int64, req api.ScheduleDetailRequest) (*api.ScheduleDetail, error)
	DeleteScheduleDetail(ctx context.Context, scheduleDetailID, accountID int64) error
	CheckAttendanceForStaff(ctx context.Context, staffID, attendanceID int64, imagePaths ...string) (*api.AttendanceStaff, error)
}

// Controller holds the weekly view: the selected week and date, the slot
// catalog, and the per-slot entry map for the selected date. It is meant
// to be driven from a single goroutine, mirroring a UI event loop.
type Controller struct {
	api       API
	log       *slog.Logger
	accountID int64

	weekStart time.Time
	selected  time.Time

	slots   []api.Slot
	entries map[int64]*Entry

	now func() time.Time
}

func NewController(apiClient API, log *slog.Logger, accountID int64) *Controller {
	c := &Controller{
		api:       apiClient,
		log:       log,
		accountID: accountID,
		entries:   map[int64]*Entry{},
		now:       time.Now,
	}

	today := c.now()
	c.weekStart = WeekStart(today)
	c.selected = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	return c
}

// Load fetches the slot catalog and the selected date's schedule in
// parallel and builds the per-slot entry map.
func (c *Controller) Load(ctx context.Context) error {
	const op = "weekly.Controller.Load"

	date := FormatDate(c.selected)

	var (
		slots   []api.Slot
		details []api.ScheduleDetail
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		slots, err = c.api.Slots(gctx)
		return err
	})

	g.Go(func() error {
		var err error
		details, err = c.api.SchedulesForStaffFilterDate(gctx, c.accountID, date, date)
		return err
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.slots = slots
	c.rebuild(details)

	c.log.Info("Weekly view loaded",
		slog.String("date", date),
		slog.Int("slots", len(slots)),
		slog.Int("assigned", len(details)),
	)

	return nil
}

// Refresh re-queries the selected date's schedule and replaces the whole
// entry map. Correctness after a mutation is bought with this round trip
// instead of a local merge.
func (c *Controller) Refresh(ctx context.Context) error {
	const op = "weekly.Controller.Refresh"

	date := FormatDate(c.selected)

	details, err := c.api.SchedulesForStaffFilterDate(ctx, c.accountID, date, date)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.rebuild(details)

	return nil
}

func (c *Controller) rebuild(details []api.ScheduleDetail) {
	entries := make(map[int64]*Entry, len(c.slots))

	for _, slot := range c.slots {
		entries[slot.SlotID] = &Entry{Slot: slot, State: SlotEmpty}
	}

	// slotId is the lookup key; the server guarantees at most one entry
	// per (account, date, slot).
	for i := range details {
		detail := &details[i]

		entry, ok := entries[detail.SlotID]
		if !ok {
			c.log.Warn("Schedule entry references unknown slot", slog.Int64("slot_id", detail.SlotID))
			continue
		}

		entry.State = SlotAssigned
		entry.Detail = detail
	}

	c.entries = entries
}

// Navigation

func (c *Controller) SelectedDate() time.Time { return c.selected }

func (c *Controller) WeekDates() []time.Time { return WeekDates(c.weekStart) }

func (c *Controller) SelectDate(ctx context.Context, date time.Time) error {
	c.selected = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return c.Refresh(ctx)
}

func (c *Controller) NextWeek(ctx context.Context) error {
	c.weekStart = c.weekStart.AddDate(0, 0, 7)
	return c.SelectDate(ctx, c.weekStart)
}

func (c *Controller) PrevWeek(ctx context.Context) error {
	c.weekStart = c.weekStart.AddDate(0, 0, -7)
	return c.SelectDate(ctx, c.weekStart)
}

func (c *Controller) GoToCurrentWeek(ctx context.Context) error {
	today := c.now()
	c.weekStart = WeekStart(today)
	return c.SelectDate(ctx, today)
}

// Entries returns the per-slot entries in catalog order.
func (c *Controller) Entries() []Entry {
	result := make([]Entry, 0, len(c.slots))
	for _, slot := range c.slots {
		if entry, ok := c.entries[slot.SlotID]; ok {
			result = append(result, *entry)
		}
	}

	return result
}

func (c *Controller) Entry(slotID int64) (Entry, bool) {
	entry, ok := c.entries[slotID]
	if !ok {
		return Entry{}, false
	}

	return *entry, true
}

// Press dispatches a slot tap: an assigned slot leads to check-in, an
// empty one opens registration.
func (c *Controller) Press(slotID int64) (Action, error) {
	entry, ok := c.entries[slotID]
	if !ok {
		return ActionNone, ErrUnknownSlot
	}

	switch entry.State {
	case SlotAssigned:
		return ActionNavigateCheckIn, nil
	case SlotCheckedIn:
		return ActionNavigateDetail, nil
	default:
		return ActionOpenRegistration, nil
	}
}

// Registration flow

// OpenRegistration loads the task pool for the selected date. An empty
// pool is ErrNoTasks; an auth or transport failure keeps its own error
// rather than being folded into "no tasks".
func (c *Controller) OpenRegistration(ctx context.Context, slotID int64) ([]api.Task, error) {
	const op = "weekly.Controller.OpenRegistration"

	entry, ok := c.entries[slotID]
	if !ok {
		return nil, ErrUnknownSlot
	}
	if entry.State != SlotEmpty {
		return nil, ErrSlotOccupied
	}

	entry.State = SlotRegistering

	page, err := c.api.TasksByAccount(ctx, c.accountID, FormatDate(c.selected), 0, 0)
	if err != nil {
		entry.State = SlotEmpty
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(page.Items) == 0 {
		entry.State = SlotEmpty
		return nil, ErrNoTasks
	}

	return page.Items, nil
}

// CloseRegistration abandons an open registration modal.
func (c *Controller) CloseRegistration(slotID int64) {
	if entry, ok := c.entries[slotID]; ok && entry.State == SlotRegistering {
		entry.State = SlotEmpty
	}
}

// ConfirmRegistration creates the schedule detail and refreshes; the next
// read reflects the server's state, including the new entry.
func (c *Controller) ConfirmRegistration(ctx context.Context, slotID int64, task api.Task) error {
	const op = "weekly.Controller.ConfirmRegistration"

	entry, ok := c.entries[slotID]
	if !ok {
		return ErrUnknownSlot
	}
	if entry.State != SlotRegistering && entry.State != SlotEmpty {
		return ErrSlotOccupied
	}

	_, err := c.api.CreateScheduleDetailForStaff(ctx, c.accountID, api.ScheduleDetailRequest{
		TaskID:      task.TaskID,
		SlotID:      slotID,
		Date:        FormatDate(c.selected),
		Description: task.Description,
	})
	if err != nil {
		entry.State = SlotEmpty
		c.log.Error("Registration failed", sl.Err(err), slog.Int64("slot_id", slotID))
		return fmt.Errorf("%s: %w", op, err)
	}

	return c.Refresh(ctx)
}

// CancelAssignment deletes the entry's schedule detail. A server-side
// cutoff rejection comes back as an *client.APIError whose message is the
// server's own text; it is passed through untouched.
func (c *Controller) CancelAssignment(ctx context.Context, slotID int64) error {
	const op = "weekly.Controller.CancelAssignment"

	entry, ok := c.entries[slotID]
	if !ok {
		return ErrUnknownSlot
	}
	if entry.Detail == nil {
		return ErrNotAssigned
	}

	if err := c.api.DeleteScheduleDetail(ctx, entry.Detail.ScheduleDetailID, c.accountID); err != nil {
		c.log.Error("Cancellation failed", sl.Err(err), slog.Int64("slot_id", slotID))
		return fmt.Errorf("%s: %w", op, err)
	}

	return c.Refresh(ctx)
}

// Check-in flow

// CheckIn records attendance for the slot's assignment with the given
// photo paths. At least one photo is required here; the service contract
// itself leaves paths optional. The transition to SlotCheckedIn is
// confirmed by re-fetching the detail, not assumed.
func (c *Controller) CheckIn(ctx context.Context, slotID int64, photoPaths []string) error {
	const op = "weekly.Controller.CheckIn"

	entry, ok := c.entries[slotID]
	if !ok {
		return ErrUnknownSlot
	}
	if entry.Detail == nil {
		return ErrNotAssigned
	}

	var photos []string
	for _, p := range photoPaths {
		if p != "" {
			photos = append(photos, p)
		}
	}
	if len(photos) == 0 {
		return ErrNoPhoto
	}

	info, err := c.api.ScheduleDetailByID(ctx, c.accountID, entry.Detail.ScheduleDetailID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	attendance := ownAttendance(info, c.accountID)
	if attendance == nil {
		return fmt.Errorf("%s: no attendance record for account %d", op, c.accountID)
	}

	if attendance.Status == 1 {
		entry.State = SlotCheckedIn
		return ErrAlreadyCheckedIn
	}

	if _, err := c.api.CheckAttendanceForStaff(ctx, c.accountID, attendance.AttendanceID, photos...); err != nil {
		c.log.Error("Check-in failed", sl.Err(err), slog.Int64("slot_id", slotID))
		return fmt.Errorf("%s: %w", op, err)
	}

	confirmed, err := c.api.ScheduleDetailByID(ctx, c.accountID, entry.Detail.ScheduleDetailID)
	if err != nil {
		return fmt.Errorf("%s: confirm: %w", op, err)
	}

	if att := ownAttendance(confirmed, c.accountID); att != nil && att.Status == 1 {
		entry.State = SlotCheckedIn
	}

	return nil
}

func ownAttendance(info *api.ScheduleDetailInfo, accountID int64) *api.AttendanceStaff {
	for i := range info.AttendanceStaffs {
		if info.AttendanceStaffs[i].AccountID == accountID {
			return &info.AttendanceStaffs[i]
		}
	}

	return nil
}

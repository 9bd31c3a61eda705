package weekly

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"martyrgrave-service/api"
	"martyrgrave-service/internal/client"
)

// fakeAPI mimics the server closely enough for the controller's
// read-after-write cycle: mutations change its state, and the next
// schedule query reflects them.
type fakeAPI struct {
	slots []api.Slot
	tasks []api.Task

	details     map[int64]*api.ScheduleDetail
	attendances map[int64][]api.AttendanceStaff

	nextDetailID     int64
	nextAttendanceID int64

	tasksErr  error
	createErr error
	deleteErr error

	scheduleCalls int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		slots: []api.Slot{
			{SlotID: 1, SlotName: "Ca sáng sớm", StartTime: "07:00:00", EndTime: "09:00:00"},
			{SlotID: 2, SlotName: "Ca sáng", StartTime: "09:00:00", EndTime: "11:00:00"},
			{SlotID: 3, SlotName: "Ca chiều", StartTime: "13:00:00", EndTime: "15:00:00"},
		},
		details:          map[int64]*api.ScheduleDetail{},
		attendances:      map[int64][]api.AttendanceStaff{},
		nextDetailID:     100,
		nextAttendanceID: 500,
	}
}

func (f *fakeAPI) Slots(ctx context.Context) ([]api.Slot, error) {
	return f.slots, nil
}

func (f *fakeAPI) SchedulesForStaffFilterDate(ctx context.Context, accountID int64, fromDate, toDate string) ([]api.ScheduleDetail, error) {
	f.scheduleCalls++

	var result []api.ScheduleDetail
	for _, d := range f.details {
		if d.Date >= fromDate && d.Date <= toDate {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (f *fakeAPI) ScheduleDetailByID(ctx context.Context, accountID, scheduleDetailID int64) (*api.ScheduleDetailInfo, error) {
	d, ok := f.details[scheduleDetailID]
	if !ok {
		return nil, &client.APIError{Status: 404, Code: "NOT_FOUND", Message: "not found"}
	}
	return &api.ScheduleDetailInfo{
		ScheduleDetail:   *d,
		AttendanceStaffs: f.attendances[scheduleDetailID],
	}, nil
}

func (f *fakeAPI) TasksByAccount(ctx context.Context, accountID int64, date string, pageIndex, pageSize int) (*api.TaskPage, error) {
	if f.tasksErr != nil {
		return nil, f.tasksErr
	}
	return &api.TaskPage{
		Items:      f.tasks,
		TotalCount: len(f.tasks),
		PageIndex:  1,
		PageSize:   5,
	}, nil
}

func (f *fakeAPI) CreateScheduleDetailForStaff(ctx context.Context, accountID int64, req api.ScheduleDetailRequest) (*api.ScheduleDetail, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}

	f.nextDetailID++
	detail := &api.ScheduleDetail{
		ScheduleDetailID: f.nextDetailID,
		SlotID:           req.SlotID,
		TaskID:           req.TaskID,
		Date:             req.Date,
		Description:      req.Description,
	}
	f.details[detail.ScheduleDetailID] = detail

	f.nextAttendanceID++
	f.attendances[detail.ScheduleDetailID] = []api.AttendanceStaff{
		{AttendanceID: f.nextAttendanceID, AccountID: accountID, Date: req.Date, Status: 0},
	}

	return detail, nil
}

func (f *fakeAPI) DeleteScheduleDetail(ctx context.Context, scheduleDetailID, accountID int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.details[scheduleDetailID]; !ok {
		return &client.APIError{Status: 404, Code: "NOT_FOUND", Message: "not found"}
	}
	delete(f.details, scheduleDetailID)
	delete(f.attendances, scheduleDetailID)
	return nil
}

func (f *fakeAPI) CheckAttendanceForStaff(ctx context.Context, staffID, attendanceID int64, imagePaths ...string) (*api.AttendanceStaff, error) {
	for detailID, atts := range f.attendances {
		for i := range atts {
			if atts[i].AttendanceID == attendanceID {
				f.attendances[detailID][i].Status = 1
				checked := f.attendances[detailID][i]
				return &checked, nil
			}
		}
	}
	return nil, &client.APIError{Status: 404, Code: "NOT_FOUND", Message: "not found"}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestController(t *testing.T) (*Controller, *fakeAPI) {
	t.Helper()

	f := newFakeAPI()

	c := NewController(f, discardLogger(), 6)
	c.now = func() time.Time { return time.Date(2024, 11, 18, 8, 30, 0, 0, time.UTC) }
	c.weekStart = WeekStart(c.now())
	c.selected = time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC)

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	return c, f
}

func TestLoad_EmptyScheduleGivesEmptySlots(t *testing.T) {
	c, _ := newTestController(t)

	entries := c.Entries()
	if len(entries) != 3 {
		t.Fatalf("entries: got %d, want 3", len(entries))
	}

	// Catalog order, all empty.
	for i, want := range []int64{1, 2, 3} {
		if entries[i].Slot.SlotID != want {
			t.Errorf("entry %d: slot %d, want %d", i, entries[i].Slot.SlotID, want)
		}
		if entries[i].State != SlotEmpty {
			t.Errorf("entry %d: state %v, want empty", i, entries[i].State)
		}
	}
}

func TestRegistrationFlow_ReadAfterWrite(t *testing.T) {
	c, f := newTestController(t)
	ctx := context.Background()

	f.tasks = []api.Task{{TaskID: 42, AccountID: 6, ServiceName: "Thay hoa"}}

	action, err := c.Press(2)
	if err != nil {
		t.Fatalf("press: %v", err)
	}
	if action != ActionOpenRegistration {
		t.Fatalf("press action: got %v, want open registration", action)
	}

	pool, err := c.OpenRegistration(ctx, 2)
	if err != nil {
		t.Fatalf("open registration: %v", err)
	}
	if len(pool) != 1 || pool[0].TaskID != 42 {
		t.Fatalf("task pool: %+v", pool)
	}

	if err := c.ConfirmRegistration(ctx, 2, pool[0]); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	entry, ok := c.Entry(2)
	if !ok {
		t.Fatal("no entry for slot 2")
	}
	if entry.State != SlotAssigned {
		t.Errorf("state: got %v, want assigned", entry.State)
	}
	if entry.Detail == nil || entry.Detail.TaskID != 42 || entry.Detail.Date != "2024-11-20" {
		t.Errorf("detail: %+v", entry.Detail)
	}

	// The other slots are untouched.
	for _, slotID := range []int64{1, 3} {
		if e, _ := c.Entry(slotID); e.State != SlotEmpty {
			t.Errorf("slot %d: state %v, want empty", slotID, e.State)
		}
	}
}

func TestOpenRegistration_EmptyPool(t *testing.T) {
	c, _ := newTestController(t)

	_, err := c.OpenRegistration(context.Background(), 2)
	if !errors.Is(err, ErrNoTasks) {
		t.Fatalf("got %v, want ErrNoTasks", err)
	}

	if entry, _ := c.Entry(2); entry.State != SlotEmpty {
		t.Errorf("state after empty pool: got %v, want empty", entry.State)
	}
}

func TestOpenRegistration_TransportErrorIsNotNoTasks(t *testing.T) {
	c, f := newTestController(t)
	f.tasksErr = &client.APIError{Status: 401, Code: "UNAUTHORIZED", Message: "unauthorized"}

	_, err := c.OpenRegistration(context.Background(), 2)
	if errors.Is(err, ErrNoTasks) {
		t.Fatal("transport failure was folded into ErrNoTasks")
	}

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 401 {
		t.Errorf("got %v, want 401 APIError", err)
	}

	if entry, _ := c.Entry(2); entry.State != SlotEmpty {
		t.Errorf("state after failure: got %v, want empty", entry.State)
	}
}

func TestOpenRegistration_OccupiedSlot(t *testing.T) {
	c, f := newTestController(t)
	ctx := context.Background()

	f.tasks = []api.Task{{TaskID: 42, AccountID: 6}}
	if err := c.ConfirmRegistration(ctx, 2, f.tasks[0]); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	_, err := c.OpenRegistration(ctx, 2)
	if !errors.Is(err, ErrSlotOccupied) {
		t.Errorf("got %v, want ErrSlotOccupied", err)
	}
}

func TestCloseRegistration_ResetsState(t *testing.T) {
	c, f := newTestController(t)
	f.tasks = []api.Task{{TaskID: 42, AccountID: 6}}

	if _, err := c.OpenRegistration(context.Background(), 2); err != nil {
		t.Fatalf("open: %v", err)
	}
	if entry, _ := c.Entry(2); entry.State != SlotRegistering {
		t.Fatalf("state: got %v, want registering", entry.State)
	}

	c.CloseRegistration(2)
	if entry, _ := c.Entry(2); entry.State != SlotEmpty {
		t.Errorf("state after close: got %v, want empty", entry.State)
	}
}

func TestCancelAssignment(t *testing.T) {
	c, f := newTestController(t)
	ctx := context.Background()

	f.tasks = []api.Task{{TaskID: 42, AccountID: 6}}
	if err := c.ConfirmRegistration(ctx, 2, f.tasks[0]); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if err := c.CancelAssignment(ctx, 2); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	entry, _ := c.Entry(2)
	if entry.State != SlotEmpty || entry.Detail != nil {
		t.Errorf("entry after cancel: state %v detail %+v", entry.State, entry.Detail)
	}
}

func TestCancelAssignment_CutoffMessagePassesThrough(t *testing.T) {
	c, f := newTestController(t)
	ctx := context.Background()

	f.tasks = []api.Task{{TaskID: 42, AccountID: 6}}
	if err := c.ConfirmRegistration(ctx, 2, f.tasks[0]); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	const serverMsg = "Chỉ có thể hủy ca làm việc trước ngày làm việc ít nhất 1 ngày"
	f.deleteErr = &client.APIError{Status: 409, Code: "CANCEL_CUTOFF", Message: serverMsg}

	err := c.CancelAssignment(ctx, 2)
	if err == nil {
		t.Fatal("cancel succeeded past the cutoff")
	}

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %v, want APIError", err)
	}
	if apiErr.Message != serverMsg {
		t.Errorf("message rewritten: %q", apiErr.Message)
	}

	// The assignment is still there.
	if entry, _ := c.Entry(2); entry.State != SlotAssigned {
		t.Errorf("state after rejected cancel: got %v, want assigned", entry.State)
	}
}

func TestCancelAssignment_NotAssigned(t *testing.T) {
	c, _ := newTestController(t)

	if err := c.CancelAssignment(context.Background(), 2); !errors.Is(err, ErrNotAssigned) {
		t.Errorf("got %v, want ErrNotAssigned", err)
	}
}

func TestPress_Dispatch(t *testing.T) {
	c, f := newTestController(t)
	ctx := context.Background()

	f.tasks = []api.Task{{TaskID: 42, AccountID: 6}}
	if err := c.ConfirmRegistration(ctx, 2, f.tasks[0]); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if action, _ := c.Press(2); action != ActionNavigateCheckIn {
		t.Errorf("assigned slot: got %v, want navigate check-in", action)
	}
	if action, _ := c.Press(1); action != ActionOpenRegistration {
		t.Errorf("empty slot: got %v, want open registration", action)
	}
	if _, err := c.Press(99); !errors.Is(err, ErrUnknownSlot) {
		t.Errorf("unknown slot: got %v, want ErrUnknownSlot", err)
	}

	if err := c.CheckIn(ctx, 2, []string{"photos/1.jpg"}); err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if action, _ := c.Press(2); action != ActionNavigateDetail {
		t.Errorf("checked-in slot: got %v, want navigate detail", action)
	}
}

func TestCheckIn(t *testing.T) {
	c, f := newTestController(t)
	ctx := context.Background()

	f.tasks = []api.Task{{TaskID: 42, AccountID: 6}}
	if err := c.ConfirmRegistration(ctx, 2, f.tasks[0]); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if err := c.CheckIn(ctx, 2, nil); !errors.Is(err, ErrNoPhoto) {
		t.Errorf("no photos: got %v, want ErrNoPhoto", err)
	}
	if err := c.CheckIn(ctx, 2, []string{"", ""}); !errors.Is(err, ErrNoPhoto) {
		t.Errorf("blank photos: got %v, want ErrNoPhoto", err)
	}

	if err := c.CheckIn(ctx, 2, []string{"photos/1.jpg"}); err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if entry, _ := c.Entry(2); entry.State != SlotCheckedIn {
		t.Errorf("state: got %v, want checked in", entry.State)
	}

	// Checking in twice is caught before the mutation.
	err := c.CheckIn(ctx, 2, []string{"photos/2.jpg"})
	if !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Errorf("second check-in: got %v, want ErrAlreadyCheckedIn", err)
	}
}

func TestCheckIn_NotAssigned(t *testing.T) {
	c, _ := newTestController(t)

	err := c.CheckIn(context.Background(), 2, []string{"photos/1.jpg"})
	if !errors.Is(err, ErrNotAssigned) {
		t.Errorf("got %v, want ErrNotAssigned", err)
	}
}

func TestWeekNavigation(t *testing.T) {
	c, f := newTestController(t)
	ctx := context.Background()

	if got := FormatDate(c.WeekDates()[0]); got != "2024-11-18" {
		t.Fatalf("week start: got %s, want 2024-11-18", got)
	}

	if err := c.NextWeek(ctx); err != nil {
		t.Fatalf("next week: %v", err)
	}
	if got := FormatDate(c.WeekDates()[0]); got != "2024-11-25" {
		t.Errorf("week start after next: got %s, want 2024-11-25", got)
	}
	if got := FormatDate(c.SelectedDate()); got != "2024-11-25" {
		t.Errorf("selected after next: got %s, want 2024-11-25", got)
	}

	if err := c.PrevWeek(ctx); err != nil {
		t.Fatalf("prev week: %v", err)
	}
	if got := FormatDate(c.WeekDates()[0]); got != "2024-11-18" {
		t.Errorf("week start after prev: got %s, want 2024-11-18", got)
	}

	if err := c.GoToCurrentWeek(ctx); err != nil {
		t.Fatalf("current week: %v", err)
	}
	if got := FormatDate(c.SelectedDate()); got != "2024-11-18" {
		t.Errorf("selected after current: got %s, want 2024-11-18", got)
	}

	if f.scheduleCalls < 4 {
		t.Errorf("schedule queries: got %d, want one per navigation", f.scheduleCalls)
	}
}

func TestSelectDate_RefreshesEntries(t *testing.T) {
	c, f := newTestController(t)
	ctx := context.Background()

	f.tasks = []api.Task{{TaskID: 42, AccountID: 6}}
	if err := c.ConfirmRegistration(ctx, 2, f.tasks[0]); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	otherDay := time.Date(2024, 11, 21, 0, 0, 0, 0, time.UTC)
	if err := c.SelectDate(ctx, otherDay); err != nil {
		t.Fatalf("select: %v", err)
	}
	if entry, _ := c.Entry(2); entry.State != SlotEmpty {
		t.Errorf("other day: state %v, want empty", entry.State)
	}

	backTo := time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC)
	if err := c.SelectDate(ctx, backTo); err != nil {
		t.Fatalf("select back: %v", err)
	}
	if entry, _ := c.Entry(2); entry.State != SlotAssigned {
		t.Errorf("original day: state %v, want assigned", entry.State)
	}
}

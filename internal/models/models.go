package models

import "time"

// Integer status codes come from the server contract; only the values
// below are known. Unknown values are carried through unmapped.

type TaskStatus int

const (
	TaskPending   TaskStatus = 0
	TaskCheckedIn TaskStatus = 1
	TaskCompleted TaskStatus = 4
)

type AttendanceStatus int

const (
	AttendanceNotCheckedIn AttendanceStatus = 0
	AttendanceCheckedIn    AttendanceStatus = 1
)

type Slot struct {
	SlotID      int64  `db:"slot_id"`
	SlotName    string `db:"slot_name"`
	Description string `db:"description"`
	StartTime   string `db:"start_time"`
	EndTime     string `db:"end_time"`
}

// ScheduleDetail binds one staff account to one task in one slot on one
// date. At most one row may occupy an (account_id, date, slot_id) triple;
// rows are never updated in place, only created and deleted.
type ScheduleDetail struct {
	ScheduleDetailID int64     `db:"schedule_detail_id"`
	AccountID        int64     `db:"account_id"`
	SlotID           int64     `db:"slot_id"`
	TaskID           int64     `db:"task_id"`
	Date             time.Time `db:"date"`
	Description      string    `db:"description"`
	StaffName        string    `db:"staff_name"`
	StartTime        string    `db:"start_time"`
	EndTime          string    `db:"end_time"`
	MartyrCode       string    `db:"martyr_code"`
	ServiceName      string    `db:"service_name"`
}

type Task struct {
	TaskID             int64      `db:"task_id"`
	AccountID          int64      `db:"account_id"`
	Fullname           string     `db:"fullname"`
	OrderID            int64      `db:"order_id"`
	DetailID           int64      `db:"detail_id"`
	StartDate          time.Time  `db:"start_date"`
	EndDate            time.Time  `db:"end_date"`
	Description        string     `db:"description"`
	Status             TaskStatus `db:"status"`
	ImagePath1         string     `db:"image_path1"`
	ImagePath2         string     `db:"image_path2"`
	ImagePath3         string     `db:"image_path3"`
	Reason             string     `db:"reason"`
	ServiceName        string     `db:"service_name"`
	ServiceDescription string     `db:"service_description"`
	CategoryName       string     `db:"category_name"`
	MartyrCode         string     `db:"martyr_code"`
	GraveLocation      string     `db:"grave_location"`
}

type Attendance struct {
	AttendanceID     int64            `db:"attendance_id"`
	ScheduleDetailID int64            `db:"schedule_detail_id"`
	AccountID        int64            `db:"account_id"`
	StaffName        string           `db:"staff_name"`
	Date             time.Time        `db:"date"`
	StartTime        string           `db:"start_time"`
	EndTime          string           `db:"end_time"`
	Status           AttendanceStatus `db:"status"`
	ImagePath1       string           `db:"image_path1"`
	ImagePath2       string           `db:"image_path2"`
	ImagePath3       string           `db:"image_path3"`
}

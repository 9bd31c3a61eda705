package api

// Wire types for the scheduling workflow. Field names follow the mobile
// API's camelCase contract, so the handlers and the client share them.

type Slot struct {
	SlotID      int64  `json:"slotId"`
	SlotName    string `json:"slotName"`
	Description string `json:"description"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
}

type ScheduleDetail struct {
	ScheduleDetailID int64  `json:"scheduleDetailId"`
	SlotID           int64  `json:"slotId"`
	StaffName        string `json:"staffName"`
	Date             string `json:"date"`
	StartTime        string `json:"startTime"`
	EndTime          string `json:"endTime"`
	Description      string `json:"description"`
	TaskID           int64  `json:"taskId"`
	MartyrCode       string `json:"martyrCode"`
	ServiceName      string `json:"serviceName"`
}

// ScheduleDetailInfo is the fetch-by-id shape: the entry plus the
// attendance records bound to it.
type ScheduleDetailInfo struct {
	ScheduleDetail
	AttendanceStaffs []AttendanceStaff `json:"attendanceStaffs"`
}

type AttendanceStaff struct {
	AttendanceID int64  `json:"attendanceId"`
	AccountID    int64  `json:"accountId"`
	StaffName    string `json:"staffName"`
	Date         string `json:"date"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	Status       int    `json:"status"`
}

type Task struct {
	TaskID             int64  `json:"taskId"`
	AccountID          int64  `json:"accountId"`
	Fullname           string `json:"fullname"`
	OrderID            int64  `json:"orderId"`
	DetailID           int64  `json:"detailId"`
	StartDate          string `json:"startDate"`
	EndDate            string `json:"endDate"`
	Description        string `json:"description"`
	Status             int    `json:"status"`
	ImagePath1         string `json:"imagePath1"`
	ImagePath2         string `json:"imagePath2"`
	ImagePath3         string `json:"imagePath3"`
	Reason             string `json:"reason"`
	ServiceName        string `json:"serviceName"`
	ServiceDescription string `json:"serviceDescription"`
	CategoryName       string `json:"categoryName"`
	MartyrCode         string `json:"martyrCode"`
	GraveLocation      string `json:"graveLocation"`
}

type TaskPage struct {
	Items      []Task `json:"items"`
	TotalCount int    `json:"totalCount"`
	PageIndex  int    `json:"pageIndex"`
	PageSize   int    `json:"pageSize"`
}

// ScheduleDetailRequest is one element of the create body. The mobile API
// takes the body as a single-element array; that quirk is kept.
type ScheduleDetailRequest struct {
	TaskID      int64  `json:"taskId"`
	SlotID      int64  `json:"slotId"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

type AttendanceCheckRequest struct {
	AttendanceID int64  `json:"attendanceId"`
	ImagePath1   string `json:"imagePath1"`
	ImagePath2   string `json:"imagePath2"`
	ImagePath3   string `json:"imagePath3"`
}

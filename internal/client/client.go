package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"martyrgrave-service/api"
	"martyrgrave-service/internal/config"
)

// TokenSource supplies the bearer token attached to authenticated calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ErrNoToken is returned before any network call when the token source
// has nothing; callers can distinguish it from transport and API errors.
var ErrNoToken = errors.New("no access token")

// APIError is a non-2xx response from the scheduling API. Message carries
// the server-supplied text verbatim so business-rule rejections (such as
// the cancellation cutoff) survive to the UI unmodified.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// Client talks to the scheduling API. Every method takes a context so an
// in-flight request is cancelled with its caller's lifetime.
type Client struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
}

func New(profile config.Profile, tokens TokenSource) *Client {
	return &Client{
		baseURL: profile.BaseURL,
		tokens:  tokens,
		http: &http.Client{
			Timeout: profile.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// Slots fetches the slot catalog. No auth required.
func (c *Client) Slots(ctx context.Context) ([]api.Slot, error) {
	var slots []api.Slot
	if err := c.do(ctx, http.MethodGet, "/Slot/GetAll", nil, nil, &slots, false); err != nil {
		return nil, fmt.Errorf("slots: %w", err)
	}

	return slots, nil
}

// SchedulesForStaffFilterDate returns the account's schedule entries for
// a date range. An empty result is ([], nil); a failed query is an error,
// never an empty sequence.
func (c *Client) SchedulesForStaffFilterDate(ctx context.Context, accountID int64, fromDate, toDate string) ([]api.ScheduleDetail, error) {
	q := url.Values{}
	q.Set("accountId", strconv.FormatInt(accountID, 10))
	q.Set("FromDate", fromDate)
	q.Set("ToDate", toDate)

	var details []api.ScheduleDetail
	if err := c.do(ctx, http.MethodGet, "/ScheduleDetail/GetSchedulesForStaffFiltterDate", q, nil, &details, true); err != nil {
		return nil, fmt.Errorf("schedules for staff: %w", err)
	}

	if details == nil {
		details = []api.ScheduleDetail{}
	}

	return details, nil
}

// ScheduleDetailForStaff is the single-slot variant of the range query.
func (c *Client) ScheduleDetailForStaff(ctx context.Context, accountID, slotID int64, date string) ([]api.ScheduleDetail, error) {
	q := url.Values{}
	q.Set("accountId", strconv.FormatInt(accountID, 10))
	q.Set("slotId", strconv.FormatInt(slotID, 10))
	q.Set("Date", date)

	var details []api.ScheduleDetail
	if err := c.do(ctx, http.MethodGet, "/ScheduleDetail/GetScheduleDetailForStaff", q, nil, &details, true); err != nil {
		return nil, fmt.Errorf("schedule detail for staff: %w", err)
	}

	if details == nil {
		details = []api.ScheduleDetail{}
	}

	return details, nil
}

func (c *Client) ScheduleDetailByID(ctx context.Context, accountID, scheduleDetailID int64) (*api.ScheduleDetailInfo, error) {
	q := url.Values{}
	q.Set("accountId", strconv.FormatInt(accountID, 10))
	q.Set("scheduleDetailId", strconv.FormatInt(scheduleDetailID, 10))

	var info api.ScheduleDetailInfo
	if err := c.do(ctx, http.MethodGet, "/ScheduleDetail/GetByScheduleDetailId", q, nil, &info, true); err != nil {
		return nil, fmt.Errorf("schedule detail by id: %w", err)
	}

	return &info, nil
}

// CreateScheduleDetailForStaff registers a task into a slot on a date.
// The API takes the body as an array; the app only ever sends one element.
func (c *Client) CreateScheduleDetailForStaff(ctx context.Context, accountID int64, req api.ScheduleDetailRequest) (*api.ScheduleDetail, error) {
	q := url.Values{}
	q.Set("accountId", strconv.FormatInt(accountID, 10))

	body := []api.ScheduleDetailRequest{req}

	var detail api.ScheduleDetail
	if err := c.do(ctx, http.MethodPost, "/ScheduleDetail/CreateScheduleDetailForStaff", q, body, &detail, true); err != nil {
		return nil, fmt.Errorf("create schedule detail: %w", err)
	}

	return &detail, nil
}

func (c *Client) DeleteScheduleDetail(ctx context.Context, scheduleDetailID, accountID int64) error {
	q := url.Values{}
	q.Set("accountId", strconv.FormatInt(accountID, 10))

	path := fmt.Sprintf("/ScheduleDetail/DeleteScheduleDetail/%d", scheduleDetailID)

	if err := c.do(ctx, http.MethodDelete, path, q, nil, nil, true); err != nil {
		return fmt.Errorf("delete schedule detail: %w", err)
	}

	return nil
}

// TasksByAccount returns a page of the account's pending tasks, optionally
// narrowed to tasks whose work window covers date.
func (c *Client) TasksByAccount(ctx context.Context, accountID int64, date string, pageIndex, pageSize int) (*api.TaskPage, error) {
	if pageIndex < 1 {
		pageIndex = 1
	}
	if pageSize < 1 {
		pageSize = 5
	}

	q := url.Values{}
	q.Set("pageIndex", strconv.Itoa(pageIndex))
	q.Set("pageSize", strconv.Itoa(pageSize))
	if date != "" {
		q.Set("date", date)
	}

	path := fmt.Sprintf("/Task/tasks/account/%d", accountID)

	var page api.TaskPage
	if err := c.do(ctx, http.MethodGet, path, q, nil, &page, true); err != nil {
		return nil, fmt.Errorf("tasks by account: %w", err)
	}

	return &page, nil
}

// CheckAttendanceForStaff records arrival with up to three photo paths;
// missing paths are sent as empty strings.
func (c *Client) CheckAttendanceForStaff(ctx context.Context, staffID, attendanceID int64, imagePaths ...string) (*api.AttendanceStaff, error) {
	if len(imagePaths) > 3 {
		imagePaths = imagePaths[:3]
	}
	for len(imagePaths) < 3 {
		imagePaths = append(imagePaths, "")
	}

	q := url.Values{}
	q.Set("staffId", strconv.FormatInt(staffID, 10))

	body := api.AttendanceCheckRequest{
		AttendanceID: attendanceID,
		ImagePath1:   imagePaths[0],
		ImagePath2:   imagePaths[1],
		ImagePath3:   imagePaths[2],
	}

	var att api.AttendanceStaff
	if err := c.do(ctx, http.MethodPut, "/Attendance/CheckAttendanceForStaff", q, body, &att, true); err != nil {
		return nil, fmt.Errorf("check attendance: %w", err)
	}

	return &att, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, authed bool) error {
	var token string

	if authed {
		t, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("token source: %w", err)
		}
		if t == "" {
			return ErrNoToken
		}
		token = t
	}

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func parseAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil && json.Unmarshal(raw, &envelope) == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		if apiErr.Message == "" {
			apiErr.Message = envelope.Message
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	return apiErr
}

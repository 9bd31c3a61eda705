package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"martyrgrave-service/api"
	"martyrgrave-service/internal/config"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) Token(ctx context.Context) (string, error) {
	return s.token, s.err
}

func newTestClient(t *testing.T, token string, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(config.Profile{
		Name:    "test",
		BaseURL: srv.URL + "/api",
		Timeout: 5 * time.Second,
	}, staticTokens{token: token})
}

func TestSlots_NoAuthRequired(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/Slot/GetAll" {
			t.Errorf("path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("unexpected Authorization header: %q", got)
		}
		_ = json.NewEncoder(w).Encode([]api.Slot{
			{SlotID: 2, SlotName: "Ca sáng", StartTime: "09:00:00", EndTime: "11:00:00"},
		})
	})

	slots, err := c.Slots(context.Background())
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(slots) != 1 || slots[0].SlotID != 2 {
		t.Errorf("slots: %+v", slots)
	}
}

func TestAuthedCall_NoTokenFailsBeforeNetwork(t *testing.T) {
	reached := false
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		reached = true
	})

	_, err := c.SchedulesForStaffFilterDate(context.Background(), 6, "2024-11-20", "2024-11-20")
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("got %v, want ErrNoToken", err)
	}
	if reached {
		t.Error("request hit the server despite the missing token")
	}
}

func TestSchedulesForStaffFilterDate(t *testing.T) {
	c := newTestClient(t, "tok-123", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ScheduleDetail/GetSchedulesForStaffFiltterDate" {
			t.Errorf("path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization: %q", got)
		}

		q := r.URL.Query()
		if q.Get("accountId") != "6" || q.Get("FromDate") != "2024-11-18" || q.Get("ToDate") != "2024-11-24" {
			t.Errorf("query: %v", q)
		}

		_ = json.NewEncoder(w).Encode([]api.ScheduleDetail{
			{ScheduleDetailID: 101, SlotID: 2, TaskID: 42, Date: "2024-11-20"},
		})
	})

	details, err := c.SchedulesForStaffFilterDate(context.Background(), 6, "2024-11-18", "2024-11-24")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(details) != 1 || details[0].SlotID != 2 || details[0].TaskID != 42 {
		t.Errorf("details: %+v", details)
	}
}

func TestSchedulesForStaffFilterDate_EmptyIsNotAnError(t *testing.T) {
	c := newTestClient(t, "tok-123", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})

	details, err := c.SchedulesForStaffFilterDate(context.Background(), 6, "2024-11-20", "2024-11-20")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if details == nil || len(details) != 0 {
		t.Errorf("details: %#v, want empty non-nil slice", details)
	}
}

func TestCreateScheduleDetail_BodyIsSingleElementArray(t *testing.T) {
	c := newTestClient(t, "tok-123", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: %s", r.Method)
		}

		var body []api.ScheduleDetailRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(body) != 1 {
			t.Fatalf("body length: %d, want 1", len(body))
		}
		if body[0].TaskID != 42 || body[0].SlotID != 2 || body[0].Date != "2024-11-20" {
			t.Errorf("body: %+v", body[0])
		}

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(api.ScheduleDetail{
			ScheduleDetailID: 101, SlotID: 2, TaskID: 42, Date: "2024-11-20",
		})
	})

	detail, err := c.CreateScheduleDetailForStaff(context.Background(), 6, api.ScheduleDetailRequest{
		TaskID: 42, SlotID: 2, Date: "2024-11-20",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if detail.ScheduleDetailID != 101 {
		t.Errorf("detail: %+v", detail)
	}
}

func TestDeleteScheduleDetail_CutoffMessageVerbatim(t *testing.T) {
	const serverMsg = "Chỉ có thể hủy ca làm việc trước ngày làm việc ít nhất 1 ngày"

	c := newTestClient(t, "tok-123", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method: %s", r.Method)
		}
		if r.URL.Path != "/api/ScheduleDetail/DeleteScheduleDetail/101" {
			t.Errorf("path: %s", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"code":"CANCEL_CUTOFF","message":"` + serverMsg + `"}}`))
	})

	err := c.DeleteScheduleDetail(context.Background(), 101, 6)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %v, want APIError", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Code != "CANCEL_CUTOFF" {
		t.Errorf("status/code: %d %s", apiErr.Status, apiErr.Code)
	}
	if apiErr.Message != serverMsg {
		t.Errorf("message rewritten: %q", apiErr.Message)
	}
}

func TestParseAPIError_Fallbacks(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		wantMsg  string
		wantCode string
	}{
		{"top-level message", 400, `{"message":"bad dates"}`, "bad dates", ""},
		{"no body", 500, "", "Internal Server Error", ""},
		{"not json", 502, "<html>bad gateway</html>", "Bad Gateway", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, "tok-123", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := c.TasksByAccount(context.Background(), 6, "", 0, 0)

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("got %v, want APIError", err)
			}
			if apiErr.Status != tc.status || apiErr.Code != tc.wantCode || apiErr.Message != tc.wantMsg {
				t.Errorf("got %d %q %q, want %d %q %q",
					apiErr.Status, apiErr.Code, apiErr.Message, tc.status, tc.wantCode, tc.wantMsg)
			}
		})
	}
}

func TestTasksByAccount_PagingDefaults(t *testing.T) {
	c := newTestClient(t, "tok-123", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("pageIndex") != "1" || q.Get("pageSize") != "5" {
			t.Errorf("paging: %v", q)
		}
		if q.Has("date") {
			t.Errorf("empty date should be omitted: %v", q)
		}
		_ = json.NewEncoder(w).Encode(api.TaskPage{PageIndex: 1, PageSize: 5})
	})

	if _, err := c.TasksByAccount(context.Background(), 6, "", 0, 0); err != nil {
		t.Fatalf("tasks: %v", err)
	}
}

func TestCheckAttendance_PadsPhotoPaths(t *testing.T) {
	c := newTestClient(t, "tok-123", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method: %s", r.Method)
		}
		if got := r.URL.Query().Get("staffId"); got != "6" {
			t.Errorf("staffId: %q", got)
		}

		var body api.AttendanceCheckRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.AttendanceID != 501 || body.ImagePath1 != "photos/1.jpg" {
			t.Errorf("body: %+v", body)
		}
		if body.ImagePath2 != "" || body.ImagePath3 != "" {
			t.Errorf("missing paths not padded: %+v", body)
		}

		_ = json.NewEncoder(w).Encode(api.AttendanceStaff{AttendanceID: 501, Status: 1})
	})

	att, err := c.CheckAttendanceForStaff(context.Background(), 6, 501, "photos/1.jpg")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if att.Status != 1 {
		t.Errorf("status: %d, want 1", att.Status)
	}
}

func TestContextCancellation(t *testing.T) {
	block := make(chan struct{})
	c := newTestClient(t, "tok-123", func(w http.ResponseWriter, r *http.Request) {
		<-block
	})
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Slots(ctx)
	if err == nil {
		t.Fatal("cancelled request succeeded")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

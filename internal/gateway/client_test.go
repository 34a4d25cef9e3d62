package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"classload/internal"
	"classload/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func testClient(t *testing.T, attempts int, rt roundTripFunc) *Client {
	t.Helper()
	cfg := config.Config{
		SchedulerAPIBaseURL:  "https://scheduler.test/api/",
		SchedulerAPIToken:    "secret",
		SchedulerRateLimitRS: 1000,
		SchedulerTimeoutMs:   1000,
		SchedulerMaxAttempts: attempts,
	}
	client := NewClient(cfg, nil)
	client.httpClient = &http.Client{Transport: rt}
	return client
}

func TestValidateEditRetriesOnServerError(t *testing.T) {
	attempt := 0
	client := testClient(t, 3, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/api/schedule/validate-edit" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Fatalf("missing auth header")
		}
		var req ValidateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Day != "Tue" || req.StartTime != "08:00" || req.MeetingID == nil || *req.MeetingID != 42 {
			t.Fatalf("unexpected request: %+v", req)
		}
		attempt++
		if attempt == 1 {
			return jsonResponse(http.StatusServiceUnavailable, `{"error":"busy"}`), nil
		}
		return jsonResponse(http.StatusOK, `{"ok":false,"conflicts":["instructor"],"details":{"instructor":"Dr. Cruz"}}`), nil
	})

	meetingID := 42
	res, err := client.ValidateEdit(context.Background(), ValidateRequest{
		GroupID: "g-1", MeetingID: &meetingID, Day: "Tue", StartTime: "08:00", EndTime: "09:30",
	})
	if err != nil {
		t.Fatal(err)
	}
	if attempt != 2 {
		t.Fatalf("attempts=%d", attempt)
	}
	if res.OK || len(res.Conflicts) != 1 || res.Conflicts[0] != internal.ConflictInstructor {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestPostJSONClientErrorIsNotRetried(t *testing.T) {
	attempt := 0
	client := testClient(t, 3, func(r *http.Request) (*http.Response, error) {
		attempt++
		return jsonResponse(http.StatusBadRequest, `{"error":"bad locator"}`), nil
	})

	_, err := client.LocateEntry(context.Background(), Locator{GroupID: "g-1"})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("err=%v", err)
	}
	if attempt != 1 {
		t.Fatalf("attempts=%d", attempt)
	}
}

func TestPostJSONNetworkFailure(t *testing.T) {
	attempt := 0
	var sent []time.Time
	client := testClient(t, 2, func(r *http.Request) (*http.Response, error) {
		attempt++
		sent = append(sent, time.Now())
		return nil, errors.New("connection refused")
	})

	_, err := client.SuggestAlternatives(context.Background(), SuggestRequest{GroupID: "g-1", DurationMinutes: 90, EditType: EditDay})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("err=%v", err)
	}
	if attempt != 2 {
		t.Fatalf("attempts=%d", attempt)
	}
	if gap := sent[1].Sub(sent[0]); gap < 250*time.Millisecond {
		t.Fatalf("retried after %v without backoff", gap)
	}
}

func TestPostJSONNetworkBackoffHonoursContext(t *testing.T) {
	attempt := 0
	client := testClient(t, 3, func(r *http.Request) (*http.Response, error) {
		attempt++
		return nil, errors.New("connection reset")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.LocateEntry(ctx, Locator{GroupID: "g-1"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v", err)
	}
	if attempt != 1 {
		t.Fatalf("attempts=%d", attempt)
	}
}

func TestRetryBackoffGrows(t *testing.T) {
	for attempt, floor := range map[int]time.Duration{1: 250 * time.Millisecond, 2: 500 * time.Millisecond, 3: time.Second} {
		got := retryBackoff(attempt)
		if got < floor || got >= floor+100*time.Millisecond {
			t.Fatalf("attempt %d: backoff=%v", attempt, got)
		}
	}
}

func TestGenerateSchedule(t *testing.T) {
	client := testClient(t, 1, func(r *http.Request) (*http.Response, error) {
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if len(req.InstructorData) != 1 || req.InstructorData[0].Unit != 3 || req.Semester != "2nd Semester" {
			t.Fatalf("unexpected request: %+v", req)
		}
		return jsonResponse(http.StatusOK, `{"success":true,"group_id":"g-9","data":[
			{"subjectCode":"BAC1","instructorName":"Dr. Cruz","sectionCode":"BSBA 1A","yearLevel":"1st Year","block":"A","day":"Mon","startTime":"08:00:00","endTime":"09:30:00","roomName":"R101"}
		]}`), nil
	})

	res, err := client.GenerateSchedule(context.Background(), GenerateRequest{
		InstructorData: []internal.GenerationOffering{{Name: "Dr. Cruz", CourseCode: "BAC1", Subject: "Accounting 1", Unit: 3}},
		Semester:       "2nd Semester",
		SchoolYear:     "2025-2026",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.GroupID != "g-9" || len(res.Data) != 1 || res.Data[0].RoomName != "R101" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestGenerateScheduleUnsuccessful(t *testing.T) {
	client := testClient(t, 1, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"success":false,"message":"no rooms configured"}`), nil
	})
	if _, err := client.GenerateSchedule(context.Background(), GenerateRequest{}); err == nil || !strings.Contains(err.Error(), "no rooms") {
		t.Fatalf("err=%v", err)
	}
}

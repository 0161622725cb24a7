package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/tadeufagundes/go-geo-meet/core"
	"github.com/tadeufagundes/go-geo-meet/core/session"
	testutil "github.com/tadeufagundes/go-geo-meet/tests"
)

type toggleResponse struct {
	Success    bool   `json:"success"`
	IsConfused bool   `json:"isConfused"`
	Message    string `json:"message"`
}

type feedbackListResponse struct {
	ConfusedCount int `json:"confusedCount"`
	Students      []struct {
		ParticipantID   string `json:"participantId"`
		ParticipantName string `json:"participantName"`
		Since           string `json:"since"`
	} `json:"students"`
}

func Test_feedbackApi_toggle(t *testing.T) {
	app := setup(t)

	live := testutil.CreateSession(t, sessRepo, teacher, "g1", "Bio 9B", session.StatusLive)

	tests := []httpTest{
		{name: "not found", path: "/v1/meet/sessions/nope/feedback", token: getToken(t, student), wantCode: http.StatusNotFound, wantErrCode: core.CodeNotFound},
		{name: "participant required", path: "/v1/meet/sessions/" + live.ID + "/feedback", wantCode: http.StatusBadRequest, wantErrCode: core.CodeBadRequest},
		{name: "bare call means confused", path: "/v1/meet/sessions/" + live.ID + "/feedback", token: getToken(t, student), wantCode: http.StatusOK, extra: true},
		{
			name: "anonymous with body id", path: "/v1/meet/sessions/" + live.ID + "/feedback",
			body:     marchallObj(t, map[string]string{"participantId": "anon_1_abc", "participantName": "Maria"}),
			wantCode: http.StatusOK, extra: true,
		},
		{
			name: "toggle off", path: "/v1/meet/sessions/" + live.ID + "/feedback",
			body:     marchallObj(t, map[string]interface{}{"isConfused": false}),
			token:    getToken(t, student),
			wantCode: http.StatusOK, extra: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantErrCode != "" {
				checkError(t, rec, tt.wantCode, tt.wantErrCode)
				return
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body = %s", rec.Code, tt.wantCode, rec.Body.String())
			}

			var body toggleResponse
			decodeBody(t, rec, &body)
			if !body.Success {
				t.Errorf("body = %+v, want success", body)
			}
			if want := tt.extra.(bool); body.IsConfused != want {
				t.Errorf("isConfused = %v, want %v", body.IsConfused, want)
			}
		})
	}
}

func Test_feedbackApi_list(t *testing.T) {
	app := setup(t)

	live := testutil.CreateSession(t, sessRepo, teacher, "g1", "Bio 9B", session.StatusLive)

	toggle := func(t *testing.T, body []byte) {
		t.Helper()
		req, rec := newRequest(http.MethodPost, "/v1/meet/sessions/"+live.ID+"/feedback", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("toggle failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
	}

	t.Run("empty", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/meet/sessions/"+live.ID+"/feedback")
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var body feedbackListResponse
		decodeBody(t, rec, &body)
		if body.ConfusedCount != 0 || len(body.Students) != 0 {
			t.Errorf("body = %+v, want empty list", body)
		}
	})

	t.Run("confused students, unauthenticated poll", func(t *testing.T) {
		toggle(t, marchallObj(t, map[string]string{"participantId": "anon_1_abc", "participantName": "Maria"}))
		toggle(t, marchallObj(t, map[string]interface{}{"participantId": "anon_2_def", "participantName": "Edu", "isConfused": false}))

		req, rec := newRequest(http.MethodGet, "/v1/meet/sessions/"+live.ID+"/feedback")
		app.ServeHTTP(rec, req)

		var body feedbackListResponse
		decodeBody(t, rec, &body)
		if body.ConfusedCount != 1 || len(body.Students) != 1 {
			t.Fatalf("body = %+v, want exactly one confused student", body)
		}
		if body.Students[0].ParticipantName != "Maria" || body.Students[0].Since == "" {
			t.Errorf("student = %+v, want Maria with a since stamp", body.Students[0])
		}
	})
}

func Test_feedbackApi_clear(t *testing.T) {
	app := setup(t)

	live := testutil.CreateSession(t, sessRepo, teacher, "g1", "Bio 9B", session.StatusLive)

	seed := func(t *testing.T) {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPost, "/v1/meet/sessions/"+live.ID+"/feedback", getToken(t, student))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("toggle failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
	}

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodDelete, "/v1/meet/sessions/"+live.ID+"/feedback")
		app.ServeHTTP(rec, req)
		checkError(t, rec, http.StatusUnauthorized, core.CodeUnauthorized)
	})

	t.Run("owner only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/meet/sessions/"+live.ID+"/feedback", getToken(t, rival))
		app.ServeHTTP(rec, req)
		checkError(t, rec, http.StatusForbidden, core.CodeForbidden)
	})

	t.Run("clears and reports count", func(t *testing.T) {
		seed(t)

		req, rec := newAuthRequest(http.MethodDelete, "/v1/meet/sessions/"+live.ID+"/feedback", getToken(t, teacher))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var body struct {
			Success      bool `json:"success"`
			DeletedCount int  `json:"deletedCount"`
		}
		decodeBody(t, rec, &body)
		if !body.Success || body.DeletedCount != 1 {
			t.Errorf("body = %+v, want success with deletedCount 1", body)
		}

		// poll confirms the board is clean
		req, rec = newRequest(http.MethodGet, "/v1/meet/sessions/"+live.ID+"/feedback")
		app.ServeHTTP(rec, req)
		var list feedbackListResponse
		decodeBody(t, rec, &list)
		if list.ConfusedCount != 0 {
			t.Errorf("confusedCount = %v, want 0 after clear", list.ConfusedCount)
		}
	})
}

// Test_classFlow walks the full lesson lifecycle: schedule, start, students
// join, silent feedback, end, lifecycle cleanup.
func Test_classFlow(t *testing.T) {
	app := setup(t)
	token := getToken(t, teacher)

	// teacher schedules the Bio 9B class
	req, rec := newAuthRequest(http.MethodPost, "/v1/meet/sessions", token,
		marchallObj(t, map[string]string{"groupId": "g-bio9b", "groupName": "Bio 9B"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var created createdResponse
	decodeBody(t, rec, &created)

	// teacher goes live
	req, rec = newAuthRequest(http.MethodPatch, "/v1/meet/sessions/"+created.ID+"/start", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("start failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}

	// two students join: one authenticated, one anonymous
	req, rec = newAuthRequest(http.MethodPost, "/v1/meet/sessions/"+created.ID+"/join", getToken(t, student))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("join failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	req, rec = newRequest(http.MethodPost, "/v1/meet/sessions/"+created.ID+"/join",
		marchallObj(t, map[string]string{"participantName": "Maria"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("anonymous join failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var anonJoin joinResponse
	decodeBody(t, rec, &anonJoin)

	// the authenticated student raises a silent hand
	req, rec = newAuthRequest(http.MethodPost, "/v1/meet/sessions/"+created.ID+"/feedback", getToken(t, student))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("feedback failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}

	// teacher's poll sees it
	req, rec = newRequest(http.MethodGet, "/v1/meet/sessions/"+created.ID+"/feedback")
	app.ServeHTTP(rec, req)
	var list feedbackListResponse
	decodeBody(t, rec, &list)
	if list.ConfusedCount != 1 {
		t.Fatalf("confusedCount = %v, want 1", list.ConfusedCount)
	}

	// teacher ends the class
	req, rec = newAuthRequest(http.MethodPatch, "/v1/meet/sessions/"+created.ID+"/end", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("end failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}

	// cleanup runs async off the completion event; attendance closure is its
	// last action, so poll for it before asserting the rest
	var report struct {
		Attendance []struct {
			ID     string `json:"id"`
			LeftAt string `json:"leftAt"`
		} `json:"attendance"`
	}
	deadline := time.After(2 * time.Second)
	for {
		req, rec = newAuthRequest(http.MethodGet, "/v1/meet/sessions/"+created.ID+"/attendance", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("attendance failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		report.Attendance = report.Attendance[:0]
		decodeBody(t, rec, &report)

		open := false
		for _, r := range report.Attendance {
			if r.LeftAt == "" {
				open = true
			}
		}
		if !open {
			break
		}
		select {
		case <-deadline:
			t.Fatal("cleanup did not close attendance in time")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(report.Attendance) != 2 {
		t.Fatalf("got %v attendance records, want 2", len(report.Attendance))
	}

	req, rec = newRequest(http.MethodGet, "/v1/meet/sessions/"+created.ID+"/feedback")
	app.ServeHTTP(rec, req)
	decodeBody(t, rec, &list)
	if list.ConfusedCount != 0 {
		t.Errorf("confusedCount = %v, want 0 after cleanup", list.ConfusedCount)
	}
}

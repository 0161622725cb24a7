package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/tadeufagundes/go-geo-meet/apps/api/echo"
	"github.com/tadeufagundes/go-geo-meet/core"
	"github.com/tadeufagundes/go-geo-meet/core/attendance"
	"github.com/tadeufagundes/go-geo-meet/core/cleanup"
	"github.com/tadeufagundes/go-geo-meet/core/feedback"
	"github.com/tadeufagundes/go-geo-meet/core/session"
	emailsvc "github.com/tadeufagundes/go-geo-meet/services/email"
	dummydb "github.com/tadeufagundes/go-geo-meet/storage/database/dummy"
	testutil "github.com/tadeufagundes/go-geo-meet/tests"
)

var (
	conf *core.Config

	sessRepo session.Repository
	attRepo  attendance.Repository

	teacher = core.Identity{ID: "teacher-1", Name: "Ana", Email: "ana@escola.br"}
	rival   = core.Identity{ID: "teacher-2", Name: "Rui", Email: "rui@escola.br"}
	student = core.Identity{ID: "student-1", Name: "João"}
)

func setup(t *testing.T) Server {
	t.Helper()

	conf = testutil.NewConfig()

	// set up DB & repos
	db := dummydb.Open()
	sr := dummydb.NewSessionRepository(db)
	sessRepo = sr
	attRepo = dummydb.NewAttendanceRepository(db)

	// set up services
	events := core.NewSessionEvents()
	t.Cleanup(events.Close)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	sessSvc := session.NewService(sessRepo, events, mailSvc, conf)
	attSvc := attendance.NewService(attRepo, sr)
	fbSvc := feedback.NewService(dummydb.NewFeedbackRepository(db), sr)

	// lifecycle cleanup worker, as wired in production
	cleanCtx, stopClean := context.WithCancel(context.Background())
	t.Cleanup(stopClean)
	go cleanup.NewCleaner(fbSvc, attSvc, testutil.NewLogger()).Run(cleanCtx, events.Subscribe())

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	// set up server
	return NewServer(
		ServerDeps{
			Conf:           conf,
			Logger:         testutil.NewLogger(),
			SessionSvc:     sessSvc,
			AttendanceSvc:  attSvc,
			FeedbackSvc:    fbSvc,
			Validate:       validate,
			Translator:     translator,
			DisableReqLogs: true,
		},
	)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpTest struct {
	name        string
	method      string
	path        string
	body        []byte
	token       string
	wantCode    int
	wantErrCode string
	extra       interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, id core.Identity) string {
	t.Helper()

	claims := GetIdentityClaims(conf, id)
	token, err := GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decodeBody() failed: %v; body = %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

// errEnvelope mirrors the API error response; timestamp and requestId vary
// per request so assertions only pin code and userMessage.
type errEnvelope struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	UserMessage string `json:"userMessage"`
}

func checkError(t *testing.T, rec *httptest.ResponseRecorder, wantCode int, wantErrCode string) {
	t.Helper()

	if rec.Code != wantCode {
		t.Fatalf("failed! code = %v; wantCode %v; body = %s", rec.Code, wantCode, rec.Body.String())
	}
	var env errEnvelope
	decodeBody(t, rec, &env)
	if env.Code != wantErrCode {
		t.Errorf("failed! error code = %q; want %q", env.Code, wantErrCode)
	}
	if env.UserMessage == "" {
		t.Error("failed! error userMessage is empty")
	}
}

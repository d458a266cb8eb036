package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/blogclass/apps/api/echo"
	"github.com/trezcool/blogclass/core/student"
	testutil "github.com/trezcool/blogclass/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

func setup(t *testing.T) (*Server, *testutil.App) {
	app := testutil.NewApp(t)
	srv := NewServer(
		"",  /* addr */
		nil, /* shutdown */
		&Deps{
			Conf:          app.Conf,
			Logger:        app.Logger,
			Validate:      app.Validate,
			Translator:    app.Translator,
			StudentSvc:    app.StudentSvc,
			AttendanceSvc: app.AttendanceSvc,
			GrowthSvc:     app.GrowthSvc,
			PointsSvc:     app.PointsSvc,
			VODSvc:        app.VODSvc,
			QnASvc:        app.QnASvc,
			ConsultSvc:    app.ConsultSvc,
			EarningSvc:    app.EarningSvc,
			DashboardSvc:  app.DashboardSvc,
		},
	)
	return srv, app
}

// createStudents creates an active student & an active coach.
func createStudents(t *testing.T, app *testutil.App) (st, coach student.Student) {
	st = testutil.CreateStudent(t, app.StudentRepo, "김블로그", "blogger", "blogger@test.kr", testutil.Password, []string{student.RoleStudent}, true)
	coach = testutil.CreateStudent(t, app.StudentRepo, "코치", "coach", "coach@test.kr", testutil.Password, []string{student.RoleAdminCoach}, true)
	return st, coach
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
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

// do serves the request & decodes the JSON response into v, when not nil.
func do(t *testing.T, srv *Server, method, path, token string, body []byte, v interface{}) int {
	req, rec := newAuthRequest(method, path, token, body)
	srv.ServeHTTP(rec, req)
	if v != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
			t.Fatalf("%s %s: decoding %q failed: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

func getToken(t *testing.T, app *testutil.App, st student.Student) string {
	token, err := GenerateToken(app.Conf, NewClaims(app.Conf, st))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
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
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "code")
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHttpTests(t *testing.T, srv *Server, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

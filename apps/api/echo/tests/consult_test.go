package tests

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/blogclass/core/consult"
	"github.com/trezcool/blogclass/core/student"
	testutil "github.com/trezcool/blogclass/tests"
)

func Test_consultApi(t *testing.T) {
	srv, app := setup(t)
	st, coach := createStudents(t, app)
	other := testutil.CreateStudent(t, app.StudentRepo, "다른", "other", "other@test.kr", testutil.Password, []string{student.RoleStudent}, true)
	token := getToken(t, app, st)
	otherToken := getToken(t, app, other)
	coachToken := getToken(t, app, coach)

	tomorrow := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Minute)
	newSlots := consult.NewSlots{Coach: "김코치", DurationMin: 30, StartsAt: []time.Time{tomorrow, tomorrow.Add(time.Hour)}}

	runHttpTests(t, srv, []httpTest{
		{name: "Admin required", method: http.MethodPost, path: "/v1/admin/consultations/slots", token: token, body: marchallObj(t, newSlots), wantCode: http.StatusForbidden},
		{
			name: "past slot", method: http.MethodPost, path: "/v1/admin/consultations/slots", token: coachToken,
			body:     marchallObj(t, consult.NewSlots{Coach: "김코치", DurationMin: 30, StartsAt: []time.Time{time.Now().Add(-time.Hour)}}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"starts_at": "slots must start in the future (#1)"}),
		},
	})

	var slots []consult.Slot
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/v1/admin/consultations/slots", coachToken, marchallObj(t, newSlots), &slots))
	require.Len(t, slots, 2)
	first, second := slots[0], slots[1]

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/consultations/slots", token, nil, &slots))
	assert.Len(t, slots, 2)

	topic := consult.BookInput{Topic: "수익화 상담"}
	var booked consult.Slot
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/v1/consultations/slots/"+first.ID+"/book", token, marchallObj(t, topic), &booked))
	assert.Equal(t, consult.StatusBooked, booked.Status)
	assert.Equal(t, st.ID, booked.StudentID)
	assert.Equal(t, topic.Topic, booked.Topic)

	sent := app.Mail.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "booking_confirmed", sent[0].TemplateName)

	slotUnavailable := marchallObj(t, httpErr{Error: "slot is no longer available"})
	runHttpTests(t, srv, []httpTest{
		{
			name: "topic required", method: http.MethodPost, path: "/v1/consultations/slots/" + second.ID + "/book", token: otherToken,
			body: marchallObj(t, consult.BookInput{}), wantCode: http.StatusBadRequest,
		},
		{
			name: "taken", method: http.MethodPost, path: "/v1/consultations/slots/" + first.ID + "/book", token: otherToken,
			body: marchallObj(t, topic), wantCode: http.StatusConflict, wantData: slotUnavailable,
		},
		{
			name: "one upcoming consultation at a time", method: http.MethodPost, path: "/v1/consultations/slots/" + second.ID + "/book", token: token,
			body: marchallObj(t, topic), wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "you already have an upcoming consultation"}),
		},
		{name: "cannot unbook others", method: http.MethodDelete, path: "/v1/consultations/slots/" + first.ID + "/book", token: otherToken, wantCode: http.StatusNotFound},
		{name: "coaches cannot book", method: http.MethodPost, path: "/v1/consultations/slots/" + second.ID + "/book", token: coachToken, body: marchallObj(t, topic), wantCode: http.StatusForbidden},
	})

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/consultations/slots", token, nil, &slots))
	require.Len(t, slots, 1)
	assert.Equal(t, second.ID, slots[0].ID)

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/consultations/mine", token, nil, &slots))
	require.Len(t, slots, 1)
	assert.Equal(t, first.ID, slots[0].ID)

	var released consult.Slot
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodDelete, "/v1/consultations/slots/"+first.ID+"/book", token, nil, &released))
	assert.Equal(t, consult.StatusOpen, released.Status)
	assert.Empty(t, released.StudentID)
	assert.Empty(t, released.Topic)

	// other books the released slot, then the coach cancels it
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/v1/consultations/slots/"+first.ID+"/book", otherToken, marchallObj(t, topic), &booked))
	app.Mail.Reset()

	var cancelled consult.Slot
	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, do(t, srv, http.MethodDelete, "/v1/admin/consultations/slots/"+first.ID, coachToken, nil, &cancelled))
		assert.Equal(t, consult.StatusCancelled, cancelled.Status)
	}
	sent = app.Mail.SentMessages()
	require.Len(t, sent, 1) // notified once
	assert.Equal(t, "slot_cancelled", sent[0].TemplateName)
	assert.Equal(t, other.Email, sent[0].To[0].Address)

	runHttpTests(t, srv, []httpTest{
		{
			name: "cancelled", method: http.MethodPost, path: "/v1/consultations/slots/" + first.ID + "/book", token: token,
			body: marchallObj(t, topic), wantCode: http.StatusConflict, wantData: slotUnavailable,
		},
	})

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/admin/consultations/slots?status=cancelled", coachToken, nil, &slots))
	require.Len(t, slots, 1)
	assert.Equal(t, first.ID, slots[0].ID)

	from := url.QueryEscape(tomorrow.Add(30 * time.Minute).Format(time.RFC3339))
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/admin/consultations/slots?from="+from, coachToken, nil, &slots))
	require.Len(t, slots, 1)
	assert.Equal(t, second.ID, slots[0].ID)

	runHttpTests(t, srv, []httpTest{
		{
			name: "malformed from", path: "/v1/admin/consultations/slots?from=tomorrow", token: coachToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "from must be an RFC 3339 time"}),
		},
		{
			name: "malformed created_from", path: "/v1/admin/students?created_from=2024-13-01", token: coachToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "created_from must be an RFC 3339 time"}),
		},
	})
}

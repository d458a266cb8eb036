package student

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/blogclass/core"
)

func TestMakeVerifyToken(t *testing.T) {
	secret := []byte("secret")
	timeout := 3 * 24 * time.Hour

	now := time.Now()
	st := Student{
		ID:        "8f3c2b4e-7c1a-4a5e-9d3f-1b2c3d4e5f60",
		Name:      "김민수",
		Username:  "minsu",
		Email:     "minsu@test.test",
		CreatedAt: now,
		UpdatedAt: now,
		LastLogin: now,
	}
	_ = st.SetPassword("pwd")

	validToken, err := makeToken(secret, st)
	assert.NoError(t, err)

	// generate an expired token
	dayLate := timeout + (24 * time.Hour)
	core.NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := makeToken(secret, st)
	assert.NoError(t, err)
	core.NowFunc = time.Now // reset

	loggedIn := st
	loggedIn.LastLogin = now.Add(time.Minute)

	tests := []struct {
		name    string
		st      Student
		secret  []byte
		token   string
		wantErr error
	}{
		{name: "no token", st: st, secret: secret, wantErr: errInvalidToken},
		{name: "invalid parts len", st: st, secret: secret, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", st: st, secret: secret, token: "hahaha-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid timestamp", st: st, secret: secret, token: "NRXWY-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid token", st: st, secret: secret, token: "HE4TS-sigsig-sig", wantErr: errInvalidToken},
		{name: "other secret", st: st, secret: []byte("other"), token: validToken, wantErr: errInvalidToken},
		{name: "logged in since", st: loggedIn, secret: secret, token: validToken, wantErr: errInvalidToken},
		{name: "expired token", st: st, secret: secret, token: expiredToken, wantErr: errTokenExpired},
		{name: "valid token", st: st, secret: secret, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, verifyToken(tt.secret, timeout, tt.st, tt.token))
		})
	}
}

func TestEncodeDecodeUID(t *testing.T) {
	st := Student{ID: "8f3c2b4e-7c1a-4a5e-9d3f-1b2c3d4e5f60"}
	id, err := decodeUID(EncodeUID(st))
	assert.NoError(t, err)
	assert.Equal(t, st.ID, id)

	_, err = decodeUID("!!!")
	assert.Error(t, err)
}

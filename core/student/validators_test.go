package student_test

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/student"
)

func TestNewStudent_validation(t *testing.T) {
	translator := core.NewTranslator()
	validate := core.NewValidate(translator)
	student.InitValidators(validate, translator)
	student.LoadCommonPasswords(strings.NewReader("password1!\nQwerty#123\n"), nil)

	valid := student.NewStudent{
		Name:            "김블로그",
		Username:        "blogger",
		Email:           "blogger@test.kr",
		Password:        "Blog#Master2024",
		PasswordConfirm: "Blog#Master2024",
		Roles:           []string{student.RoleStudent},
	}
	tests := []struct {
		name     string
		modify   func(ns *student.NewStudent)
		wantErrs map[string]string
	}{
		{name: "valid", modify: func(ns *student.NewStudent) {}},
		{
			name:     "username or email",
			modify:   func(ns *student.NewStudent) { ns.Username, ns.Email = "", "" },
			wantErrs: map[string]string{"username": "one of username or email is required", "email": "one of username or email is required"},
		},
		{
			name:     "short password",
			modify:   func(ns *student.NewStudent) { ns.Password, ns.PasswordConfirm = "Ab#1", "Ab#1" },
			wantErrs: map[string]string{"password": "password must contain at least 8 characters"},
		},
		{
			name:     "numeric password",
			modify:   func(ns *student.NewStudent) { ns.Password, ns.PasswordConfirm = "12345678", "12345678" },
			wantErrs: map[string]string{"password": "password cannot be entirely numeric"},
		},
		{
			name:   "simple password",
			modify: func(ns *student.NewStudent) { ns.Password, ns.PasswordConfirm = "blogmaster", "blogmaster" },
			wantErrs: map[string]string{
				"password": "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character",
			},
		},
		{
			name:     "similar password",
			modify:   func(ns *student.NewStudent) { ns.Password, ns.PasswordConfirm = "Blogger#1", "Blogger#1" },
			wantErrs: map[string]string{"password": "password cannot be similar to the student's name, username or email"},
		},
		{
			name:     "common password",
			modify:   func(ns *student.NewStudent) { ns.Password, ns.PasswordConfirm = "Qwerty#123", "Qwerty#123" },
			wantErrs: map[string]string{"password": "password is too common"},
		},
		{
			name:     "unknown role",
			modify:   func(ns *student.NewStudent) { ns.Roles = []string{"admin:king"} },
			wantErrs: map[string]string{"roles": "invalid roles"},
		},
		{
			name:     "bad username",
			modify:   func(ns *student.NewStudent) { ns.Username = "blog ger" },
			wantErrs: map[string]string{"username": "only alphanumeric characters and underscores are allowed"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := valid
			tt.modify(&ns)
			err := validate.Struct(ns)
			if tt.wantErrs == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			vErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok)
			got := make(map[string]string, len(vErrs))
			for _, fe := range vErrs {
				got[fe.Field()] = fe.Translate(translator)
			}
			for field, msg := range tt.wantErrs {
				assert.Equal(t, msg, got[field], field)
			}
		})
	}
}

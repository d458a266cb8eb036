package emailsvc

import (
	"io/ioutil"
	"log"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/blogclass/core"
	appfs "github.com/trezcool/blogclass/fs"
	logsvc "github.com/trezcool/blogclass/services/logger"
)

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, logger, true)
	svc := NewConsoleServiceMock(conf, logger)

	svc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: "김하나", Address: "hana@example.com"}},
			Subject:      "비밀번호 재설정 안내",
			TemplateName: "password_reset",
			TemplateData: map[string]interface{}{
				"Name": "김하나",
				"URL":  "http://localhost:3000/password-reset/uid/token",
			},
		},
		&core.EmailMessage{Subject: "no recipient", BodyStr: "dropped"},
		&core.EmailMessage{To: []mail.Address{{Address: "a@b.c"}}, Subject: "plain", BodyStr: "hello"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0].TextContent, "김하나")
	assert.Contains(t, sent[0].TextContent, "http://localhost:3000/password-reset/uid/token")
	assert.Contains(t, sent[0].HTMLContent, "http://localhost:3000/password-reset/uid/token")
	assert.Equal(t, "hello", sent[1].TextContent)
	assert.Empty(t, sent[1].HTMLContent)

	svc.Reset()
	assert.Empty(t, svc.SentMessages())
}

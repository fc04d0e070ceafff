package utils

import (
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendParcelStatusEmail(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	mailer := NewMailer("noreply@sendit.test", "pw", "smtp.sendit.test", "587", "http://localhost:8080/").
		WithSender(func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
			gotAddr, gotTo, gotMsg = addr, to, string(msg)
			return nil
		})

	require.NoError(t, mailer.SendParcelStatusEmail("a@x.com", "<b>box</b>", 7, "Pending", "Delivered"))

	assert.Equal(t, "smtp.sendit.test:587", gotAddr)
	assert.Equal(t, []string{"a@x.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Parcel #7 is now Delivered - SendIT\r\n")
	assert.Contains(t, gotMsg, "&lt;b&gt;box&lt;/b&gt;")
	assert.Contains(t, gotMsg, "http://localhost:8080/parcels/7")
}

func TestSendEmailRequiresConfiguration(t *testing.T) {
	err := NewMailer("", "", "", "", "").SendParcelStatusEmail("a@x.com", "box", 1, "Pending", "Delivered")
	assert.Error(t, err)
}

// Package mail delivers one-time login codes. Codes are queued in the
// mail_deliveries outbox by the login flow and sent by the Dispatcher, so a
// slow or failing mail server never holds up a login request.
package mail

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
	"text/template"
	"time"

	"github.com/smartplant/auth/pkg/idx"
)

const (
	// DefaultFromName is the display name on outgoing mail.
	DefaultFromName = "SmartPlant Sarawak"

	oneTimeCodeSubject = "Your Login Verification Code"
)

// Message is a rendered email with a plain-text and an HTML part.
type Message struct {
	From    mail.Address
	To      string
	Subject string
	Text    string
	HTML    string
}

var textTmpl = template.Must(template.New("code.txt").Parse(`Hello {{.Username}},

You requested to log in to your SmartPlant account. Use this verification code to complete your login:

    {{.Code}}

This code will expire in {{.Minutes}} minutes.

If you didn't attempt to log in, ignore this email or contact support.
Never share this code with anyone. SmartPlant staff will never ask for it.

SmartPlant Sarawak
`))

var htmlTmpl = htmltemplate.Must(htmltemplate.New("code.html").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>SmartPlant Sarawak</h1>
    <p>Hello {{.Username}},</p>
    <p>You requested to log in to your SmartPlant account. Use the verification code below to complete your login:</p>
    <p style="font-size: 32px; font-weight: bold; letter-spacing: 8px;">{{.Code}}</p>
    <p><strong>This code will expire in {{.Minutes}} minutes.</strong></p>
    <p>If you didn't attempt to log in, ignore this email or contact support if you're concerned about your account security.</p>
    <p style="color: #e74c3c; font-size: 14px;">Never share this code with anyone. SmartPlant staff will never ask for your verification code.</p>
  </div>
</body>
</html>
`))

// RenderOneTimeCode builds the verification code email. From is left for
// the sender to fill in.
func RenderOneTimeCode(to, username, code string, ttl time.Duration) (Message, error) {
	if strings.TrimSpace(username) == "" {
		username = "there"
	}
	data := struct {
		Username string
		Code     string
		Minutes  int
	}{username, code, int(ttl / time.Minute)}

	var text, html bytes.Buffer
	if err := textTmpl.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render text body: %w", err)
	}
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render html body: %w", err)
	}

	return Message{
		To:      to,
		Subject: oneTimeCodeSubject,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

// Bytes encodes m as a multipart/alternative RFC 5322 message.
func (m Message) Bytes(now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }
	hdr("From", m.From.String())
	hdr("To", m.To)
	hdr("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	hdr("Date", now.Format(time.RFC1123Z))
	hdr("Message-ID", "<"+idx.NewAt(now).String()+"@"+domainOf(m.From.Address)+">")
	hdr("MIME-Version", "1.0")
	hdr("Content-Type", "multipart/alternative; boundary="+mw.Boundary())
	buf.WriteString("\r\n")

	for _, part := range []struct{ ctype, body string }{
		{"text/plain; charset=utf-8", m.Text},
		{"text/html; charset=utf-8", m.HTML},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.ctype},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, err
		}
		qp := quotedprintable.NewWriter(w)
		if _, err := qp.Write([]byte(part.body)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func domainOf(addr string) string {
	if at := strings.LastIndexByte(addr, '@'); at >= 0 && at < len(addr)-1 {
		return addr[at+1:]
	}
	return "localhost"
}

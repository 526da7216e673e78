package report

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESMailerSend(t *testing.T) {
	ses := &fakeSES{}
	m := NewSESMailerWithClient(ses, "reports@adlens.io")
	m.now = func() time.Time { return time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC) }

	attachment := []byte(strings.Repeat("report-bytes ", 20))
	err := m.Send(context.Background(), Message{
		To:      []string{"a@example.com", "b@example.com"},
		Subject: "AdLens report: März",
		Text:    "plain body",
		HTML:    "<p>html body</p>",
		Attachment: &Attachment{
			Filename:    "adlens-20240301-20240303.csv",
			ContentType: "text/csv; charset=utf-8",
			Data:        attachment,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, ses.input)
	assert.Equal(t, "reports@adlens.io", aws.ToString(ses.input.FromEmailAddress))
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, ses.input.Destination.ToAddresses)

	msg, err := mail.ReadMessage(strings.NewReader(string(ses.input.Content.Raw.Data)))
	require.NoError(t, err)
	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "AdLens report: März", subject)

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	mr := multipart.NewReader(msg.Body, params["boundary"])
	body, err := mr.NextPart()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(body.Header.Get("Content-Type"), "multipart/alternative"))

	att, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "adlens-20240301-20240303.csv", att.FileName())
	encoded, err := io.ReadAll(att)
	require.NoError(t, err)
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(encoded), "\r\n", ""))
	require.NoError(t, err)
	assert.Equal(t, attachment, decoded)

	_, err = mr.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSESMailerErrors(t *testing.T) {
	m := NewSESMailerWithClient(&fakeSES{}, "reports@adlens.io")
	err := m.Send(context.Background(), Message{Subject: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	m = NewSESMailerWithClient(&fakeSES{err: errors.New("throttled")}, "reports@adlens.io")
	err = m.Send(context.Background(), Message{To: []string{"a@example.com"}, Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestValidateRecipients(t *testing.T) {
	got, err := ValidateRecipients([]string{" Ann <ann@example.com>", "bob@example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ann@example.com", "bob@example.com"}, got)

	_, err = ValidateRecipients(nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ValidateRecipients([]string{"not-an-address"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

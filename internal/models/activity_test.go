package models

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/encodex/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityRecord_TypedPayloadSurvivesStorage(t *testing.T) {
	a := &Activity{
		ID: "1", At: time.UnixMilli(42).UTC(), Actor: "a@b.c",
		Payload: UploadPayload{Filename: "x.pdf", Category: CategoryLegal, DocType: DocTypePDF},
	}
	rec, err := a.ToRecord()
	require.NoError(t, err)
	assert.Equal(t, ActivityUpload, rec.Type)

	back, err := rec.FromRecord()
	require.NoError(t, err)

	up, ok := back.Payload.(UploadPayload)
	require.True(t, ok, "payload should decode to UploadPayload, got %T", back.Payload)
	assert.Equal(t, "x.pdf", up.Filename)
}

func TestActivityRecord_EmptyPayloadKinds(t *testing.T) {
	back, err := ActivityRecord{ID: "2", Type: ActivityLogin}.FromRecord()
	require.NoError(t, err)
	assert.Equal(t, LoginPayload{}, back.Payload)
}

func TestActivityRecord_UnknownType(t *testing.T) {
	_, err := ActivityRecord{ID: "3", Type: "FORMAT_DISK"}.FromRecord()
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestActivity_NilPayloadRejected(t *testing.T) {
	_, err := (&Activity{ID: "4"}).ToRecord()
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestTokenPrefix(t *testing.T) {
	assert.Equal(t, "abcdefgh", TokenPrefix("abcdefghijklmnop"))
	assert.Equal(t, "abc", TokenPrefix("abc"))
}

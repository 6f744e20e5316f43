package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
)

func TestMarkAppliedIsPermanent(t *testing.T) {
	doc := NewDocument()
	require.False(t, doc.IsApplied())

	now := time.Now()
	require.NoError(t, doc.MarkApplied("alice", now))
	assert.True(t, doc.IsApplied())
	assert.Equal(t, "alice", doc.AppliedBy)

	// Second application must be rejected, marker untouched.
	err := doc.MarkApplied("bob", now.Add(time.Minute))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeAlreadyApplied, appErr.Code)
	assert.Equal(t, "alice", doc.AppliedBy)
	assert.Equal(t, now.UTC(), *doc.AppliedAt)
}

func TestCanModifyFrozenAfterApply(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.CanModify())

	require.NoError(t, doc.MarkApplied("alice", time.Now()))
	assert.True(t, apperror.IsAlreadyApplied(doc.CanModify()))
}

func TestRecordTransitionAppends(t *testing.T) {
	doc := NewDocument()
	v := doc.Version

	doc.RecordTransition("draft", "processing", "alice")
	doc.RecordTransition("processing", "completed", "alice")

	require.Len(t, doc.ChangeLog, 2)
	last, ok := doc.ChangeLog.Last()
	require.True(t, ok)
	assert.Equal(t, "processing", last.From)
	assert.Equal(t, "completed", last.To)
	assert.Equal(t, v+2, doc.Version)
}

func TestTransitionsAllowed(t *testing.T) {
	table := Transitions{
		"draft":      {"processing", "cancelled"},
		"processing": {"completed"},
	}

	assert.True(t, table.Allowed("draft", "processing"))
	assert.True(t, table.Allowed("processing", "completed"))
	assert.False(t, table.Allowed("completed", "draft"))
	assert.False(t, table.Allowed("draft", "completed"))
	assert.False(t, table.Allowed("unknown", "processing"))
}

func TestChangeLogRoundTrip(t *testing.T) {
	log := ChangeLog{}.Append(StatusChange{From: "draft", To: "processing", At: time.Now().UTC()})

	raw, err := log.Value()
	require.NoError(t, err)

	var restored ChangeLog
	require.NoError(t, restored.Scan(raw))
	require.Len(t, restored, 1)
	assert.Equal(t, "processing", restored[0].To)
}

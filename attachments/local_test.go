package attachments_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/attachments"
	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

func newLocal(t *testing.T) *attachments.Local {
	t.Helper()
	l, err := attachments.NewLocal(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	return l
}

func TestLocal_PutOpenDelete(t *testing.T) {
	// GIVEN: A PDF for pm-1's March
	// WHEN: Storing, reading back and deleting it
	// THEN: The bytes round-trip and a deleted reference is NotFound

	l := newLocal(t)
	ctx := context.Background()
	key := timesheet.Key{UserID: "pm-1", Year: 2025, Month: 3}

	ref, err := l.Put(ctx, key, timesheet.Upload{Filename: "march.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "pm-1/2025-03/"), ref)
	assert.True(t, strings.HasSuffix(ref, ".pdf"), ref)

	rc, err := l.Open(ctx, ref)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, l.Delete(ctx, ref))
	require.NoError(t, l.Delete(ctx, ref), "deleting twice is fine")

	_, err = l.Open(ctx, ref)
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestLocal_UserIDIsSanitized(t *testing.T) {
	l := newLocal(t)
	ref, err := l.Put(context.Background(), timesheet.Key{UserID: "../../etc", Year: 2025, Month: 3}, timesheet.Upload{Data: []byte("x")})
	require.NoError(t, err)
	assert.False(t, strings.Contains(ref, ".."), ref)

	_, err = os.Stat(filepath.Join(l.Dir, filepath.FromSlash(ref)))
	assert.NoError(t, err)
}

func TestLocal_RejectsEscapingReferences(t *testing.T) {
	l := newLocal(t)
	for _, ref := range []string{"../secret.pdf", "/etc/passwd", "..", ""} {
		_, err := l.Open(context.Background(), ref)
		assert.ErrorIs(t, err, generic.ErrValidationFailed, ref)
	}
}

func TestLocal_PutHonorsCancellation(t *testing.T) {
	l := newLocal(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Put(ctx, timesheet.Key{UserID: "u", Year: 2025, Month: 3}, timesheet.Upload{Data: []byte("x")})
	assert.ErrorIs(t, err, context.Canceled)
}

package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"sheetdiff/domain/core"
)

func TestWrapKeepsInnerCode(t *testing.T) {
	inner := LoadError("a.xlsx", fmt.Errorf("zip: not a valid zip file"))
	wrapped := Wrap(inner, "loading baseline")

	assert.Equal(t, CodeLoadError, GetCode(wrapped))
	assert.Contains(t, wrapped.Error(), "zip: not a valid zip file")

	plain := Wrap(stderrors.New("boom"), "doing thing")
	assert.Equal(t, CodeInternalError, GetCode(plain))
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestGetCodeThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", SaveError("/tmp/x.xlsx", stderrors.New("disk full")))
	assert.Equal(t, CodeSaveError, GetCode(err))
	assert.True(t, IsAppError(err))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}

func TestSentinelsReachable(t *testing.T) {
	assert.ErrorIs(t, NotFound("baseline.xlsx"), core.ErrNotFound)
	assert.ErrorIs(t, SheetNotFound("Data", "b.xlsx"), core.ErrNotFound)
	assert.ErrorIs(t, DuplicateKey("baseline", "(1)", 4, 9), core.ErrDuplicateKey)
}

func TestCheckContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	assert.NoError(t, CheckContext(ctx, "row matching"))
	cancel()

	err := CheckContext(ctx, "row matching")
	assert.True(t, HasCode(err, CodeCancelled))
	assert.True(t, core.IsCancelled(err))
	assert.ErrorIs(t, err, context.Canceled)
}

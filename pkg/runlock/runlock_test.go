package runlock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keithkandiawan/personal-finance/internal/apperrors"
	"github.com/keithkandiawan/personal-finance/pkg/runlock"
)

func TestAcquireAndRelease(t *testing.T) {
	dir := t.TempDir()

	lock, err := runlock.Acquire(dir, "ingest")
	require.NoError(t, err)
	require.NotNil(t, lock)
	require.NoError(t, lock.Unlock())

	// Released lock can be taken again.
	lock2, err := runlock.Acquire(dir, "ingest")
	require.NoError(t, err)
	require.NoError(t, lock2.Unlock())
}

func TestContendedLockReportsHeld(t *testing.T) {
	dir := t.TempDir()

	lock, err := runlock.Acquire(dir, "ingest")
	require.NoError(t, err)
	defer lock.Unlock()

	_, err = runlock.Acquire(dir, "ingest")
	assert.ErrorIs(t, err, apperrors.ErrLockHeld)
}

func TestDifferentNamesDoNotContend(t *testing.T) {
	dir := t.TempDir()

	lock, err := runlock.Acquire(dir, "ingest")
	require.NoError(t, err)
	defer lock.Unlock()

	other, err := runlock.Acquire(dir, "rates")
	require.NoError(t, err)
	require.NoError(t, other.Unlock())
}

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestViewTrackerRecordAndLookup(t *testing.T) {
	v := NewViewTracker(24 * time.Hour)

	require.False(t, v.HasRecentView(1, "user:alice:session::ip:10.0.0.1"))

	v.RecordView(1, "user:alice:session::ip:10.0.0.1")
	require.True(t, v.HasRecentView(1, "user:alice:session::ip:10.0.0.1"))

	// Different viewer and different post are independent.
	require.False(t, v.HasRecentView(1, "user:bob:session::ip:10.0.0.2"))
	require.False(t, v.HasRecentView(2, "user:alice:session::ip:10.0.0.1"))
}

func TestViewTrackerEmptyViewer(t *testing.T) {
	v := NewViewTracker(24 * time.Hour)
	v.RecordView(1, "")
	require.False(t, v.HasRecentView(1, ""))
}

func TestViewTrackerTTLExpiry(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	v := NewViewTracker(24 * time.Hour)
	v.now = func() time.Time { return current }

	v.RecordView(7, "ip:192.0.2.1")
	require.True(t, v.HasRecentView(7, "ip:192.0.2.1"))

	current = current.Add(23 * time.Hour)
	require.True(t, v.HasRecentView(7, "ip:192.0.2.1"))

	current = current.Add(2 * time.Hour)
	require.False(t, v.HasRecentView(7, "ip:192.0.2.1"))

	// A fresh view after expiry counts again.
	v.RecordView(7, "ip:192.0.2.1")
	require.True(t, v.HasRecentView(7, "ip:192.0.2.1"))
}

func TestViewTrackerCleanupDropsExpired(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	v := NewViewTracker(time.Hour)
	v.now = func() time.Time { return current }

	v.RecordView(1, "a")
	v.RecordView(2, "b")
	current = current.Add(2 * time.Hour)
	v.RecordView(3, "c")

	v.cleanup()

	_, ok := v.records.Load(viewKey(1, "a"))
	require.False(t, ok)
	_, ok = v.records.Load(viewKey(2, "b"))
	require.False(t, ok)
	_, ok = v.records.Load(viewKey(3, "c"))
	require.True(t, ok)
}

func TestViewKeyFormat(t *testing.T) {
	require.Equal(t, "blog:12:user:alice:session:s1:ip:10.0.0.1", viewKey(12, "user:alice:session:s1:ip:10.0.0.1"))
}

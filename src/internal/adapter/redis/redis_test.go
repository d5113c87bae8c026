package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	goredislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *goredislib.Client {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestLockerTryLockIsExclusive(t *testing.T) {
	client := setupTestRedis(t)
	locker := NewLocker(client, time.Minute)
	ctx := context.Background()

	release, ok, err := locker.TryLock(ctx, "sweep")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok2, err := locker.TryLock(ctx, "sweep")
	require.NoError(t, err)
	assert.False(t, ok2, "second holder must be refused")

	release()

	release3, ok3, err := locker.TryLock(ctx, "sweep")
	require.NoError(t, err)
	assert.True(t, ok3, "lock is free after release")
	release3()
}

func TestLockerDifferentNamesDoNotContend(t *testing.T) {
	client := setupTestRedis(t)
	locker := NewLocker(client, time.Minute)
	ctx := context.Background()

	releaseA, okA, err := locker.TryLock(ctx, "a")
	require.NoError(t, err)
	releaseB, okB, err := locker.TryLock(ctx, "b")
	require.NoError(t, err)

	assert.True(t, okA)
	assert.True(t, okB)
	releaseA()
	releaseB()
}

func TestNotifierPublishesJSON(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, "ledger.notifications")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	notifier := NewNotifier(client, "ledger.notifications")
	err = notifier.Notify(ctx, domain.Notification{
		OwnerID:  "owner-1",
		Address:  "a@example.com",
		Template: domain.NotificationTransferCreated,
		Data:     map[string]any{"reference": "123"},
	})
	require.NoError(t, err)

	select {
	case msg := <-sub.Channel():
		var got domain.Notification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, "owner-1", got.OwnerID)
		assert.Equal(t, domain.NotificationTransferCreated, got.Template)
		assert.Equal(t, "123", got.Data["reference"])
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not published")
	}
}

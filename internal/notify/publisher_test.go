// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package notify_test

import (
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/itemcore/internal/itemtype"
	"github.com/holomush/itemcore/internal/notify"
	"github.com/holomush/itemcore/internal/world"
	"github.com/holomush/itemcore/pkg/errutil"
)

func startBroker(t *testing.T) *nats.Conn {
	t.Helper()
	srv, err := notify.NewServer(notify.WithPort(server.RANDOM_PORT))
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Shutdown)

	nc, err := notify.Connect(srv.ClientURL(), nil)
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return nc
}

func TestSubject(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		id     string
		want   string
	}{
		{name: "default prefix", id: "p1", want: notify.DefaultPrefix + ".p1"},
		{name: "custom prefix", prefix: "mud.items", id: "ann", want: "mud.items.ann"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := notify.Subject(tt.prefix, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, id := range []string{"", "a.b", "*", ">", "two words"} {
		_, err := notify.Subject("", id)
		errutil.AssertErrorCode(t, err, notify.CodeBadSubject)
	}
}

type failingConn struct{ calls int }

func (c *failingConn) Publish(string, []byte) error {
	c.calls++
	return errors.New("broker down")
}

func TestPublisher_CountsFailures(t *testing.T) {
	conn := &failingConn{}
	p, err := notify.NewPublisher(conn, "", "p1")
	require.NoError(t, err)

	p.Notify(world.Notification{Kind: world.NotifyAdd})
	p.Notify(world.Notification{Kind: world.NotifyRemove})

	assert.Equal(t, 2, conn.calls)
	assert.Equal(t, int64(2), p.Failures())
	assert.Equal(t, "p1", p.ObserverID())
	assert.Equal(t, notify.DefaultPrefix+".p1", p.Subject())
}

func TestPublisher_DeliversWorldNotifications(t *testing.T) {
	nc := startBroker(t)

	reg, err := itemtype.New([]itemtype.Type{
		{ID: 1, Name: "coin", Weight: 0.1, Stackable: true, Pickupable: true},
	})
	require.NoError(t, err)
	w, err := world.New(reg)
	require.NoError(t, err)

	events := make(chan notify.Event, 8)
	unsubscribe, err := notify.Subscribe(nc, "test", "p1", func(ev notify.Event) { events <- ev })
	require.NoError(t, err)
	defer unsubscribe()
	require.NoError(t, nc.Flush())

	pub, err := notify.NewPublisher(nc, "test", "p1")
	require.NoError(t, err)

	tile := w.NewTile(world.Position{X: 1, Y: 2, Z: 7})
	watcher := w.NewCreature("p1", "Ann", 100)
	watcher.SetObserver(pub)
	tile.AddThing(world.IndexWherever, watcher)

	coins, err := w.CreateItem(1, 12)
	require.NoError(t, err)
	_, rv := w.AddItem(tile, coins, world.IndexWherever, 0, false)
	require.Equal(t, world.NoError, rv)

	select {
	case ev := <-events:
		assert.Equal(t, notify.Event{
			Observer: "p1",
			Kind:     "add",
			Holder:   world.Describe(tile),
			Index:    0,
			Serial:   coins.Serial(),
			TypeID:   1,
			Count:    12,
		}, ev)
	case <-time.After(5 * time.Second):
		t.Fatal("no notification received")
	}
	assert.Zero(t, pub.Failures())
}

func TestSubscribe_Wildcard(t *testing.T) {
	nc := startBroker(t)

	events := make(chan notify.Event, 8)
	unsubscribe, err := notify.Subscribe(nc, "", "*", func(ev notify.Event) { events <- ev })
	require.NoError(t, err)
	defer unsubscribe()
	require.NoError(t, nc.Flush())

	serial := ulid.Make()
	for _, id := range []string{"a", "b"} {
		pub, err := notify.NewPublisher(nc, "", id)
		require.NoError(t, err)
		pub.Notify(world.Notification{Kind: world.NotifyUpdate, Serial: serial, Count: 3})
	}
	require.NoError(t, nc.Flush())

	seen := map[string]notify.Event{}
	for range 2 {
		select {
		case ev := <-events:
			seen[ev.Observer] = ev
		case <-time.After(5 * time.Second):
			t.Fatal("missing notification")
		}
	}
	require.Len(t, seen, 2)
	assert.Equal(t, "update", seen["a"].Kind)
	assert.Equal(t, serial, seen["b"].Serial)

	_, err = notify.Subscribe(nc, "", "a.b", func(notify.Event) {})
	errutil.AssertErrorCode(t, err, notify.CodeBadSubject)
}

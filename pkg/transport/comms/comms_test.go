package comms

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	commsserver "github.com/nats-io/nats-server/v2/server"
	nats "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/dispatcher"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/transport/event"
)

const (
	testPrefix = "comms:comms_test"
	testPort   = 14332
)

func setup(t *testing.T) *nats.Conn {
	t.Helper()

	ns, err := commsserver.NewServer(&commsserver.Options{
		Host:   "127.0.0.1",
		Port:   testPort,
		NoLog:  true,
		NoSigs: true,
	})
	require.NoError(t, err, "%s - failed to create NATS server", testPrefix)

	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatalf("%s - NATS server failed to start", testPrefix)
	}

	nc, err := nats.Connect(ns.ClientURL(), nats.Timeout(5*time.Second))
	if err != nil {
		ns.Shutdown()
		t.Fatalf("%s - failed to connect: %v", testPrefix, err)
	}

	res := registry.MustResource("stub resource", "1.0.0", registry.Action{
		Name:   "echo",
		Params: []registry.Param{registry.Required("text", registry.KindString, "")},
		Fn: func(_ context.Context, args registry.Args) (interface{}, error) {
			return args.String("text")
		},
	})
	reg := registry.NewRegistry()
	require.NoError(t, reg.Register("stub", res))

	sub := NewSubscriber(nc, dispatcher.NewDispatcher(reg), Options{Timeout: 5 * time.Second})
	require.NoError(t, sub.Start(context.Background()))

	t.Cleanup(func() {
		sub.Stop()
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	return nc
}

func request(t *testing.T, nc *nats.Conn, subject string, payload string, out interface{}) {
	t.Helper()
	msg, err := nc.Request(subject, []byte(payload), 5*time.Second)
	require.NoError(t, err, "%s - request on %s", testPrefix, subject)
	require.NoError(t, json.Unmarshal(msg.Data, out), "%s - reply: %s", testPrefix, msg.Data)
}

func TestSubscriber_Dispatch(t *testing.T) {
	nc := setup(t)

	var resp dispatcher.Response
	request(t, nc, "snowbird.dispatch", `{"id":"r1","resource":"stub","action":"echo","params":{"text":"hi"}}`, &resp)
	assert.True(t, resp.Ok)
	assert.Equal(t, "r1", resp.ID)
	assert.Equal(t, "hi", resp.Result)

	resp = dispatcher.Response{}
	request(t, nc, "snowbird.dispatch", `{"resource":"stub","action":"echo","params":{}}`, &resp)
	assert.False(t, resp.Ok)
	require.NotNil(t, resp.Error)
	assert.Equal(t, registry.CodeMissingParameter, resp.Error.Code)

	resp = dispatcher.Response{}
	request(t, nc, "snowbird.dispatch", `not json`, &resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, registry.CodeMalformedRequest, resp.Error.Code)
}

func TestSubscriber_Event(t *testing.T) {
	nc := setup(t)

	var resp event.Response
	request(t, nc, "snowbird.event", `{"body":"{\"resource\":\"stub\",\"action\":\"echo\",\"params\":{\"text\":\"hi\"}}"}`, &resp)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, `"hi"`, resp.Body)
}

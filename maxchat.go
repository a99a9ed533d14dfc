// Package maxchat provides a Go client for the Max web chat protocol.
//
// A [Session] holds one WebSocket connection to the chat service. It sends
// a versioned handshake on connect, tags every outbound [Envelope] with a
// strictly increasing sequence number, keeps the connection alive with
// periodic heartbeats, and dispatches inbound frames to a [Handler].
//
// # Thread Safety
//
// [Session] is safe for concurrent use by multiple goroutines. Sequence
// numbers are unique across all senders, but two concurrent sends may reach
// the wire in a different order than their numbers were issued.
// [Session.ReceiveLoop] should be run by a single goroutine.
//
// # Basic Usage
//
//	ctx := context.Background()
//
//	sess := maxchat.NewSession("wss://ws-api.oneme.ru/websocket", token,
//	    maxchat.WithWatchChats(42),
//	)
//	if err := sess.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.Stop()
//
//	if err := sess.SubscribeChannel(ctx, 42); err != nil {
//	    log.Fatal(err)
//	}
//	sess.StartKeepalive(ctx, 30*time.Second)
//
//	go sess.SendMessage(ctx, 42, "hello")
//
//	err := sess.ReceiveLoop(ctx, func(f maxchat.Frame) {
//	    op, _ := f.Opcode()
//	    fmt.Println(op, f.Payload())
//	})
//
// # Observability
//
// Use [WithLogger], [WithOnSend], and [WithOnReceive] to add logging and
// monitoring to the session:
//
//	sess := maxchat.NewSession(url, token,
//	    maxchat.WithLogger(slog.Default()),
//	    maxchat.WithOnSend(func(env *maxchat.Envelope) {
//	        metrics.EnvelopesSent.Inc()
//	    }),
//	)
package maxchat

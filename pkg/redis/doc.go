// Package redis connects to Redis and relays upload queue events to a
// pub/sub channel.
//
// The package wraps the go-redis client and adds:
//
//   - Connect, which retries the connection using the supplied configuration.
//   - Healthcheck, a readiness probe for pkg/httpserver.
//   - EventRelay, which publishes every queue event as JSON so dashboards and
//     other instances can follow uploads without polling.
//
// Redis is optional. Config.Enabled reports whether REDIS_URL is set; without it
// the application runs with the in-process event stream only.
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	relay, err := redis.NewEventRelay(client, cfg.EventChannel, redis.WithRelayLogger(log))
//	if err != nil {
//	    return err
//	}
//	g.Go(relay.Run(ctx, scheduler))
//
// Each message is the JSON encoding of uploadqueue.Event:
//
//	{"type":"progress","task":{"id":"…","name":"a.png","status":"uploading","progress":40,…},"at":"…"}
//
// # Errors
//
// Sentinel errors (e.g. ErrRedisNotReady) wrap the underlying go-redis errors
// using errors.Join, so they can be matched with errors.Is.
package redis

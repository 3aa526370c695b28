// Package natsclient manages the NATS connection used to fan validated
// sentences out to the rest of the system.
//
// The client wraps a single *nats.Conn. Connect honours the caller's
// context, reconnects are left to the nats.go library, and connection state
// transitions are tracked so that health reporting does not need to touch
// the underlying connection.
//
//	client, err := natsclient.NewClient("nats://localhost:4222",
//		natsclient.WithName("nmea-tcp-driver"),
//		natsclient.WithLogger(logger),
//	)
//	if err != nil {
//		return err
//	}
//	if err := client.Connect(ctx); err != nil {
//		return err
//	}
//	defer client.Close(context.Background())
//
//	err = client.Publish(ctx, "nmea.gps.gpgga", data)
//
// Publish and PublishMsg return ErrNotConnected while no connection is
// established, including during a library-managed reconnect.
package natsclient

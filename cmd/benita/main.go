// Command benita talks to Atlas Scientific EZO sensor circuits, either
// directly or across the network through a responder.
//
// Usage:
//
//	benita [-config FILE] [-env-file FILE] [-log-level LEVEL] <kind> <mode> [flags] [args]
//
// Kinds are conductivity, ph and temperature. Modes:
//
//	req     connect to a responder and send commands
//	rep     own the device and answer requesters until interrupted
//	sensor  drive the device directly, no network involved
//
// Examples:
//
//	# Serve the pH circuit on I2C bus 1, address 0x63
//	benita ph rep tcp://*:5557 /dev/i2c-1 0x63
//
//	# Serve a simulated temperature circuit with metrics and mDNS
//	benita temperature rep -simulate -metrics-addr :9100 -advertise tcp://*:5558
//
//	# One-shot batch against a responder
//	benita ph req -c read -c status tcp://sensors.local:5557
//
//	# Interactive session, URL taken from PH_REQ_URL
//	benita ph req
//
//	# Local session without a responder
//	benita temperature sensor /dev/ttyUSB0 9600
//
// Exit status is 0 on success, 1 when setup fails (socket, device, connection
// lost) and 2 on command-line errors. Failed commands are reported in the
// output and do not change the exit status.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := newApp().run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

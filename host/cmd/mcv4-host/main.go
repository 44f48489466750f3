package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"mcv4/host/bridge"
	"mcv4/host/client"
	"mcv4/host/serial"
)

var (
	device    = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud      = flag.Int("baud", serial.DefaultBaud, "Baud rate")
	timeout   = flag.Duration("timeout", client.DefaultTimeout, "Response timeout")
	evalOnly  = flag.Bool("e", false, "Run the command given as arguments and exit")
	runBridge = flag.Bool("bridge", false, "Publish board telemetry to MQTT instead of starting the console")
	mqttURL   = flag.String("mqtt", bridge.DefaultBrokerURL, "MQTT broker URL; the path is the topic prefix")
	interval  = flag.Duration("interval", bridge.DefaultInterval, "Bridge poll interval")
)

func init() {
	if val := os.Getenv("MCV4_MQTT_URL"); val != "" {
		*mqttURL = val
	}
}

func main() {
	flag.Parse()
	defer glog.Flush()

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	board, err := client.Dial(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer board.Close()
	board.SetTimeout(*timeout)

	if *runBridge {
		if err := bridgeMain(board); err != nil && err != context.Canceled {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	shell := ishell.New()
	shell.Set(clientKey, Board(board))
	for _, cmd := range commands {
		shell.AddCmd(cmd)
	}

	if *evalOnly {
		if flag.NArg() == 0 {
			fmt.Fprintln(os.Stderr, "Error: -e needs a command")
			os.Exit(2)
		}
		if err := shell.Process(flag.Args()...); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	shell.Println("MCv4B console on " + *device + " (help for commands)")
	shell.Run()
	shell.Close()
}

func bridgeMain(board *client.Client) error {
	pub, prefix, err := bridge.DialMQTT(*mqttURL)
	if err != nil {
		return err
	}
	defer pub.Close()

	b := bridge.New(board, pub, prefix)
	b.Interval = *interval

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	glog.Infof("publishing %s every %s", b.StatusTopic(), b.Interval.Round(time.Millisecond))
	return b.Run(ctx)
}

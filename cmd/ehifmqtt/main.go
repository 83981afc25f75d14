// Command ehifmqtt periodically publishes CC85xx status and statistics to an
// MQTT broker.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/soypat/cc85xx/internal/busflag"
	mqtt "github.com/soypat/natiu-mqtt"
	"github.com/urfave/cli/v2"
)

const (
	flagBroker   = "broker"
	flagTopic    = "topic"
	flagClientID = "client-id"
	flagInterval = "interval"
)

func main() {
	app := &cli.App{
		Name:  "ehifmqtt",
		Usage: "publish CC85xx telemetry over MQTT",
		Flags: append(busflag.Flags(),
			&cli.StringFlag{
				Name:    flagBroker,
				Value:   "test.mosquitto.org:1883",
				Usage:   "MQTT broker `HOST:PORT`",
				EnvVars: []string{"EHIF_MQTT_BROKER"},
			},
			&cli.StringFlag{
				Name:  flagTopic,
				Value: "cc85xx",
				Usage: "topic prefix",
			},
			&cli.StringFlag{
				Name:  flagClientID,
				Value: "ehifmqtt",
			},
			&cli.DurationFlag{
				Name:  flagInterval,
				Value: 5 * time.Second,
				Usage: "publish period",
			},
		),
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ehifmqtt:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logger := busflag.Logger(c)
	dev, closer, err := busflag.Open(c)
	if err != nil {
		return err
	}
	defer closer.Close()
	pub := &publisher{
		src:    dev,
		prefix: c.String(flagTopic),
		logger: logger,
	}

	cfg := mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 4096)},
		OnPub: func(pubHead mqtt.Header, varPub mqtt.VariablesPublish, r io.Reader) error {
			logger.Info("received message", slog.String("topic", string(varPub.TopicName)))
			return nil
		},
	}
	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte(c.String(flagClientID)))
	client := mqtt.NewClient(cfg)
	interval := c.Duration(flagInterval)

	// Connection loop for TCP+MQTT.
	for {
		if err := c.Context.Err(); err != nil {
			return err
		}
		logger.Info("mqtt:dial", slog.String("broker", c.String(flagBroker)))
		conn, err := net.DialTimeout("tcp", c.String(flagBroker), 10*time.Second)
		if err != nil {
			logger.Error("mqtt:dial-failed", slog.String("reason", err.Error()))
			time.Sleep(interval)
			continue
		}
		if err := connect(c.Context, client, conn, &varconn); err != nil {
			logger.Error("mqtt:connect-failed", slog.String("reason", err.Error()))
			conn.Close()
			time.Sleep(interval)
			continue
		}
		for client.IsConnected() {
			conn.SetDeadline(time.Now().Add(5 * time.Second))
			for _, msg := range pub.poll() {
				err = client.PublishPayload(pubFlags, mqtt.VariablesPublish{
					TopicName:        []byte(msg.topic),
					PacketIdentifier: pub.nextID(),
				}, msg.payload)
				if err != nil {
					logger.Error("mqtt:publish-failed", slog.Any("reason", err))
				}
			}
			time.Sleep(interval)
		}
		logger.Error("mqtt:disconnected", slog.Any("reason", client.Err()))
		conn.Close()
	}
}

var pubFlags, _ = mqtt.NewPublishFlags(mqtt.QoS0, false, false)

func connect(ctx context.Context, client *mqtt.Client, conn net.Conn, vc *mqtt.VariablesConnect) error {
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	if err := client.StartConnect(conn, vc); err != nil {
		return err
	}
	for retries := 10; retries > 0 && !client.IsConnected(); retries-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := client.HandleNext(); err != nil {
			return err
		}
	}
	if !client.IsConnected() {
		return fmt.Errorf("no CONNACK: %v", client.Err())
	}
	return nil
}

// mcclient is a thin command-line demo over the mc package: it loads a
// session from a YAML config file, connects, and performs one read or
// write against a single device.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"

	"melsec/mc"
	"melsec/mccache"
	"melsec/mcconfig"
	"melsec/mclog"
	"melsec/mcpublish"
	"melsec/mctransport"
)

func main() {
	configPath := flag.String("config", "mcclient.yaml", "path to session config file")
	sessionName := flag.String("session", "default", "session name within the config file")
	device := flag.String("device", "D100", "device name to read, e.g. D100")
	debugLog := flag.String("debug-log", "", "path to write a debug trace, empty disables it")
	writeWord := flag.Int("write", -1, "if >= 0, write this value to device as a UInt16 instead of reading")
	mqttBroker := flag.String("publish-mqtt", "", "MQTT broker host:port to publish the read value to, empty disables it")
	redisAddr := flag.String("cache-redis", "", "Redis/Valkey address to cache the read value in, empty disables it")
	flag.Parse()

	cfgFile, err := mcconfig.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcclient: %v\n", err)
		os.Exit(1)
	}
	cfg, ok := cfgFile.Sessions[*sessionName]
	if !ok {
		fmt.Fprintf(os.Stderr, "mcclient: no session named %q in %s\n", *sessionName, *configPath)
		os.Exit(1)
	}

	var logger *mclog.Logger
	if *debugLog != "" {
		logger, err = mclog.New(*debugLog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mcclient: %v\n", err)
			os.Exit(1)
		}
		defer logger.Close()
	}

	client, err := mc.NewClient(cfg, mctransport.New(), mc.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcclient: %v\n", err)
		os.Exit(1)
	}
	if err := client.Connect(); err != nil {
		fmt.Fprintf(os.Stderr, "mcclient: connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	addr, err := mc.NormalizeDeviceName(*device, mc.Word, cfg.Series)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcclient: %v\n", err)
		os.Exit(1)
	}
	format := mc.ValueFormat{Type: mc.UInt16}

	if *writeWord >= 0 {
		if err := client.WriteValue(addr, format, mc.NewUInt16Value(uint16(*writeWord))); err != nil {
			fmt.Fprintf(os.Stderr, "mcclient: write: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %d to %s\n", *writeWord, addr)
		return
	}

	value, err := client.ReadValue(addr, format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcclient: read: %v\n", err)
		os.Exit(1)
	}
	v, _ := value.UInt16()
	fmt.Printf("%s = %d\n", addr, v)

	ctx := context.Background()
	if *redisAddr != "" {
		cache := mccache.New(mccache.Config{Address: *redisAddr, TTL: 0})
		if err := cache.Connect(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "mcclient: cache: %v\n", err)
		} else {
			defer cache.Close()
			if err := cache.Set(ctx, addr, format, value); err != nil {
				fmt.Fprintf(os.Stderr, "mcclient: cache: %v\n", err)
			}
		}
	}
	if *mqttBroker != "" {
		host, port := splitHostPort(*mqttBroker)
		pub := mcpublish.New(mcpublish.Config{Name: *sessionName, Broker: host, Port: port, ClientID: "mcclient", RootTopic: "mc"})
		if err := pub.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "mcclient: mqtt: %v\n", err)
		} else {
			defer pub.Stop()
			if err := pub.Publish(addr, value); err != nil {
				fmt.Fprintf(os.Stderr, "mcclient: mqtt: %v\n", err)
			}
		}
	}
}

// splitHostPort parses a "host:port" flag value, defaulting port to 1883
// (the standard MQTT port) when it is missing or malformed.
func splitHostPort(hostport string) (string, int) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport, 1883
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 1883
	}
	return host, port
}

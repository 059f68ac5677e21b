// Command scpi-console is an interactive console for a single instrument.
//
// Usage:
//
//	scpi-console [flags] <resource>
//	scpi-console -discover
//
// Resources:
//
//	TCPIP::192.168.1.20::5025::SOCKET   tcp://192.168.1.20:5025
//	ASRL/dev/ttyUSB0::INSTR             serial:///dev/ttyUSB0
//	usb:A6008isP                        (USB serial adapter by serial number)
//	GPIB0::19::INSTR                    gpib://prologix.lan/19
//
// Examples:
//
//	# Open a catalog model and start the shell
//	scpi-console -model agilent-n9342c TCPIP::10.0.0.7::5025::SOCKET
//
//	# Run two lines and exit
//	scpi-console -exec '*IDN?;SYST:ERR?' tcp://10.0.0.7:5025
//
//	# List LXI instruments on the local network
//	scpi-console -discover
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ogameasure/ogameasure-go/cmd/scpi-console/console"
	"github.com/ogameasure/ogameasure-go/pkg/catalog"
	"github.com/ogameasure/ogameasure-go/pkg/discovery"
	"github.com/ogameasure/ogameasure-go/pkg/instrument"
	"github.com/ogameasure/ogameasure-go/pkg/log"
)

var (
	configFile  = flag.String("config", "", "YAML configuration file")
	modelKey    = flag.String("model", "", "Catalog model key (default: generic SCPI instrument)")
	catalogFile = flag.String("catalog", "", "Extra catalog YAML merged over the built-in catalog")
	protocolLog = flag.String("protocol-log", "", "Write a capture file readable by meas-log")
	history     = flag.String("history", "", "Readline history file")
	exec        = flag.String("exec", "", "Run ';'-separated lines and exit")
	discover    = flag.Bool("discover", false, "List LXI instruments on the local network and exit")
	timeout     = flag.Duration("timeout", discovery.BrowseTimeout, "Discovery timeout")
	verbose     = flag.Bool("v", false, "Log command traffic to stderr")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: scpi-console [flags] <resource>\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	config := DefaultConfig()
	if *configFile != "" {
		var err error
		if config, err = LoadConfig(*configFile); err != nil {
			fatal(err)
		}
	}
	config.Override(Config{
		Resource:    flag.Arg(0),
		Model:       *modelKey,
		Catalog:     *catalogFile,
		ProtocolLog: *protocolLog,
		History:     *history,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cat, err := config.LoadCatalog()
	if err != nil {
		fatal(err)
	}

	if *discover {
		if err := runDiscover(ctx, cat, *timeout); err != nil {
			fatal(err)
		}
		return
	}

	if config.Resource == "" {
		flag.Usage()
		os.Exit(2)
	}

	var model *catalog.Model
	if config.Model != "" {
		m, ok := cat.Lookup(config.Model)
		if !ok {
			fatal(fmt.Errorf("unknown model %q", config.Model))
		}
		model = m
	}

	var loggers []log.Logger
	if config.ProtocolLog != "" {
		fl, err := log.NewFileLogger(config.ProtocolLog)
		if err != nil {
			fatal(fmt.Errorf("protocol log: %w", err))
		}
		defer fl.Close()
		loggers = append(loggers, fl)
	}
	if *verbose {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		loggers = append(loggers, log.NewSlogAdapter(slog.New(handler)))
	}

	var capture log.Logger
	if len(loggers) > 0 {
		capture = log.NewMultiLogger(loggers...)
	}

	drv, err := instrument.Open(ctx, config.Resource, model, instrument.Config{Logger: capture})
	if err != nil {
		fatal(err)
	}
	defer drv.Close()

	if *exec != "" {
		sh := console.NewShell(drv, os.Stdout)
		for _, line := range strings.Split(*exec, ";") {
			if sh.Execute(line) {
				break
			}
		}
		return
	}

	c, err := console.New(drv, console.Config{HistoryFile: config.History})
	if err != nil {
		fatal(err)
	}
	c.Run(ctx)
}

func runDiscover(ctx context.Context, cat *catalog.Catalog, timeout time.Duration) error {
	found, err := discovery.FindAll(ctx, timeout)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Println("No instruments found.")
		return nil
	}
	for _, inst := range found {
		model := "-"
		if m, ok := inst.Match(cat); ok {
			model = m.Key
		}
		resource := fmt.Sprintf("TCPIP::%s::%d::SOCKET", inst.Address(), inst.SCPIPort())
		fmt.Printf("%-40s %-36s %s\n", inst.String(), resource, model)
	}
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

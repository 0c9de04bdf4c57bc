// tmcctl is a bench utility for USBTMC instruments: list attached devices,
// fire single commands and queries from the shell.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tmclab/usbtmc"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tmcctl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to a TOML config selecting the device")
		list       = flag.Bool("list", false, "list attached USBTMC devices and exit")
		command    = flag.String("command", "", "command to send, no response read")
		query      = flag.String("query", "", "query to send, response printed to stdout")
		timeout    = flag.Duration("timeout", 0, "per-transfer timeout, overrides the config")
	)
	flag.Parse()

	if *list {
		return listDevices()
	}
	if *command == "" && *query == "" {
		return fmt.Errorf("nothing to do: pass -list, -command or -query")
	}

	cfg := defaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = loadConfig(*configPath)
		if err != nil {
			return err
		}
	}
	if *timeout > 0 {
		cfg.timeout = *timeout
	}

	client, err := usbtmc.Connect(cfg.filter)
	if err != nil {
		return err
	}
	defer client.Close()
	client.SetTimeout(cfg.timeout)

	if *command != "" {
		if err := client.Command(*command); err != nil {
			return err
		}
	}
	if *query != "" {
		resp, err := client.Query(*query)
		if err != nil {
			return err
		}
		fmt.Println(resp)
	}
	return client.Close()
}

func listDevices() error {
	infos, err := usbtmc.Devices()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("no USBTMC devices found")
		return nil
	}
	for _, info := range infos {
		fmt.Printf("bus %03d addr %03d  %s:%s\n", info.Bus, info.Address, info.Vendor, info.Product)
	}
	return nil
}

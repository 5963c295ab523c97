package main

import (
	"fmt"
	"os"

	"site-edge/config"
	"site-edge/logging"
	"site-edge/osclient"
)

var Version = "dev"

func main() {
	logging.Setup(os.Getenv("LOG_LEVEL"), "console")

	root := newRootCmd(os.Stdout, func() (*osclient.Client, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		return osclient.New(osclient.Config{
			BaseURL:      cfg.OS.BaseURL,
			ClientID:     cfg.OS.ClientID,
			ClientSecret: cfg.OS.ClientSecret,
			Timeout:      cfg.OS.Timeout,
		}), nil
	})
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

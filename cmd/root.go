package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mohammad-safakhou/careerchat/config"
	"github.com/spf13/cobra"
)

func main() {
	// a missing .env is fine; real environment variables still apply
	_ = godotenv.Load()

	var cfgPath string
	var root = &cobra.Command{
		Use:           "careerchat",
		Short:         "Career assistant query router",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches ./config and .)")

	load := func() (*config.Config, error) { return config.Load(cfgPath) }
	root.AddCommand(serveCMD(load), migrateCMD(load), ingestCMD(load), historyCMD(load), resetCMD(load))
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type configLoader func() (*config.Config, error)

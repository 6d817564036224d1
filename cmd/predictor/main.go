package main

import (
	"fmt"
	"os"
	"predictor/internal/di"
	"predictor/internal/structures"

	"github.com/spf13/pflag"
)

func main() {
	flags := &structures.CliFlags{}
	pflag.StringVarP(&flags.ConfigPath, "config", "c", "config/config.yaml", "path to the YAML config file")
	pflag.StringVar(&flags.EnvFile, "env", ".env", "optional dotenv file with PREDICTOR_* overrides")
	pflag.BoolVarP(&flags.DebugMode, "debug", "d", false, "log to stdout as well as the log files")
	pflag.Parse()

	if _, err := di.InitApp(flags); err != nil {
		fmt.Fprintf(os.Stderr, "predictor: %s\n", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"
)

var (
	catalogPath string
	verbosity   int
	logPath     string
)

var rootCmd = &cobra.Command{
	Use:   "xmledit-ls",
	Short: "XML completion language server (stdio)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if logPath != "" {
			commonlog.Configure(verbosity, &logPath)
		} else {
			commonlog.Configure(verbosity, nil)
		}
		log := commonlog.GetLogger(serverName)
		atexit.Register(func() { log.Info("stopped") })

		h, err := newHandler(catalogPath)
		if err != nil {
			return err
		}

		srv := server.NewServer(h.protocolHandler(), serverName, false)
		return srv.RunStdio()
	},
}

func init() {
	rootCmd.Flags().StringVar(&catalogPath, "catalog", "", "YAML schema catalog")
	rootCmd.Flags().IntVarP(&verbosity, "verbose", "v", 0, "log verbosity")
	rootCmd.Flags().StringVar(&logPath, "log", "", "log file (default stderr)")
	rootCmd.MarkFlagRequired("catalog")
}

func main() {
	defer atexit.Exit(0)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}
}

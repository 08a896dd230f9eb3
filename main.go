package main

import (
	"flag"
	"os"

	"github.com/spf13/cobra"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/config"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/languageServer"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/playground"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/util"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "rv32i",
	Short: "RV32I assembler, language server and playground",
	Long: `rv32i assembles RISC-V RV32I assembly into machine code.

The assembler understands labels, the RV32I base instructions, the common
pseudo-instructions, .macro definitions and the usual data directives.
Settings not given on the command line are read from assemblerConfig.json
in the working directory when it exists.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// glog reads its settings from the go flag set
		flag.CommandLine.Parse([]string{})
	},
}

var languageServerCmd = &cobra.Command{
	Use:   "languageServer",
	Short: "Run the language server over stdio, or over TCP with --tcp",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := config.Load(configPath)
		if err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("tcp")
		if addr != "" {
			return languageServer.ListenAndServeTCP(addr, conf.Assembler())
		}
		languageServer.ListenAndServe(conf.Assembler())
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host the browser playground",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := config.Load(configPath)
		if err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("addr")
		return playground.ListenAndServe(addr, conf.Assembler())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "settings file")
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	languageServerCmd.Flags().String("tcp", "", "listen for clients on this address, e.g. :2035")
	serveCmd.Flags().String("addr", ":2035", "address to listen on")

	rootCmd.AddCommand(assembleCmd, languageServerCmd, serveCmd)
}

func main() {
	err := rootCmd.Execute()
	util.Flush()
	if err != nil {
		os.Exit(1)
	}
}

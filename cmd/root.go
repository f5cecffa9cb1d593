package cmd

import (
	"fmt"
	"os"

	"github.com/nodeflip/nodeflip/pkg/config"
	"github.com/nodeflip/nodeflip/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "nodeflip",
	Short: "AI chat agent for the n8n canvas",
	Long: `nodeflip connects a chat session on the nodeFlip backend to an n8n
workflow canvas, streaming assistant responses and applying suggested
nodes and connections to the graph as they arrive.`,
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := config.Load(cfgFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		if err := logger.Init(); err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Close()

		if err := runApp(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default .nodeflip/settings.yaml)")

	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.Flags().String("backend-url", "", "nodeFlip backend base URL")
	viper.BindPFlag("backend.url", rootCmd.Flags().Lookup("backend-url"))

	rootCmd.Flags().String("api-key", "", "nodeFlip backend API key")
	viper.BindPFlag("backend.api_key", rootCmd.Flags().Lookup("api-key"))

	rootCmd.Flags().String("workflow-id", "", "workflow the chat session is scoped to")
	viper.BindPFlag("backend.workflow_id", rootCmd.Flags().Lookup("workflow-id"))

	rootCmd.Flags().String("listen", "", "address to serve the websocket bridge on (e.g. 127.0.0.1:7420)")
	viper.BindPFlag("bridge.listen", rootCmd.Flags().Lookup("listen"))

	rootCmd.Flags().Bool("simulate-host", false, "run an in-process canvas instead of a browser bridge")
	viper.BindPFlag("bridge.simulate_host", rootCmd.Flags().Lookup("simulate-host"))

	rootCmd.Flags().BoolP("continue", "C", false, "resume the persisted transcript instead of loading from the backend")
	viper.BindPFlag("continue", rootCmd.Flags().Lookup("continue"))

	rootCmd.Flags().StringP("prompt", "p", "", "send a single prompt and exit instead of starting the REPL")
	viper.BindPFlag("prompt", rootCmd.Flags().Lookup("prompt"))

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.log_file", "nodeflip.log")
	viper.SetDefault("logging.persist", false)
	viper.SetDefault("transcript.path", ".nodeflip/transcript.json")
	viper.SetDefault("bridge.listen", "127.0.0.1:7420")
}

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/ryteapp/ryte-gateway/config"
	"github.com/ryteapp/ryte-gateway/globals"
	"github.com/ryteapp/ryte-gateway/sessions"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// A very simple CLI tool for the administration of the ryte session table.

var (
	configPath string

	sessionStore sessions.Store
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ryte-gateway-admin",
		Short: "administer the ryte session store",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			flagSet := config.GetFlagSet()
			pflag.CommandLine.AddFlagSet(flagSet)
			globalConfig, err := config.ReadConfiguration(configPath, flagSet)
			if err != nil {
				return err
			}
			if globalConfig.LogLevel != "" {
				globals.AppLogger.SetLevel(hclog.LevelFromString(globalConfig.LogLevel))
			}
			sessionStore, err = sessions.NewStore(globalConfig)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if sessionStore != nil {
				sessionStore.Close()
			}
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file or directory")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list all sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := sessionStore.All()
			if err != nil {
				return err
			}
			for _, s := range sess {
				data, err := json.Marshal(s)
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			}
			return nil
		},
	}

	countCmd := &cobra.Command{
		Use:   "count",
		Short: "count sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := sessionStore.Count()
			if err != nil {
				return err
			}
			fmt.Println(count)
			return nil
		},
	}

	destroyCmd := &cobra.Command{
		Use:   "destroy <sid>",
		Short: "destroy one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sessionStore.Destroy(args[0])
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "destroy all sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return sessionStore.Clear()
		},
	}

	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "delete expired sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := sessionStore.DeleteExpired()
			if err != nil {
				return err
			}
			fmt.Printf("deleted %d expired sessions\n", n)
			return nil
		},
	}

	rootCmd.AddCommand(listCmd, countCmd, destroyCmd, clearCmd, purgeCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package cmd

import (
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the running server's tile cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the tile cache",
	Long:  "Clear hits the same code path as POST /tiles/cache/clear on a running server.",
	RunE:  runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	cacheClearCmd.Flags().String("server-addr", "127.0.0.1:8080", "Address of a running routeheat server")

	if err := viper.BindPFlag("cache.server_addr", cacheClearCmd.Flags().Lookup("server-addr")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("cache.server_addr")
	url := fmt.Sprintf("http://%s/tiles/cache/clear", addr)

	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		return fmt.Errorf("failed to reach server at %s: %w", addr, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cache clear failed: server returned %s: %s", resp.Status, body)
	}

	logger.Info("cache cleared", "server", addr, "response", string(body))
	return nil
}

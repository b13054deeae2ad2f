package main

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/fentz26/worldtime/internal/models"
	"github.com/fentz26/worldtime/internal/tui"
)

var playCmd = &cobra.Command{
	Use:   "play [session-id]",
	Short: "Launch the interactive play console",
	Long:  `Opens the console on an existing session, or starts a new one. The daemon is started in the background if it is not running.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPlay,
}

var playMode string

func init() {
	playCmd.Flags().StringVar(&playMode, "mode", "", "Mode of a new session (lightweight, normal)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	if !isDaemonRunning(apiAddr) {
		fmt.Println("Daemon not running. Starting background service...")
		if err := startDaemon(); err != nil {
			return fmt.Errorf("failed to start daemon: %w", err)
		}
	}

	sessionID := ""
	if len(args) == 1 {
		sessionID = args[0]
	}

	app := tui.New(apiAddr, sessionID, models.Mode(playMode))
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func isDaemonRunning(addr string) bool {
	client := http.Client{Timeout: 500 * time.Millisecond}
	resp, err := client.Get(addr + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func startDaemon() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	// Start "wtg daemon" in background
	cmd := exec.Command(exe, "daemon", "--config", configPath)
	configureDaemonProc(cmd)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return err
	}

	fmt.Print("   Waiting for daemon...")
	for i := 0; i < 20; i++ { // Wait up to 5 seconds
		if isDaemonRunning(apiAddr) {
			fmt.Println(" Done.")
			return nil
		}
		time.Sleep(250 * time.Millisecond)
		fmt.Print(".")
	}
	fmt.Println(" Timeout!")
	return fmt.Errorf("daemon started but API not reachable at %s", apiAddr)
}

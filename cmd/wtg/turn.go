package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fentz26/worldtime/internal/engine"
)

var turnCmd = &cobra.Command{
	Use:   "turn",
	Short: "Run a turn phase against a session",
	Long: `Sends one phase of a turn to the daemon. The payload is read from --file
("-" for stdin) as {"text", "history", "action_count"}, or built from --text.`,
}

var (
	turnText  string
	turnFile  string
	turnCount int
	turnJSON  bool
)

func init() {
	for _, phase := range []engine.Phase{engine.PhaseInput, engine.PhaseContext, engine.PhaseOutput} {
		phase := phase
		c := &cobra.Command{
			Use:   string(phase) + " [session-id]",
			Short: fmt.Sprintf("Run the %s phase", phase),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTurn(phase, args[0])
			},
		}
		c.Flags().StringVar(&turnText, "text", "", "Phase text")
		c.Flags().StringVar(&turnFile, "file", "", "JSON payload file, - for stdin")
		c.Flags().IntVar(&turnCount, "action-count", 0, "Host action count")
		c.Flags().BoolVar(&turnJSON, "json", false, "Print the full phase result")
		turnCmd.AddCommand(c)
	}
}

func runTurn(phase engine.Phase, sessionID string) error {
	payload, err := turnPayload()
	if err != nil {
		return err
	}

	resp, err := apiPost("/sessions/"+sessionID+"/"+string(phase), payload)
	if err != nil {
		return err
	}

	if turnJSON {
		fmt.Println(string(resp))
		return nil
	}

	var res engine.Result
	if err := json.Unmarshal(resp, &res); err != nil {
		return err
	}
	fmt.Println(res.Text)
	for _, ev := range res.Events {
		fmt.Fprintf(os.Stderr, "  %s %s\n", ev.Kind, ev.Detail)
	}
	return nil
}

func turnPayload() (json.RawMessage, error) {
	if turnFile == "" {
		data, err := json.Marshal(engine.Turn{Text: turnText, ActionCount: turnCount})
		return json.RawMessage(data), err
	}

	var data []byte
	var err error
	if turnFile == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(turnFile)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return json.RawMessage(data), nil
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fentz26/worldtime/internal/models"
	"github.com/fentz26/worldtime/internal/session"
	"github.com/fentz26/worldtime/internal/tui"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage sessions",
}

var sessionNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new session",
	RunE:  runSessionNew,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	RunE:  runSessionList,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show a session's clock",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionShow,
}

var sessionLedgerCmd = &cobra.Command{
	Use:   "ledger [session-id]",
	Short: "Show a session's turn ledger",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionLedger,
}

var sessionCardsCmd = &cobra.Command{
	Use:   "cards [session-id]",
	Short: "List a session's cards",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionCards,
}

var sessionCardCmd = &cobra.Command{
	Use:   "card [session-id]",
	Short: "Create or replace a card by title",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionCard,
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete [session-id]",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionDelete,
}

var sessionDecisionsCmd = &cobra.Command{
	Use:   "decisions [session-id]",
	Short: "Show a session's decision records",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionDecisions,
}

var (
	sessionMode   string
	cardTitle     string
	cardKeys      string
	cardEntry     string
	cardType      string
	decisionLimit int
)

func init() {
	sessionCmd.AddCommand(sessionNewCmd, sessionListCmd, sessionShowCmd, sessionLedgerCmd,
		sessionCardsCmd, sessionCardCmd, sessionDeleteCmd, sessionDecisionsCmd)

	sessionNewCmd.Flags().StringVar(&sessionMode, "mode", "", "Session mode (lightweight, normal); defaults to config")

	sessionCardCmd.Flags().StringVar(&cardTitle, "title", "", "Card title (required)")
	sessionCardCmd.Flags().StringVar(&cardKeys, "keys", "", "Comma-separated trigger keys")
	sessionCardCmd.Flags().StringVar(&cardEntry, "entry", "", "Card text")
	sessionCardCmd.Flags().StringVar(&cardType, "type", "class", "Card type")
	sessionCardCmd.MarkFlagRequired("title")

	sessionDecisionsCmd.Flags().IntVar(&decisionLimit, "limit", 20, "Maximum records to show")
}

func runSessionNew(cmd *cobra.Command, args []string) error {
	resp, err := apiPost("/sessions", map[string]string{"mode": sessionMode})
	if err != nil {
		return err
	}

	var sess models.Session
	if err := json.Unmarshal(resp, &sess); err != nil {
		return err
	}

	fmt.Printf("Created session: %s (%s)\n", sess.ID, sess.Mode)
	return nil
}

func runSessionList(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/sessions")
	if err != nil {
		return err
	}

	var sessions []models.Session
	if err := json.Unmarshal(resp, &sessions); err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODE\tCURRENT\tUPDATED")
	for _, sess := range sessions {
		current := "-"
		if st, err := decodeState(sess); err == nil && st.Initialized {
			current = st.Current.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", sess.ID, sess.Mode, current, sess.UpdatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
	return nil
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/sessions/" + args[0])
	if err != nil {
		return err
	}

	var sess models.Session
	if err := json.Unmarshal(resp, &sess); err != nil {
		return err
	}
	st, err := decodeState(sess)
	if err != nil {
		return err
	}

	fmt.Printf("ID:        %s\n", sess.ID)
	fmt.Printf("Mode:      %s\n", st.Mode)
	fmt.Printf("Starting:  %s %s\n", st.Anchor.Date, st.Anchor.Time)
	fmt.Printf("Current:   %s\n", st.Current)
	fmt.Printf("Elapsed:   %s\n", st.Elapsed)
	fmt.Printf("Set:       %s\n", strconv.FormatBool(st.Initialized))
	if cd := tui.CooldownLine(st); cd != "" {
		fmt.Printf("Cooldowns: %s\n", cd)
	}
	fmt.Printf("Updated:   %s\n", sess.UpdatedAt)
	return nil
}

func runSessionLedger(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/sessions/" + args[0] + "/ledger")
	if err != nil {
		return err
	}

	var info tui.LedgerInfo
	if err := json.Unmarshal(resp, &info); err != nil {
		return err
	}

	if len(info.Records) == 0 {
		fmt.Println("No ledger records")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tTYPE\tACTION\tCOMMAND")
	for _, r := range info.Records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Timestamp, r.ActionType, truncate(r.ActionText, 50), r.AICommand)
	}
	w.Flush()
	return nil
}

func runSessionCards(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/sessions/" + args[0] + "/cards")
	if err != nil {
		return err
	}

	var list []models.Card
	if err := json.Unmarshal(resp, &list); err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("No cards")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TITLE\tTYPE\tKEYS\tENTRY")
	for _, c := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Title, c.Type, truncate(c.Keys, 30), truncate(c.Entry, 50))
	}
	w.Flush()
	return nil
}

func runSessionCard(cmd *cobra.Command, args []string) error {
	card := models.Card{Title: cardTitle, Type: cardType, Keys: cardKeys, Entry: cardEntry}
	resp, err := apiPut("/sessions/"+args[0]+"/cards", card)
	if err != nil {
		return err
	}

	var saved models.Card
	if err := json.Unmarshal(resp, &saved); err != nil {
		return err
	}
	fmt.Printf("Saved card %q (%s)\n", saved.Title, saved.ID)
	return nil
}

func runSessionDelete(cmd *cobra.Command, args []string) error {
	if err := apiDelete("/sessions/" + args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted session %s\n", args[0])
	return nil
}

func runSessionDecisions(cmd *cobra.Command, args []string) error {
	resp, err := apiGet(fmt.Sprintf("/sessions/%s/decisions?limit=%d", args[0], decisionLimit))
	if err != nil {
		return err
	}

	var decisions []models.Decision
	if err := json.Unmarshal(resp, &decisions); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tOUTCOME\tDETAILS")
	for _, d := range decisions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Timestamp.Format("15:04:05"), d.Action, d.Outcome, truncate(d.Details, 60))
	}
	w.Flush()
	return nil
}

func decodeState(sess models.Session) (session.State, error) {
	st := session.New(sess.Mode)
	if len(sess.State) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(sess.State, &st); err != nil {
		return st, fmt.Errorf("decode session state: %w", err)
	}
	return st, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

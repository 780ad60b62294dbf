package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/wonny/fpl-squad/backend/internal/advisor"
	"github.com/wonny/fpl-squad/backend/internal/contracts"
	"github.com/wonny/fpl-squad/backend/internal/store"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	doubleLine = "═══════════════════════════════════════════════════════════"
	singleLine = "───────────────────────────────────────────────────────────"
)

// PrintHeader prints a formatted section header
func PrintHeader(title string) {
	fmt.Println()
	fmt.Println(doubleLine)
	fmt.Printf("  %s\n", title)
	fmt.Println(singleLine)
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println(singleLine)
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintJSON writes v as indented JSON to stdout
func PrintJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var playerColumns = []string{"ID", "Name", "Pos", "Team", "Cost", "Score", "Status"}
var playerWidths = []int{5, 20, 4, 16, 7, 6, 6}

// PrintPlayers prints scored players as a table
func PrintPlayers(players []contracts.ScoredPlayer) {
	PrintTableHeader(playerColumns, playerWidths)
	for _, p := range players {
		PrintTableRow(playerRow(p), playerWidths)
	}
}

func playerRow(p contracts.ScoredPlayer) []string {
	status := p.Status
	if status == "" {
		status = "a"
	}
	return []string{
		strconv.Itoa(p.ID),
		truncate(p.DisplayName(), 20),
		p.Category.String(),
		truncate(p.TeamName, 16),
		p.Cost.String(),
		fmt.Sprintf("%.2f", p.Score),
		status,
	}
}

var gameColumns = []string{"GW", "Opp", "Min", "G", "A", "CS", "Bonus", "xGI", "Pts"}
var gameWidths = []int{3, 8, 4, 3, 3, 3, 5, 5, 4}

// PrintPlayerDetail prints a player and a row per recent game
func PrintPlayerDetail(d *contracts.PlayerDetail) {
	p := d.Player
	PrintHeader(fmt.Sprintf("%s (%s, %s)", p.DisplayName(), p.Category, p.TeamName))
	PrintKeyValue("ID", strconv.Itoa(p.ID), 8)
	PrintKeyValue("Cost", p.Cost.String(), 8)
	PrintKeyValue("Score", fmt.Sprintf("%.2f", p.Score), 8)
	PrintKeyValue("Form", fmt.Sprintf("%.1f", p.Form), 8)
	PrintSeparator()

	if len(d.Recent) == 0 {
		PrintInfo("No recent games")
		return
	}
	fmt.Println()
	PrintTableHeader(gameColumns, gameWidths)
	for _, g := range d.Recent {
		PrintTableRow(gameRow(g), gameWidths)
	}
}

func gameRow(g contracts.GameweekStats) []string {
	return []string{
		strconv.Itoa(g.Gameweek),
		fmt.Sprintf("%s (%s)", g.Opponent, g.Venue),
		strconv.Itoa(g.Minutes),
		strconv.Itoa(g.GoalsScored),
		strconv.Itoa(g.Assists),
		strconv.Itoa(g.CleanSheets),
		strconv.Itoa(g.Bonus),
		fmt.Sprintf("%.2f", g.ExpectedGoalInvolvements),
		strconv.Itoa(g.TotalPoints),
	}
}

// PrintBuildResult prints a built squad with its lineup
func PrintBuildResult(r *advisor.BuildResult) {
	PrintHeader(fmt.Sprintf("Squad Build (%s)", r.Method))
	PrintKeyValue("Run ID", r.RunID, 10)
	PrintKeyValue("Seed", strconv.FormatInt(r.Seed, 10), 10)
	PrintKeyValue("Config", shortHash(r.ConfigHash), 10)
	PrintKeyValue("Cost", r.TotalCost.String(), 10)
	PrintKeyValue("Fitness", fmt.Sprintf("%.2f", r.Fitness), 10)
	if r.Generations > 0 {
		PrintKeyValue("Gens", strconv.Itoa(r.Generations), 10)
	}
	PrintKeyValue("Duration", r.Duration.String(), 10)
	PrintSeparator()

	if r.Lineup != nil {
		PrintLineup(r.Lineup)
		return
	}
	PrintPlayers(r.Squad)
}

// PrintLineup prints starters and bench
func PrintLineup(l *contracts.Lineup) {
	fmt.Printf("\n⚽ Starting XI (%s)  score %.2f\n\n", l.Formation, l.Score)
	PrintPlayers(l.Starters)
	fmt.Printf("\n🪑 Bench\n\n")
	PrintPlayers(l.Bench)
}

// PrintAnalysis prints captaincy and transfer suggestions
func PrintAnalysis(a *contracts.SquadAnalysis) {
	PrintHeader("Squad Analysis")
	PrintKeyValue("Score", fmt.Sprintf("%.2f", a.SquadScore), 8)
	if a.Captain.Captain != nil {
		PrintKeyValue("Captain", a.Captain.Captain.DisplayName(), 8)
	}
	if a.Captain.ViceCaptain != nil {
		PrintKeyValue("Vice", a.Captain.ViceCaptain.DisplayName(), 8)
	}
	PrintSeparator()

	if len(a.Transfers) == 0 {
		PrintInfo("No improving single transfer within budget")
	}
	for i, t := range a.Transfers {
		fmt.Printf("\n🔁 #%d  %s (%s) → %s (%s)  +%.2f\n",
			i+1, t.Out.DisplayName(), t.Out.Cost, t.In.DisplayName(), t.In.Cost, t.ScoreGain)
		if t.Reason != "" {
			fmt.Printf("   %s\n", t.Reason)
		}
	}

	if d := a.DoubleTransfer; d != nil {
		fmt.Printf("\n🔀 Double  %s + %s → %s + %s  +%.2f (cost %s, freed %s)\n",
			d.Out[0].DisplayName(), d.Out[1].DisplayName(),
			d.In[0].DisplayName(), d.In[1].DisplayName(),
			d.ScoreGain, d.Cost, d.FreedBudget)
		if d.Reason != "" {
			fmt.Printf("   %s\n", d.Reason)
		}
	}

	if a.Lineup != nil {
		PrintLineup(a.Lineup)
	}
}

var runColumns = []string{"Created", "Run ID", "Method", "Seed", "Fitness", "Cost"}
var runWidths = []int{19, 36, 7, 20, 7, 7}

// PrintRuns prints recorded builds as a table
func PrintRuns(runs []store.BuildRun) {
	PrintTableHeader(runColumns, runWidths)
	for _, r := range runs {
		PrintTableRow([]string{
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.RunID,
			r.Method,
			strconv.FormatInt(r.Seed, 10),
			fmt.Sprintf("%.2f", r.Fitness),
			r.TotalCost.String(),
		}, runWidths)
	}
}

// parseIDs parses "1,2, 3" into ids
func parseIDs(s string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid player id %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no player ids given")
	}
	return ids, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

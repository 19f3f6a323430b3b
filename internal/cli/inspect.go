package cli

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/temporal-htn/internal/chronicle"
	"github.com/valter-silva-au/temporal-htn/internal/core"
)

// Inspector tabs.
const (
	tabOverview = iota
	tabSymbols
	tabActions
	tabMethods
	tabGoals
	tabCount
)

var tabNames = [tabCount]string{"Overview", "Symbols", "Actions", "Methods", "Goals"}

type inspectModel struct {
	path      string
	activeTab int
	offset    int
	width     int
	height    int

	result *core.ConversionResult
	tabs   [tabCount][]string

	loading bool
	err     error
}

// chronicleLoadedMsg carries a lowered problem back to the model.
type chronicleLoadedMsg struct {
	result *core.ConversionResult
	err    error
}

func newInspectModel(path string) inspectModel {
	return inspectModel{path: path, loading: true}
}

func (m inspectModel) Init() tea.Cmd {
	path := m.path
	return func() tea.Msg { return loadChronicle(path) }
}

func loadChronicle(path string) tea.Msg {
	if Pipeline == nil {
		return chronicleLoadedMsg{err: fmt.Errorf("conversion pipeline not initialized")}
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: reading a user-specified problem file
	if err != nil {
		return chronicleLoadedMsg{err: fmt.Errorf("reading %s: %w", path, err)}
	}
	r, err := Pipeline.Lower(commandContext(rootCmd), data)
	if err != nil {
		return chronicleLoadedMsg{err: err}
	}
	return chronicleLoadedMsg{result: r}
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab", "right", "l":
			m.activeTab = (m.activeTab + 1) % tabCount
			m.offset = 0
		case "shift+tab", "left", "h":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
			m.offset = 0
		case "down", "j":
			if m.offset < len(m.tabs[m.activeTab])-1 {
				m.offset++
			}
		case "up", "k":
			if m.offset > 0 {
				m.offset--
			}
		case "r":
			m.loading = true
			return m, m.Init()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case chronicleLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.result = msg.result
		m.tabs = buildTabs(msg.result)
		m.offset = 0
		return m, nil
	}

	return m, nil
}

func (m inspectModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" htnc inspect ")
	help := helpStyle.Render("tab/←→: switch tab | ↑↓: scroll | r: reload | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Lowering %s...\n\n%s", title, m.path, help)
	}
	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	title = titleStyle.Render(fmt.Sprintf(" htnc inspect: %s ", m.result.Problem))

	tabs := make([]string, tabCount)
	for i, name := range tabNames {
		style := tabStyle
		if i == m.activeTab {
			style = activeTabStyle
		}
		tabs[i] = style.Render(fmt.Sprintf("%s (%d)", name, len(m.tabs[i])))
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	width := m.width - 4
	if width < 20 {
		width = 20
	}
	body := panelStyle.Width(width).Render(m.visibleLines())

	return fmt.Sprintf("%s\n\n%s\n%s\n%s", title, bar, body, help)
}

// visibleLines returns the lines of the active tab that fit on screen from
// the current scroll offset.
func (m inspectModel) visibleLines() string {
	lines := m.tabs[m.activeTab]
	if len(lines) == 0 {
		return "  (empty)"
	}
	rows := m.height - 8
	if rows < 3 {
		rows = 3
	}
	end := m.offset + rows
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[m.offset:end], "\n")
}

// buildTabs renders every tab of a lowered problem once.
func buildTabs(r *core.ConversionResult) [tabCount][]string {
	var tabs [tabCount][]string
	doc := r.Chronicle
	if doc == nil {
		return tabs
	}

	st := r.Stats
	tabs[tabOverview] = []string{
		fmt.Sprintf("%-18s %s", "Problem", r.Problem),
		fmt.Sprintf("%-18s %d", "Types", st.Types),
		fmt.Sprintf("%-18s %d", "Symbols", st.Symbols),
		fmt.Sprintf("%-18s %d", "Constants", st.Constants),
		fmt.Sprintf("%-18s %d", "Variables", st.Variables),
		fmt.Sprintf("%-18s %d", "State variables", st.StateVariables),
		fmt.Sprintf("%-18s %d", "Actions", st.Actions),
		fmt.Sprintf("%-18s %d", "Methods", st.Methods),
		fmt.Sprintf("%-18s %d", "Goals", st.Goals),
		fmt.Sprintf("%-18s %d", "Initial effects", st.InitialEffects),
		fmt.Sprintf("%-18s %d", "Signatures", r.Signatures),
	}

	for _, t := range doc.Types {
		line := "type " + t.Name
		if t.Parent != "" {
			line += " < " + t.Parent
		}
		tabs[tabSymbols] = append(tabs[tabSymbols], line)
	}
	for _, s := range doc.Symbols {
		line := fmt.Sprintf("%-10s %s", s.Kind, s.Name)
		if s.Type != "" {
			line += " - " + s.Type
		}
		tabs[tabSymbols] = append(tabs[tabSymbols], line)
	}
	for _, p := range doc.Predicates {
		tabs[tabSymbols] = append(tabs[tabSymbols], "predicate  "+sig(p))
	}
	for _, f := range doc.Functions {
		tabs[tabSymbols] = append(tabs[tabSymbols], "function   "+sig(f))
	}

	for _, a := range doc.Actions {
		tabs[tabActions] = append(tabs[tabActions], headerStyle.Render(sig(a.Signature)))
		tabs[tabActions] = append(tabs[tabActions], section("constraint", a.Constraints)...)
		tabs[tabActions] = append(tabs[tabActions], section("condition", a.Conditions)...)
		tabs[tabActions] = append(tabs[tabActions], section("effect", a.Effects)...)
	}

	for _, md := range doc.Methods {
		tabs[tabMethods] = append(tabs[tabMethods], headerStyle.Render(sig(md.Signature)+" -> "+sig(md.Task)))
		tabs[tabMethods] = append(tabs[tabMethods], section("constraint", md.Constraints)...)
		tabs[tabMethods] = append(tabs[tabMethods], section("condition", md.Conditions)...)
		tabs[tabMethods] = append(tabs[tabMethods], section("subtask", md.Subtasks)...)
		tabs[tabMethods] = append(tabs[tabMethods], section("ordering", md.SubtaskConstraints)...)
	}

	for _, g := range doc.Goals {
		tabs[tabGoals] = append(tabs[tabGoals], section("goal", g.Tasks)...)
		tabs[tabGoals] = append(tabs[tabGoals], section("constraint", g.Constraints)...)
	}
	tabs[tabGoals] = append(tabs[tabGoals], section("initially", doc.InitialEffects)...)

	return tabs
}

func sig(s chronicle.Signature) string {
	return "(" + strings.Join(s, " ") + ")"
}

func section(label string, sigs []chronicle.Signature) []string {
	out := make([]string, len(sigs))
	for i, s := range sigs {
		out[i] = fmt.Sprintf("  %-11s %s", label, sig(s))
	}
	return out
}

var inspectPlain bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <problem.yaml>",
	Short: "Browse the chronicle of a problem interactively",
	Long: `Lower a problem file in memory and browse the result in a terminal UI
with one tab per section: overview, symbols, actions, methods, and goals.

With --plain the chronicle is printed as YAML instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Pipeline == nil {
			return fmt.Errorf("conversion pipeline not initialized")
		}

		if inspectPlain {
			msg, _ := loadChronicle(args[0]).(chronicleLoadedMsg)
			if msg.err != nil {
				return msg.err
			}
			return msg.result.Chronicle.WriteYAML(cmd.OutOrStdout())
		}

		p := tea.NewProgram(newInspectModel(args[0]), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectPlain, "plain", false, "Print the chronicle as YAML instead of starting the UI")
	rootCmd.AddCommand(inspectCmd)
}

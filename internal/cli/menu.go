package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/temcen/animerec/internal/controller"
	"github.com/temcen/animerec/internal/view"
)

// menuDefaultCount is the count used when the menu's count prompt is blank or invalid.
const menuDefaultCount = 10

func newMenuCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Interactive recommendation menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFrom(cmd.Context())
			if err != nil {
				return err
			}
			ctrl, err := rt.controller()
			if err != nil {
				return err
			}

			m := &menu{
				ctrl: ctrl,
				in:   bufio.NewScanner(cmd.InOrStdin()),
				out:  cmd.OutOrStdout(),
			}
			return m.run(cmd.Context())
		},
	}
}

type menu struct {
	ctrl *controller.Controller
	in   *bufio.Scanner
	out  io.Writer
}

func (m *menu) run(ctx context.Context) error {
	bold := color.New(color.Bold)
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(m.out, rule)
	bold.Fprintln(m.out, "ANIME RECOMMENDATION SYSTEM")
	fmt.Fprintln(m.out, rule)
	fmt.Fprintln(m.out, "Welcome to the Anime Recommendation System!")
	fmt.Fprintln(m.out, "This system will help you discover new anime based on your preferences.")

	for {
		fmt.Fprintln(m.out, "\n"+strings.Repeat("-", 60))
		bold.Fprintln(m.out, "MAIN MENU")
		fmt.Fprintln(m.out, strings.Repeat("-", 60))
		fmt.Fprintln(m.out, "1. Get recommendations for a specific anime")
		fmt.Fprintln(m.out, "2. Get recommendations by genre")
		fmt.Fprintln(m.out, "3. Get recommendations by theme")
		fmt.Fprintln(m.out, "4. Get recommendations by demographic")
		fmt.Fprintln(m.out, "5. Get recommendations by multiple features")
		fmt.Fprintln(m.out, "6. Exit")

		choice, ok := m.prompt("\nEnter your choice (1-6): ")
		if !ok {
			return m.in.Err()
		}

		switch choice {
		case "1":
			m.byTitle(ctx)
		case "2":
			m.byList(ctx, "GENRE-BASED RECOMMENDATIONS", "genres", "Genres: ",
				"Enter one or more genres (comma-separated):\nExamples: action, comedy, drama, romance, scifi, fantasy, etc.")
		case "3":
			m.byList(ctx, "THEME-BASED RECOMMENDATIONS", "themes", "Themes: ",
				"Enter one or more themes (comma-separated):\nExamples: school, space, romance, comedy, etc.")
		case "4":
			m.byList(ctx, "DEMOGRAPHIC-BASED RECOMMENDATIONS", "demographic", "Demographic: ",
				"Enter a demographic:\nExamples: shounen, shoujo, seinen, josei, kids")
		case "5":
			m.byFeatures(ctx)
		case "6":
			fmt.Fprintln(m.out, "\nThank you for using the Anime Recommendation System!")
			fmt.Fprintln(m.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(m.out, "\nInvalid choice. Please enter a number between 1 and 6.")
		}
	}
}

func (m *menu) byTitle(ctx context.Context) {
	m.section("ANIME-BASED RECOMMENDATIONS")

	title, _ := m.prompt("Enter the name of an anime you like: ")
	if title == "" {
		fmt.Fprintln(m.out, "No input provided.")
		return
	}

	m.show(ctx, m.ctrl.RequestByTitle(title, m.count()))
}

// byList handles the single-feature options; field is "genres", "themes" or "demographic".
func (m *menu) byList(ctx context.Context, heading, field, label, help string) {
	m.section(heading)

	fmt.Fprintln(m.out, help)
	input, _ := m.prompt(label)
	if input == "" {
		fmt.Fprintf(m.out, "No %s provided.\n", field)
		return
	}
	input = lower(input)

	count := m.count()
	var call *controller.Call
	switch field {
	case "genres":
		call = m.ctrl.RequestByFeatures(input, "", "", count)
	case "themes":
		call = m.ctrl.RequestByFeatures("", input, "", count)
	default:
		call = m.ctrl.RequestByFeatures("", "", input, count)
	}
	m.show(ctx, call)
}

func (m *menu) byFeatures(ctx context.Context) {
	m.section("MULTI-FEATURE RECOMMENDATIONS")

	fmt.Fprintln(m.out, "Enter genres (comma-separated, or press Enter to skip):")
	genres, _ := m.prompt("Genres: ")
	fmt.Fprintln(m.out, "Enter themes (comma-separated, or press Enter to skip):")
	themes, _ := m.prompt("Themes: ")
	fmt.Fprintln(m.out, "Enter demographic (or press Enter to skip):")
	demographic, _ := m.prompt("Demographic: ")

	if genres == "" && themes == "" && demographic == "" {
		fmt.Fprintln(m.out, "No features provided.")
		return
	}

	m.show(ctx, m.ctrl.RequestByFeatures(lower(genres), lower(themes), lower(demographic), m.count()))
}

// count asks for the number of recommendations, falling back to menuDefaultCount.
func (m *menu) count() int {
	raw, _ := m.prompt(fmt.Sprintf("How many recommendations would you like? (default: %d): ", menuDefaultCount))
	if raw == "" {
		return menuDefaultCount
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		fmt.Fprintf(m.out, "Invalid number. Using default value of %d.\n", menuDefaultCount)
		return menuDefaultCount
	}
	return n
}

func (m *menu) show(ctx context.Context, call *controller.Call) {
	fmt.Fprintln(m.out)
	if call.Sent() {
		view.WriteTerminal(m.out, call.Initial)
	}
	state, _ := call.Wait(ctx)
	fmt.Fprintln(m.out)
	view.WriteTerminal(m.out, state)
}

func (m *menu) section(title string) {
	fmt.Fprintln(m.out, "\n"+strings.Repeat("-", 40))
	fmt.Fprintln(m.out, title)
	fmt.Fprintln(m.out, strings.Repeat("-", 40))
}

// prompt prints label and reads one trimmed line. ok is false at end of input.
func (m *menu) prompt(label string) (string, bool) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

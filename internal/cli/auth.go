package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/integrations/departments"
	"github.com/matzehuels/orgchart/pkg/session"
)

// loginCommand creates the login command.
func (c *CLI) loginCommand() *cobra.Command {
	var (
		username      string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the backend",
		Long: `Log in to the backend and store the session token.

Without flags you are prompted for the username and password. In scripts,
pass --username and pipe the password with --password-stdin:

  echo "$PASSWORD" | orgchart login --username admin --password-stdin

Sessions are kept per backend under ~/.config/orgchart/sessions/.
ORGCHART_TOKEN, when set, is used instead of any stored session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var password string
			if passwordStdin {
				if username == "" {
					return errors.New(errors.ErrCodeInvalidInput, "--password-stdin requires --username")
				}
				pw, err := readPassword(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = pw
			} else {
				creds, err := promptCredentials(username)
				if err != nil {
					return err
				}
				username, password = creds.username, creds.password
			}

			return c.runLogin(ctx, username, password)
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "backend username")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")

	return cmd
}

// logoutCommand creates the logout command.
func (c *CLI) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session for the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := c.sessionStore()
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			if err := sessions.DeleteSession(cmd.Context()); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			printSuccess("Logged out of %s", c.Config.BackendURL)
			return nil
		},
	}
}

// whoamiCommand creates the whoami command.
func (c *CLI) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session for the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.Config.Token != "" {
				printInfo("Using the token from ORGCHART_TOKEN")
				printKeyValue("Backend", c.Config.BackendURL)
				return nil
			}

			sessions, err := c.sessionStore()
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			sess, err := loadSession(cmd.Context(), sessions)
			if err != nil {
				return err
			}

			printSuccess("Session")
			printKeyValue("Username", sess.Username)
			printKeyValue("Backend", c.Config.BackendURL)
			printKeyValue("Logged in", sess.CreatedAt.Format("Jan 2, 2006 15:04"))
			printKeyValue("Expires", sess.ExpiresAt.Format("Jan 2, 2006 15:04"))
			return nil
		},
	}
}

// =============================================================================
// Session Management
// =============================================================================

// loadSession returns the stored session, or a coded error when there is
// none or it has expired.
func loadSession(ctx context.Context, sessions *session.CLIStore) (*session.Session, error) {
	if _, err := sessions.Token(ctx); err != nil {
		return nil, err
	}
	return sessions.GetSession(ctx)
}

func (c *CLI) runLogin(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return errors.New(errors.ErrCodeInvalidInput, "username and password are required")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	spinner := newSpinner(ctx, "Logging in...")
	spinner.Start()

	client := departments.NewClient(c.Config.BackendURL, "", nil, c.Logger)
	token, err := client.Login(ctx, username, password)
	if err != nil {
		spinner.StopWithError("Login failed")
		return err
	}
	spinner.Stop()

	sessions, err := c.sessionStore()
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	sess, err := session.New(token, username, session.DefaultTTL)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if err := sessions.SaveSession(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	printSuccess("Logged in to %s as %s", c.Config.BackendURL, username)
	printDetail("Session expires %s", sess.ExpiresAt.Format("Jan 2, 15:04"))
	return nil
}

// readPassword reads the first line of r.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// =============================================================================
// Credential Prompt
// =============================================================================

type credentials struct {
	username string
	password string
}

// loginModel is a two-field form: username, then a masked password.
type loginModel struct {
	inputs    []textinput.Model
	focus     int
	done      bool
	cancelled bool
}

func newLoginModel(username string) loginModel {
	user := textinput.New()
	user.Placeholder = "username"
	user.CharLimit = 128
	user.SetValue(username)

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.CharLimit = 256
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	m := loginModel{inputs: []textinput.Model{user, pass}}
	if username != "" {
		m.focus = 1
	}
	m.inputs[m.focus].Focus()
	return m
}

func (m loginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m loginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "tab", "shift+tab", "up", "down":
			m.inputs[m.focus].Blur()
			m.focus = 1 - m.focus
			return m, m.inputs[m.focus].Focus()
		case "enter":
			if m.focus == 0 {
				m.inputs[0].Blur()
				m.focus = 1
				return m, m.inputs[1].Focus()
			}
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m loginModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Log in"))
	b.WriteString("\n\n")
	for _, in := range m.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("tab switch field  ⏎ submit  esc cancel"))
	b.WriteString("\n")
	return b.String()
}

func (m loginModel) credentials() credentials {
	return credentials{
		username: strings.TrimSpace(m.inputs[0].Value()),
		password: m.inputs[1].Value(),
	}
}

// promptCredentials asks for the username (unless given) and the password.
func promptCredentials(username string) (credentials, error) {
	final, err := tea.NewProgram(newLoginModel(username)).Run()
	if err != nil {
		return credentials{}, fmt.Errorf("prompt: %w", err)
	}
	m := final.(loginModel)
	if m.cancelled {
		return credentials{}, context.Canceled
	}
	return m.credentials(), nil
}

package app

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/runtime-config/runtime-config/internal/auth"
	"github.com/runtime-config/runtime-config/internal/daemon"
)

func init() { //nolint: gochecknoinits
	createAdminCmd.Flags().StringVar(&adminForm.Username, "username", "", "Login name of the admin")
	createAdminCmd.Flags().StringVar(&adminForm.Email, "email", "", "Email address of the admin")
	createAdminCmd.Flags().StringVar(&adminForm.FullName, "full-name", "", "Display name of the admin")
	_ = createAdminCmd.MarkFlagRequired("username")
	_ = createAdminCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(createAdminCmd)
}

var (
	adminForm auth.NewUserForm

	createAdminCmd = &cobra.Command{
		Use:   "create-admin",
		Short: "Create an active admin user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := readConfig()
			if err != nil {
				return err
			}

			password, err := readPassword(cmd.ErrOrStderr(), os.Stdin)
			if err != nil {
				return err
			}

			form := adminForm
			form.Password = password

			u, err := daemon.CreateAdmin(cmd.Context(), cfg, form)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "admin %q created (id %d)\n", u.Username, u.ID)

			return nil
		},
	}
)

// readPassword prompts twice without echo on a terminal and reads one line otherwise.
func readPassword(prompt io.Writer, in *os.File) (string, error) {
	fd := int(in.Fd())

	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", errors.Wrap(err, "reading password")
		}

		return strings.TrimRight(line, "\r\n"), nil
	}

	_, _ = fmt.Fprint(prompt, "Password: ")
	first, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(prompt)

	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}

	_, _ = fmt.Fprint(prompt, "Confirm password: ")
	second, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(prompt)

	if err != nil {
		return "", errors.Wrap(err, "reading password confirmation")
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}

	return string(first), nil
}

package commands

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/activerest-io/activerest/internal/constants"
	"github.com/activerest-io/activerest/pkg/activerest"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		apiEndpoint string
		token       string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API endpoint and token",
		Long:  "Record the API endpoint and authentication token in the config file for later commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Get API endpoint
			if apiEndpoint == "" {
				apiEndpoint = viper.GetString("api")
			}

			if apiEndpoint == "" {
				reader := bufio.NewReader(os.Stdin)
				fmt.Print("API endpoint: ")
				apiEndpoint, _ = reader.ReadString('\n')
				apiEndpoint = strings.TrimSpace(apiEndpoint)
			}

			if apiEndpoint == "" {
				return ErrNoAPIEndpoint
			}

			if token == "" {
				fmt.Print("Token (optional): ")

				byteToken, err := term.ReadPassword(int(syscall.Stdin))
				if err != nil {
					return fmt.Errorf("failed to read token: %w", err)
				}

				token = strings.TrimSpace(string(byteToken))

				fmt.Println()
			}

			// Reject endpoints the client itself would refuse
			if _, err := activerest.New(&activerest.Config{BaseURL: apiEndpoint, APIToken: token}); err != nil {
				return fmt.Errorf("invalid API endpoint: %w", err)
			}

			viper.Set("api", apiEndpoint)
			viper.Set("token", token)

			if err := saveConfig(); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			fmt.Printf("Configured %s\n", apiEndpoint)

			return nil
		},
	}

	cmd.Flags().StringVarP(&apiEndpoint, "api", "a", "", "API endpoint URL")
	cmd.Flags().StringVarP(&token, "token", "t", "", "authentication token")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			viper.Set("token", "")

			if err := saveConfig(); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			fmt.Println("Successfully logged out")

			return nil
		},
	}
}

// saveConfig writes the effective configuration back to the config file,
// creating ~/.arc/config.yml when none was loaded yet. The file holds a
// token, so it is kept owner-readable only.
func saveConfig() error {
	path := viper.ConfigFileUsed()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		path = filepath.Join(home, ".arc", "config.yml")
	}

	if err := viper.WriteConfigAs(path); err != nil {
		return err
	}

	return os.Chmod(path, constants.ConfigFilePerm)
}

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"feedengage/pkg/auth"
	"feedengage/pkg/config"
	"feedengage/pkg/platform"
	"feedengage/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage platform credentials",
	Long: `Manage stored platform logins securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read only)

Never share your credentials or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [platform]",
	Short: "Store a platform login securely",
	Long: `Store the username and password for one platform in the system
keychain or the encrypted credentials file.

The password is read without echo.`,
	Example: `  # Interactive login
  feedengage auth login

  # Store the LinkedIn login
  feedengage auth login linkedin`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [platform]",
	Short: "Remove stored credentials",
	Long: `Remove a stored platform login.

If no platform is provided, you will be shown a list of stored logins to
choose from. You can also remove all of them at once.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored logins",
	Long:  `List all stored platform logins with masked passwords.`,
	Run:   runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)
	auth.ShowCredentialGuide(os.Stdout, config.KnownPlatforms)
	fmt.Println()

	var name string
	if len(args) > 0 {
		name = args[0]
	} else {
		fmt.Printf("Platform (%s): ", strings.Join(config.KnownPlatforms, ", "))
		input, err := reader.ReadString('\n')
		if err != nil {
			ui.PrintError("Failed to read platform", err.Error())
			os.Exit(1)
		}
		name = input
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := platform.Get(name); !ok {
		ui.PrintError("Unknown platform", name)
		os.Exit(1)
	}

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("\n⚠️  A %s login for '%s' already exists. Replace it? (y/N): ", name, existing.Username)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Print("\n👤 Username or email: ")
	username, err := reader.ReadString('\n')
	if err != nil {
		ui.PrintError("Failed to read username", err.Error())
		os.Exit(1)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		ui.PrintError("Username is required", "")
		os.Exit(1)
	}

	fmt.Print("🔑 Password (hidden): ")
	password, err := readPassword(reader)
	if err != nil {
		ui.PrintError("Failed to read password", err.Error())
		os.Exit(1)
	}
	if password == "" {
		ui.PrintError("Password is required", "")
		os.Exit(1)
	}

	account := &auth.Account{
		Platform:     name,
		Username:     username,
		Password:     password,
		LastModified: time.Now(),
	}

	fmt.Println("\n💾 Storing credentials securely...")
	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess(fmt.Sprintf("Login saved for %s: %s", name, username))

	if p, _ := platform.Get(name); !p.Enabled {
		ui.PrintWarning(fmt.Sprintf("%s is not enabled for runs yet", p.DisplayName))
	}
	fmt.Println("\n📖 Start a run with:")
	fmt.Printf("   $ feedengage run %s\n", name)
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	if len(args) > 0 {
		removeLogin(manager, strings.ToLower(args[0]))
		return
	}

	accounts, err := manager.List()
	if err != nil || len(accounts) == 0 {
		ui.PrintError("No stored logins found", "")
		return
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Println("Select login to remove:")
	for i, account := range accounts {
		fmt.Printf("  %d. %s (%s)\n", i+1, account.Platform, account.Username)
	}
	fmt.Printf("  %d. Remove all logins\n", len(accounts)+1)
	fmt.Printf("  0. Cancel\n\n")
	fmt.Print("Choice: ")
	input, _ := reader.ReadString('\n')

	var choice int
	fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)

	switch {
	case choice == 0:
		return
	case choice == len(accounts)+1:
		fmt.Print("Remove ALL logins? This cannot be undone! (yes/N): ")
		confirm, _ := reader.ReadString('\n')
		if strings.TrimSpace(confirm) != "yes" {
			return
		}
		if err := manager.DeleteAll(); err != nil {
			ui.PrintError("Failed to remove all logins", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("All logins removed")
	case choice > 0 && choice <= len(accounts):
		removeLogin(manager, accounts[choice-1].Platform)
	default:
		ui.PrintError("Invalid choice", "")
		os.Exit(1)
	}
}

func removeLogin(manager *auth.Manager, name string) {
	if err := manager.Delete(name); err != nil {
		ui.PrintError("Failed to remove login", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Login removed: " + name)
}

func runList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list logins", err.Error())
		os.Exit(1)
	}
	if len(accounts) == 0 {
		ui.PrintInfo("No stored logins", "Use 'feedengage auth login' to add one")
		return
	}

	ui.PrintHighlight("Stored Logins")
	fmt.Println()
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. Platform: %s\n", i+1, sanitized.Platform)
		fmt.Printf("   Username: %s\n", sanitized.Username)
		fmt.Printf("   Password: %s\n", sanitized.Password)
		if !sanitized.LastModified.IsZero() {
			fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
}

// readPassword reads a password from stdin without echoing
func readPassword(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		password, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return string(password), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

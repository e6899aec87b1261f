package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowCredentialGuide explains where credentials are looked up
func ShowCredentialGuide(w io.Writer, platforms []string) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "🔐 PLATFORM CREDENTIALS")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Credentials are resolved in this order:")
	fmt.Fprintln(w, "   1. The config file (platforms.<name>.username / password)")
	fmt.Fprintln(w, "   2. The system keychain, filled by 'feedengage auth login'")
	fmt.Fprintln(w, "   3. An encrypted file in the config directory")
	fmt.Fprintln(w, "   4. Environment variables")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables per platform:")
	for _, name := range platforms {
		upper := strings.ToUpper(name)
		fmt.Fprintf(w, "   • %s_USERNAME and %s_PASSWORD\n", upper, upper)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "⚠️  Use a dedicated account. Automated engagement can get an account restricted.")
	fmt.Fprintln(w, strings.Repeat("=", 72))
}

package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteTokenGuide prints how to obtain a Graph API user access token
// carrying the given permission scopes.
func WriteTokenGuide(w io.Writer, scopes []string) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "GRAPH API ACCESS TOKEN")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "1. Open https://developers.facebook.com/tools/explorer")
	fmt.Fprintln(w, "2. Select your application, then \"Get User Access Token\"")
	fmt.Fprintln(w, "3. Tick these permissions:")
	for _, scope := range scopes {
		fmt.Fprintf(w, "     - %s\n", scope)
	}
	fmt.Fprintln(w, "4. Generate the token and paste it at the prompt below")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Short-lived tokens expire after about an hour. Exchange it for a")
	fmt.Fprintln(w, "long-lived token in the Access Token Debugger for unattended exports.")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "The token can also be supplied through %s.\n", TokenEnv)
	fmt.Fprintln(w, rule)
}

// WriteQuickGuide is the one-line version shown on repeated prompts
func WriteQuickGuide(w io.Writer, scopes []string) {
	fmt.Fprintf(w, "Graph Explorer -> Get User Access Token -> scopes: %s\n", strings.Join(scopes, ", "))
}

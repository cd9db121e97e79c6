package ui

import "fmt"

const Logo = `
  ┌──────────────────────────────────────────────┐
  │  f b e x p o r t                             │
  │  Graph API timeline archiver                 │
  └──────────────────────────────────────────────┘
`

var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

func colorize(format string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(format, text)
	}
}

func PrintLogo() {
	fmt.Print(Cyan(Logo))
}

// PrintError prints msg in red, followed by the first arg if given
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	fmt.Println(Red(msg))
}

func PrintSuccess(msg string) {
	fmt.Println(Green(msg))
}

// PrintInfo prints a "label: value" pair
func PrintInfo(label string, value string) {
	fmt.Printf("%s: %s\n", Cyan(label), Yellow(value))
}

func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	fmt.Println(Yellow(msg))
}

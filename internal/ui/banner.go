package ui

import (
	"fmt"

	"github.com/fatih/color"
)

// Version is printed in the banner.
const Version = "v1.0.0"

// PrintBanner displays the startup banner.
func PrintBanner() {
	cyan := color.New(color.FgCyan, color.Bold)
	magenta := color.New(color.FgMagenta, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	white := color.New(color.FgWhite)
	dim := color.New(color.FgHiBlack)

	fmt.Println()
	cyan.Println("╔══════════════════════════════════════════════════════╗")

	cyan.Print("║  ")
	magenta.Print("HPN CHAT ADAPTER")
	dim.Print("  │  ")
	yellow.Print("chat completions + tools")
	dim.Print("  ")
	cyan.Println("   ║")

	cyan.Print("║  ")
	white.Print(Version)
	dim.Print("  │  text · message · list → one assistant reply ")
	cyan.Println(" ║")

	cyan.Println("╚══════════════════════════════════════════════════════╝")
	fmt.Println()
}

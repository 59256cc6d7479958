// Package ui provides colored console output for the chat adapter server.
// It prints a startup banner, endpoint table and one summary line per invoke.
package ui

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/hpn/hpn-chat-adapter/internal/domain"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR DEFINITIONS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// Badge colors
	successBadge = color.New(color.BgGreen, color.FgBlack, color.Bold)
	warningBadge = color.New(color.FgYellow, color.Bold)
	errorBadge   = color.New(color.BgRed, color.FgWhite, color.Bold)
	infoBadge    = color.New(color.FgCyan, color.Bold)

	// Text colors
	successText = color.New(color.FgGreen, color.Bold)
	warningText = color.New(color.FgYellow)
	errorText   = color.New(color.FgRed)
	infoText    = color.New(color.FgCyan)
	mutedText   = color.New(color.FgHiBlack)
	accentText  = color.New(color.FgMagenta, color.Bold)

	// Special colors
	moneyGreen = color.New(color.FgHiGreen, color.Bold)
	neonBlue   = color.New(color.FgHiCyan, color.Bold)

	// Method colors
	methodPOST = color.New(color.BgHiMagenta, color.FgBlack, color.Bold)
	methodGET  = color.New(color.BgHiCyan, color.FgBlack, color.Bold)
	methodPUT  = color.New(color.BgHiYellow, color.FgBlack, color.Bold)
)

// ══════════════════════════════════════════════════════════════════════════════
// INVOKE SUMMARY
// ══════════════════════════════════════════════════════════════════════════════

// PrintInvoke logs one completed invoke.
// Format: 15:04:05 [INVOKE] model | 2 tool calls | 12+5=17 tokens
func PrintInvoke(model string, toolCalls int, usage *domain.TokenUsage) {
	fmt.Print(FormatInvoke(time.Now(), model, toolCalls, usage))
	fmt.Println()
}

// FormatInvoke renders the invoke summary line without printing it.
func FormatInvoke(at time.Time, model string, toolCalls int, usage *domain.TokenUsage) string {
	line := mutedText.Sprintf("%s ", at.Format("15:04:05")) +
		infoBadge.Sprint("[INVOKE]") + " " +
		accentText.Sprint(model)

	switch toolCalls {
	case 0:
		line += mutedText.Sprint(" | text reply")
	case 1:
		line += " | " + warningText.Sprint("1 tool call")
	default:
		line += " | " + warningText.Sprintf("%d tool calls", toolCalls)
	}

	if usage == nil {
		line += mutedText.Sprint(" | usage not reported")
	} else {
		line += " | " + successText.Sprintf("%d+%d=%d tokens",
			usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
	}
	return line
}

// PrintCost logs the cost of the last call and the running total.
// Format: 💸 $0.000012 this call | total $0.0031
func PrintCost(cost, total string) {
	moneyGreen.Print("💸 ")
	moneyGreen.Print(cost)
	fmt.Print(" this call | total ")
	moneyGreen.Println(total)
}

// PrintError logs a failed invoke.
func PrintError(status int, msg string) {
	errorBadge.Printf(" %d ", status)
	fmt.Print(" ")
	errorText.Println(msg)
}

// ══════════════════════════════════════════════════════════════════════════════
// STARTUP MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

// PrintStartupInfo prints styled server startup information.
func PrintStartupInfo(addr, model string, temperature float64, tools int) {
	fmt.Println()
	infoBadge.Print("[ADAPTER]")
	fmt.Print(" Server starting on ")
	neonBlue.Printf("http://%s\n", addr)

	infoBadge.Print("[ADAPTER]")
	fmt.Print(" Model: ")
	accentText.Print(model)
	fmt.Print(" | Temperature: ")
	infoText.Printf("%.2f", temperature)
	fmt.Print(" | Tools: ")
	if tools > 0 {
		successText.Printf("%d\n", tools)
	} else {
		mutedText.Println("none")
	}

	fmt.Println()
	printEndpoints()
}

// printEndpoints prints the available API endpoints.
func printEndpoints() {
	mutedText.Println("  ┌─────────────────────────────────────────────────────────┐")
	mutedText.Print("  │ ")
	methodPOST.Print(" POST ")
	fmt.Print(" /v1/invoke ")
	mutedText.Print("  Invoke the model (text, message, list) ")
	mutedText.Println(" │")

	mutedText.Print("  │ ")
	methodGET.Print(" GET  ")
	fmt.Print(" /v1/tools  ")
	mutedText.Print("  List registered tools                  ")
	mutedText.Println(" │")

	mutedText.Print("  │ ")
	methodPUT.Print(" PUT  ")
	fmt.Print(" /v1/tools  ")
	mutedText.Print("  Register or replace a tool             ")
	mutedText.Println(" │")

	mutedText.Print("  │ ")
	methodGET.Print(" GET  ")
	fmt.Print(" /health    ")
	mutedText.Print("  Health check                           ")
	mutedText.Println(" │")

	mutedText.Println("  └─────────────────────────────────────────────────────────┘")
	fmt.Println()
}

// PrintShutdown prints a styled shutdown message.
func PrintShutdown() {
	fmt.Println()
	warningBadge.Print("[SHUTDOWN]")
	warningText.Println(" Graceful shutdown initiated...")
}

// PrintGoodbye prints a styled goodbye message.
func PrintGoodbye() {
	successBadge.Print(" OK ")
	fmt.Print(" ")
	successText.Println("Server stopped. Goodbye! 👋")
}

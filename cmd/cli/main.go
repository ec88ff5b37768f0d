package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/stafflane/hr-copilot/internal/domain"
	"github.com/stafflane/hr-copilot/internal/gate"
	"github.com/stafflane/hr-copilot/internal/intent"
	"github.com/stafflane/hr-copilot/internal/policy"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func main() {
	fmt.Println(colorCyan + colorBold + `
╔═══════════════════════════════════════════════════════════╗
║          HR COPILOT - Security Gate CLI                   ║
║          Type a query to see intent + gate decision       ║
║          'role <employee|manager|admin>' switches role    ║
║          'exit' or 'quit' to exit                         ║
╚═══════════════════════════════════════════════════════════╝` + colorReset)
	fmt.Println()

	logger := log.New(io.Discard, "", 0)

	loader := policy.NewLoader(os.Getenv("POLICY_FILE"), logger)
	if err := loader.Load(); err != nil {
		fmt.Printf("%sError: failed to load policy tables: %v%s\n", colorRed, err, colorReset)
		os.Exit(1)
	}

	securityGate, err := gate.New(loader.Tables(), logger)
	if err != nil {
		fmt.Printf("%sError: failed to build security gate: %v%s\n", colorRed, err, colorReset)
		os.Exit(1)
	}

	role := domain.RoleEmployee
	fmt.Printf("%s[✓] Gate initialized%s\n", colorGreen, colorReset)
	fmt.Printf("    Policy version: %s\n", securityGate.PolicyVersion())
	fmt.Printf("    Active role: %s\n", role)
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("%s%s>%s ", colorBold, role, colorReset)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		if rest, ok := strings.CutPrefix(line, "role "); ok {
			parsed, err := domain.ParseRole(strings.TrimSpace(rest))
			if err != nil {
				fmt.Printf("%s%v%s\n", colorYellow, err, colorReset)
				continue
			}
			role = parsed
			fmt.Printf("Active role: %s\n", role)
			continue
		}

		tag, confidence := intent.Classify(line)
		fmt.Printf("  intent:     %s (%.2f)\n", tag, confidence)

		decision := securityGate.Check(role, tag, line)
		if decision.Allowed {
			fmt.Printf("  decision:   %sALLOWED%s\n", colorGreen+colorBold, colorReset)
		} else {
			fmt.Printf("  decision:   %sBLOCKED%s\n", colorRed+colorBold, colorReset)
			fmt.Printf("  violation:  %s\n", decision.Violation)
			fmt.Printf("  reason:     %s\n", decision.Reason)
		}
		if decision.PolicyID != "" {
			fmt.Printf("  policy:     %s\n", decision.PolicyID)
		}
		fmt.Println()
	}
}

package at_test

import (
	"bufio"
	"strings"
	"testing"

	"i4.energy/across/atprobe/at"
)

func TestSplitter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Simple AT command response",
			input:    "AT+CSQ\r\n+CSQ: 15,99\r\nOK\r\n",
			expected: []string{"AT+CSQ", "+CSQ: 15,99", "OK"},
		},
		{
			name:     "AT command with error",
			input:    "AT+CPIN?\r\n+CME ERROR: 10\r\n",
			expected: []string{"AT+CPIN?", "+CME ERROR: 10"},
		},
		{
			name:     "Network registration check",
			input:    "AT+CREG?\r\n+CREG: 0,1\r\nOK\r\n",
			expected: []string{"AT+CREG?", "+CREG: 0,1", "OK"},
		},
		{
			name:     "PDP context definition",
			input:    "AT+CGDCONT=1,\"IP\",\"internet\"\r\nOK\r\n",
			expected: []string{"AT+CGDCONT=1,\"IP\",\"internet\"", "OK"},
		},
		{
			name:     "Empty lines handling",
			input:    "\r\n\r\nAT\r\nOK\r\n\r\n",
			expected: []string{"", "", "AT", "OK", ""},
		},
		{
			name:     "Bare line feeds",
			input:    "+CGATT: 1\nOK\n",
			expected: []string{"+CGATT: 1", "OK"},
		},
		// EOF scenarios - testing atEOF functionality
		{
			name:     "Incomplete command at EOF",
			input:    "AT+CSQ\r\n+CSQ: 15,99",
			expected: []string{"AT+CSQ", "+CSQ: 15,99"},
		},
		{
			name:     "Command without CRLF at EOF",
			input:    "AT+CPIN",
			expected: []string{"AT+CPIN"},
		},
		{
			name:     "Mixed complete and incomplete at EOF",
			input:    "ATI\r\nQuectel\r\nBG96",
			expected: []string{"ATI", "Quectel", "BG96"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tokens []string
			scanner := bufio.NewScanner(strings.NewReader(tt.input))
			scanner.Split(at.Splitter)

			for scanner.Scan() {
				tokens = append(tokens, scanner.Text())
			}

			if err := scanner.Err(); err != nil {
				t.Fatalf("Scanner error: %v", err)
			}

			if len(tokens) != len(tt.expected) {
				t.Fatalf("Expected %d tokens, got %d.\nExpected: %v\nGot: %v",
					len(tt.expected), len(tokens), tt.expected, tokens)
			}

			for i, expected := range tt.expected {
				if tokens[i] != expected {
					t.Errorf("Token %d: expected %q, got %q", i, expected, tokens[i])
				}
			}
		})
	}
}

func TestIsSentinel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "OK response", input: "OK", expected: true},
		{name: "ERROR response", input: "ERROR", expected: true},
		{name: "OK with surrounding whitespace", input: "  OK\r", expected: true},
		{name: "CME Error", input: "+CME ERROR: 30", expected: false},
		{name: "Lowercase ok", input: "ok", expected: false},
		{name: "OK inside data", input: "+COPS: 0,0,\"OK Mobile\"", expected: false},
		{name: "Empty line", input: "", expected: false},
		{name: "Attach status", input: "+CGATT: 1", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := at.IsSentinel(tt.input); result != tt.expected {
				t.Errorf("Expected %v, got %v for input %q", tt.expected, result, tt.input)
			}
		})
	}
}

func TestProbeCommands(t *testing.T) {
	expected := []string{
		"ATE0", "AT", "AT+CPIN?", "AT+CSQ", "AT+COPS?", "AT+CREG?",
		"AT+CEREG?", "AT+CGREG?", "AT+CGDCONT?", "AT+CGATT?", "AT+CFUN?",
	}

	cmds := at.ProbeCommands()
	if len(cmds) != len(expected) {
		t.Fatalf("Expected %d commands, got %d", len(expected), len(cmds))
	}
	for i, cmd := range cmds {
		if cmd.Text != expected[i] {
			t.Errorf("Command %d: expected %q, got %q", i, expected[i], cmd.Text)
		}
		if cmd.Description == "" {
			t.Errorf("Command %q has no description", cmd.Text)
		}
	}

	// Mutating the returned slice must not leak into the next call.
	cmds[0].Text = "ATZ"
	if got := at.ProbeCommands()[0].Text; got != "ATE0" {
		t.Errorf("ProbeCommands returned shared state, got %q", got)
	}
}

func TestDefineContext(t *testing.T) {
	tests := []struct {
		apn      string
		expected string
	}{
		{apn: "internet", expected: `AT+CGDCONT=1,"IP","internet"`},
		{apn: "", expected: `AT+CGDCONT=1,"IP",""`},
		{apn: `we"ird`, expected: `AT+CGDCONT=1,"IP","we"ird"`},
	}

	for _, tt := range tests {
		t.Run(tt.apn, func(t *testing.T) {
			if got := at.DefineContext(tt.apn); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

package at

import "fmt"

const (
	// Terminal Control
	CRLF = "\r\n"

	// Response Codes
	OK    = "OK"
	ERROR = "ERROR"

	// Attach status field reported by AT+CGATT?
	AttachField = "+CGATT"
)

// Diagnostic queries
const (
	CmdEchoOff          = "ATE0"
	CmdAt               = "AT"
	CmdSimStatus        = "AT+CPIN?"
	CmdSignalQuality    = "AT+CSQ"
	CmdOperator         = "AT+COPS?"
	CmdRegistration     = "AT+CREG?"
	CmdEPSRegistration  = "AT+CEREG?"
	CmdGPRSRegistration = "AT+CGREG?"
	CmdPDPContexts      = "AT+CGDCONT?"
	CmdAttachStatus     = "AT+CGATT?"
	CmdFunctionality    = "AT+CFUN?"
)

// Packet data configuration
const (
	CmdAttach         = "AT+CGATT=1"
	CmdActivatePDP    = "AT+CGACT=1,1"
	CmdPDPAddress     = "AT+CGPADDR"
	defineContextTmpl = `AT+CGDCONT=1,"IP","%s"`
)

// Command is a literal AT command paired with a human readable description.
type Command struct {
	Text        string
	Description string
}

// ProbeCommands returns the diagnostic queries in the order they are issued.
// A fresh slice is returned on every call.
func ProbeCommands() []Command {
	return []Command{
		{CmdEchoOff, "disable echo"},
		{CmdAt, "basic connectivity"},
		{CmdSimStatus, "SIM status"},
		{CmdSignalQuality, "signal quality"},
		{CmdOperator, "current operator"},
		{CmdRegistration, "network registration (2G/3G)"},
		{CmdEPSRegistration, "network registration (EPS/LTE)"},
		{CmdGPRSRegistration, "GPRS registration"},
		{CmdPDPContexts, "PDP contexts (APN)"},
		{CmdAttachStatus, "packet domain attach"},
		{CmdFunctionality, "functionality mode"},
	}
}

// DefineContext builds the command that sets PDP context 1 to IP with the
// given APN. The APN is inserted verbatim.
func DefineContext(apn string) string {
	return fmt.Sprintf(defineContextTmpl, apn)
}

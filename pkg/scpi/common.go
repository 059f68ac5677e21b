package scpi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/transport"
)

// Conn carries one command line, or one command line and its reply line,
// to an instrument. *device.Device implements it so common commands share
// its locking and capture.
type Conn interface {
	Write(cmd string) error
	Query(cmd string) (string, error)
}

// Link adapts a bare transport to Conn.
func Link(t transport.Transport) Conn { return link{t: t} }

type link struct {
	t transport.Transport
}

func (l link) Write(cmd string) error { return l.t.Send(cmd) }

func (l link) Query(cmd string) (string, error) {
	if err := l.t.Send(cmd); err != nil {
		return "", err
	}
	line, err := l.t.ReadLine()
	if err != nil {
		return "", fmt.Errorf("%s: %w", cmd, err)
	}
	return strings.TrimSpace(line), nil
}

// Common issues IEEE 488.2 common commands over a Conn.
type Common struct {
	conn Conn
}

// NewCommon binds the common command set to conn.
func NewCommon(conn Conn) *Common {
	return &Common{conn: conn}
}

// Write sends a command line.
func (c *Common) Write(cmd string) error {
	return c.conn.Write(cmd)
}

// Query sends a command line and returns the trimmed reply.
func (c *Common) Query(cmd string) (string, error) {
	return c.conn.Query(cmd)
}

func (c *Common) queryInt(cmd string) (int, error) {
	reply, err := c.Query(cmd)
	if err != nil {
		return 0, err
	}
	n, err := ParseInt(reply)
	if err != nil {
		return 0, fault.Protocol(cmd, err)
	}
	return n, nil
}

func withArgs(token string, args ...string) string {
	if len(args) == 0 {
		return token
	}
	return token + " " + strings.Join(args, ",")
}

// AcceptAddress sends *AAD.
func (c *Common) AcceptAddress() error { return c.Write("*AAD") }

// CalibrationQuery runs *CAL? and returns the result code, 0 on success.
func (c *Common) CalibrationQuery() (int, error) { return c.queryInt("*CAL?") }

// ClearStatus sends *CLS.
func (c *Common) ClearStatus() error { return c.Write("*CLS") }

// DefineDeviceTrigger stores the trigger command sequence with *DDT.
func (c *Common) DefineDeviceTrigger(block string) error {
	return c.Write(withArgs("*DDT", block))
}

// DefineDeviceTriggerQuery returns the trigger command sequence.
func (c *Common) DefineDeviceTriggerQuery() (string, error) { return c.Query("*DDT?") }

// DisableListenerFunction sends *DLF.
func (c *Common) DisableListenerFunction() error { return c.Write("*DLF") }

// DefineMacro assigns a command sequence to label with *DMC.
func (c *Common) DefineMacro(label, sequence string) error {
	return c.Write(withArgs("*DMC", strconv.Quote(label), sequence))
}

// EnableMacro enables or disables macro expansion with *EMC.
func (c *Common) EnableMacro(on bool) error {
	return c.Write(withArgs("*EMC", FormatBit(on)))
}

// EnableMacroQuery reports whether macros are enabled.
func (c *Common) EnableMacroQuery() (bool, error) {
	reply, err := c.Query("*EMC?")
	if err != nil {
		return false, err
	}
	on, err := ParseBool(reply)
	if err != nil {
		return false, fault.Protocol("*EMC?", err)
	}
	return on, nil
}

// EventStatusEnable sets the Standard Event Status Enable register.
func (c *Common) EventStatusEnable(mask int) error {
	return c.Write(withArgs("*ESE", strconv.Itoa(mask)))
}

// EventStatusEnableQuery reads the Standard Event Status Enable register.
func (c *Common) EventStatusEnableQuery() (int, error) { return c.queryInt("*ESE?") }

// EventStatusRegisterQuery reads and clears the Standard Event Status register.
func (c *Common) EventStatusRegisterQuery() (int, error) { return c.queryInt("*ESR?") }

// GetMacroContentsQuery returns the definition of a macro.
func (c *Common) GetMacroContentsQuery(label string) (string, error) {
	return c.Query(withArgs("*GMC?", strconv.Quote(label)))
}

// IdentificationQuery returns the *IDN? fields.
func (c *Common) IdentificationQuery() ([]string, error) {
	reply, err := c.Query("*IDN?")
	if err != nil {
		return nil, err
	}
	return Fields(reply), nil
}

// Identify parses *IDN? into an Identity.
func (c *Common) Identify() (Identity, error) {
	reply, err := c.Query("*IDN?")
	if err != nil {
		return Identity{}, err
	}
	return ParseIdentity(reply), nil
}

// IndividualStatusQuery reads the ist local message.
func (c *Common) IndividualStatusQuery() (int, error) { return c.queryInt("*IST?") }

// LearnMacroQuery returns the defined macro labels.
func (c *Common) LearnMacroQuery() (string, error) { return c.Query("*LMC?") }

// LearnDeviceSetupQuery returns the command sequence that restores the
// current setup.
func (c *Common) LearnDeviceSetupQuery() (string, error) { return c.Query("*LRN?") }

// OperationComplete sends *OPC.
func (c *Common) OperationComplete() error { return c.Write("*OPC") }

// OperationCompleteQuery blocks on the instrument until pending operations
// finish and returns 1.
func (c *Common) OperationCompleteQuery() (int, error) { return c.queryInt("*OPC?") }

// OptionIdentificationQuery returns the installed options.
func (c *Common) OptionIdentificationQuery() (string, error) { return c.Query("*OPT?") }

// PassControlBack names the controller address for *PCB.
func (c *Common) PassControlBack(addr int) error {
	return c.Write(withArgs("*PCB", strconv.Itoa(addr)))
}

// PurgeMacros deletes all macros.
func (c *Common) PurgeMacros() error { return c.Write("*PMC") }

// ParallelPollEnable sets the Parallel Poll Enable register.
func (c *Common) ParallelPollEnable(mask int) error {
	return c.Write(withArgs("*PRE", strconv.Itoa(mask)))
}

// ParallelPollEnableQuery reads the Parallel Poll Enable register.
func (c *Common) ParallelPollEnableQuery() (int, error) { return c.queryInt("*PRE?") }

// PowerOnStatusClearQuery reads the power-on status clear flag.
func (c *Common) PowerOnStatusClearQuery() (int, error) { return c.queryInt("*PSC?") }

// ProtectedUserData stores data in the protected user area.
func (c *Common) ProtectedUserData(block string) error {
	return c.Write(withArgs("*PUD", block))
}

// ProtectedUserDataQuery returns the protected user data.
func (c *Common) ProtectedUserDataQuery() (string, error) { return c.Query("*PUD?") }

// Recall restores a saved setup.
func (c *Common) Recall(register int) error {
	return c.Write(withArgs("*RCL", strconv.Itoa(register)))
}

// ResourceDescriptionTransfer stores a resource description.
func (c *Common) ResourceDescriptionTransfer(block string) error {
	return c.Write(withArgs("*RDT", block))
}

// ResourceDescriptionTransferQuery returns the resource description.
func (c *Common) ResourceDescriptionTransferQuery() (string, error) { return c.Query("*RDT?") }

// Reset sends *RST.
func (c *Common) Reset() error { return c.Write("*RST") }

// Save stores the current setup.
func (c *Common) Save(register int) error {
	return c.Write(withArgs("*SAV", strconv.Itoa(register)))
}

// ServiceRequestEnable sets the Service Request Enable register.
func (c *Common) ServiceRequestEnable(mask int) error {
	return c.Write(withArgs("*SRE", strconv.Itoa(mask)))
}

// ServiceRequestEnableQuery reads the Service Request Enable register.
func (c *Common) ServiceRequestEnableQuery() (int, error) { return c.queryInt("*SRE?") }

// StatusByteQuery reads the status byte.
func (c *Common) StatusByteQuery() (int, error) { return c.queryInt("*STB?") }

// Trigger sends *TRG.
func (c *Common) Trigger() error { return c.Write("*TRG") }

// SelfTestQuery runs the self test and returns its result, 0 on success.
func (c *Common) SelfTestQuery() (int, error) { return c.queryInt("*TST?") }

// WaitToContinue sends *WAI.
func (c *Common) WaitToContinue() error { return c.Write("*WAI") }

// RemoveIndividualMacro deletes one macro.
func (c *Common) RemoveIndividualMacro(label string) error {
	return c.Write(withArgs("*RMC", strconv.Quote(label)))
}

// SaveDefaultDeviceSettings restores the factory defaults into register.
func (c *Common) SaveDefaultDeviceSettings(register int) error {
	return c.Write(withArgs("*SDS", strconv.Itoa(register)))
}

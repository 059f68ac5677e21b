package scpi

import (
	"strconv"
	"strings"

	"github.com/ogameasure/ogameasure-go/pkg/dispatch"
	"github.com/ogameasure/ogameasure-go/pkg/fault"
)

// command is one row of the common command table.
type command struct {
	token string
	name  string
	desc  string
	call  func(c *Common, args []string) (any, error)
}

func noReply(err error) (any, error) { return nil, err }

func intArg(token string, args []string) (int, error) {
	if len(args) != 1 {
		return 0, fault.Validationf(token, args, "want 1 argument, got %d", len(args))
	}
	n, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fault.Validation(token, args[0], "not an integer")
	}
	return n, nil
}

func strArg(token string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fault.Validationf(token, args, "want 1 argument, got %d", len(args))
	}
	return args[0], nil
}

func intCmd(f func(c *Common, n int) error, token string) func(*Common, []string) (any, error) {
	return func(c *Common, args []string) (any, error) {
		n, err := intArg(token, args)
		if err != nil {
			return nil, err
		}
		return noReply(f(c, n))
	}
}

func strCmd(f func(c *Common, s string) error, token string) func(*Common, []string) (any, error) {
	return func(c *Common, args []string) (any, error) {
		s, err := strArg(token, args)
		if err != nil {
			return nil, err
		}
		return noReply(f(c, s))
	}
}

func plain(f func(c *Common) error) func(*Common, []string) (any, error) {
	return func(c *Common, _ []string) (any, error) { return noReply(f(c)) }
}

func intQuery(f func(c *Common) (int, error)) func(*Common, []string) (any, error) {
	return func(c *Common, _ []string) (any, error) { return f(c) }
}

func strQuery(f func(c *Common) (string, error)) func(*Common, []string) (any, error) {
	return func(c *Common, _ []string) (any, error) { return f(c) }
}

var commonCommands = []command{
	{"*AAD", "AcceptAddress", "Accept Address Command", plain((*Common).AcceptAddress)},
	{"*CAL?", "CalibrationQuery", "Calibration Query", intQuery((*Common).CalibrationQuery)},
	{"*CLS", "ClearStatus", "Clear Status Command", plain((*Common).ClearStatus)},
	{"*DDT", "DefineDeviceTrigger", "Define Device Trigger Command", strCmd((*Common).DefineDeviceTrigger, "*DDT")},
	{"*DDT?", "DefineDeviceTriggerQuery", "Define Device Trigger Query", strQuery((*Common).DefineDeviceTriggerQuery)},
	{"*DLF", "DisableListenerFunction", "Disable Listener Function", plain((*Common).DisableListenerFunction)},
	{"*DMC", "DefineMacro", "Define Macro Command", func(c *Common, args []string) (any, error) {
		if len(args) != 2 {
			return nil, fault.Validationf("*DMC", args, "want label and sequence, got %d arguments", len(args))
		}
		return noReply(c.DefineMacro(args[0], args[1]))
	}},
	{"*EMC", "EnableMacro", "Enable Macro Command", func(c *Common, args []string) (any, error) {
		s, err := strArg("*EMC", args)
		if err != nil {
			return nil, err
		}
		on, err := ParseBool(s)
		if err != nil {
			return nil, fault.Validation("*EMC", s, "not a boolean")
		}
		return noReply(c.EnableMacro(on))
	}},
	{"*EMC?", "EnableMacroQuery", "Enable Macro Query", func(c *Common, _ []string) (any, error) {
		return c.EnableMacroQuery()
	}},
	{"*ESE", "EventStatusEnable", "Standard Event Status Enable Command", intCmd((*Common).EventStatusEnable, "*ESE")},
	{"*ESE?", "EventStatusEnableQuery", "Standard Event Status Enable Query", intQuery((*Common).EventStatusEnableQuery)},
	{"*ESR?", "EventStatusRegisterQuery", "Standard Event Status Register Query", intQuery((*Common).EventStatusRegisterQuery)},
	{"*GMC?", "GetMacroContentsQuery", "Get Macro Contents Query", func(c *Common, args []string) (any, error) {
		label, err := strArg("*GMC?", args)
		if err != nil {
			return nil, err
		}
		return c.GetMacroContentsQuery(label)
	}},
	{"*IDN?", "IdentificationQuery", "Identification Query", func(c *Common, _ []string) (any, error) {
		return c.IdentificationQuery()
	}},
	{"*IST?", "IndividualStatusQuery", "Individual Status Query", intQuery((*Common).IndividualStatusQuery)},
	{"*LMC?", "LearnMacroQuery", "Learn Macro Query", strQuery((*Common).LearnMacroQuery)},
	{"*LRN?", "LearnDeviceSetupQuery", "Learn Device Setup Query", strQuery((*Common).LearnDeviceSetupQuery)},
	{"*OPC", "OperationComplete", "Operation Complete Command", plain((*Common).OperationComplete)},
	{"*OPC?", "OperationCompleteQuery", "Operation Complete Query", intQuery((*Common).OperationCompleteQuery)},
	{"*OPT?", "OptionIdentificationQuery", "Option Identification Query", strQuery((*Common).OptionIdentificationQuery)},
	{"*PCB", "PassControlBack", "Pass Control Back", intCmd((*Common).PassControlBack, "*PCB")},
	{"*PMC", "PurgeMacros", "Purge Macros Command", plain((*Common).PurgeMacros)},
	{"*PRE", "ParallelPollEnable", "Parallel Poll Enable Register Command", intCmd((*Common).ParallelPollEnable, "*PRE")},
	{"*PRE?", "ParallelPollEnableQuery", "Parallel Poll Enable Register Query", intQuery((*Common).ParallelPollEnableQuery)},
	{"*PSC?", "PowerOnStatusClearQuery", "Power-On Status Clear Query", intQuery((*Common).PowerOnStatusClearQuery)},
	{"*PUD", "ProtectedUserData", "Protected User Data Command", strCmd((*Common).ProtectedUserData, "*PUD")},
	{"*PUD?", "ProtectedUserDataQuery", "Protected User Data Query", strQuery((*Common).ProtectedUserDataQuery)},
	{"*RCL", "Recall", "Recall Command", intCmd((*Common).Recall, "*RCL")},
	{"*RDT", "ResourceDescriptionTransfer", "Resource Description Transfer Command", strCmd((*Common).ResourceDescriptionTransfer, "*RDT")},
	{"*RDT?", "ResourceDescriptionTransferQuery", "Resource Description Transfer Query", strQuery((*Common).ResourceDescriptionTransferQuery)},
	{"*RST", "Reset", "Reset Command", plain((*Common).Reset)},
	{"*SAV", "Save", "Save Command", intCmd((*Common).Save, "*SAV")},
	{"*SRE", "ServiceRequestEnable", "Service Request Enable Command", intCmd((*Common).ServiceRequestEnable, "*SRE")},
	{"*SRE?", "ServiceRequestEnableQuery", "Service Request Enable Query", intQuery((*Common).ServiceRequestEnableQuery)},
	{"*STB?", "StatusByteQuery", "Read Status Byte Query", intQuery((*Common).StatusByteQuery)},
	{"*TRG", "Trigger", "Trigger Command", plain((*Common).Trigger)},
	{"*TST?", "SelfTestQuery", "Self-Test Query", intQuery((*Common).SelfTestQuery)},
	{"*WAI", "WaitToContinue", "Wait-to-Continue Command", plain((*Common).WaitToContinue)},
	{"*RMC", "RemoveIndividualMacro", "Remove Individual Macro Command", strCmd((*Common).RemoveIndividualMacro, "*RMC")},
	{"*SDS", "SaveDefaultDeviceSettings", "Save Default Device Settings Command", intCmd((*Common).SaveDefaultDeviceSettings, "*SDS")},
}

var commandsByToken = func() map[string]*command {
	m := make(map[string]*command, len(commonCommands))
	for i := range commonCommands {
		m[commonCommands[i].token] = &commonCommands[i]
	}
	return m
}()

// Vocabulary returns the common command table in declaration order.
func Vocabulary() []dispatch.VocabEntry {
	out := make([]dispatch.VocabEntry, len(commonCommands))
	for i, cmd := range commonCommands {
		out[i] = dispatch.VocabEntry{Token: cmd.token, Name: cmd.name}
	}
	return out
}

// Describe returns the short description of a common command token.
func Describe(token string) (string, bool) {
	cmd, ok := commandsByToken[token]
	if !ok {
		return "", false
	}
	return cmd.desc, true
}

// Bind returns a dispatch handler running token on c. It returns nil for
// tokens outside the common command set.
func Bind(c *Common, token string) dispatch.Handler {
	cmd, ok := commandsByToken[token]
	if !ok {
		return nil
	}
	return func(args ...string) (any, error) {
		return cmd.call(c, args)
	}
}

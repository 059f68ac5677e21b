// Package scpi implements the IEEE 488.2 common command set and the reply
// parsing shared by SCPI-speaking drivers.
//
// # Common Commands
//
// Common wraps a Conn and exposes one method per '*' command. Link adapts
// a bare transport; a device passes itself. The
// Vocabulary table maps each wire token to its method name so a driver can
// publish a subset through a dispatch.Registry:
//
//	entries, err := dispatch.Select(scpi.Vocabulary(), "*IDN? *RST")
//	for _, e := range entries {
//	    reg.Register(e.Name, e.Token, scpi.Bind(common, e.Token))
//	}
//
// # Replies
//
// Replies are comma separated ASCII fields, optionally double quoted. All
// fields are split into a slice before any is indexed. The parse helpers
// return *strconv.NumError; Common wraps those in protocol faults. Bad
// handler arguments are validation faults naming the command token.
//
// # Error Queue
//
// SystemError reads SYST:ERR?. An ErrorTable, loaded from embedded YAML,
// turns nonzero codes into *fault.InstrumentError values carrying the
// vendor explanation.
package scpi

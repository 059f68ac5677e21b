// Package dispatch maps command names and shortcuts to handlers.
//
// A driver registers each operation under a canonical name together with
// the wire token it sends. The registry derives a shortcut from the token
// so interactive users can type the instrument's own mnemonic:
//
//	*IDN?      -> IDNQ
//	*RST       -> RST
//	SYST:ERR?  -> SYSTERRQ
//
// Which common commands a driver exposes is chosen by an allow-list string
// such as "*IDN? *RST", or "ALL". Unknown tokens in the allow-list are
// rejected before the driver touches its transport.
//
// After construction a driver seals its registry; lookups are then
// read-only and safe for concurrent use.
package dispatch

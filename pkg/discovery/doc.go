// Package discovery finds LXI instruments on the local network over
// mDNS/DNS-SD.
//
// # Service Types
//
// LXI devices advertise up to three services:
//
//   - _scpi-raw._tcp: raw SCPI socket, usually port 5025
//   - _lxi._tcp: the instrument web interface
//   - _hislip._tcp: HiSLIP, usually port 4880
//
// Browse watches a single service type. FindAll browses all three for a
// fixed time and merges the results by host, keeping the raw socket port
// when one was advertised.
//
// # TXT Records
//
// The LXI device specification defines the TXT keys Manufacturer, Model,
// SerialNumber and FirmwareVersion. Missing keys leave the matching
// Instrument field empty.
package discovery

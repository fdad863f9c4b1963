// Package vaisala decodes ASCII telemetry from Vaisala WXT520 weather
// transmitters.
//
// A WXT520 emits sentences such as
//
//	0R1,Dn=236D,Dm=283D,Dx=031D,Sn=0.0M,Sm=1.0M,Sx=2.2M
//	0R2,Ta=23.6C,Ua=14.2P,Pa=1026.6H
//
// where the leading digits address the station, the token after R (or T) is the
// message id and every field value ends with a one-character unit suffix. An
// Instrument keeps the latest fields per message id for one station and turns
// them into physical quantities in the unit the caller asks for.
//
// The package does no I/O. The host reads lines from the serial port and
// passes each one to Instrument.Update together with the time it arrived.
package vaisala

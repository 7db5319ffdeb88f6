// Package ezo is the command library for Atlas Scientific EZO circuits.
//
// Each sensor kind has a fixed, ordered grammar of commands. A command is
// written as a lower-case keyword followed by at most one argument:
//
//	calibration_mid 7.00
//	datalogger_interval 30
//	import 59,6F,75,20,61,72
//
// Parsed commands translate to the circuit's ASCII command set
// ("Cal,mid,7"), carry the processing delay the circuit needs, and parse the
// circuit's answer into a typed Reply.
package ezo

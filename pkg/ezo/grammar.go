package ezo

import (
	"github.com/benita-io/benita-go/pkg/command"
	"github.com/benita-io/benita-go/pkg/sensor"
)

// Commands shared by every circuit.
var (
	calibrationClear  = &def{name: "calibration_clear", device: "Cal,clear", reply: ackReply}
	calibrationStatus = &def{name: "calibration_status", device: "Cal,?", reply: queryReply("CAL", "calibration points", number)}
	compensationGet   = &def{name: "compensation_get", device: "T,?", reply: queryReply("T", "compensation", number)}
	compensationSet   = &def{name: "compensation_set", arg: argFloat, device: "T,%s", reply: ackReply}
	deviceInfo        = &def{name: "device_info", device: "i", reply: infoReply}
	export            = &def{name: "export", device: "Export", reply: rawReply}
	exportInfo        = &def{name: "export_info", device: "Export,?", reply: rawReply}
	importCal         = &def{name: "import", arg: argText, device: "Import,%s", reply: ackReply}
	find              = &def{name: "find", device: "Find", reply: ackReply}
	ledOff            = &def{name: "led_off", device: "L,0", reply: ackReply}
	ledOn             = &def{name: "led_on", device: "L,1", reply: ackReply}
	ledStatus         = &def{name: "led_status", device: "L,?", reply: queryReply("L", "led", onOff)}
	plockDisable      = &def{name: "protocol_lock_disable", device: "Plock,0", reply: ackReply}
	plockEnable       = &def{name: "protocol_lock_enable", device: "Plock,1", reply: ackReply}
	plockStatus       = &def{name: "protocol_lock_status", device: "Plock,?", reply: queryReply("PLOCK", "protocol lock", onOff)}
	read              = &def{name: "read", device: "R", wait: waitRead, reply: readingReply}
	status            = &def{name: "status", device: "Status", reply: statusReply}
	sleep             = &def{name: "sleep", device: "Sleep"}
)

var conductivityDefs = []*def{
	calibrationClear,
	{name: "calibration_dry", device: "Cal,dry", wait: waitRead, reply: ackReply},
	{name: "calibration_high", arg: argFloat, device: "Cal,high,%s", wait: waitRead, reply: ackReply},
	{name: "calibration_low", arg: argFloat, device: "Cal,low,%s", wait: waitRead, reply: ackReply},
	{name: "calibration_onepoint", arg: argFloat, device: "Cal,%s", wait: waitRead, reply: ackReply},
	calibrationStatus,
	compensationGet,
	compensationSet,
	deviceInfo,
	export,
	exportInfo,
	importCal,
	find,
	ledOff,
	ledOn,
	ledStatus,
	{name: "output_disable_conductivity", device: "O,EC,0", reply: ackReply},
	{name: "output_enable_conductivity", device: "O,EC,1", reply: ackReply},
	{name: "output_disable_salinity", device: "O,S,0", reply: ackReply},
	{name: "output_enable_salinity", device: "O,S,1", reply: ackReply},
	{name: "output_disable_sg", device: "O,SG,0", reply: ackReply},
	{name: "output_enable_sg", device: "O,SG,1", reply: ackReply},
	{name: "output_disable_tds", device: "O,TDS,0", reply: ackReply},
	{name: "output_enable_tds", device: "O,TDS,1", reply: ackReply},
	{name: "output_status", device: "O,?", reply: outputReply},
	{name: "probe_type_one", device: "K,1.0", reply: ackReply},
	{name: "probe_type_point_one", device: "K,0.1", reply: ackReply},
	{name: "probe_type_status", device: "K,?", reply: queryReply("K", "probe type", number)},
	{name: "probe_type_ten", device: "K,10.0", reply: ackReply},
	plockDisable,
	plockEnable,
	plockStatus,
	read,
	status,
	sleep,
}

var phDefs = []*def{
	calibrationClear,
	{name: "calibration_high", arg: argFloat, device: "Cal,high,%s", wait: waitSlow, reply: ackReply},
	{name: "calibration_low", arg: argFloat, device: "Cal,low,%s", wait: waitSlow, reply: ackReply},
	{name: "calibration_mid", arg: argFloat, device: "Cal,mid,%s", wait: waitSlow, reply: ackReply},
	calibrationStatus,
	compensationGet,
	compensationSet,
	deviceInfo,
	export,
	exportInfo,
	importCal,
	find,
	ledOff,
	ledOn,
	ledStatus,
	plockDisable,
	plockEnable,
	plockStatus,
	{name: "read", device: "R", wait: waitSlow, reply: readingReply},
	status,
	sleep,
	{name: "slope", device: "Slope,?", reply: slopeReply},
}

var temperatureDefs = []*def{
	calibrationClear,
	calibrationStatus,
	{name: "calibration_set", arg: argFloat, device: "Cal,%s", wait: waitRead, reply: ackReply},
	{name: "datalogger_disable", device: "D,0", reply: ackReply},
	{name: "datalogger_interval", arg: argUint, device: "D,%s", reply: ackReply},
	{name: "datalogger_status", device: "D,?", reply: queryReply("D", "datalogger interval", number)},
	deviceInfo,
	export,
	exportInfo,
	importCal,
	find,
	ledOff,
	ledOn,
	ledStatus,
	{name: "memory_clear", device: "M,clear", reply: ackReply},
	{name: "memory_recall", device: "M", reply: memoryReply},
	{name: "memory_recall_last", device: "M,?", reply: memoryReply},
	plockDisable,
	plockEnable,
	plockStatus,
	read,
	{name: "scale_celsius", device: "S,c", reply: ackReply},
	{name: "scale_fahrenheit", device: "S,f", reply: ackReply},
	{name: "scale_kelvin", device: "S,k", reply: ackReply},
	{name: "scale_status", device: "S,?", reply: queryReply("S", "scale", scaleName)},
	status,
	sleep,
}

var grammars = map[sensor.Kind]*command.Grammar{
	sensor.KindConductivity: build(sensor.KindConductivity, conductivityDefs),
	sensor.KindPH:           build(sensor.KindPH, phDefs),
	sensor.KindTemperature:  build(sensor.KindTemperature, temperatureDefs),
}

func build(kind sensor.Kind, defs []*def) *command.Grammar {
	ds := make([]command.Descriptor, len(defs))
	for i, d := range defs {
		ds[i] = d.descriptor(kind)
	}
	return command.NewGrammar(kind, ds...)
}

// Grammar returns the grammar of kind, or nil for an invalid kind.
// Grammars are shared and immutable.
func Grammar(kind sensor.Kind) *command.Grammar {
	return grammars[kind]
}

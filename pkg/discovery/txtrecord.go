package discovery

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/benita-io/benita-go/pkg/sensor"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeResponderTXT creates TXT records for a responder.
func EncodeResponderTXT(info *ResponderInfo) TXTRecordMap {
	txt := make(TXTRecordMap)
	txt[TXTKeyKind] = info.Kind.String()

	if info.DevicePath != "" {
		txt[TXTKeyDevicePath] = info.DevicePath
	}
	if info.DeviceAddress != 0 {
		txt[TXTKeyDeviceAddress] = fmt.Sprintf("0x%x", info.DeviceAddress)
	}
	return txt
}

// DecodeResponderTXT parses responder TXT records. The instance ID and
// port come from the service record, not the TXT data.
func DecodeResponderTXT(txt TXTRecordMap) (*ResponderInfo, error) {
	kindStr, ok := txt[TXTKeyKind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyKind)
	}
	kind, err := sensor.ParseKind(kindStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTXTRecord, err)
	}

	info := &ResponderInfo{
		Kind:       kind,
		DevicePath: txt[TXTKeyDevicePath],
	}
	if addr, ok := txt[TXTKeyDeviceAddress]; ok {
		v, err := strconv.ParseUint(addr, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidTXTRecord, TXTKeyDeviceAddress, addr)
		}
		info.DeviceAddress = uint32(v)
	}
	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}

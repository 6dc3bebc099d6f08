package modbustcp

import "github.com/nerrad567/fieldlink-core/internal/adapter"

// Protocol limits from the Modbus application protocol spec.
const (
	maxRegisterSpace = 65536
	maxRegisterRead  = 125
	maxCoilRead      = 2000
)

// configSchema is the structural schema for Modbus TCP connections.
// This is configuration data, not logic; the generic rules are applied
// by the validation package.
func configSchema() adapter.Schema {
	return adapter.Schema{
		Fields: map[string]adapter.Field{
			"host": {
				Type: adapter.FieldString, Required: true, Format: "host",
				Description: "Device or gateway address",
			},
			"port": {
				Type: adapter.FieldInteger, Default: 502,
				Min: adapter.NumPtr(1), Max: adapter.NumPtr(65535),
			},
			"unitId": {
				Type: adapter.FieldInteger, Required: true,
				Min:         adapter.NumPtr(1),
				Max:         adapter.NumPtr(247),
				Description: "Modbus unit/slave identifier",
			},
			"registerAddress": {
				Type: adapter.FieldInteger, Required: true,
				Min: adapter.NumPtr(0), Max: adapter.NumPtr(65535),
			},
			"registerCount": {
				Type: adapter.FieldInteger, Default: 1,
				Min: adapter.NumPtr(1), Max: adapter.NumPtr(maxCoilRead),
			},
			"functionCode": {
				Type: adapter.FieldInteger, Default: 3,
				Enum:        []any{1, 2, 3, 4},
				Description: "1=coils 2=discrete inputs 3=holding 4=input registers",
			},
			"timeout": {
				Type: adapter.FieldInteger, Default: 5000,
				Min:         adapter.NumPtr(100),
				Max:         adapter.NumPtr(60000),
				Description: "Request timeout in milliseconds",
			},
			"pollInterval": {
				Type: adapter.FieldInteger, Default: 1000,
				Min: adapter.NumPtr(100), Max: adapter.NumPtr(3600000),
			},
			"sensorId": {Type: adapter.FieldString},
			"tenantId": {Type: adapter.FieldString},
		},
		Order: []string{
			"host", "port", "unitId", "registerAddress", "registerCount",
			"functionCode", "timeout", "pollInterval", "sensorId", "tenantId",
		},
	}
}

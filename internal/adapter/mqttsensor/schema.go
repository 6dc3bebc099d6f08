package mqttsensor

import "github.com/nerrad567/fieldlink-core/internal/adapter"

func configSchema() adapter.Schema {
	return adapter.Schema{
		Fields: map[string]adapter.Field{
			"host": {
				Type: adapter.FieldString, Required: true, Format: "host",
				Description: "Broker address",
			},
			"port": {
				Type: adapter.FieldInteger, Default: 1883,
				Min: adapter.NumPtr(1), Max: adapter.NumPtr(65535),
			},
			"topic": {
				Type: adapter.FieldString, Required: true,
				Description: "Topic filter the sensor publishes on; supports + and # wildcards",
			},
			"clientId": {Type: adapter.FieldString},
			"qos": {
				Type: adapter.FieldInteger, Default: 1,
				Enum: []any{0, 1, 2},
			},
			"username": {Type: adapter.FieldString},
			"password": {Type: adapter.FieldString},
			"tls":      {Type: adapter.FieldBoolean, Default: false},
			"timeout": {
				Type: adapter.FieldInteger, Default: 10000,
				Min:         adapter.NumPtr(100),
				Max:         adapter.NumPtr(60000),
				Description: "Broker connect timeout in milliseconds",
			},
			"sensorId": {Type: adapter.FieldString},
			"tenantId": {Type: adapter.FieldString},
		},
		Order: []string{
			"host", "port", "topic", "clientId", "qos",
			"username", "password", "tls", "timeout", "sensorId", "tenantId",
		},
	}
}

package snmpudp

import "github.com/nerrad567/fieldlink-core/internal/adapter"

func configSchema() adapter.Schema {
	return adapter.Schema{
		Fields: map[string]adapter.Field{
			"host": {
				Type: adapter.FieldString, Required: true, Format: "host",
				Description: "Agent address",
			},
			"port": {
				Type: adapter.FieldInteger, Default: 161,
				Min: adapter.NumPtr(1), Max: adapter.NumPtr(65535),
			},
			"community": {
				Type: adapter.FieldString, Default: "public",
				Description: "Community string for v1/v2c",
			},
			"version": {
				Type: adapter.FieldString, Default: "2c",
				Enum: []any{"1", "2c"},
			},
			"oids": {
				Type: adapter.FieldList, Required: true,
				Description: "Object identifiers to query, dotted numeric form",
			},
			"timeout": {
				Type: adapter.FieldInteger, Default: 2000,
				Min:         adapter.NumPtr(100),
				Max:         adapter.NumPtr(30000),
				Description: "Per-request timeout in milliseconds",
			},
			"retries": {
				Type: adapter.FieldInteger, Default: 3,
				Min: adapter.NumPtr(0), Max: adapter.NumPtr(10),
			},
			"pollInterval": {
				Type: adapter.FieldInteger, Default: 30000,
				Min: adapter.NumPtr(1000), Max: adapter.NumPtr(3600000),
			},
			"sensorId": {Type: adapter.FieldString},
			"tenantId": {Type: adapter.FieldString},
		},
		Order: []string{
			"host", "port", "community", "version", "oids",
			"timeout", "retries", "pollInterval", "sensorId", "tenantId",
		},
	}
}

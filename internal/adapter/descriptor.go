package adapter

// Descriptor holds the identity, schema, defaults and capabilities of a
// protocol, independent of any live connection. It is immutable after
// adapter construction.
type Descriptor struct {
	// Code is the unique protocol identifier (e.g. "MODBUS_TCP").
	Code string `json:"code"`

	DisplayName string `json:"display_name"`
	Description string `json:"description"`

	Category    Category `json:"category"`
	Subcategory string   `json:"subcategory"`

	// ConnectionType describes the interaction style of the protocol.
	ConnectionType ConnectionType `json:"connection_type"`

	Schema   Schema `json:"configuration_schema"`
	Defaults Config `json:"default_configuration"`

	Capabilities Capabilities `json:"capabilities"`
}

// Category is the coarse protocol family used for catalogue grouping.
type Category string

// Category constants.
const (
	CategoryIndustrial Category = "industrial"
	CategoryIoT        Category = "iot"
	CategorySerial     Category = "serial"
	CategoryWireless   Category = "wireless"
)

// AllCategories returns all valid category values.
func AllCategories() []Category {
	return []Category{CategoryIndustrial, CategoryIoT, CategorySerial, CategoryWireless}
}

// ValidCategory reports whether c is a recognised category.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryIndustrial, CategoryIoT, CategorySerial, CategoryWireless:
		return true
	}
	return false
}

// ConnectionType describes how an adapter interacts with its transport.
type ConnectionType string

// ConnectionType constants.
const (
	// ConnectionPolling is synchronous request/response register polling.
	ConnectionPolling ConnectionType = "polling"

	// ConnectionDatagram is connectionless datagram exchange; Connect
	// logically binds a target rather than establishing a session.
	ConnectionDatagram ConnectionType = "datagram"

	// ConnectionPush is a persistent connection with server-initiated
	// samples delivered through subscriptions.
	ConnectionPush ConnectionType = "push"
)

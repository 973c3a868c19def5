package eventlog

// EventType is the MATSim event type attribute.
type EventType string

const (
	// VehicleEntersTraffic is emitted when a vehicle departs onto the network.
	VehicleEntersTraffic EventType = "vehicle enters traffic"
	// VehicleLeavesTraffic is emitted when a vehicle arrives and leaves the network.
	VehicleLeavesTraffic EventType = "vehicle leaves traffic"
	// EnteredLink is emitted when a vehicle crosses onto a link.
	EnteredLink EventType = "entered link"
	// LeftLink is emitted when a vehicle leaves a link.
	LeftLink EventType = "left link"
	// VehicleAborts is emitted when a stuck vehicle is removed from the simulation.
	VehicleAborts EventType = "vehicle aborts"
)

// Event is a single record of the simulation event log. Only the attributes the
// reduction needs are kept.
type Event struct {
	// Time is the simulation time in seconds after midnight.
	Time float64
	// Type is the kind of event.
	Type EventType
	// Link is the link the event happened on.
	Link string
	// Vehicle identifies the moving vehicle.
	Vehicle string
	// NetworkMode is set on VehicleEntersTraffic / VehicleLeavesTraffic events.
	NetworkMode string
}

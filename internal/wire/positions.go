package wire

// Slot positions of the request and response arrays. Every position the
// encoder writes or the decoder reads is named here and nowhere else.

// Per-segment request array.
const (
	segDeparture       = 0
	segArrival         = 1
	segTimes           = 2
	segStops           = 3
	segAirlines        = 4
	segTravelDate      = 6
	segMaxDuration     = 7
	segLayoverAirports = 9
	segLayoverDuration = 12
	segEmissions       = 13
	segTag             = 14

	segmentSlots = 15
	segmentTag   = 3
)

// Options request array.
const (
	optTripType   = 2
	optReserved   = 4
	optSeatType   = 5
	optPassengers = 6
	optPriceLimit = 7
	optSegments   = 13
	optTag        = 17

	optionSlots = 18
	optionsTag  = 1
)

// searchTrailer follows the sort code in a flight search request.
var searchTrailer = [...]int{0, 0, 2}

// Response envelope.
const (
	antiHijackPrefix = ")]}'"

	envelopeFrame   = 0
	envelopePayload = 2
)

// Flight search payload.
var flightSlots = [...]int{2, 3}

const (
	entryItinerary = 0
	entryPricing   = 1

	itinLegs     = 2
	itinDuration = 9

	legDepartureAirport = 3
	legArrivalAirport   = 6
	legDepartureTime    = 8
	legArrivalTime      = 10
	legDuration         = 11
	legDepartureDate    = 20
	legArrivalDate      = 21
	legFlight           = 22

	flightCarrier = 0
	flightNumber  = 1
)

// Calendar payload. Entries live in the last top-level slot.
const (
	calDate   = 0
	calPrices = 2

	calPriceEntry = 0
	calPriceValue = 1
)

package enums

// ReservationState records how far the inventory reservation saga got for a
// shipment item. "reserving" means the intent was persisted but the remote
// reservation was not confirmed; the reconciler resolves those.
type ReservationState string

const (
	ReservationStateNone      ReservationState = "none"
	ReservationStateReserving ReservationState = "reserving"
	ReservationStateReserved  ReservationState = "reserved"
)

// String implements fmt.Stringer.
func (s ReservationState) String() string {
	return string(s)
}

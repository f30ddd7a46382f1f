package tuya

import "github.com/dresden-mesh/meshgwd/drcerr"

// ScheduleSlot is one (hour, minute, setpoint) tuple of a Tuya thermostat
// schedule, 3 bytes on the wire (SPEC_FULL §4.9).
type ScheduleSlot struct {
	Hour     uint8
	Minute   uint8
	Setpoint uint8 // whole degrees
}

// ParseSchedule decodes a schedule datapoint's raw data into its slots.
// A schedule datapoint (keyed by dp_id for weekday/weekend/all-day) is
// an array of 3-byte tuples with no separate length prefix beyond the
// enclosing datapoint's own length field.
func ParseSchedule(data []byte) ([]ScheduleSlot, error) {
	if len(data)%3 != 0 {
		return nil, drcerr.New(drcerr.Decode, "tuya.ParseSchedule", "schedule data length is not a multiple of 3").WithDetailsf("len=%d", len(data))
	}
	slots := make([]ScheduleSlot, 0, len(data)/3)
	for i := 0; i+3 <= len(data); i += 3 {
		slots = append(slots, ScheduleSlot{
			Hour:     data[i],
			Minute:   data[i+1],
			Setpoint: data[i+2],
		})
	}
	return slots, nil
}

// EncodeSchedule appends the wire encoding of slots to buf.
func EncodeSchedule(buf []byte, slots []ScheduleSlot) []byte {
	for _, s := range slots {
		buf = append(buf, s.Hour, s.Minute, s.Setpoint)
	}
	return buf
}

package events

import "strconv"

// Fixed2 is a float64 serialized with two-decimal fixed precision,
// e.g. 23.5 -> 23.50.
type Fixed2 float64

func (f Fixed2) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, float64(f), 'f', 2, 64), nil
}

func (f *Fixed2) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*f = Fixed2(v)
	return nil
}

// Telemetry carries one temperature reading
//
// example:
// `{"temperature": 22.00}`
type Telemetry struct {
	Temperature Fixed2 `json:"temperature"`
}

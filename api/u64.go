package api

import (
	"encoding/json"
	"strconv"
)

// U64 is a uint64 that is a decimal string in JSON, as the node encodes every u64
type U64 uint64

func (u U64) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(u), 10))
}

func (u *U64) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		// tolerate plain numbers
		var num uint64
		if numErr := json.Unmarshal(b, &num); numErr != nil {
			return err
		}
		*u = U64(num)
		return nil
	}
	v, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return err
	}
	*u = U64(v)
	return nil
}

func (u U64) ToUint64() uint64 {
	return uint64(u)
}

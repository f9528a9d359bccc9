package util

import (
	"errors"
	"strconv"
)

var ErrInvalidID = errors.New("invalid identifier")

// ParseID accepts only positive base-10 integers.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)

	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}

	return id, nil
}

package utils

import (
	"errors"
	"strings"

	"github.com/ttacon/libphonenumber"
)

const DefaultPhoneRegion = "VE"

var ErrInvalidPhone = errors.New("phone number is not valid")

// NormalizePhone parses a phone number (local numbers are read as
// Venezuelan) and returns it in E.164. Empty input stays empty.
func NormalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}
	p, err := libphonenumber.Parse(phone, DefaultPhoneRegion)
	if err != nil {
		return "", ErrInvalidPhone
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", ErrInvalidPhone
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

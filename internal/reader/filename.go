package reader

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedName is returned when a data file stem does not follow the
// benchmark naming scheme <institution>_<material>_<number>.
var ErrMalformedName = errors.New("file name must follow institution_material_number")

// decodeFilename splits a file stem such as "KIT_CF5050K_03" into the
// material label and the sample number. Both "_" and "-" separate fields;
// the leading institution token is not interpreted.
func decodeFilename(stem string) (material string, number int, err error) {
	fields := strings.FieldsFunc(stem, func(r rune) bool {
		return r == '_' || r == '-'
	})
	if len(fields) != 3 {
		return "", 0, fmt.Errorf("%w: %q has %d fields", ErrMalformedName, stem, len(fields))
	}
	number, err = strconv.Atoi(fields[2])
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q has no sample number", ErrMalformedName, stem)
	}
	return fields[1], number, nil
}

package transform

import "strings"

// Summary moves the leading course number behind the course name:
// "250 Data Structures" becomes "Data Structures 250".
func Summary(s string) (string, error) {
	number, name, ok := strings.Cut(s, " ")
	if !ok {
		return "", fieldErr(FieldSummary, ErrMissingSeparator)
	}
	return name + " " + number, nil
}

// FormatDescription reformats an exported course description, see
// ParseDescription.
func FormatDescription(s string) (string, error) {
	d, err := ParseDescription(s)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

// splitLocation splits "Milner,room 204" into the building name and the bare
// room designation.
func splitLocation(s string) (bldg, room string, err error) {
	bldg, rawRoom, ok := strings.Cut(s, ",")
	if !ok {
		return "", "", fieldErr(FieldLocation, ErrMissingSeparator)
	}
	room = strings.TrimSpace(strings.ReplaceAll(rawRoom, "room", ""))
	return bldg, room, nil
}

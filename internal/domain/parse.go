package domain

import "strings"

// ParseCategory resolves a submitted category label to the closed
// enumeration. It accepts both the wire values and the human labels the
// reporting UI sends ("Garbage Pile", "Water Leakage", "Street Light").
func ParseCategory(raw string) (TicketCategory, bool) {
	normalized := normalize(raw)
	switch normalized {
	case "POTHOLE":
		return CategoryPothole, true
	case "GARBAGE", "GARBAGE_PILE":
		return CategoryGarbage, true
	case "WATER_LEAK", "WATER_LEAKAGE":
		return CategoryWaterLeak, true
	case "STREET_LIGHT", "STREETLIGHT":
		return CategoryStreetLight, true
	}
	return "", false
}

// ParseStatus resolves a submitted status label to the closed
// enumeration, accepting "In Progress" style labels alongside the wire
// values.
func ParseStatus(raw string) (TicketStatus, bool) {
	status := TicketStatus(normalize(raw))
	if ValidStatus(status) {
		return status, true
	}
	return "", false
}

func normalize(raw string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", "_"))
}

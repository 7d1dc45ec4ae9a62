package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Ключи локализации
	KeyInfo           Code = 1000
	KeyMissing        Code = 1001
	KeyUnused         Code = 1002
	KeyPartialMissing Code = 1003
	KeyDuplicate      Code = 1004

	// Наблюдаемость
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeIDs = map[Code]string{
		KeyMissing:        "MISSING_KEY",
		KeyUnused:         "UNUSED_KEY",
		KeyPartialMissing: "PARTIAL_MISSING_KEY",
		KeyDuplicate:      "DUPLICATE_KEY",
	}

	codeDescription = map[Code]string{
		UnknownCode:       "Unknown error",
		KeyInfo:           "Localization key information",
		KeyMissing:        "Localization key is not defined in any culture",
		KeyUnused:         "Localization key is defined but never used",
		KeyPartialMissing: "Localization key is missing in some cultures",
		KeyDuplicate:      "Localization key is defined multiple times in the same file",
		ObsInfo:           "Observability information",
		ObsTimings:        "Pipeline timings",
	}
)

// ID returns the stable identifier of the code. The four key codes keep
// their public names; everything else falls back to a numeric form.
func (c Code) ID() string {
	if id, ok := codeIDs[c]; ok {
		return id
	}
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("KEY%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// ParseCode maps a stable identifier back to its Code.
func ParseCode(id string) (Code, bool) {
	for c, s := range codeIDs {
		if s == id {
			return c, true
		}
	}
	return UnknownCode, false
}

// KnownCodes lists the key diagnostic codes in a stable order.
func KnownCodes() []Code {
	return []Code{KeyMissing, KeyUnused, KeyPartialMissing, KeyDuplicate}
}

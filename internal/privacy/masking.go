package privacy

import (
	"strings"

	"voipbits/internal/constants"
)

// MaskPhoneNumber masks a phone number or DID showing only the last 4
// digits. Example: "+1234567890" -> "+******7890"
func MaskPhoneNumber(phone string) string {
	if phone == "" {
		return ""
	}

	keep := constants.DefaultPhoneMaskLength

	if strings.HasPrefix(phone, "+") {
		if len(phone) <= keep+1 {
			return "+" + strings.Repeat("*", len(phone)-1)
		}
		return "+" + strings.Repeat("*", len(phone)-keep-1) + phone[len(phone)-keep:]
	}

	if len(phone) <= keep {
		return strings.Repeat("*", len(phone))
	}
	return strings.Repeat("*", len(phone)-keep) + phone[len(phone)-keep:]
}

// MaskPushToken masks a device push token while keeping enough of the
// tail to correlate log lines against a device.
// Example: "a1b2c3d4e5f6" -> "********e5f6"
func MaskPushToken(token string) string {
	if token == "" {
		return ""
	}

	keep := constants.DefaultTokenMaskLength
	if len(token) <= keep {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-keep) + token[len(token)-keep:]
}

// MaskMessage truncates message bodies out of log output entirely,
// keeping only the length. SMS content is user data and never logged.
func MaskMessage(message string) string {
	if message == "" {
		return "<empty>"
	}
	return "<redacted>"
}

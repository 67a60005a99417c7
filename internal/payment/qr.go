package payment

import (
	"fmt"
	"strconv"
	"strings"
)

// EMVCo merchant-presented QR tags used by QRIS.
const (
	tagFormat       = "00"
	tagAmount       = "54"
	tagMerchantName = "59"
	tagCRC          = "63"
)

// QR is a decoded QRIS payload. Only top-level tags are split out.
type QR struct {
	Tags map[string]string
}

func (q QR) Amount() string       { return q.Tags[tagAmount] }
func (q QR) MerchantName() string { return q.Tags[tagMerchantName] }

// ParseQR decodes a payload and verifies its checksum. The CRC must be the
// last element and covers everything before its own value.
func ParseQR(payload string) (QR, error) {
	if !strings.HasPrefix(payload, tagFormat+"0201") {
		return QR{}, fmt.Errorf("%w: missing payload format indicator", ErrInvalidQR)
	}

	tags := make(map[string]string)
	for i := 0; i < len(payload); {
		if i+4 > len(payload) {
			return QR{}, fmt.Errorf("%w: truncated element at %d", ErrInvalidQR, i)
		}
		tag := payload[i : i+2]
		n, err := strconv.Atoi(payload[i+2 : i+4])
		if err != nil || n < 0 || i+4+n > len(payload) {
			return QR{}, fmt.Errorf("%w: bad length for tag %s", ErrInvalidQR, tag)
		}
		value := payload[i+4 : i+4+n]
		i += 4 + n

		if tag == tagCRC {
			if n != 4 || i != len(payload) {
				return QR{}, fmt.Errorf("%w: checksum must be the last element", ErrInvalidQR)
			}
			want := fmt.Sprintf("%04X", CRC16(payload[:len(payload)-4]))
			if !strings.EqualFold(value, want) {
				return QR{}, fmt.Errorf("%w: checksum mismatch", ErrInvalidQR)
			}
		}
		tags[tag] = value
	}

	if _, ok := tags[tagCRC]; !ok {
		return QR{}, fmt.Errorf("%w: missing checksum", ErrInvalidQR)
	}
	return QR{Tags: tags}, nil
}

// ValidateQR reports whether payload is a well-formed QRIS code.
func ValidateQR(payload string) error {
	_, err := ParseQR(payload)
	return err
}

// CRC16 is CRC-16/CCITT-FALSE, the checksum EMVCo QR codes carry in tag 63.
func CRC16(s string) uint16 {
	crc := uint16(0xFFFF)
	for i := 0; i < len(s); i++ {
		crc ^= uint16(s[i]) << 8
		for j := 0; j < 8; j++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

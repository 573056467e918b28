// Package datauri конвертирует бинарные данные в data URI и обратно.
package datauri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	Scheme      = "data:"
	DefaultMIME = "application/octet-stream"

	base64Marker = ";base64"
)

var ErrMalformed = errors.New("malformed data uri")

// Payload - декодированные бинарные данные вместе с их MIME-типом
type Payload struct {
	Data     []byte
	MimeType string
}

// Encode кодирует данные в data URI вида data:<mime>;base64,<payload>
func Encode(data []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = DefaultMIME
	}

	prefix := Scheme + mimeType + base64Marker + ","
	buf := make([]byte, len(prefix)+base64.StdEncoding.EncodedLen(len(data)))
	copy(buf, prefix)
	base64.StdEncoding.Encode(buf[len(prefix):], data)

	return string(buf)
}

// Decode декодирует data URI или голый base64.
// mimeType используется, если в самом URI тип не указан.
func Decode(text, mimeType string) (Payload, error) {
	if !strings.HasPrefix(text, Scheme) {
		data, err := decodeBase64(text)
		if err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Payload{Data: data, MimeType: resolveMIME(mimeType, data)}, nil
	}

	comma := strings.IndexByte(text, ',')
	if comma < 0 {
		return Payload{}, fmt.Errorf("%w: missing comma", ErrMalformed)
	}

	header := text[len(Scheme):comma]
	body := text[comma+1:]

	isBase64 := strings.HasSuffix(header, base64Marker)
	header = strings.TrimSuffix(header, base64Marker)

	declared := header
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = declared[:i]
	}
	if declared == "" {
		declared = mimeType
	}

	var data []byte
	var err error
	if isBase64 {
		data, err = decodeBase64(body)
	} else {
		var unescaped string
		unescaped, err = url.PathUnescape(body)
		data = []byte(unescaped)
	}
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return Payload{Data: data, MimeType: resolveMIME(declared, data)}, nil
}

// DecodedLen оценивает размер бинарных данных по длине закодированной строки.
// base64 раздувает данные примерно в 4/3 раза, здесь обратное преобразование.
// Для data URI без ;base64 тело percent-кодировано и считается после раскодирования.
func DecodedLen(encoded string) int64 {
	body := encoded
	if strings.HasPrefix(encoded, Scheme) {
		comma := strings.IndexByte(encoded, ',')
		if comma < 0 {
			return 0
		}
		body = encoded[comma+1:]

		if !strings.HasSuffix(encoded[len(Scheme):comma], base64Marker) {
			unescaped, err := url.PathUnescape(body)
			if err != nil {
				return int64(len(body))
			}
			return int64(len(unescaped))
		}
	}

	n := int64(len(body))
	if n == 0 {
		return 0
	}

	padding := int64(0)
	if strings.HasSuffix(body, "==") {
		padding = 2
	} else if strings.HasSuffix(body, "=") {
		padding = 1
	}

	return n*3/4 - padding
}

// IsDataURI проверяет, что строка является data URI
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, Scheme)
}

// DetectMIME определяет MIME-тип по содержимому
func DetectMIME(data []byte) string {
	return mimetype.Detect(data).String()
}

func resolveMIME(declared string, data []byte) string {
	if declared != "" {
		return declared
	}
	return DetectMIME(data)
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if len(s)%4 != 0 {
		return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	}
	return base64.StdEncoding.DecodeString(s)
}

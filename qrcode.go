package auth

import (
	"encoding/base64"

	"github.com/goliatone/go-errors"
	qrc "github.com/skip2/go-qrcode"
)

// DefaultQRSize is the pixel size of generated enrollment QR images.
const DefaultQRSize = 256

// EnrollmentQR renders the provisioning URI as a PNG QR image and returns
// it base64 encoded, ready for an <img src="data:image/png;base64,...">.
func EnrollmentQR(uri string, size int) (string, error) {
	if uri == "" {
		return "", errors.New("provisioning URI is required", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}
	if size <= 0 {
		size = DefaultQRSize
	}

	png, err := qrc.Encode(uri, qrc.Medium, size)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to render enrollment QR")
	}

	return base64.StdEncoding.EncodeToString(png), nil
}

package gala

import (
	"encoding/base64"
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// ErrNoIdentity is returned by export operations when no wallet is loaded.
var ErrNoIdentity = errors.New("no wallet loaded")

// ExportMnemonic returns the recovery phrase for backup display. The caller
// is responsible for not logging it.
func (s *Session) ExportMnemonic() (string, error) {
	if s.identity == nil {
		return "", ErrNoIdentity
	}
	return s.identity.Mnemonic(), nil
}

// ExportAddressQR renders the wallet address as a QR code and returns it as
// a base64 PNG, sized size by size pixels.
func (s *Session) ExportAddressQR(size int) (string, error) {
	if s.identity == nil {
		return "", ErrNoIdentity
	}
	png, err := qrcode.Encode(s.identity.Address(), qrcode.Medium, size)
	if err != nil {
		return "", fmt.Errorf("failed to render QR code: %w", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

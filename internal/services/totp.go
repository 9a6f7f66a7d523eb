package services

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	totpPeriod     = 30
	totpSecretSize = 20
)

// TOTPSecret is a freshly generated shared secret and its enrollment URI.
type TOTPSecret struct {
	Secret          string
	ProvisioningURI string
}

// TOTP generates and checks RFC 6238 codes: 30s steps, 6 digits, SHA1.
// Skew is the number of adjacent steps accepted on each side of now.
// Codes are not remembered, so a code may be reused within its window.
type TOTP struct {
	Issuer string
	Skew   uint
	Now    func() time.Time
}

func NewTOTP(issuer string, skew uint) *TOTP {
	return &TOTP{Issuer: issuer, Skew: skew, Now: time.Now}
}

func (t *TOTP) opts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      t.Skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// GenerateSecret returns a random base32 secret and an otpauth:// URI labelled
// "Issuer:account".
func (t *TOTP) GenerateSecret(account string) (TOTPSecret, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      t.Issuer,
		AccountName: account,
		Period:      totpPeriod,
		SecretSize:  totpSecretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return TOTPSecret{}, err
	}
	return TOTPSecret{Secret: key.Secret(), ProvisioningURI: key.URL()}, nil
}

// Verify reports whether code matches secret at the current step or within Skew steps of it.
func (t *TOTP) Verify(secret, code string) bool {
	if secret == "" || code == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, t.Now().UTC(), t.opts())
	return err == nil && ok
}

// CodeAt returns the code for secret at time at.
func (t *TOTP) CodeAt(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at.UTC(), t.opts())
}
